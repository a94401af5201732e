/*
Copyright © 2018 the icgem authors.
This file is part of icgem.

icgem is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

icgem is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with icgem.  If not, see <http://www.gnu.org/licenses/>.
*/

package icgem

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Write writes g to w in ICGEM grid file format. The body is written with
// one line per grid point from north to south, unless the number of grid
// points equals the number of attributes, in which case it is written with
// one line per attribute so that LayoutAuto reads it back unambiguously.
// The HeightField column is written as the height_over_ell header item.
func Write(w io.Writer, g *Grid) error {
	if len(g.Attributes) == 0 {
		return fmt.Errorf("icgem: writing grid: no attributes")
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%-22s%s\n", "product_type", "gravity_field")
	fmt.Fprintf(bw, "%-22s%d\n", "latitude_parallels", g.Shape[0])
	fmt.Fprintf(bw, "%-22s%d\n", "longitude_parallels", g.Shape[1])
	fmt.Fprintf(bw, "%-22s%d\n", "number_of_gridpoints", g.Size)
	for _, kv := range []struct {
		key string
		v   float64
	}{
		{"latlimit_south", g.Area[0]},
		{"latlimit_north", g.Area[1]},
		{"longlimit_west", g.Area[2]},
		{"longlimit_east", g.Area[3]},
	} {
		fmt.Fprintf(bw, "%-22s%s\n", kv.key, formatFloat(kv.v))
	}
	if g.HasHeight {
		fmt.Fprintf(bw, "%-22s%s\n", "height_over_ell", formatFloat(g.Height))
	}
	fmt.Fprintf(bw, "\n%s\n", strings.Join(g.Attributes, " "))
	fmt.Fprintf(bw, "%s %s\n", endOfHead, strings.Repeat("=", 40))

	cols := make([][]float64, len(g.Attributes))
	for i, name := range g.Attributes {
		c, err := g.Field(name)
		if err != nil {
			return err
		}
		if len(c) != g.Size {
			return fmt.Errorf("icgem: writing grid: field %s has %d values but grid size is %d", name, len(c), g.Size)
		}
		cols[i] = c
	}

	nlat, nlon := g.Shape[0], g.Shape[1]
	if g.Size == len(cols) {
		for _, c := range cols {
			vals := make([]string, 0, g.Size)
			for i := nlat - 1; i >= 0; i-- {
				for j := 0; j < nlon; j++ {
					vals = append(vals, formatFloat(c[g.index(i, j)]))
				}
			}
			fmt.Fprintln(bw, strings.Join(vals, " "))
		}
		return bw.Flush()
	}

	vals := make([]string, len(cols))
	for i := nlat - 1; i >= 0; i-- {
		for j := 0; j < nlon; j++ {
			k := g.index(i, j)
			for a, c := range cols {
				vals[a] = formatFloat(c[k])
			}
			fmt.Fprintln(bw, strings.Join(vals, " "))
		}
	}
	return bw.Flush()
}

// WriteFile writes g to the file at path in ICGEM grid file format.
func (g *Grid) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("icgem: %v", err)
	}
	if err := Write(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatFloat formats v with the fewest digits that read back exactly.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
