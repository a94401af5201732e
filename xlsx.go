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
	"fmt"

	"github.com/tealeg/xlsx"
)

// Sheet names used by WriteXLSX.
const (
	XLSXGridSheet     = "grid"
	XLSXMetadataSheet = "metadata"
)

// WriteXLSX writes g to an Excel spreadsheet at path. The grid sheet has a
// heading row of attribute names followed by one row per grid point, from
// north to south. The metadata sheet holds the grid dimensions and area.
func (g *Grid) WriteXLSX(path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(XLSXGridSheet)
	if err != nil {
		return fmt.Errorf("icgem: creating spreadsheet: %v", err)
	}
	cols := make([][]float64, len(g.Attributes))
	row := sheet.AddRow()
	for i, a := range g.Attributes {
		row.AddCell().SetString(a)
		if cols[i], err = g.Field(a); err != nil {
			return err
		}
	}
	for i := g.Shape[0] - 1; i >= 0; i-- {
		for j := 0; j < g.Shape[1]; j++ {
			k := g.index(i, j)
			row = sheet.AddRow()
			for _, c := range cols {
				row.AddCell().SetFloat(c[k])
			}
		}
	}

	meta, err := f.AddSheet(XLSXMetadataSheet)
	if err != nil {
		return fmt.Errorf("icgem: creating spreadsheet: %v", err)
	}
	addMeta := func(name string, v float64) {
		r := meta.AddRow()
		r.AddCell().SetString(name)
		r.AddCell().SetFloat(v)
	}
	addMeta("latitude_parallels", float64(g.Shape[0]))
	addMeta("longitude_parallels", float64(g.Shape[1]))
	addMeta("number_of_gridpoints", float64(g.Size))
	for i, key := range []string{"latlimit_south", "latlimit_north", "longlimit_west", "longlimit_east"} {
		addMeta(key, g.Area[i])
	}
	if g.HasHeight {
		addMeta("height_over_ell", g.Height)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("icgem: saving spreadsheet: %v", err)
	}
	return nil
}
