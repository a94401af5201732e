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
	"os"
	"strings"

	"github.com/ctessum/cdf"
)

// WriteNetCDF writes g to f in netCDF format. The file has latitude and
// longitude dimensions with coordinate variables of the same names, and
// one [latitude, longitude] variable for each other column. The header
// metadata is stored in global attributes so that ReadNetCDF can rebuild
// the grid.
func (g *Grid) WriteNetCDF(f *os.File) error {
	lats, lons := g.Latitudes(), g.Longitudes()
	dims := []string{LatitudeField, LongitudeField}
	h := cdf.NewHeader(dims, []int{g.Shape[0], g.Shape[1]})

	h.AddVariable(LatitudeField, []string{LatitudeField}, []float64{0})
	h.AddAttribute(LatitudeField, "units", "degrees_north")
	h.AddVariable(LongitudeField, []string{LongitudeField}, []float64{0})
	h.AddAttribute(LongitudeField, "units", "degrees_east")

	vars := g.dataFields()
	for _, v := range vars {
		h.AddVariable(v, dims, []float64{0})
		h.AddAttribute(v, "description", fmt.Sprintf("ICGEM grid field %s", v))
	}

	h.AddAttribute("", "shape", []int32{int32(g.Shape[0]), int32(g.Shape[1])})
	h.AddAttribute("", "size", []int32{int32(g.Size)})
	h.AddAttribute("", "area", g.Area[:])
	h.AddAttribute("", "attributes", strings.Join(g.Attributes, " "))
	h.AddAttribute("", "header", g.Header)
	if g.HasHeight {
		h.AddAttribute("", "height_over_ell", []float64{g.Height})
	}
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("icgem: creating netcdf header: %v", err)
	}

	ff, err := cdf.Create(f, h)
	if err != nil {
		return fmt.Errorf("icgem: creating netcdf file: %v", err)
	}
	if _, err := ff.Writer(LatitudeField, []int{0}, []int{len(lats)}).Write(lats); err != nil {
		return fmt.Errorf("icgem: writing netcdf variable %s: %v", LatitudeField, err)
	}
	if _, err := ff.Writer(LongitudeField, []int{0}, []int{len(lons)}).Write(lons); err != nil {
		return fmt.Errorf("icgem: writing netcdf variable %s: %v", LongitudeField, err)
	}
	for _, v := range vars {
		w := ff.Writer(v, []int{0, 0}, []int{g.Shape[0], g.Shape[1]})
		if _, err := w.Write(g.Columns[v]); err != nil {
			return fmt.Errorf("icgem: writing netcdf variable %s: %v", v, err)
		}
	}
	return nil
}

// dataFields returns the attributes that are not coordinates.
func (g *Grid) dataFields() []string {
	var o []string
	for _, a := range g.Attributes {
		if a != LatitudeField && a != LongitudeField {
			o = append(o, a)
		}
	}
	return o
}

// ReadNetCDF reads a grid written by WriteNetCDF. The grid is checked
// the same way as one read by Decode.
func ReadNetCDF(rw cdf.ReaderWriterAt) (*Grid, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("icgem: opening netcdf file: %v", err)
	}
	g := &Grid{Columns: make(map[string][]float64)}

	shape, ok := f.Header.GetAttribute("", "shape").([]int32)
	if !ok || len(shape) != 2 {
		return nil, &MissingMetadataError{Field: MetadataShape}
	}
	g.Shape = [2]int{int(shape[0]), int(shape[1])}
	size, ok := f.Header.GetAttribute("", "size").([]int32)
	if !ok || len(size) != 1 {
		return nil, &MissingMetadataError{Field: MetadataSize}
	}
	g.Size = int(size[0])
	area, ok := f.Header.GetAttribute("", "area").([]float64)
	if !ok || len(area) != 4 {
		return nil, &MissingMetadataError{Field: MetadataArea}
	}
	copy(g.Area[:], area)
	attrs, ok := f.Header.GetAttribute("", "attributes").(string)
	if !ok {
		return nil, &MissingMetadataError{Field: MetadataAttributes}
	}
	g.Attributes = strings.Fields(attrs)
	g.Header, _ = f.Header.GetAttribute("", "header").(string)
	if height, ok := f.Header.GetAttribute("", "height_over_ell").([]float64); ok && len(height) == 1 {
		g.Height, g.HasHeight = height[0], true
	}

	if !shapeMatchesSize(g.Shape, g.Size) {
		return nil, &ShapeSizeMismatchError{Shape: g.Shape, Size: g.Size}
	}
	n := g.Size
	for _, a := range g.Attributes {
		switch a {
		case LatitudeField, LongitudeField:
			axis, err := readNCFVar(f, a)
			if err != nil {
				return nil, err
			}
			want := g.Shape[0]
			if a == LongitudeField {
				want = g.Shape[1]
			}
			if len(axis) != want {
				return nil, &MalformedBodyError{Tokens: len(axis), Rows: 1,
					Reason: fmt.Sprintf("netcdf variable %s has %d values, want %d", a, len(axis), want)}
			}
			v := make([]float64, n)
			for i := 0; i < g.Shape[0]; i++ {
				for j := 0; j < g.Shape[1]; j++ {
					if a == LatitudeField {
						v[g.index(i, j)] = axis[i]
					} else {
						v[g.index(i, j)] = axis[j]
					}
				}
			}
			g.Columns[a] = v
		default:
			v, err := readNCFVar(f, a)
			if err != nil {
				return nil, err
			}
			if len(v) != n {
				return nil, &MalformedBodyError{Tokens: len(v), Rows: 1,
					Reason: fmt.Sprintf("netcdf variable %s has %d values, want %d", a, len(v), n)}
			}
			g.Columns[a] = v
		}
	}
	if err := validate(g); err != nil {
		return nil, err
	}
	g.addHeight()
	return g, nil
}

// readNCFVar reads all values of variable v.
func readNCFVar(f *cdf.File, v string) ([]float64, error) {
	if len(f.Header.Lengths(v)) == 0 {
		return nil, fmt.Errorf("icgem: read netcdf: variable %v not in file", v)
	}
	r := f.Reader(v, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("icgem: read netcdf variable %s: %v", v, err)
	}
	data, ok := buf.([]float64)
	if !ok {
		return nil, fmt.Errorf("icgem: read netcdf variable %s: type %T is not float64", v, buf)
	}
	return data, nil
}
