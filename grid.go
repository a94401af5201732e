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

// Package icgem reads gridded data products of the International Centre for
// Global Earth Models (ICGEM) from their ASCII grid (.gdf) format, checks
// that the grid metadata in the file header is consistent with the data,
// and provides the helpers used to map, profile and export the result.
package icgem

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Version gives the version number.
const Version = "0.3.0"

// Names of the columns that receive special treatment.
const (
	// LatitudeField and LongitudeField are the coordinate columns. When both
	// are present their extent is checked against the header area.
	LatitudeField  = "latitude"
	LongitudeField = "longitude"

	// HeightField is the synthetic column added when the header declares
	// a height over the ellipsoid.
	HeightField = "h_over_ellipsoid"
)

// areaTolerance is the tolerance for comparing the header area to the
// extent of the coordinate columns.
const areaTolerance = 1.e-6

// ErrUnknownField is returned when a requested column is not in a grid.
var ErrUnknownField = errors.New("unknown field")

// Grid holds the data and metadata read from an ICGEM grid file.
// A Grid returned by Read or Decode has been fully validated and
// should be treated as read-only.
type Grid struct {
	// Shape is the number of latitude parallels and longitude parallels
	// in the grid.
	Shape [2]int

	// Size is the number of grid points declared in the header.
	Size int

	// Area holds the south, north, west and east limits of the grid.
	Area [4]float64

	// Header is the raw text of the file header, including the
	// end_of_head line.
	Header string

	// Height is the height over the ellipsoid at which the data were
	// computed. It is only set if HasHeight is true.
	Height    float64
	HasHeight bool

	// Attributes are the names of the data columns, in file order.
	Attributes []string

	// Columns holds the data for each attribute, plus the HeightField
	// column if HasHeight is true. Each column holds Shape[0]*Shape[1]
	// values in row-major order, with latitude rows ordered from south
	// to north.
	Columns map[string][]float64
}

// Field returns the data column with the given name.
func (g *Grid) Field(name string) ([]float64, error) {
	v, ok := g.Columns[name]
	if !ok {
		return nil, fmt.Errorf("icgem: %w %q; valid fields are %v", ErrUnknownField, name, g.Fields())
	}
	return v, nil
}

// Fields returns the names of all columns in the grid, sorted.
func (g *Grid) Fields() []string {
	names := make([]string, 0, len(g.Columns))
	for n := range g.Columns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// HasField returns whether the grid has a column with the given name.
func (g *Grid) HasField(name string) bool {
	_, ok := g.Columns[name]
	return ok
}

// index returns the position in a column of the point in latitude row i
// (counted from the south) and longitude column j.
func (g *Grid) index(i, j int) int { return i*g.Shape[1] + j }

// copy returns a copy of g that shares no column storage with it.
func (g *Grid) copy() *Grid {
	o := *g
	o.Attributes = append([]string(nil), g.Attributes...)
	o.Columns = make(map[string][]float64, len(g.Columns))
	for k, v := range g.Columns {
		o.Columns[k] = append([]float64(nil), v...)
	}
	return &o
}

// shapeMatchesSize returns whether shape[0]*shape[1] equals size, without
// overflowing for large header values.
func shapeMatchesSize(shape [2]int, size int) bool {
	if shape[0] <= 0 || shape[1] <= 0 || size <= 0 {
		return false
	}
	return size%shape[1] == 0 && size/shape[1] == shape[0]
}

// validate checks a grid assembled by a reader before it is returned.
// Every attribute must hold one value per grid point, and the extent of
// the coordinate columns must match the declared area.
func validate(g *Grid) error {
	if !shapeMatchesSize(g.Shape, g.Size) {
		return &ShapeSizeMismatchError{Shape: g.Shape, Size: g.Size}
	}
	var present int
	for _, a := range g.Attributes {
		if _, ok := g.Columns[a]; ok {
			present++
		}
	}
	if present != len(g.Attributes) {
		return &ColumnCountMismatchError{Attributes: len(g.Attributes), Columns: present}
	}
	for _, a := range g.Attributes {
		if n := len(g.Columns[a]); n != g.Size {
			return &MalformedBodyError{Tokens: n, Rows: len(g.Attributes),
				Reason: fmt.Sprintf("column %s has %d values, want %d", a, n, g.Size)}
		}
	}
	lat, latOK := g.Columns[LatitudeField]
	lon, lonOK := g.Columns[LongitudeField]
	if latOK && lonOK {
		computed := [4]float64{floats.Min(lat), floats.Max(lat), floats.Min(lon), floats.Max(lon)}
		if !floats.EqualApprox(g.Area[:], computed[:], areaTolerance) {
			return &AreaMismatchError{Declared: g.Area, Computed: computed}
		}
	}
	return nil
}

// addHeight adds the HeightField column if the grid has a height.
func (g *Grid) addHeight() {
	if !g.HasHeight {
		return
	}
	hv := make([]float64, g.Size)
	for i := range hv {
		hv[i] = g.Height
	}
	g.Columns[HeightField] = hv
}
