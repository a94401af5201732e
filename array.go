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
	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Dense returns the named field as a matrix with one row per latitude
// parallel, the first row being the southernmost.
func (g *Grid) Dense(field string) (*mat.Dense, error) {
	v, err := g.Field(field)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(g.Shape[0], g.Shape[1], append([]float64(nil), v...)), nil
}

// Array returns the named field as a (latitude, longitude) array, the
// first latitude index being the southernmost.
func (g *Grid) Array(field string) (*sparse.DenseArray, error) {
	v, err := g.Field(field)
	if err != nil {
		return nil, err
	}
	a := sparse.ZerosDense(g.Shape[0], g.Shape[1])
	copy(a.Elements, v)
	return a, nil
}

// Latitudes returns the latitude of each grid row, from south to north.
// The values are taken from the latitude column if there is one, and are
// otherwise spaced evenly across the grid area.
func (g *Grid) Latitudes() []float64 {
	o := make([]float64, g.Shape[0])
	if lat, ok := g.Columns[LatitudeField]; ok {
		for i := range o {
			o[i] = lat[g.index(i, 0)]
		}
		return o
	}
	return spaced(o, g.Area[0], g.Area[1])
}

// Longitudes returns the longitude of each grid column, from west to east.
// The values are taken from the longitude column if there is one, and are
// otherwise spaced evenly across the grid area.
func (g *Grid) Longitudes() []float64 {
	o := make([]float64, g.Shape[1])
	if lon, ok := g.Columns[LongitudeField]; ok {
		for j := range o {
			o[j] = lon[g.index(0, j)]
		}
		return o
	}
	return spaced(o, g.Area[2], g.Area[3])
}

// spaced fills o with evenly spaced values from lo to hi.
func spaced(o []float64, lo, hi float64) []float64 {
	if len(o) == 1 {
		o[0] = lo
		return o
	}
	d := (hi - lo) / float64(len(o)-1)
	for i := range o {
		o[i] = lo + float64(i)*d
	}
	return o
}

// XYZ is a single field of a grid, arranged with longitude as the column
// index and latitude as the row index. It satisfies the GridXYZ interface
// of gonum.org/v1/plot/plotter.
type XYZ struct {
	g    *Grid
	z    []float64
	x, y []float64
}

// XYZ returns the named field as an XYZ grid.
func (g *Grid) XYZ(field string) (*XYZ, error) {
	z, err := g.Field(field)
	if err != nil {
		return nil, err
	}
	return &XYZ{g: g, z: z, x: g.Longitudes(), y: g.Latitudes()}, nil
}

// Dims returns the number of longitude and latitude grid lines.
func (xyz *XYZ) Dims() (c, r int) { return xyz.g.Shape[1], xyz.g.Shape[0] }

// Z returns the field value at longitude index c and latitude index r.
func (xyz *XYZ) Z(c, r int) float64 { return xyz.z[xyz.g.index(r, c)] }

// X returns the longitude of column c.
func (xyz *XYZ) X(c int) float64 { return xyz.x[c] }

// Y returns the latitude of row r.
func (xyz *XYZ) Y(r int) float64 { return xyz.y[r] }

// Min returns the smallest field value.
func (xyz *XYZ) Min() float64 { return floats.Min(xyz.z) }

// Max returns the largest field value.
func (xyz *XYZ) Max() float64 { return floats.Max(xyz.z) }

// Bounds returns the grid area, with longitude as X and latitude as Y.
func (g *Grid) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: g.Area[2], Y: g.Area[0]},
		Max: geom.Point{X: g.Area[3], Y: g.Area[1]},
	}
}
