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
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// DefaultProfileInterval is the default spacing, in grid lines, between
// the profile locations offered by LocationOptions.
const DefaultProfileInterval = 10

// Dimensions a profile can be taken along.
var Dimensions = []string{LongitudeField, LatitudeField}

// ParseDimension returns the canonical name of a profile dimension,
// which is case insensitive.
func ParseDimension(dimension string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(dimension))
	if d != LatitudeField && d != LongitudeField {
		return "", fmt.Errorf("icgem: invalid profile dimension %q; valid options are %v", dimension, Dimensions)
	}
	return d, nil
}

// OtherDimension returns the dimension that is not the given one.
func OtherDimension(dimension string) (string, error) {
	d, err := ParseDimension(dimension)
	if err != nil {
		return "", err
	}
	if d == LatitudeField {
		return LongitudeField, nil
	}
	return LatitudeField, nil
}

// Axis returns the coordinates of the grid lines along the given dimension,
// in increasing order for a grid read from file.
func (g *Grid) Axis(dimension string) ([]float64, error) {
	d, err := ParseDimension(dimension)
	if err != nil {
		return nil, err
	}
	if d == LatitudeField {
		return g.Latitudes(), nil
	}
	return g.Longitudes(), nil
}

// Profile returns a slice of the named field along the given dimension,
// taken at the grid line of the other dimension nearest to location.
// x holds the coordinates along dimension, y the field values, and at
// the coordinate of the grid line the profile was taken at.
func (g *Grid) Profile(field, dimension string, location float64) (x, y []float64, at float64, err error) {
	v, err := g.Field(field)
	if err != nil {
		return nil, nil, 0, err
	}
	d, err := ParseDimension(dimension)
	if err != nil {
		return nil, nil, 0, err
	}
	other, _ := OtherDimension(d)
	x, _ = g.Axis(d)
	across, _ := g.Axis(other)
	k, err := nearest(across, location)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("icgem: profile along %s of %s: %v", d, field, err)
	}

	y = make([]float64, len(x))
	if d == LongitudeField {
		// Profile along a latitude parallel.
		for j := range y {
			y[j] = v[g.index(k, j)]
		}
	} else {
		for i := range y {
			y[i] = v[g.index(i, k)]
		}
	}
	return x, y, across[k], nil
}

// nearest returns the index of the value in axis closest to v. v must lie
// within half a grid spacing of the axis extent.
func nearest(axis []float64, v float64) (int, error) {
	if math.IsNaN(v) {
		return 0, fmt.Errorf("location is NaN")
	}
	lo, hi := floats.Min(axis), floats.Max(axis)
	var half float64
	if len(axis) > 1 {
		half = (hi - lo) / float64(len(axis)-1) / 2
	}
	if v < lo-half-areaTolerance || v > hi+half+areaTolerance {
		return 0, fmt.Errorf("location %g is outside of the grid range [%g, %g]", v, lo, hi)
	}
	best, bestDist := 0, math.Inf(1)
	for i, a := range axis {
		if d := math.Abs(a - v); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

// LocationOptions returns every interval-th coordinate across the given
// profile dimension, which are the locations a profile along dimension can
// be taken at, and the middle one of them as a default.
func (g *Grid) LocationOptions(dimension string, interval int) (options []float64, mid float64, err error) {
	if interval < 1 {
		return nil, 0, fmt.Errorf("icgem: profile interval must be at least 1 but is %d", interval)
	}
	other, err := OtherDimension(dimension)
	if err != nil {
		return nil, 0, err
	}
	axis, _ := g.Axis(other)
	for i := 0; i < len(axis); i += interval {
		options = append(options, axis[i])
	}
	return options, options[len(options)/2], nil
}

// MinMax returns the smallest and largest values across all the given
// fields.
func MinMax(g *Grid, fields ...string) (vmin, vmax float64, err error) {
	if len(fields) == 0 {
		return math.NaN(), math.NaN(), fmt.Errorf("icgem: MinMax needs at least one field")
	}
	vmin, vmax = math.Inf(1), math.Inf(-1)
	for _, f := range fields {
		v, err := g.Field(f)
		if err != nil {
			return math.NaN(), math.NaN(), err
		}
		vmin = math.Min(vmin, floats.Min(v))
		vmax = math.Max(vmax, floats.Max(v))
	}
	return vmin, vmax, nil
}
