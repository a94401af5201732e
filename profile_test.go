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
	"errors"
	"reflect"
	"testing"
)

func TestProfile(t *testing.T) {
	g := testGrid()
	tests := []struct {
		name      string
		field     string
		dimension string
		location  float64
		x, y      []float64
		at        float64
	}{
		{
			name:      "along longitude",
			field:     "gravity",
			dimension: "longitude",
			location:  11.1,
			x:         []float64{20, 20.5, 21, 21.5},
			y:         []float64{200, 201, 202, 203},
			at:        11,
		},
		{
			name:      "along latitude",
			field:     "gravity",
			dimension: "LATITUDE",
			location:  20.6,
			x:         []float64{10, 10.5, 11, 11.5, 12},
			y:         []float64{1, 101, 201, 301, 401},
			at:        20.5,
		},
		{
			name:      "edge",
			field:     "topography_ell",
			dimension: "longitude",
			location:  12.2,
			x:         []float64{20, 20.5, 21, 21.5},
			y:         []float64{-20, -10, 0, 10},
			at:        12,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			x, y, at, err := g.Profile(test.field, test.dimension, test.location)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(x, test.x) {
				t.Errorf("x: have %v, want %v", x, test.x)
			}
			if !reflect.DeepEqual(y, test.y) {
				t.Errorf("y: have %v, want %v", y, test.y)
			}
			if at != test.at {
				t.Errorf("at: have %g, want %g", at, test.at)
			}
		})
	}
}

func TestProfileErrors(t *testing.T) {
	g := testGrid()
	if _, _, _, err := g.Profile("gravity", "longitude", 12.3); err == nil {
		t.Error("location outside of grid should fail")
	}
	if _, _, _, err := g.Profile("gravity", "depth", 11); err == nil {
		t.Error("invalid dimension should fail")
	}
	if _, _, _, err := g.Profile("geoid", "latitude", 21); !errors.Is(err, ErrUnknownField) {
		t.Errorf("have error %v, want unknown field", err)
	}
}

func TestLocationOptions(t *testing.T) {
	g := testGrid()
	opts, mid, err := g.LocationOptions("longitude", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(opts, []float64{10, 11, 12}) || mid != 11 {
		t.Errorf("have %v (%g)", opts, mid)
	}
	opts, mid, err = g.LocationOptions("latitude", DefaultProfileInterval)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(opts, []float64{20}) || mid != 20 {
		t.Errorf("have %v (%g)", opts, mid)
	}
	if _, _, err := g.LocationOptions("latitude", 0); err == nil {
		t.Error("zero interval should fail")
	}
}

func TestMinMax(t *testing.T) {
	g := testGrid()
	vmin, vmax, err := MinMax(g, "gravity", "topography_ell")
	if err != nil {
		t.Fatal(err)
	}
	if vmin != -20 || vmax != 403 {
		t.Errorf("have [%g, %g], want [-20, 403]", vmin, vmax)
	}
	if _, _, err := MinMax(g); err == nil {
		t.Error("no fields should fail")
	}
}
