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

package fingerprint

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
)

func TestText(t *testing.T) {
	a := New().Text("ab", "c").Sum()
	if a != New().Text("ab", "c").Sum() {
		t.Error("equal text has different fingerprints")
	}
	if a == New().Text("a", "bc").Sum() {
		t.Error("split text has the same fingerprint")
	}
	if len(a) != 32 {
		t.Errorf("fingerprint %q is not 128 bits", a)
	}
}

func TestFloats(t *testing.T) {
	a := New().Floats([]float64{1, 2, 3}).Sum()
	if a != New().Floats([]float64{1, 2, 3}).Sum() {
		t.Error("equal values have different fingerprints")
	}
	for _, v := range [][]float64{{1, 2, 3.0000001}, {1, 2}, {3, 2, 1}} {
		if a == New().Floats(v).Sum() {
			t.Errorf("%v has the same fingerprint as [1 2 3]", v)
		}
	}
	nan := []float64{math.NaN()}
	if New().Floats(nan).Sum() != New().Floats(nan).Sum() {
		t.Error("NaN values have different fingerprints")
	}
}

type options struct {
	Colormap   string
	Coastlines []geom.Geom
}

func TestValue(t *testing.T) {
	a := New().Value(options{Colormap: "bluered"}).Sum()
	if a != New().Value(options{Colormap: "bluered"}).Sum() {
		t.Error("equal values have different fingerprints")
	}
	if a == New().Value(options{Colormap: "delta"}).Sum() {
		t.Error("different values have the same fingerprint")
	}

	// geom.Point is not registered with gob, so it is dumped instead.
	line := func(x float64) options {
		return options{Colormap: "bluered", Coastlines: []geom.Geom{geom.LineString{{X: 0, Y: 0}, {X: x, Y: 1}}}}
	}
	b := New().Value(line(1)).Sum()
	if b != New().Value(line(1)).Sum() {
		t.Error("equal coastlines have different fingerprints")
	}
	if b == New().Value(line(2)).Sum() || b == a {
		t.Error("different coastlines have the same fingerprint")
	}

	m := map[float64]int{math.NaN(): 1}
	if New().Value(m).Sum() == New().Sum() {
		t.Error("NaN map key was not added")
	}
}
