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

package gridplot

import (
	"bytes"
	"image/png"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/icgem"
	"gonum.org/v1/plot/vg"
)

// testGrid returns a 13x17 grid covering 10°N to 16°N and 20°E to 28°E,
// with gravity and topography fields.
func testGrid() *icgem.Grid {
	const nlat, nlon = 13, 17
	g := &icgem.Grid{
		Shape:      [2]int{nlat, nlon},
		Size:       nlat * nlon,
		Area:       [4]float64{10, 16, 20, 28},
		Attributes: []string{"longitude", "latitude", "gravity_disturbance", "topography_ell"},
		Columns:    make(map[string][]float64),
	}
	for _, a := range g.Attributes {
		g.Columns[a] = make([]float64, g.Size)
	}
	for i := 0; i < nlat; i++ {
		for j := 0; j < nlon; j++ {
			k := i*nlon + j
			g.Columns["latitude"][k] = 10 + 0.5*float64(i)
			g.Columns["longitude"][k] = 20 + 0.5*float64(j)
			g.Columns["gravity_disturbance"][k] = 50*float64(i-6) + 3*float64(j)
			g.Columns["topography_ell"][k] = 400*float64(j-8) - 100*float64(i)
		}
	}
	return g
}

func TestDegreeLabel(t *testing.T) {
	tests := []struct {
		v    float64
		lon  bool
		want string
	}{
		{v: 30, lon: true, want: "30°E"},
		{v: -15, lon: false, want: "15°S"},
		{v: 0, lon: true, want: "0°"},
		{v: 190, lon: true, want: "170°W"},
		{v: 2.5, lon: false, want: "2.5°N"},
	}
	for _, test := range tests {
		if have := DegreeLabel(test.v, test.lon); have != test.want {
			t.Errorf("DegreeLabel(%g, %v): have %q, want %q", test.v, test.lon, have, test.want)
		}
	}
}

func TestTicks(t *testing.T) {
	axis := []float64{10, 12, 14, 16.005}
	tk := ticks(axis, axis, 3, false, true)
	want := []float64{10, 13, 16}
	if len(tk) != len(want) {
		t.Fatalf("have %d ticks, want %d", len(tk), len(want))
	}
	for i, w := range want {
		if math.Abs(tk[i].Value-w) > 1e-9 {
			t.Errorf("tick %d: have %g, want %g", i, tk[i].Value, w)
		}
	}
	if tk[1].Label != "13°N" {
		t.Errorf("label: have %q", tk[1].Label)
	}
	for _, tick := range ticks(axis, axis, 3, false, false) {
		if tick.Label != "" {
			t.Errorf("unlabeled tick has label %q", tick.Label)
		}
	}
}

func TestColorMap(t *testing.T) {
	for _, name := range []string{"bluered", "blackbody", "kindlmann", "delta", "bluered_r"} {
		if _, err := ColorMap(name); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := ColorMap("viridis"); err == nil {
		t.Error("invalid color map should fail")
	}
}

func TestPresets(t *testing.T) {
	o := Presets["japan"].Apply(DefaultOptions())
	if o.GridlineSpacing != 5 {
		t.Errorf("gridline spacing: have %g, want 5", o.GridlineSpacing)
	}
	if o.Width != 12*vg.Inch || o.Height != 13*vg.Inch {
		t.Errorf("figure size: %v x %v", o.Width, o.Height)
	}
}

func checkPNG(t *testing.T, b []byte) {
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if r := img.Bounds(); r.Dx() == 0 || r.Dy() == 0 {
		t.Errorf("empty image: %v", r)
	}
}

func TestMap(t *testing.T) {
	g := testGrid()
	o := DefaultOptions()
	o.Coastlines = []geom.Geom{
		geom.LineString{{X: 19, Y: 11}, {X: 25, Y: 13}, {X: 30, Y: 12}},
		geom.Polygon{{{X: 22, Y: 14}, {X: 23, Y: 14}, {X: 23, Y: 15}}},
		geom.LineString{{X: -100, Y: 40}, {X: -99, Y: 41}},
	}
	for _, test := range []struct {
		name string
		o    Options
	}{
		{name: "default", o: o},
		{name: "no colorbar", o: Options{Colormap: "blackbody", VMin: -100, VMax: 100}},
	} {
		t.Run(test.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Map(&buf, g, "gravity_disturbance", test.o); err != nil {
				t.Fatal(err)
			}
			checkPNG(t, buf.Bytes())
		})
	}

	if err := Map(ioutil.Discard, g, "geoid", o); err == nil {
		t.Error("unknown field should fail")
	}
	o.Colormap = "viridis"
	if err := Map(ioutil.Discard, g, "gravity_disturbance", o); err == nil {
		t.Error("invalid color map should fail")
	}
}

func TestProfile(t *testing.T) {
	g := testGrid()
	for _, dim := range icgem.Dimensions {
		t.Run(dim, func(t *testing.T) {
			var buf bytes.Buffer
			r := ProfileRequest{
				Fields:    []string{"gravity_disturbance"},
				Dimension: dim,
				Location:  map[string]float64{"longitude": 13, "latitude": 24}[dim],
			}
			if err := Profile(&buf, g, r); err != nil {
				t.Fatal(err)
			}
			checkPNG(t, buf.Bytes())
		})
	}

	if err := Profile(ioutil.Discard, g, ProfileRequest{Dimension: "latitude", Location: 24}); err == nil {
		t.Error("no fields should fail")
	}
	err := Profile(ioutil.Discard, g, ProfileRequest{
		Fields:          []string{"gravity_disturbance"},
		Dimension:       "latitude",
		Location:        24,
		TopographyField: "bathymetry",
	})
	if err == nil {
		t.Error("missing topography field should fail")
	}
}

func TestReadCoastlines(t *testing.T) {
	dir, err := ioutil.TempDir("", "gridplot")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "coast.shp")
	e, err := shp.NewEncoderFromFields(path, goshp.POLYLINE, goshp.StringField("name", 10))
	if err != nil {
		t.Fatal(err)
	}
	coast := geom.MultiLineString{{{X: 20, Y: 10}, {X: 21, Y: 11}, {X: 22, Y: 10.5}}}
	if err := e.EncodeFields(coast, "test"); err != nil {
		t.Fatal(err)
	}
	e.Close()

	c, err := ReadCoastlines(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(c) != 1 {
		t.Fatalf("have %d coastlines, want 1", len(c))
	}
	if !c[0].Similar(coast, 1e-9) {
		t.Errorf("have %v, want %v", c[0], coast)
	}
}
