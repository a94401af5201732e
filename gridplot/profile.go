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
	"fmt"
	"image/color"
	"io"

	"github.com/spatialmodel/icgem"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// DefaultTopographyField is the grid field drawn below data profiles.
const DefaultTopographyField = "topography_ell"

// DefaultBase is the default lowest elevation, in meters, shown in
// topography profiles.
const DefaultBase = -10000.

var (
	topographyColor = color.Gray{Y: 64}
	waterColor      = color.NRGBA{R: 31, G: 119, B: 180, A: 255}
)

// ProfileRequest specifies a profile figure.
type ProfileRequest struct {
	// Fields are the data fields to draw profiles of. The first one is
	// also mapped in the upper inset.
	Fields []string

	// Dimension is the dimension the profile runs along, and Location the
	// coordinate of the other dimension the profile is taken at.
	Dimension string
	Location  float64

	// TopographyField is the field drawn in the topography profile and
	// lower inset. The default is DefaultTopographyField.
	TopographyField string

	// Base is the lowest elevation in the topography profile. The default
	// is DefaultBase.
	Base float64

	// Map sets the options for the inset maps.
	Map Options

	Width, Height vg.Length
}

func (r *ProfileRequest) setDefaults() {
	if r.TopographyField == "" {
		r.TopographyField = DefaultTopographyField
	}
	if r.Base == 0 {
		r.Base = DefaultBase
	}
	if r.Width <= 0 {
		r.Width = 12 * vg.Inch
	}
	if r.Height <= 0 {
		r.Height = 6 * vg.Inch
	}
}

func xys(x, y []float64) plotter.XYs {
	o := make(plotter.XYs, len(x))
	for i := range x {
		o[i].X, o[i].Y = x[i], y[i]
	}
	return o
}

// dataProfile plots profiles of the requested fields.
func dataProfile(g *icgem.Grid, r ProfileRequest) (*plot.Plot, float64, error) {
	p, err := plot.New()
	if err != nil {
		return nil, 0, fmt.Errorf("gridplot: %v", err)
	}
	var at float64
	var lines []interface{}
	for _, f := range r.Fields {
		x, y, a, err := g.Profile(f, r.Dimension, r.Location)
		if err != nil {
			return nil, 0, fmt.Errorf("gridplot: %v", err)
		}
		at = a
		lines = append(lines, f, xys(x, y))
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return nil, 0, fmt.Errorf("gridplot: %v", err)
	}
	vmin, vmax, err := icgem.MinMax(g, r.Fields...)
	if err != nil {
		return nil, 0, fmt.Errorf("gridplot: %v", err)
	}
	if vmin < vmax {
		p.Y.Min, p.Y.Max = vmin, vmax
	}
	p.Y.Label.Text = "mGal"
	p.Legend.Top = true
	other, _ := icgem.OtherDimension(r.Dimension)
	p.Title.Text = fmt.Sprintf("Profile along %s at %s %g", r.Dimension, other, at)
	return p, at, nil
}

// topographyProfile plots the topography below sea level down to r.Base
// as water, and the topography itself filled down to r.Base.
func topographyProfile(g *icgem.Grid, r ProfileRequest) (*plot.Plot, error) {
	x, y, _, err := g.Profile(r.TopographyField, r.Dimension, r.Location)
	if err != nil {
		return nil, fmt.Errorf("gridplot: %v", err)
	}
	p, err := plot.New()
	if err != nil {
		return nil, fmt.Errorf("gridplot: %v", err)
	}
	x0, x1 := x[0], x[len(x)-1]

	water, err := plotter.NewPolygon(plotter.XYs{
		{X: x0, Y: r.Base}, {X: x1, Y: r.Base}, {X: x1, Y: 0}, {X: x0, Y: 0},
	})
	if err != nil {
		return nil, fmt.Errorf("gridplot: %v", err)
	}
	water.Color = waterColor
	water.LineStyle.Width = 0

	outline := append(xys(x, y), plotter.XYs{{X: x1, Y: r.Base}, {X: x0, Y: r.Base}}...)
	topo, err := plotter.NewPolygon(outline)
	if err != nil {
		return nil, fmt.Errorf("gridplot: %v", err)
	}
	topo.Color = topographyColor
	topo.LineStyle.Width = 0
	p.Add(water, topo)

	top := 1.1 * floats.Max(y)
	if top <= 0 {
		top = -0.1 * r.Base
	}
	p.Y.Min, p.Y.Max = r.Base, top
	p.X.Min, p.X.Max = x0, x1
	p.X.Label.Text = r.Dimension
	p.Y.Label.Text = "m"
	return p, nil
}

// insetMap maps field with a dashed line at the profile location.
func insetMap(g *icgem.Grid, field string, r ProfileRequest, colormap string, at float64) (*plot.Plot, error) {
	o := r.Map
	o.Colormap = colormap
	o.ColorBar = false
	o.Projection = ""
	o.Title = true
	p, err := Field(g, field, o)
	if err != nil {
		return nil, err
	}
	lon, lat := g.Longitudes(), g.Latitudes()
	var loc plotter.XYs
	if d, _ := icgem.ParseDimension(r.Dimension); d == icgem.LongitudeField {
		loc = plotter.XYs{{X: lon[0], Y: at}, {X: lon[len(lon)-1], Y: at}}
	} else {
		loc = plotter.XYs{{X: at, Y: lat[0]}, {X: at, Y: lat[len(lat)-1]}}
	}
	l, err := plotter.NewLine(loc)
	if err != nil {
		return nil, fmt.Errorf("gridplot: %v", err)
	}
	l.Color = color.Black
	l.Width = vg.Points(1.5)
	l.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	p.Add(l)
	return p, nil
}

// Profile draws the profile figure described by r and writes it to w as a
// PNG image. The left column holds the profiles of the data fields above
// the topography profile, and the right column maps of the first data
// field and the topography, each marked with the profile location.
func Profile(w io.Writer, g *icgem.Grid, r ProfileRequest) error {
	r.setDefaults()
	if len(r.Fields) == 0 {
		return fmt.Errorf("gridplot: no fields to profile")
	}
	data, at, err := dataProfile(g, r)
	if err != nil {
		return err
	}
	topo, err := topographyProfile(g, r)
	if err != nil {
		return err
	}
	fieldMap, err := insetMap(g, r.Fields[0], r, "bluered_r", at)
	if err != nil {
		return err
	}
	topoMap, err := insetMap(g, r.TopographyField, r, "delta", at)
	if err != nil {
		return err
	}

	img := vgimg.New(r.Width, r.Height)
	dc := draw.New(img)
	mapWidth := r.Width / 3
	left := draw.Crop(dc, 0, -mapWidth, 0, 0)
	right := draw.Crop(dc, r.Width-mapWidth, 0, 0, 0)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Points(5)}
	data.Draw(tiles.At(left, 0, 0))
	topo.Draw(tiles.At(left, 0, 1))
	fieldMap.Draw(tiles.At(right, 0, 0))
	topoMap.Draw(tiles.At(right, 0, 1))

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("gridplot: writing png: %v", err)
	}
	return nil
}
