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

// Package gridplot draws maps and profiles of ICGEM grid fields.
package gridplot

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/icgem"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// geographic is the coordinate system of ICGEM grids.
const geographic = "+proj=longlat +datum=WGS84 +no_defs"

// edgeTolerance is how far beyond the grid extent, in degrees, a gridline
// may fall and still be drawn.
const edgeTolerance = 0.01

// Options specify how a map is drawn.
type Options struct {
	// GridlineSpacing is the distance in degrees between gridlines,
	// starting from the west and south edges of the grid.
	GridlineSpacing float64

	// Colormap is the name of the color map, as accepted by ColorMap.
	Colormap string

	Title    bool // Label the map with the field name.
	Ticks    bool // Label the gridlines.
	ColorBar bool // Draw a color bar below the map.

	// Projection is a proj4 or WKT description of a cylindrical map
	// projection. The default is plate carrée.
	Projection string

	// Coastlines are lines or polygons in longitude/latitude coordinates
	// to draw over the map.
	Coastlines []geom.Geom

	// VMin and VMax set the range of the color map. If VMin is not less
	// than VMax, the range of the data is used.
	VMin, VMax float64

	// Width and Height are the size of the figure.
	Width, Height vg.Length
}

// DefaultOptions returns the default map options.
func DefaultOptions() Options {
	return Options{
		GridlineSpacing: 3,
		Colormap:        "bluered",
		Title:           true,
		Ticks:           true,
		ColorBar:        true,
		VMin:            math.NaN(),
		VMax:            math.NaN(),
		Width:           8 * vg.Inch,
		Height:          6 * vg.Inch,
	}
}

func (o *Options) setDefaults() {
	d := DefaultOptions()
	if o.GridlineSpacing <= 0 {
		o.GridlineSpacing = d.GridlineSpacing
	}
	if o.Colormap == "" {
		o.Colormap = d.Colormap
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
}

// Preset holds map settings suited to a region.
type Preset struct {
	GridlineSpacing float64 // degrees
	Width, Height   float64 // inches
}

// Apply returns o with the preset settings.
func (p Preset) Apply(o Options) Options {
	o.GridlineSpacing = p.GridlineSpacing
	o.Width = vg.Length(p.Width) * vg.Inch
	o.Height = vg.Length(p.Height) * vg.Inch
	return o
}

// Presets are the built-in region presets.
var Presets = map[string]Preset{
	"hawaii":    {GridlineSpacing: 3, Width: 12, Height: 13},
	"japan":     {GridlineSpacing: 5, Width: 12, Height: 13},
	"himalayas": {GridlineSpacing: 3, Width: 12, Height: 13},
}

// ColorMap returns the named color map. Valid names are "bluered",
// "blackbody", "kindlmann" and "delta". A "_r" suffix reverses the map.
func ColorMap(name string) (palette.ColorMap, error) {
	base := strings.TrimSuffix(name, "_r")
	var cm palette.ColorMap
	switch strings.ToLower(base) {
	case "bluered":
		cm = moreland.SmoothBlueRed()
	case "blackbody":
		cm = moreland.ExtendedBlackBody()
	case "kindlmann":
		cm = moreland.Kindlmann()
	case "delta":
		cm = moreland.SmoothBlueTan()
	default:
		return nil, fmt.Errorf("gridplot: invalid color map %q; valid options are bluered, blackbody, kindlmann and delta", name)
	}
	if base != name {
		cm = palette.Reverse(cm)
	}
	return cm, nil
}

// projected replaces the coordinates of a grid with projected ones.
type projected struct {
	*icgem.XYZ
	x, y []float64
}

func (p projected) X(c int) float64 { return p.x[c] }
func (p projected) Y(r int) float64 { return p.y[r] }

// mapGrid holds the field of a grid prepared for drawing.
type mapGrid struct {
	xyz   plotter.GridXYZ
	trans proj.Transformer // nil for plate carrée
	lon   []float64
	lat   []float64
	x, y  []float64 // projected lon and lat
}

func newMapGrid(g *icgem.Grid, field, projection string) (*mapGrid, error) {
	xyz, err := g.XYZ(field)
	if err != nil {
		return nil, fmt.Errorf("gridplot: %v", err)
	}
	m := &mapGrid{xyz: xyz, lon: g.Longitudes(), lat: g.Latitudes()}
	m.x, m.y = m.lon, m.lat
	if projection == "" {
		return m, nil
	}
	src, err := proj.Parse(geographic)
	if err != nil {
		return nil, fmt.Errorf("gridplot: %v", err)
	}
	dst, err := proj.Parse(projection)
	if err != nil {
		return nil, fmt.Errorf("gridplot: parsing projection: %v", err)
	}
	if m.trans, err = src.NewTransform(dst); err != nil {
		return nil, fmt.Errorf("gridplot: %v", err)
	}
	midLon := (m.lon[0] + m.lon[len(m.lon)-1]) / 2
	midLat := (m.lat[0] + m.lat[len(m.lat)-1]) / 2
	m.x = make([]float64, len(m.lon))
	for j, lon := range m.lon {
		if m.x[j], _, err = m.trans(lon, midLat); err != nil {
			return nil, fmt.Errorf("gridplot: projecting longitude %g: %v", lon, err)
		}
	}
	m.y = make([]float64, len(m.lat))
	for i, lat := range m.lat {
		if _, m.y[i], err = m.trans(midLon, lat); err != nil {
			return nil, fmt.Errorf("gridplot: projecting latitude %g: %v", lat, err)
		}
	}
	m.xyz = projected{XYZ: xyz, x: m.x, y: m.y}
	return m, nil
}

// interp maps v from the geographic axis geo to the projected axis p.
func interp(v float64, geo, p []float64) float64 {
	n := len(geo)
	if n == 1 || geo[n-1] == geo[0] {
		return p[0] + v - geo[0]
	}
	return p[0] + (v-geo[0])/(geo[n-1]-geo[0])*(p[n-1]-p[0])
}

// ticks returns gridline positions every spacing degrees from the start
// of the geographic axis to its end.
func ticks(geo, p []float64, spacing float64, lon, label bool) []plot.Tick {
	var t []plot.Tick
	lo, hi := geo[0], geo[len(geo)-1]
	for i := 0; ; i++ {
		v := lo + float64(i)*spacing
		if v > hi+edgeTolerance {
			break
		}
		tk := plot.Tick{Value: interp(v, geo, p)}
		if label {
			tk.Label = DegreeLabel(v, lon)
		}
		t = append(t, tk)
	}
	return t
}

// DegreeLabel formats a coordinate as, for example, "30°E" or "15°S".
func DegreeLabel(v float64, longitude bool) string {
	if longitude && v > 180 {
		v -= 360
	}
	v = math.Round(v*1e6) / 1e6
	var hemi string
	switch {
	case v > 0 && longitude:
		hemi = "E"
	case v < 0 && longitude:
		hemi = "W"
	case v > 0:
		hemi = "N"
	case v < 0:
		hemi = "S"
	}
	return strconv.FormatFloat(math.Abs(v), 'f', -1, 64) + "°" + hemi
}

// dataRange returns the color map range for the map.
func dataRange(xyz plotter.GridXYZ, o Options) (vmin, vmax float64) {
	if o.VMin < o.VMax {
		return o.VMin, o.VMax
	}
	vmin, vmax = math.Inf(1), math.Inf(-1)
	c, r := xyz.Dims()
	for i := 0; i < c; i++ {
		for j := 0; j < r; j++ {
			v := xyz.Z(i, j)
			vmin, vmax = math.Min(vmin, v), math.Max(vmax, v)
		}
	}
	if vmin == vmax {
		d := math.Max(math.Abs(vmin)*0.01, 0.5)
		vmin, vmax = vmin-d, vmax+d
	}
	return vmin, vmax
}

// Field returns a map of the named field of g.
func Field(g *icgem.Grid, field string, o Options) (*plot.Plot, error) {
	p, _, err := field2Plot(g, field, o)
	return p, err
}

func field2Plot(g *icgem.Grid, field string, o Options) (*plot.Plot, palette.ColorMap, error) {
	o.setDefaults()
	m, err := newMapGrid(g, field, o.Projection)
	if err != nil {
		return nil, nil, err
	}
	cm, err := ColorMap(o.Colormap)
	if err != nil {
		return nil, nil, err
	}
	vmin, vmax := dataRange(m.xyz, o)
	cm.SetMax(vmax)
	cm.SetMin(vmin)

	p, err := plot.New()
	if err != nil {
		return nil, nil, fmt.Errorf("gridplot: %v", err)
	}
	hm := plotter.NewHeatMap(m.xyz, cm.Palette(255))
	hm.Min, hm.Max = vmin, vmax
	p.Add(hm)

	gl := plotter.NewGrid()
	gl.Vertical.Color = color.Gray{Y: 64}
	gl.Horizontal.Color = color.Gray{Y: 64}
	gl.Vertical.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	gl.Horizontal.Dashes = gl.Vertical.Dashes
	p.Add(gl)
	p.X.Tick.Marker = plot.ConstantTicks(ticks(m.lon, m.x, o.GridlineSpacing, true, o.Ticks))
	p.Y.Tick.Marker = plot.ConstantTicks(ticks(m.lat, m.y, o.GridlineSpacing, false, o.Ticks))

	if err := m.addCoastlines(p, o.Coastlines); err != nil {
		return nil, nil, err
	}

	p.X.Min, p.X.Max = m.x[0], m.x[len(m.x)-1]
	p.Y.Min, p.Y.Max = m.y[0], m.y[len(m.y)-1]
	p.X.Padding, p.Y.Padding = 0, 0
	if o.Title {
		p.Title.Text = field
	}
	return p, cm, nil
}

// lines returns the lines making up a geometry.
func lines(g geom.Geom) [][]geom.Point {
	switch t := g.(type) {
	case geom.LineString:
		return [][]geom.Point{t}
	case geom.MultiLineString:
		o := make([][]geom.Point, len(t))
		for i, l := range t {
			o[i] = l
		}
		return o
	case geom.Polygon:
		o := make([][]geom.Point, len(t))
		for i, r := range t {
			// Close the ring.
			o[i] = append(append([]geom.Point(nil), r...), r[0])
		}
		return o
	case geom.MultiPolygon:
		var o [][]geom.Point
		for _, p := range t {
			o = append(o, lines(p)...)
		}
		return o
	}
	return nil
}

func (m *mapGrid) addCoastlines(p *plot.Plot, coastlines []geom.Geom) error {
	extent := &geom.Bounds{
		Min: geom.Point{X: m.lon[0], Y: m.lat[0]},
		Max: geom.Point{X: m.lon[len(m.lon)-1], Y: m.lat[len(m.lat)-1]},
	}
	for _, c := range coastlines {
		if c == nil || !c.Bounds().Overlaps(extent) {
			continue
		}
		if m.trans != nil {
			var err error
			if c, err = c.Transform(m.trans); err != nil {
				return fmt.Errorf("gridplot: projecting coastline: %v", err)
			}
		}
		for _, l := range lines(c) {
			if len(l) < 2 {
				continue
			}
			xys := make(plotter.XYs, len(l))
			for i, pt := range l {
				xys[i].X, xys[i].Y = pt.X, pt.Y
			}
			line, err := plotter.NewLine(xys)
			if err != nil {
				return fmt.Errorf("gridplot: coastline: %v", err)
			}
			line.Color = color.Black
			line.Width = vg.Points(0.75)
			p.Add(line)
		}
	}
	return nil
}

// colorBar returns a horizontal color bar for cm.
func colorBar(cm palette.ColorMap, label string) (*plot.Plot, error) {
	p, err := plot.New()
	if err != nil {
		return nil, fmt.Errorf("gridplot: %v", err)
	}
	p.Add(&plotter.ColorBar{ColorMap: cm})
	p.HideY()
	p.X.Padding = 0
	p.X.Label.Text = label
	return p, nil
}

// legendHeight is the height of the color bar below a map.
const legendHeight = 0.8 * vg.Inch

// Map draws a map of the named field of g, with a color bar below it if
// o.ColorBar is set, and writes it to w as a PNG image.
func Map(w io.Writer, g *icgem.Grid, field string, o Options) error {
	o.setDefaults()
	p, cm, err := field2Plot(g, field, o)
	if err != nil {
		return err
	}
	img := vgimg.New(o.Width, o.Height)
	dc := draw.New(img)
	if o.ColorBar {
		l, err := colorBar(cm, field)
		if err != nil {
			return err
		}
		p.Draw(draw.Crop(dc, 0, 0, legendHeight, 0))
		l.Draw(draw.Crop(dc, 0, 0, 0, legendHeight-o.Height))
	} else {
		p.Draw(dc)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("gridplot: writing png: %v", err)
	}
	return nil
}
