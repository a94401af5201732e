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

package icgemutil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spatialmodel/icgem"
	"github.com/spatialmodel/icgem/gridplot"
	"github.com/spatialmodel/icgem/profileserver"
	"github.com/spf13/cast"
)

// readOptions returns the grid reading options set in the configuration.
func readOptions() ([]icgem.ReadOption, error) {
	layout, err := icgem.ParseLayout(Cfg.GetString("layout"))
	if err != nil {
		return nil, fmt.Errorf("icgem: %v", err)
	}
	opts := []icgem.ReadOption{icgem.WithLayout(layout)}
	cols, err := parseColumns(Cfg.GetString("usecols"))
	if err != nil {
		return nil, err
	}
	if len(cols) > 0 {
		opts = append(opts, icgem.UseColumns(cols...))
	}
	return opts, nil
}

// parseColumns parses a comma separated list of column indices.
func parseColumns(s string) ([]int, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return nil, nil
	}
	var o []int
	for _, v := range strings.Split(s, ",") {
		i, err := cast.ToIntE(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("icgem: invalid usecols %q: %v", s, err)
		}
		o = append(o, i)
	}
	return o, nil
}

// readGrid reads the grid at path, which may be a URL, using the reading
// options in the configuration. Paths ending in ".nc" are read as netCDF
// files written by convert.
func readGrid(path string) (*icgem.Grid, error) {
	path = os.ExpandEnv(path)
	local, err := maybeDownload(context.Background(), path, logrus.StandardLogger())
	if err != nil {
		return nil, err
	}
	defer removeDownload(path, local, logrus.StandardLogger())
	if strings.ToLower(filepath.Ext(local)) == ".nc" {
		f, err := os.Open(local)
		if err != nil {
			return nil, fmt.Errorf("icgem: %v", err)
		}
		defer f.Close()
		return icgem.ReadNetCDF(f)
	}
	opts, err := readOptions()
	if err != nil {
		return nil, err
	}
	g, err := icgem.Read(local, opts...)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"path":  path,
		"shape": g.Shape,
		"size":  g.Size,
	}).Debug("icgem read grid")
	return g, nil
}

// Info writes a description of g to w. If g has the field topography, the
// linear fit of each data field against it is included.
func Info(w io.Writer, g *icgem.Grid, topography string) error {
	fmt.Fprintf(w, "shape:      %d latitude x %d longitude parallels\n", g.Shape[0], g.Shape[1])
	fmt.Fprintf(w, "size:       %d grid points\n", g.Size)
	fmt.Fprintf(w, "area:       %g to %g latitude, %g to %g longitude\n", g.Area[0], g.Area[1], g.Area[2], g.Area[3])
	if g.HasHeight {
		fmt.Fprintf(w, "height:     %g m over the ellipsoid\n", g.Height)
	}
	fmt.Fprintf(w, "attributes: %s\n\n", strings.Join(g.Attributes, " "))

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "field\tmin\tmax\tmean\tstd")
	for _, a := range g.Attributes {
		s, err := g.Summary(a)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%g\n", s.Name, s.Min, s.Max, s.Mean, s.StandardDeviation)
		logrus.WithFields(logrus.Fields{
			"field": s.Name,
			"min":   s.Min,
			"max":   s.Max,
		}).Debug("icgem field summary")
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if topography == "" || !g.HasField(topography) {
		return nil
	}

	fmt.Fprintf(w, "\nfit against %s:\n", topography)
	tw = tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "field\tslope\tintercept\tr²")
	for _, a := range g.Attributes {
		if a == topography || a == icgem.LatitudeField || a == icgem.LongitudeField {
			continue
		}
		slope, intercept, r2, err := g.Regression(topography, a)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%g\t%g\t%g\n", a, slope, intercept, r2)
	}
	return tw.Flush()
}

// mapOptions returns the map options set in the configuration.
func mapOptions() (gridplot.Options, error) {
	o := gridplot.DefaultOptions()
	o.GridlineSpacing = Cfg.GetFloat64("gridline_spacing")
	if cm := Cfg.GetString("colormap"); cm != "" {
		if _, err := gridplot.ColorMap(cm); err != nil {
			return o, err
		}
		o.Colormap = cm
	}
	o.Projection = Cfg.GetString("projection")
	if path := os.ExpandEnv(Cfg.GetString("coastlines")); path != "" {
		local, err := maybeDownload(context.Background(), path, logrus.StandardLogger())
		if err != nil {
			return o, err
		}
		o.Coastlines, err = gridplot.ReadCoastlines(local)
		removeDownload(path, local, logrus.StandardLogger())
		if err != nil {
			return o, err
		}
		logrus.WithFields(logrus.Fields{
			"path":   path,
			"shapes": len(o.Coastlines),
			"bounds": coastlineBounds(o.Coastlines),
		}).Debug("icgem read coastlines")
	}
	return o, nil
}

// readPresets returns the built-in region presets, added to or replaced
// by those in the TOML file at path, if given. Each table in the file is
// a preset, for example:
//
//	[alps]
//	GridlineSpacing = 2
//	Width = 12
//	Height = 8
func readPresets(path string) (map[string]gridplot.Preset, error) {
	o := make(map[string]gridplot.Preset)
	for k, v := range gridplot.Presets {
		o[k] = v
	}
	if path == "" {
		return o, nil
	}
	var file map[string]gridplot.Preset
	if _, err := toml.DecodeFile(os.ExpandEnv(path), &file); err != nil {
		return nil, fmt.Errorf("icgem: reading presets: %v", err)
	}
	for k, v := range file {
		o[strings.ToLower(k)] = v
	}
	return o, nil
}

// applyPreset applies the named region preset, if any, to o.
func applyPreset(o gridplot.Options, name, presetsFile string) (gridplot.Options, error) {
	if name == "" {
		return o, nil
	}
	presets, err := readPresets(presetsFile)
	if err != nil {
		return o, err
	}
	p, ok := presets[strings.ToLower(name)]
	if !ok {
		var names []string
		for k := range presets {
			names = append(names, k)
		}
		return o, fmt.Errorf("icgem: invalid preset %q; valid options are %v", name, names)
	}
	return p.Apply(o), nil
}

// defaultField returns the first field of g that is not a coordinate.
func defaultField(g *icgem.Grid) (string, error) {
	for _, a := range g.Attributes {
		if a != icgem.LatitudeField && a != icgem.LongitudeField {
			return a, nil
		}
	}
	return "", fmt.Errorf("icgem: the grid has no data fields")
}

func createOutput(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("icgem: no output file specified")
	}
	f, err := os.Create(os.ExpandEnv(path))
	if err != nil {
		return nil, fmt.Errorf("icgem: %v", err)
	}
	return f, nil
}

// Plot maps field of g to a PNG image at output. If field is empty,
// the first data field is mapped.
func Plot(g *icgem.Grid, field, output string, o gridplot.Options) error {
	if field == "" {
		var err error
		if field, err = defaultField(g); err != nil {
			return err
		}
	}
	f, err := createOutput(output)
	if err != nil {
		return err
	}
	if err := gridplot.Map(f, g, field, o); err != nil {
		f.Close()
		return err
	}
	logrus.WithFields(logrus.Fields{"field": field, "output": output}).Info("icgem wrote map")
	return f.Close()
}

// Profile draws the profile of fields along dimension at location to a PNG
// image at output. If location is empty, the middle location is used.
func Profile(g *icgem.Grid, fields []string, dimension, location, topography, output string, o gridplot.Options) error {
	var loc float64
	if location == "" {
		_, mid, err := g.LocationOptions(dimension, 1)
		if err != nil {
			return err
		}
		loc = mid
	} else {
		var err error
		if loc, err = cast.ToFloat64E(location); err != nil {
			return fmt.Errorf("icgem: invalid profile location %q: %v", location, err)
		}
	}
	f, err := createOutput(output)
	if err != nil {
		return err
	}
	err = gridplot.Profile(f, g, gridplot.ProfileRequest{
		Fields:          fields,
		Dimension:       dimension,
		Location:        loc,
		TopographyField: topography,
		Map:             o,
	})
	if err != nil {
		f.Close()
		return err
	}
	logrus.WithFields(logrus.Fields{
		"fields":    fields,
		"dimension": dimension,
		"location":  loc,
		"output":    output,
	}).Info("icgem wrote profile")
	return f.Close()
}

// Serve starts the profile selector for fields of g at address, and opens
// it in a web browser if openBrowser is true.
func Serve(g *icgem.Grid, fields []string, topography string, interval int, address string, openBrowser bool, o gridplot.Options) error {
	s, err := profileserver.New(g, fields,
		profileserver.WithTopographyField(topography),
		profileserver.WithProfileInterval(interval),
		profileserver.WithPlotOptions(o),
		profileserver.WithLogger(logrus.StandardLogger()),
	)
	if err != nil {
		return err
	}
	url := "http://" + address
	logrus.WithField("address", url).Info("icgem profile selector starting")
	if openBrowser {
		if err := open.Run(url); err != nil {
			logrus.WithError(err).Warn("icgem: opening browser")
		}
	}
	return http.ListenAndServe(address, s)
}

// Convert writes g to output in the format selected by its extension.
func Convert(g *icgem.Grid, output string) error {
	if output == "" {
		return fmt.Errorf("icgem: no output file specified")
	}
	output = os.ExpandEnv(output)
	var err error
	switch ext := strings.ToLower(filepath.Ext(output)); ext {
	case ".nc":
		var f *os.File
		if f, err = createOutput(output); err != nil {
			return err
		}
		if err = g.WriteNetCDF(f); err != nil {
			f.Close()
			return err
		}
		err = f.Close()
	case ".shp":
		err = g.WriteShapefile(output)
	case ".xlsx":
		err = g.WriteXLSX(output)
	case ".gdf":
		err = g.WriteFile(output)
	default:
		return fmt.Errorf("icgem: invalid output format %q; valid options are .nc, .shp, .xlsx and .gdf", ext)
	}
	if err != nil {
		return err
	}
	logrus.WithField("output", output).Info("icgem wrote grid")
	return nil
}

// Derive adds the field name calculated from expression to g and writes
// the result to output.
func Derive(g *icgem.Grid, name, expression, output string) error {
	d, err := g.Derive(name, expression)
	if err != nil {
		return err
	}
	v, _ := d.Field(name)
	logrus.WithFields(logrus.Fields{
		"field":      name,
		"expression": expression,
		"nan":        countNaN(v),
	}).Info("icgem derived field")
	return Convert(d, output)
}

func countNaN(v []float64) int {
	var n int
	for _, x := range v {
		if math.IsNaN(x) {
			n++
		}
	}
	return n
}

// coastlineBounds returns the combined bounds of the coastlines, for
// logging.
func coastlineBounds(c []geom.Geom) *geom.Bounds {
	b := geom.NewBounds()
	for _, g := range c {
		b.Extend(g.Bounds())
	}
	return b
}
