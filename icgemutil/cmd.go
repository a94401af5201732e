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

// Package icgemutil holds the command-line interface and configuration
// for the icgem tools.
package icgemutil

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/ctessum/gobra"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spatialmodel/icgem"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to icgem.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "log_level",
			usage: `
              log_level is the minimum severity of log messages to print:
              one of debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "usecols",
			usage: `
              usecols is a comma separated list of the zero-based indices of
              the grid file attributes to read, for example "0,1,2". By
              default all attributes are read.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "layout",
			usage: `
              layout is the arrangement of the grid file body: "attribute" for
              one row per attribute, "point" for one line per grid point, or
              "auto" to detect it.`,
			defaultVal: "auto",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "output",
			usage: `
              output is the path of the file to write. For convert, the
              extension selects the format: .nc, .shp, .xlsx or .gdf.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags(), profileCmd.Flags(), convertCmd.Flags(), deriveCmd.Flags()},
		},
		{
			name: "field",
			usage: `
              field is the name of the grid field to map. By default the
              first field that is not a coordinate is mapped.`,
			shorthand:  "f",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "fields",
			usage: `
              fields are the names of the grid fields to draw profiles of.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{profileCmd.Flags(), serveCmd.Flags()},
		},
		{
			name: "preset",
			usage: `
              preset is the name of a region preset that sets the gridline
              spacing and figure size, for example hawaii, japan or himalayas.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "presets",
			usage: `
              presets is the path to a TOML file of region presets that add to
              or replace the built-in ones.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "gridline_spacing",
			usage: `
              gridline_spacing is the distance in degrees between map
              gridlines.`,
			defaultVal: 3.0,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags(), profileCmd.Flags(), serveCmd.Flags()},
		},
		{
			name: "colormap",
			usage: `
              colormap is the name of the map color scheme: bluered, blackbody,
              kindlmann or delta, optionally followed by _r to reverse it.`,
			defaultVal: "bluered",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "coastlines",
			usage: `
              coastlines is the path or URL of a shapefile of coastlines to
              draw over maps.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags(), profileCmd.Flags(), serveCmd.Flags()},
		},
		{
			name: "projection",
			usage: `
              projection is a proj4 description of a cylindrical map projection.
              By default maps are drawn in longitude and latitude.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "dimension",
			usage: `
              dimension is the dimension the profile runs along: latitude or
              longitude.`,
			defaultVal: icgem.LongitudeField,
			flagsets:   []*pflag.FlagSet{profileCmd.Flags()},
		},
		{
			name: "location",
			usage: `
              location is the coordinate of the other dimension to take the
              profile at. It snaps to the nearest grid line. By default the
              middle of the grid is used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{profileCmd.Flags()},
		},
		{
			name: "topography",
			usage: `
              topography is the name of the grid field drawn in the
              topography profile, and that info fits the other fields
              against.`,
			defaultVal: "topography_ell",
			flagsets:   []*pflag.FlagSet{profileCmd.Flags(), serveCmd.Flags(), infoCmd.Flags()},
		},
		{
			name: "interval",
			usage: `
              interval is the spacing, in grid lines, between the profile
              locations offered by the profile selector.`,
			defaultVal: icgem.DefaultProfileInterval,
			flagsets:   []*pflag.FlagSet{serveCmd.Flags()},
		},
		{
			name: "address",
			usage: `
              address is the host and port for the profile selector to
              listen on.`,
			defaultVal: "localhost:7272",
			flagsets:   []*pflag.FlagSet{serveCmd.Flags()},
		},
		{
			name: "open",
			usage: `
              open specifies whether to open the profile selector in a web
              browser.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{serveCmd.Flags()},
		},
		{
			name: "name",
			usage: `
              name is the name of the field to derive.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{deriveCmd.Flags()},
		},
		{
			name: "expression",
			usage: `
              expression is the formula for the derived field in terms of the
              other fields, for example
              "gravity_disturbance - 0.1119 * topography_ell". Field names
              containing operators can be bracketed: [gravity-anomaly].`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{deriveCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("ICGEM")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(infoCmd)
	Root.AddCommand(plotCmd)
	Root.AddCommand(profileCmd)
	Root.AddCommand(serveCmd)
	Root.AddCommand(convertCmd)
	Root.AddCommand(deriveCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("icgem: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("log_level"))
	if err != nil {
		return fmt.Errorf("icgem: %v", err)
	}
	logrus.SetLevel(level)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "icgem",
	Short: "Tools for ICGEM gravity field grids.",
	Long: `icgem reads, checks, maps and converts the gridded gravity field
products calculated by the International Centre for Global Earth Models
(ICGEM) in their ASCII grid file (.gdf) format.
Use the subcommands specified below to access the functionality.

Grid files can be given as local paths, as http:// or https:// URLs, or as
blob storage URLs starting with file://, gs:// or s3://. Files ending in .gz
are decompressed while reading.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'ICGEM_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of icgem.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("icgem v%s\n", icgem.Version)
	},
	DisableAutoGenTag: true,
}

var infoCmd = &cobra.Command{
	Use:   "info gridfile",
	Short: "Describe a grid file.",
	Long: `info checks a grid file and prints its dimensions, area and attributes,
and summary statistics of each field. If the grid has a topography field,
each other field is also fitted linearly against it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := readGrid(args[0])
		if err != nil {
			return err
		}
		return Info(cmd.OutOrStdout(), g, Cfg.GetString("topography"))
	},
	DisableAutoGenTag: true,
}

var plotCmd = &cobra.Command{
	Use:   "plot gridfile",
	Short: "Map a grid field.",
	Long: `plot draws a map of a grid field with gridlines and a color bar, and
saves it as a PNG image in the file given by --output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := readGrid(args[0])
		if err != nil {
			return err
		}
		o, err := mapOptions()
		if err != nil {
			return err
		}
		if o, err = applyPreset(o, Cfg.GetString("preset"), Cfg.GetString("presets")); err != nil {
			return err
		}
		return Plot(g, Cfg.GetString("field"), Cfg.GetString("output"), o)
	},
	DisableAutoGenTag: true,
}

var profileCmd = &cobra.Command{
	Use:   "profile gridfile",
	Short: "Draw a profile through a grid.",
	Long: `profile draws profiles of the fields given by --fields along a
latitude parallel or longitude meridian, above the topography profile and
beside maps marking the profile location, and saves the figure as a PNG
image in the file given by --output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := readGrid(args[0])
		if err != nil {
			return err
		}
		o, err := mapOptions()
		if err != nil {
			return err
		}
		return Profile(g, Cfg.GetStringSlice("fields"), Cfg.GetString("dimension"),
			Cfg.GetString("location"), Cfg.GetString("topography"), Cfg.GetString("output"), o)
	},
	DisableAutoGenTag: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve gridfile",
	Short: "Start the profile selector.",
	Long: `serve starts a web server with an interactive selector for profiles
through the grid, at the address given by --address.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := readGrid(args[0])
		if err != nil {
			return err
		}
		o, err := mapOptions()
		if err != nil {
			return err
		}
		return Serve(g, Cfg.GetStringSlice("fields"), Cfg.GetString("topography"),
			Cfg.GetInt("interval"), Cfg.GetString("address"), Cfg.GetBool("open"), o)
	},
	DisableAutoGenTag: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert gridfile",
	Short: "Convert a grid file to another format.",
	Long: `convert checks a grid file and writes it in the format selected by
the extension of --output: netCDF (.nc), shapefile (.shp), Excel (.xlsx)
or ICGEM grid file (.gdf). Grid files and netCDF files written by convert
can both be read back.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := readGrid(args[0])
		if err != nil {
			return err
		}
		return Convert(g, Cfg.GetString("output"))
	},
	DisableAutoGenTag: true,
}

var deriveCmd = &cobra.Command{
	Use:   "derive gridfile",
	Short: "Add a field calculated from the others.",
	Long: `derive adds the field named by --name, calculated by evaluating
--expression at every grid point, and writes the grid to --output in the
format selected by its extension, as for convert.
Available functions are abs, sqrt, exp and log.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := readGrid(args[0])
		if err != nil {
			return err
		}
		return Derive(g, Cfg.GetString("name"), Cfg.GetString("expression"), Cfg.GetString("output"))
	},
	DisableAutoGenTag: true,
}

// StartWebServer serves the command tree as a web form.
func StartWebServer() {
	setConfig() // Ignore any errors for now.

	http.HandleFunc("/setConfig", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		Root.Flags().Set("config", r.FormValue("config"))
		if err := setConfig(); err != nil {
			http.Error(w, err.Error(), 204)
			return
		}
		config := make(map[string]interface{})
		for _, option := range options {
			config[option.name] = Cfg.Get(option.name)
		}
		e := json.NewEncoder(w)
		if err := e.Encode(config); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
	})

	log.Println("Loading front-end...")

	for _, cmd := range []*cobra.Command{Root, versionCmd, infoCmd, plotCmd,
		profileCmd, serveCmd, convertCmd, deriveCmd} {
		cmd.SilenceUsage = true // We don't want the usage messages in the GUI.
	}

	output := template.Must(template.New("").Parse(guiHTML))
	server := gobra.Server{Root: Root, ServerAddress: guiAddress, AllowCORS: false, HTML: output}
	log.Println("Server starting... ")
	open.Run("http://" + guiAddress)
	fmt.Println("If not opened automatically, please visit http://" + guiAddress)
	server.Start()
}

// guiAddress is where the web form is served.
const guiAddress = "localhost:7171"

const guiHTML = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>icgem</title>
	<style>
		html, body {padding: 0; margin: 2% 0; font-family: sans-serif;}
		.container { max-width: 700px; margin: 0 auto; padding: 10px; }
		div[id^="gobra-"] blockquote { border-left: 3px solid #bbb; margin: .3em; color: #333; padding-left: 5px; font-size: 75%; }
		div[id^="gobra-"] code { font-weight: bold; }
		div[id^="gobra-"] input { font-family: monospace; margin-left: .2em; width: 50%; outline:none; }
		.red-border{ border: 1px solid #c35; }
		.green-border{ border: 1px solid #3c5; }
		.blue-border{ border: 1px solid #35c; }
	</style>
</head>
<body>
<div class="container">
	<h1>icgem</h1>
	<p>Choose a command and fill in the grid file and options below.</p>
	<p>
		Color key: black=default;
		<font color="red">red</font>=error;
		<font color="green">green</font>=value from config file;
		<font color="blue">blue</font>=user entered
	</p>
	<div>
		{{.}}
	</div>
</div>

<script>
let allFlags = [...document.querySelectorAll('[data-name]')];
allFlags.forEach(x => {
	let inputField = x.children[0];
	inputField.addEventListener("input", e => {
		inputField.classList.remove("green-border");
		inputField.classList.add("blue-border");
	})
})

let configInput = allFlags.filter(x => x.dataset.name == "config")[0].children[0];
configInput.addEventListener("input", e => {
	fetch("http://` + guiAddress + `/setConfig?config="+configInput.value)
		.then( res => {
			if (res.status == 204) {
				configInput.classList.remove("blue-border");
				configInput.classList.remove("green-border");
				configInput.classList.add("red-border");
			} else if (res.status == 200) {
				res.json().then( data => {
					configInput.classList.remove("red-border");
					for (let key in data)
						for (let f of allFlags)
							if (f.dataset.name == key) {
								let input = f.children[0];
								var newValue = JSON.stringify(data[key]).replace(/^"+|"+$/g,'');
								if (input.value != newValue) {
									input.value = newValue
									input.classList.remove("blue-border");
									input.classList.add("green-border");
								}
							}
				})
			}
		})
		.catch( err => {
			console.log("Error fetching /setConfig", err)
		})
})
</script>
</body>
</html>`
