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

// Package profileserver serves an interactive selector for profiles
// through an ICGEM grid.
package profileserver

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/icgem"
	"github.com/spatialmodel/icgem/gridplot"
	"github.com/spatialmodel/icgem/internal/fingerprint"
)

// DefaultCacheSize is the default number of rendered profiles to keep.
const DefaultCacheSize = 50

// Server is an http.Handler for the profile selector.
type Server struct {
	grid   *icgem.Grid
	fields []string

	interval   int
	topography string
	plot       gridplot.Options
	log        logrus.FieldLogger

	mux      *http.ServeMux
	upgrader websocket.Upgrader

	// version fingerprints the data and options the figures are drawn
	// from. It prefixes the ETag of every figure.
	version string

	mu    sync.Mutex
	cache *lru.Cache
}

// Option configures a Server.
type Option func(*Server)

// WithProfileInterval sets the spacing, in grid lines, between the
// offered profile locations.
func WithProfileInterval(n int) Option {
	return func(s *Server) { s.interval = n }
}

// WithLogger sets the logger requests are logged to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.log = l }
}

// WithCacheSize sets the number of rendered profiles to keep.
func WithCacheSize(n int) Option {
	return func(s *Server) { s.cache = lru.New(n) }
}

// WithPlotOptions sets the options for the inset maps.
func WithPlotOptions(o gridplot.Options) Option {
	return func(s *Server) { s.plot = o }
}

// WithTopographyField sets the field drawn in the topography profile.
func WithTopographyField(name string) Option {
	return func(s *Server) { s.topography = name }
}

// New returns a profile selector for the given fields of g.
func New(g *icgem.Grid, fields []string, opts ...Option) (*Server, error) {
	s := &Server{
		grid:       g,
		fields:     fields,
		interval:   icgem.DefaultProfileInterval,
		topography: gridplot.DefaultTopographyField,
		plot:       gridplot.DefaultOptions(),
		log:        logrus.StandardLogger(),
		cache:      lru.New(DefaultCacheSize),
	}
	for _, o := range opts {
		o(s)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("profileserver: no fields to profile")
	}
	for _, f := range append([]string{s.topography}, fields...) {
		if _, err := g.Field(f); err != nil {
			return nil, fmt.Errorf("profileserver: %v", err)
		}
	}
	if s.interval < 1 {
		return nil, fmt.Errorf("profileserver: profile interval must be at least 1 but is %d", s.interval)
	}

	s.version = s.fingerprint()

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/", s.indexHandler)
	s.mux.HandleFunc("/options", s.optionsHandler)
	s.mux.HandleFunc("/profile.png", s.profileHandler)
	s.mux.HandleFunc("/ws", s.wsHandler)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Options are the profile locations offered for a dimension.
type Options struct {
	Label   string    `json:"label"`
	Options []float64 `json:"options"`
	Value   float64   `json:"value"`
}

// LocationOptions returns the profile locations offered for dimension.
func (s *Server) LocationOptions(dimension string) (*Options, error) {
	d, err := icgem.ParseDimension(dimension)
	if err != nil {
		return nil, err
	}
	opts, mid, err := s.grid.LocationOptions(d, s.interval)
	if err != nil {
		return nil, err
	}
	other, _ := icgem.OtherDimension(d)
	return &Options{Label: "at " + other + " value", Options: opts, Value: mid}, nil
}

// fingerprint returns the fingerprint of everything that goes into a
// figure apart from the profile location.
func (s *Server) fingerprint() string {
	d := fingerprint.New().Text(s.topography).Text(s.fields...)
	d.Floats(s.grid.Latitudes()).Floats(s.grid.Longitudes())
	for _, f := range append([]string{s.topography}, s.fields...) {
		d.Floats(s.grid.Columns[f])
	}
	return d.Value(s.plot).Sum()
}

// cacheKey identifies a rendered profile.
type cacheKey struct {
	Dimension string
	Location  float64
}

// snap returns the normalized dimension and the grid line nearest to
// location that a profile would be taken at.
func (s *Server) snap(dimension string, location float64) (cacheKey, error) {
	d, err := icgem.ParseDimension(dimension)
	if err != nil {
		return cacheKey{}, err
	}
	_, _, at, err := s.grid.Profile(s.fields[0], d, location)
	if err != nil {
		return cacheKey{}, err
	}
	return cacheKey{Dimension: d, Location: at}, nil
}

// etag returns the entity tag of the figure for key.
func (s *Server) etag(key cacheKey) string {
	return fmt.Sprintf("%q", s.version+"-"+key.Dimension+"-"+strconv.FormatFloat(key.Location, 'g', -1, 64))
}

// Render returns the profile figure along dimension at location as a PNG
// image, and the grid line the profile was taken at.
func (s *Server) Render(dimension string, location float64) ([]byte, float64, error) {
	key, err := s.snap(dimension, location)
	if err != nil {
		return nil, 0, err
	}
	d, at := key.Dimension, key.Location

	s.mu.Lock()
	v, ok := s.cache.Get(key)
	s.mu.Unlock()
	log := s.log.WithFields(logrus.Fields{
		"dimension": d,
		"location":  at,
		"cached":    ok,
	})
	if ok {
		log.Info("profileserver served profile")
		return v.([]byte), at, nil
	}

	var buf bytes.Buffer
	err = gridplot.Profile(&buf, s.grid, gridplot.ProfileRequest{
		Fields:          s.fields,
		Dimension:       d,
		Location:        at,
		TopographyField: s.topography,
		Map:             s.plot,
	})
	if err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	s.cache.Add(key, buf.Bytes())
	s.mu.Unlock()
	log.Info("profileserver rendered profile")
	return buf.Bytes(), at, nil
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, struct {
		Dimensions []string
		Default    string
		Fields     []string
	}{
		Dimensions: icgem.Dimensions,
		Default:    icgem.LongitudeField,
		Fields:     s.fields,
	})
	if err != nil {
		s.log.WithError(err).Error("profileserver: rendering index")
	}
}

func (s *Server) optionsHandler(w http.ResponseWriter, r *http.Request) {
	o, err := s.LocationOptions(r.FormValue("dimension"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(o); err != nil {
		s.log.WithError(err).Error("profileserver: writing options")
	}
}

func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	loc, err := strconv.ParseFloat(r.FormValue("location"), 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid location: %v", err), http.StatusBadRequest)
		return
	}
	key, err := s.snap(r.FormValue("dimension"), loc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	etag := s.etag(key)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	b, _, err := s.Render(key.Dimension, key.Location)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(b)
}

// request is a profile request received over a websocket.
type request struct {
	Dimension string  `json:"dimension"`
	Location  float64 `json:"location"`
}

// response is the reply to a request.
type response struct {
	Dimension string  `json:"dimension,omitempty"`
	Location  float64 `json:"location"`
	Image     string  `json:"image,omitempty"` // base64 encoded PNG
	Error     string  `json:"error,omitempty"`
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("profileserver: websocket upgrade")
		return
	}
	defer conn.Close()
	for {
		var req request
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.WithError(err).Warn("profileserver: reading websocket")
			}
			return
		}
		var resp response
		b, at, err := s.Render(req.Dimension, req.Location)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Dimension = req.Dimension
			resp.Location = at
			resp.Image = base64.StdEncoding.EncodeToString(b)
		}
		if err := conn.WriteJSON(resp); err != nil {
			s.log.WithError(err).Warn("profileserver: writing websocket")
			return
		}
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Profile selector</title>
<style>
body { font-family: sans-serif; margin: 1em; }
#controls { margin-bottom: 1em; }
#profile { max-width: 100%; }
</style>
</head>
<body>
<h1>Profile selector</h1>
<p>Fields: {{range $i, $f := .Fields}}{{if $i}}, {{end}}{{$f}}{{end}}</p>
<div id="controls">
<label>Dimension
<select id="dimension">
{{range .Dimensions}}<option value="{{.}}"{{if eq . $.Default}} selected{{end}}>{{.}}</option>
{{end}}</select>
</label>
<label><span id="label"></span>
<input type="range" id="location" min="0" max="0" step="1" value="0">
</label>
<span id="value"></span>
<span id="error" style="color: red"></span>
</div>
<img id="profile" alt="profile">
<script>
var dim = document.getElementById("dimension");
var slider = document.getElementById("location");
var options = [];
var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = function(e) {
	var r = JSON.parse(e.data);
	document.getElementById("error").textContent = r.error || "";
	if (r.image) {
		document.getElementById("profile").src = "data:image/png;base64," + r.image;
	}
};
function request() {
	var v = options[slider.value];
	document.getElementById("value").textContent = v;
	if (ws.readyState === WebSocket.OPEN) {
		ws.send(JSON.stringify({dimension: dim.value, location: v}));
	} else {
		document.getElementById("profile").src = "profile.png?dimension=" + dim.value + "&location=" + v;
	}
}
function loadOptions() {
	fetch("options?dimension=" + dim.value).then(function(r) { return r.json(); }).then(function(o) {
		options = o.options;
		document.getElementById("label").textContent = o.label;
		slider.max = options.length - 1;
		slider.value = options.indexOf(o.value);
		request();
	});
}
dim.onchange = loadOptions;
slider.oninput = request;
ws.onopen = loadOptions;
</script>
</body>
</html>
`))
