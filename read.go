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
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"gonum.org/v1/gonum/mat"
)

// endOfHead marks the last line of a grid file header.
const endOfHead = "end_of_head"

// Layout specifies how the values in the body of a grid file are arranged.
type Layout int

const (
	// LayoutAuto chooses LayoutByPoint when every body line holds one value
	// per attribute (and the number of lines differs from the number of
	// attributes), and LayoutByAttribute otherwise. The choice depends only
	// on where the lines break, so a by-attribute body wrapped at one value
	// per attribute on each line is read as LayoutByPoint. Such files need
	// WithLayout(LayoutByAttribute).
	LayoutAuto Layout = iota

	// LayoutByAttribute reads the body as a single stream of values holding
	// one row of grid point values per attribute.
	LayoutByAttribute

	// LayoutByPoint reads the body as one line per grid point, with one
	// value per attribute on each line. This is the layout of the files
	// distributed by ICGEM.
	LayoutByPoint
)

func (l Layout) String() string {
	switch l {
	case LayoutAuto:
		return "auto"
	case LayoutByAttribute:
		return "attribute"
	case LayoutByPoint:
		return "point"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// ParseLayout returns the layout with the given name, which must be one
// of "auto", "attribute" or "point".
func ParseLayout(s string) (Layout, error) {
	for _, l := range []Layout{LayoutAuto, LayoutByAttribute, LayoutByPoint} {
		if strings.EqualFold(s, l.String()) {
			return l, nil
		}
	}
	return LayoutAuto, fmt.Errorf("icgem: invalid layout %q; valid options are auto, attribute and point", s)
}

type readConfig struct {
	columns []int
	layout  Layout
}

// ReadOption configures Read and Decode.
type ReadOption func(*readConfig)

// UseColumns restricts the grid to the attributes with the given 0-based
// indices in the header attribute list, in the given order. By default all
// attributes are kept.
func UseColumns(indices ...int) ReadOption {
	return func(c *readConfig) {
		c.columns = append([]int(nil), indices...)
	}
}

// WithLayout sets the layout of the file body. The default is LayoutAuto.
func WithLayout(l Layout) ReadOption {
	return func(c *readConfig) {
		c.layout = l
	}
}

// Read reads the grid file at path. Files whose name ends in ".gz" are
// decompressed while reading.
func Read(path string, opts ...ReadOption) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("icgem: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("icgem: reading %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	g, err := Decode(r, opts...)
	if err != nil {
		return nil, fmt.Errorf("icgem: reading %s: %w", path, err)
	}
	return g, nil
}

// Decode reads a grid in ICGEM grid file format from r. The returned
// grid has passed all consistency checks; otherwise an error is returned
// and no grid.
func Decode(r io.Reader, opts ...ReadOption) (*Grid, error) {
	cfg := readConfig{layout: LayoutAuto}
	for _, o := range opts {
		o(&cfg)
	}

	br := bufio.NewReader(r)
	h := new(header)
	for !h.done {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if perr := h.parseLine(line); perr != nil {
				return nil, perr
			}
		}
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
	}
	if err := h.check(); err != nil {
		return nil, err
	}
	if !h.done {
		return nil, &MalformedBodyError{Rows: len(h.attributes), Reason: "no " + endOfHead + " line"}
	}

	rows, err := readBody(br, h.line, len(h.attributes), h.size, cfg.layout)
	if err != nil {
		return nil, err
	}

	names := h.attributes
	if cfg.columns != nil {
		names, rows, err = selectColumns(cfg.columns, names, rows)
		if err != nil {
			return nil, err
		}
	}
	if len(names) != len(rows) {
		return nil, &ColumnCountMismatchError{Attributes: len(names), Columns: len(rows)}
	}
	if h.areaKnown != [4]bool{true, true, true, true} {
		return nil, &MissingMetadataError{Field: MetadataArea}
	}

	g := &Grid{
		Shape:      h.shape,
		Size:       h.size,
		Area:       h.area,
		Header:     h.text.String(),
		Height:     h.height,
		HasHeight:  h.heightKnown,
		Attributes: names,
		Columns:    make(map[string][]float64, len(names)+1),
	}
	for i, name := range names {
		// ICGEM grids go from north to south; we store them south to north.
		g.Columns[name] = flipLatitude(rows[i], g.Shape[0], g.Shape[1])
	}
	if err := validate(g); err != nil {
		return nil, err
	}
	g.addHeight()
	return g, nil
}

// headerState is the state of the header parser.
type headerState int

const (
	// expectingKey means the next line is a "key value" line.
	expectingKey headerState = iota

	// expectingAttributeNames means the next non-blank line holds the
	// names of the data columns. Every blank line re-enters this state.
	expectingAttributeNames
)

// header accumulates the metadata in a grid file header.
type header struct {
	state headerState
	text  strings.Builder
	line  int  // number of lines read
	done  bool // whether the end_of_head line has been read

	shape       [2]int
	shapeKnown  [2]bool
	size        int
	sizeKnown   bool
	area        [4]float64
	areaKnown   [4]bool
	height      float64
	heightKnown bool
	attributes  []string
}

// areaKeys are the header keys holding the grid area, by position in
// Grid.Area.
var areaKeys = map[string]int{
	"latlimit_south": 0,
	"latlimit_north": 1,
	"longlimit_west": 2,
	"longlimit_east": 3,
}

// parseLine adds one raw header line, including its line terminator,
// to the header.
func (h *header) parseLine(line string) error {
	h.line++
	h.text.WriteString(line)
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, endOfHead) {
		h.done = true
		return nil
	}
	if trimmed == "" {
		h.state = expectingAttributeNames
		return nil
	}
	if h.state == expectingAttributeNames {
		h.attributes = strings.Fields(trimmed)
		h.state = expectingKey
		return nil
	}

	parts := strings.Fields(trimmed)
	key := parts[0]
	var value string
	if len(parts) > 1 {
		value = parts[1]
	}
	var err error
	switch key {
	case "height_over_ell":
		h.height, err = h.parseFloat(key, value)
		h.heightKnown = err == nil
	case "latitude_parallels":
		h.shape[0], err = h.parseCount(key, value)
		h.shapeKnown[0] = err == nil
	case "longitude_parallels":
		h.shape[1], err = h.parseCount(key, value)
		h.shapeKnown[1] = err == nil
	case "number_of_gridpoints":
		h.size, err = h.parseCount(key, value)
		h.sizeKnown = err == nil
	default:
		if i, ok := areaKeys[key]; ok {
			h.area[i], err = h.parseFloat(key, value)
			h.areaKnown[i] = err == nil
		}
		// Other keys are not needed.
	}
	return err
}

func (h *header) parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &HeaderValueError{Key: key, Value: value, Line: h.line, Err: err}
	}
	return v, nil
}

// parseCount parses a positive integer.
func (h *header) parseCount(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, &HeaderValueError{Key: key, Value: value, Line: h.line, Err: err}
	}
	if v <= 0 {
		return 0, &HeaderValueError{Key: key, Value: value, Line: h.line, Err: fmt.Errorf("must be positive")}
	}
	return v, nil
}

// check makes sure the grid dimensions and column names were found and
// agree with each other.
func (h *header) check() error {
	if !h.shapeKnown[0] || !h.shapeKnown[1] {
		return &MissingMetadataError{Field: MetadataShape}
	}
	if !h.sizeKnown {
		return &MissingMetadataError{Field: MetadataSize}
	}
	if !shapeMatchesSize(h.shape, h.size) {
		return &ShapeSizeMismatchError{Shape: h.shape, Size: h.size}
	}
	if h.attributes == nil {
		return &MissingMetadataError{Field: MetadataAttributes}
	}
	return nil
}

// readBody reads the numeric data following the header and returns one
// row of size values for each of the nattr attributes. line is the number
// of lines already read.
func readBody(br *bufio.Reader, line, nattr, size int, layout Layout) ([][]float64, error) {
	var values []float64
	var counts []int // number of values on each non-blank line
	var lines []int  // file line number of each non-blank line
	for {
		s, err := br.ReadString('\n')
		if len(s) > 0 {
			line++
			fields := strings.Fields(s)
			for _, f := range fields {
				v, perr := strconv.ParseFloat(f, 64)
				if perr != nil {
					return nil, &MalformedBodyError{
						Tokens: len(values),
						Rows:   nattr,
						Reason: fmt.Sprintf("line %d: invalid number %q", line, f),
					}
				}
				values = append(values, v)
			}
			if len(fields) > 0 {
				counts = append(counts, len(fields))
				lines = append(lines, line)
			}
		}
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
	}

	if layout == LayoutAuto {
		layout = detectLayout(counts, nattr)
	}
	if layout == LayoutByPoint {
		return pointRows(values, counts, lines, nattr, size)
	}
	return attributeRows(values, nattr, size)
}

// detectLayout guesses the body layout from the number of values on each
// line.
func detectLayout(counts []int, nattr int) Layout {
	if len(counts) == 0 || len(counts) == nattr {
		return LayoutByAttribute
	}
	for _, c := range counts {
		if c != nattr {
			return LayoutByAttribute
		}
	}
	return LayoutByPoint
}

// attributeRows splits values into nattr consecutive rows.
func attributeRows(values []float64, nattr, size int) ([][]float64, error) {
	if len(values)%nattr != 0 {
		return nil, &MalformedBodyError{Tokens: len(values), Rows: nattr}
	}
	n := len(values) / nattr
	if n != size {
		return nil, &MalformedBodyError{
			Tokens: len(values),
			Rows:   nattr,
			Reason: fmt.Sprintf("%d values per column, want %d", n, size),
		}
	}
	m := mat.NewDense(nattr, n, values)
	rows := make([][]float64, nattr)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows, nil
}

// pointRows transposes values holding one line of nattr values per grid
// point.
func pointRows(values []float64, counts, lines []int, nattr, size int) ([][]float64, error) {
	for i, c := range counts {
		if c != nattr {
			return nil, &ColumnCountMismatchError{Attributes: nattr, Columns: c, Line: lines[i]}
		}
	}
	if len(counts) != size {
		return nil, &MalformedBodyError{
			Tokens: len(values),
			Rows:   nattr,
			Reason: fmt.Sprintf("%d grid points in data, want %d", len(counts), size),
		}
	}
	m := mat.NewDense(size, nattr, values)
	rows := make([][]float64, nattr)
	for j := range rows {
		rows[j] = mat.Col(nil, j, m)
	}
	return rows, nil
}

// selectColumns keeps the attribute names and data rows at the given
// indices.
func selectColumns(indices []int, names []string, rows [][]float64) ([]string, [][]float64, error) {
	selNames := make([]string, 0, len(indices))
	selRows := make([][]float64, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(names) {
			return nil, nil, &ColumnIndexError{Index: i, Attributes: names}
		}
		selNames = append(selNames, names[i])
		if i < len(rows) {
			selRows = append(selRows, rows[i])
		}
	}
	return selNames, selRows, nil
}

// flipLatitude reshapes v into an (nlat, nlon) matrix, reverses the order
// of its rows, and returns the result flattened in row-major order.
func flipLatitude(v []float64, nlat, nlon int) []float64 {
	src := mat.NewDense(nlat, nlon, v)
	dst := mat.NewDense(nlat, nlon, nil)
	for i := 0; i < nlat; i++ {
		dst.SetRow(i, src.RawRowView(nlat-1-i))
	}
	return dst.RawMatrix().Data
}
