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
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/kr/pretty"
	"github.com/tealeg/xlsx"
)

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "icgem")
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestNetCDFRoundTrip(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	g, err := decodeString(testHeader(nil) + testAttributeBody)
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(dir, "grid.nc"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := g.WriteNetCDF(f); err != nil {
		t.Fatal(err)
	}
	g2, err := ReadNetCDF(f)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(g, g2) {
		t.Errorf("netcdf round trip changed grid: %v", pretty.Diff(g, g2))
	}
}

func TestReadNetCDFInvalid(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	tests := []struct {
		name    string
		corrupt func(*Grid)
		check   func(error) bool
	}{
		{
			name:    "size",
			corrupt: func(g *Grid) { g.Size = 7 },
			check: func(err error) bool {
				var e *ShapeSizeMismatchError
				return errors.As(err, &e) && e.Size == 7
			},
		},
		{
			name:    "area",
			corrupt: func(g *Grid) { g.Area[1] = 50 },
			check: func(err error) bool {
				var e *AreaMismatchError
				return errors.As(err, &e) && e.Declared[1] == 50 && e.Computed[1] == 1
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g, err := decodeString(testHeader(nil) + testAttributeBody)
			if err != nil {
				t.Fatal(err)
			}
			test.corrupt(g)
			f, err := os.Create(filepath.Join(dir, test.name+".nc"))
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			if err := g.WriteNetCDF(f); err != nil {
				t.Fatal(err)
			}
			g2, err := ReadNetCDF(f)
			if g2 != nil {
				t.Errorf("returned a grid along with error %v", err)
			}
			if !test.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWriteShapefile(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	g := testGrid()
	path := filepath.Join(dir, "grid.shp")
	if err := g.WriteShapefile(path, "gravity", "topography_ell"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "grid.prj")); err != nil {
		t.Error(err)
	}

	d, err := shp.NewDecoder(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	var n int
	for {
		p, fields, more := d.DecodeRowFields("gravity", "topography")
		if !more {
			break
		}
		if n == 0 {
			// The first point is the north-west corner.
			if !reflect.DeepEqual(p, geom.Point{X: 20, Y: 12}) {
				t.Errorf("first point: have %v", p)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(fields["gravity"]), 64)
			if err != nil {
				t.Fatal(err)
			}
			if v != 400 {
				t.Errorf("first gravity value: have %g, want 400", v)
			}
		}
		n++
	}
	if err := d.Error(); err != nil {
		t.Fatal(err)
	}
	if n != g.Size {
		t.Errorf("have %d points, want %d", n, g.Size)
	}
}

func TestCheckShapefile(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	g := testGrid()
	path := filepath.Join(dir, "grid")
	if err := g.WriteShapefile(path+".shp", "gravity", "topography_ell"); err != nil {
		t.Fatal(err)
	}
	if err := checkShapefile(path, g.Size, 2); err != nil {
		t.Fatal(err)
	}
	if err := checkShapefile(path, g.Size+1, 2); err == nil {
		t.Error("missing record should fail")
	}
	if err := os.Truncate(path+".shx", shpHeaderSize); err != nil {
		t.Fatal(err)
	}
	if err := checkShapefile(path, g.Size, 2); err == nil {
		t.Error("truncated index should fail")
	}
}

func TestWriteShapefileDuplicateNames(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	g, err := testGrid().Derive("gravity_disturbance_a", "gravity")
	if err != nil {
		t.Fatal(err)
	}
	g, err = g.Derive("gravity_disturbance_b", "gravity")
	if err != nil {
		t.Fatal(err)
	}
	err = g.WriteShapefile(filepath.Join(dir, "dup.shp"), "gravity_disturbance_a", "gravity_disturbance_b")
	if err == nil {
		t.Error("truncated field names that collide should fail")
	}
}

func TestWriteXLSX(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	g := testGrid()
	path := filepath.Join(dir, "grid.xlsx")
	if err := g.WriteXLSX(path); err != nil {
		t.Fatal(err)
	}
	f, err := xlsx.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s, ok := f.Sheet[XLSXGridSheet]
	if !ok {
		t.Fatalf("missing sheet %s", XLSXGridSheet)
	}
	if v := s.Cell(0, 2).Value; v != "gravity" {
		t.Errorf("heading: have %q, want gravity", v)
	}
	if len(s.Rows) != g.Size+1 {
		t.Errorf("have %d rows, want %d", len(s.Rows), g.Size+1)
	}
	v, err := s.Cell(2, 2).Float()
	if err != nil {
		t.Fatal(err)
	}
	if v != 401 {
		t.Errorf("gravity in second row: have %g, want 401", v)
	}

	m, ok := f.Sheet[XLSXMetadataSheet]
	if !ok {
		t.Fatalf("missing sheet %s", XLSXMetadataSheet)
	}
	if m.Cell(0, 0).Value != "latitude_parallels" {
		t.Errorf("metadata key: %q", m.Cell(0, 0).Value)
	}
	if n, err := m.Cell(0, 1).Float(); err != nil || n != 5 {
		t.Errorf("latitude_parallels: have %g (%v)", n, err)
	}
}
