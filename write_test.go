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
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kr/pretty"
)

// sameData reports whether a and b hold the same grid, ignoring the
// header text.
func sameData(a, b *Grid) bool {
	a2, b2 := *a, *b
	a2.Header, b2.Header = "", ""
	return reflect.DeepEqual(a2, b2)
}

func TestWriteRoundTrip(t *testing.T) {
	const single = `latitude_parallels 1
longitude_parallels 3
number_of_gridpoints 3
latlimit_south -10.25
latlimit_north -10.25
longlimit_west 170
longlimit_east 171

longitude latitude gravity_disturbance
end_of_head =====
170 170.5 171
-10.25 -10.25 -10.25
0.1 -1e-7 42.123456789
`
	for _, test := range []struct {
		name  string
		input string
	}{
		{name: "2x2", input: testHeader(nil) + testPointBody},
		{name: "size equals attributes", input: single},
	} {
		t.Run(test.name, func(t *testing.T) {
			g, err := decodeString(test.input)
			if err != nil {
				t.Fatal(err)
			}
			var buf bytes.Buffer
			if err := Write(&buf, g); err != nil {
				t.Fatal(err)
			}
			g2, err := Decode(&buf)
			if err != nil {
				t.Fatalf("reading written grid: %v", err)
			}
			if !sameData(g, g2) {
				t.Errorf("round trip changed grid: %v", pretty.Diff(g, g2))
			}
			if !strings.HasSuffix(strings.TrimSpace(g2.Header), strings.Repeat("=", 40)) {
				t.Errorf("written header doesn't end with end_of_head line: %q", g2.Header)
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	g, err := decodeString(testHeader(nil) + testAttributeBody)
	if err != nil {
		t.Fatal(err)
	}
	dir, err := ioutil.TempDir("", "icgem")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "out.gdf")
	if err := g.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	g2, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if !sameData(g, g2) {
		t.Errorf("round trip changed grid: %v", pretty.Diff(g, g2))
	}
}

func TestWriteNoAttributes(t *testing.T) {
	if err := Write(ioutil.Discard, &Grid{}); err == nil {
		t.Error("writing a grid without attributes should fail")
	}
}
