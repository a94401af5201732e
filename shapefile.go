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
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
)

// wgs84 is the WKT description of longitude/latitude coordinates on the
// WGS 84 datum, written to the .prj file of exported shapefiles.
const wgs84 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`

// maxShpFieldName is the maximum length of a dBase field name.
const maxShpFieldName = 10

// Sizes in bytes of the parts of a point shapefile.
const (
	shpHeaderSize      = 100
	shpPointRecordSize = 28 // record header, shape type and coordinates
	shxRecordSize      = 8
	dbfFieldSize       = 24
)

// WriteShapefile writes one point per grid node to the shapefile at path,
// with a floating point attribute for each of the given fields. If no
// fields are given, all attributes are written. Field names longer than
// ten characters are truncated.
func (g *Grid) WriteShapefile(path string, fields ...string) error {
	if len(fields) == 0 {
		fields = g.Attributes
	}
	cols := make([][]float64, len(fields))
	shpFields := make([]goshp.Field, len(fields))
	seen := make(map[string]string)
	for i, f := range fields {
		var err error
		if cols[i], err = g.Field(f); err != nil {
			return err
		}
		name := f
		if len(name) > maxShpFieldName {
			name = name[:maxShpFieldName]
		}
		if other, ok := seen[strings.ToLower(name)]; ok {
			return fmt.Errorf("icgem: fields %s and %s have the same shapefile field name %s", other, f, name)
		}
		seen[strings.ToLower(name)] = f
		shpFields[i] = goshp.FloatField(name, dbfFieldSize, 12)
	}

	path = strings.TrimSuffix(path, ".shp")
	e, err := shp.NewEncoderFromFields(path+".shp", goshp.POINT, shpFields...)
	if err != nil {
		return fmt.Errorf("icgem: creating shapefile: %v", err)
	}
	lats, lons := g.Latitudes(), g.Longitudes()
	vals := make([]interface{}, len(cols))
	for i := g.Shape[0] - 1; i >= 0; i-- {
		for j := 0; j < g.Shape[1]; j++ {
			k := g.index(i, j)
			for c, col := range cols {
				vals[c] = col[k]
			}
			if err := e.EncodeFields(geom.Point{X: lons[j], Y: lats[i]}, vals...); err != nil {
				e.Close()
				return fmt.Errorf("icgem: writing shapefile: %v", err)
			}
		}
	}
	e.Close()
	if err := checkShapefile(path, g.Size, len(shpFields)); err != nil {
		return err
	}
	return ioutil.WriteFile(path+".prj", []byte(wgs84), 0644)
}

// checkShapefile makes sure the files of the point shapefile at path
// (without extension) hold n records with nfields attributes each. The
// shapefile encoder does not report errors when it closes the files.
func checkShapefile(path string, n, nfields int) error {
	want := map[string]int64{
		".shp": shpHeaderSize + int64(n)*shpPointRecordSize,
		".shx": shpHeaderSize + int64(n)*shxRecordSize,
		".dbf": int64(32*nfields+33) + int64(n)*int64(1+dbfFieldSize*nfields),
	}
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		fi, err := os.Stat(path + ext)
		if err != nil {
			return fmt.Errorf("icgem: writing shapefile: %v", err)
		}
		if ext == ".dbf" && fi.Size() >= want[ext] || fi.Size() == want[ext] {
			continue
		}
		return fmt.Errorf("icgem: writing shapefile: %s%s has %d bytes, want %d", path, ext, fi.Size(), want[ext])
	}
	return nil
}
