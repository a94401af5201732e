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

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
)

// ReadCoastlines reads the line and polygon shapes in a shapefile, such
// as the Natural Earth coastlines, for drawing over maps.
func ReadCoastlines(path string) ([]geom.Geom, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("gridplot: opening coastlines: %v", err)
	}
	defer d.Close()
	var o []geom.Geom
	for {
		g, _, more := d.DecodeRowFields()
		if !more {
			break
		}
		switch g.(type) {
		case geom.LineString, geom.MultiLineString, geom.Polygon, geom.MultiPolygon:
			o = append(o, g)
		}
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("gridplot: reading coastlines: %v", err)
	}
	return o, nil
}
