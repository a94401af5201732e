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

	"github.com/GaryBoone/GoStats/stats"
)

// FieldSummary holds summary statistics of one grid field.
type FieldSummary struct {
	Name              string
	Min, Max          float64
	Mean              float64
	StandardDeviation float64 // sample standard deviation
}

func (s FieldSummary) String() string {
	return fmt.Sprintf("%s: min=%g max=%g mean=%g std=%g", s.Name, s.Min, s.Max, s.Mean, s.StandardDeviation)
}

// Summary returns summary statistics of the named field.
func (g *Grid) Summary(field string) (FieldSummary, error) {
	v, err := g.Field(field)
	if err != nil {
		return FieldSummary{}, err
	}
	return FieldSummary{
		Name:              field,
		Min:               stats.StatsMin(v),
		Max:               stats.StatsMax(v),
		Mean:              stats.StatsMean(v),
		StandardDeviation: stats.StatsSampleStandardDeviation(v),
	}, nil
}

// Regression fits y = slope*x + intercept between two fields of the
// grid, for example gravity anomaly against topography.
func (g *Grid) Regression(xField, yField string) (slope, intercept, rsquared float64, err error) {
	x, err := g.Field(xField)
	if err != nil {
		return 0, 0, 0, err
	}
	y, err := g.Field(yField)
	if err != nil {
		return 0, 0, 0, err
	}
	slope, intercept, rsquared, _, _, _ = stats.LinearRegression(x, y)
	return slope, intercept, rsquared, nil
}
