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
	"math"

	"github.com/Knetic/govaluate"
)

// DeriveFunctions are the functions available to Derive expressions.
var DeriveFunctions = map[string]govaluate.ExpressionFunction{
	"abs":  unaryFunc("abs", math.Abs),
	"sqrt": unaryFunc("sqrt", math.Sqrt),
	"exp":  unaryFunc("exp", math.Exp),
	"log":  unaryFunc("log", math.Log),
}

func unaryFunc(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("icgem: got %d arguments for function '%s', but needs 1", len(arg), name)
		}
		v, ok := arg[0].(float64)
		if !ok {
			return nil, fmt.Errorf("icgem: argument to '%s' is %T, not a number", name, arg[0])
		}
		return f(v), nil
	}
}

// Derive returns a copy of g with a new attribute called name, calculated
// at each grid point from the given expression. The expression can refer
// to any field of g by name; names that are not valid identifiers must be
// enclosed in square brackets. g is not modified.
//
// For example, to calculate the Bouguer disturbance from gravity
// disturbance and topography, using a density of 2670 kg/m³:
//
//	g.Derive("bouguer", "gravity_disturbance - 0.1119 * topography_ell")
func (g *Grid) Derive(name, expression string) (*Grid, error) {
	if name == "" {
		return nil, fmt.Errorf("icgem: derived field name is empty")
	}
	if g.HasField(name) {
		return nil, fmt.Errorf("icgem: derived field %s already exists", name)
	}
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, DeriveFunctions)
	if err != nil {
		return nil, fmt.Errorf("icgem: deriving %s: %v", name, err)
	}
	vars := removeDuplicates(expr.Vars())
	cols := make([][]float64, len(vars))
	for i, v := range vars {
		if cols[i], err = g.Field(v); err != nil {
			return nil, fmt.Errorf("icgem: deriving %s: %w", name, err)
		}
	}

	n := g.Shape[0] * g.Shape[1]
	out := make([]float64, n)
	params := make(map[string]interface{}, len(vars))
	for k := 0; k < n; k++ {
		for i, v := range vars {
			params[v] = cols[i][k]
		}
		r, err := expr.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("icgem: deriving %s: %v", name, err)
		}
		f, ok := r.(float64)
		if !ok {
			return nil, fmt.Errorf("icgem: deriving %s: expression result is %T, not a number", name, r)
		}
		out[k] = f
	}

	o := g.copy()
	o.Attributes = append(o.Attributes, name)
	o.Columns[name] = out
	return o, nil
}

// removeDuplicates removes all duplicated strings from a slice, returning a
// slice that contains only unique strings.
func removeDuplicates(s []string) []string {
	result := make([]string, 0, len(s))
	seen := make(map[string]struct{})
	for _, val := range s {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = struct{}{}
		}
	}
	return result
}
