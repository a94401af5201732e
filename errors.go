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
	"strings"
)

// Metadata items that must be present in a grid header.
const (
	MetadataShape      = "shape"
	MetadataSize       = "size"
	MetadataAttributes = "attributes"
	MetadataArea       = "area"
)

// MissingMetadataError is returned when a required header item was never
// found in the file.
type MissingMetadataError struct {
	Field string // one of the Metadata* constants
}

func (e *MissingMetadataError) Error() string {
	switch e.Field {
	case MetadataShape:
		return "couldn't read shape of grid"
	case MetadataSize:
		return "couldn't read size of grid"
	case MetadataAttributes:
		return "couldn't read column names"
	case MetadataArea:
		return "couldn't read the grid area"
	}
	return fmt.Sprintf("couldn't read %s", e.Field)
}

// ShapeSizeMismatchError is returned when the product of the declared grid
// dimensions differs from the declared number of grid points.
type ShapeSizeMismatchError struct {
	Shape [2]int
	Size  int
}

func (e *ShapeSizeMismatchError) Error() string {
	return fmt.Sprintf("grid shape (%d, %d) and size %d mismatch", e.Shape[0], e.Shape[1], e.Size)
}

// ColumnCountMismatchError is returned when the number of attribute names
// differs from the number of data columns.
type ColumnCountMismatchError struct {
	Attributes int
	Columns    int

	// Line is the file line where the mismatch was found, or 0 if the
	// mismatch is not specific to one line.
	Line int
}

func (e *ColumnCountMismatchError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("number of attributes (%d) and data columns (%d) mismatch on line %d",
			e.Attributes, e.Columns, e.Line)
	}
	return fmt.Sprintf("number of attributes (%d) and data columns (%d) mismatch", e.Attributes, e.Columns)
}

// AreaMismatchError is returned when the grid area declared in the header
// does not match the extent of the latitude and longitude columns.
type AreaMismatchError struct {
	Declared [4]float64
	Computed [4]float64
}

func (e *AreaMismatchError) Error() string {
	return fmt.Sprintf("grid area in header %v and calculated %v mismatch", e.Declared, e.Computed)
}

// MalformedBodyError is returned when the numeric body of a file cannot be
// arranged into one row per attribute.
type MalformedBodyError struct {
	Tokens int // number of values read
	Rows   int // number of rows expected
	Reason string
}

func (e *MalformedBodyError) Error() string {
	if e.Reason != "" {
		return "malformed data: " + e.Reason
	}
	return fmt.Sprintf("malformed data: %d values can't be split into %d columns", e.Tokens, e.Rows)
}

// HeaderValueError is returned when a recognized header key has a missing
// or invalid value.
type HeaderValueError struct {
	Key   string
	Value string
	Line  int
	Err   error
}

func (e *HeaderValueError) Error() string {
	return fmt.Sprintf("line %d: invalid value %q for %s: %v", e.Line, e.Value, e.Key, e.Err)
}

func (e *HeaderValueError) Unwrap() error { return e.Err }

// ColumnIndexError is returned when a requested column index is not
// within the attribute list.
type ColumnIndexError struct {
	Index      int
	Attributes []string
}

func (e *ColumnIndexError) Error() string {
	return fmt.Sprintf("column index %d out of range for attributes [%s]",
		e.Index, strings.Join(e.Attributes, " "))
}
