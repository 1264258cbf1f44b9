/*
Copyright © 2019 the swegrid authors.
This file is part of swegrid.

swegrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

swegrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with swegrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package swegrid

import "fmt"

// OpenError is returned when a file cannot be opened for reading.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("swegrid: failed to open '%s' for reading NetCDF: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// AttributeError is returned when a mandatory grid attribute, or both
// members of an attribute/fallback pair such as "width/dx", are
// missing, of the wrong type, or out of range.
type AttributeError struct {
	Name   string
	Reason string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("swegrid: attribute %s: %s", e.Name, e.Reason)
}

// FieldTypeError is returned when a field variable does not hold
// 32-bit floating point values.
type FieldTypeError struct {
	Field            string
	Actual, Expected DataType
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("swegrid: error in field %s: type (%v) not %v", e.Field, e.Actual, e.Expected)
}

// FieldRankError is returned when a field variable has neither two nor
// three dimensions.
type FieldRankError struct {
	Field string
	Rank  int
}

func (e *FieldRankError) Error() string {
	return fmt.Sprintf("swegrid: error in field %s: # of dimensions (%d) neither 2 nor 3", e.Field, e.Rank)
}

// TimeDimensionError is returned when the first dimension of a
// three-dimensional field is not named "T".
type TimeDimensionError struct {
	Field  string
	Actual string
}

func (e *TimeDimensionError) Error() string {
	return fmt.Sprintf("swegrid: error in field %s (ndims=3): name of time dimension (%s) != %s",
		e.Field, e.Actual, TimeDim)
}

// Axis identifies a horizontal grid axis.
type Axis string

// These are the horizontal axes.
const (
	AxisX Axis = "nx"
	AxisY Axis = "ny"
)

// FieldShapeError is returned when the size of a horizontal field
// dimension differs from the size the grid requires.
type FieldShapeError struct {
	Field            string
	Rank             int
	Axis             Axis
	Actual, Expected int
}

func (e *FieldShapeError) Error() string {
	return fmt.Sprintf("swegrid: error in field %s (ndims=%d): %s (%d) != %d",
		e.Field, e.Rank, e.Axis, e.Actual, e.Expected)
}

// FieldReadError is returned when the values of a field could not be
// copied from the file.
type FieldReadError struct {
	Field string
	Rank  int
	Err   error
}

func (e *FieldReadError) Error() string {
	return fmt.Sprintf("swegrid: error in field %s (ndims=%d): failed to copy values: %v",
		e.Field, e.Rank, e.Err)
}

func (e *FieldReadError) Unwrap() error { return e.Err }

// CloseError is returned when a file could not be flushed and closed.
// If the close was attempted while abandoning a failed load, Cause
// holds the load error. A CloseError from Grid.Close does not affect
// the data already held by the Grid, but the state of the file on disk
// should be treated as suspect.
type CloseError struct {
	Path  string
	Err   error
	Cause error
}

func (e *CloseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("swegrid: couldn't close '%s' (%v) after: %v", e.Path, e.Err, e.Cause)
	}
	return fmt.Sprintf("swegrid: couldn't close '%s': %v", e.Path, e.Err)
}

func (e *CloseError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}
