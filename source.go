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

import "math"

// Source is a read-only handle on a structured data file. It is the
// only way the loader touches the file: implementations enumerate the
// global attributes and variables and copy float32 data into caller
// buffers. A Source is not safe for concurrent use.
type Source interface {
	// Attributes returns the global attributes of the file.
	Attributes() []Attribute

	// Variables returns the top-level variables of the file.
	Variables() []Variable

	// ReadFloat32 copies the hyperslab of variable name starting at
	// index begin (inclusive) and ending at index end (exclusive) into
	// buf, which must be exactly as long as the hyperslab.
	ReadFloat32(name string, begin, end []int, buf []float32) error

	// Close flushes and releases the underlying file.
	Close() error
}

// AttrKind is the kind of value an Attribute holds.
type AttrKind int

// These are the attribute kinds. Attributes of any type that cannot be
// read as a number (for example text) are AttrOther.
const (
	AttrOther AttrKind = iota
	AttrInt
	AttrFloat
)

func (k AttrKind) String() string {
	switch k {
	case AttrInt:
		return "integer"
	case AttrFloat:
		return "float"
	default:
		return "other"
	}
}

// Attribute is a global file attribute. Only the first value of an
// array-valued attribute is kept.
type Attribute struct {
	Name string
	Kind AttrKind

	// Int64 holds the value when Kind is AttrInt.
	Int64 int64
	// Float64 holds the value when Kind is AttrFloat.
	Float64 float64
}

// IntAttribute returns an integer-valued attribute.
func IntAttribute(name string, v int64) Attribute {
	return Attribute{Name: name, Kind: AttrInt, Int64: v}
}

// FloatAttribute returns a floating-point attribute.
func FloatAttribute(name string, v float64) Attribute {
	return Attribute{Name: name, Kind: AttrFloat, Float64: v}
}

// Valid returns whether a holds a numeric value.
func (a Attribute) Valid() bool { return a.Kind == AttrInt || a.Kind == AttrFloat }

// Int returns the value of a as an int. It is only ok for integer
// attributes whose value fits in 32 bits.
func (a Attribute) Int() (int, bool) {
	if a.Kind != AttrInt || a.Int64 > math.MaxInt32 || a.Int64 < math.MinInt32 {
		return 0, false
	}
	return int(a.Int64), true
}

// Float returns the value of a as a float64. Integer attributes are
// widened; NaN values are not ok.
func (a Attribute) Float() (float64, bool) {
	switch a.Kind {
	case AttrFloat:
		if math.IsNaN(a.Float64) {
			return 0, false
		}
		return a.Float64, true
	case AttrInt:
		return float64(a.Int64), true
	default:
		return 0, false
	}
}

// DataType is the element type of a variable.
type DataType int

// These are the NetCDF element types.
const (
	Unknown DataType = iota
	Byte
	Char
	Short
	Int
	Float
	Double
	UByte
	UShort
	UInt
	Int64
	UInt64
	String
)

var dataTypeNames = map[DataType]string{
	Unknown: "unknown",
	Byte:    "byte",
	Char:    "char",
	Short:   "short",
	Int:     "int",
	Float:   "float",
	Double:  "double",
	UByte:   "ubyte",
	UShort:  "ushort",
	UInt:    "uint",
	Int64:   "int64",
	UInt64:  "uint64",
	String:  "string",
}

// String returns the CDL name of t.
func (t DataType) String() string {
	if s, ok := dataTypeNames[t]; ok {
		return s
	}
	return dataTypeNames[Unknown]
}

// Dimension is a named variable dimension.
type Dimension struct {
	Name string
	Size int
}

// Variable describes a variable in a Source.
type Variable struct {
	Name string
	Type DataType
	// Dims are ordered from slowest to fastest varying.
	Dims []Dimension
}

// Rank returns the number of dimensions of v.
func (v Variable) Rank() int { return len(v.Dims) }
