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

import (
	"fmt"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// NC4Source is a Source for NetCDF-4 files. It reads classic NetCDF
// files as well.
type NC4Source struct {
	g       api.Group
	vars    []Variable
	getters map[string]api.VarGetter
}

// OpenNC4 opens the NetCDF file at path for reading. The shape of every
// variable is determined when the file is opened. Variables the library
// cannot read, such as those of user-defined types, are listed with
// type Unknown.
func OpenNC4(path string) (*NC4Source, error) {
	g, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	s := &NC4Source{g: g, getters: make(map[string]api.VarGetter)}
	for _, name := range g.ListVariables() {
		v := Variable{Name: name, Type: Unknown}
		vg, err := g.GetVarGetter(name)
		if err == nil {
			if v.Dims, err = nc4Dims(vg); err == nil {
				v.Type = nc4Type(vg.GoType())
				s.getters[name] = vg
			}
		}
		s.vars = append(s.vars, v)
	}
	return s, nil
}

// nc4Dims returns the dimensions of the variable read by vg. The
// library reports only the length of the first dimension, so the sizes
// of the others are taken from the shape of the first slice along it.
func nc4Dims(vg api.VarGetter) ([]Dimension, error) {
	names := vg.Dimensions()
	dims := make([]Dimension, len(names))
	for i, n := range names {
		dims[i].Name = n
	}
	if len(dims) == 0 {
		return dims, nil
	}
	dims[0].Size = int(vg.Len())
	if len(dims) == 1 || dims[0].Size == 0 {
		return dims, nil
	}
	first, err := vg.GetSlice(0, 1)
	if err != nil {
		return nil, err
	}
	shape := nestedShape(first)
	if len(shape) != len(dims) {
		return nil, fmt.Errorf("slice has %d dimensions but variable has %d", len(shape), len(dims))
	}
	for i := 1; i < len(shape); i++ {
		dims[i].Size = shape[i]
	}
	return dims, nil
}

// nestedShape returns the lengths of the nested slices in v.
func nestedShape(v interface{}) []int {
	var shape []int
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Slice {
		shape = append(shape, rv.Len())
		if rv.Len() == 0 {
			break
		}
		rv = rv.Index(0)
	}
	return shape
}

func nc4Type(goType string) DataType {
	switch goType {
	case "int8":
		return Byte
	case "uint8":
		return UByte
	case "int16":
		return Short
	case "uint16":
		return UShort
	case "int32":
		return Int
	case "uint32":
		return UInt
	case "int64":
		return Int64
	case "uint64":
		return UInt64
	case "float32":
		return Float
	case "float64":
		return Double
	case "string":
		return String
	default:
		return Unknown
	}
}

// Attributes implements Source.
func (s *NC4Source) Attributes() []Attribute {
	am := s.g.Attributes()
	keys := am.Keys()
	o := make([]Attribute, 0, len(keys))
	for _, k := range keys {
		v, ok := am.Get(k)
		if !ok {
			continue
		}
		o = append(o, nc4Attribute(k, v))
	}
	return o
}

// nc4Attribute converts an attribute value, which may be a scalar or a
// slice, keeping the first element of a slice.
func nc4Attribute(name string, val interface{}) Attribute {
	a := Attribute{Name: name}
	rv := reflect.ValueOf(val)
	if rv.Kind() == reflect.Slice {
		if rv.Len() == 0 {
			return a
		}
		rv = rv.Index(0)
	}
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		a.Kind, a.Int64 = AttrInt, rv.Int()
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		a.Kind, a.Int64 = AttrInt, int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		a.Kind, a.Float64 = AttrFloat, rv.Float()
	}
	return a
}

// Variables implements Source.
func (s *NC4Source) Variables() []Variable { return s.vars }

// ReadFloat32 implements Source. Only the first dimension may be
// partially read.
func (s *NC4Source) ReadFloat32(name string, begin, end []int, buf []float32) error {
	vg, ok := s.getters[name]
	if !ok {
		return fmt.Errorf("no variable %s", name)
	}
	var dims []Dimension
	for _, v := range s.vars {
		if v.Name == name {
			dims = v.Dims
		}
	}
	if len(begin) != len(dims) || len(end) != len(dims) || len(dims) == 0 {
		return fmt.Errorf("variable %s has %d dimensions; got begin %v and end %v", name, len(dims), begin, end)
	}
	for i := 1; i < len(dims); i++ {
		if begin[i] != 0 || end[i] != dims[i].Size {
			return fmt.Errorf("partial read of dimension %s is not supported", dims[i].Name)
		}
	}
	slice, err := vg.GetSlice(int64(begin[0]), int64(end[0]))
	if err != nil {
		return err
	}
	n := 0
	switch v := slice.(type) {
	case []float32:
		n = copy(buf, v)
	case [][]float32:
		for _, row := range v {
			n += copy(buf[n:], row)
		}
	case [][][]float32:
		for _, plane := range v {
			for _, row := range plane {
				n += copy(buf[n:], row)
			}
		}
	default:
		return fmt.Errorf("variable %s: unexpected value type %T", name, slice)
	}
	if n != len(buf) {
		return fmt.Errorf("variable %s: read %d values; want %d", name, n, len(buf))
	}
	return nil
}

// Close closes the file. The library does not report close failures,
// so the result is always nil.
func (s *NC4Source) Close() error {
	s.g.Close()
	return nil
}
