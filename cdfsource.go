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
	"io"
	"os"

	"github.com/ctessum/cdf"
)

// CDFSource is a Source for classic (CDF-1 and CDF-2) NetCDF files.
type CDFSource struct {
	f       *os.File
	cf      *cdf.File
	numRecs int
}

// OpenCDF opens the classic NetCDF file at path for reading.
func OpenCDF(path string) (*CDFSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s, err := NewCDFSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// NewCDFSource creates a Source from an open classic NetCDF file.
// The Source takes ownership of f.
func NewCDFSource(f *os.File) (*CDFSource, error) {
	cf, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("reading NetCDF header: %v", err)
	}
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return &CDFSource{
		f:       f,
		cf:      cf,
		numRecs: int(cf.Header.NumRecs(fi.Size())),
	}, nil
}

// Attributes implements Source.
func (s *CDFSource) Attributes() []Attribute {
	names := s.cf.Header.Attributes("")
	o := make([]Attribute, len(names))
	for i, name := range names {
		o[i] = cdfAttribute(name, s.cf.Header.GetAttribute("", name))
	}
	return o
}

// cdfAttribute converts a classic NetCDF attribute value. Numeric
// attributes are stored as slices; only the first element is used.
func cdfAttribute(name string, val interface{}) Attribute {
	a := Attribute{Name: name}
	switch v := val.(type) {
	case []int8:
		if len(v) > 0 {
			a.Kind, a.Int64 = AttrInt, int64(v[0])
		}
	case []uint8:
		if len(v) > 0 {
			a.Kind, a.Int64 = AttrInt, int64(v[0])
		}
	case []int16:
		if len(v) > 0 {
			a.Kind, a.Int64 = AttrInt, int64(v[0])
		}
	case []int32:
		if len(v) > 0 {
			a.Kind, a.Int64 = AttrInt, int64(v[0])
		}
	case []float32:
		if len(v) > 0 {
			a.Kind, a.Float64 = AttrFloat, float64(v[0])
		}
	case []float64:
		if len(v) > 0 {
			a.Kind, a.Float64 = AttrFloat, v[0]
		}
	}
	return a
}

// Variables implements Source. The size of the record dimension is the
// number of records in the file.
func (s *CDFSource) Variables() []Variable {
	h := s.cf.Header
	names := h.Variables()
	o := make([]Variable, len(names))
	for i, name := range names {
		dimNames := h.Dimensions(name)
		lengths := h.Lengths(name)
		v := Variable{
			Name: name,
			Type: cdfType(h.ZeroValue(name, 0)),
			Dims: make([]Dimension, len(dimNames)),
		}
		for j, d := range dimNames {
			v.Dims[j] = Dimension{Name: d, Size: lengths[j]}
		}
		if len(lengths) > 0 && lengths[0] == 0 {
			v.Dims[0].Size = s.numRecs
		}
		o[i] = v
	}
	return o
}

func cdfType(zero interface{}) DataType {
	switch zero.(type) {
	case []int8, []uint8:
		return Byte
	case string:
		return Char
	case []int16:
		return Short
	case []int32:
		return Int
	case []float32:
		return Float
	case []float64:
		return Double
	default:
		return Unknown
	}
}

// ReadFloat32 implements Source.
func (s *CDFSource) ReadFloat32(name string, begin, end []int, buf []float32) error {
	r := s.cf.Reader(name, begin, end)
	n, err := r.Read(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("read %d of %d values: %v", n, len(buf), io.ErrUnexpectedEOF)
	}
	return nil
}

// Close syncs and closes the file.
func (s *CDFSource) Close() error {
	serr := s.f.Sync()
	cerr := s.f.Close()
	if serr != nil {
		return serr
	}
	return cerr
}
