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

import "github.com/ctessum/sparse"

// Names of the field variables.
const (
	FieldH   = "H"
	FieldEta = "eta"
	FieldU   = "U"
	FieldV   = "V"
)

// TimeDim is the required name of the leading dimension of a field
// stored as a time series.
const TimeDim = "T"

// FieldSpec gives the expected shape of a field as offsets from the
// grid size.
type FieldSpec struct {
	Name        string
	Description string
	DNX, DNY    int
}

// Shape returns the expected (nx, ny) of the field on grid g.
func (s FieldSpec) Shape(g Geometry) (nx, ny int) {
	return g.NX + s.DNX, g.NY + s.DNY
}

// FieldSpecs are the fields the loader extracts, in load order.
var FieldSpecs = []FieldSpec{
	{Name: FieldH, Description: "bathymetry at cell corners", DNX: 1, DNY: 1},
	{Name: FieldEta, Description: "surface elevation at cell corners", DNX: 1, DNY: 1},
	{Name: FieldU, Description: "x-velocity on the staggered grid", DNX: 2, DNY: -1},
	{Name: FieldV, Description: "y-velocity on the staggered grid", DNX: -1, DNY: 2},
}

// Field is a two-dimensional field on the grid. The zero value is an
// absent field: the variable was not in the file.
type Field struct {
	name   string
	data   []float32
	nx, ny int
	dx, dy float64
}

func newField(name string, data []float32, nx, ny int, g Geometry) Field {
	return Field{name: name, data: data, nx: nx, ny: ny, dx: g.DX(), dy: g.DY()}
}

// Present returns whether the field was found in the file.
func (f Field) Present() bool { return f.data != nil }

// Name returns the variable name of the field, or "" if it is absent.
func (f Field) Name() string { return f.name }

// NX returns the number of values in the x direction.
func (f Field) NX() int { return f.nx }

// NY returns the number of values in the y direction.
func (f Field) NY() int { return f.ny }

// DX returns the grid spacing in the x direction.
func (f Field) DX() float64 { return f.dx }

// DY returns the grid spacing in the y direction.
func (f Field) DY() float64 { return f.dy }

// Len returns the number of values in the field.
func (f Field) Len() int { return len(f.data) }

// Data returns a copy of the field values in row-major order, with y
// the slower-varying index. It returns nil for an absent field.
func (f Field) Data() []float32 {
	if f.data == nil {
		return nil
	}
	o := make([]float32, len(f.data))
	copy(o, f.data)
	return o
}

// At returns the value at row j (y) and column i (x).
func (f Field) At(j, i int) float32 {
	if i < 0 || i >= f.nx || j < 0 || j >= f.ny {
		panic("swegrid: field index out of range")
	}
	return f.data[j*f.nx+i]
}

// Dense returns the field as a float64 array with shape (ny, nx), or
// nil for an absent field.
func (f Field) Dense() *sparse.DenseArray {
	if f.data == nil {
		return nil
	}
	o := sparse.ZerosDense(f.ny, f.nx)
	for i, v := range f.data {
		o.Elements[i] = float64(v)
	}
	return o
}
