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
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// memSource is an in-memory Source.
type memSource struct {
	attrs []Attribute
	vars  []Variable
	data  map[string][]float32

	readErr  error
	closeErr error
	closed   int
	reads    [][]int
}

// newMemSource returns a source with nx, ny, dx, and dy set.
func newMemSource(nx, ny int64, dx, dy float64) *memSource {
	return &memSource{
		attrs: []Attribute{
			IntAttribute(AttrNX, nx),
			IntAttribute(AttrNY, ny),
			FloatAttribute(AttrDX, dx),
			FloatAttribute(AttrDY, dy),
		},
		data: make(map[string][]float32),
	}
}

// setAttr replaces or adds an attribute.
func (s *memSource) setAttr(a Attribute) {
	for i, old := range s.attrs {
		if old.Name == a.Name {
			s.attrs[i] = a
			return
		}
	}
	s.attrs = append(s.attrs, a)
}

func (s *memSource) deleteAttr(name string) {
	var o []Attribute
	for _, a := range s.attrs {
		if a.Name != name {
			o = append(o, a)
		}
	}
	s.attrs = o
}

// addVar adds a float variable whose values are offset + flat index.
func (s *memSource) addVar(name string, offset float32, dims ...Dimension) {
	s.vars = append(s.vars, Variable{Name: name, Type: Float, Dims: dims})
	n := 1
	for _, d := range dims {
		n *= d.Size
	}
	d := make([]float32, n)
	for i := range d {
		d[i] = offset + float32(i)
	}
	s.data[name] = d
}

func (s *memSource) Attributes() []Attribute { return s.attrs }
func (s *memSource) Variables() []Variable   { return s.vars }

func (s *memSource) ReadFloat32(name string, begin, end []int, buf []float32) error {
	s.reads = append(s.reads, append(append([]int{}, begin...), end...))
	if s.readErr != nil {
		return s.readErr
	}
	var v Variable
	for _, vv := range s.vars {
		if vv.Name == name {
			v = vv
		}
	}
	inner := 1
	for _, d := range v.Dims[1:] {
		inner *= d.Size
	}
	src := s.data[name][begin[0]*inner : end[0]*inner]
	if len(src) != len(buf) {
		return fmt.Errorf("hyperslab has %d values; buffer has %d", len(src), len(buf))
	}
	copy(buf, src)
	return nil
}

func (s *memSource) Close() error {
	s.closed++
	return s.closeErr
}

func yx(ny, nx int) []Dimension {
	return []Dimension{{Name: "y", Size: ny}, {Name: "x", Size: nx}}
}

func tyx(nt, ny, nx int) []Dimension {
	return []Dimension{{Name: TimeDim, Size: nt}, {Name: "y", Size: ny}, {Name: "x", Size: nx}}
}

func quietLoader() *Loader {
	log, _ := logtest.NewNullLogger()
	return &Loader{Log: log}
}

func TestLoadGeometry(t *testing.T) {
	t.Run("spacing", func(t *testing.T) {
		src := newMemSource(3, 3, 1, 1)
		g, err := quietLoader().Load(src)
		if err != nil {
			t.Fatal(err)
		}
		want := Geometry{NX: 3, NY: 3, Width: 2, Height: 2}
		if g.Geometry() != want {
			t.Errorf("geometry: %v != %v", g.Geometry(), want)
		}
		if g.DX() != 1 || g.DY() != 1 {
			t.Errorf("spacing: (%g, %g) != (1, 1)", g.DX(), g.DY())
		}
		for _, f := range g.Fields() {
			if f.Present() {
				t.Errorf("field %s should be absent", f.Name())
			}
		}
	})
	t.Run("width over dx", func(t *testing.T) {
		src := newMemSource(3, 5, 1, 0.5)
		src.setAttr(FloatAttribute(AttrWidth, 10))
		g, err := quietLoader().Load(src)
		if err != nil {
			t.Fatal(err)
		}
		if g.Width() != 10 || g.DX() != 5 {
			t.Errorf("width=%g dx=%g; want 10 and 5", g.Width(), g.DX())
		}
		if g.Height() != 2 || g.DY() != 0.5 {
			t.Errorf("height=%g dy=%g; want 2 and 0.5", g.Height(), g.DY())
		}
	})
	t.Run("integer extent", func(t *testing.T) {
		src := newMemSource(3, 3, 1, 1)
		src.setAttr(IntAttribute(AttrHeight, 8))
		g, err := quietLoader().Load(src)
		if err != nil {
			t.Fatal(err)
		}
		if g.Height() != 8 || g.DY() != 4 {
			t.Errorf("height=%g dy=%g; want 8 and 4", g.Height(), g.DY())
		}
	})
	t.Run("nonpositive width falls back", func(t *testing.T) {
		for _, w := range []float64{0, -3} {
			src := newMemSource(4, 3, 2, 1)
			src.setAttr(FloatAttribute(AttrWidth, w))
			g, err := quietLoader().Load(src)
			if err != nil {
				t.Fatal(err)
			}
			if g.Width() != 6 {
				t.Errorf("width %g: derived width %g != 6", w, g.Width())
			}
		}
	})
	t.Run("float32 spacing", func(t *testing.T) {
		src := newMemSource(11, 2, float64(float32(0.1)), 1)
		g, err := quietLoader().Load(src)
		if err != nil {
			t.Fatal(err)
		}
		want := 10 * float64(float32(0.1))
		if g.Width() != want {
			t.Errorf("width %v != %v", g.Width(), want)
		}
	})
}

func TestLoadAttributeErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*memSource)
		attr   string
	}{
		{name: "nx missing", modify: func(s *memSource) { s.deleteAttr(AttrNX) }, attr: AttrNX},
		{name: "ny missing", modify: func(s *memSource) { s.deleteAttr(AttrNY) }, attr: AttrNY},
		{name: "nx float", modify: func(s *memSource) { s.setAttr(FloatAttribute(AttrNX, 3)) }, attr: AttrNX},
		{name: "nx text", modify: func(s *memSource) { s.setAttr(Attribute{Name: AttrNX}) }, attr: AttrNX},
		{name: "nx too small", modify: func(s *memSource) { s.setAttr(IntAttribute(AttrNX, 1)) }, attr: AttrNX},
		{name: "ny too small", modify: func(s *memSource) { s.setAttr(IntAttribute(AttrNY, 0)) }, attr: AttrNY},
		{name: "ny too large", modify: func(s *memSource) { s.setAttr(IntAttribute(AttrNY, 1<<40)) }, attr: AttrNY},
		{name: "width and dx missing", modify: func(s *memSource) { s.deleteAttr(AttrDX) }, attr: "width/dx"},
		{name: "height and dy missing", modify: func(s *memSource) { s.deleteAttr(AttrDY) }, attr: "height/dy"},
		{
			name: "dx negative",
			modify: func(s *memSource) {
				s.setAttr(FloatAttribute(AttrDX, -1))
			},
			attr: "width/dx",
		},
		{
			name: "width and dx zero",
			modify: func(s *memSource) {
				s.setAttr(FloatAttribute(AttrWidth, 0))
				s.setAttr(FloatAttribute(AttrDX, 0))
			},
			attr: "width/dx",
		},
		{
			name: "height text and dy missing",
			modify: func(s *memSource) {
				s.setAttr(Attribute{Name: AttrHeight})
				s.deleteAttr(AttrDY)
			},
			attr: "height/dy",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			src := newMemSource(3, 3, 1, 1)
			src.addVar(FieldH, 0, yx(4, 4)...)
			test.modify(src)
			g, err := quietLoader().Load(src)
			if g != nil {
				t.Error("grid should be nil")
			}
			var ae *AttributeError
			if !errors.As(err, &ae) {
				t.Fatalf("error %v (%T) is not an AttributeError", err, err)
			}
			if ae.Name != test.attr {
				t.Errorf("attribute %s != %s", ae.Name, test.attr)
			}
			if src.closed != 1 {
				t.Errorf("source closed %d times; want 1", src.closed)
			}
			if len(src.reads) != 0 {
				t.Errorf("no field should be read before the geometry is valid; got %v", src.reads)
			}
		})
	}
}

func TestLoadFields(t *testing.T) {
	src := newMemSource(3, 3, 1, 1)
	src.addVar(FieldH, 0, yx(4, 4)...)
	src.addVar(FieldEta, 100, yx(4, 4)...)
	src.addVar(FieldU, 200, yx(2, 5)...)
	src.addVar(FieldV, 300, yx(5, 2)...)
	g, err := quietLoader().Load(src)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	type shape struct{ nx, ny int }
	tests := []struct {
		f      Field
		name   string
		shape  shape
		offset float32
	}{
		{f: g.H(), name: FieldH, shape: shape{4, 4}, offset: 0},
		{f: g.Eta(), name: FieldEta, shape: shape{4, 4}, offset: 100},
		{f: g.U(), name: FieldU, shape: shape{5, 2}, offset: 200},
		{f: g.V(), name: FieldV, shape: shape{2, 5}, offset: 300},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := test.f
			if !f.Present() || f.Name() != test.name {
				t.Fatalf("field %q present=%v", f.Name(), f.Present())
			}
			if s := (shape{f.NX(), f.NY()}); s != test.shape {
				t.Errorf("shape %+v != %+v", s, test.shape)
			}
			if f.DX() != 1 || f.DY() != 1 {
				t.Errorf("spacing (%g, %g) != (1, 1)", f.DX(), f.DY())
			}
			for j := 0; j < f.NY(); j++ {
				for i := 0; i < f.NX(); i++ {
					want := test.offset + float32(j*f.NX()+i)
					if v := f.At(j, i); v != want {
						t.Errorf("(%d, %d): %g != %g", j, i, v, want)
					}
				}
			}
			byName, ok := g.Field(test.name)
			if !ok || !reflect.DeepEqual(byName, f) {
				t.Errorf("Field(%q) does not match", test.name)
			}
		})
	}
	if src.closed != 0 {
		t.Errorf("source closed %d times before Grid.Close", src.closed)
	}
}

func TestLoadPartialFields(t *testing.T) {
	src := newMemSource(3, 3, 1, 1)
	src.addVar(FieldU, 0, yx(2, 5)...)
	g, err := quietLoader().Load(src)
	if err != nil {
		t.Fatal(err)
	}
	if g.H().Present() || g.Eta().Present() || g.V().Present() {
		t.Error("only U should be present")
	}
	if !g.U().Present() {
		t.Error("U should be present")
	}
	if _, ok := g.Field("salinity"); ok {
		t.Error("unrecognized field name should not be found")
	}
}

func TestLoadTimeSeries(t *testing.T) {
	src := newMemSource(3, 3, 1, 1)
	src.addVar(FieldH, 0, yx(4, 4)...)
	src.addVar(FieldEta, 0, tyx(2, 4, 4)...)
	g, err := quietLoader().Load(src)
	if err != nil {
		t.Fatal(err)
	}
	eta := g.Eta()
	// The second time step starts after the 16 values of the first.
	if v := eta.At(0, 0); v != 16 {
		t.Errorf("eta(0, 0) = %g; want 16", v)
	}
	if v := eta.At(3, 3); v != 31 {
		t.Errorf("eta(3, 3) = %g; want 31", v)
	}
	wantReads := [][]int{{0, 0, 4, 4}, {1, 0, 0, 2, 4, 4}}
	if !reflect.DeepEqual(src.reads, wantReads) {
		t.Errorf("reads: %v", pretty.Diff(src.reads, wantReads))
	}
}

func TestLoadFieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*memSource)
		check func(*testing.T, error)
	}{
		{
			name:  "H x too small",
			setup: func(s *memSource) { s.addVar(FieldH, 0, yx(4, 3)...) },
			check: shapeErr(FieldH, AxisX, 3, 4),
		},
		{
			name:  "eta y too large",
			setup: func(s *memSource) { s.addVar(FieldEta, 0, yx(5, 4)...) },
			check: shapeErr(FieldEta, AxisY, 5, 4),
		},
		{
			name:  "U x too small",
			setup: func(s *memSource) { s.addVar(FieldU, 0, yx(2, 4)...) },
			check: shapeErr(FieldU, AxisX, 4, 5),
		},
		{
			name:  "U y too large",
			setup: func(s *memSource) { s.addVar(FieldU, 0, yx(3, 5)...) },
			check: shapeErr(FieldU, AxisY, 3, 2),
		},
		{
			name:  "V x too large",
			setup: func(s *memSource) { s.addVar(FieldV, 0, yx(5, 3)...) },
			check: shapeErr(FieldV, AxisX, 3, 2),
		},
		{
			name:  "V y too small",
			setup: func(s *memSource) { s.addVar(FieldV, 0, yx(4, 2)...) },
			check: shapeErr(FieldV, AxisY, 4, 5),
		},
		{
			name:  "y checked before x",
			setup: func(s *memSource) { s.addVar(FieldH, 0, yx(3, 3)...) },
			check: shapeErr(FieldH, AxisY, 3, 4),
		},
		{
			name:  "time series shape",
			setup: func(s *memSource) { s.addVar(FieldH, 0, tyx(2, 4, 5)...) },
			check: shapeErr(FieldH, AxisX, 5, 4),
		},
		{
			name: "time dimension name",
			setup: func(s *memSource) {
				s.addVar(FieldEta, 0, Dimension{Name: "time", Size: 2}, Dimension{Name: "y", Size: 4}, Dimension{Name: "x", Size: 4})
			},
			check: func(t *testing.T, err error) {
				var e *TimeDimensionError
				if !errors.As(err, &e) || e.Field != FieldEta || e.Actual != "time" {
					t.Errorf("got %v", err)
				}
			},
		},
		{
			name:  "empty time dimension",
			setup: func(s *memSource) { s.addVar(FieldEta, 0, tyx(0, 4, 4)...) },
			check: func(t *testing.T, err error) {
				var e *FieldReadError
				if !errors.As(err, &e) || e.Field != FieldEta || e.Rank != 3 {
					t.Errorf("got %v", err)
				}
			},
		},
		{
			name:  "rank 1",
			setup: func(s *memSource) { s.addVar(FieldH, 0, Dimension{Name: "x", Size: 16}) },
			check: rankErr(FieldH, 1),
		},
		{
			name: "rank 4",
			setup: func(s *memSource) {
				s.addVar(FieldU, 0, append([]Dimension{{Name: "z", Size: 1}}, tyx(1, 2, 5)...)...)
			},
			check: rankErr(FieldU, 4),
		},
		{
			name: "double",
			setup: func(s *memSource) {
				s.addVar(FieldV, 0, yx(5, 2)...)
				s.vars[len(s.vars)-1].Type = Double
			},
			check: func(t *testing.T, err error) {
				var e *FieldTypeError
				if !errors.As(err, &e) || e.Field != FieldV || e.Actual != Double || e.Expected != Float {
					t.Errorf("got %v", err)
				}
			},
		},
		{
			name: "wrong type before wrong rank",
			setup: func(s *memSource) {
				s.addVar(FieldH, 0, Dimension{Name: "x", Size: 16})
				s.vars[len(s.vars)-1].Type = Int
			},
			check: func(t *testing.T, err error) {
				var e *FieldTypeError
				if !errors.As(err, &e) {
					t.Errorf("got %v", err)
				}
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			src := newMemSource(3, 3, 1, 1)
			test.setup(src)
			g, err := quietLoader().Load(src)
			if g != nil {
				t.Error("grid should be nil")
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			test.check(t, err)
			if src.closed != 1 {
				t.Errorf("source closed %d times; want 1", src.closed)
			}
		})
	}
}

func shapeErr(field string, axis Axis, actual, expected int) func(*testing.T, error) {
	return func(t *testing.T, err error) {
		t.Helper()
		var e *FieldShapeError
		if !errors.As(err, &e) {
			t.Fatalf("error %v (%T) is not a FieldShapeError", err, err)
		}
		if e.Field != field || e.Axis != axis || e.Actual != actual || e.Expected != expected {
			t.Errorf("got %# v", pretty.Formatter(e))
		}
	}
}

func rankErr(field string, rank int) func(*testing.T, error) {
	return func(t *testing.T, err error) {
		t.Helper()
		var e *FieldRankError
		if !errors.As(err, &e) || e.Field != field || e.Rank != rank {
			t.Errorf("got %v", err)
		}
	}
}

func TestLoadAllOrNothing(t *testing.T) {
	src := newMemSource(3, 3, 1, 1)
	src.addVar(FieldH, 0, yx(4, 4)...)
	src.addVar(FieldEta, 0, yx(4, 4)...)
	src.addVar(FieldU, 0, yx(2, 4)...)
	g, err := quietLoader().Load(src)
	if g != nil || err == nil {
		t.Fatalf("grid=%v err=%v", g, err)
	}
	// H and eta were read before the U shape was rejected.
	if len(src.reads) != 2 {
		t.Errorf("reads: %v", src.reads)
	}
	if src.closed != 1 {
		t.Errorf("source closed %d times; want 1", src.closed)
	}
}

func TestLoadReadError(t *testing.T) {
	src := newMemSource(3, 3, 1, 1)
	src.addVar(FieldH, 0, yx(4, 4)...)
	readErr := errors.New("disk on fire")
	src.readErr = readErr
	_, err := quietLoader().Load(src)
	var e *FieldReadError
	if !errors.As(err, &e) || e.Field != FieldH || e.Rank != 2 {
		t.Fatalf("got %v", err)
	}
	if !errors.Is(err, readErr) {
		t.Error("read error should be wrapped")
	}
	want := "swegrid: error in field H (ndims=2): failed to copy values: disk on fire"
	if err.Error() != want {
		t.Errorf("%q != %q", err.Error(), want)
	}
}

func TestLoadCloseErrorAfterFailure(t *testing.T) {
	src := newMemSource(3, 3, 1, 1)
	src.deleteAttr(AttrNX)
	closeErr := errors.New("flush failed")
	src.closeErr = closeErr
	_, err := quietLoader().Load(src)
	var ce *CloseError
	if !errors.As(err, &ce) {
		t.Fatalf("error %v (%T) is not a CloseError", err, err)
	}
	if !errors.Is(err, closeErr) {
		t.Error("close error should be wrapped")
	}
	var ae *AttributeError
	if !errors.As(err, &ae) || ae.Name != AttrNX {
		t.Error("cause should be the attribute error")
	}
}

func TestGridClose(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		src := newMemSource(3, 3, 1, 1)
		g, err := quietLoader().Load(src)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.Close(); err != nil {
			t.Fatal(err)
		}
		if err := g.Close(); err != nil {
			t.Fatal(err)
		}
		if src.closed != 1 {
			t.Errorf("source closed %d times; want 1", src.closed)
		}
	})
	t.Run("error", func(t *testing.T) {
		src := newMemSource(3, 3, 1, 1)
		src.addVar(FieldH, 7, yx(4, 4)...)
		g, err := quietLoader().Load(src)
		if err != nil {
			t.Fatal(err)
		}
		src.closeErr = errors.New("flush failed")
		err = g.Close()
		var ce *CloseError
		if !errors.As(err, &ce) || ce.Cause != nil {
			t.Fatalf("got %v", err)
		}
		if err2 := g.Close(); err2 != err {
			t.Errorf("second close: %v != %v", err2, err)
		}
		if src.closed != 1 {
			t.Errorf("source closed %d times; want 1", src.closed)
		}
		if v := g.H().At(0, 0); v != 7 {
			t.Errorf("grid data should survive a failed close; got %g", v)
		}
	})
}

func TestLoadLogging(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	src := newMemSource(3, 3, 1, 1)
	src.setAttr(FloatAttribute(AttrWidth, 4))
	src.addVar(FieldH, 0, yx(4, 4)...)
	if _, err := (&Loader{Log: log}).Load(src); err != nil {
		t.Fatal(err)
	}
	entries := hook.AllEntries()
	if len(entries) != 5 {
		t.Fatalf("got %d log entries; want 5", len(entries))
	}
	geo := entries[0]
	if geo.Data["width_from"] != extentSource(AttrWidth) || geo.Data["height_from"] != extentSource(AttrDY) {
		t.Errorf("geometry entry: %v", geo.Data)
	}
	if entries[1].Message != "swegrid: read field" || entries[1].Data["field"] != FieldH {
		t.Errorf("H entry: %s %v", entries[1].Message, entries[1].Data)
	}
	for _, e := range entries[2:] {
		if e.Message != "swegrid: field not in file" {
			t.Errorf("unexpected entry %s %v", e.Message, e.Data)
		}
	}
}

func TestFieldAccessors(t *testing.T) {
	src := newMemSource(3, 3, 1, 1)
	src.addVar(FieldU, 0, yx(2, 5)...)
	g, err := quietLoader().Load(src)
	if err != nil {
		t.Fatal(err)
	}
	u := g.U()
	if u.Len() != 10 {
		t.Errorf("len %d != 10", u.Len())
	}
	d := u.Data()
	d[0] = -1
	if u.At(0, 0) != 0 {
		t.Error("Data should return a copy")
	}
	dense := u.Dense()
	if !reflect.DeepEqual(dense.Shape, []int{2, 5}) {
		t.Errorf("dense shape %v", dense.Shape)
	}
	if v := dense.Get(1, 3); v != 8 {
		t.Errorf("dense(1, 3) = %g; want 8", v)
	}
	var absent Field
	if absent.Data() != nil || absent.Dense() != nil || absent.Present() {
		t.Error("zero field should be absent")
	}
	func() {
		defer func() {
			if recover() == nil {
				t.Error("At out of range should panic")
			}
		}()
		u.At(2, 0)
	}()
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{
			err:  &OpenError{Path: "in.nc", Err: errors.New("no such file")},
			want: "swegrid: failed to open 'in.nc' for reading NetCDF: no such file",
		},
		{
			err:  &FieldShapeError{Field: FieldU, Rank: 2, Axis: AxisX, Actual: 4, Expected: 5},
			want: "swegrid: error in field U (ndims=2): nx (4) != 5",
		},
		{
			err:  &FieldTypeError{Field: FieldV, Actual: Double, Expected: Float},
			want: "swegrid: error in field V: type (double) not float",
		},
		{
			err:  &TimeDimensionError{Field: FieldEta, Actual: "time"},
			want: "swegrid: error in field eta (ndims=3): name of time dimension (time) != T",
		},
		{
			err:  &FieldRankError{Field: FieldH, Rank: 4},
			want: "swegrid: error in field H: # of dimensions (4) neither 2 nor 3",
		},
	}
	for _, test := range tests {
		if got := test.err.Error(); got != test.want {
			t.Errorf("%q != %q", got, test.want)
		}
	}
}
