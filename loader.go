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
	"sync"

	"github.com/sirupsen/logrus"
)

// Loader reads grids from files.
type Loader struct {
	// Format specifies how files are opened. The zero value detects
	// the format of each file.
	Format Format

	// Log receives debugging messages. If it is nil,
	// logrus.StandardLogger() is used.
	Log logrus.FieldLogger
}

// Open loads the grid stored in the NetCDF file at path, detecting the
// file format.
func Open(path string) (*Grid, error) {
	return new(Loader).Open(path)
}

func (l *Loader) log() logrus.FieldLogger {
	if l.Log == nil {
		return logrus.StandardLogger()
	}
	return l.Log
}

// Open loads the grid stored in the file at path. The file is held open
// until the returned Grid is closed. If loading fails, the file is
// closed and no Grid is returned.
func (l *Loader) Open(path string) (*Grid, error) {
	format := l.Format
	if format == "" || format == FormatAuto {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, &OpenError{Path: path, Err: err}
		}
	}
	l.log().WithFields(logrus.Fields{
		"path":   path,
		"format": format,
	}).Debug("swegrid: opening file")

	src, err := OpenSource(path, format)
	if err != nil {
		return nil, err
	}
	return l.load(src, path)
}

// Load loads a grid from src, taking ownership of it: src is closed if
// loading fails, and by Grid.Close otherwise.
func (l *Loader) Load(src Source) (*Grid, error) {
	return l.load(src, "")
}

func (l *Loader) load(src Source, path string) (*Grid, error) {
	g, err := l.read(src, path)
	if err != nil {
		if cerr := src.Close(); cerr != nil {
			return nil, &CloseError{Path: path, Err: cerr, Cause: err}
		}
		return nil, err
	}
	return g, nil
}

func (l *Loader) read(src Source, path string) (*Grid, error) {
	log := l.log().WithField("path", path)

	attrs := make(map[string]Attribute)
	for _, a := range src.Attributes() {
		attrs[a.Name] = a
	}

	geometry, wFrom, hFrom, err := readGeometry(attrs)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"nx":          geometry.NX,
		"ny":          geometry.NY,
		"width":       geometry.Width,
		"height":      geometry.Height,
		"width_from":  wFrom,
		"height_from": hFrom,
	}).Debug("swegrid: read grid geometry")

	vars := make(map[string]Variable)
	for _, v := range src.Variables() {
		vars[v.Name] = v
	}

	o := &Grid{
		path:     path,
		src:      src,
		geometry: geometry,
	}
	for i, spec := range FieldSpecs {
		o.fields[i], err = extractField(src, vars, spec, geometry)
		if err != nil {
			return nil, err
		}
		f := o.fields[i]
		if f.Present() {
			log.WithFields(logrus.Fields{
				"field": spec.Name,
				"nx":    f.NX(),
				"ny":    f.NY(),
				"rank":  vars[spec.Name].Rank(),
			}).Debug("swegrid: read field")
		} else {
			log.WithField("field", spec.Name).Debug("swegrid: field not in file")
		}
	}
	return o, nil
}

// extractField reads the field described by spec from src. A field
// that is not in vars is absent, which is not an error. Time series
// fields yield their last time step.
func extractField(src Source, vars map[string]Variable, spec FieldSpec, g Geometry) (Field, error) {
	v, ok := vars[spec.Name]
	if !ok {
		return Field{}, nil
	}
	if v.Type != Float {
		return Field{}, &FieldTypeError{Field: v.Name, Actual: v.Type, Expected: Float}
	}
	nx, ny := spec.Shape(g)

	var begin, end []int
	switch v.Rank() {
	case 2:
		if err := checkShape(v, 0, nx, ny); err != nil {
			return Field{}, err
		}
		begin, end = []int{0, 0}, []int{ny, nx}
	case 3:
		t := v.Dims[0]
		if t.Name != TimeDim {
			return Field{}, &TimeDimensionError{Field: v.Name, Actual: t.Name}
		}
		if err := checkShape(v, 1, nx, ny); err != nil {
			return Field{}, err
		}
		if t.Size < 1 {
			return Field{}, &FieldReadError{Field: v.Name, Rank: 3,
				Err: fmt.Errorf("time dimension %s has no records", t.Name)}
		}
		last := t.Size - 1
		begin, end = []int{last, 0, 0}, []int{last + 1, ny, nx}
	default:
		return Field{}, &FieldRankError{Field: v.Name, Rank: v.Rank()}
	}

	data := make([]float32, nx*ny)
	if err := src.ReadFloat32(v.Name, begin, end, data); err != nil {
		return Field{}, &FieldReadError{Field: v.Name, Rank: v.Rank(), Err: err}
	}
	return newField(v.Name, data, nx, ny, g), nil
}

// checkShape checks that the y and x dimensions of v, starting at
// dimension first, have the sizes ny and nx.
func checkShape(v Variable, first, nx, ny int) error {
	if s := v.Dims[first].Size; s != ny {
		return &FieldShapeError{Field: v.Name, Rank: v.Rank(), Axis: AxisY, Actual: s, Expected: ny}
	}
	if s := v.Dims[first+1].Size; s != nx {
		return &FieldShapeError{Field: v.Name, Rank: v.Rank(), Axis: AxisX, Actual: s, Expected: nx}
	}
	return nil
}

// Grid is a loaded grid: its geometry and the fields H, eta, U, and V,
// each of which may be absent. The geometry and fields never change
// after loading, so a Grid may be read concurrently.
type Grid struct {
	path     string
	geometry Geometry
	fields   [4]Field // in FieldSpecs order

	src       Source
	closeOnce sync.Once
	closeErr  error
}

// Path returns the path the grid was loaded from.
func (g *Grid) Path() string { return g.path }

// Geometry returns the grid geometry.
func (g *Grid) Geometry() Geometry { return g.geometry }

// NX returns the number of grid points in the x direction.
func (g *Grid) NX() int { return g.geometry.NX }

// NY returns the number of grid points in the y direction.
func (g *Grid) NY() int { return g.geometry.NY }

// Width returns the physical extent in the x direction.
func (g *Grid) Width() float64 { return g.geometry.Width }

// Height returns the physical extent in the y direction.
func (g *Grid) Height() float64 { return g.geometry.Height }

// DX returns the grid spacing in the x direction.
func (g *Grid) DX() float64 { return g.geometry.DX() }

// DY returns the grid spacing in the y direction.
func (g *Grid) DY() float64 { return g.geometry.DY() }

// H returns the bathymetry field.
func (g *Grid) H() Field { return g.fields[0] }

// Eta returns the surface elevation field.
func (g *Grid) Eta() Field { return g.fields[1] }

// U returns the x-velocity field.
func (g *Grid) U() Field { return g.fields[2] }

// V returns the y-velocity field.
func (g *Grid) V() Field { return g.fields[3] }

// Fields returns all four fields in the order of FieldSpecs.
func (g *Grid) Fields() []Field {
	o := make([]Field, len(g.fields))
	copy(o, g.fields[:])
	return o
}

// Field returns the field with the given name and whether name is
// one of the recognized fields.
func (g *Grid) Field(name string) (Field, bool) {
	for i, spec := range FieldSpecs {
		if spec.Name == name {
			return g.fields[i], true
		}
	}
	return Field{}, false
}

// Close flushes and closes the file the grid was loaded from. The grid
// data remain usable afterwards. A failure is returned as *CloseError.
// Calls after the first return the first result.
func (g *Grid) Close() error {
	g.closeOnce.Do(func() {
		if g.src == nil {
			return
		}
		if err := g.src.Close(); err != nil {
			g.closeErr = &CloseError{Path: g.path, Err: err}
		}
		g.src = nil
	})
	return g.closeErr
}
