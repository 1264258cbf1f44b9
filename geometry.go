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
	"math"

	"github.com/ctessum/geom"
)

// Names of the global attributes that describe the grid.
const (
	AttrNX     = "nx"
	AttrNY     = "ny"
	AttrWidth  = "width"
	AttrHeight = "height"
	AttrDX     = "dx"
	AttrDY     = "dy"
)

// Geometry is the resolution and physical extent of a simulation
// domain. Cell spacing is derived from the other values rather than
// stored.
type Geometry struct {
	NX, NY        int     // number of grid points in the x and y directions
	Width, Height float64 // physical extent of the domain
}

// DX returns the grid spacing in the x direction. It panics if g has
// not been validated.
func (g Geometry) DX() float64 {
	if g.NX < 2 {
		panic(fmt.Errorf("swegrid: DX of unvalidated geometry with nx=%d", g.NX))
	}
	return g.Width / float64(g.NX-1)
}

// DY returns the grid spacing in the y direction. It panics if g has
// not been validated.
func (g Geometry) DY() float64 {
	if g.NY < 2 {
		panic(fmt.Errorf("swegrid: DY of unvalidated geometry with ny=%d", g.NY))
	}
	return g.Height / float64(g.NY-1)
}

// Bounds returns the domain rectangle, with the origin at the
// lower-left corner.
func (g Geometry) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: 0, Y: 0},
		Max: geom.Point{X: g.Width, Y: g.Height},
	}
}

func (g Geometry) String() string {
	return fmt.Sprintf("nx=%d ny=%d width=%g height=%g", g.NX, g.NY, g.Width, g.Height)
}

// extentSource records which attribute an extent was derived from.
type extentSource string

// readGeometry validates the grid attributes in attrs and derives the
// domain extent, returning which attributes the width and height came
// from.
func readGeometry(attrs map[string]Attribute) (g Geometry, wFrom, hFrom extentSource, err error) {
	if g.NX, err = gridSize(attrs, AttrNX); err != nil {
		return
	}
	if g.NY, err = gridSize(attrs, AttrNY); err != nil {
		return
	}
	if g.Width, wFrom, err = extent(attrs, AttrWidth, AttrDX, g.NX); err != nil {
		return
	}
	g.Height, hFrom, err = extent(attrs, AttrHeight, AttrDY, g.NY)
	return
}

// gridSize returns the value of the integer attribute name, which must
// be at least 2.
func gridSize(attrs map[string]Attribute, name string) (int, error) {
	a, ok := attrs[name]
	if !ok {
		return 0, &AttributeError{Name: name, Reason: "missing; want a NetCDF integer attribute >= 2"}
	}
	v, ok := a.Int()
	if !ok {
		return 0, &AttributeError{Name: name,
			Reason: fmt.Sprintf("%s attribute is not a valid NetCDF integer attribute >= 2", a.Kind)}
	}
	if v < 2 {
		return 0, &AttributeError{Name: name, Reason: fmt.Sprintf("value %d < 2", v)}
	}
	return v, nil
}

// extent returns the physical extent along one axis, either directly
// from the attribute direct or, if that is not usable, as
// (n-1) * spacing.
func extent(attrs map[string]Attribute, direct, spacing string, n int) (float64, extentSource, error) {
	if v, ok := positiveFloat(attrs, direct); ok {
		return v, extentSource(direct), nil
	}
	if v, ok := positiveFloat(attrs, spacing); ok {
		return float64(n-1) * v, extentSource(spacing), nil
	}
	return 0, "", &AttributeError{
		Name:   direct + "/" + spacing,
		Reason: fmt.Sprintf("neither %s nor %s readable as a valid NetCDF float attribute > 0", direct, spacing),
	}
}

func positiveFloat(attrs map[string]Attribute, name string) (float64, bool) {
	a, ok := attrs[name]
	if !ok {
		return 0, false
	}
	v, ok := a.Float()
	if !ok || !(v > 0) || math.IsInf(v, 1) {
		return 0, false
	}
	return v, true
}
