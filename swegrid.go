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

// Package swegrid loads the initial state of a shallow-water simulation
// from a NetCDF file.
//
// The grid size is given by the global integer attributes nx and ny,
// which must both be at least 2. The physical extent is given by the
// float attributes width and height, or, if either of those is missing
// or not positive, by the grid spacings dx and dy, in which case
// width = (nx-1)*dx and height = (ny-1)*dy.
//
// Up to four float variables are read, each of which is optional:
//
//	H    bathymetry          (ny+1, nx+1)
//	eta  surface elevation   (ny+1, nx+1)
//	U    x-velocity          (ny-1, nx+2)
//	V    y-velocity          (ny+2, nx-1)
//
// A variable may have a leading time dimension named T, in which case
// only the last time step is read.
package swegrid

// Version gives the version number.
const Version = "1.0.0"
