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

package swegridutil

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/spatialmodel/swegrid"
)

// Dump writes the values of the named field of g to w, one row of the
// grid per line starting at the first y index, with values separated
// by commas. A comment line describing the field comes first.
func Dump(w io.Writer, g *swegrid.Grid, name string) error {
	f, ok := g.Field(name)
	if !ok {
		return fmt.Errorf("swegridutil: unknown field %q; valid fields are %s, %s, %s, and %s",
			name, swegrid.FieldH, swegrid.FieldEta, swegrid.FieldU, swegrid.FieldV)
	}
	if !f.Present() {
		return fmt.Errorf("swegridutil: field %s is not in %s", name, g.Path())
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s nx=%d ny=%d dx=%g dy=%g\n", f.Name(), f.NX(), f.NY(), f.DX(), f.DY())
	var b []byte
	for j := 0; j < f.NY(); j++ {
		b = b[:0]
		for i := 0; i < f.NX(); i++ {
			if i > 0 {
				b = append(b, ',')
			}
			b = strconv.AppendFloat(b, float64(f.At(j, i)), 'g', -1, 32)
		}
		b = append(b, '\n')
		bw.Write(b)
	}
	return bw.Flush()
}
