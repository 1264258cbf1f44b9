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
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
)

// writeTestGrid writes a grid file with nx=3, ny=3, dx=1, and dy=2,
// where H holds 0 through 15 and U holds 100 through 109. eta and V
// are absent.
func writeTestGrid(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "grid.nc")
	h := cdf.NewHeader([]string{"y1", "x1", "yU", "xU"}, []int{4, 4, 2, 5})
	h.AddAttribute("", "nx", []int32{3})
	h.AddAttribute("", "ny", []int32{3})
	h.AddAttribute("", "dx", []float32{1})
	h.AddAttribute("", "dy", []float32{2})
	h.AddVariable("H", []string{"y1", "x1"}, []float32{0})
	h.AddVariable("U", []string{"yU", "xU"}, []float32{0})
	h.Define()
	ff, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatal(err)
	}
	for name, offset := range map[string]float32{"H": 0, "U": 100} {
		end := f.Header.Lengths(name)
		data := make([]float32, end[0]*end[1])
		for i := range data {
			data[i] = offset + float32(i)
		}
		if _, err := f.Writer(name, []int{0, 0}, end).Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := ff.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}
