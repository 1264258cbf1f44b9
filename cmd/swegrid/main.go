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

// Command swegrid is a command-line interface for reading shallow-water
// model grid files.
package main

import (
	"os"

	"github.com/spatialmodel/swegrid/swegridutil"
)

func main() {
	if err := swegridutil.Root.Execute(); err != nil {
		os.Exit(1)
	}
}
