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
	"bytes"
	"fmt"
	"io"
	"os"
)

// Format selects how a file is read.
type Format string

// These are the supported formats.
const (
	// FormatAuto detects the format from the first bytes of the file.
	FormatAuto Format = "auto"
	// FormatCDF is the classic NetCDF format (CDF-1 and CDF-2).
	FormatCDF Format = "cdf"
	// FormatNC4 is NetCDF-4 (HDF5); classic files can also be read
	// this way.
	FormatNC4 Format = "nc4"
)

// ParseFormat returns the format named s. The empty string is FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatCDF, FormatNC4:
		return f, nil
	default:
		return "", fmt.Errorf("swegrid: invalid format %q; valid formats are %s, %s, and %s",
			s, FormatAuto, FormatCDF, FormatNC4)
	}
}

var (
	magicCDF1 = []byte("CDF\x01")
	magicCDF2 = []byte("CDF\x02")
	magicCDF5 = []byte("CDF\x05")
	magicHDF5 = []byte("\x89HDF\r\n\x1a\n")
)

// DetectFormat returns the format of the file at path.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return detectFormat(f)
}

func detectFormat(r io.Reader) (Format, error) {
	b := make([]byte, len(magicHDF5))
	n, err := io.ReadFull(r, b)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("reading file signature: %v", err)
	}
	b = b[:n]
	switch {
	case bytes.HasPrefix(b, magicCDF1), bytes.HasPrefix(b, magicCDF2):
		return FormatCDF, nil
	case bytes.HasPrefix(b, magicCDF5), bytes.HasPrefix(b, magicHDF5):
		return FormatNC4, nil
	default:
		return "", fmt.Errorf("unrecognized file signature %q", b)
	}
}

// OpenSource opens the file at path as a Source of the given format.
// Failures are returned as *OpenError.
func OpenSource(path string, format Format) (Source, error) {
	if format == "" || format == FormatAuto {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, &OpenError{Path: path, Err: err}
		}
	}
	var (
		src Source
		err error
	)
	switch format {
	case FormatCDF:
		src, err = OpenCDF(path)
	case FormatNC4:
		src, err = OpenNC4(path)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	return src, nil
}
