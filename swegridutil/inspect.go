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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"sync"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/requestcache"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/swegrid"
	"github.com/spatialmodel/swegrid/internal/hash"
	"gonum.org/v1/gonum/floats"
)

// FieldSummary holds statistics of one field. Statistics only include
// finite values; NaN and infinite values are counted in NonFinite.
type FieldSummary struct {
	Name      string  `json:"name" toml:"name"`
	Present   bool    `json:"present" toml:"present"`
	NX        int     `json:"nx,omitempty" toml:"nx,omitempty"`
	NY        int     `json:"ny,omitempty" toml:"ny,omitempty"`
	Min       float64 `json:"min,omitempty" toml:"min,omitempty"`
	Max       float64 `json:"max,omitempty" toml:"max,omitempty"`
	Mean      float64 `json:"mean,omitempty" toml:"mean,omitempty"`
	NonFinite int     `json:"nonfinite,omitempty" toml:"nonfinite,omitempty"`
}

// Summary describes a grid file.
type Summary struct {
	Path   string  `json:"path" toml:"path"`
	Format string  `json:"format" toml:"format"`
	NX     int     `json:"nx" toml:"nx"`
	NY     int     `json:"ny" toml:"ny"`
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
	DX     float64 `json:"dx" toml:"dx"`
	DY     float64 `json:"dy" toml:"dy"`

	// Bounds is the domain rectangle as [minX, minY, maxX, maxY].
	Bounds [4]float64 `json:"bounds" toml:"bounds"`

	Fields []FieldSummary `json:"fields" toml:"fields"`
}

// Summarize summarizes a loaded grid.
func Summarize(g *swegrid.Grid, format swegrid.Format) *Summary {
	b := g.Geometry().Bounds()
	s := &Summary{
		Path:   g.Path(),
		Format: string(format),
		NX:     g.NX(),
		NY:     g.NY(),
		Width:  g.Width(),
		Height: g.Height(),
		DX:     g.DX(),
		DY:     g.DY(),
		Bounds: [4]float64{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y},
	}
	for i, f := range g.Fields() {
		fs := FieldSummary{Name: swegrid.FieldSpecs[i].Name, Present: f.Present()}
		if f.Present() {
			fs.NX, fs.NY = f.NX(), f.NY()
			vals := f.Dense().Elements
			finite := vals[:0:0]
			for _, v := range vals {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					fs.NonFinite++
					continue
				}
				finite = append(finite, v)
			}
			if len(finite) > 0 {
				fs.Min = floats.Min(finite)
				fs.Max = floats.Max(finite)
				fs.Mean = floats.Sum(finite) / float64(len(finite))
			}
		}
		s.Fields = append(s.Fields, fs)
	}
	return s
}

// Inspector loads and summarizes grid files. Files are loaded
// concurrently, and summaries of files that have not changed since
// they were last inspected are reused. An Inspector is safe for
// concurrent use.
type Inspector struct {
	// Loader loads the files.
	Loader *swegrid.Loader

	// Workers is the maximum number of files loaded at once.
	// If it is zero, GOMAXPROCS is used.
	Workers int

	// CacheSize is the number of summaries to keep in memory.
	// If it is zero, DefaultCacheSize is used.
	CacheSize int

	cacheInit sync.Once
	cache     *requestcache.Cache
}

// DefaultCacheSize is the default number of summaries an Inspector keeps.
const DefaultCacheSize = 100

// inspectRequest identifies one version of a file.
type inspectRequest struct {
	Path    string
	Format  string
	Size    int64
	ModTime int64
}

// inspectResult is the outcome of one request. Errors are cached
// along with summaries.
type inspectResult struct {
	summary *Summary
	err     error
}

// Inspect returns a summary of each of the files in paths, in the same
// order. It fails if any file cannot be loaded.
func (in *Inspector) Inspect(ctx context.Context, paths ...string) ([]*Summary, error) {
	in.cacheInit.Do(func() {
		workers := in.Workers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(-1)
		}
		size := in.CacheSize
		if size <= 0 {
			size = DefaultCacheSize
		}
		in.cache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			s, err := in.summarize(request.(inspectRequest))
			return &inspectResult{summary: s, err: err}, nil
		}, workers, requestcache.Deduplicate(), requestcache.Memory(size))
	})

	keys := make([]string, len(paths))
	requests := make(map[string]inspectRequest)
	for i, path := range paths {
		r, err := in.request(path)
		if err != nil {
			return nil, err
		}
		keys[i] = hash.Key(r)
		requests[keys[i]] = r
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]*inspectResult, len(requests))
	)
	for key, r := range requests {
		wg.Add(1)
		go func(key string, r inspectRequest) {
			defer wg.Done()
			result, err := in.cache.NewRequest(ctx, r, key).Result()
			ir := &inspectResult{err: err}
			if err == nil {
				ir = result.(*inspectResult)
			}
			mu.Lock()
			results[key] = ir
			mu.Unlock()
		}(key, r)
	}
	wg.Wait()

	o := make([]*Summary, len(paths))
	for i, key := range keys {
		r := results[key]
		if r.err != nil {
			return nil, r.err
		}
		o[i] = r.summary
	}
	return o, nil
}

func (in *Inspector) loader() swegrid.Loader {
	if in.Loader == nil {
		return swegrid.Loader{}
	}
	return *in.Loader
}

func (in *Inspector) request(path string) (inspectRequest, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return inspectRequest{}, &swegrid.OpenError{Path: path, Err: err}
	}
	format := in.loader().Format
	if format == "" || format == swegrid.FormatAuto {
		if format, err = swegrid.DetectFormat(path); err != nil {
			return inspectRequest{}, &swegrid.OpenError{Path: path, Err: err}
		}
	}
	return inspectRequest{
		Path:    path,
		Format:  string(format),
		Size:    fi.Size(),
		ModTime: fi.ModTime().UnixNano(),
	}, nil
}

func (in *Inspector) summarize(r inspectRequest) (*Summary, error) {
	l := in.loader()
	l.Format = swegrid.Format(r.Format)
	g, err := l.Open(r.Path)
	if err != nil {
		return nil, err
	}
	return summarizeClose(g, l.Format, l.Log), nil
}

// summarizeClose summarizes g and then closes it. A failure to close
// is logged; the summary is returned regardless.
func summarizeClose(g *swegrid.Grid, format swegrid.Format, log logrus.FieldLogger) *Summary {
	s := Summarize(g, format)
	if err := g.Close(); err != nil {
		if log == nil {
			log = logrus.StandardLogger()
		}
		log.WithField("path", g.Path()).Warnf("swegridutil: %v", err)
	}
	return s
}

// Output formats for Render.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputTOML = "toml"
)

// Render writes summaries to w in the given output format.
func Render(w io.Writer, format string, summaries []*Summary) error {
	switch format {
	case OutputText:
		return renderText(w, summaries)
	case OutputJSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(summaries)
	case OutputTOML:
		return toml.NewEncoder(w).Encode(struct {
			Grid []*Summary `toml:"grid"`
		}{Grid: summaries})
	default:
		return fmt.Errorf("swegridutil: invalid output format %q; valid formats are %s, %s, and %s",
			format, OutputText, OutputJSON, OutputTOML)
	}
}

func renderText(w io.Writer, summaries []*Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s (%s)\n", s.Path, s.Format)
		fmt.Fprintf(tw, "  nx=%d ny=%d width=%g height=%g dx=%g dy=%g\n",
			s.NX, s.NY, s.Width, s.Height, s.DX, s.DY)
		fmt.Fprintf(tw, "  field\tnx\tny\tmin\tmax\tmean\n")
		for _, f := range s.Fields {
			if !f.Present {
				fmt.Fprintf(tw, "  %s\t-\t-\t-\t-\t-\n", f.Name)
				continue
			}
			fmt.Fprintf(tw, "  %s\t%d\t%d\t%g\t%g\t%g\n", f.Name, f.NX, f.NY, f.Min, f.Max, f.Mean)
		}
	}
	return tw.Flush()
}
