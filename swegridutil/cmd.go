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

// Package swegridutil contains the swegrid command-line interface.
package swegridutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/swegrid"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to swegrid.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "log-level",
			usage: `
              log-level specifies the minimum severity of log messages:
              one of debug, info, warning, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "backend",
			usage: `
              backend specifies how grid files are read. "cdf" reads
              classic NetCDF files, "nc4" reads NetCDF-4 and classic files,
              and "auto" chooses based on the contents of each file.`,
			defaultVal: string(swegrid.FormatAuto),
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "download.retries",
			usage: `
              download.retries specifies how many times a failed download
              of a grid file from a URL is retried.`,
			defaultVal: 3,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "format",
			usage: `
              format specifies the output format of the summary: text, json,
              or toml.`,
			defaultVal: OutputText,
			flagsets:   []*pflag.FlagSet{inspectCmd.Flags()},
		},
		{
			name: "workers",
			usage: `
              workers specifies the maximum number of files loaded at once.
              The default of 0 uses one worker per processor.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{inspectCmd.Flags()},
		},
		{
			name: "field",
			usage: `
              field specifies the field to print: H, eta, U, or V.`,
			shorthand:  "f",
			defaultVal: swegrid.FieldH,
			flagsets:   []*pflag.FlagSet{dumpCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SWEGRID")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
			case int:
				set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(inspectCmd)
	Root.AddCommand(dumpCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("swegridutil: problem reading configuration file: %v", err)
		}
	}
	return setLogger(os.Stderr, Cfg.GetString("log-level"))
}

// loader returns a grid loader for the configured backend.
func loader() (*swegrid.Loader, error) {
	format, err := swegrid.ParseFormat(Cfg.GetString("backend"))
	if err != nil {
		return nil, err
	}
	return &swegrid.Loader{Format: format, Log: Log}, nil
}

// fetch downloads the files in paths that are URLs and returns their
// local locations. Environment variables in paths are expanded.
// The returned function removes the downloaded files.
func fetch(ctx context.Context, paths []string) ([]string, func(), error) {
	retries, err := cast.ToIntE(Cfg.Get("download.retries"))
	if err != nil {
		return nil, nil, fmt.Errorf("swegridutil: reading 'download.retries': %v", err)
	}
	var dirs []string
	cleanup := func() {
		for _, d := range dirs {
			os.RemoveAll(d)
		}
	}
	o := make([]string, len(paths))
	for i, p := range paths {
		p = os.ExpandEnv(p)
		if o[i], err = maybeDownload(ctx, p, retries, Log); err != nil {
			cleanup()
			return nil, nil, err
		}
		if o[i] != p {
			dirs = append(dirs, filepath.Dir(o[i]))
		}
	}
	return o, cleanup, nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "swegrid",
	Short: "Read shallow-water model grid files.",
	Long: `swegrid reads the initial state of a shallow-water simulation from
NetCDF grid files. Use the subcommands specified below to access the
functionality.

Grid files may be local paths, http(s) URLs, or blob storage URLs
(file://, gs://, or s3://); remote files are downloaded before reading.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'SWEGRID_var' where 'var' is the
name of the variable to be set, in upper case with '.' and '-' replaced by '_'.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
	SilenceUsage:      true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of swegrid.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "swegrid v%s\n", swegrid.Version)
	},
	DisableAutoGenTag: true,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect path...",
	Short: "Summarize grid files",
	Long: `inspect loads each of the given grid files and prints its geometry and
the shape and range of each of the fields H, eta, U, and V. Files are
loaded concurrently.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		l, err := loader()
		if err != nil {
			return err
		}
		paths, cleanup, err := fetch(ctx, args)
		if err != nil {
			return err
		}
		defer cleanup()
		in := &Inspector{Loader: l, Workers: Cfg.GetInt("workers")}
		summaries, err := in.Inspect(ctx, paths...)
		if err != nil {
			return err
		}
		return Render(cmd.OutOrStdout(), Cfg.GetString("format"), summaries)
	},
	DisableAutoGenTag: true,
}

var dumpCmd = &cobra.Command{
	Use:   "dump path",
	Short: "Print the values of a field",
	Long: `dump loads the given grid file and prints the values of one field as
comma-separated text, one line per grid row.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := loader()
		if err != nil {
			return err
		}
		paths, cleanup, err := fetch(context.Background(), args)
		if err != nil {
			return err
		}
		defer cleanup()
		g, err := l.Open(paths[0])
		if err != nil {
			return err
		}
		if err := Dump(cmd.OutOrStdout(), g, Cfg.GetString("field")); err != nil {
			g.Close()
			return err
		}
		return g.Close()
	},
	DisableAutoGenTag: true,
}
