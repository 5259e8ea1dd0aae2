// elReaper: a high-performance tool for QTL mapping.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elreaper/blob/master/LICENSE.txt>.

package cmd

import (
	"flag"

	"github.com/BurntSushi/toml"
)

// Config holds the parameters of the map command. They can be given
// on the command line, in a TOML file passed with --config, or both.
// Parameters on the command line take precedence.
type Config struct {
	Geno         string `toml:"geno"`
	Traits       string `toml:"traits"`
	Variance     string `toml:"variance"`
	Control      string `toml:"control"`
	Output       string `toml:"output"`
	Permutations int    `toml:"permutations"`
	Bootstrap    int    `toml:"bootstrap"`
	NrOfThreads  int    `toml:"nr-of-threads"`
	Seed         int64  `toml:"seed"`
	LogPath      string `toml:"log-path"`
	Profile      string `toml:"profile"`
	Timed        bool   `toml:"timed"`
}

// DefaultOutput is the report file used when none is given.
const DefaultOutput = "output.txt"

func (config *Config) register(flags *flag.FlagSet) {
	flags.StringVar(&config.Geno, "geno", "", "genotype file")
	flags.StringVar(&config.Traits, "traits", "", "trait file")
	flags.StringVar(&config.Variance, "variance", "", "trait variance file")
	flags.StringVar(&config.Control, "control", "", "control marker name")
	flags.StringVar(&config.Output, "output", DefaultOutput, "output file")
	flags.IntVar(&config.Permutations, "permutations", 1000, "number of permutations")
	flags.IntVar(&config.Bootstrap, "bootstrap", 0, "number of bootstrap replicates, 0 for none")
	flags.IntVar(&config.NrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.Int64Var(&config.Seed, "seed", 0, "seed for permutations and bootstrap")
	flags.StringVar(&config.LogPath, "log-path", "", "write log files to the specified directory")
	flags.StringVar(&config.Profile, "profile", "", "write a runtime profile to the specified file(s)")
	flags.BoolVar(&config.Timed, "timed", false, "measure the runtime")
}

// isSet reports whether the named flag was given on the command line.
func isSet(flags *flag.FlagSet, name string) (set bool) {
	flags.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// merge reads a TOML configuration file and takes over every parameter
// that it defines and that was not given on the command line. It
// reports whether a seed was fixed by either source.
func (config *Config) merge(flags *flag.FlagSet, filename string) (seedSet bool, err error) {
	var file Config
	md, err := toml.DecodeFile(filename, &file)
	if err != nil {
		return false, err
	}
	take := func(key string, assign func()) {
		if md.IsDefined(key) && !isSet(flags, key) {
			assign()
		}
	}
	take("geno", func() { config.Geno = file.Geno })
	take("traits", func() { config.Traits = file.Traits })
	take("variance", func() { config.Variance = file.Variance })
	take("control", func() { config.Control = file.Control })
	take("output", func() { config.Output = file.Output })
	take("permutations", func() { config.Permutations = file.Permutations })
	take("bootstrap", func() { config.Bootstrap = file.Bootstrap })
	take("nr-of-threads", func() { config.NrOfThreads = file.NrOfThreads })
	take("seed", func() { config.Seed = file.Seed })
	take("log-path", func() { config.LogPath = file.LogPath })
	take("profile", func() { config.Profile = file.Profile })
	take("timed", func() { config.Timed = file.Timed })
	return md.IsDefined("seed") || isSet(flags, "seed"), nil
}
