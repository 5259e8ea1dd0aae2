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
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/exascience/elreaper/geno"
	"github.com/exascience/elreaper/internal"
	"github.com/exascience/elreaper/qtl"
	"github.com/exascience/elreaper/traits"
	"github.com/exascience/elreaper/utils"
)

// MapHelp is the help string for this command.
const MapHelp = "\nmap parameters:\n" +
	"elreaper map --geno genotype-file --traits trait-file\n" +
	"[--variance variance-file]\n" +
	"[--control marker]\n" +
	"[--output output-file]\n" +
	"[--permutations n]\n" +
	"[--bootstrap n]\n" +
	"[--seed n]\n" +
	"[--config toml-file]\n" +
	"[--nr-of-threads n]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// Map implements the elreaper map command.
func Map() error {
	var (
		config     Config
		configFile string
	)

	var flags flag.FlagSet

	config.register(&flags)
	flags.StringVar(&configFile, "config", "", "read parameters from a TOML file")

	parseFlags(&flags, 2, MapHelp)

	seedSet := isSet(&flags, "seed")
	if configFile != "" {
		if !checkExist("--config", configFile) {
			fmt.Fprint(os.Stderr, MapHelp)
			os.Exit(1)
		}
		var err error
		if seedSet, err = config.merge(&flags, configFile); err != nil {
			return fmt.Errorf("%w, while reading configuration file %v", err, configFile)
		}
	}

	runID := setLogOutput(config.LogPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("--geno", config.Geno) {
		sanityChecksFailed = true
	}
	if !checkExist("--traits", config.Traits) {
		sanityChecksFailed = true
	}
	if config.Variance != "" && !checkExist("--variance", config.Variance) {
		sanityChecksFailed = true
	}
	if !checkCreate("--output", config.Output) {
		sanityChecksFailed = true
	}
	if config.Profile != "" && !checkCreate("--profile", config.Profile) {
		sanityChecksFailed = true
	}
	if config.Permutations < 0 {
		sanityChecksFailed = true
		log.Println("Error: Invalid permutations: ", config.Permutations)
	}
	if config.Bootstrap < 0 {
		sanityChecksFailed = true
		log.Println("Error: Invalid bootstrap: ", config.Bootstrap)
	}
	if config.NrOfThreads < 0 {
		sanityChecksFailed = true
		log.Println("Error: Invalid nr-of-threads: ", config.NrOfThreads)
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, MapHelp)
		os.Exit(1)
	}

	if !seedSet {
		config.Seed = time.Now().UnixNano()
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " map --geno ", config.Geno, " --traits ", config.Traits)
	if config.Variance != "" {
		fmt.Fprint(&command, " --variance ", config.Variance)
	}
	if config.Control != "" {
		fmt.Fprint(&command, " --control ", config.Control)
	}
	fmt.Fprint(&command, " --output ", config.Output)
	fmt.Fprint(&command, " --permutations ", config.Permutations)
	if config.Bootstrap > 0 {
		fmt.Fprint(&command, " --bootstrap ", config.Bootstrap)
	}
	fmt.Fprint(&command, " --seed ", config.Seed)
	if config.NrOfThreads > 0 {
		runtime.GOMAXPROCS(config.NrOfThreads)
		fmt.Fprint(&command, " --nr-of-threads ", config.NrOfThreads)
	}
	if config.Timed {
		fmt.Fprint(&command, " --timed")
	}
	if config.Profile != "" {
		fmt.Fprint(&command, " --profile ", config.Profile)
	}
	if config.LogPath != "" {
		fmt.Fprint(&command, " --log-path ", config.LogPath)
	}

	// executing command

	log.Printf("Executing command (run id %v):\n %v\n", runID, command.String())

	return runMap(&config)
}

// loadTraits reads the trait file and the optional variance file, and
// maps the trait strains onto the dataset.
func loadTraits(config *Config, dataset *geno.Dataset) (ts, vs *traits.Traits, strainIndices []int, err error) {
	if ts, err = traits.ReadFile(config.Traits); err != nil {
		return nil, nil, nil, err
	}
	if strainIndices, err = dataset.StrainIndices(ts.Strains); err != nil {
		return nil, nil, nil, fmt.Errorf("%w, while matching the strains of %v against %v", err, config.Traits, config.Geno)
	}
	if config.Variance == "" {
		return ts, nil, strainIndices, nil
	}
	if vs, err = traits.ReadFile(config.Variance); err != nil {
		return nil, nil, nil, err
	}
	if strings.Join(vs.Strains, "\t") != strings.Join(ts.Strains, "\t") {
		return nil, nil, nil, fmt.Errorf("strains of variance file %v differ from strains of trait file %v", config.Variance, config.Traits)
	}
	return ts, vs, strainIndices, nil
}

func logImputedRegions(dataset *geno.Dataset) {
	for _, summary := range dataset.ImputedRegions() {
		if summary.Entries == 0 {
			continue
		}
		log.Printf("Chromosome %v: estimated %v genotypes in %v regions.\n",
			utils.SymbolString(summary.Chromosome), summary.Entries, len(summary.Regions))
	}
}

// runMap maps all traits of the configuration and writes the report.
func runMap(config *Config) (err error) {
	var dataset *geno.Dataset
	if err = timedRun(config.Timed, config.Profile, "Reading genotype file.", 1, func() (err error) {
		dataset, err = geno.ReadGenoFile(config.Geno)
		return err
	}); err != nil {
		return err
	}
	log.Printf("Read dataset %v (%v) with %v strains and %v loci.\n", dataset.Name, dataset.Type, len(dataset.Strains), dataset.NLoci())
	logImputedRegions(dataset)

	ts, vs, strainIndices, err := loadTraits(config, dataset)
	if err != nil {
		return err
	}
	log.Printf("Read %v traits.\n", len(ts.Traits))

	fullOutput, err := internal.FullPathname(config.Output)
	if err != nil {
		return err
	}
	output, err := os.Create(fullOutput)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := output.Close(); err == nil {
			err = nerr
		}
	}()
	report := newReportWriter(output, dataset, config.Bootstrap > 0)
	if err = report.writeHeader(); err != nil {
		return err
	}

	opts := qtl.Options{
		Permutations: config.Permutations,
		Bootstraps:   config.Bootstrap,
		Workers:      config.NrOfThreads,
		Seed:         config.Seed,
	}

	if err = timedRun(config.Timed, config.Profile, "Mapping traits.", 2, func() error {
		for i := range ts.Traits {
			trait := &ts.Traits[i]
			req := qtl.Request{Control: config.Control}
			if vs == nil {
				req.Strains, req.Traits = trait.Observed(strainIndices)
			} else {
				variances := vs.Find(trait.Name)
				if variances == nil {
					return fmt.Errorf("no variances for trait %v in %v", trait.Name, config.Variance)
				}
				req.Strains, req.Traits, req.Variances = trait.ObservedWeighted(strainIndices, variances)
			}
			if len(req.Traits) == 0 {
				log.Printf("Warning: Trait %v has no measurements and is skipped.\n", trait.Name)
				continue
			}
			qtls, err := qtl.Scan(dataset, req)
			if err != nil {
				return fmt.Errorf("%w, while mapping trait %v", err, trait.Name)
			}
			permutations, err := qtl.Permutation(dataset, req.Traits, req.Strains, opts)
			if err != nil {
				return fmt.Errorf("%w, while permuting trait %v", err, trait.Name)
			}
			suggestive, significant := qtl.Thresholds(permutations)
			log.Printf("Trait %v: %v strains, suggestive LRS %.3f, significant LRS %.3f.\n",
				trait.Name, len(req.Traits), suggestive, significant)
			var bootstrap []int
			if config.Bootstrap > 0 {
				if bootstrap, err = qtl.Bootstrap(dataset, req, opts); err != nil {
					return fmt.Errorf("%w, while bootstrapping trait %v", err, trait.Name)
				}
			}
			if err := report.writeTrait(trait.Name, qtls, bootstrap, permutations); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}
	return report.flush()
}
