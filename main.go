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

// elReaper is a high-performance tool for mapping quantitative trait
// loci (QTL) in panels of recombinant inbred strains, backcrosses, and
// intercrosses.
//
// Please see https://github.com/exascience/elreaper for a
// documentation of the tool, and below (and/or
// https://godoc.org/github.com/ExaScience/elreaper) for the API
// documentation.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/elreaper/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: map")
	fmt.Fprint(os.Stderr, "\n", cmd.MapHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage+"\n")
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "map":
		err = cmd.Map()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Println("Unknown command:", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
