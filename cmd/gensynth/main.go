// MedSurvive: Patient Survival & Risk Analysis Library
// Copyright (c) 2022 imec vzw.

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
// <https://github.com/ExaScience/medsurvive/blob/master/LICENSE.txt>.

// Gensynth generates a synthetic patient cohort in the medsurvive input
// schema. Diagnosis codes and treatment types are drawn from the static
// vocabulary, so generated files exercise the treatment lookup tables.
//
// Usage:
//	gensynth [--n rows] [--out file]
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"medsurvive/app"

	"github.com/exascience/pargo/parallel"
	"github.com/valyala/fastrand"
)

func main() {
	var (
		n   int
		out string
	)
	flag.IntVar(&n, "n", 1000, "the number of patient rows to generate")
	flag.StringVar(&out, "out", "medsurvive_synthetic_data.csv", "the output file")
	flag.Parse()

	diagnoses := app.DiagnosisCodes()
	treatments := app.TreatmentTypes()
	sexes := []string{"M", "F"}

	rows := make([]string, n)
	parallel.Range(0, n, 0, func(low, high int) {
		for i := low; i < high; i++ {
			age := 18 + fastrand.Uint32n(73)
			sex := sexes[fastrand.Uint32n(uint32(len(sexes)))]
			diagnosis := diagnoses[fastrand.Uint32n(uint32(len(diagnoses)))]
			treatment := treatments[fastrand.Uint32n(uint32(len(treatments)))]
			// older patients skew towards shorter durations and more events
			duration := 30 + fastrand.Uint32n(3700-20*age/2)
			event := 0
			if fastrand.Uint32n(100) < 35+age/2 {
				event = 1
			}
			rows[i] = fmt.Sprintf("P%06d,%d,%s,%s,%s,%d,%d",
				i+1, age, sex, diagnosis, treatment, duration, event)
		}
	})

	fid, err := os.Create(out)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := fid.Close(); err != nil {
			panic(err)
		}
	}()
	w := bufio.NewWriter(fid)
	fmt.Fprintln(w, strings.Join(app.PatientColumns, ","))
	for _, row := range rows {
		fmt.Fprintln(w, row)
	}
	if err := w.Flush(); err != nil {
		panic(err)
	}
	fmt.Println("Generated ", n, " synthetic patients in ", out)
}
