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

package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"medsurvive/app"
	"medsurvive/server"
	"medsurvive/survival"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

/*
Medsurvive is a tool for interactive patient survival and risk analysis.

Usage:
	medsurvive datafile [flags]

Example:
	medsurvive medsurvive_synthetic_data.csv --serve :8080
	medsurvive medsurvive_synthetic_data.csv --out ./results/ --minAge 30 --maxAge 70 --groupBy sex --attribution

The flags are:

--serve addr
	Serve the dashboard API on the given listen address instead of running a one-shot analysis. The
	presentation layer (charts, widgets, downloads) is a separate front end that consumes this API.
	If the flag is absent, the MEDSURVIVE_ADDR environment variable (or a .env file) is consulted.
--out path
	The directory where the one-shot analysis writes its output files: the filtered subset
	(filtered_data.csv), the fitted coefficient table (cox_summary.csv), and the survival curve plot
	(survival.png).
--groupBy sex | treatment_type | diagnosis_code
	Group the survival curves by the given categorical field. Without this flag a single curve over
	all filtered patients is estimated.
--minAge nr / --maxAge nr
	The inclusive age range of patients to include. Defaults to the full range of the loaded table.
--sex list / --diagnosis list / --treatment list
	Comma-separated accepted values for the categorical filters, e.g. --diagnosis I10,E11. An absent
	flag accepts every value in the table.
--attribution
	Also compute per-patient covariate attribution scores from the fitted risk model and write them
	to attribution.csv. Skipped with a warning when the model cannot provide them.
*/

const (
	programVersion = 0.1
	programName    = "medsurvive"
)

func programMessage() string {
	return fmt.Sprint(programName, " version ", programVersion, " compiled with ", runtime.Version())
}

const medsurviveHelp = "\nmedsurvive parameters:\n" +
	"medsurvive datafile\n" +
	"[--serve addr]\n" +
	"[--out path]\n" +
	"[--groupBy field]\n" +
	"[--minAge nr]\n" +
	"[--maxAge nr]\n" +
	"[--sex list]\n" +
	"[--diagnosis list]\n" +
	"[--treatment list]\n" +
	"[--attribution]\n"

// parseFlags parses the optional flags that follow the required
// arguments, printing the usage text on any parse problem or leftover
// parameter.
func parseFlags(flags *flag.FlagSet, requiredArgs int, usage string) {
	if len(os.Args) < requiredArgs {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	flags.SetOutput(io.Discard)
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := flags.Parse(os.Args[requiredArgs:]); err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
		}
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	if flags.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Cannot parse remaining parameters:", flags.Args())
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// requiredFileArg returns a required file name argument. A help flag in
// its place prints the usage text instead.
func requiredFileArg(arg, usage string) string {
	switch arg {
	case "-h", "--h", "-help", "--help":
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	return arg
}

// buildCriteria turns the command line filter flags into filter criteria.
// Absent flags keep the table-wide defaults.
func buildCriteria(table *survival.PatientTable, minAge, maxAge int, sexes, diagnoses, treatments string) survival.FilterCriteria {
	criteria := survival.DefaultCriteria(table)
	if minAge >= 0 {
		criteria.AgeMin = minAge
	}
	if maxAge >= 0 {
		criteria.AgeMax = maxAge
	}
	if sexes != "" {
		criteria.Sexes = survival.NewSet(strings.Split(sexes, ",")...)
	}
	if diagnoses != "" {
		criteria.DiagnosisCodes = survival.NewSet(strings.Split(diagnoses, ",")...)
	}
	if treatments != "" {
		criteria.TreatmentTypes = survival.NewSet(strings.Split(treatments, ",")...)
	}
	return criteria
}

func main() {
	var (
		// required parameters
		dataFile string //The file with the patient records.
		// optional flags
		serve       string
		out         string
		groupBy     string
		minAge      int
		maxAge      int
		sexes       string
		diagnoses   string
		treatments  string
		attribution bool
	)
	flags := flag.NewFlagSet(programName, flag.ContinueOnError)
	flags.StringVar(&serve, "serve", "", "Serve the dashboard API on this address instead of running "+
		"a one-shot analysis.")
	flags.StringVar(&out, "out", ".", "The directory where the one-shot analysis writes its output "+
		"files.")
	flags.StringVar(&groupBy, "groupBy", "", "The categorical field to group the survival curves by.")
	flags.IntVar(&minAge, "minAge", -1, "The minimum patient age to include, inclusive.")
	flags.IntVar(&maxAge, "maxAge", -1, "The maximum patient age to include, inclusive.")
	flags.StringVar(&sexes, "sex", "", "A comma-separated list of accepted sexes.")
	flags.StringVar(&diagnoses, "diagnosis", "", "A comma-separated list of accepted diagnosis codes.")
	flags.StringVar(&treatments, "treatment", "", "A comma-separated list of accepted treatment types.")
	flags.BoolVar(&attribution, "attribution", false, "Also compute covariate attribution scores "+
		"from the fitted risk model.")
	// parse optional arguments
	parseFlags(flags, 2, medsurviveHelp)
	// parse required arguments
	dataFile = requiredFileArg(os.Args[1], medsurviveHelp)

	_ = godotenv.Load()
	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stdout })).
		With().Timestamp().Logger()
	log.Info().Msg(programMessage())

	//1. Load the patient table; this is fatal when it fails, there is nothing to analyze without it.
	table, err := app.ParsePatientData(dataFile, log)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load patient data")
	}
	session := survival.NewSession(table, log)

	if serve == "" {
		serve = os.Getenv("MEDSURVIVE_ADDR")
	}
	if serve != "" {
		srv := server.New(session, log)
		log.Info().Str("addr", serve).Msg("serving dashboard API")
		if err := http.ListenAndServe(serve, srv.Router()); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
		return
	}

	// one-shot analysis
	outputPath, _ := filepath.Abs(out)
	if err := os.MkdirAll(outputPath, 0700); err != nil {
		log.Fatal().Err(err).Msg("cannot create output directory")
	}

	//2. Run the filter, survival, and risk stages.
	criteria := buildCriteria(table, minAge, maxAge, sexes, diagnoses, treatments)
	result := session.Run(criteria, groupBy)
	log.Info().Int("subset", len(result.Subset)).Int("curves", len(result.Curves)).
		Msg("pipeline finished")

	//3. Write the output artifacts.
	filteredFile := filepath.Join(outputPath, "filtered_data.csv")
	if err := app.ExportFile(filteredFile, func(w io.Writer) error {
		return app.WriteSubsetCSV(w, result.Subset)
	}); err != nil {
		log.Fatal().Err(err).Msg("cannot write filtered subset")
	}
	if len(result.Curves) > 0 {
		plotFile := filepath.Join(outputPath, "survival.png")
		if err := app.RenderSurvivalPlot(result.Curves, "Kaplan-Meier Curve", plotFile); err != nil {
			log.Fatal().Err(err).Msg("cannot render survival plot")
		}
	}
	if result.Risk != nil {
		coxFile := filepath.Join(outputPath, "cox_summary.csv")
		if err := app.ExportFile(coxFile, func(w io.Writer) error {
			return app.WriteCoefficientsCSV(w, result.Risk)
		}); err != nil {
			log.Fatal().Err(err).Msg("cannot write coefficient table")
		}
		//4. On-demand attribution, reported but never fatal.
		if attribution {
			if scores, err := session.Attribution(result); err == nil {
				attrFile := filepath.Join(outputPath, "attribution.csv")
				if err := app.ExportFile(attrFile, func(w io.Writer) error {
					return app.WriteAttributionCSV(w, result.Risk.Names, result.Subset, scores)
				}); err != nil {
					log.Fatal().Err(err).Msg("cannot write attribution scores")
				}
			}
		}
	}
}
