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

package app

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"medsurvive/survival"

	"github.com/rs/zerolog"
)

// PatientColumns lists the required columns of the patient input table,
// in source order. Exports mirror exactly this schema.
var PatientColumns = []string{
	survival.PatientIDCol,
	survival.AgeCol,
	survival.SexCol,
	survival.DiagnosisCol,
	survival.TreatmentCol,
	survival.DurationCol,
	survival.EventCol,
}

// ParsePatientData reads a delimited patient table into memory. The first
// row must be a header containing all required columns; a missing column
// or an unreadable source is a LoadError. Rows with a missing, blank, or
// unparsable field are dropped silently and counted, so that every loaded
// record is complete and downstream stages stay total.
func ParsePatientData(file string, log zerolog.Logger) (*survival.PatientTable, error) {
	csvFile, err := os.Open(file)
	if err != nil {
		return nil, &survival.LoadError{Source: file, Err: err}
	}
	defer func() {
		if err := csvFile.Close(); err != nil {
			log.Warn().Err(err).Str("file", file).Msg("closing patient data file")
		}
	}()

	reader := csv.NewReader(csvFile)
	reader.FieldsPerRecord = -1 // short rows are dropped, not fatal
	header, err := reader.Read()
	if err != nil {
		return nil, &survival.LoadError{Source: file, Err: fmt.Errorf("cannot read header: %w", err)}
	}
	pos := map[string]int{}
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}
	for _, col := range PatientColumns {
		if _, ok := pos[col]; !ok {
			return nil, &survival.LoadError{Source: file, Err: fmt.Errorf("missing required column %q", col)}
		}
	}

	table := survival.NewPatientTable()
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &survival.LoadError{Source: file, Err: err}
		}
		p, ok := parsePatientRecord(record, pos)
		if !ok {
			table.Dropped++
			continue
		}
		table.Add(p)
	}
	log.Info().Str("file", file).
		Int("patients", len(table.Patients)).
		Int("dropped", table.Dropped).
		Msg("parsed patient data")
	return table, nil
}

// parsePatientRecord turns one source row into a patient record. The
// boolean is false for incomplete rows: too few fields, a blank field, a
// non-numeric age or duration, a negative duration, or an event flag that
// is not a recognizable boolean.
func parsePatientRecord(record []string, pos map[string]int) (*survival.Patient, bool) {
	get := func(col string) (string, bool) {
		i := pos[col]
		if i >= len(record) {
			return "", false
		}
		v := strings.TrimSpace(record[i])
		return v, v != ""
	}
	for _, col := range PatientColumns {
		if _, ok := get(col); !ok {
			return nil, false
		}
	}
	pidString, _ := get(survival.PatientIDCol)
	ageString, _ := get(survival.AgeCol)
	age, err := strconv.Atoi(ageString)
	if err != nil {
		return nil, false
	}
	durationString, _ := get(survival.DurationCol)
	duration, err := strconv.ParseFloat(durationString, 64)
	if err != nil || duration < 0 {
		return nil, false
	}
	eventString, _ := get(survival.EventCol)
	event, ok := parseEvent(eventString)
	if !ok {
		return nil, false
	}
	sex, _ := get(survival.SexCol)
	diagnosis, _ := get(survival.DiagnosisCol)
	treatment, _ := get(survival.TreatmentCol)
	return &survival.Patient{
		PIDString:     pidString,
		Age:           age,
		Sex:           sex,
		DiagnosisCode: diagnosis,
		TreatmentType: treatment,
		Duration:      duration,
		Event:         event,
	}, true
}

// parseEvent accepts the 0/1 and true/false spellings the source tables
// use for the event indicator.
func parseEvent(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "1", "true":
		return true, true
	case "0", "false":
		return false, true
	}
	return false, false
}
