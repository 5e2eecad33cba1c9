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
	"io"
	"os"
	"strconv"

	"medsurvive/survival"
)

// CoefficientColumns lists the columns of the exported coefficient table.
// The order mirrors the in-memory RiskModelResult layout exactly.
var CoefficientColumns = []string{
	"covariate", "coef", "se", "hazard_ratio", "lcb", "ucb", "z", "p",
}

// WriteSubsetCSV writes the filtered subset as delimited text with
// exactly the source column schema, in subset order.
func WriteSubsetCSV(w io.Writer, subset []*survival.Patient) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PatientColumns); err != nil {
		return err
	}
	for _, p := range subset {
		event := "0"
		if p.Event {
			event = "1"
		}
		record := []string{
			p.PIDString,
			strconv.Itoa(p.Age),
			p.Sex,
			p.DiagnosisCode,
			p.TreatmentType,
			strconv.FormatFloat(p.Duration, 'g', -1, 64),
			event,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCoefficientsCSV writes the fitted coefficient table as delimited
// text, one row per encoded covariate, mirroring the in-memory result.
func WriteCoefficientsCSV(w io.Writer, r *survival.RiskModelResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CoefficientColumns); err != nil {
		return err
	}
	f := func(x float64) string {
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	for j, name := range r.Names {
		record := []string{
			name,
			f(r.Coefficients[j]),
			f(r.StdErrs[j]),
			f(r.HazardRatios[j]),
			f(r.LCB[j]),
			f(r.UCB[j]),
			f(r.ZScores[j]),
			f(r.PValues[j]),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAttributionCSV writes the per-patient attribution scores, one row
// per patient in subset order, one column per encoded covariate.
func WriteAttributionCSV(w io.Writer, names []string, subset []*survival.Patient, scores [][]float64) error {
	cw := csv.NewWriter(w)
	header := append([]string{survival.PatientIDCol}, names...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, p := range subset {
		record := make([]string, 0, len(names)+1)
		record = append(record, p.PIDString)
		for _, score := range scores[i] {
			record = append(record, strconv.FormatFloat(score, 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFile writes one export artifact to a file on disk.
func ExportFile(path string, write func(io.Writer) error) error {
	fid, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(fid); err != nil {
		fid.Close()
		return err
	}
	return fid.Close()
}
