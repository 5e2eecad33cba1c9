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

// Package server exposes the filter-and-derive pipeline as a JSON API for
// an external presentation layer. The server owns no analysis logic: each
// request builds filter criteria from the query string, runs the relevant
// pipeline stages against the session table, and formats the outputs.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"medsurvive/app"
	"medsurvive/survival"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Server serves the dashboard API over a loaded session.
type Server struct {
	session *survival.Session
	router  *mux.Router
	log     zerolog.Logger
}

// New creates a server over a session and registers its routes.
func New(session *survival.Session, log zerolog.Logger) *Server {
	s := &Server{
		session: session,
		router:  mux.NewRouter(),
		log:     log,
	}
	s.routes()
	return s
}

// Router returns the HTTP handler of the server.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.logRequests)
	api.HandleFunc("/dataset", s.handleDataset).Methods(http.MethodGet)
	api.HandleFunc("/patients", s.handlePatients).Methods(http.MethodGet)
	api.HandleFunc("/survival", s.handleSurvival).Methods(http.MethodGet)
	api.HandleFunc("/risk", s.handleRisk).Methods(http.MethodGet)
	api.HandleFunc("/risk/attribution", s.handleAttribution).Methods(http.MethodGet)
	api.HandleFunc("/treatments/{code}", s.handleTreatment).Methods(http.MethodGet)
	api.HandleFunc("/glossary/diagnoses", s.handleDiagnosisGlossary).Methods(http.MethodGet)
	api.HandleFunc("/glossary/treatments", s.handleTreatmentGlossary).Methods(http.MethodGet)
	api.HandleFunc("/export/filtered.csv", s.handleExportFiltered).Methods(http.MethodGet)
	api.HandleFunc("/export/cox.csv", s.handleExportCox).Methods(http.MethodGet)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).
			Str("query", r.URL.RawQuery).Msg("request")
		next.ServeHTTP(w, r)
	})
}

// criteriaFromQuery builds filter criteria from the request query. Absent
// parameters default to the whole table; a present-but-empty set
// parameter is an empty selection, which filters everything out.
func (s *Server) criteriaFromQuery(q url.Values) (survival.FilterCriteria, error) {
	criteria := survival.DefaultCriteria(s.session.Table)
	if v := q.Get("minAge"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return criteria, errors.New("minAge must be an integer")
		}
		criteria.AgeMin = n
	}
	if v := q.Get("maxAge"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return criteria, errors.New("maxAge must be an integer")
		}
		criteria.AgeMax = n
	}
	if vals, ok := q["sex"]; ok {
		criteria.Sexes = parseSet(vals)
	}
	if vals, ok := q["diagnosis"]; ok {
		criteria.DiagnosisCodes = parseSet(vals)
	}
	if vals, ok := q["treatment"]; ok {
		criteria.TreatmentTypes = parseSet(vals)
	}
	return criteria, nil
}

// parseSet turns repeated or comma-separated query values into an
// accepted-value set. Blank entries are ignored, so "sex=" alone is an
// empty selection.
func parseSet(vals []string) map[string]bool {
	set := map[string]bool{}
	for _, v := range vals {
		for _, item := range strings.Split(v, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				set[item] = true
			}
		}
	}
	return set
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("cannot encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	table := s.session.Table
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"patients":        len(table.Patients),
		"dropped_rows":    table.Dropped,
		"min_age":         table.MinAge,
		"max_age":         table.MaxAge,
		"sexes":           table.Sexes,
		"diagnosis_codes": table.DiagnosisCodes,
		"treatment_types": table.TreatmentTypes,
	})
}

func (s *Server) handlePatients(w http.ResponseWriter, r *http.Request) {
	criteria, err := s.criteriaFromQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	subset := survival.Apply(s.session.Table, criteria)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(subset),
		"patients": subset,
	})
}

func (s *Server) handleSurvival(w http.ResponseWriter, r *http.Request) {
	criteria, err := s.criteriaFromQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	groupBy := r.URL.Query().Get("groupBy")
	subset := survival.Apply(s.session.Table, criteria)
	curves, err := survival.EstimateCurves(subset, groupBy, s.log)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if curves == nil {
		curves = []survival.SurvivalCurve{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"group_by": groupBy,
		"curves":   curves,
	})
}

// coefficientRow is one row of the rendered coefficient table.
type coefficientRow struct {
	Covariate   string  `json:"covariate"`
	Coefficient float64 `json:"coef"`
	StdErr      float64 `json:"se"`
	HazardRatio float64 `json:"hazard_ratio"`
	LCB         float64 `json:"lcb"`
	UCB         float64 `json:"ucb"`
	ZScore      float64 `json:"z"`
	PValue      float64 `json:"p"`
}

func coefficientRows(result *survival.RiskModelResult) []coefficientRow {
	rows := make([]coefficientRow, len(result.Names))
	for j, name := range result.Names {
		rows[j] = coefficientRow{
			Covariate:   name,
			Coefficient: result.Coefficients[j],
			StdErr:      result.StdErrs[j],
			HazardRatio: result.HazardRatios[j],
			LCB:         result.LCB[j],
			UCB:         result.UCB[j],
			ZScore:      result.ZScores[j],
			PValue:      result.PValues[j],
		}
	}
	return rows
}

// fitForRequest runs the filter and fit stages for a request. A FitError
// is reported as 422 so the presentation layer can show the message while
// the other views keep working.
func (s *Server) fitForRequest(w http.ResponseWriter, r *http.Request) (*survival.RiskModelResult, bool) {
	criteria, err := s.criteriaFromQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	subset := survival.Apply(s.session.Table, criteria)
	result, err := survival.FitRiskModel(subset, s.log)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	return result, true
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	result, ok := s.fitForRequest(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"coefficients": coefficientRows(result),
	})
}

func (s *Server) handleAttribution(w http.ResponseWriter, r *http.Request) {
	result, ok := s.fitForRequest(w, r)
	if !ok {
		return
	}
	scores, err := survival.AttributionScores(result)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"covariates": result.Names,
		"scores":     scores,
	})
}

func (s *Server) handleTreatment(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	entry, ok := app.LookupTreatment(code)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no treatment information for code "+code)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDiagnosisGlossary(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, app.DiagnosisGlossary)
}

func (s *Server) handleTreatmentGlossary(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, app.TreatmentGlossary)
}

func (s *Server) handleExportFiltered(w http.ResponseWriter, r *http.Request) {
	criteria, err := s.criteriaFromQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	subset := survival.Apply(s.session.Table, criteria)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="filtered_data.csv"`)
	if err := app.WriteSubsetCSV(w, subset); err != nil {
		s.log.Error().Err(err).Msg("cannot write filtered subset")
	}
}

func (s *Server) handleExportCox(w http.ResponseWriter, r *http.Request) {
	result, ok := s.fitForRequest(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="cox_summary.csv"`)
	if err := app.WriteCoefficientsCSV(w, result); err != nil {
		s.log.Error().Err(err).Msg("cannot write coefficient table")
	}
}
