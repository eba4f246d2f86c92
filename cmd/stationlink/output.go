// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/tomtom215/stationlink/internal/cache"
	"github.com/tomtom215/stationlink/internal/models"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// formatValue prints values rejected by valid as "n/a" instead of the marker value.
func formatValue(v float64, valid cache.Validator) string {
	if !valid.IsValid(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeStationValues(w io.Writer, values map[string]map[string]float64, valid cache.Validator) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "STATION\tPARAMETER\tVALUE")
	for _, station := range slices.Sorted(maps.Keys(values)) {
		codes := values[station]
		for _, code := range slices.Sorted(maps.Keys(codes)) {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", station, code, formatValue(codes[code], valid))
		}
	}
	return tw.Flush()
}

func writeParameters(w io.Writer, params []models.ParameterVisibility) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "CODE\tNAME\tUNIT\tVISIBLE")
	for _, p := range params {
		unit := ""
		if p.Unit != nil {
			unit = *p.Unit
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", p.Code, p.Name, unit, p.IsVisible)
	}
	return tw.Flush()
}
