/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package loadavg prepares the 1/5/15 minute load averages for the overview
// page: parsing, per-core classification and bar widths.
package loadavg

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	errMalformed = errors.New("not a load average")

	pattern   = regexp.MustCompile(`^\s*\d+\.\d+[\s,]+\d+\.\d+[\s,]+\d+\.\d+\s*$`)
	separator = regexp.MustCompile(`[,\s]+`)
	coresExpr = regexp.MustCompile(`(?i)(\d+)\s*x`)
)

// Level classifies a load relative to the number of cores.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

var labels = [3]string{"1 min", "5 min", "15 min"}

// Parse reads "X.XX, X.XX, X.XX" or "X.XX X.XX X.XX".
func Parse(text string) ([3]float64, error) {
	var out [3]float64

	if !pattern.MatchString(text) {
		return out, fmt.Errorf("%w: %q", errMalformed, strings.TrimSpace(text))
	}

	fields := separator.Split(strings.TrimSpace(text), -1)

	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return out, fmt.Errorf("%w: %w", errMalformed, err)
		}

		out[i] = v
	}

	return out, nil
}

// ParseCores reads the core count from a CPU description such as
// "4 x ARMv8 Processor rev 4". It returns 1 when none is given.
func ParseCores(text string) int {
	m := coresExpr.FindStringSubmatch(text)
	if m == nil {
		return 1
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 1
	}

	return n
}

// LevelOf classifies load for the given number of cores.
func LevelOf(load float64, cores int) Level {
	normalized := load / float64(max(cores, 1))

	switch {
	case normalized < 0.7:
		return LevelLow
	case normalized < 1.2:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// BarWidth is the fill percentage of the load bar; full at twice the core count.
func BarWidth(load float64, cores int) float64 {
	return math.Min(load/(float64(max(cores, 1))*2)*100, 100)
}

// Item is one load average ready for display.
type Item struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Text     string  `json:"text"`
	Level    Level   `json:"level"`
	BarWidth float64 `json:"bar_width"`
}

// Report is the load widget data.
type Report struct {
	Cores int     `json:"cores"`
	Items [3]Item `json:"items"`
}

// Build turns three loads into a Report, translating labels with t.
func Build(loads [3]float64, cores int, t func(string) string) Report {
	if t == nil {
		t = func(s string) string { return s }
	}

	cores = max(cores, 1)
	r := Report{Cores: cores}

	for i, load := range loads {
		r.Items[i] = Item{
			Label:    t(labels[i]),
			Value:    load,
			Text:     strconv.FormatFloat(load, 'f', 2, 64),
			Level:    LevelOf(load, cores),
			BarWidth: BarWidth(load, cores),
		}
	}

	return r
}
