// Package rates exposes per-country audio/video per-stream payout rates and
// computes the blended audio rate for a market mix.
package rates

import (
	"fmt"
	"regexp"
	"strings"

	"catalogdeal/pkg/core/dealerr"
)

// CountryRate is a single country's per-stream payout.
type CountryRate struct {
	Country   string
	AudioRate float64
	VideoRate float64
}

// RowMode selects the rest-of-world fallback used by BlendAudio.
type RowMode string

const (
	RowAverage RowMode = "avg"
	RowUSA     RowMode = "us"
)

// countryAliases maps loose spellings to the canonical country key used in
// Table. Mirrors the fuzzy country resolution in the PPU rate workbook.
var countryAliases = map[string]string{
	"united states":         "USA",
	"us":                    "USA",
	"usa":                   "USA",
	"america":               "USA",
	"united kingdom":        "UK",
	"great britain":         "UK",
	"britain":               "UK",
	"england":               "UK",
	"uk":                    "UK",
	"south korea":           "KOREA",
	"republic of korea":     "KOREA",
	"korea":                 "KOREA",
	"hong kong sar":         "HONG KONG",
	"hong kong":             "HONG KONG",
	"uae":                   "UNITED ARAB EMIRATES",
	"united arab emirates":  "UNITED ARAB EMIRATES",
	"netherlands":           "NETHERLANDS",
	"holland":               "NETHERLANDS",
	"russia":                "RUSSIAN FEDERATION",
	"russian federation":    "RUSSIAN FEDERATION",
	"czech":                 "CZECH REPUBLIC",
	"czechia":               "CZECH REPUBLIC",
	"czech republic":        "CZECH REPUBLIC",
}

// excludedCountries are region-aggregate rows, never real per-country rates.
var excludedCountries = map[string]bool{
	"AFRICA": true,
	"OTHERS": true,
}

var currencyStrip = regexp.MustCompile(`[$,\s]`)

// ParseCurrency turns a string like " $  0.00307" into 0.00307. Non-numeric
// or empty input returns 0.
func ParseCurrency(value string) float64 {
	cleaned := currencyStrip.ReplaceAllString(strings.TrimSpace(value), "")
	if cleaned == "" {
		return 0
	}
	var f float64
	if _, err := fmt.Sscanf(cleaned, "%g", &f); err != nil {
		return 0
	}
	return f
}

// Table holds resolved country rates, keyed by canonical uppercase country
// name. Region-total rows and all-zero rows are excluded at load time.
type Table struct {
	byCountry map[string]CountryRate
}

// NewTable builds a Table from raw (country, audioRate, videoRate) rows.
// Rows whose country is blank, excluded, or whose rates are both zero are
// dropped, matching the PPU loader's row-filtering rules.
func NewTable(rows []CountryRate) *Table {
	t := &Table{byCountry: make(map[string]CountryRate)}
	for _, r := range rows {
		country := strings.ToUpper(strings.TrimSpace(r.Country))
		if country == "" || excludedCountries[country] {
			continue
		}
		if r.AudioRate <= 0 && r.VideoRate <= 0 {
			continue
		}
		t.byCountry[country] = CountryRate{Country: country, AudioRate: r.AudioRate, VideoRate: r.VideoRate}
	}
	return t
}

func (t *Table) normalize(country string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(country))
	lower := strings.ToLower(strings.TrimSpace(country))

	if _, ok := t.byCountry[upper]; ok {
		return upper, nil
	}
	if alias, ok := countryAliases[lower]; ok {
		if _, ok := t.byCountry[alias]; ok {
			return alias, nil
		}
	}
	for known := range t.byCountry {
		knownLower := strings.ToLower(known)
		if strings.Contains(upper, known) || strings.Contains(known, upper) ||
			strings.Contains(knownLower, lower) || strings.Contains(lower, knownLower) {
			return known, nil
		}
	}
	return "", dealerr.New(dealerr.UnknownCountry, country)
}

// Rate resolves country (through fuzzy alias matching) to its CountryRate.
func (t *Table) Rate(country string) (CountryRate, error) {
	key, err := t.normalize(country)
	if err != nil {
		return CountryRate{}, err
	}
	return t.byCountry[key], nil
}

// AverageAudio is the arithmetic mean audio rate over countries with a
// strictly positive audio rate.
func (t *Table) AverageAudio() float64 {
	var sum float64
	var n int
	for _, r := range t.byCountry {
		if r.AudioRate > 0 {
			sum += r.AudioRate
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// AverageVideo is the arithmetic mean video rate over countries with a
// strictly positive video rate.
func (t *Table) AverageVideo() float64 {
	var sum float64
	var n int
	for _, r := range t.byCountry {
		if r.VideoRate > 0 {
			sum += r.VideoRate
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// BlendAudio computes Σ share_c·rate_c + (1 − Σ share_c)·row_rate. row_rate is
// AverageAudio() when rowMode is RowAverage, otherwise the USA rate.
func (t *Table) BlendAudio(marketShares map[string]float64, rowMode RowMode) (float64, error) {
	var totalShare float64
	for _, s := range marketShares {
		totalShare += s
	}
	if totalShare > 1.0+1e-9 {
		return 0, dealerr.New(dealerr.InvalidMix, fmt.Sprintf("shares sum to %.6f", totalShare))
	}

	var blended float64
	for country, share := range marketShares {
		r, err := t.Rate(country)
		if err != nil {
			return 0, err
		}
		blended += share * r.AudioRate
	}

	restShare := 1.0 - totalShare
	if restShare > 0 {
		var restRate float64
		if rowMode == RowUSA {
			r, err := t.Rate("USA")
			if err != nil {
				restRate = t.AverageAudio()
			} else {
				restRate = r.AudioRate
			}
		} else {
			restRate = t.AverageAudio()
		}
		blended += restShare * restRate
	}
	return blended, nil
}

// Countries returns the set of resolvable country keys, sorted is left to
// the caller.
func (t *Table) Countries() []string {
	out := make([]string, 0, len(t.byCountry))
	for c := range t.byCountry {
		out = append(out, c)
	}
	return out
}
