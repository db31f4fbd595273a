// Package decay loads genre-specific decay calibration: ten annual revenue
// multipliers (year 1 = 1.0) and an optional 52-week year-1 week-over-week
// rate vector.
package decay

import (
	"fmt"
	"strings"

	"catalogdeal/pkg/core/dealerr"
)

// genreAliases maps loose genre spellings to the canonical calibration key.
var genreAliases = map[string]string{
	"dance":             "Dance, Electronic, Electronica",
	"electronic":        "Dance, Electronic, Electronica",
	"electronica":       "Dance, Electronic, Electronica",
	"edm":               "Dance, Electronic, Electronica",
	"jpop":              "J-Pop & K-Pop",
	"kpop":              "J-Pop & K-Pop",
	"j-pop":             "J-Pop & K-Pop",
	"k-pop":             "J-Pop & K-Pop",
	"pop":               "Pop",
	"rock":              "Rock",
	"singer":            "Singer/Songwriter",
	"songwriter":        "Singer/Songwriter",
	"singer/songwriter": "Singer/Songwriter",
	"urban":             "Urban",
	"hip-hop":           "Urban",
	"hiphop":            "Urban",
	"hip hop":           "Urban",
	"r&b":               "Urban",
	"rnb":               "Urban",
	"rap":               "Urban",
}

// Calibration is one genre's decay model: M[1..10] with M[1]=1.0, and
// optionally the 52 year-1 week-over-week multipliers.
type Calibration struct {
	Genre             string
	AnnualMultipliers [10]float64 // index 0 = year 1
	WeeklyRates       []float64   // len 52, or nil if unavailable
}

// Table holds calibrations keyed by canonical genre name.
type Table struct {
	byGenre map[string]Calibration
}

// RawGenre is one genre's unnormalized source row: revenue values for years
// 1-10 (NewTable divides them by year 1) and optional weekly rates.
type RawGenre struct {
	Genre          string
	AnnualRevenues [10]float64 // raw revenue per year, not yet normalized
	WeeklyRates    []float64   // len 52 WoW rates for year 1, or nil
}

// NewTable builds a Table from raw per-genre calibration rows, normalizing
// each genre's annual revenues to multipliers with M[1]=1.0.
func NewTable(rows []RawGenre) (*Table, error) {
	t := &Table{byGenre: make(map[string]Calibration)}
	for _, row := range rows {
		if row.AnnualRevenues[0] <= 0 {
			return nil, dealerr.New(dealerr.MissingCalibration, row.Genre+": missing or non-positive Year 1 revenue")
		}
		var cal Calibration
		cal.Genre = row.Genre
		base := row.AnnualRevenues[0]
		for i := 0; i < 10; i++ {
			if row.AnnualRevenues[i] <= 0 {
				return nil, dealerr.New(dealerr.MissingCalibration, row.Genre)
			}
			cal.AnnualMultipliers[i] = row.AnnualRevenues[i] / base
		}
		if len(row.WeeklyRates) == 52 {
			for w, r := range row.WeeklyRates {
				if r <= 0 {
					return nil, dealerr.New(dealerr.MissingCalibration,
						fmt.Sprintf("%s: week %d rate must be positive, got %v", row.Genre, w+1, r))
				}
			}
			cal.WeeklyRates = append([]float64(nil), row.WeeklyRates...)
		}
		t.byGenre[row.Genre] = cal
	}
	return t, nil
}

func (t *Table) normalize(genre string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(genre))

	if canonical, ok := genreAliases[lower]; ok {
		if _, ok := t.byGenre[canonical]; ok {
			return canonical, nil
		}
	}
	for alias, canonical := range genreAliases {
		if strings.Contains(lower, alias) || strings.Contains(alias, lower) {
			if _, ok := t.byGenre[canonical]; ok {
				return canonical, nil
			}
		}
	}
	for known := range t.byGenre {
		knownLower := strings.ToLower(known)
		if strings.Contains(lower, knownLower) || strings.Contains(knownLower, lower) {
			return known, nil
		}
	}
	return "", dealerr.New(dealerr.UnknownGenre, genre)
}

// AnnualMultipliers returns M[1..10] for genre, M[1]=1.0, resolved through
// fuzzy genre matching.
func (t *Table) AnnualMultipliers(genre string) ([10]float64, error) {
	key, err := t.normalize(genre)
	if err != nil {
		return [10]float64{}, err
	}
	return t.byGenre[key].AnnualMultipliers, nil
}

// WeeklyRates returns the 52 year-1 week-over-week multipliers for genre, or
// nil if the calibration source didn't carry them.
func (t *Table) WeeklyRates(genre string) ([]float64, error) {
	key, err := t.normalize(genre)
	if err != nil {
		return nil, err
	}
	return t.byGenre[key].WeeklyRates, nil
}

// Genres lists the canonical genre keys available in the table.
func (t *Table) Genres() []string {
	out := make([]string, 0, len(t.byGenre))
	for g := range t.byGenre {
		out = append(out, g)
	}
	return out
}
