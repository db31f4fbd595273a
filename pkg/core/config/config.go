// Package config loads the engine's configuration (YAML base plus an
// optional Hjson override file for hand-tuned assumptions) and the two
// tabular calibration sources: country rate tables and genre decay
// calibration. Loaders are wrapped in a loadonce.Cache so concurrent
// first-use calls collapse into a single parse, per the single-flight
// loader discipline required of the calibration tables.
package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	yaml "gopkg.in/yaml.v2"

	"catalogdeal/pkg/core/cashflow"
	"catalogdeal/pkg/core/dealerr"
	"catalogdeal/pkg/core/decay"
	"catalogdeal/pkg/core/loadonce"
	"catalogdeal/pkg/core/rates"
)

// EngineConfig holds the caller-configurable engine options, all optional
// with the defaults below.
type EngineConfig struct {
	RowMode             rates.RowMode `yaml:"row_mode"`
	DecayMode           string        `yaml:"decay_mode"` // "annual" or "weekly"
	UseTrackLevelDecay  *bool         `yaml:"use_track_level_decay"`
	DiscountRate        float64       `yaml:"discount_rate"`
	PaybackHorizonWeeks int           `yaml:"payback_horizon_weeks"`
	IRRTargets          []float64     `yaml:"irr_targets"`
}

// Default returns the engine's documented default configuration.
func Default() EngineConfig {
	return EngineConfig{
		RowMode:             rates.RowAverage,
		DecayMode:           "weekly",
		DiscountRate:        0.10,
		PaybackHorizonWeeks: 78,
		IRRTargets:          []float64{0.10, 0.15},
	}
}

// LoadEngineConfig reads a YAML config file, falling back to defaults for
// any field the file omits. An empty path returns Default() unchanged.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading engine config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing engine config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyHjsonOverrides merges a human-edited Hjson override file on top of
// cfg. Analysts use this for quick hand-tuning (comments and trailing
// commas allowed) without touching the canonical YAML file. A missing path
// is a no-op.
func ApplyHjsonOverrides(cfg EngineConfig, path string) (EngineConfig, error) {
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading hjson overrides %s: %w", path, err)
	}

	var raw map[string]interface{}
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parsing hjson overrides %s: %w", path, err)
	}
	if v, ok := raw["row_mode"].(string); ok {
		cfg.RowMode = rates.RowMode(v)
	}
	if v, ok := raw["decay_mode"].(string); ok {
		cfg.DecayMode = v
	}
	if v, ok := raw["discount_rate"].(float64); ok {
		cfg.DiscountRate = v
	}
	if v, ok := raw["payback_horizon_weeks"].(float64); ok {
		cfg.PaybackHorizonWeeks = int(v)
	}
	if v, ok := raw["use_track_level_decay"].(bool); ok {
		cfg.UseTrackLevelDecay = &v
	}
	if v, ok := raw["irr_targets"].([]interface{}); ok {
		targets := make([]float64, 0, len(v))
		for _, t := range v {
			if f, ok := t.(float64); ok {
				targets = append(targets, f)
			}
		}
		cfg.IRRTargets = targets
	}
	return cfg, nil
}

var rateTableCache loadonce.Cache[*rates.Table]

// LoadRateTable parses a CSV rate table ("Country,Audio,Video" header plus
// one row per country) into a rates.Table. Currency strings like "$ 0.00307"
// are accepted via rates.ParseCurrency. Concurrent calls for the same path
// share one parse.
func LoadRateTable(path string) (*rates.Table, error) {
	return rateTableCache.Get(path, func() (*rates.Table, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, dealerr.Wrap(dealerr.MissingCalibration, path, err)
		}
		defer f.Close()

		r := csv.NewReader(f)
		rows, err := r.ReadAll()
		if err != nil {
			return nil, dealerr.Wrap(dealerr.MissingCalibration, path, err)
		}
		if len(rows) < 2 {
			return nil, dealerr.New(dealerr.MissingCalibration, path+": no data rows")
		}

		var parsed []rates.CountryRate
		for _, row := range rows[1:] { // skip header
			if len(row) < 3 {
				continue
			}
			parsed = append(parsed, rates.CountryRate{
				Country:   row[0],
				AudioRate: rates.ParseCurrency(row[1]),
				VideoRate: rates.ParseCurrency(row[2]),
			})
		}
		return rates.NewTable(parsed), nil
	})
}

var decayTableCache loadonce.Cache[*decay.Table]

// LoadDecayCalibration parses a CSV decay calibration source. The expected
// shape follows the source workbook this format was distilled from: a
// "Weeks" column whose values are either a week number (0, 1, 2, ... for
// the Rates sub-table) or "Year 1".."Year 10" (for the Revenue sub-table),
// and one pair of {Genre} Revenue / {Genre} Rates columns per genre.
func LoadDecayCalibration(path string) (*decay.Table, error) {
	return decayTableCache.Get(path, func() (*decay.Table, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, dealerr.Wrap(dealerr.MissingCalibration, path, err)
		}
		defer f.Close()

		r := csv.NewReader(f)
		rows, err := r.ReadAll()
		if err != nil {
			return nil, dealerr.Wrap(dealerr.MissingCalibration, path, err)
		}
		if len(rows) < 2 {
			return nil, dealerr.New(dealerr.MissingCalibration, path+": no data rows")
		}
		header := rows[0]

		weeksCol := -1
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), "Weeks") {
				weeksCol = i
				break
			}
		}
		if weeksCol == -1 {
			return nil, dealerr.New(dealerr.MissingCalibration, path+": missing Weeks column")
		}

		type genreCols struct{ revenue, rate int }
		genres := map[string]genreCols{}
		for i, h := range header {
			h = strings.TrimSpace(h)
			switch {
			case strings.HasSuffix(h, " Revenue"):
				name := strings.TrimSuffix(h, " Revenue")
				gc := genres[name]
				gc.revenue = i
				genres[name] = gc
			case strings.HasSuffix(h, " Rates"):
				name := strings.TrimSuffix(h, " Rates")
				gc := genres[name]
				gc.rate = i
				genres[name] = gc
			}
		}

		raws := make([]decay.RawGenre, 0, len(genres))
		for name, cols := range genres {
			raw := decay.RawGenre{Genre: name}
			var weeklyRates []float64

			for _, row := range rows[1:] {
				if weeksCol >= len(row) {
					continue
				}
				label := strings.TrimSpace(row[weeksCol])

				if year, ok := parseYearLabel(label); ok && cols.revenue < len(row) {
					if v, err := strconv.ParseFloat(strings.TrimSpace(row[cols.revenue]), 64); err == nil && year >= 1 && year <= 10 {
						raw.AnnualRevenues[year-1] = v
					}
				}
				if week, err := strconv.Atoi(label); err == nil && week >= 1 && week <= 52 && cols.rate < len(row) {
					if v, err := strconv.ParseFloat(strings.TrimSpace(row[cols.rate]), 64); err == nil {
						if len(weeklyRates) < week {
							grown := make([]float64, week)
							copy(grown, weeklyRates)
							weeklyRates = grown
						}
						weeklyRates[week-1] = v
					}
				}
			}
			if len(weeklyRates) == 52 {
				raw.WeeklyRates = weeklyRates
			}
			raws = append(raws, raw)
		}

		return decay.NewTable(raws)
	})
}

func parseYearLabel(label string) (int, bool) {
	lower := strings.ToLower(label)
	if !strings.HasPrefix(lower, "year") {
		return 0, false
	}
	fields := strings.Fields(lower)
	if len(fields) != 2 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// DecayModeFromString validates a config decay_mode string, defaulting
// invalid values to weekly.
func DecayModeFromString(s string) string {
	if s == "annual" {
		return "annual"
	}
	return "weekly"
}

// dealTypeNames keeps cashflow.DealType's string form in one place for
// config/CLI round-tripping.
var dealTypeNames = map[string]cashflow.DealType{
	"distribution": cashflow.Distribution,
	"profit_split": cashflow.ProfitSplit,
	"royalty":      cashflow.Royalty,
}

// ParseDealType resolves a config/CLI deal_type string.
func ParseDealType(s string) (cashflow.DealType, error) {
	if dt, ok := dealTypeNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return dt, nil
	}
	return 0, dealerr.New(dealerr.InvalidInput, "deal_type: "+s)
}
