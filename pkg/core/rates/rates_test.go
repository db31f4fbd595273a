package rates

import (
	"math"
	"testing"

	"catalogdeal/pkg/core/dealerr"
)

const tol = 1e-9

func sampleTable() *Table {
	return NewTable([]CountryRate{
		{Country: "USA", AudioRate: 0.00400, VideoRate: 0.00150},
		{Country: "UK", AudioRate: 0.00350, VideoRate: 0.00120},
		{Country: "KOREA", AudioRate: 0.00200, VideoRate: 0.00080},
		{Country: "AFRICA", AudioRate: 0.00900, VideoRate: 0.00900}, // excluded region row
		{Country: "", AudioRate: 0.01, VideoRate: 0.01},             // blank, dropped
		{Country: "NOWHERE", AudioRate: 0, VideoRate: 0},            // all-zero, dropped
	})
}

func TestNewTableDropsExcludedAndInvalidRows(t *testing.T) {
	tbl := sampleTable()
	if _, err := tbl.Rate("AFRICA"); err == nil {
		t.Fatalf("expected AFRICA to be excluded as a region row")
	}
	if _, err := tbl.Rate("NOWHERE"); err == nil {
		t.Fatalf("expected all-zero row to be dropped")
	}
}

func TestRateResolvesAliasesAndPartialMatches(t *testing.T) {
	tbl := sampleTable()
	cases := []struct{ input, want string }{
		{"United States", "USA"},
		{"us", "USA"},
		{"Great Britain", "UK"},
		{"South Korea", "KOREA"},
	}
	for _, c := range cases {
		r, err := tbl.Rate(c.input)
		if err != nil {
			t.Fatalf("Rate(%q): unexpected error: %v", c.input, err)
		}
		if r.Country != c.want {
			t.Errorf("Rate(%q) = %q, want %q", c.input, r.Country, c.want)
		}
	}
}

func TestRateUnknownCountry(t *testing.T) {
	tbl := sampleTable()
	_, err := tbl.Rate("Atlantis")
	if !dealerr.Is(err, dealerr.UnknownCountry) {
		t.Fatalf("expected UnknownCountry error, got %v", err)
	}
}

func TestBlendAudioWeightsSharesAndRestOfWorld(t *testing.T) {
	tbl := sampleTable()
	blend, err := tbl.BlendAudio(map[string]float64{"USA": 0.5, "UK": 0.3}, RowAverage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	avg := tbl.AverageAudio()
	want := 0.5*0.004 + 0.3*0.0035 + 0.2*avg
	if math.Abs(blend-want) > tol {
		t.Errorf("BlendAudio = %v, want %v", blend, want)
	}
}

func TestBlendAudioRowUSA(t *testing.T) {
	tbl := sampleTable()
	blend, err := tbl.BlendAudio(map[string]float64{"UK": 0.4}, RowUSA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 0.4*0.0035 + 0.6*0.004
	if math.Abs(blend-want) > tol {
		t.Errorf("BlendAudio (RowUSA) = %v, want %v", blend, want)
	}
}

func TestBlendAudioRejectsOverAllocatedShares(t *testing.T) {
	tbl := sampleTable()
	_, err := tbl.BlendAudio(map[string]float64{"USA": 0.7, "UK": 0.5}, RowAverage)
	if !dealerr.Is(err, dealerr.InvalidMix) {
		t.Fatalf("expected InvalidMix error, got %v", err)
	}
}

func TestParseCurrency(t *testing.T) {
	cases := map[string]float64{
		"$ 0.00307": 0.00307,
		"0.004":     0.004,
		"  $1,234":  1234,
		"":          0,
		"garbage":   0,
	}
	for input, want := range cases {
		if got := ParseCurrency(input); math.Abs(got-want) > tol {
			t.Errorf("ParseCurrency(%q) = %v, want %v", input, got, want)
		}
	}
}
