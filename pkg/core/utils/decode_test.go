package utils

import "testing"

type samplePayload struct {
	Genre       string  `json:"genre"`
	DealPercent float64 `json:"deal_percent"`
}

func TestSmartParseStrictJSON(t *testing.T) {
	var p samplePayload
	if _, err := SmartParse(`{"genre":"Pop","deal_percent":0.25}`, &p); err != nil {
		t.Fatalf("SmartParse: unexpected error: %v", err)
	}
	if p.Genre != "Pop" || p.DealPercent != 0.25 {
		t.Errorf("decoded payload = %+v", p)
	}
}

func TestSmartParseRepairsTrailingComma(t *testing.T) {
	var p samplePayload
	if _, err := SmartParse(`{"genre":"Urban","deal_percent":0.5,}`, &p); err != nil {
		t.Fatalf("SmartParse: unexpected error: %v", err)
	}
	if p.Genre != "Urban" {
		t.Errorf("decoded genre = %q, want Urban", p.Genre)
	}
}

func TestSmartParseFallsBackToHjson(t *testing.T) {
	var p samplePayload
	input := `{
  # analyst note: pop comps
  genre: Pop
  deal_percent: 0.3
}`
	if _, err := SmartParse(input, &p); err != nil {
		t.Fatalf("SmartParse: unexpected error: %v", err)
	}
	if p.DealPercent != 0.3 {
		t.Errorf("decoded deal_percent = %v, want 0.3", p.DealPercent)
	}
}

func TestSmartParseRejectsGarbage(t *testing.T) {
	var p samplePayload
	if _, err := SmartParse("][", &p); err == nil {
		t.Fatalf("expected an error for an unparseable payload")
	}
}
