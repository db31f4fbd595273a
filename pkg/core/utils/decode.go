// Package utils holds the lenient-decoding and markdown helpers shared by
// the CLI and the report renderer.
package utils

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON fixes the common defects of a hand-edited deal request payload:
// trailing commas, single quotes, unquoted keys, an unclosed brace, or a
// wrapping markdown code fence.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("repairing request payload: %w", err)
	}
	return repaired, nil
}

// ParseHJSON converts an Hjson document (comments, unquoted keys, optional
// commas) into standard JSON.
func ParseHJSON(data string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(data), &result); err != nil {
		return "", fmt.Errorf("parsing hjson: %w", err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("re-encoding hjson: %w", err)
	}
	return string(out), nil
}

// SmartParse decodes input into schema, trying strict JSON first, then
// repaired JSON, then Hjson. Returns the form that parsed. Analysts paste
// request payloads from spreadsheets and chat threads; this keeps a stray
// trailing comma or comment from failing the run.
func SmartParse(input string, schema interface{}) (string, error) {
	if err := json.Unmarshal([]byte(input), schema); err == nil {
		return input, nil
	}

	if repaired, err := RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), schema); err == nil {
			return repaired, nil
		}
	}

	if converted, err := ParseHJSON(input); err == nil {
		if err := json.Unmarshal([]byte(converted), schema); err == nil {
			return converted, nil
		}
	}

	return "", fmt.Errorf("request payload is not valid JSON, repairable JSON, or hjson")
}
