package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/forestml/pkg/domain"
)

// parseAssignments reads name=value arguments in order. Numeric values keep
// their literal text; anything else is passed as a string.
func parseAssignments(args []string) (domain.FeatureValues, error) {
	values := make(domain.FeatureValues, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", arg)
		}
		if _, err := strconv.ParseFloat(value, 64); err == nil {
			values.Set(name, json.Number(value))
		} else {
			values.Set(name, value)
		}
	}
	return values, nil
}

// inputsFrom merges the --inputs JSON object with name=value arguments,
// the arguments overriding or extending the object.
func inputsFrom(raw string, args []string) (domain.FeatureValues, error) {
	var values domain.FeatureValues
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &values); err != nil {
			return nil, fmt.Errorf("invalid --inputs: %w", err)
		}
	}
	extra, err := parseAssignments(args)
	if err != nil {
		return nil, err
	}
	for _, p := range extra {
		values.Set(p.Name, p.Value)
	}
	return values, nil
}

// inputFloats converts feature values for a local tree walk.
func inputFloats(values domain.FeatureValues) (map[string]float64, error) {
	out := make(map[string]float64, len(values))
	for _, p := range values {
		v, err := strconv.ParseFloat(fmt.Sprint(p.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("feature %q is not numeric", p.Name)
		}
		out[p.Name] = v
	}
	return out, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
