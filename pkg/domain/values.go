package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FeatureValue is one name/value pair of a scoring request.
type FeatureValue struct {
	Name  string
	Value any
}

// FeatureValues is an insertion-ordered mapping of feature name to value.
// Decoding from a JSON object keeps the document order of its keys and
// decodes numbers as json.Number so their literal text is preserved.
type FeatureValues []FeatureValue

// Values builds FeatureValues from alternating name/value arguments.
func Values(pairs ...any) FeatureValues {
	fv := make(FeatureValues, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fv = append(fv, FeatureValue{Name: fmt.Sprint(pairs[i]), Value: pairs[i+1]})
	}
	return fv
}

// Get returns the value recorded for name.
func (fv FeatureValues) Get(name string) (any, bool) {
	for _, p := range fv {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Set replaces the value for name, appending it when absent.
func (fv *FeatureValues) Set(name string, value any) {
	for i := range *fv {
		if (*fv)[i].Name == name {
			(*fv)[i].Value = value
			return
		}
	}
	*fv = append(*fv, FeatureValue{Name: name, Value: value})
}

// Names returns the feature names in order.
func (fv FeatureValues) Names() []string {
	names := make([]string, len(fv))
	for i, p := range fv {
		names[i] = p.Name
	}
	return names
}

func (fv FeatureValues) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range fv {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Value)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", p.Name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (fv *FeatureValues) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*fv = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("feature values: expected object, got %v", tok)
	}

	out := FeatureValues{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("feature values: unexpected key %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("feature %q: %w", name, err)
		}
		out.Set(name, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*fv = out
	return nil
}
