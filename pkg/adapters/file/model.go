package file

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/forestml/pkg/domain"
	"gopkg.in/yaml.v3"
)

// LoadModel reads a model document. Files ending in .json are decoded as
// JSON, everything else as YAML.
func LoadModel(path string) (*domain.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	format := "yaml"
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = "json"
	}
	return DecodeModel(f, format)
}

// DecodeModel decodes a model document in the given format ("json" or "yaml")
// and validates every tree.
func DecodeModel(r io.Reader, format string) (*domain.Model, error) {
	var model domain.Model
	switch strings.ToLower(format) {
	case "json":
		if err := json.NewDecoder(r).Decode(&model); err != nil {
			return nil, fmt.Errorf("failed to parse model: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&model); err != nil {
			return nil, fmt.Errorf("failed to parse model: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown model format %q", format)
	}

	for i := range model.Trees {
		if err := model.Trees[i].Validate(); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &model, nil
}
