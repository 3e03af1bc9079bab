// Package catalog loads gift box recipes (product mappings).
//
// The JSON form used by the storefront export is an array of single-key
// objects, [{"GIFTBOX_A": {...}}, {"GIFTBOX_B": {...}}]. A plain object keyed by
// product id is accepted too, as is the same shape written in YAML.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"picklist/internal/model"
)

// Format names a catalog encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("catalog: unknown format")

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// LoadFile reads and parses the catalog at path.
func LoadFile(path string) (model.ProductMappings, error) {
	f, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data, f)
}

// Parse decodes a catalog. Later entries win when a product id repeats.
func Parse(data []byte, f Format) (model.ProductMappings, error) {
	switch f {
	case FormatJSON:
		return parseJSON(data)
	case FormatYAML:
		return parseYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

func parseJSON(data []byte) (model.ProductMappings, error) {
	trimmed := bytes.TrimSpace(data)
	out := make(model.ProductMappings)
	if len(trimmed) == 0 {
		return out, nil
	}
	if trimmed[0] == '[' {
		var entries []map[string]model.ProductMapping
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
		}
		for _, e := range entries {
			for id, pm := range e {
				out[id] = pm
			}
		}
		return out, nil
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return out, nil
}

// yamlMapping keeps the price as text so it converts to decimal exactly.
type yamlMapping struct {
	Name       string                   `yaml:"name"`
	Price      string                   `yaml:"price"`
	Components []model.ProductComponent `yaml:"components"`
}

func parseYAML(data []byte) (model.ProductMappings, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	out := make(model.ProductMappings)
	if len(root.Content) == 0 {
		return out, nil
	}
	var entries []map[string]yamlMapping
	switch root.Content[0].Kind {
	case yaml.SequenceNode:
		if err := root.Content[0].Decode(&entries); err != nil {
			return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
		}
	case yaml.MappingNode:
		var m map[string]yamlMapping
		if err := root.Content[0].Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
		}
		entries = append(entries, m)
	default:
		return nil, fmt.Errorf("failed to parse catalog YAML: unexpected top-level node")
	}
	for _, e := range entries {
		for id, ym := range e {
			price := decimal.Zero
			if ym.Price != "" {
				p, err := decimal.NewFromString(ym.Price)
				if err != nil {
					return nil, fmt.Errorf("catalog %s: price %q: %w", id, ym.Price, err)
				}
				price = p
			}
			out[id] = model.ProductMapping{Name: ym.Name, Price: price, Components: ym.Components}
		}
	}
	return out, nil
}

// Validate reports recipes that cannot expand into a usable picking list. The
// result joins one error per problem, in product id order.
func Validate(m model.ProductMappings) error {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		pm := m[id]
		if strings.TrimSpace(id) == "" {
			errs = append(errs, errors.New("empty product id"))
		}
		if pm.Name == "" {
			errs = append(errs, fmt.Errorf("%s: empty name", id))
		}
		if len(pm.Components) == 0 {
			errs = append(errs, fmt.Errorf("%s: no components", id))
		}
		for i, c := range pm.Components {
			if c.ProductID == "" {
				errs = append(errs, fmt.Errorf("%s: components[%d]: empty productId", id, i))
			}
			if c.Quantity <= 0 {
				errs = append(errs, fmt.Errorf("%s: components[%d]: quantity must be positive, got %d", id, i, c.Quantity))
			}
		}
	}
	return errors.Join(errs...)
}

// Marshal encodes m in format f. JSON uses the array of single-key objects
// form, ordered by product id.
func Marshal(m model.ProductMappings, f Format) ([]byte, error) {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	switch f {
	case FormatJSON:
		entries := make([]map[string]model.ProductMapping, 0, len(ids))
		for _, id := range ids {
			entries = append(entries, map[string]model.ProductMapping{id: m[id]})
		}
		return json.MarshalIndent(entries, "", "  ")
	case FormatYAML:
		out := make(map[string]yamlMapping, len(m))
		for id, pm := range m {
			out[id] = yamlMapping{Name: pm.Name, Price: pm.Price.String(), Components: pm.Components}
		}
		return yaml.Marshal(out)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// WriteFile writes m to path in the format its extension names.
func WriteFile(m model.ProductMappings, path string) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	data, err := Marshal(m, f)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog %s: %w", path, err)
	}
	return nil
}
