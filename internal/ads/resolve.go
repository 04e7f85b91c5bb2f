package ads

import (
	_ "embed"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"ad-lifecycle-engine/internal/defaults"
)

//go:embed ad_fields.yaml
var adFieldsYAML []byte

// SchemaLayer returns the layer holding the schema-defined field defaults.
// It is applied after the per-run ad defaults and enumerates the full set of
// permitted fields.
func SchemaLayer() defaults.Layer {
	var values map[string]any
	if err := yaml.Unmarshal(adFieldsYAML, &values); err != nil {
		panic(fmt.Errorf("parse bundled ad field table: %w", err))
	}
	return defaults.Layer{Values: values}
}

// AdDefaultsLayer returns the layer for the global per-run ad defaults.
// Empty strings in the ad count as absent so defaults can still fill them,
// and the description field is excluded so the layer's prefix/suffix mapping
// never clobbers the ad's description string.
func AdDefaultsLayer(values map[string]any) defaults.Layer {
	return defaults.Layer{
		Values:   values,
		Override: defaults.OverrideEmptyString,
		Ignore:   defaults.IgnoreField("description"),
	}
}

// Resolver turns raw definitions into resolved ones by running the defaults
// cascade, composing the description, and normalizing derived scalar fields.
// Read-only after construction.
type Resolver struct {
	Layers            []defaults.Layer
	DescriptionPrefix string
	DescriptionSuffix string
}

// Resolve produces the resolved form of raw. raw itself is never modified;
// the merge works on a deep copy. file labels any error.
func (r *Resolver) Resolve(raw RawDefinition, file string) (*ResolvedDefinition, error) {
	merged := defaults.Merge(defaults.Copy(map[string]any(raw)), r.Layers...)

	if err := normalize(merged, file); err != nil {
		return nil, err
	}

	var d ResolvedDefinition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &d,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build ad decoder: %w", err)
	}
	if err := dec.Decode(merged); err != nil {
		return nil, fmt.Errorf("decode ad definition @ [%s]: %w", file, err)
	}

	d.File = file
	d.Description = r.DescriptionPrefix + d.Description + r.DescriptionSuffix
	return &d, nil
}

// normalize coerces derived scalar fields in place before decoding: the id
// becomes an integer and shipping costs a two-fraction-digit decimal string.
func normalize(m map[string]any, file string) error {
	if v, ok := m["id"]; ok && !isEmpty(v) {
		id, err := cast.ToInt64E(v)
		if err != nil {
			return &ValidationError{File: file, Field: "id", Reason: fmt.Sprintf("must be an integer, got [%v]", v)}
		}
		m["id"] = id
	} else {
		m["id"] = nil
	}

	if v, ok := m["shipping_costs"]; ok && !isEmpty(v) {
		costs, err := parseDecimal(v)
		if err != nil {
			return &ValidationError{File: file, Field: "shipping_costs", Reason: fmt.Sprintf("must be a decimal number, got [%v]", v)}
		}
		m["shipping_costs"] = strconv.FormatFloat(math.Round(costs*100)/100, 'f', 2, 64)
	}
	return nil
}

// parseDecimal accepts both "4.90" and the locale form "4,90".
func parseDecimal(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	default:
		s := strings.ReplaceAll(strings.TrimSpace(cast.ToString(v)), ",", ".")
		return strconv.ParseFloat(s, 64)
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
