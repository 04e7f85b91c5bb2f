package ads

import (
	"fmt"
	"time"
)

// TimeLayout is the layout bot-managed timestamps are written with:
// UTC ISO-8601 without a zone suffix.
const TimeLayout = "2006-01-02T15:04:05"

var timeLayouts = []string{
	TimeLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a bot-managed timestamp, accepting the layouts the engine
// has historically written.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// RawDefinition is exactly what the user wrote in a definition file, plus any
// previously persisted bot-managed fields (id, created_on, updated_on). It is
// the only form ever written back to storage.
type RawDefinition map[string]any

// Contact holds the seller contact details of an ad.
type Contact struct {
	Name    string `mapstructure:"name"`
	Street  string `mapstructure:"street"`
	Zipcode string `mapstructure:"zipcode"`
	Phone   string `mapstructure:"phone"`
}

// ResolvedDefinition is a RawDefinition after the defaults cascade and
// derived-field computation. Ephemeral: recomputed every run, never persisted.
type ResolvedDefinition struct {
	File string `mapstructure:"-"`

	Active bool   `mapstructure:"active"`
	Type   string `mapstructure:"type"`
	Title  string `mapstructure:"title"`

	// Description includes the configured prefix and suffix.
	Description string `mapstructure:"description"`

	Price           string   `mapstructure:"price"`
	PriceType       string   `mapstructure:"price_type"`
	ShippingType    string   `mapstructure:"shipping_type"`
	ShippingOptions []string `mapstructure:"shipping_options"`
	ShippingCosts   string   `mapstructure:"shipping_costs"`
	SellDirectly    bool     `mapstructure:"sell_directly"`

	Category          string            `mapstructure:"category"`
	SpecialAttributes map[string]string `mapstructure:"special_attributes"`
	Images            []string          `mapstructure:"images"`
	Contact           Contact           `mapstructure:"contact"`

	ID                    int64  `mapstructure:"id"`
	CreatedOn             string `mapstructure:"created_on"`
	UpdatedOn             string `mapstructure:"updated_on"`
	RepublicationInterval int    `mapstructure:"republication_interval"`
}

// Entry pairs one definition file with its raw and resolved forms.
type Entry struct {
	Path     string
	Raw      RawDefinition
	Resolved *ResolvedDefinition
}

// ValidationError signals a schema rule violation in one ad definition file.
type ValidationError struct {
	File   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("property [%s] %s @ [%s]", e.Field, e.Reason, e.File)
}
