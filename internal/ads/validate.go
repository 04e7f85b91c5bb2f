package ads

import (
	"fmt"
	"slices"
	"unicode/utf8"
)

// MaxDescriptionLength bounds the description including prefix and suffix,
// counted in characters, not bytes.
const MaxDescriptionLength = 4000

var (
	adTypes       = []string{"OFFER", "WANTED"}
	priceTypes    = []string{"FIXED", "NEGOTIABLE", "GIVE_AWAY", "NOT_APPLICABLE"}
	shippingTypes = []string{"PICKUP", "SHIPPING", "NOT_APPLICABLE"}
)

// rule is one validation predicate. Rules are evaluated in order and the
// first broken one wins.
type rule struct {
	field  string
	ok     func(*ResolvedDefinition) bool
	reason string
}

var rules = []rule{
	{"type",
		func(d *ResolvedDefinition) bool { return slices.Contains(adTypes, d.Type) },
		fmt.Sprintf("must be one of: %v", adTypes)},
	{"title",
		func(d *ResolvedDefinition) bool { return utf8.RuneCountInString(d.Title) >= 10 },
		"must be at least 10 characters long"},
	{"description",
		func(d *ResolvedDefinition) bool { return d.Description != "" },
		"not specified"},
	{"description",
		func(d *ResolvedDefinition) bool { return utf8.RuneCountInString(d.Description) <= MaxDescriptionLength },
		fmt.Sprintf("including prefix and suffix must not exceed %d characters", MaxDescriptionLength)},
	{"price_type",
		func(d *ResolvedDefinition) bool { return slices.Contains(priceTypes, d.PriceType) },
		fmt.Sprintf("must be one of: %v", priceTypes)},
	{"price",
		func(d *ResolvedDefinition) bool { return d.PriceType != "GIVE_AWAY" || d.Price == "" },
		"must not be specified for GIVE_AWAY ad"},
	{"price",
		func(d *ResolvedDefinition) bool { return d.PriceType != "FIXED" || d.Price != "" },
		"not specified"},
	{"shipping_type",
		func(d *ResolvedDefinition) bool { return slices.Contains(shippingTypes, d.ShippingType) },
		fmt.Sprintf("must be one of: %v", shippingTypes)},
	{"contact.name",
		func(d *ResolvedDefinition) bool { return d.Contact.Name != "" },
		"not specified"},
	{"republication_interval",
		func(d *ResolvedDefinition) bool { return d.RepublicationInterval != 0 },
		"not specified"},
}

// Validate checks the resolved definition against the schema rules and
// returns a ValidationError for the first broken one. It never mutates d.
func Validate(d *ResolvedDefinition) error {
	for _, r := range rules {
		if !r.ok(d) {
			return &ValidationError{File: d.File, Field: r.field, Reason: r.reason}
		}
	}
	return nil
}
