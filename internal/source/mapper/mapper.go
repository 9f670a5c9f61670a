// Package mapper normalizes raw affiliate payloads into one canonical shape.
// Each supported plugin exposes materially different field names and nesting
// for the same concepts, so mapping is a closed set of per-plugin strategies
// with a generic fallback that tries the union of all known variants.
//
// Mapping is pure: no I/O, no mutation of the input payload.
package mapper

import (
	"math"
	"strconv"
	"strings"
)

// Source type tags for the known plugin flavors. Anything else dispatches to
// the generic strategy.
const (
	SourceAffiliateWP    = "affiliatewp"
	SourceSliceWP        = "slicewp"
	SourceSolidAffiliate = "solid-affiliate"
	SourceYITHWCAF       = "yith-wcaf"
	SourceGeneric        = "generic"
)

// Record is the normalized external affiliate record. It exists only between
// a fetch and a reconciliation; nothing persists it.
type Record struct {
	ExternalID       string
	ExternalUserID   string
	Email            string
	Name             string
	Company          string
	PaymentMethod    string
	LastPayoutAmount float64
	TotalEarnings    float64
	SSN              string
	EIN              string
	Address          Address
	Metadata         map[string]string
}

// Address carries the optional postal fields a source may expose.
type Address struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

type strategy interface {
	mapRecord(raw map[string]any) Record
}

// Map normalizes one raw payload using the strategy for sourceType. An
// unknown or empty tag falls back to the generic strategy.
func Map(raw map[string]any, sourceType string) Record {
	return strategyFor(sourceType).mapRecord(raw)
}

func strategyFor(sourceType string) strategy {
	switch strings.ToLower(sourceType) {
	case SourceAffiliateWP:
		return affiliateWPStrategy{}
	case SourceSliceWP:
		return sliceWPStrategy{}
	case SourceSolidAffiliate:
		return solidAffiliateStrategy{}
	case SourceYITHWCAF:
		return yithWCAFStrategy{}
	default:
		return genericStrategy{}
	}
}

// str returns the first non-empty string value among the candidate keys.
// Numeric identifiers are stringified so sources that send `"id": 7` and
// sources that send `"id": "7"` normalize identically.
func str(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return formatNumericID(v)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

// num parses the first present monetary value among the candidate keys.
// Absent or malformed values become zero, never an error: external sources
// routinely send empty strings and junk in money fields, and a bad number
// must not sink an otherwise importable record.
func num(raw map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			if v == "" {
				continue
			}
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return 0
			}
			return parsed
		}
	}
	return 0
}

// nested returns a sub-object, or an empty map when the key is absent or not
// an object, so strategies can chain lookups without nil checks.
func nested(raw map[string]any, key string) map[string]any {
	if sub, ok := raw[key].(map[string]any); ok {
		return sub
	}
	return map[string]any{}
}

// displayName resolves a display name, falling back to first+last when no
// single name field is present.
func displayName(raw map[string]any, nameKeys []string, firstKey, lastKey string) string {
	if name := str(raw, nameKeys...); name != "" {
		return name
	}
	first := str(raw, firstKey)
	last := str(raw, lastKey)
	return strings.TrimSpace(first + " " + last)
}

func formatNumericID(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
