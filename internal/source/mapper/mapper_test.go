package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap_AffiliateWP(t *testing.T) {
	raw := map[string]any{
		"affiliate_id":   float64(42),
		"user_id":        float64(9),
		"payment_email":  "pay@vendor.example",
		"email":          "other@vendor.example",
		"first_name":     "Jo",
		"last_name":      "Vendor",
		"company":        "Vendor LLC",
		"payment_method": "paypal",
		"last_payout":    "120.50",
		"earnings":       "1500.75",
		"tax_info": map[string]any{
			"ssn": "123-45-6789",
		},
		"address": map[string]any{
			"street": "1 Main St",
			"city":   "Springfield",
			"state":  "IL",
			"zip":    "62704",
		},
	}

	record := Map(raw, SourceAffiliateWP)

	assert.Equal(t, "42", record.ExternalID)
	assert.Equal(t, "9", record.ExternalUserID)
	assert.Equal(t, "pay@vendor.example", record.Email, "payment_email takes priority")
	assert.Equal(t, "Jo Vendor", record.Name, "falls back to first+last")
	assert.Equal(t, "Vendor LLC", record.Company)
	assert.Equal(t, "paypal", record.PaymentMethod)
	assert.Equal(t, 120.50, record.LastPayoutAmount)
	assert.Equal(t, 1500.75, record.TotalEarnings)
	assert.Equal(t, "123-45-6789", record.SSN)
	assert.Empty(t, record.EIN)
	assert.Equal(t, "1 Main St", record.Address.Line1)
	assert.Equal(t, "62704", record.Address.PostalCode)
}

func TestMap_SliceWP_FlatFields(t *testing.T) {
	raw := map[string]any{
		"id":                  "17",
		"email":               "a@slice.example",
		"first_name":          "Ann",
		"last_name":           "Lee",
		"company_name":        "Lee Co",
		"payout_method":       "bank",
		"last_payment_amount": float64(75),
		"total_earnings":      "900.00",
		"ssn":                 "987654321",
		"ein":                 "12-3456789",
		"address1":            "9 Oak Ave",
		"zip":                 "30301",
	}

	record := Map(raw, SourceSliceWP)

	assert.Equal(t, "17", record.ExternalID)
	assert.Equal(t, "Ann Lee", record.Name)
	assert.Equal(t, 75.0, record.LastPayoutAmount)
	assert.Equal(t, 900.0, record.TotalEarnings)
	assert.Equal(t, "987654321", record.SSN)
	assert.Equal(t, "12-3456789", record.EIN)
	assert.Equal(t, "9 Oak Ave", record.Address.Line1)
}

func TestMap_SolidAffiliate_NestedSensitive(t *testing.T) {
	raw := map[string]any{
		"affiliate_id":  float64(3),
		"wp_user_id":    float64(11),
		"payment_email": "solid@vendor.example",
		"full_name":     "Sam Solid",
		"business_name": "Solid Goods",
		"payout_method": "store-credit",
		"lifetime_paid": "2400.10",
		"sensitive": map[string]any{
			"business_tax_id": "98-7654321",
		},
		"mailing_address": map[string]any{
			"street":      "5 Pine Rd",
			"region":      "OR",
			"postal_code": "97035",
		},
	}

	record := Map(raw, SourceSolidAffiliate)

	assert.Equal(t, "3", record.ExternalID)
	assert.Equal(t, "11", record.ExternalUserID)
	assert.Equal(t, "Sam Solid", record.Name)
	assert.Equal(t, "Solid Goods", record.Company)
	assert.Equal(t, 2400.10, record.TotalEarnings)
	assert.Empty(t, record.SSN)
	assert.Equal(t, "98-7654321", record.EIN)
	assert.Equal(t, "OR", record.Address.State)
}

func TestMap_YITHWCAF_BillingNesting(t *testing.T) {
	raw := map[string]any{
		"affiliate_id": float64(8),
		"user_email":   "yith@vendor.example",
		"display_name": "Y Vendor",
		"total_amount": float64(310),
		"billing": map[string]any{
			"company":   "Y Co",
			"address_1": "2 Elm St",
			"postcode":  "10001",
		},
	}

	record := Map(raw, SourceYITHWCAF)

	assert.Equal(t, "8", record.ExternalID)
	assert.Equal(t, "yith@vendor.example", record.Email)
	assert.Equal(t, "Y Vendor", record.Name)
	assert.Equal(t, "Y Co", record.Company)
	assert.Equal(t, 310.0, record.TotalEarnings)
	assert.Equal(t, "10001", record.Address.PostalCode)
}

func TestMap_GenericFallback(t *testing.T) {
	raw := map[string]any{
		"id":            float64(7),
		"email":         "a@b.com",
		"displayName":   "A B",
		"totalEarnings": "650.00",
	}

	for _, tag := range []string{"", "generic", "some-unknown-plugin"} {
		record := Map(raw, tag)
		assert.Equal(t, "7", record.ExternalID, "tag %q", tag)
		assert.Equal(t, "a@b.com", record.Email, "tag %q", tag)
		assert.Equal(t, "A B", record.Name, "tag %q", tag)
		assert.Equal(t, 650.0, record.TotalEarnings, "tag %q", tag)
	}
}

func TestMap_GenericFindsNestedSensitiveFields(t *testing.T) {
	record := Map(map[string]any{
		"id":    "1",
		"email": "n@e.com",
		"tax_info": map[string]any{
			"ssn": "123456789",
		},
		"sensitive": map[string]any{
			"business_tax_id": "987654321",
		},
	}, "never-seen-before")

	assert.Equal(t, "123456789", record.SSN)
	assert.Equal(t, "987654321", record.EIN)
}

func TestMap_MalformedMoneyBecomesZero(t *testing.T) {
	record := Map(map[string]any{
		"id":             "5",
		"email":          "z@b.com",
		"total_earnings": "not-a-number",
		"last_payout":    "",
	}, SourceAffiliateWP)

	assert.Zero(t, record.TotalEarnings)
	assert.Zero(t, record.LastPayoutAmount)
}

func TestMap_DoesNotMutateInput(t *testing.T) {
	raw := map[string]any{"id": "1", "email": "a@b.com"}
	_ = Map(raw, SourceGeneric)
	assert.Equal(t, map[string]any{"id": "1", "email": "a@b.com"}, raw)
}
