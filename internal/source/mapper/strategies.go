package mapper

// affiliateWPStrategy maps AffiliateWP payloads: snake_case fields, tax
// identifiers nested under tax_info, address nested under address.
type affiliateWPStrategy struct{}

func (affiliateWPStrategy) mapRecord(raw map[string]any) Record {
	taxInfo := nested(raw, "tax_info")
	addr := nested(raw, "address")
	return Record{
		ExternalID:       str(raw, "affiliate_id", "id"),
		ExternalUserID:   str(raw, "user_id"),
		Email:            str(raw, "payment_email", "email"),
		Name:             displayName(raw, []string{"display_name"}, "first_name", "last_name"),
		Company:          str(raw, "company"),
		PaymentMethod:    str(raw, "payment_method"),
		LastPayoutAmount: num(raw, "last_payout"),
		TotalEarnings:    num(raw, "earnings", "total_earnings"),
		SSN:              str(taxInfo, "ssn"),
		EIN:              str(taxInfo, "ein"),
		Address: Address{
			Line1:      str(addr, "line1", "street"),
			Line2:      str(addr, "line2"),
			City:       str(addr, "city"),
			State:      str(addr, "state"),
			PostalCode: str(addr, "zip", "postal_code"),
			Country:    str(addr, "country"),
		},
	}
}

// sliceWPStrategy maps SliceWP payloads: flat fields throughout, no nesting.
type sliceWPStrategy struct{}

func (sliceWPStrategy) mapRecord(raw map[string]any) Record {
	return Record{
		ExternalID:       str(raw, "id", "affiliate_id"),
		ExternalUserID:   str(raw, "user_id"),
		Email:            str(raw, "email", "payment_email"),
		Name:             displayName(raw, nil, "first_name", "last_name"),
		Company:          str(raw, "company_name"),
		PaymentMethod:    str(raw, "payout_method", "payment_method"),
		LastPayoutAmount: num(raw, "last_payment_amount"),
		TotalEarnings:    num(raw, "total_earnings"),
		SSN:              str(raw, "ssn"),
		EIN:              str(raw, "ein"),
		Address: Address{
			Line1:      str(raw, "address1"),
			Line2:      str(raw, "address2"),
			City:       str(raw, "city"),
			State:      str(raw, "state"),
			PostalCode: str(raw, "zip"),
			Country:    str(raw, "country"),
		},
	}
}

// solidAffiliateStrategy maps Solid Affiliate payloads: tax identifiers
// nested under sensitive, address under mailing_address.
type solidAffiliateStrategy struct{}

func (solidAffiliateStrategy) mapRecord(raw map[string]any) Record {
	sensitive := nested(raw, "sensitive")
	addr := nested(raw, "mailing_address")
	return Record{
		ExternalID:       str(raw, "affiliate_id", "id"),
		ExternalUserID:   str(raw, "wp_user_id", "user_id"),
		Email:            str(raw, "payment_email", "email"),
		Name:             displayName(raw, []string{"full_name"}, "first_name", "last_name"),
		Company:          str(raw, "business_name"),
		PaymentMethod:    str(raw, "payout_method"),
		LastPayoutAmount: num(raw, "recent_payout"),
		TotalEarnings:    num(raw, "lifetime_paid"),
		SSN:              str(sensitive, "individual_tax_id"),
		EIN:              str(sensitive, "business_tax_id"),
		Address: Address{
			Line1:      str(addr, "street"),
			Line2:      str(addr, "street2"),
			City:       str(addr, "city"),
			State:      str(addr, "region", "state"),
			PostalCode: str(addr, "postal_code"),
			Country:    str(addr, "country"),
		},
	}
}

// yithWCAFStrategy maps YITH WooCommerce Affiliates payloads.
type yithWCAFStrategy struct{}

func (yithWCAFStrategy) mapRecord(raw map[string]any) Record {
	billing := nested(raw, "billing")
	return Record{
		ExternalID:       str(raw, "affiliate_id", "id"),
		ExternalUserID:   str(raw, "user_id"),
		Email:            str(raw, "user_email", "email"),
		Name:             displayName(raw, []string{"display_name", "nicename"}, "first_name", "last_name"),
		Company:          str(billing, "company"),
		PaymentMethod:    str(raw, "payment_type"),
		LastPayoutAmount: num(raw, "last_payment"),
		TotalEarnings:    num(raw, "total_amount", "earnings"),
		SSN:              str(billing, "ssn"),
		EIN:              str(billing, "vat_ein", "ein"),
		Address: Address{
			Line1:      str(billing, "address_1"),
			Line2:      str(billing, "address_2"),
			City:       str(billing, "city"),
			State:      str(billing, "state"),
			PostalCode: str(billing, "postcode"),
			Country:    str(billing, "country"),
		},
	}
}

// genericStrategy handles unrecognized sources by trying the union of every
// field-name variant the known strategies use, plus common camelCase spellings.
// Best effort by design: an unknown plugin should still produce an importable
// record when its field names resemble any known flavor.
type genericStrategy struct{}

func (genericStrategy) mapRecord(raw map[string]any) Record {
	taxInfo := nested(raw, "tax_info")
	sensitive := nested(raw, "sensitive")
	addr := nested(raw, "address")

	ssn := str(raw, "ssn", "individual_tax_id")
	if ssn == "" {
		ssn = str(taxInfo, "ssn")
	}
	if ssn == "" {
		ssn = str(sensitive, "individual_tax_id")
	}
	ein := str(raw, "ein", "business_tax_id")
	if ein == "" {
		ein = str(taxInfo, "ein")
	}
	if ein == "" {
		ein = str(sensitive, "business_tax_id")
	}

	return Record{
		ExternalID:     str(raw, "id", "affiliate_id", "affiliateId"),
		ExternalUserID: str(raw, "user_id", "wp_user_id", "userId"),
		Email:          str(raw, "email", "payment_email", "user_email"),
		Name: displayName(raw,
			[]string{"display_name", "displayName", "full_name", "name"},
			"first_name", "last_name"),
		Company:          str(raw, "company", "company_name", "business_name"),
		PaymentMethod:    str(raw, "payment_method", "payout_method", "payment_type"),
		LastPayoutAmount: num(raw, "last_payout", "last_payment_amount", "last_payment", "lastPayout"),
		TotalEarnings:    num(raw, "total_earnings", "totalEarnings", "earnings", "lifetime_paid", "total_amount"),
		SSN:              ssn,
		EIN:              ein,
		Address: Address{
			Line1:      str(addr, "line1", "street", "address_1"),
			Line2:      str(addr, "line2", "street2", "address_2"),
			City:       str(addr, "city"),
			State:      str(addr, "state", "region"),
			PostalCode: str(addr, "zip", "postal_code", "postcode"),
			Country:    str(addr, "country"),
		},
	}
}
