package ui

// Per-entity dialog field lists. These cover the required fields plus
// the commonly edited ones; repeatable sections and file slots are
// managed from the CLI commands rather than dialog inputs.

// CustomerFields binds the customer dialog.
func CustomerFields() []Field {
	return []Field{
		{Path: "customerType", Label: "Type (individual/corporate)"},
		{Path: "personalDetails.firstName", Label: "First name"},
		{Path: "personalDetails.lastName", Label: "Last name"},
		{Path: "personalDetails.mobileNumber", Label: "Mobile number"},
		{Path: "personalDetails.email", Label: "Email"},
		{Path: "personalDetails.address", Label: "Address"},
		{Path: "personalDetails.state", Label: "State"},
		{Path: "personalDetails.city", Label: "City"},
		{Path: "personalDetails.birthDate", Label: "Birth date (YYYY-MM-DD)"},
		{Path: "personalDetails.gender", Label: "Gender"},
		{Path: "personalDetails.maritalStatus", Label: "Marital status"},
	}
}

// HealthFields binds the health-policy dialog.
func HealthFields() []Field {
	return []Field{
		{Path: "clientDetails.customer", Label: "Customer id"},
		{Path: "insuranceDetails.insuranceCompany", Label: "Insurance company"},
		{Path: "insuranceDetails.policyNumber", Label: "Policy number"},
		{Path: "insuranceDetails.startDate", Label: "Start date (YYYY-MM-DD)"},
		{Path: "insuranceDetails.endDate", Label: "End date (YYYY-MM-DD)"},
		{Path: "premiumCommissionDetails.premiumAmount", Label: "Premium amount"},
	}
}

// LifeFields binds the life-policy dialog.
func LifeFields() []Field {
	return []Field{
		{Path: "clientDetails.customer", Label: "Customer id"},
		{Path: "insuranceDetails.insuredName", Label: "Insured name"},
		{Path: "insuranceDetails.insuranceCompany", Label: "Insurance company"},
		{Path: "insuranceDetails.policyNumber", Label: "Policy number"},
		{Path: "insuranceDetails.sumAssured", Label: "Sum assured"},
		{Path: "nomineeDetails.nomineeName", Label: "Nominee name"},
		{Path: "nomineeDetails.nomineeRelation", Label: "Nominee relation"},
		{Path: "premiumCommissionDetails.premiumAmount", Label: "Premium amount"},
	}
}

// VehicleFields binds the vehicle-policy dialog.
func VehicleFields() []Field {
	return []Field{
		{Path: "clientDetails.customer", Label: "Customer id"},
		{Path: "insuranceDetails.insuranceCompany", Label: "Insurance company"},
		{Path: "insuranceDetails.policyNumber", Label: "Policy number"},
		{Path: "registrationPermitValidity.registrationNumber", Label: "Registration number"},
		{Path: "legalLiabilityAndCovers.idv", Label: "IDV"},
		{Path: "premiumCommissionDetails.premiumAmount", Label: "Premium amount"},
	}
}

// FieldsFor returns the dialog field list for an entity name.
func FieldsFor(entity string) []Field {
	switch entity {
	case "customer":
		return CustomerFields()
	case "health-insurance":
		return HealthFields()
	case "life-insurance":
		return LifeFields()
	case "vehicle-insurance":
		return VehicleFields()
	}
	return nil
}
