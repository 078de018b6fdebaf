// Package customer describes the customer entity: its draft shape,
// required-field rules and multipart layout. Individual and corporate
// customers share one form; the customerType leaf decides which detail
// section is authoritative.
package customer

import (
	"fmt"
	"strings"

	"agencydesk/internal/form"
	"agencydesk/internal/resource"
	"agencydesk/internal/validation"
)

// Customer types.
const (
	TypeIndividual = "individual"
	TypeCorporate  = "corporate"
)

// Defaults is the empty draft a create form starts from.
func Defaults() form.Draft {
	return form.Draft{
		"customerType": "",
		"personalDetails": map[string]interface{}{
			"firstName":     "",
			"middleName":    "",
			"lastName":      "",
			"mobileNumber":  "",
			"email":         "",
			"address":       "",
			"state":         "",
			"city":          "",
			"pincode":       "",
			"birthDate":     "",
			"gender":        "",
			"maritalStatus": "",
			"occupation":    "",
			"annualIncome":  "",
			"panNumber":     "",
		},
		"corporateDetails": []interface{}{},
		"familyDetails":    []interface{}{},
	}
}

// FamilyMemberTemplate is the blank record appended to familyDetails.
func FamilyMemberTemplate() map[string]interface{} {
	return map[string]interface{}{
		"name":      "",
		"relation":  "",
		"birthDate": "",
		"gender":    "",
	}
}

// CorporateRecordTemplate is the blank record appended to
// corporateDetails.
func CorporateRecordTemplate() map[string]interface{} {
	return map[string]interface{}{
		"companyName":        "",
		"companyType":        "",
		"gstNumber":          "",
		"registrationNumber": "",
		"address":            "",
		"contactPerson":      "",
		"contactNumber":      "",
	}
}

func isIndividual(s validation.Source) bool {
	return s.Value("customerType") == TypeIndividual
}

// Rules validates the customer form. Personal-detail requirements
// apply only to individual customers.
var Rules = validation.RuleSet{
	{Field: "customerType", Label: "Customer type"},
	{Field: "personalDetails.firstName", Label: "First name", When: isIndividual},
	{Field: "personalDetails.lastName", Label: "Last name", When: isIndividual},
	{
		Field:   "personalDetails.mobileNumber",
		Label:   "Mobile number",
		Pattern: validation.MobilePattern,
		Message: "Mobile number must be a valid 10-digit number",
		When:    isIndividual,
	},
	{
		Field:   "personalDetails.email",
		Label:   "Email",
		Pattern: validation.EmailPattern,
		When:    isIndividual,
	},
	{Field: "personalDetails.state", Label: "State", When: isIndividual},
	{Field: "personalDetails.city", Label: "City", When: isIndividual},
	{Field: "personalDetails.address", Label: "Address", When: isIndividual},
	{Field: "personalDetails.birthDate", Label: "Birth date", When: isIndividual},
	{Field: "personalDetails.gender", Label: "Gender", When: isIndividual},
	{Field: "personalDetails.maritalStatus", Label: "Marital status", When: isIndividual},
}

// Option reduces one raw dropdown record to a selectable pair with
// the "{customerId} - {name}" label convention.
func Option(rec map[string]interface{}) form.Option {
	id, _ := rec["_id"].(string)
	if v, ok := rec["value"].(string); ok && v != "" {
		id = v
	}
	if label, ok := rec["label"].(string); ok && label != "" {
		return form.Option{Value: id, Label: label}
	}
	displayID, _ := rec["customerId"].(string)
	name, _ := rec["name"].(string)
	if name == "" {
		first, _ := rec["firstName"].(string)
		last, _ := rec["lastName"].(string)
		name = strings.TrimSpace(first + " " + last)
	}
	return form.Option{Value: id, Label: fmt.Sprintf("%s - %s", displayID, name)}
}

// Descriptor wires the customer entity into the generic resource
// service.
var Descriptor = resource.Descriptor{
	Name:     "customer",
	BasePath: "/customers",
	ItemsKey: "customers",
	ItemKey:  "customer",
	FileSlots: []resource.FileSlot{
		{
			Slot:             "documents",
			Field:            "documents",
			NamesField:       "documentNames",
			UpdateField:      "newDocuments",
			UpdateNamesField: "newDocumentNames",
		},
		{
			Slot:             "additionalDocuments",
			Field:            "additionalDocuments",
			NamesField:       "additionalDocumentNames",
			UpdateField:      "newAdditionalDocuments",
			UpdateNamesField: "newAdditionalDocumentNames",
		},
	},
	Rules: Rules,
	Normalize: form.Normalize{
		DateFields:   []string{"personalDetails.birthDate"},
		NumberFields: []string{"personalDetails.annualIncome"},
	},
	Defaults: Defaults,
	Option:   Option,
}
