package insurance

import (
	"agencydesk/internal/form"
	"agencydesk/internal/resource"
	"agencydesk/internal/validation"
)

// LifeDefaults is the empty life-policy draft: the common policy
// sections plus nominee, rider and bank details.
func LifeDefaults() form.Draft {
	extra := form.Draft{
		"nomineeDetails": map[string]interface{}{
			"nomineeName":      "",
			"nomineeRelation":  "",
			"nomineeBirthDate": "",
		},
		"riderDetails": []interface{}{},
		"bankDetails": map[string]interface{}{
			"bankName":      "",
			"accountNumber": "",
			"ifscCode":      "",
			"branch":        "",
		},
	}
	d := merge(commonDefaults(), extra)
	// Life policies name the insured person separately from the
	// customer holding the policy.
	details := d["insuranceDetails"].(map[string]interface{})
	details["insuredName"] = ""
	details["sumAssured"] = ""
	return d
}

// RiderTemplate is the blank record appended to a life policy's
// riderDetails.
func RiderTemplate() map[string]interface{} {
	return map[string]interface{}{
		"riderName":    "",
		"riderAmount":  "",
		"riderPremium": "",
	}
}

// LifeRules validates the life-policy form.
var LifeRules = validation.RuleSet{
	{Field: "clientDetails.customer", Label: "Customer"},
	{Field: "insuranceDetails.insuredName", Label: "Insured name"},
	{Field: "insuranceDetails.insuranceCompany", Label: "Insurance company"},
	{Field: "insuranceDetails.policyNumber", Label: "Policy number"},
	{Field: "nomineeDetails.nomineeName", Label: "Nominee name"},
}

// Life wires the life-insurance entity into the generic resource
// service.
var Life = resource.Descriptor{
	Name:           "life-insurance",
	BasePath:       "/life-insurance",
	ItemsKey:       "lifeInsurances",
	ItemKey:        "lifeInsurance",
	FileSlots:      documentSlots(),
	PolicyFileSlot: SlotPolicyFile,
	Rules:          LifeRules,
	Normalize: form.Normalize{
		DateFields: append(commonDateFields(), "nomineeDetails.nomineeBirthDate"),
		NumberFields: append(commonNumberFields(),
			"insuranceDetails.sumAssured",
		),
	},
	Defaults: LifeDefaults,
}
