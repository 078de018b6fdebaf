package insurance

import (
	"agencydesk/internal/form"
	"agencydesk/internal/resource"
	"agencydesk/internal/validation"
)

// HealthDefaults is the empty health-policy draft: the common policy
// sections plus the covered-family-member list.
func HealthDefaults() form.Draft {
	return merge(commonDefaults(), form.Draft{
		"familyDetails": []interface{}{},
	})
}

// HealthFamilyMemberTemplate is the blank record appended to a health
// policy's familyDetails.
func HealthFamilyMemberTemplate() map[string]interface{} {
	return map[string]interface{}{
		"name":       "",
		"relation":   "",
		"birthDate":  "",
		"sumInsured": "",
	}
}

// HealthRules validates the health-policy form.
var HealthRules = validation.RuleSet{
	{Field: "clientDetails.customer", Label: "Customer"},
	{Field: "insuranceDetails.insuranceCompany", Label: "Insurance company"},
	{Field: "insuranceDetails.policyNumber", Label: "Policy number"},
}

// Health wires the health-insurance entity into the generic resource
// service.
var Health = resource.Descriptor{
	Name:           "health-insurance",
	BasePath:       "/health-insurance",
	ItemsKey:       "healthInsurances",
	ItemKey:        "healthInsurance",
	FileSlots:      documentSlots(),
	PolicyFileSlot: SlotPolicyFile,
	Rules:          HealthRules,
	Normalize: form.Normalize{
		DateFields:   commonDateFields(),
		NumberFields: commonNumberFields(),
	},
	Defaults: HealthDefaults,
}
