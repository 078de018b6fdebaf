// Package insurance describes the three policy entities (health,
// life, vehicle). The variants share client, policy-identity and
// commission sections and differ only in their type-specific sections
// and required fields; each exports a resource.Descriptor.
package insurance

import (
	"agencydesk/internal/form"
	"agencydesk/internal/resource"
)

// File slot and field names shared by all three policy types.
const (
	SlotPolicyFile = "policyFile"
	SlotDocuments  = "uploadDocuments"
)

func documentSlots() []resource.FileSlot {
	return []resource.FileSlot{
		{
			Slot:             SlotDocuments,
			Field:            "uploadDocuments",
			NamesField:       "documentNames",
			UpdateField:      "newUploadDocuments",
			UpdateNamesField: "newDocumentNames",
		},
	}
}

// commonDefaults are the sections every policy draft carries.
func commonDefaults() form.Draft {
	return form.Draft{
		"clientDetails": map[string]interface{}{
			"customer": "",
		},
		"insuranceDetails": map[string]interface{}{
			"insuranceCompany": "",
			"policyNumber":     "",
			"policyType":       "",
			"startDate":        "",
			"endDate":          "",
			"policyTerm":       "",
		},
		"commissionDetails": map[string]interface{}{
			"mainAgentCommissionPercentage": "",
			"mainAgentCommissionAmount":     "",
			"subAgentCommissionPercentage":  "",
			"subAgentCommissionAmount":      "",
		},
		"premiumCommissionDetails": map[string]interface{}{
			"premiumAmount":        "",
			"netPremium":           "",
			"commissionPercentage": "",
			"commissionAmount":     "",
		},
	}
}

func commonDateFields() []string {
	return []string{
		"insuranceDetails.startDate",
		"insuranceDetails.endDate",
	}
}

func commonNumberFields() []string {
	return []string{
		"premiumCommissionDetails.premiumAmount",
		"premiumCommissionDetails.netPremium",
		"premiumCommissionDetails.commissionPercentage",
		"premiumCommissionDetails.commissionAmount",
		"commissionDetails.mainAgentCommissionPercentage",
		"commissionDetails.mainAgentCommissionAmount",
		"commissionDetails.subAgentCommissionPercentage",
		"commissionDetails.subAgentCommissionAmount",
	}
}

func merge(base form.Draft, extra form.Draft) form.Draft {
	for k, v := range extra {
		base[k] = v
	}
	return base
}
