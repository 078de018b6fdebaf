package insurance

import (
	"agencydesk/internal/form"
	"agencydesk/internal/resource"
	"agencydesk/internal/validation"
)

// VehicleDefaults is the empty vehicle-policy draft: the common
// policy sections plus vehicle identity, cover and permit sections.
func VehicleDefaults() form.Draft {
	return merge(commonDefaults(), form.Draft{
		"vehicleDetails": map[string]interface{}{
			"make":              "",
			"model":             "",
			"manufacturingYear": "",
			"engineNumber":      "",
			"chassisNumber":     "",
			"fuelType":          "",
			"seatingCapacity":   "",
		},
		"legalLiabilityAndCovers": map[string]interface{}{
			"ownDamageCover":           "",
			"thirdPartyCover":          "",
			"paOwnerDriverCover":       "",
			"legalLiabilityPaidDriver": "",
			"idv":                      "",
		},
		"registrationPermitValidity": map[string]interface{}{
			"registrationNumber": "",
			"registrationDate":   "",
			"permitValidUpto":    "",
			"fitnessValidUpto":   "",
		},
	})
}

// VehicleRules validates the vehicle-policy form.
var VehicleRules = validation.RuleSet{
	{Field: "clientDetails.customer", Label: "Customer"},
	{Field: "insuranceDetails.policyNumber", Label: "Policy number"},
}

// Vehicle wires the vehicle-insurance entity into the generic
// resource service.
var Vehicle = resource.Descriptor{
	Name:           "vehicle-insurance",
	BasePath:       "/vehicle-insurance",
	ItemsKey:       "vehicleInsurances",
	ItemKey:        "vehicleInsurance",
	FileSlots:      documentSlots(),
	PolicyFileSlot: SlotPolicyFile,
	Rules:          VehicleRules,
	Normalize: form.Normalize{
		DateFields: append(commonDateFields(),
			"registrationPermitValidity.registrationDate",
			"registrationPermitValidity.permitValidUpto",
			"registrationPermitValidity.fitnessValidUpto",
		),
		NumberFields: append(commonNumberFields(),
			"legalLiabilityAndCovers.idv",
		),
	},
	Defaults: VehicleDefaults,
}
