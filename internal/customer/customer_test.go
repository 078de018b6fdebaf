package customer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agencydesk/internal/form"
)

func TestRules_IndividualInvalidMobile(t *testing.T) {
	s := form.NewCreate(Defaults(), Descriptor.Normalize)
	s.Set("customerType", TypeIndividual)
	s.Set("personalDetails.firstName", "Asha")
	s.Set("personalDetails.lastName", "Patel")
	s.Set("personalDetails.mobileNumber", "12345")
	s.Set("personalDetails.email", "asha@example.com")
	s.Set("personalDetails.state", "Gujarat")
	s.Set("personalDetails.city", "Surat")
	s.Set("personalDetails.address", "12 Ring Road")
	s.Set("personalDetails.birthDate", "1990-05-14")
	s.Set("personalDetails.gender", "female")
	s.Set("personalDetails.maritalStatus", "married")

	errs := Rules.Validate(s)
	require.True(t, errs.Any())
	assert.Contains(t, errs, "personalDetails.mobileNumber")
	assert.NotContains(t, errs, "personalDetails.email")

	s.Set("personalDetails.mobileNumber", "9876543210")
	assert.Empty(t, Rules.Validate(s))
}

func TestRules_CorporateSkipsPersonalDetails(t *testing.T) {
	s := form.NewCreate(Defaults(), Descriptor.Normalize)
	s.Set("customerType", TypeCorporate)

	errs := Rules.Validate(s)
	assert.Empty(t, errs, "personal-detail rules apply to individuals only")
}

func TestRules_TypeRequired(t *testing.T) {
	s := form.NewCreate(Defaults(), Descriptor.Normalize)

	errs := Rules.Validate(s)
	require.Contains(t, errs, "customerType")
	assert.Equal(t, "Customer type is required", errs["customerType"])
}

func TestOption(t *testing.T) {
	t.Run("preshaped value/label passes through", func(t *testing.T) {
		opt := Option(map[string]interface{}{"value": "c1", "label": "CUST-001 - Asha Patel"})
		assert.Equal(t, form.Option{Value: "c1", Label: "CUST-001 - Asha Patel"}, opt)
	})

	t.Run("raw record builds displayId - name label", func(t *testing.T) {
		opt := Option(map[string]interface{}{
			"_id":        "c2",
			"customerId": "CUST-002",
			"firstName":  "Ravi",
			"lastName":   "Shah",
		})
		assert.Equal(t, "c2", opt.Value)
		assert.Equal(t, "CUST-002 - Ravi Shah", opt.Label)
	})
}
