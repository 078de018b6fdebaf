package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthDefaults() Draft {
	return Draft{
		"clientDetails": map[string]interface{}{"customer": ""},
		"insuranceDetails": map[string]interface{}{
			"policyNumber":     "",
			"insuranceCompany": "",
			"startDate":        "",
			"endDate":          "",
		},
		"familyDetails": []interface{}{},
	}
}

func TestState_RepeatableSectionOps(t *testing.T) {
	s := NewCreate(healthDefaults(), Normalize{})
	template := map[string]interface{}{"name": "", "relation": "", "dob": ""}

	s.Append("familyDetails", template)
	s.Append("familyDetails", template)
	require.Len(t, s.Draft().List("familyDetails"), 2)

	s.SetAt("familyDetails", 1, "name", "Kiran")
	rec := s.Draft().List("familyDetails")[1].(map[string]interface{})
	assert.Equal(t, "Kiran", rec["name"])
	// Record 0 untouched.
	rec0 := s.Draft().List("familyDetails")[0].(map[string]interface{})
	assert.Equal(t, "", rec0["name"])

	s.Remove("familyDetails", 0)
	require.Len(t, s.Draft().List("familyDetails"), 1)
	rec = s.Draft().List("familyDetails")[0].(map[string]interface{})
	assert.Equal(t, "Kiran", rec["name"], "removal by index keeps the right record")

	// Out-of-range ops are ignored.
	s.Remove("familyDetails", 7)
	s.SetAt("familyDetails", -1, "name", "x")
	assert.Len(t, s.Draft().List("familyDetails"), 1)
}

func TestState_EditSeedingNormalizes(t *testing.T) {
	initial := Draft{
		"clientDetails": map[string]interface{}{
			"customer": map[string]interface{}{"_id": "c7", "name": "Asha"},
		},
		"insuranceDetails": map[string]interface{}{
			"policyNumber": "POL-7",
			"startDate":    "2026-04-01T00:00:00Z",
		},
	}
	s := NewEdit(healthDefaults(), initial, nil, Normalize{
		DateFields: []string{"insuranceDetails.startDate"},
	})

	assert.Equal(t, "c7", s.Value("clientDetails.customer"), "populated object reduced to id")
	assert.Equal(t, "2026-04-01", s.Value("insuranceDetails.startDate"))
	assert.Equal(t, "POL-7", s.Value("insuranceDetails.policyNumber"))
}

func TestState_CreateFromSeedsNormalizedCreateMode(t *testing.T) {
	initial := Draft{
		"clientDetails": map[string]interface{}{
			"customer": map[string]interface{}{"_id": "c7", "name": "Asha"},
		},
		"insuranceDetails": map[string]interface{}{
			"startDate": "2026-04-01T00:00:00Z",
		},
	}
	s := NewCreateFrom(healthDefaults(), initial, Normalize{
		DateFields: []string{"insuranceDetails.startDate"},
	})

	assert.Equal(t, ModeCreate, s.Mode())
	assert.Equal(t, "c7", s.Value("clientDetails.customer"))
	assert.Equal(t, "2026-04-01", s.Value("insuranceDetails.startDate"))
	require.True(t, s.SignalReset(), "prefilled create still honors the reset signal")
	assert.Equal(t, "", s.Value("clientDetails.customer"), "reset restores defaults, not the seed")
}

func TestState_DeletionQueueSymmetry(t *testing.T) {
	existing := []ExistingDocument{
		{ID: "d1", Name: "KYC", URL: "https://files/kyc.pdf"},
		{ID: "d2", Name: "Proposal", URL: "https://files/proposal.pdf"},
	}
	s := NewEdit(healthDefaults(), Draft{}, existing, Normalize{})

	s.RemoveExisting(0)

	require.Len(t, s.Existing(), 1)
	assert.Equal(t, "d2", s.Existing()[0].ID)
	require.Len(t, s.Deletions(), 1)
	assert.Equal(t, DeletedDocument{ID: "d1", URL: "https://files/kyc.pdf"}, s.Deletions()[0])

	sub, err := s.Submit()
	require.NoError(t, err)

	// The deleted doc must not reappear in the retained list.
	require.Len(t, sub.Retained, 1)
	assert.Equal(t, "d2", sub.Retained[0].ID)
	assert.Equal(t, sub.Deletions, s.Deletions())

	merged := sub.Draft.List("existingDocuments")
	require.Len(t, merged, 1)
	doc := merged[0].(map[string]interface{})
	assert.Equal(t, "https://files/proposal.pdf", doc["existingUrl"])
	assert.Equal(t, "Proposal", doc["existingName"])
}

func TestState_UntouchedFilesAreNoOp(t *testing.T) {
	existing := []ExistingDocument{
		{ID: "d1", Name: "KYC", URL: "https://files/kyc.pdf"},
	}
	s := NewEdit(healthDefaults(), Draft{}, existing, Normalize{})
	s.Set("insuranceDetails.policyNumber", "POL-CHANGED")

	sub, err := s.Submit()
	require.NoError(t, err)

	assert.Equal(t, existing, sub.Retained, "untouched file state survives submit unchanged")
	assert.Empty(t, sub.Deletions)
	assert.False(t, sub.PolicyFileDeleted)
	assert.Empty(t, sub.Staged)
}

func TestState_FileStaging(t *testing.T) {
	s := NewCreate(healthDefaults(), Normalize{})

	f1 := s.StageFile("uploadDocuments", "kyc.png", []byte{1})
	s.StageFile("uploadDocuments", "rc.pdf", []byte{2})
	require.Len(t, s.Staged("uploadDocuments"), 2)

	s.Unstage("uploadDocuments", f1.ID)
	require.Len(t, s.Staged("uploadDocuments"), 1)
	assert.Equal(t, "rc.pdf", s.Staged("uploadDocuments")[0].Name)

	// Single-file slot replacement.
	s.SetFile("policyFile", "v1.pdf", []byte{3})
	s.SetFile("policyFile", "v2.pdf", []byte{4})
	require.Len(t, s.Staged("policyFile"), 1)
	assert.Equal(t, "v2.pdf", s.Staged("policyFile")[0].Name)
}

func TestState_ResetIsCreateModeOneShot(t *testing.T) {
	s := NewCreate(healthDefaults(), Normalize{})
	s.Set("insuranceDetails.policyNumber", "POL-1")
	s.StageFile("uploadDocuments", "doc.pdf", []byte{1})
	s.MarkPolicyFileDeleted()

	consumed := s.SignalReset()
	require.True(t, consumed, "reset signal consumed exactly once")

	assert.Equal(t, "", s.Value("insuranceDetails.policyNumber"))
	assert.Empty(t, s.Staged("uploadDocuments"))
	assert.Empty(t, s.Existing())
	assert.Empty(t, s.Deletions())
	assert.False(t, s.PolicyFileDeleted())
}

func TestState_EditModeIgnoresReset(t *testing.T) {
	s := NewEdit(healthDefaults(), Draft{
		"insuranceDetails": map[string]interface{}{"policyNumber": "POL-9"},
	}, nil, Normalize{})

	assert.False(t, s.SignalReset())
	assert.Equal(t, "POL-9", s.Value("insuranceDetails.policyNumber"), "edit forms never self-reset")
}

func TestState_SubmitParseBoundary(t *testing.T) {
	normalize := Normalize{
		DateFields:   []string{"insuranceDetails.startDate"},
		NumberFields: []string{"premiumCommissionDetails.premiumAmount"},
	}

	t.Run("canonicalizes values", func(t *testing.T) {
		s := NewCreate(healthDefaults(), normalize)
		s.Set("insuranceDetails.startDate", "2026-04-01T00:00:00Z")
		s.Set("premiumCommissionDetails.premiumAmount", " 12500.00 ")

		sub, err := s.Submit()
		require.NoError(t, err)
		assert.Equal(t, "2026-04-01", sub.Draft.Value("insuranceDetails.startDate"))
		assert.Equal(t, "12500", sub.Draft.Value("premiumCommissionDetails.premiumAmount"))
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		s := NewCreate(healthDefaults(), normalize)
		s.Set("insuranceDetails.startDate", "31/02/2026")

		_, err := s.Submit()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insuranceDetails.startDate")
	})

	t.Run("rejects malformed number", func(t *testing.T) {
		s := NewCreate(healthDefaults(), normalize)
		s.Set("premiumCommissionDetails.premiumAmount", "12,500")

		_, err := s.Submit()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "premiumAmount")
	})
}
