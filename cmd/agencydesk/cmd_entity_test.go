package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agencydesk/internal/api"
	"agencydesk/internal/auth"
	"agencydesk/internal/customer"
	"agencydesk/internal/form"
	"agencydesk/internal/insurance"
	"agencydesk/internal/query"
	"agencydesk/internal/resource"
)

// setupEntityGlobals wires the services map the entity commands read.
// loadDraftState only consults descriptors, so the client never dials.
func setupEntityGlobals(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	mgr := auth.NewManager(
		filepath.Join(dir, "credentials.json"),
		filepath.Join(dir, "profile.json"),
		auth.NewSessions(),
	)
	client := api.New("http://127.0.0.1:0", time.Second, mgr)
	cache := query.NewCache()
	notices := query.NewNotices()

	prev := services
	t.Cleanup(func() { services = prev })
	services = map[string]*resource.Service{}
	for _, desc := range []resource.Descriptor{customer.Descriptor, insurance.Health} {
		services[desc.Name] = resource.New(client, cache, notices, nil, desc)
	}
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestLoadDraftState_StagesBothCustomerDocumentSlots(t *testing.T) {
	setupEntityGlobals(t)

	flags := &entityFlags{
		docPaths:      []string{writeTempFile(t, "kyc.pdf", []byte("kyc"))},
		extraDocPaths: []string{writeTempFile(t, "pan.pdf", []byte("pan"))},
	}
	state, err := loadDraftState("customer", flags, nil, nil)
	require.NoError(t, err)

	docs := state.Staged("documents")
	require.Len(t, docs, 1)
	assert.Equal(t, "kyc.pdf", docs[0].Name)

	extra := state.Staged("additionalDocuments")
	require.Len(t, extra, 1)
	assert.Equal(t, "pan.pdf", extra[0].Name)
}

func TestLoadDraftState_RejectsExtraDocsWithoutSecondSlot(t *testing.T) {
	setupEntityGlobals(t)

	flags := &entityFlags{
		extraDocPaths: []string{writeTempFile(t, "pan.pdf", []byte("pan"))},
	}
	_, err := loadDraftState("health-insurance", flags, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no additional document slot")
}

func TestLoadDraftState_CreateIsCreateMode(t *testing.T) {
	setupEntityGlobals(t)

	draft := writeTempFile(t, "draft.json", []byte(`{
		"clientDetails": {"customer": {"_id": "c7", "name": "Asha"}},
		"insuranceDetails": {"startDate": "2026-04-01T00:00:00Z"}
	}`))
	flags := &entityFlags{dataFile: draft}

	state, err := loadDraftState("health-insurance", flags, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, form.ModeCreate, state.Mode())
	assert.Equal(t, "c7", state.Value("clientDetails.customer"))
	assert.Equal(t, "2026-04-01", state.Value("insuranceDetails.startDate"))

	current := map[string]interface{}{"_id": "h1"}
	state, err = loadDraftState("health-insurance", &entityFlags{}, current, nil)
	require.NoError(t, err)
	assert.Equal(t, form.ModeEdit, state.Mode())
}
