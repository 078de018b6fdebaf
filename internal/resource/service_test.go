package resource

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agencydesk/internal/api"
	"agencydesk/internal/auth"
	"agencydesk/internal/form"
	"agencydesk/internal/query"
)

func testDescriptor() Descriptor {
	return Descriptor{
		Name:     "health-insurance",
		BasePath: "/health-insurance",
		ItemsKey: "healthInsurances",
		ItemKey:  "healthInsurance",
		FileSlots: []FileSlot{{
			Slot:             "uploadDocuments",
			Field:            "uploadDocuments",
			NamesField:       "documentNames",
			UpdateField:      "newUploadDocuments",
			UpdateNamesField: "newDocumentNames",
		}},
		PolicyFileSlot: "policyFile",
	}
}

func newTestService(t *testing.T, handler http.Handler) (*Service, *query.Cache) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	mgr := auth.NewManager(
		filepath.Join(dir, "credentials.json"),
		filepath.Join(dir, "profile.json"),
		auth.NewSessions(),
	)
	client := api.New(srv.URL, 5*time.Second, mgr)
	cache := query.NewCache()
	return New(client, cache, query.NewNotices(), nil, testDescriptor()), cache
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	raw, _ := json.Marshal(data)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": status < 400,
		"data":    json.RawMessage(raw),
		"message": message,
	})
}

// parseMultipart decodes a multipart request into field and file maps.
func parseMultipart(t *testing.T, r *http.Request) (map[string][]string, map[string][]string) {
	t.Helper()
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	require.NoError(t, err)
	mr := multipart.NewReader(r.Body, params["boundary"])

	fields := map[string][]string{}
	files := map[string][]string{}
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		data, _ := io.ReadAll(part)
		name := part.FormName()
		if part.FileName() != "" {
			files[name] = append(files[name], part.FileName())
		} else {
			fields[name] = append(fields[name], string(data))
		}
	}
	return fields, files
}

func TestService_CreateThenGetRoundTrip(t *testing.T) {
	stored := map[string]interface{}{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /health-insurance", func(w http.ResponseWriter, r *http.Request) {
		fields, _ := parseMultipart(t, r)
		stored["_id"] = "h1"
		for name, vals := range fields {
			var section interface{}
			if err := json.Unmarshal([]byte(vals[0]), &section); err == nil {
				stored[name] = section
			} else {
				stored[name] = vals[0]
			}
		}
		writeEnvelope(w, http.StatusCreated, stored, "created")
	})
	mux.HandleFunc("GET /health-insurance/h1", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"healthInsurance": stored}, "")
	})
	svc, _ := newTestService(t, mux)

	state := form.NewCreate(form.Draft{
		"clientDetails": map[string]interface{}{"customer": "c1"},
		"insuranceDetails": map[string]interface{}{
			"insuranceCompany": "Star Health",
			"policyNumber":     "SH-1001",
		},
	}, form.Normalize{})
	sub, err := state.Submit()
	require.NoError(t, err)

	created, err := svc.Create(context.Background(), sub)
	require.NoError(t, err)
	require.Equal(t, "h1", created["_id"])

	got, err := svc.Get(context.Background(), "h1")
	require.NoError(t, err)

	// Every supplied field survives the round trip under its own name.
	client := got["clientDetails"].(map[string]interface{})
	assert.Equal(t, "c1", client["customer"])
	details := got["insuranceDetails"].(map[string]interface{})
	assert.Equal(t, "Star Health", details["insuranceCompany"])
	assert.Equal(t, "SH-1001", details["policyNumber"])
}

func TestService_CreateMultipartLayout(t *testing.T) {
	var fields map[string][]string
	var files map[string][]string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /health-insurance", func(w http.ResponseWriter, r *http.Request) {
		fields, files = parseMultipart(t, r)
		writeEnvelope(w, http.StatusCreated, map[string]interface{}{"_id": "h1"}, "created")
	})
	svc, _ := newTestService(t, mux)

	state := form.NewCreate(form.Draft{
		"clientDetails": map[string]interface{}{"customer": "c1"},
	}, form.Normalize{})
	state.StageFile("uploadDocuments", "kyc.pdf", []byte{1})
	state.StageFile("uploadDocuments", "proposal.pdf", []byte{2})
	state.SetFile("policyFile", "policy.pdf", []byte{3})
	sub, err := state.Submit()
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), sub)
	require.NoError(t, err)

	assert.JSONEq(t, `{"customer":"c1"}`, fields["clientDetails"][0])
	assert.JSONEq(t, `["kyc.pdf","proposal.pdf"]`, fields["documentNames"][0])
	assert.Equal(t, []string{"kyc.pdf", "proposal.pdf"}, files["uploadDocuments"])
	assert.Equal(t, []string{"policy.pdf"}, files["policyFile"])
	assert.NotContains(t, fields, "deletedDocuments")
	assert.NotContains(t, fields, "deletePolicyFile")
}

func TestService_UpdateReconciliationFields(t *testing.T) {
	var fields map[string][]string
	var files map[string][]string
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /health-insurance/h1", func(w http.ResponseWriter, r *http.Request) {
		fields, files = parseMultipart(t, r)
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"_id": "h1"}, "updated")
	})
	svc, _ := newTestService(t, mux)

	existing := []form.ExistingDocument{
		{ID: "d1", Name: "KYC", URL: "https://files/kyc.pdf"},
		{ID: "d2", Name: "RC", URL: "https://files/rc.pdf"},
	}
	state := form.NewEdit(form.Draft{
		"clientDetails": map[string]interface{}{"customer": "c1"},
	}, form.Draft{}, existing, form.Normalize{})
	state.RemoveExisting(0)
	state.StageFile("uploadDocuments", "new.pdf", []byte{9})
	state.MarkPolicyFileDeleted()
	sub, err := state.Submit()
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "h1", sub)
	require.NoError(t, err)

	// New files go under the update-mode field names.
	assert.Equal(t, []string{"new.pdf"}, files["newUploadDocuments"])
	assert.JSONEq(t, `["new.pdf"]`, fields["newDocumentNames"][0])
	assert.NotContains(t, files, "uploadDocuments")

	// The deletion queue and policy-file flags ride alongside.
	assert.JSONEq(t, `[{"id":"d1","url":"https://files/kyc.pdf"}]`, fields["deletedDocuments"][0])
	assert.Equal(t, "true", fields["deletePolicyFile"][0])
	assert.Equal(t, "true", fields["deletedPolicyFile"][0])

	// Retained docs are re-sent as metadata, never silently dropped,
	// and never include the deleted one.
	require.Contains(t, fields, "existingDocuments")
	var retained []map[string]string
	require.NoError(t, json.Unmarshal([]byte(fields["existingDocuments"][0]), &retained))
	require.Len(t, retained, 1)
	assert.Equal(t, "https://files/rc.pdf", retained[0]["existingUrl"])
	assert.Equal(t, "RC", retained[0]["existingName"])
}

func TestService_UpdateUntouchedFilesSendsNoFileFields(t *testing.T) {
	var fields map[string][]string
	var files map[string][]string
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /health-insurance/h1", func(w http.ResponseWriter, r *http.Request) {
		fields, files = parseMultipart(t, r)
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"_id": "h1"}, "updated")
	})
	svc, _ := newTestService(t, mux)

	existing := []form.ExistingDocument{{ID: "d1", Name: "KYC", URL: "https://files/kyc.pdf"}}
	state := form.NewEdit(form.Draft{
		"insuranceDetails": map[string]interface{}{"policyNumber": "SH-1001"},
	}, form.Draft{}, existing, form.Normalize{})
	sub, err := state.Submit()
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "h1", sub)
	require.NoError(t, err)

	assert.Empty(t, files)
	assert.NotContains(t, fields, "deletedDocuments")
	assert.NotContains(t, fields, "deletePolicyFile")
	// The full existing set goes back unchanged.
	var retained []map[string]string
	require.NoError(t, json.Unmarshal([]byte(fields["existingDocuments"][0]), &retained))
	require.Len(t, retained, 1)
	assert.Equal(t, "https://files/kyc.pdf", retained[0]["existingUrl"])
}

func TestService_ListDecodesPagination(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health-insurance", func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "star", r.URL.Query().Get("search"))
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"healthInsurances": []map[string]interface{}{{"_id": "h1"}, {"_id": "h2"}},
			"total":            12,
			"page":             2,
			"totalPages":       6,
		}, "")
	})
	svc, _ := newTestService(t, mux)

	params := Params{Page: 2, Limit: 10, Search: "star"}
	page, err := svc.List(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 6, page.TotalPages)

	// Same params hit the cache, not the server.
	_, err = svc.List(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestService_GetEmptyIDNeverFires(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("detail query must not fire for an empty id")
	}))

	_, err := svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestService_DeleteAppliesCacheEffects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health-insurance/h1", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"_id": "h1"}, "")
	})
	mux.HandleFunc("DELETE /health-insurance/h1", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, nil, "deleted")
	})
	svc, cache := newTestService(t, mux)

	_, err := svc.Get(context.Background(), "h1")
	require.NoError(t, err)
	_, ok := cache.Peek(query.DetailKey("health-insurance", "h1"))
	require.True(t, ok)

	require.NoError(t, svc.Delete(context.Background(), "h1"))
	_, ok = cache.Peek(query.DetailKey("health-insurance", "h1"))
	assert.False(t, ok, "delete evicts the detail entry")
}

func TestService_MutationFailurePublishesNotice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, nil, "policy number already exists")
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	mgr := auth.NewManager(
		filepath.Join(dir, "credentials.json"),
		filepath.Join(dir, "profile.json"),
		auth.NewSessions(),
	)
	notices := query.NewNotices()
	svc := New(api.New(srv.URL, 5*time.Second, mgr), query.NewCache(), notices, nil, testDescriptor())

	ch, cancel := notices.Subscribe()
	defer cancel()

	state := form.NewCreate(form.Draft{}, form.Normalize{})
	sub, err := state.Submit()
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), sub)
	require.Error(t, err)
	assert.Equal(t, "policy number already exists", api.ErrorMessage(err, "fallback"))

	select {
	case n := <-ch:
		assert.Equal(t, query.LevelError, n.Level)
		assert.Equal(t, "policy number already exists", n.Message)
	case <-time.After(time.Second):
		t.Fatal("no notice published")
	}
}

type recordingJournal struct {
	entries []string
}

func (j *recordingJournal) Record(entity, op, id string, ok bool, message string) {
	state := "ok"
	if !ok {
		state = "failed"
	}
	j.entries = append(j.entries, entity+" "+op+" "+id+" "+state)
}

func TestService_JournalRecordsMutations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /health-insurance", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusCreated, map[string]interface{}{"_id": "h9"}, "created")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	mgr := auth.NewManager(
		filepath.Join(dir, "credentials.json"),
		filepath.Join(dir, "profile.json"),
		auth.NewSessions(),
	)
	journal := &recordingJournal{}
	svc := New(api.New(srv.URL, 5*time.Second, mgr), query.NewCache(), query.NewNotices(), journal, testDescriptor())

	state := form.NewCreate(form.Draft{}, form.Normalize{})
	sub, err := state.Submit()
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), sub)
	require.NoError(t, err)

	require.Len(t, journal.entries, 1)
	assert.Equal(t, "health-insurance create h9 ok", journal.entries[0])
}
