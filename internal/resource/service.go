package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"agencydesk/internal/api"
	"agencydesk/internal/form"
	"agencydesk/internal/logging"
	"agencydesk/internal/query"
)

// ErrEmptyID marks a detail request for an unset id. Detail queries
// never fire without an id; callers treat this as "nothing to show",
// not a failure.
var ErrEmptyID = errors.New("detail query disabled for empty id")

// Journal records one performed mutation for the local activity log.
// Optional; a nil journal is skipped.
type Journal interface {
	Record(entity, op, id string, ok bool, message string)
}

// Service is one entity's data layer: reads flow through the shared
// query cache, mutations apply the per-kind invalidation effects and
// surface user notices. The service itself is stateless beyond its
// collaborators.
type Service struct {
	client  *api.Client
	cache   *query.Cache
	notices *query.Notices
	journal Journal
	desc    Descriptor
}

// New builds a service for one entity descriptor. journal may be nil.
func New(client *api.Client, cache *query.Cache, notices *query.Notices, journal Journal, desc Descriptor) *Service {
	return &Service{client: client, cache: cache, notices: notices, journal: journal, desc: desc}
}

// Descriptor returns the entity descriptor the service was built with.
func (s *Service) Descriptor() Descriptor { return s.desc }

// Name returns the entity name used for cache keys.
func (s *Service) Name() string { return s.desc.Name }

// List fetches one collection page. Repeated calls with identical
// params hit the cache; a stale entry keeps serving its previous page
// while the refetch runs.
func (s *Service) List(ctx context.Context, params Params) (*ListPage, error) {
	key := query.ListKey(s.desc.Name, params)
	v, err := s.cache.Fetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		env, err := s.client.Get(ctx, s.desc.BasePath, params.Values())
		if err != nil {
			return nil, err
		}
		return s.decodeList(env)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ListPage), nil
}

// Stats fetches the entity's aggregate counts.
func (s *Service) Stats(ctx context.Context) (map[string]interface{}, error) {
	key := query.StatsKey(s.desc.Name)
	v, err := s.cache.Fetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		env, err := s.client.Get(ctx, s.desc.statsPath(), nil)
		if err != nil {
			return nil, err
		}
		var stats map[string]interface{}
		if err := env.Decode(&stats); err != nil {
			return nil, fmt.Errorf("failed to decode %s stats: %w", s.desc.Name, err)
		}
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]interface{}), nil
}

// Dropdown fetches the lightweight {value, label} pairs used for
// foreign-key selection.
func (s *Service) Dropdown(ctx context.Context) ([]form.Option, error) {
	key := query.DropdownKey(s.desc.Name)
	v, err := s.cache.Fetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		env, err := s.client.Get(ctx, s.desc.dropdownPath(), nil)
		if err != nil {
			return nil, err
		}
		return s.decodeOptions(env)
	})
	if err != nil {
		return nil, err
	}
	return v.([]form.Option), nil
}

// Get fetches one entity by id through the detail cache. An empty id
// returns ErrEmptyID without touching the network or the cache.
func (s *Service) Get(ctx context.Context, id string) (map[string]interface{}, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	key := query.DetailKey(s.desc.Name, id)
	v, err := s.cache.Fetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		env, err := s.client.Get(ctx, s.desc.BasePath+"/"+id, nil)
		if err != nil {
			return nil, err
		}
		return s.decodeDetail(env)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]interface{}), nil
}

// Create submits a new entity assembled by the form layer.
func (s *Service) Create(ctx context.Context, sub *form.Submission) (map[string]interface{}, error) {
	f, err := s.buildForm(sub, false)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, query.MutationCreate, "", func(ctx context.Context) (*api.Envelope, error) {
		return s.client.SendMultipart(ctx, http.MethodPost, s.desc.BasePath, f)
	})
}

// Update submits edits to an existing entity, including the file
// reconciliation fields: newly staged files, the deletion queue, and
// the retained existing documents already merged into the draft.
func (s *Service) Update(ctx context.Context, id string, sub *form.Submission) (map[string]interface{}, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	f, err := s.buildForm(sub, true)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, query.MutationUpdate, id, func(ctx context.Context) (*api.Envelope, error) {
		return s.client.SendMultipart(ctx, http.MethodPut, s.desc.BasePath+"/"+id, f)
	})
}

// Delete soft-deletes an entity.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	_, err := s.mutate(ctx, query.MutationDelete, id, func(ctx context.Context) (*api.Envelope, error) {
		return s.client.SendJSON(ctx, http.MethodDelete, s.desc.BasePath+"/"+id, nil)
	})
	return err
}

// Restore reverses a soft delete.
func (s *Service) Restore(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	_, err := s.mutate(ctx, query.MutationDelete, id, func(ctx context.Context) (*api.Envelope, error) {
		return s.client.SendJSON(ctx, http.MethodPatch, s.desc.BasePath+"/"+id+"/restore", nil)
	})
	return err
}

// ToggleStatus flips an entity's active flag.
func (s *Service) ToggleStatus(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	_, err := s.mutate(ctx, query.MutationToggle, id, func(ctx context.Context) (*api.Envelope, error) {
		return s.client.SendJSON(ctx, http.MethodPatch, s.desc.BasePath+"/"+id+"/toggle-status", nil)
	})
	return err
}

// Export fetches the server-rendered spreadsheet for this entity.
func (s *Service) Export(ctx context.Context, params Params) (*api.Download, error) {
	return s.client.GetBinary(ctx, s.desc.exportPath(), params.Values())
}

// mutate runs one mutation, applies the cache effects for its kind on
// success, and converts the outcome into a user notice either way.
// Errors are still returned so callers can branch (keep a dialog open).
func (s *Service) mutate(ctx context.Context, kind query.MutationKind, id string, call func(ctx context.Context) (*api.Envelope, error)) (map[string]interface{}, error) {
	env, err := call(ctx)
	if err != nil {
		logging.APIWarn("%s %s failed: %v", s.desc.Name, kind, err)
		if s.notices != nil {
			s.notices.Failure(err, fmt.Sprintf("%s %s failed", s.desc.Name, kind))
		}
		if s.journal != nil {
			s.journal.Record(s.desc.Name, string(kind), id, false, api.ErrorMessage(err, err.Error()))
		}
		return nil, err
	}

	var result map[string]interface{}
	if len(env.Data) > 0 && !bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		if decErr := env.Decode(&result); decErr != nil {
			logging.APIDebug("%s %s returned non-object data: %v", s.desc.Name, kind, decErr)
		}
	}
	if id == "" {
		id = entityID(result)
	}

	s.cache.ApplyMutationEffects(s.desc.Name, kind, id, result)
	message := env.Message
	if message == "" {
		message = fmt.Sprintf("%s %s succeeded", s.desc.Name, kind)
	}
	if s.notices != nil {
		s.notices.Success(message)
	}
	if s.journal != nil {
		s.journal.Record(s.desc.Name, string(kind), id, true, message)
	}
	return result, nil
}

// buildForm serializes a submission into multipart form data. Every
// present top-level draft entry becomes either a plain field (string
// leaves) or a JSON-stringified field (nested sections); absent
// sections are omitted entirely.
func (s *Service) buildForm(sub *form.Submission, update bool) (*api.Form, error) {
	f := api.NewForm()

	keys := make([]string, 0, len(sub.Draft))
	for k := range sub.Draft {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := sub.Draft[k].(type) {
		case nil:
			// omitted
		case string:
			if v != "" {
				f.AddField(k, v)
			}
		default:
			if err := f.AddJSON(k, v); err != nil {
				return nil, fmt.Errorf("failed to serialize section %s: %w", k, err)
			}
		}
	}

	for _, slot := range s.desc.FileSlots {
		files := sub.Staged[slot.Slot]
		if len(files) == 0 {
			continue
		}
		field, namesField := slot.Field, slot.NamesField
		if update {
			if slot.UpdateField != "" {
				field = slot.UpdateField
			}
			if slot.UpdateNamesField != "" {
				namesField = slot.UpdateNamesField
			}
		}
		names := make([]string, 0, len(files))
		for _, file := range files {
			f.AddFile(field, file.Name, file.Data)
			names = append(names, file.Name)
		}
		if namesField != "" {
			if err := f.AddJSON(namesField, names); err != nil {
				return nil, fmt.Errorf("failed to serialize %s: %w", namesField, err)
			}
		}
	}

	if s.desc.PolicyFileSlot != "" {
		for _, file := range sub.Staged[s.desc.PolicyFileSlot] {
			f.AddFile(s.desc.PolicyFileSlot, file.Name, file.Data)
		}
	}

	if update {
		if len(sub.Deletions) > 0 {
			if err := f.AddJSON("deletedDocuments", sub.Deletions); err != nil {
				return nil, fmt.Errorf("failed to serialize deletedDocuments: %w", err)
			}
		}
		if sub.PolicyFileDeleted {
			f.AddField("deletePolicyFile", "true")
			f.AddField("deletedPolicyFile", "true")
		}
	}
	return f, nil
}

func (s *Service) decodeList(env *api.Envelope) (*ListPage, error) {
	data := bytes.TrimSpace(env.Data)
	page := &ListPage{Page: 1, TotalPages: 1}

	// Bare-array payloads carry no pagination metadata.
	if bytes.HasPrefix(data, []byte("[")) {
		if err := json.Unmarshal(data, &page.Items); err != nil {
			return nil, fmt.Errorf("failed to decode %s list: %w", s.desc.Name, err)
		}
		page.Total = len(page.Items)
		return page, nil
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s list: %w", s.desc.Name, err)
	}
	itemsRaw, ok := payload[s.desc.ItemsKey]
	if !ok {
		return nil, fmt.Errorf("%s list payload has no %q array", s.desc.Name, s.desc.ItemsKey)
	}
	if err := json.Unmarshal(itemsRaw, &page.Items); err != nil {
		return nil, fmt.Errorf("failed to decode %s items: %w", s.desc.Name, err)
	}
	page.Total = intField(payload, "total", "totalCount")
	if p := intField(payload, "page", "currentPage"); p > 0 {
		page.Page = p
	}
	if tp := intField(payload, "totalPages", "pages"); tp > 0 {
		page.TotalPages = tp
	}
	if page.Total == 0 {
		page.Total = len(page.Items)
	}
	return page, nil
}

func (s *Service) decodeDetail(env *api.Envelope) (map[string]interface{}, error) {
	var detail map[string]interface{}
	if err := env.Decode(&detail); err != nil {
		return nil, fmt.Errorf("failed to decode %s detail: %w", s.desc.Name, err)
	}
	if s.desc.ItemKey != "" {
		if inner, ok := detail[s.desc.ItemKey].(map[string]interface{}); ok {
			return inner, nil
		}
	}
	return detail, nil
}

func (s *Service) decodeOptions(env *api.Envelope) ([]form.Option, error) {
	data := bytes.TrimSpace(env.Data)
	var records []map[string]interface{}
	if bytes.HasPrefix(data, []byte("[")) {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to decode %s dropdown: %w", s.desc.Name, err)
		}
	} else {
		var payload map[string]json.RawMessage
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode %s dropdown: %w", s.desc.Name, err)
		}
		if raw, ok := payload[s.desc.ItemsKey]; ok {
			if err := json.Unmarshal(raw, &records); err != nil {
				return nil, fmt.Errorf("failed to decode %s dropdown items: %w", s.desc.Name, err)
			}
		}
	}

	opts := make([]form.Option, 0, len(records))
	for _, rec := range records {
		var opt form.Option
		if s.desc.Option != nil {
			opt = s.desc.Option(rec)
		} else {
			opt = form.Option{Value: stringField(rec, "value"), Label: stringField(rec, "label")}
		}
		if opt.Value != "" {
			opts = append(opts, opt)
		}
	}
	return opts, nil
}

func entityID(m map[string]interface{}) string {
	return stringField(m, "_id")
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func intField(payload map[string]json.RawMessage, keys ...string) int {
	for _, k := range keys {
		raw, ok := payload[k]
		if !ok {
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			continue
		}
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	}
	return 0
}
