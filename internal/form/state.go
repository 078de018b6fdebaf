package form

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"agencydesk/internal/logging"
)

// Mode distinguishes create dialogs from edit dialogs.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// StagedFile is a file the user selected but has not submitted. Held
// in memory only; it dies with the dialog.
type StagedFile struct {
	ID   string // local handle for UI removal
	Name string
	Data []byte
}

// ExistingDocument is a file already persisted with the entity,
// fetched in edit mode.
type ExistingDocument struct {
	ID      string `json:"_id"`
	Name    string `json:"documentName"`
	URL     string `json:"documentUrl"`
	DocType string `json:"documentType,omitempty"`
}

// DeletedDocument identifies an existing file queued for removal. The
// queue is applied only at submit time.
type DeletedDocument struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Normalize configures the parse boundary applied at submit: these
// string-typed leaves must hold canonical dates/numbers before
// transmission rather than trusting the server to coerce.
type Normalize struct {
	DateFields   []string
	NumberFields []string
}

// State is the draft and file state behind one open dialog. The form
// component exclusively owns it for the dialog's lifetime; it is
// discarded on close or after a successful submit.
type State struct {
	mode      Mode
	defaults  Draft
	draft     Draft
	normalize Normalize

	staged    map[string][]StagedFile
	existing  []ExistingDocument
	deletions []DeletedDocument

	// Single named file (the policy file) deletion flag for edit mode.
	policyFileDeleted bool
}

// NewCreate seeds a create-mode form from defaults.
func NewCreate(defaults Draft, normalize Normalize) *State {
	return &State{
		mode:      ModeCreate,
		defaults:  defaults,
		draft:     defaults.Clone(),
		normalize: normalize,
		staged:    make(map[string][]StagedFile),
	}
}

// NewCreateFrom seeds a create-mode form from defaults overlaid with a
// prefilled draft, normalized the same way edit seeding is. Used when
// a create starts from externally supplied data rather than a blank
// form.
func NewCreateFrom(defaults Draft, initial Draft, normalize Normalize) *State {
	s := NewEdit(defaults, initial, nil, normalize)
	s.mode = ModeCreate
	return s
}

// NewEdit seeds an edit-mode form from an existing entity. Dates are
// reduced to input form, the customer reference is reduced to its id,
// and the entity's persisted documents populate the existing list.
func NewEdit(defaults Draft, initial Draft, existing []ExistingDocument, normalize Normalize) *State {
	draft := defaults.Clone()
	for k, v := range initial.Clone() {
		draft[k] = v
	}
	if v := draft.Get("clientDetails.customer"); v != nil {
		draft = draft.Set("clientDetails.customer", CustomerID(v))
	}
	for _, path := range normalize.DateFields {
		if s := draft.Value(path); s != "" {
			draft = draft.Set(path, NormalizeDate(s))
		}
	}

	docs := make([]ExistingDocument, len(existing))
	copy(docs, existing)

	return &State{
		mode:      ModeEdit,
		defaults:  defaults,
		draft:     draft,
		normalize: normalize,
		staged:    make(map[string][]StagedFile),
		existing:  docs,
	}
}

// Mode returns the form's mode.
func (s *State) Mode() Mode { return s.mode }

// Draft returns the current draft.
func (s *State) Draft() Draft { return s.draft }

// Value satisfies validation.Source.
func (s *State) Value(path string) string { return s.draft.Value(path) }

// Set updates one nested leaf without disturbing sibling branches.
func (s *State) Set(path string, value string) {
	s.draft = s.draft.Set(path, value)
}

// Append adds a blank templated record to a repeatable section.
func (s *State) Append(section string, template map[string]interface{}) {
	list := append(s.draft.List(section), cloneValue(template))
	s.draft = s.draft.Set(section, list)
}

// Remove drops the record at index i from a repeatable section.
func (s *State) Remove(section string, i int) {
	list := s.draft.List(section)
	if i < 0 || i >= len(list) {
		return
	}
	out := make([]interface{}, 0, len(list)-1)
	out = append(out, list[:i]...)
	out = append(out, list[i+1:]...)
	s.draft = s.draft.Set(section, out)
}

// SetAt updates one field of the record at index i in a repeatable
// section.
func (s *State) SetAt(section string, i int, field, value string) {
	list := s.draft.List(section)
	if i < 0 || i >= len(list) {
		return
	}
	rec, ok := toMap(list[i])
	if !ok {
		return
	}
	rec = cloneMap(rec)
	rec[field] = value
	out := make([]interface{}, len(list))
	copy(out, list)
	out[i] = rec
	s.draft = s.draft.Set(section, out)
}

// StageFile stages a newly selected file under a slot.
func (s *State) StageFile(slot, name string, data []byte) StagedFile {
	f := StagedFile{ID: uuid.NewString(), Name: name, Data: data}
	s.staged[slot] = append(s.staged[slot], f)
	logging.FormsDebug("staged %s under %s (%d bytes)", name, slot, len(data))
	return f
}

// SetFile replaces a single-file slot (the policy file).
func (s *State) SetFile(slot, name string, data []byte) StagedFile {
	f := StagedFile{ID: uuid.NewString(), Name: name, Data: data}
	s.staged[slot] = []StagedFile{f}
	return f
}

// Unstage removes a staged file by its local id.
func (s *State) Unstage(slot, id string) {
	files := s.staged[slot]
	for i, f := range files {
		if f.ID == id {
			s.staged[slot] = append(files[:i:i], files[i+1:]...)
			return
		}
	}
}

// Staged returns the staged files for a slot.
func (s *State) Staged(slot string) []StagedFile { return s.staged[slot] }

// Existing returns the visible existing documents.
func (s *State) Existing() []ExistingDocument { return s.existing }

// Deletions returns the deletion queue.
func (s *State) Deletions() []DeletedDocument { return s.deletions }

// RemoveExisting moves the existing document at index i into the
// deletion queue and drops it from the visible list. The two moves are
// symmetric and there is no undo within the editing session; the
// server sees the deletion only at submit.
func (s *State) RemoveExisting(i int) {
	if i < 0 || i >= len(s.existing) {
		return
	}
	doc := s.existing[i]
	s.deletions = append(s.deletions, DeletedDocument{ID: doc.ID, URL: doc.URL})
	s.existing = append(s.existing[:i:i], s.existing[i+1:]...)
	logging.FormsDebug("queued deletion of %s", doc.Name)
}

// MarkPolicyFileDeleted flags the single named policy file for
// deletion at submit (edit mode).
func (s *State) MarkPolicyFileDeleted() { s.policyFileDeleted = true }

// PolicyFileDeleted reports the flag.
func (s *State) PolicyFileDeleted() bool { return s.policyFileDeleted }

// SignalReset handles the parent's one-shot reset signal. Only honored
// in create mode: edit-mode forms never self-reset while bound to
// their initial data. Returns true when the signal was consumed.
func (s *State) SignalReset() bool {
	if s.mode != ModeCreate {
		return false
	}
	s.draft = s.defaults.Clone()
	s.staged = make(map[string][]StagedFile)
	s.existing = nil
	s.deletions = nil
	s.policyFileDeleted = false
	logging.Forms("create form reset to defaults")
	return true
}

// Submission is what the form hands to the parent-supplied submit
// callback. The form itself performs no network call.
type Submission struct {
	Draft             Draft
	Staged            map[string][]StagedFile
	Retained          []ExistingDocument
	Deletions         []DeletedDocument
	PolicyFileDeleted bool
}

// Submit assembles the outgoing submission: the retained existing
// documents are merged into the draft (so the server can reconcile the
// full desired document set in one pass), the deletion queue rides
// alongside, and the parse boundary canonicalizes date and numeric
// leaves. Returns an error naming the first malformed leaf.
func (s *State) Submit() (*Submission, error) {
	draft := s.draft.Clone()

	for _, path := range s.normalize.DateFields {
		v := draft.Value(path)
		if v == "" {
			continue
		}
		norm := NormalizeDate(v)
		if !validDate(norm) {
			return nil, fmt.Errorf("field %s holds an invalid date %q", path, v)
		}
		draft = draft.Set(path, norm)
	}
	for _, path := range s.normalize.NumberFields {
		v := draft.Value(path)
		canon, ok := CanonicalNumber(v)
		if !ok {
			return nil, fmt.Errorf("field %s holds an invalid number %q", path, v)
		}
		if canon != v {
			draft = draft.Set(path, canon)
		}
	}

	retained := make([]ExistingDocument, len(s.existing))
	copy(retained, s.existing)
	if len(retained) > 0 {
		merged := make([]interface{}, 0, len(retained))
		for _, doc := range retained {
			merged = append(merged, map[string]interface{}{
				"existingUrl":  doc.URL,
				"existingName": doc.Name,
				"documentName": doc.Name,
			})
		}
		draft["existingDocuments"] = merged
	}

	staged := make(map[string][]StagedFile, len(s.staged))
	for slot, files := range s.staged {
		staged[slot] = append([]StagedFile(nil), files...)
	}
	deletions := make([]DeletedDocument, len(s.deletions))
	copy(deletions, s.deletions)

	return &Submission{
		Draft:             draft,
		Staged:            staged,
		Retained:          retained,
		Deletions:         deletions,
		PolicyFileDeleted: s.policyFileDeleted,
	}, nil
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
