// Package resource implements the generic entity service shared by
// customers and the three policy types: list/stats/dropdown/detail
// reads through the query cache, multipart create/update, soft
// delete, restore, status toggle and export. Each entity supplies a
// Descriptor; the four near-identical per-entity services collapse
// into this one module.
package resource

import (
	"net/url"
	"strconv"

	"agencydesk/internal/form"
	"agencydesk/internal/validation"
)

// FileSlot maps one multi-file staging slot onto its multipart field
// names. Create and update requests use different field names so the
// server can distinguish newly uploaded files from retained ones.
type FileSlot struct {
	Slot             string // staging slot in form.State
	Field            string // create-mode file field
	NamesField       string // aligned names JSON array (create)
	UpdateField      string // update-mode file field
	UpdateNamesField string // aligned names JSON array (update)
}

// Descriptor configures one entity's service instance.
type Descriptor struct {
	Name         string // cache entity name ("customer", "health-insurance", ...)
	BasePath     string // list/create collection path ("/customers")
	StatsPath    string // defaults to BasePath + "/stats"
	DropdownPath string // defaults to BasePath + "/dropdown"
	ExportPath   string // defaults to BasePath + "/export"

	ItemsKey string // key holding the item array in list payloads
	ItemKey  string // key wrapping a single entity in detail payloads, "" if bare

	FileSlots      []FileSlot
	PolicyFileSlot string // single-file slot sent under its own field name, "" if none

	Rules     validation.RuleSet
	Normalize form.Normalize
	Defaults  func() form.Draft

	// Option maps one raw dropdown record to a {value, label} pair.
	// Nil expects records already shaped as {value, label}.
	Option func(map[string]interface{}) form.Option
}

func (d Descriptor) statsPath() string {
	if d.StatsPath != "" {
		return d.StatsPath
	}
	return d.BasePath + "/stats"
}

func (d Descriptor) dropdownPath() string {
	if d.DropdownPath != "" {
		return d.DropdownPath
	}
	return d.BasePath + "/dropdown"
}

func (d Descriptor) exportPath() string {
	if d.ExportPath != "" {
		return d.ExportPath
	}
	return d.BasePath + "/export"
}

// Params are the list-query parameters every collection endpoint
// accepts. Callers supply defaults; the zero value means "server
// default".
type Params struct {
	Page      int               `json:"page"`
	Limit     int               `json:"limit"`
	Search    string            `json:"search,omitempty"`
	Filters   map[string]string `json:"filters,omitempty"`
	SortBy    string            `json:"sortBy,omitempty"`
	SortOrder string            `json:"sortOrder,omitempty"`
}

// Values renders the params as URL query parameters.
func (p Params) Values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	for k, v := range p.Filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sortOrder", p.SortOrder)
	}
	return q
}

// ListPage is one decoded page of a collection listing.
type ListPage struct {
	Items      []map[string]interface{}
	Total      int
	Page       int
	TotalPages int
}
