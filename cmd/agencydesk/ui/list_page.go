package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"agencydesk/internal/resource"
)

type listLoadedMsg struct {
	entity string
	page   *resource.ListPage
	err    error
}

type mutationDoneMsg struct {
	entity string
	err    error
}

// ListPage renders one entity's collection: a table with pagination,
// row selection for bulk actions, and a search box. Stale cached data
// stays visible while a refetch runs.
type ListPage struct {
	svc    *resource.Service
	styles Styles
	specs  []columnSpec

	table  table.Model
	pager  paginator.Model
	search textinput.Model

	params    resource.Params
	page      *resource.ListPage
	loading   bool
	stale     bool
	err       error
	selected  map[string]bool
	searching bool
	confirm   string // pending bulk-delete prompt, "" when none
}

// NewListPage builds the page for one entity service.
func NewListPage(svc *resource.Service, pageSize int, styles Styles) *ListPage {
	specs := columnsFor(svc.Name())
	tbl := table.New(
		table.WithColumns(tableColumns(specs)),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	pg := paginator.New()
	pg.Type = paginator.Arabic

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"

	if pageSize <= 0 {
		pageSize = 10
	}
	return &ListPage{
		svc:      svc,
		styles:   styles,
		specs:    specs,
		table:    tbl,
		pager:    pg,
		search:   search,
		params:   resource.Params{Page: 1, Limit: pageSize},
		selected: map[string]bool{},
	}
}

// Load fetches the current page.
func (p *ListPage) Load() tea.Cmd {
	p.loading = true
	p.stale = p.page != nil
	entity := p.svc.Name()
	params := p.params
	svc := p.svc
	return func() tea.Msg {
		page, err := svc.List(context.Background(), params)
		return listLoadedMsg{entity: entity, page: page, err: err}
	}
}

// SetSize resizes the table.
func (p *ListPage) SetSize(w, h int) {
	p.table.SetWidth(w)
	if h > 8 {
		p.table.SetHeight(h - 8)
	}
}

// SelectedID returns the id of the highlighted row.
func (p *ListPage) SelectedID() string {
	if p.page == nil {
		return ""
	}
	i := p.table.Cursor()
	if i < 0 || i >= len(p.page.Items) {
		return ""
	}
	if id, ok := p.page.Items[i]["_id"].(string); ok {
		return id
	}
	return ""
}

// SelectedItem returns the highlighted row's raw record.
func (p *ListPage) SelectedItem() map[string]interface{} {
	if p.page == nil {
		return nil
	}
	i := p.table.Cursor()
	if i < 0 || i >= len(p.page.Items) {
		return nil
	}
	return p.page.Items[i]
}

// Marked returns the ids toggled for bulk actions.
func (p *ListPage) Marked() []string {
	ids := make([]string, 0, len(p.selected))
	for id, on := range p.selected {
		if on {
			ids = append(ids, id)
		}
	}
	return ids
}

// Update handles page input and load results.
func (p *ListPage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case listLoadedMsg:
		if msg.entity != p.svc.Name() {
			return nil
		}
		p.loading = false
		p.stale = false
		p.err = msg.err
		if msg.err == nil {
			p.page = msg.page
			p.pager.SetTotalPages(max(msg.page.TotalPages, 1))
			p.pager.Page = msg.page.Page - 1
			p.refreshRows()
		}
		return nil

	case mutationDoneMsg:
		if msg.entity != p.svc.Name() || msg.err != nil {
			return nil
		}
		p.selected = map[string]bool{}
		return p.Load()

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return nil
}

func (p *ListPage) handleKey(key tea.KeyMsg) tea.Cmd {
	if p.searching {
		switch key.Type {
		case tea.KeyEnter:
			p.searching = false
			p.search.Blur()
			p.params.Search = p.search.Value()
			p.params.Page = 1
			return p.Load()
		case tea.KeyEsc:
			p.searching = false
			p.search.Blur()
			return nil
		}
		var cmd tea.Cmd
		p.search, cmd = p.search.Update(key)
		return cmd
	}

	if p.confirm != "" {
		switch key.String() {
		case "y", "Y":
			ids := p.Marked()
			if len(ids) == 0 {
				ids = []string{p.SelectedID()}
			}
			p.confirm = ""
			return p.deleteCmd(ids)
		default:
			p.confirm = ""
		}
		return nil
	}

	switch key.String() {
	case "/":
		p.searching = true
		p.search.Focus()
		return nil
	case " ":
		if id := p.SelectedID(); id != "" {
			p.selected[id] = !p.selected[id]
		}
		return nil
	case "r":
		p.params.Page = 1
		return p.Load()
	case "]", "right":
		if p.page != nil && p.params.Page < p.page.TotalPages {
			p.params.Page++
			return p.Load()
		}
		return nil
	case "[", "left":
		if p.params.Page > 1 {
			p.params.Page--
			return p.Load()
		}
		return nil
	case "d":
		n := len(p.Marked())
		if n == 0 && p.SelectedID() == "" {
			return nil
		}
		if n == 0 {
			n = 1
		}
		p.confirm = fmt.Sprintf("delete %d record(s)? y/N", n)
		return nil
	case "t":
		if id := p.SelectedID(); id != "" {
			return p.toggleCmd(id)
		}
		return nil
	}

	var cmd tea.Cmd
	p.table, cmd = p.table.Update(key)
	return cmd
}

func (p *ListPage) deleteCmd(ids []string) tea.Cmd {
	entity := p.svc.Name()
	svc := p.svc
	return func() tea.Msg {
		var firstErr error
		for _, id := range ids {
			if err := svc.Delete(context.Background(), id); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return mutationDoneMsg{entity: entity, err: firstErr}
	}
}

func (p *ListPage) toggleCmd(id string) tea.Cmd {
	entity := p.svc.Name()
	svc := p.svc
	return func() tea.Msg {
		err := svc.ToggleStatus(context.Background(), id)
		return mutationDoneMsg{entity: entity, err: err}
	}
}

func (p *ListPage) refreshRows() {
	rows := make([]table.Row, 0, len(p.page.Items))
	for _, item := range p.page.Items {
		row := make(table.Row, len(p.specs))
		for i, spec := range p.specs {
			cell := spec.Value(item)
			if i == 0 {
				if id, ok := item["_id"].(string); ok && p.selected[id] {
					cell = "* " + cell
				}
			}
			row[i] = cell
		}
		rows = append(rows, row)
	}
	p.table.SetRows(rows)
}

// View renders the page.
func (p *ListPage) View() string {
	var sb strings.Builder
	if p.searching {
		sb.WriteString(p.search.View())
		sb.WriteString("\n")
	}
	if p.err != nil {
		sb.WriteString(p.styles.Error.Render("error: " + p.err.Error()))
		sb.WriteString("\n")
	}
	if p.stale && p.loading {
		sb.WriteString(p.styles.Stale.Render("refreshing, showing previous page"))
		sb.WriteString("\n")
	} else if p.loading {
		sb.WriteString(p.styles.Muted.Render("loading..."))
		sb.WriteString("\n")
	}

	// Stale data stays on screen while the next page loads.
	p.refreshRowsIfLoaded()
	sb.WriteString(p.table.View())
	sb.WriteString("\n")

	if p.page != nil {
		sb.WriteString(p.styles.Footer.Render(fmt.Sprintf(
			"page %d/%d · %d total · %s",
			p.page.Page, p.page.TotalPages, p.page.Total, p.pager.View(),
		)))
	}
	if p.confirm != "" {
		sb.WriteString("\n")
		sb.WriteString(p.styles.Warning.Render(p.confirm))
	}
	return sb.String()
}

func (p *ListPage) refreshRowsIfLoaded() {
	if p.page != nil {
		p.refreshRows()
	}
}
