package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"agencydesk/internal/resource"
)

type statsLoadedMsg struct {
	entity string
	stats  map[string]interface{}
	err    error
}

// StatsPage renders one entity's aggregate counts as cards.
type StatsPage struct {
	svc     *resource.Service
	styles  Styles
	stats   map[string]interface{}
	loading bool
	err     error
}

// NewStatsPage builds the stats page for one entity service.
func NewStatsPage(svc *resource.Service, styles Styles) *StatsPage {
	return &StatsPage{svc: svc, styles: styles}
}

// Load fetches the stats.
func (p *StatsPage) Load() tea.Cmd {
	p.loading = true
	entity := p.svc.Name()
	svc := p.svc
	return func() tea.Msg {
		stats, err := svc.Stats(context.Background())
		return statsLoadedMsg{entity: entity, stats: stats, err: err}
	}
}

// Update handles load results.
func (p *StatsPage) Update(msg tea.Msg) tea.Cmd {
	if m, ok := msg.(statsLoadedMsg); ok && m.entity == p.svc.Name() {
		p.loading = false
		p.err = m.err
		if m.err == nil {
			p.stats = m.stats
		}
	}
	return nil
}

// View renders the cards.
func (p *StatsPage) View() string {
	if p.loading && p.stats == nil {
		return p.styles.Muted.Render("loading stats...")
	}
	if p.err != nil {
		return p.styles.Error.Render("error: " + p.err.Error())
	}
	if len(p.stats) == 0 {
		return p.styles.Muted.Render("no stats")
	}

	keys := make([]string, 0, len(p.stats))
	for k := range p.stats {
		if _, nested := p.stats[k].(map[string]interface{}); nested {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cards := make([]string, 0, len(keys))
	for _, k := range keys {
		v := p.stats[k]
		if f, ok := v.(float64); ok {
			v = fmt.Sprintf("%g", f)
		}
		cards = append(cards, p.styles.StatCard.Render(
			p.styles.Title.Render(k)+"\n"+fmt.Sprintf("%v", v),
		))
	}
	return strings.Join(cards, "")
}
