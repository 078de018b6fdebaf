package ui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"agencydesk/internal/auth"
	"agencydesk/internal/form"
	"agencydesk/internal/query"
	"agencydesk/internal/resource"
)

type noticeMsg query.Notice

type sessionMsg auth.Event

// App is the dashboard root model: one tab per entity, each with a
// list page and a stats page, plus the shared dialog overlay and the
// notice toast line.
type App struct {
	styles   Styles
	services []*resource.Service
	notices  *query.Notices
	sessions *auth.Sessions

	tab       int
	showStats bool
	lists     []*ListPage
	stats     []*StatsPage
	dialog    Dialog

	toast      string
	toastLevel query.Level
	width      int
	height     int
	quitting   bool

	noticeCh   <-chan query.Notice
	noticeOff  func()
	sessionCh  <-chan auth.Event
	sessionOff func()
}

// NewApp builds the dashboard over the entity services.
func NewApp(services []*resource.Service, notices *query.Notices, sessions *auth.Sessions, pageSize int) *App {
	styles := NewStyles()
	app := &App{
		styles:   styles,
		services: services,
		notices:  notices,
		sessions: sessions,
		dialog:   NewDialog(styles),
	}
	for _, svc := range services {
		app.lists = append(app.lists, NewListPage(svc, pageSize, styles))
		app.stats = append(app.stats, NewStatsPage(svc, styles))
	}
	app.noticeCh, app.noticeOff = notices.Subscribe()
	app.sessionCh, app.sessionOff = sessions.Subscribe()
	return app
}

// Init loads the first tab and starts the broadcast listeners.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.lists[0].Load(), a.waitNotice(), a.waitSession())
}

func (a *App) waitNotice() tea.Cmd {
	ch := a.noticeCh
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noticeMsg(n)
	}
}

func (a *App) waitSession() tea.Cmd {
	ch := a.sessionCh
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return sessionMsg(ev)
	}
}

// Update routes messages to the dialog, the active page, and the
// toast line.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		for _, p := range a.lists {
			p.SetSize(msg.Width, msg.Height)
		}
		return a, nil

	case noticeMsg:
		a.toast = msg.Message
		a.toastLevel = msg.Level
		return a, a.waitNotice()

	case sessionMsg:
		if msg.Type == auth.EventExpired || msg.Type == auth.EventLogout {
			// Session is gone; the dashboard cannot continue.
			a.quitting = true
			return a, tea.Quit
		}
		return a, a.waitSession()

	case dialogResultMsg:
		return a, a.dialog.Update(msg)
	}

	if a.dialog.Phase() != DialogClosed {
		return a, a.dialog.Update(msg)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "ctrl+c":
			if !a.activeList().searching {
				a.quitting = true
				return a, tea.Quit
			}
		case "tab":
			if !a.activeList().searching {
				a.tab = (a.tab + 1) % len(a.services)
				return a, a.loadActive()
			}
		case "s":
			if !a.activeList().searching {
				a.showStats = !a.showStats
				return a, a.loadActive()
			}
		case "n":
			if !a.showStats && !a.activeList().searching {
				return a, a.openCreateDialog()
			}
		case "e":
			if !a.showStats && !a.activeList().searching {
				return a, a.openEditDialog()
			}
		}
	}

	if a.showStats {
		return a, a.stats[a.tab].Update(msg)
	}
	return a, a.lists[a.tab].Update(msg)
}

func (a *App) activeList() *ListPage { return a.lists[a.tab] }

func (a *App) loadActive() tea.Cmd {
	if a.showStats {
		return a.stats[a.tab].Load()
	}
	return a.lists[a.tab].Load()
}

func (a *App) openCreateDialog() tea.Cmd {
	svc := a.services[a.tab]
	desc := svc.Descriptor()
	state := form.NewCreate(desc.Defaults(), desc.Normalize)
	a.dialog.Open(
		"New "+desc.Name,
		state,
		FieldsFor(desc.Name),
		desc.Rules,
		a.submitFunc(func(ctx context.Context, sub *form.Submission) error {
			_, err := svc.Create(ctx, sub)
			return err
		}),
	)
	if desc.Name == "customer" {
		return nil
	}
	return a.loadCustomerOptions(nil)
}

func (a *App) openEditDialog() tea.Cmd {
	svc := a.services[a.tab]
	desc := svc.Descriptor()
	item := a.activeList().SelectedItem()
	if item == nil {
		return nil
	}
	id, _ := item["_id"].(string)
	if id == "" {
		return nil
	}

	existing := existingDocuments(item)
	state := form.NewEdit(desc.Defaults(), form.Draft(item), existing, desc.Normalize)
	a.dialog.Open(
		"Edit "+desc.Name,
		state,
		FieldsFor(desc.Name),
		desc.Rules,
		a.submitFunc(func(ctx context.Context, sub *form.Submission) error {
			_, err := svc.Update(ctx, id, sub)
			return err
		}),
	)
	if desc.Name == "customer" {
		return nil
	}
	return a.loadCustomerOptions(a.selectedCustomer(item, state))
}

// customerService finds the customer tab's service, the source of the
// foreign-key dropdown every policy dialog binds.
func (a *App) customerService() *resource.Service {
	for _, svc := range a.services {
		if svc.Name() == "customer" {
			return svc
		}
	}
	return nil
}

// selectedCustomer rebuilds the {value, label} pair for the customer
// already assigned to the policy being edited, from the raw record
// when it embeds the customer object, else from the normalized id.
func (a *App) selectedCustomer(item map[string]interface{}, state *form.State) *form.Option {
	cd, _ := item["clientDetails"].(map[string]interface{})
	if rec, ok := cd["customer"].(map[string]interface{}); ok {
		if svc := a.customerService(); svc != nil && svc.Descriptor().Option != nil {
			if o := svc.Descriptor().Option(rec); o.Value != "" {
				return &o
			}
		}
	}
	id := state.Value("clientDetails.customer")
	if id == "" {
		return nil
	}
	return &form.Option{Value: id, Label: id}
}

// loadCustomerOptions fetches the customer dropdown and hands the
// merged list (assigned customer first, de-duplicated) to the open
// dialog. A fetch failure leaves the field free-text.
func (a *App) loadCustomerOptions(selected *form.Option) tea.Cmd {
	svc := a.customerService()
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		fetched, err := svc.Dropdown(context.Background())
		if err != nil {
			fetched = nil
		}
		merged := form.MergeOptions(selected, fetched)
		if len(merged) == 0 {
			return nil
		}
		return DialogOptions("clientDetails.customer", merged)
	}
}

func (a *App) submitFunc(run func(ctx context.Context, sub *form.Submission) error) SubmitFunc {
	return func(sub *form.Submission) tea.Cmd {
		return func() tea.Msg {
			return DialogResult(run(context.Background(), sub))
		}
	}
}

// existingDocuments pulls an entity's persisted document list out of
// its raw record.
func existingDocuments(item map[string]interface{}) []form.ExistingDocument {
	raw, ok := item["documents"].([]interface{})
	if !ok {
		raw, _ = item["uploadDocuments"].([]interface{})
	}
	var docs []form.ExistingDocument
	for _, r := range raw {
		m, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		doc := form.ExistingDocument{}
		doc.ID, _ = m["_id"].(string)
		doc.Name, _ = m["documentName"].(string)
		doc.URL, _ = m["documentUrl"].(string)
		if doc.ID != "" || doc.URL != "" {
			docs = append(docs, doc)
		}
	}
	return docs
}

// View renders the dashboard.
func (a *App) View() string {
	if a.quitting {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(a.styles.Header.Render("agencydesk"))
	sb.WriteString("  ")
	for i, svc := range a.services {
		style := a.styles.Tab
		if i == a.tab {
			style = a.styles.TabActive
		}
		sb.WriteString(style.Render(svc.Name()))
	}
	sb.WriteString("\n\n")

	if a.dialog.Phase() != DialogClosed {
		sb.WriteString(a.dialog.View())
	} else if a.showStats {
		sb.WriteString(a.stats[a.tab].View())
	} else {
		sb.WriteString(a.lists[a.tab].View())
	}
	sb.WriteString("\n")

	if a.toast != "" {
		style := a.styles.Success
		if a.toastLevel == query.LevelError {
			style = a.styles.Error
		}
		sb.WriteString(style.Render(a.toast))
		sb.WriteString("\n")
	}
	sb.WriteString(a.styles.Footer.Render(
		"tab switch · s stats · n new · e edit · d delete · t toggle · / search · q quit",
	))
	return sb.String()
}

// Close releases the broadcast subscriptions.
func (a *App) Close() {
	a.noticeOff()
	a.sessionOff()
}
