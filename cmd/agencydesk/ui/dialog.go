package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"agencydesk/internal/api"
	"agencydesk/internal/form"
	"agencydesk/internal/validation"
)

// DialogPhase is the dialog lifecycle: closed, open and editable, or
// submitting with input locked.
type DialogPhase int

const (
	DialogClosed DialogPhase = iota
	DialogOpen
	DialogSubmitting
)

// Field binds one text input to a draft path. Fields carrying Options
// stay free-text but also cycle through the known {value, label} pairs
// with the arrow keys.
type Field struct {
	Path    string
	Label   string
	Options []form.Option
}

// SubmitFunc runs the mutation for an assembled submission and
// resolves to a dialogResultMsg.
type SubmitFunc func(sub *form.Submission) tea.Cmd

type dialogResultMsg struct {
	err error
}

// DialogResult builds the message a submit command resolves to.
func DialogResult(err error) tea.Msg { return dialogResultMsg{err: err} }

type dialogOptionsMsg struct {
	path    string
	options []form.Option
}

// DialogOptions builds the message an option-fetch command resolves
// to; the dialog attaches the list to the field bound to path.
func DialogOptions(path string, options []form.Option) tea.Msg {
	return dialogOptionsMsg{path: path, options: options}
}

// Dialog pairs a form with open/close state and client-side
// validation. Validation failures populate the per-field error map
// and never reach the network; mutation failures land in the general
// banner with the dialog still open. Closing is disallowed while a
// submission is pending.
type Dialog struct {
	phase   DialogPhase
	title   string
	fields  []Field
	inputs  []textinput.Model
	focus   int
	state   *form.State
	rules   validation.RuleSet
	errs    validation.Errors
	submit  SubmitFunc
	styles  Styles
	resetOK bool // a create-mode success consumed the reset signal
}

// NewDialog builds a closed dialog.
func NewDialog(styles Styles) Dialog {
	return Dialog{phase: DialogClosed, styles: styles, errs: validation.Errors{}}
}

// Phase returns the dialog lifecycle phase.
func (d *Dialog) Phase() DialogPhase { return d.phase }

// State returns the bound form state, nil while closed.
func (d *Dialog) State() *form.State { return d.state }

// Errors returns the current field-keyed error map.
func (d *Dialog) Errors() validation.Errors { return d.errs }

// Open binds the dialog to a form and shows it.
func (d *Dialog) Open(title string, state *form.State, fields []Field, rules validation.RuleSet, submit SubmitFunc) {
	d.phase = DialogOpen
	d.title = title
	d.state = state
	d.fields = fields
	d.rules = rules
	d.submit = submit
	d.errs = validation.Errors{}
	d.focus = 0
	d.resetOK = false

	d.inputs = make([]textinput.Model, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 120
		in.SetValue(state.Value(f.Path))
		if i == 0 {
			in.Focus()
		}
		d.inputs[i] = in
	}
}

// Update advances the dialog state machine.
func (d *Dialog) Update(msg tea.Msg) tea.Cmd {
	switch d.phase {
	case DialogClosed:
		return nil

	case DialogSubmitting:
		// Input is locked; only the mutation result moves us on.
		if res, ok := msg.(dialogResultMsg); ok {
			return d.finish(res.err)
		}
		return nil
	}

	if opts, ok := msg.(dialogOptionsMsg); ok {
		d.setOptions(opts.path, opts.options)
		return nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch key.Type {
	case tea.KeyEsc:
		d.close()
		return nil
	case tea.KeyTab, tea.KeyDown:
		d.setFocus(d.focus + 1)
		return nil
	case tea.KeyShiftTab, tea.KeyUp:
		d.setFocus(d.focus - 1)
		return nil
	case tea.KeyLeft, tea.KeyRight:
		if len(d.fields[d.focus].Options) > 0 {
			d.cycleOption(key.Type == tea.KeyRight)
			return nil
		}
	case tea.KeyEnter:
		return d.trySubmit()
	}

	var cmd tea.Cmd
	d.inputs[d.focus], cmd = d.inputs[d.focus].Update(msg)
	d.state.Set(d.fields[d.focus].Path, d.inputs[d.focus].Value())
	return cmd
}

func (d *Dialog) setOptions(path string, options []form.Option) {
	for i := range d.fields {
		if d.fields[i].Path == path {
			d.fields[i].Options = options
		}
	}
}

// cycleOption steps the focused field through its option list, keyed
// off whichever option matches the current value.
func (d *Dialog) cycleOption(forward bool) {
	opts := d.fields[d.focus].Options
	cur := d.inputs[d.focus].Value()
	idx := -1
	for i, o := range opts {
		if o.Value == cur {
			idx = i
			break
		}
	}
	switch {
	case idx < 0:
		idx = 0
	case forward:
		idx = (idx + 1) % len(opts)
	default:
		idx = (idx - 1 + len(opts)) % len(opts)
	}
	d.inputs[d.focus].SetValue(opts[idx].Value)
	d.inputs[d.focus].CursorEnd()
	d.state.Set(d.fields[d.focus].Path, opts[idx].Value)
}

// optionLabel resolves the label of whichever option matches the
// field's current value.
func (d *Dialog) optionLabel(i int) string {
	cur := d.inputs[i].Value()
	for _, o := range d.fields[i].Options {
		if o.Value == cur {
			return o.Label
		}
	}
	return ""
}

func (d *Dialog) setFocus(i int) {
	if len(d.inputs) == 0 {
		return
	}
	d.inputs[d.focus].Blur()
	d.focus = ((i % len(d.inputs)) + len(d.inputs)) % len(d.inputs)
	d.inputs[d.focus].Focus()
}

// trySubmit validates client-side first; only a clean draft reaches
// the mutation.
func (d *Dialog) trySubmit() tea.Cmd {
	d.errs = d.rules.Validate(d.state)
	if d.errs.Any() {
		return nil
	}
	sub, err := d.state.Submit()
	if err != nil {
		d.errs["general"] = err.Error()
		return nil
	}
	d.phase = DialogSubmitting
	return d.submit(sub)
}

func (d *Dialog) finish(err error) tea.Cmd {
	if err != nil {
		d.phase = DialogOpen
		d.errs = validation.Errors{"general": api.ErrorMessage(err, "request failed")}
		return nil
	}
	if d.state.Mode() == form.ModeCreate {
		d.resetOK = d.state.SignalReset()
	}
	d.close()
	return nil
}

func (d *Dialog) close() {
	d.phase = DialogClosed
	d.state = nil
	d.inputs = nil
	d.fields = nil
	d.errs = validation.Errors{}
}

// View renders the dialog box.
func (d *Dialog) View() string {
	if d.phase == DialogClosed {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(d.styles.DialogTitle.Render(d.title))
	sb.WriteString("\n\n")
	if general, ok := d.errs["general"]; ok {
		sb.WriteString(d.styles.GeneralError.Render(general))
		sb.WriteString("\n\n")
	}
	for i, f := range d.fields {
		sb.WriteString(d.styles.FieldLabel.Render(f.Label))
		sb.WriteString(d.inputs[i].View())
		if label := d.optionLabel(i); label != "" && label != d.inputs[i].Value() {
			sb.WriteString("  ")
			sb.WriteString(d.styles.Muted.Render(label))
		}
		if msg, ok := d.errs[f.Path]; ok {
			sb.WriteString("\n")
			sb.WriteString(d.styles.FieldError.Render(msg))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	if d.phase == DialogSubmitting {
		sb.WriteString(d.styles.Muted.Render("saving..."))
	} else {
		sb.WriteString(d.styles.Footer.Render("enter save · tab next field · esc cancel"))
	}
	return d.styles.Dialog.Render(sb.String())
}
