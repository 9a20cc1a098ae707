// Package tui is the terminal front end: every open view rendered as an
// indented tree, with edits routed through the engine.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jask/panels/internal/engine"
	"github.com/jask/panels/internal/panel"
	"github.com/jask/panels/internal/paneltype"
	"github.com/jask/panels/internal/view"
)

type promptKind string

const (
	promptNone promptKind = ""
	promptNew  promptKind = "new"
	promptEdit promptKind = "edit"
)

type row struct {
	inst *view.Instance
}

// App is the bubbletea model.
type App struct {
	ctx  context.Context
	eng  *engine.Manager
	log  *zap.Logger
	keys *KeyRegistry

	active int
	cursor int
	offset int
	yanked string

	prompt    promptKind
	promptFor *view.Instance
	input     textinput.Model
	picker    *TypePicker
	status    string
	statusErr bool
	width     int
	height    int
}

func New(ctx context.Context, eng *engine.Manager, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	ti := textinput.New()
	ti.CharLimit = 256
	return &App{
		ctx:   ctx,
		eng:   eng,
		log:   log,
		keys:  NewKeyRegistry(DefaultKeyBindings()),
		input: ti,
	}
}

func (a *App) Init() tea.Cmd { return nil }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
	case tea.KeyMsg:
		if a.prompt != promptNone {
			return a.updatePrompt(m)
		}
		return a.updateTree(m)
	}
	return a, nil
}

func (a *App) scope() string {
	if a.picker != nil {
		return scopePicker
	}
	if a.prompt != promptNone {
		return scopePrompt
	}
	return scopeTree
}

func (a *App) currentView() *view.View {
	views := a.eng.Views()
	if len(views) == 0 {
		return nil
	}
	a.active = max(0, min(a.active, len(views)-1))
	return views[a.active]
}

func (a *App) rows() []row {
	v := a.currentView()
	if v == nil {
		return nil
	}
	var out []row
	v.Root.Walk(func(i *view.Instance) bool {
		out = append(out, row{inst: i})
		return true
	})
	return out
}

func (a *App) selected() *view.Instance {
	rows := a.rows()
	if len(rows) == 0 {
		return nil
	}
	a.cursor = max(0, min(a.cursor, len(rows)-1))
	return rows[a.cursor].inst
}

// follow moves the cursor onto inst, which keeps its identity across edits.
func (a *App) follow(inst *view.Instance) {
	for n, r := range a.rows() {
		if r.inst == inst {
			a.cursor = n
			return
		}
	}
}

func (a *App) updateTree(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := a.keys.Action(m, scopeTree)
	if action == "quit" {
		return a, tea.Quit
	}
	sel := a.selected()
	if sel == nil && action != "" {
		return a, nil
	}

	switch action {
	case "down":
		a.cursor++
	case "up":
		a.cursor--
	case "next-view", "prev-view":
		n := len(a.eng.Views())
		step := 1
		if action == "prev-view" {
			step = n - 1
		}
		a.active = (a.active + step) % max(1, n)
		a.cursor = 0
	case "toggle":
		if sel.Type != "task" {
			a.fail(fmt.Errorf("%s has nothing to toggle", sel.Type))
			break
		}
		checked, _ := sel.Attrs["checked"].(bool)
		a.submit(sel.ID, panel.AttrDiff{"checked": !checked})
	case "inc", "dec":
		if sel.Type != "number" {
			a.fail(fmt.Errorf("%s is not a number", sel.Type))
			break
		}
		v, _ := sel.Attrs["value"].(int64)
		if action == "inc" {
			v++
		} else {
			v--
		}
		a.submit(sel.ID, panel.AttrDiff{"value": v})
	case "edit":
		a.startEdit(sel)
	case "remove":
		a.report(a.eng.RequestRemoval(a.ctx, sel))
	case "move-up", "move-down":
		to := sel.Index() - 1
		if action == "move-down" {
			to = sel.Index() + 1
		}
		a.report(a.eng.Move(a.ctx, sel, to))
		a.follow(sel)
	case "yank":
		a.yanked = sel.ID
		a.ok("yanked " + sel.ID)
	case "paste":
		a.paste(sel)
	case "new":
		a.startPicker(sel)
	case "open":
		if _, err := a.eng.OpenView(a.ctx, sel.ID, ""); err != nil {
			a.fail(err)
			break
		}
		a.active = len(a.eng.Views()) - 1
		a.cursor = 0
		a.ok("opened " + sel.ID)
	case "close-view":
		a.eng.CloseView(a.currentView())
		if len(a.eng.Views()) == 0 {
			return a, tea.Quit
		}
		a.cursor = 0
	case "generate":
		if sel.Type != "calendar" {
			a.fail(fmt.Errorf("%s is not a calendar", sel.ID))
			break
		}
		a.report(a.eng.GenerateMonth(a.ctx, sel.ID))
	}
	a.selected()
	return a, nil
}

func (a *App) submit(id string, attrs panel.AttrDiff) {
	a.report(a.eng.Submit(a.ctx, id, attrs, nil))
}

func (a *App) report(rep engine.Report, err error) {
	if err != nil {
		a.fail(err)
		return
	}
	a.ok(fmt.Sprintf("updated %d occurrence(s) in %d view(s)", rep.Deliveries, rep.Views))
}

func (a *App) ok(msg string) {
	a.status, a.statusErr = msg, false
}

func (a *App) fail(err error) {
	a.status, a.statusErr = err.Error(), true
	a.log.Warn("action failed", zap.Error(err))
}

// target picks where new or pasted children go: into sel if it has slots,
// otherwise right after sel in its parent.
func (a *App) target(sel *view.Instance) (parent string, slot paneltype.Slot, index int, err error) {
	if t := sel.PanelType(); t != nil && len(t.Slots) > 0 && !sel.Truncated {
		s := t.Slots[0]
		if s.Cardinality == paneltype.List {
			return sel.ID, s, len(sel.ListIDs(s.Name)), nil
		}
		c, _ := sel.Single(s.Name)
		for i := 0; s.Contains(i); i++ {
			if _, taken := c.Items[i]; !taken {
				return sel.ID, s, i, nil
			}
		}
		return "", s, 0, fmt.Errorf("%w: %s is full", engine.ErrNotAccepted, sel.ID)
	}
	p := sel.Parent()
	if p == nil {
		return "", paneltype.Slot{}, 0, fmt.Errorf("%w: %s holds no children", engine.ErrNotAccepted, sel.ID)
	}
	s, _ := p.PanelType().Slot(sel.Key().Name)
	return p.ID, s, sel.Index() + 1, nil
}

func (a *App) paste(sel *view.Instance) {
	if a.yanked == "" {
		a.fail(fmt.Errorf("nothing yanked"))
		return
	}
	parent, slot, index, err := a.target(sel)
	if err != nil {
		a.fail(err)
		return
	}
	a.report(a.eng.RequestInsert(a.ctx, parent, slot.Name, index, a.yanked))
}

func (a *App) startEdit(sel *view.Instance) {
	switch sel.Type {
	case "note":
		text, _ := sel.Attrs["text"].(string)
		a.startPrompt(promptEdit, sel, "text: ", text)
	case "number":
		v, _ := sel.Attrs["value"].(int64)
		a.startPrompt(promptEdit, sel, "value: ", strconv.FormatInt(v, 10))
	default:
		a.fail(fmt.Errorf("%s has nothing to edit", sel.Type))
	}
}

func (a *App) startPrompt(kind promptKind, sel *view.Instance, label, value string) {
	a.prompt = kind
	a.promptFor = sel
	a.input.Prompt = label
	a.input.SetValue(value)
	a.input.CursorEnd()
	a.input.Focus()
}

// startPicker offers the creatable types the target slot accepts.
func (a *App) startPicker(sel *view.Instance) {
	_, slot, _, err := a.target(sel)
	if err != nil {
		a.fail(err)
		return
	}
	var offered []*paneltype.Type
	types := a.eng.Types()
	for _, tag := range types.CreatableTags() {
		if t, _ := types.Lookup(tag); slot.Allows(tag) {
			offered = append(offered, t)
		}
	}
	a.startPrompt(promptNew, sel, "new: ", "")
	a.picker = NewTypePicker(offered, types.Suggest)
}

func (a *App) endPrompt() {
	a.prompt = promptNone
	a.promptFor = nil
	a.picker = nil
	a.input.Blur()
	a.input.SetValue("")
}

func (a *App) updatePrompt(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.keys.Action(m, a.scope()) {
	case "cancel":
		a.endPrompt()
		return a, nil
	case "submit":
		kind, sel, value := a.prompt, a.promptFor, strings.TrimSpace(a.input.Value())
		if a.picker != nil {
			value = a.picker.Choice()
		}
		a.endPrompt()
		a.finishPrompt(kind, sel, value)
		return a, nil
	case "pick-prev":
		a.picker.Move(-1)
		return a, nil
	case "pick-next":
		a.picker.Move(1)
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(m)
	if a.picker != nil {
		a.picker.SetQuery(a.input.Value())
	}
	return a, cmd
}

func (a *App) finishPrompt(kind promptKind, sel *view.Instance, value string) {
	switch kind {
	case promptNew:
		parent, slot, _, err := a.target(sel)
		if err != nil {
			a.fail(err)
			return
		}
		id, rep, err := a.eng.CreateChild(a.ctx, parent, slot.Name, value)
		if err != nil {
			a.fail(err)
			return
		}
		a.ok(fmt.Sprintf("created %s %s in %d view(s)", value, id, rep.Views))
	case promptEdit:
		switch sel.Type {
		case "note":
			a.submit(sel.ID, panel.AttrDiff{"text": value})
		case "number":
			a.submit(sel.ID, panel.AttrDiff{"value": value})
		}
	}
}
