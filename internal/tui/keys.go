package tui

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	scopeTree   = "tree"
	scopePrompt = "prompt"
	scopePicker = "picker"
)

type KeyBinding struct {
	Keys        []string
	Action      string
	Description string
	Scopes      []string
}

type KeyRegistry struct {
	bindings []KeyBinding
}

func NewKeyRegistry(bindings []KeyBinding) *KeyRegistry {
	return &KeyRegistry{bindings: slices.Clone(bindings)}
}

func DefaultKeyBindings() []KeyBinding {
	tree := []string{scopeTree}
	return []KeyBinding{
		{Keys: []string{"q", "ctrl+c"}, Action: "quit", Description: "quit", Scopes: tree},
		{Keys: []string{"j", "down"}, Action: "down", Description: "down", Scopes: tree},
		{Keys: []string{"k", "up"}, Action: "up", Description: "up", Scopes: tree},
		{Keys: []string{"tab"}, Action: "next-view", Description: "next view", Scopes: tree},
		{Keys: []string{"shift+tab"}, Action: "prev-view", Description: "prev view", Scopes: tree},
		{Keys: []string{" ", "x"}, Action: "toggle", Description: "toggle", Scopes: tree},
		{Keys: []string{"+", "="}, Action: "inc", Description: "+1", Scopes: tree},
		{Keys: []string{"-"}, Action: "dec", Description: "-1", Scopes: tree},
		{Keys: []string{"e"}, Action: "edit", Description: "edit", Scopes: tree},
		{Keys: []string{"d"}, Action: "remove", Description: "remove", Scopes: tree},
		{Keys: []string{"K"}, Action: "move-up", Description: "move up", Scopes: tree},
		{Keys: []string{"J"}, Action: "move-down", Description: "move down", Scopes: tree},
		{Keys: []string{"y"}, Action: "yank", Description: "yank", Scopes: tree},
		{Keys: []string{"p"}, Action: "paste", Description: "paste", Scopes: tree},
		{Keys: []string{"n"}, Action: "new", Description: "new child", Scopes: tree},
		{Keys: []string{"o", "enter"}, Action: "open", Description: "open view", Scopes: tree},
		{Keys: []string{"w"}, Action: "close-view", Description: "close view", Scopes: tree},
		{Keys: []string{"g"}, Action: "generate", Description: "gen month", Scopes: tree},
		{Keys: []string{"enter"}, Action: "submit", Description: "ok", Scopes: []string{scopePrompt, scopePicker}},
		{Keys: []string{"esc", "ctrl+c"}, Action: "cancel", Description: "cancel", Scopes: []string{scopePrompt, scopePicker}},
		{Keys: []string{"up", "ctrl+p"}, Action: "pick-prev", Description: "prev type", Scopes: []string{scopePicker}},
		{Keys: []string{"down", "ctrl+n", "tab"}, Action: "pick-next", Description: "next type", Scopes: []string{scopePicker}},
	}
}

func (r *KeyRegistry) BindingsForScope(scope string) []KeyBinding {
	out := make([]KeyBinding, 0, len(r.bindings))
	for _, b := range r.bindings {
		if scopeMatch(scope, b.Scopes) {
			out = append(out, b)
		}
	}
	return out
}

// Help returns the bubbles help entries of a scope, one per action.
func (r *KeyRegistry) Help(scope string) []key.Binding {
	var out []key.Binding
	for _, b := range r.BindingsForScope(scope) {
		if len(b.Keys) == 0 {
			continue
		}
		label := b.Keys[0]
		if label == " " {
			label = "space"
		}
		out = append(out, key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(label, b.Description)))
	}
	return out
}

// Action returns the action bound to msg in scope, or "". Keys are case
// sensitive: J and j are different actions.
func (r *KeyRegistry) Action(msg tea.KeyMsg, scope string) string {
	pressed := msg.String()
	for _, b := range r.bindings {
		if !scopeMatch(scope, b.Scopes) {
			continue
		}
		for _, k := range b.Keys {
			if k == pressed {
				return b.Action
			}
		}
	}
	return ""
}

func scopeMatch(scope string, scopes []string) bool {
	if len(scopes) == 0 {
		return true
	}
	for _, s := range scopes {
		if s == "*" || s == scope {
			return true
		}
	}
	return false
}
