package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pageflowhq/pageflow/pkg/flow"
)

func pickerNodes() []*flow.Node {
	return []*flow.Node{
		{ID: "/", Type: flow.NodeStart, Visits: 100, UniqueSessions: 80, BounceRate: 20},
		{ID: "/pricing", Visits: 40, UniqueSessions: 35, BounceRate: 50},
		{ID: "/signup/done", Type: flow.NodeEnd, Visits: 12, UniqueSessions: 12, BounceRate: 100},
	}
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func TestNodePickerNavigation(t *testing.T) {
	m := NewNodePickerModel(pickerNodes())

	next, _ := m.Update(keyMsg("j"))
	m = next.(NodePickerModel)
	if m.Cursor != 1 {
		t.Errorf("cursor after down = %d, want 1", m.Cursor)
	}

	next, _ = m.Update(keyMsg("k"))
	m = next.(NodePickerModel)
	if m.Cursor != 0 {
		t.Errorf("cursor after up = %d, want 0", m.Cursor)
	}

	// Up at the top stays put
	next, _ = m.Update(keyMsg("k"))
	m = next.(NodePickerModel)
	if m.Cursor != 0 {
		t.Errorf("cursor should not go negative, got %d", m.Cursor)
	}
}

func TestNodePickerSelect(t *testing.T) {
	m := NewNodePickerModel(pickerNodes())

	next, _ := m.Update(keyMsg("j"))
	m = next.(NodePickerModel)
	next, cmd := m.Update(keyMsg("enter"))
	m = next.(NodePickerModel)

	if m.Selected == nil {
		t.Fatal("enter should select the node under the cursor")
	}
	if m.Selected.ID != "/pricing" {
		t.Errorf("Selected.ID = %q, want /pricing", m.Selected.ID)
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}
}

func TestNodePickerQuitWithoutSelection(t *testing.T) {
	m := NewNodePickerModel(pickerNodes())

	next, cmd := m.Update(keyMsg("q"))
	m = next.(NodePickerModel)

	if m.Selected != nil {
		t.Error("quit should not select a node")
	}
	if cmd == nil {
		t.Error("q should quit the program")
	}
}

func TestNodePickerView(t *testing.T) {
	m := NewNodePickerModel(pickerNodes())
	view := m.View()

	for _, want := range []string{"/pricing", "/signup/done", "entry", "end"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestNodeRoleLabel(t *testing.T) {
	tests := []struct {
		typ  flow.NodeType
		want string
	}{
		{flow.NodeStart, "entry"},
		{flow.NodeIntermediate, "page"},
		{flow.NodeEnd, "end"},
	}
	for _, tt := range tests {
		if got := nodeRoleLabel(tt.typ); got != tt.want {
			t.Errorf("nodeRoleLabel(%v) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}
