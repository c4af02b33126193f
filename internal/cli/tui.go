package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pageflowhq/pageflow/pkg/flow"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// NodePickerModel - Interactive page selection
// =============================================================================

// NodePickerModel is the bubbletea model for picking a page from the graph,
// for example as the root of a journey search.
type NodePickerModel struct {
	Nodes    []*flow.Node
	Cursor   int
	Selected *flow.Node
	Height   int
	Offset   int
}

// NewNodePickerModel creates a picker over the given nodes.
// Nodes are shown in the order provided.
func NewNodePickerModel(nodes []*flow.Node) NodePickerModel {
	return NodePickerModel{
		Nodes:  nodes,
		Cursor: 0,
		Height: 15,
		Offset: 0,
	}
}

func (m NodePickerModel) Init() tea.Cmd {
	return nil
}

func (m NodePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Selected = m.Nodes[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m NodePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Page"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Nodes) {
		end = len(m.Nodes)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Nodes[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		rows = append(rows, []string{
			cursor,
			n.ID,
			nodeRoleLabel(n.Type),
			fmt.Sprintf("%d", n.Visits),
			fmt.Sprintf("%d", n.UniqueSessions),
			fmt.Sprintf("%.1f%%", n.BounceRate),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Page", "Role", "Visits", "Sessions", "Bounce").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Nodes) {
				return lipgloss.NewStyle()
			}
			n := m.Nodes[actualIdx]
			isCurrent := actualIdx == m.Cursor
			hasOutflow := n.Type != flow.NodeEnd

			base := lipgloss.NewStyle()
			if col >= 3 {
				base = base.Foreground(colorDim)
				if isCurrent {
					base = base.Foreground(colorGray)
				}
			}

			if isCurrent {
				if hasOutflow && col < 3 {
					return base.Foreground(colorGreen).Bold(true)
				}
				return base.Bold(true)
			}
			if !hasOutflow {
				return base.Foreground(colorDim)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Nodes))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// pickNode runs the interactive picker and returns the chosen page path.
// An empty string means the user quit without selecting.
func pickNode(g *flow.Graph) (string, error) {
	model := NewNodePickerModel(g.Nodes())

	prog := tea.NewProgram(model)
	final, err := prog.Run()
	if err != nil {
		return "", fmt.Errorf("page picker: %w", err)
	}

	picked, ok := final.(NodePickerModel)
	if !ok || picked.Selected == nil {
		return "", nil
	}
	return picked.Selected.ID, nil
}

// nodeRoleLabel renders a node type for display.
func nodeRoleLabel(t flow.NodeType) string {
	switch t {
	case flow.NodeStart:
		return "entry"
	case flow.NodeEnd:
		return "end"
	default:
		return "page"
	}
}
