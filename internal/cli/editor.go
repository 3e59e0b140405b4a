package cli

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/kitbash/pkg/compose"
	errs "github.com/matzehuels/kitbash/pkg/errors"
	"github.com/matzehuels/kitbash/pkg/project"
	"github.com/matzehuels/kitbash/pkg/scene"
)

// Editing limits. Scale follows the range of the original slider.
const (
	minPartScale = 0.1
	maxPartScale = 5.0
	scaleStep    = 0.1
	nudgeSmall   = 1.0
	nudgeLarge   = 10.0
)

var editorHelp = strings.Join([]string{
	"↑/↓ select",
	"[/] reorder",
	"space show/hide",
	"wasd nudge (WASD ×10)",
	"+/- scale",
	"p snap",
	"r reset",
	"n group",
	"x delete",
	"ctrl+s save",
	"q quit",
}, "  ")

// SaveFunc persists an edited project.
type SaveFunc func(*project.Manifest) error

// EditorModel is the bubbletea model for the interactive project editor.
// The tree is only touched from Update, which bubbletea runs on a single
// goroutine.
type EditorModel struct {
	Name   string
	Tree   *scene.Tree
	Canvas compose.Canvas

	Cursor int
	Offset int
	Height int

	Dirty  bool
	Status string

	save        SaveFunc
	confirmQuit bool
	groups      int
}

type editorRow struct {
	node  scene.Node
	depth int
}

// NewEditorModel creates an editor over t. save is called on ctrl+s.
func NewEditorModel(name string, t *scene.Tree, c compose.Canvas, save SaveFunc) EditorModel {
	return EditorModel{
		Name:   name,
		Tree:   t,
		Canvas: c,
		Height: 15,
		save:   save,
	}
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

// rows lists every node in paint order with its depth.
func (m EditorModel) rows() []editorRow {
	var rows []editorRow
	m.Tree.Walk(func(n scene.Node, depth int) bool {
		rows = append(rows, editorRow{node: n, depth: depth})
		return true
	})
	return rows
}

func (m EditorModel) selected() (scene.Node, bool) {
	rows := m.rows()
	if m.Cursor < 0 || m.Cursor >= len(rows) {
		return nil, false
	}
	return rows[m.Cursor].node, true
}

// selectID moves the cursor to the row holding id.
func (m *EditorModel) selectID(id scene.ID) {
	for i, r := range m.rows() {
		if r.node.Head().ID == id {
			m.Cursor = i
			break
		}
	}
	m.scroll()
}

func (m *EditorModel) clamp() {
	n := len(m.rows())
	m.Cursor = max(0, min(m.Cursor, n-1))
	m.scroll()
}

func (m *EditorModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m *EditorModel) changed(status string) {
	m.Dirty = true
	m.confirmQuit = false
	m.Status = status
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		m.scroll()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m EditorModel) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		if m.Dirty && !m.confirmQuit {
			m.confirmQuit = true
			m.Status = "unsaved changes: press q again to discard, ctrl+s to save"
			return m, nil
		}
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
			m.scroll()
		}
		return m, nil
	case "down", "j":
		if m.Cursor < len(m.rows())-1 {
			m.Cursor++
			m.scroll()
		}
		return m, nil
	case "ctrl+s":
		m.doSave()
		return m, nil
	case "n":
		m.newGroup()
		return m, nil
	}

	n, ok := m.selected()
	if !ok {
		return m, nil
	}
	h := n.Head()
	tr := &h.Transform

	switch key {
	case " ":
		scene.SetVisible(n, !h.Visible)
		if h.Visible {
			m.changed("showing " + h.Name)
		} else {
			m.changed("hiding " + h.Name)
		}
	case "[", "]":
		dir := scene.Up
		if key == "]" {
			dir = scene.Down
		}
		if m.Tree.Move(h.ID, dir) {
			m.selectID(h.ID)
			m.changed("moved " + h.Name)
		}
	case "x", "delete":
		if m.Tree.Delete(h.ID) {
			m.clamp()
			m.changed("deleted " + h.Name)
		}
	case "a", "d", "w", "s", "A", "D", "W", "S":
		dx, dy := nudgeFor(key)
		tr.Nudge(dx, dy)
		m.changed(fmt.Sprintf("%s @ %s,%s", h.Name, formatFloat(tr.Offset.X), formatFloat(tr.Offset.Y)))
	case "+", "=", "-":
		step := scaleStep
		if key == "-" {
			step = -scaleStep
		}
		tr.Scale = clampScale(tr.Scale + step)
		m.changed(fmt.Sprintf("%s ×%s", h.Name, formatFloat(tr.Scale)))
	case "p":
		tr.Snap()
		m.changed("snapped " + h.Name)
	case "r":
		tr.Reset()
		m.changed("reset " + h.Name)
	}
	return m, nil
}

func nudgeFor(key string) (dx, dy float64) {
	step := nudgeSmall
	if strings.ToUpper(key) == key {
		step = nudgeLarge
	}
	switch strings.ToLower(key) {
	case "a":
		return -step, 0
	case "d":
		return step, 0
	case "w":
		return 0, -step
	default:
		return 0, step
	}
}

// clampScale keeps a scale inside the editable range, rounded to one
// decimal so repeated steps do not drift.
func clampScale(s float64) float64 {
	s = math.Round(s*10) / 10
	return math.Max(minPartScale, math.Min(maxPartScale, s))
}

// newGroup adds an empty group next to the selection, or inside it when the
// selection is itself a group.
func (m *EditorModel) newGroup() {
	m.groups++
	g := m.Tree.NewGroup(fmt.Sprintf("group %d", m.groups))

	target := scene.NoID
	if n, ok := m.selected(); ok {
		if scene.IsGroup(n) {
			target = n.Head().ID
		} else if parent, ok := m.Tree.Parent(n.Head().ID); ok {
			target = parent.ID
		}
	}
	if err := m.Tree.Insert(g, target); err != nil {
		m.Status = err.Error()
		return
	}
	m.selectID(g.ID)
	m.changed("added " + g.Name)
}

func (m *EditorModel) doSave() {
	if m.save == nil {
		m.Status = "saving is not available"
		return
	}
	if err := m.save(project.FromTree(m.Name, m.Tree, m.Canvas)); err != nil {
		m.Status = "save failed: " + errs.UserMessage(err)
		return
	}
	m.Dirty = false
	m.confirmQuit = false
	m.Status = "saved"
}

var (
	editorHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	editorCursorStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	editorGroupStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	editorHiddenStyle = lipgloss.NewStyle().Foreground(colorDim)
)

func (m EditorModel) View() string {
	var b strings.Builder

	title := "Editing " + m.Name
	if m.Dirty {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %dx%d", m.Canvas.Width, m.Canvas.Height)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(editorHelp))
	b.WriteString("\n\n")

	all := m.rows()
	if len(all) == 0 {
		b.WriteString(StyleDim.Render("  (no parts: use kitbash add, or n to create a group)"))
		b.WriteString("\n")
	} else {
		end := min(m.Offset+m.Height, len(all))
		visible := all[m.Offset:end]

		rows := make([][]string, 0, len(visible))
		for i, r := range visible {
			rows = append(rows, m.renderRow(r, m.Offset+i == m.Cursor))
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
			Headers("", "Name", "Offset", "Scale", "Size", "Visible").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return editorHeaderStyle
				}
				idx := m.Offset + row
				if idx >= len(all) {
					return lipgloss.NewStyle()
				}
				r := all[idx]
				switch {
				case idx == m.Cursor:
					return editorCursorStyle
				case !r.node.Head().Visible:
					return editorHiddenStyle
				case scene.IsGroup(r.node):
					return editorGroupStyle
				}
				return lipgloss.NewStyle().Foreground(colorWhite)
			})
		b.WriteString(t.Render())
		b.WriteString("\n")
		b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(all))))
		b.WriteString("\n")
	}

	if m.Status != "" {
		b.WriteString("\n")
		b.WriteString(StyleHighlight.Render(m.Status))
	}
	return b.String()
}

func (m EditorModel) renderRow(r editorRow, current bool) []string {
	h := r.node.Head()
	cursor := "  "
	if current {
		cursor = "▸ "
	}
	name := strings.Repeat("  ", r.depth) + h.Name
	size := ""
	if p, ok := r.node.(*scene.Part); ok {
		w, ht := p.Size()
		size = fmt.Sprintf("%dx%d", w, ht)
	} else {
		name += "/"
	}
	visible := "✓"
	if !h.Visible {
		visible = "·"
	}
	return []string{
		cursor,
		name,
		formatFloat(h.Transform.Offset.X) + "," + formatFloat(h.Transform.Offset.Y),
		formatFloat(h.Transform.Scale),
		size,
		visible,
	}
}
