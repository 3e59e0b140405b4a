package cli

import (
	"errors"
	"image"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/kitbash/pkg/compose"
	"github.com/matzehuels/kitbash/pkg/project"
	"github.com/matzehuels/kitbash/pkg/scene"
)

// robotTree builds: body, head/ { face }.
func robotTree(t *testing.T) *scene.Tree {
	t.Helper()
	tr := scene.New()
	body := tr.NewPart("body", image.NewNRGBA(image.Rect(0, 0, 4, 4)))
	head := tr.NewGroup("head")
	face := tr.NewPart("face", image.NewNRGBA(image.Rect(0, 0, 2, 2)))
	for _, step := range []struct {
		n      scene.Node
		target scene.ID
	}{{body, scene.NoID}, {head, scene.NoID}, {face, head.ID}} {
		if err := tr.Insert(step.n, step.target); err != nil {
			t.Fatalf("Insert(%s) error: %v", step.n.Head().Name, err)
		}
	}
	return tr
}

func newTestEditor(t *testing.T, save SaveFunc) EditorModel {
	t.Helper()
	return NewEditorModel("robot", robotTree(t), compose.Canvas{Width: 16, Height: 16, Scale: 1}, save)
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m EditorModel, keys ...string) (EditorModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(EditorModel)
	}
	return m, cmd
}

func selectedName(m EditorModel) string {
	n, ok := m.selected()
	if !ok {
		return ""
	}
	return n.Head().Name
}

func TestEditorNavigation(t *testing.T) {
	m := newTestEditor(t, nil)

	tests := []struct {
		keys []string
		want string
	}{
		{nil, "body"},
		{[]string{"down"}, "head"},
		{[]string{"down", "j"}, "face"},
		{[]string{"down", "down", "down", "down"}, "face"},
		{[]string{"down", "down", "up"}, "head"},
		{[]string{"k"}, "body"},
	}
	for _, tt := range tests {
		got, _ := press(m, tt.keys...)
		if name := selectedName(got); name != tt.want {
			t.Errorf("after %v selected = %q, want %q", tt.keys, name, tt.want)
		}
		if got.Dirty {
			t.Errorf("after %v Dirty = true, want false", tt.keys)
		}
	}
}

func TestEditorReorder(t *testing.T) {
	m := newTestEditor(t, nil)

	m, _ = press(m, "]")
	if got := m.Tree.Roots[1].Head().Name; got != "body" {
		t.Errorf("Roots[1] = %q, want body", got)
	}
	if name := selectedName(m); name != "body" {
		t.Errorf("selection did not follow the moved node: %q", name)
	}
	if !m.Dirty {
		t.Error("Dirty = false after reorder")
	}

	// Already last among the roots: rejected, nothing changes.
	before := m.Cursor
	m, _ = press(m, "]")
	if m.Cursor != before || m.Tree.Roots[1].Head().Name != "body" {
		t.Error("moving the last root down changed the tree")
	}

	m, _ = press(m, "[")
	if got := m.Tree.Roots[0].Head().Name; got != "body" {
		t.Errorf("Roots[0] = %q, want body", got)
	}
}

func TestEditorTransforms(t *testing.T) {
	tests := []struct {
		name       string
		keys       []string
		wantOffset scene.Vec2
		wantScale  float64
	}{
		{"nudge small", []string{"d", "d", "s"}, scene.Vec2{X: 2, Y: 1}, 1},
		{"nudge large", []string{"A", "W"}, scene.Vec2{X: -10, Y: -10}, 1},
		{"scale up", []string{"+", "+", "="}, scene.Vec2{}, 1.3},
		{"scale down", []string{"-", "-"}, scene.Vec2{}, 0.8},
		{"scale floor", strings.Split(strings.Repeat("-", 20), ""), scene.Vec2{}, minPartScale},
		{"scale ceiling", strings.Split(strings.Repeat("+", 60), ""), scene.Vec2{}, maxPartScale},
		{"reset", []string{"d", "+", "r"}, scene.Vec2{}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := press(newTestEditor(t, nil), tt.keys...)
			tr := m.Tree.Roots[0].Head().Transform
			if tr.Offset != tt.wantOffset {
				t.Errorf("Offset = %v, want %v", tr.Offset, tt.wantOffset)
			}
			if tr.Scale != tt.wantScale {
				t.Errorf("Scale = %v, want %v", tr.Scale, tt.wantScale)
			}
			if !m.Dirty {
				t.Error("Dirty = false after edit")
			}
		})
	}
}

func TestEditorSnap(t *testing.T) {
	m := newTestEditor(t, nil)
	m.Tree.Roots[0].Head().Transform.Offset = scene.Vec2{X: 1.4, Y: -2.5}

	m, _ = press(m, "p")
	if got, want := m.Tree.Roots[0].Head().Transform.Offset, (scene.Vec2{X: 1, Y: -3}); got != want {
		t.Errorf("Offset = %v, want %v", got, want)
	}
}

func TestEditorToggleVisible(t *testing.T) {
	m, _ := press(newTestEditor(t, nil), "down", " ")
	head := m.Tree.Roots[1].Head()
	if head.Visible {
		t.Error("head still visible after toggle")
	}
	m, _ = press(m, " ")
	if !head.Visible {
		t.Error("head hidden after second toggle")
	}
}

func TestEditorDelete(t *testing.T) {
	m, _ := press(newTestEditor(t, nil), "down", "down", "x")
	if m.Tree.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Tree.Len())
	}
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d, want 1 (clamped)", m.Cursor)
	}

	m, _ = press(m, "up", "x", "x")
	if m.Tree.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Tree.Len())
	}
	// Keys on an empty tree are ignored.
	m, _ = press(m, "x", "d", "]")
	if !strings.Contains(m.View(), "no parts") {
		t.Error("View() of empty tree missing placeholder")
	}
}

func TestEditorNewGroup(t *testing.T) {
	m := newTestEditor(t, nil)

	// A part is selected: the group goes next to it, at the top level.
	m, _ = press(m, "n")
	if got := len(m.Tree.Roots); got != 3 {
		t.Fatalf("len(Roots) = %d, want 3", got)
	}
	if name := selectedName(m); name != "group 1" {
		t.Errorf("selected = %q, want the new group", name)
	}

	// A group is selected: the new group goes inside it.
	m, _ = press(m, "n")
	outer, ok := m.Tree.Roots[2].(*scene.Group)
	if !ok || len(outer.Children) != 1 || outer.Children[0].Head().Name != "group 2" {
		t.Errorf("group 2 not nested in group 1")
	}

	// Part inside a group: sibling in the same group.
	m.Cursor = 2 // face
	m, _ = press(m, "n")
	head := m.Tree.Roots[1].(*scene.Group)
	if len(head.Children) != 2 {
		t.Errorf("len(head.Children) = %d, want 2", len(head.Children))
	}
}

func TestEditorSave(t *testing.T) {
	var saved *project.Manifest
	m := newTestEditor(t, func(pm *project.Manifest) error {
		saved = pm
		return nil
	})

	m, _ = press(m, "d", "ctrl+s")
	if saved == nil {
		t.Fatal("save not called")
	}
	if saved.Name != "robot" || len(saved.Nodes) != 2 {
		t.Errorf("saved = %+v, want robot with 2 top-level nodes", saved)
	}
	if x, _ := saved.Nodes[0].OffsetXY(); x != 1 {
		t.Errorf("saved body x = %v, want 1", x)
	}
	if m.Dirty {
		t.Error("Dirty = true after save")
	}
	if m.Status != "saved" {
		t.Errorf("Status = %q, want saved", m.Status)
	}
}

func TestEditorSaveError(t *testing.T) {
	m := newTestEditor(t, func(*project.Manifest) error {
		return errors.New("disk full")
	})
	m, _ = press(m, "d", "ctrl+s")
	if !m.Dirty {
		t.Error("Dirty = false after failed save")
	}
	if !strings.Contains(m.Status, "save failed") {
		t.Errorf("Status = %q, want save failure", m.Status)
	}
}

func TestEditorQuit(t *testing.T) {
	isQuit := func(cmd tea.Cmd) bool {
		if cmd == nil {
			return false
		}
		_, ok := cmd().(tea.QuitMsg)
		return ok
	}

	if _, cmd := press(newTestEditor(t, nil), "q"); !isQuit(cmd) {
		t.Error("q on a clean editor did not quit")
	}

	m, cmd := press(newTestEditor(t, nil), "d", "q")
	if isQuit(cmd) {
		t.Fatal("q with unsaved changes quit immediately")
	}
	if !strings.Contains(m.Status, "unsaved") {
		t.Errorf("Status = %q, want unsaved warning", m.Status)
	}
	if _, cmd := press(m, "esc"); !isQuit(cmd) {
		t.Error("second quit key did not quit")
	}

	// An edit between the two presses re-arms the warning.
	m, _ = press(newTestEditor(t, nil), "d", "q", "d")
	if _, cmd := press(m, "q"); isQuit(cmd) {
		t.Error("quit confirmation survived a later edit")
	}
}

func TestEditorScroll(t *testing.T) {
	m := newTestEditor(t, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = next.(EditorModel)
	if m.Height != 5 {
		t.Fatalf("Height = %d, want 5", m.Height)
	}

	for range 5 {
		g := m.Tree.NewPart("extra", image.NewNRGBA(image.Rect(0, 0, 1, 1)))
		if err := m.Tree.Insert(g, scene.NoID); err != nil {
			t.Fatal(err)
		}
	}
	m, _ = press(m, strings.Split(strings.Repeat("j", 7), "")...)
	if m.Cursor != 7 || m.Offset != 3 {
		t.Errorf("Cursor, Offset = %d, %d, want 7, 3", m.Cursor, m.Offset)
	}
	m, _ = press(m, strings.Split(strings.Repeat("k", 7), "")...)
	if m.Offset != 0 {
		t.Errorf("Offset = %d, want 0", m.Offset)
	}
}

func TestEditorView(t *testing.T) {
	m, _ := press(newTestEditor(t, nil), "down", " ", "d")
	view := m.View()
	for _, want := range []string{"Editing robot *", "body", "head/", "face", "4x4", "16x16"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
