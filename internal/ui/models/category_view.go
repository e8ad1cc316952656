package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/junk-sweeper/internal/classifier"
	"github.com/fenilsonani/junk-sweeper/internal/filter"
	"github.com/fenilsonani/junk-sweeper/internal/scanner"
	"github.com/fenilsonani/junk-sweeper/internal/session"
	"github.com/fenilsonani/junk-sweeper/internal/ui/components"
	"github.com/fenilsonani/junk-sweeper/internal/ui/styles"
	uiutils "github.com/fenilsonani/junk-sweeper/internal/ui/utils"
	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

type rowKind int

const (
	rowCategory rowKind = iota
	rowEntry
)

// row is one line of the list: a category heading or, when the category
// is expanded, one of its files
type row struct {
	kind rowKind
	cat  classifier.CategoryID
	path string
}

// CategoryViewModel lists the filtered scan result as expandable
// categories. Selection lives in the session, so it survives rescans and
// filter changes.
type CategoryViewModel struct {
	session *session.Session
	opts    Options
	view    *scanner.ScanResult
	rows    []row
	cursor  int
	offset  int

	typeIdx int
	sizeIdx int
	timeIdx int

	info   bool
	notice string
	width  int
	height int
}

// NewCategoryViewModel creates a new category view model
func NewCategoryViewModel(sess *session.Session, opts Options, width, height int) *CategoryViewModel {
	m := &CategoryViewModel{session: sess, opts: opts}
	m.SetSize(width, height)
	m.Refresh()
	return m
}

// SetSize updates the layout for the terminal size
func (m *CategoryViewModel) SetSize(width, height int) {
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}
	m.width = width
	m.height = height
}

// SetNotice shows a one-off message above the status bar
func (m *CategoryViewModel) SetNotice(msg string) {
	m.notice = msg
}

// Refresh rebuilds the rows from the session's filtered view, keeping the
// cursor on the same row when it still exists
func (m *CategoryViewModel) Refresh() {
	var current row
	hasCurrent := m.cursor < len(m.rows)
	if hasCurrent {
		current = m.rows[m.cursor]
	}

	m.view = m.session.View()
	m.rows = m.rows[:0]
	if m.view != nil {
		for i := range m.view.Categories {
			cat := &m.view.Categories[i]
			m.rows = append(m.rows, row{kind: rowCategory, cat: cat.ID})
			if !cat.Expanded {
				continue
			}
			for _, e := range cat.Entries {
				m.rows = append(m.rows, row{kind: rowEntry, cat: cat.ID, path: e.Path})
			}
		}
	}

	if hasCurrent {
		for i, r := range m.rows {
			if r == current {
				m.cursor = i
				break
			}
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Rows returns the number of visible rows
func (m *CategoryViewModel) Rows() int {
	return len(m.rows)
}

// Cursor returns the cursor row
func (m *CategoryViewModel) Cursor() int {
	return m.cursor
}

// Init initializes the category view
func (m *CategoryViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *CategoryViewModel) Update(msg tea.Msg) (*CategoryViewModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.notice = ""

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		if len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
		}
	case " ":
		m.toggle()
	case "right", "l":
		m.expand(true)
	case "left", "h":
		m.expand(false)
	case "a":
		m.session.Selection().ToggleAll()
		m.Refresh()
	case "t":
		m.typeIdx = (m.typeIdx + 1) % len(filter.TypeOptions())
		m.applyFilter()
	case "s":
		m.sizeIdx = (m.sizeIdx + 1) % len(filter.SizeOptions())
		m.applyFilter()
	case "m":
		m.timeIdx = (m.timeIdx + 1) % len(filter.TimeOptions())
		m.applyFilter()
	case "i":
		m.info = !m.info
	case "r":
		return m, func() tea.Msg { return RescanMsg{} }
	case "enter":
		return m, func() tea.Msg { return ConfirmRequestMsg{} }
	}

	return m, nil
}

func (m *CategoryViewModel) toggle() {
	if m.cursor >= len(m.rows) {
		return
	}
	r := m.rows[m.cursor]
	sel := m.session.Selection()
	if r.kind == rowCategory {
		sel.ToggleCategory(r.cat)
	} else {
		sel.ToggleEntry(r.path)
	}
	m.Refresh()
}

// expand opens or closes the category under the cursor. Collapsing from a
// file row moves the cursor to its category.
func (m *CategoryViewModel) expand(open bool) {
	if m.cursor >= len(m.rows) {
		return
	}
	r := m.rows[m.cursor]
	if r.kind == rowEntry {
		if open {
			return
		}
		for i := m.cursor; i >= 0; i-- {
			if m.rows[i].kind == rowCategory {
				m.cursor = i
				break
			}
		}
	}
	m.session.Selection().SetExpanded(r.cat, open)
	m.Refresh()
}

func (m *CategoryViewModel) applyFilter() {
	f, err := filter.Parse(
		filter.TypeOptions()[m.typeIdx],
		filter.SizeOptions()[m.sizeIdx],
		filter.TimeOptions()[m.timeIdx],
	)
	if err != nil {
		m.notice = err.Error()
		return
	}
	m.session.SetFilter(f)
	m.cursor = 0
	m.Refresh()
}

// View renders the category view
func (m *CategoryViewModel) View() string {
	var b strings.Builder

	b.WriteString(uiutils.GetSizeWarningBanner(m.width, m.height))
	b.WriteString(styles.TitleStyle.Render("📦 " + m.opts.Title))
	b.WriteString("\n")

	if st := m.opts.Storage; st != nil && st.Total > 0 {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("Storage %s: %s used of %s (%.0f%%), %s free",
			st.Path,
			utils.FormatBytes(int64(st.Used)),
			utils.FormatBytes(int64(st.Total)),
			st.UsedPercent,
			utils.FormatBytes(int64(st.Free)))))
		b.WriteString("\n")
	}

	f := m.session.Filter()
	b.WriteString(styles.HelpStyle.Render("Filter: " + f.String()))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(styles.DimStyle.Render("Nothing to clean here."))
		b.WriteString("\n")
	}

	pageSize := uiutils.CalculatePageSize(m.height)
	m.offset = uiutils.ScrollOffset(m.cursor, m.offset, len(m.rows), pageSize)
	end := m.offset + pageSize
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	if panel := m.infoPanel(); panel != nil {
		b.WriteString(panel.Render(m.width / 2))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	selected := m.session.VisibleSelected()
	var selectedSize int64
	for _, e := range selected {
		selectedSize += e.Size
	}
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("Selected: %s files, %s",
		utils.FormatCount(len(selected)),
		utils.FormatBytes(selectedSize))))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(styles.WarningStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	total := 0
	if m.view != nil {
		total = m.view.TotalCount
	}
	statusBar := components.NewStatusBar()
	statusBar.SetView(m.opts.Title)
	statusBar.SetSelection(len(selected), total, selectedSize)
	if !f.IsZero() {
		statusBar.SetFilter("filtered")
	}
	statusBar.SetShortcuts(
		components.Shortcut{Key: "space", Desc: "toggle"},
		components.Shortcut{Key: "→/←", Desc: "expand"},
		components.Shortcut{Key: "a", Desc: "all"},
		components.Shortcut{Key: "t/s/m", Desc: "filter"},
		components.Shortcut{Key: "enter", Desc: "delete"},
		components.Shortcut{Key: "?", Desc: "help"},
		components.Shortcut{Key: "q", Desc: "quit"},
	)
	b.WriteString(statusBar.Render(m.width))

	return b.String()
}

func (m *CategoryViewModel) renderRow(i int) string {
	r := m.rows[i]
	cursor := "  "
	if i == m.cursor {
		cursor = styles.SelectedStyle.Render("→ ")
	}

	cat := m.view.Category(r.cat)
	if r.kind == rowCategory {
		checkbox := styles.UncheckedBox()
		switch n := cat.SelectedCount(); {
		case n == len(cat.Entries) && n > 0:
			checkbox = styles.CheckedBox()
		case n > 0:
			checkbox = styles.PartialBox()
		}

		arrow := "▸"
		if cat.Expanded {
			arrow = "▾"
		}
		nameStyle := lipgloss.NewStyle().Foreground(styles.GetCategoryColor(cat.Kind)).Bold(true)
		return fmt.Sprintf("%s%s %s %s %s (%s files, %s)",
			cursor,
			checkbox,
			arrow,
			styles.GetCategoryIcon(cat.Kind),
			nameStyle.Render(cat.Name),
			styles.DimStyle.Render(utils.FormatCount(len(cat.Entries))),
			styles.FileSizeStyle.Render(utils.FormatBytes(cat.TotalSize())),
		)
	}

	e, ok := findEntry(cat, r.path)
	if !ok {
		return cursor
	}
	checkbox := styles.UncheckedBox()
	if e.Selected {
		checkbox = styles.CheckedBox()
	}
	return fmt.Sprintf("%s    %s %s %s",
		cursor,
		checkbox,
		styles.FilePathStyle.Render(uiutils.TruncatePath(e.Path, m.width-30)),
		styles.FileSizeStyle.Render(utils.FormatBytes(e.Size)),
	)
}

func (m *CategoryViewModel) infoPanel() *components.InfoPanel {
	if !m.info || m.cursor >= len(m.rows) {
		return nil
	}
	r := m.rows[m.cursor]
	cat := m.view.Category(r.cat)
	if cat == nil {
		return nil
	}

	var panel *components.InfoPanel
	if r.kind == rowCategory {
		panel = components.CategoryInfoPanel(cat)
	} else {
		e, ok := findEntry(cat, r.path)
		if !ok {
			return nil
		}
		panel = components.EntryInfoPanel(e)
	}
	panel.Toggle()
	return panel
}

func findEntry(cat *scanner.Category, path string) (scanner.Entry, bool) {
	for _, e := range cat.Entries {
		if e.Path == path {
			return e, true
		}
	}
	return scanner.Entry{}, false
}
