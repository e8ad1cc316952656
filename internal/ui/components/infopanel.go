package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/junk-sweeper/internal/classifier"
	"github.com/fenilsonani/junk-sweeper/internal/scanner"
	"github.com/fenilsonani/junk-sweeper/internal/ui/styles"
	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

// InfoItem is one labelled line of an info panel
type InfoItem struct {
	Label string
	Value string
}

// InfoPanel shows details about the row under the cursor
type InfoPanel struct {
	title   string
	items   []InfoItem
	visible bool
}

// NewInfoPanel creates a hidden, empty panel
func NewInfoPanel(title string) *InfoPanel {
	return &InfoPanel{title: title}
}

// AddItem appends a line to the panel
func (p *InfoPanel) AddItem(label, value string) {
	p.items = append(p.items, InfoItem{Label: label, Value: value})
}

// Items returns the panel lines
func (p *InfoPanel) Items() []InfoItem {
	return p.items
}

// Toggle toggles the visibility of the panel
func (p *InfoPanel) Toggle() {
	p.visible = !p.visible
}

// IsVisible returns whether the panel is visible
func (p *InfoPanel) IsVisible() bool {
	return p.visible
}

// Render draws the panel in a rounded box of the given width. Hidden or
// empty panels render as "".
func (p *InfoPanel) Render(width int) string {
	if !p.visible || len(p.items) == 0 {
		return ""
	}
	if width < 40 {
		width = 40
	}

	labelWidth := 0
	for _, it := range p.items {
		if w := lipgloss.Width(it.Label); w > labelWidth {
			labelWidth = w
		}
	}

	var b strings.Builder
	b.WriteString(styles.InfoStyle.Render(p.title))
	for _, it := range p.items {
		b.WriteString("\n")
		b.WriteString(styles.DimStyle.Render(it.Label + ":" + strings.Repeat(" ", labelWidth-lipgloss.Width(it.Label)+1)))
		b.WriteString(it.Value)
	}

	return styles.PanelStyle.Width(width).Render(b.String())
}

// CategoryInfoPanel describes a category row
func CategoryInfoPanel(cat *scanner.Category) *InfoPanel {
	p := NewInfoPanel(cat.Name)
	p.AddItem("Kind", cat.Kind.String())
	p.AddItem("Files", utils.FormatCount(len(cat.Entries)))
	p.AddItem("Size", utils.FormatBytes(cat.TotalSize()))
	p.AddItem("Selected", utils.FormatBytes(cat.SelectedSize()))
	if d := classifier.Lookup(cat.ID); d.Kind == classifier.KindJunk {
		p.AddItem("Safety", "safe to delete")
	}
	return p
}

// EntryInfoPanel describes a file row
func EntryInfoPanel(e scanner.Entry) *InfoPanel {
	p := NewInfoPanel(e.Name)
	p.AddItem("Path", e.Path)
	p.AddItem("Size", utils.FormatBytes(e.Size))
	if !e.ModTime.IsZero() {
		p.AddItem("Modified", e.ModTime.Format("2006-01-02 15:04"))
	}
	p.AddItem("Category", classifier.Lookup(e.Category).Name)
	if e.IndexID != "" {
		p.AddItem("Index ID", e.IndexID)
	}
	return p
}
