package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/junk-sweeper/internal/classifier"
	"github.com/fenilsonani/junk-sweeper/internal/scanner"
	"github.com/fenilsonani/junk-sweeper/internal/ui/styles"
	uiutils "github.com/fenilsonani/junk-sweeper/internal/ui/utils"
	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

// RiskLevel represents the risk level of a deletion operation
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

// Buttons, left to right
const (
	buttonYes = iota
	buttonReview
	buttonCancel
)

// ConfirmViewModel handles the confirmation screen
type ConfirmViewModel struct {
	entries   []scanner.Entry
	dryRun    bool
	cursor    int
	riskLevel RiskLevel
	width     int
	height    int
}

// NewConfirmViewModel creates a new confirm view model
func NewConfirmViewModel(entries []scanner.Entry, dryRun bool, width, height int) *ConfirmViewModel {
	risk := CalculateRiskLevel(entries)
	cursor := buttonYes
	if risk == RiskHigh {
		cursor = buttonCancel
	}

	m := &ConfirmViewModel{
		entries:   entries,
		dryRun:    dryRun,
		cursor:    cursor,
		riskLevel: risk,
	}
	m.SetSize(width, height)
	return m
}

// CalculateRiskLevel rates a batch by size and by what kind of files it
// holds. Junk is low risk; personal media is high.
func CalculateRiskLevel(entries []scanner.Entry) RiskLevel {
	kinds := make(map[classifier.Kind]bool)
	categories := make(map[classifier.CategoryID]bool)
	for _, e := range entries {
		kinds[classifier.Lookup(e.Category).Kind] = true
		categories[e.Category] = true
	}

	if len(entries) > 500 || kinds[classifier.KindMedia] || kinds[classifier.KindDate] {
		return RiskHigh
	}
	if len(entries) >= 50 || kinds[classifier.KindLarge] || kinds[classifier.KindOther] ||
		categories[classifier.ApkFiles] || len(categories) > 2 {
		return RiskMedium
	}
	return RiskLow
}

// SetSize updates the layout for the terminal size
func (m *ConfirmViewModel) SetSize(width, height int) {
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}
	m.width = width
	m.height = height
}

// Init initializes the confirm view
func (m *ConfirmViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *ConfirmViewModel) Update(msg tea.Msg) (*ConfirmViewModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "left", "h":
		if m.cursor > buttonYes {
			m.cursor--
		}
	case "right", "l":
		if m.cursor < buttonCancel {
			m.cursor++
		}
	case "tab":
		m.cursor = (m.cursor + 1) % 3
	case "enter":
		if m.cursor == buttonYes {
			return m, confirmed
		}
		return m, review
	case "y":
		return m, confirmed
	case "e", "n":
		return m, review
	}

	return m, nil
}

func confirmed() tea.Msg { return ConfirmedMsg{} }

func review() tea.Msg { return ReviewSelectionMsg{} }

// View renders the confirmation view
func (m *ConfirmViewModel) View() string {
	var b strings.Builder

	b.WriteString(uiutils.GetSizeWarningBanner(m.width, m.height))
	b.WriteString(styles.TitleStyle.Render("⚠️  Confirm Deletion"))
	b.WriteString("\n\n")

	type breakdown struct {
		count int
		size  int64
	}
	var totalSize int64
	byCategory := make(map[classifier.CategoryID]*breakdown)
	var order []classifier.CategoryID
	for _, e := range m.entries {
		totalSize += e.Size
		bd, ok := byCategory[e.Category]
		if !ok {
			bd = &breakdown{}
			byCategory[e.Category] = bd
			order = append(order, e.Category)
		}
		bd.count++
		bd.size += e.Size
	}
	classifier.SortIDs(order)

	verb := "delete"
	if m.dryRun {
		verb = "simulate deleting"
	}
	b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("You are about to %s %s files (%s)",
		verb, utils.FormatCount(len(m.entries)), utils.FormatBytes(totalSize))))
	b.WriteString("\n\n")

	b.WriteString(styles.SubtitleStyle.Render("Breakdown:"))
	b.WriteString("\n")
	for _, id := range order {
		bd := byCategory[id]
		b.WriteString(fmt.Sprintf("  %-15s %3d files (%s)\n",
			styles.CategoryStyle.Render(classifier.Lookup(id).Name+":"),
			bd.count,
			styles.FileSizeStyle.Render(utils.FormatBytes(bd.size))))
	}
	b.WriteString("\n")

	riskText, riskStyle, riskIcon := m.getRiskDisplay()
	b.WriteString(fmt.Sprintf("Risk Level: %s %s\n", riskIcon, riskStyle(riskText)))

	if m.riskLevel == RiskHigh {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render("⚠️  HIGH RISK OPERATION ⚠️"))
		b.WriteString("\n")
		b.WriteString(styles.WarningStyle.Render("This includes personal media or a large number of files!"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.dryRun {
		b.WriteString(styles.InfoStyle.Render("Dry run: no files will be removed."))
	} else {
		b.WriteString(styles.WarningStyle.Render("⚠️  This action cannot be undone!"))
	}
	b.WriteString("\n\n")

	buttons := []string{"[ Yes, delete ]", "[ Review ]", "[ Cancel ]"}
	buttons[m.cursor] = styles.HighlightStyle.Render(buttons[m.cursor])
	b.WriteString(strings.Join(buttons, "  "))
	b.WriteString("\n\n")

	helpText := "y:confirm  e:edit  n:cancel  ←/→:navigate"
	if m.width < 60 {
		helpText = "y:yes  e:edit  n:no  ←/→"
	}
	b.WriteString(styles.HelpStyle.Render(helpText))

	return b.String()
}

// getRiskDisplay returns the display text, style render function, and icon for the current risk level
func (m *ConfirmViewModel) getRiskDisplay() (string, func(...string) string, string) {
	switch m.riskLevel {
	case RiskHigh:
		return "HIGH (includes personal media or many files)", styles.ErrorStyle.Render, "🔴"
	case RiskMedium:
		return "MEDIUM (includes large, unclassified or installer files)", styles.WarningStyle.Render, "⚠️"
	default:
		return "LOW (cache, log and temp files only)", styles.SuccessStyle.Render, "✓"
	}
}
