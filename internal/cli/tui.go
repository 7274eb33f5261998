package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/widetable/pkg/frame"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listMarkStyle     = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// CountryPicker - Interactive country selection
// =============================================================================

// countryItem is one row of the picker.
type countryItem struct {
	Name      string
	Continent string
	Total     int64
}

// CountryPicker is the bubbletea model behind "series" without arguments.
// Typing filters by name, space toggles, enter confirms.
type CountryPicker struct {
	items    []countryItem
	visible  []int
	picked   map[string]bool
	order    []string
	query    string
	cursor   int
	offset   int
	height   int
	done     bool
	canceled bool
}

// NewCountryPicker lists the countries of a normalized table in index order.
func NewCountryPicker(df *frame.Table) CountryPicker {
	items := make([]countryItem, df.Len())
	for i, r := range df.Rows() {
		items[i] = countryItem{
			Name:      r.Key().String(),
			Continent: r.Get(frame.ColContinent).Str(),
			Total:     r.Get(frame.ColTotal).Int(),
		}
	}
	m := CountryPicker{items: items, picked: make(map[string]bool), height: 15}
	m.refilter()
	return m
}

// Selected returns the picked countries in the order they were picked, or
// nil when the picker was cancelled.
func (m CountryPicker) Selected() []string {
	if m.canceled {
		return nil
	}
	out := make([]string, 0, len(m.order))
	for _, name := range m.order {
		if m.picked[name] {
			out = append(out, name)
		}
	}
	return out
}

func (m *CountryPicker) refilter() {
	q := strings.ToLower(m.query)
	m.visible = m.visible[:0]
	for i, it := range m.items {
		if q == "" || strings.Contains(strings.ToLower(it.Name), q) {
			m.visible = append(m.visible, i)
		}
	}
	m.cursor, m.offset = 0, 0
}

func (m *CountryPicker) toggle() {
	if len(m.visible) == 0 {
		return
	}
	name := m.items[m.visible[m.cursor]].Name
	if m.picked[name] {
		delete(m.picked, name)
		return
	}
	m.picked[name] = true
	m.order = append(m.order, name)
}

func (m CountryPicker) Init() tea.Cmd {
	return nil
}

func (m CountryPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		case tea.KeyEnter:
			if len(m.picked) == 0 {
				m.toggle()
			}
			m.done = true
			return m, tea.Quit
		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
				m.offset = min(m.offset, m.cursor)
			}
		case tea.KeyDown:
			if m.cursor < len(m.visible)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case tea.KeySpace:
			m.toggle()
		case tea.KeyBackspace:
			if m.query != "" {
				m.query = m.query[:len(m.query)-1]
				m.refilter()
			}
		case tea.KeyRunes:
			m.query += string(msg.Runes)
			m.refilter()
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-7, 5)
	}
	return m, nil
}

func (m CountryPicker) View() string {
	if m.done || m.canceled {
		return ""
	}
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Countries"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("type to filter  ↑/↓ navigate  space pick  ⏎ done  esc quit"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("filter: ") + listNormalStyle.Render(m.query))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.visible))
	for pos := m.offset; pos < end; pos++ {
		it := m.items[m.visible[pos]]
		cursor, style := "  ", listNormalStyle
		if pos == m.cursor {
			cursor, style = "▸ ", listSelectedStyle
		}
		mark := "  "
		if m.picked[it.Name] {
			mark = listMarkStyle.Render("✓ ")
		}
		fmt.Fprintf(&b, "%s%s%s %s\n", cursor, mark,
			style.Render(fmt.Sprintf("%-32s", it.Name)),
			listDimStyle.Render(fmt.Sprintf("%-34s %9d", it.Continent, it.Total)))
	}
	if len(m.visible) == 0 {
		b.WriteString(listDimStyle.Render("  no match"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d of %d shown · %d picked", len(m.visible), len(m.items), len(m.picked))))
	return b.String()
}

// pickCountries runs the picker on the terminal.
func pickCountries(df *frame.Table) ([]string, error) {
	final, err := tea.NewProgram(NewCountryPicker(df)).Run()
	if err != nil {
		return nil, fmt.Errorf("country picker: %w", err)
	}
	return final.(CountryPicker).Selected(), nil
}
