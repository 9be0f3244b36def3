// Package tui provides the interactive terminal UI: a menu of the domain
// tables and a read-only record browser for the selected table.
package tui

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colmago/colmago/internal/store"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// FetchFunc loads all records of a table for display.
type FetchFunc func(table string) []store.Record

type uiState int

const (
	stateMenu uiState = iota
	stateRecords
)

type tableItem struct {
	name string
}

func (i tableItem) Title() string       { return strings.ToUpper(i.name[:1]) + i.name[1:] }
func (i tableItem) Description() string { return "Tabla " + i.name }
func (i tableItem) FilterValue() string { return i.name }

type recordItem struct {
	record store.Record
}

func (i recordItem) Title() string {
	id := ""
	if v, ok := i.record["id"]; ok {
		id = fmt.Sprint(v)
	}
	return "#" + id
}

func (i recordItem) FilterValue() string {
	return i.Description()
}

// Description renders the non-id fields in a stable order.
func (i recordItem) Description() string {
	fields := make([]string, 0, len(i.record))
	for field := range i.record {
		if field != "id" {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", field, i.record[field]))
	}
	return strings.Join(parts, "  ")
}

type recordStyles struct {
	normal   lipgloss.Style
	selected lipgloss.Style
	idStyle  lipgloss.Style
}

func newRecordStyles() recordStyles {
	return recordStyles{
		normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			PaddingLeft(2),
		selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("237")).
			PaddingLeft(2),
		idStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("110")),
	}
}

type recordDelegate struct {
	styles recordStyles
}

func newRecordDelegate() recordDelegate {
	return recordDelegate{styles: newRecordStyles()}
}

func (d recordDelegate) Height() int                         { return 2 }
func (d recordDelegate) Spacing() int                        { return 1 }
func (d recordDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d recordDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	rec, ok := item.(recordItem)
	if !ok {
		return
	}

	idLine := d.styles.idStyle.Render(rec.Title())
	content := lipgloss.JoinVertical(lipgloss.Left, idLine, rec.Description())

	style := d.styles.normal
	if idx == m.Index() {
		style = d.styles.selected
	}
	fmt.Fprint(w, style.Render(content))
}

type model struct {
	state    uiState
	menu     list.Model
	records  list.Model
	fetch    FetchFunc
	status   string
	current  string
	quitting bool
}

func newModel(tables []string, fetch FetchFunc, status string) model {
	items := make([]list.Item, 0, len(tables))
	for _, table := range tables {
		items = append(items, tableItem{name: table})
	}

	menu := list.New(items, list.NewDefaultDelegate(), defaultListWidth, defaultListHeight)
	menu.Title = fmt.Sprintf("ColmaGo (%s)", status)
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)

	records := list.New(nil, newRecordDelegate(), defaultListWidth, defaultListHeight)
	records.SetShowStatusBar(false)

	return model{
		state:   stateMenu,
		menu:    menu,
		records: records,
		fetch:   fetch,
		status:  status,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.menu.SetSize(msg.Width, msg.Height)
		m.records.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		// While the record list is filtering, keys belong to the list
		if m.state == stateRecords && m.records.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			if m.state == stateMenu {
				item, ok := m.menu.SelectedItem().(tableItem)
				if !ok {
					return m, nil
				}
				m.openTable(item.name)
				return m, nil
			}

		case "esc":
			if m.state == stateRecords {
				m.state = stateMenu
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	if m.state == stateMenu {
		m.menu, cmd = m.menu.Update(msg)
	} else {
		m.records, cmd = m.records.Update(msg)
	}
	return m, cmd
}

// openTable loads the records of a table into the browser list.
func (m *model) openTable(table string) {
	records := m.fetch(table)
	items := make([]list.Item, 0, len(records))
	for _, record := range records {
		items = append(items, recordItem{record: record})
	}

	width, height := m.menu.Width(), m.menu.Height()
	m.records = list.New(items, newRecordDelegate(), width, height)
	m.records.Title = fmt.Sprintf("%s (%d registros)", table, len(records))
	m.records.SetShowStatusBar(false)
	m.records.SetFilteringEnabled(true)
	m.current = table
	m.state = stateRecords
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if m.state == stateRecords {
		return m.records.View()
	}
	return m.menu.View()
}

// RunMenu starts the interactive table menu over the given store.
func RunMenu(st *store.Store, tables []string) error {
	fetch := func(table string) []store.Record {
		return st.Select(context.Background(), table, nil)
	}
	m := newModel(tables, fetch, st.ConnectionStatus())

	if _, err := runProgram(m); err != nil {
		return fmt.Errorf("failed to run table menu: %w", err)
	}
	return nil
}
