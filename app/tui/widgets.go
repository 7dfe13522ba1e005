package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// Note implements list.Item interface
type Note struct {
	path    string
	title   string
	content string
}

func (n Note) Path() string        { return n.path }
func (n Note) Title() string       { return n.title }
func (n Note) Description() string { return n.content }
func (n Note) FilterValue() string { return "" }

// Create the list model
func newListModel() list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.SetShowFilter(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.NoItems = l.Styles.NoItems.Copy().PaddingLeft(2)
	return l
}

// Create the text input model
func newTextInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = `tag:go AND (bleve OR "full text")`
	ti.Prompt = "Search:"
	ti.PromptStyle = lipgloss.NewStyle().
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("230")).
		MarginRight(1).
		MarginLeft(2).
		Padding(0, 1)
	ti.Focus()
	return ti
}
