package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/knipferrc/teacup/code"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/noelzubin/mdq/editor"
	"github.com/noelzubin/mdq/search"
	"github.com/noelzubin/mdq/search/query"
)

var (
	ListStyle   = lipgloss.NewStyle().MarginTop(1)
	StatusStyle = lipgloss.NewStyle().MarginLeft(2).Foreground(lipgloss.Color("241"))
	ErrorStyle  = lipgloss.NewStyle().MarginLeft(2).Foreground(lipgloss.Color("196"))
)

// State is where the session is in its submit/display/open cycle.
type State int

const (
	Idle       State = iota // editing the query
	Evaluating              // waiting for the searcher
	Displaying              // results on screen
	Selected                // an external program owns the terminal
	Exiting
)

func (s State) String() string {
	return [...]string{"idle", "evaluating", "displaying", "selected", "exiting"}[s]
}

// Options configures a session.
type Options struct {
	Searcher search.Searcher
	Editor   editor.Editor
	Limit    int
	Query    string // evaluated immediately when set
	Log      *logrus.Entry
}

// Main app model for bubbletea
type Model struct {
	width     int             // width of terminal
	height    int             // height of terminal
	state     State           // current session state
	status    string          // message under the input
	failed    bool            // status is an error
	preview   *code.Bubble    // the preview widget model
	list      list.Model      // the list widget model
	textInput textinput.Model // the input search widget model
	searcher  search.Searcher // read-only index handle
	editor    editor.Editor   // for opening up external editor.
	limit     int
	log       *logrus.Entry
}

// ResultMsg is emitted when the searcher has answered.
type ResultMsg struct {
	Query string // empty for the recent-notes listing
	search.SearchResult
}

// Create a new model for the session
func New(opts Options) *Model {
	m := &Model{
		state:     Evaluating,
		list:      newListModel(),
		textInput: newTextInput(),
		searcher:  opts.Searcher,
		editor:    opts.Editor,
		limit:     opts.Limit,
		log:       opts.Log,
	}
	if m.log == nil {
		m.log = logrus.NewEntry(logrus.StandardLogger())
	}
	if m.limit <= 0 {
		m.limit = 100
	}
	m.textInput.SetValue(opts.Query)
	return m
}

func (m Model) State() State { return m.state }

func (m *Model) setListSize() {
	width := m.width
	height := m.height

	// If preview is open take half width
	if m.preview != nil {
		width = m.width / 2
	}

	m.list.SetSize(width, height-3)
}

func (m *Model) setPreviewSize() {
	if m.preview != nil {
		m.preview.SetSize(m.width/2, m.height-2)
	}
}

func (m *Model) updateSize(width, height int) {
	m.height = height
	m.width = width

	m.setListSize()
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, m.initialCmd())
}

// initialCmd evaluates the starting query, or lists recent notes without one.
func (m Model) initialCmd() tea.Cmd {
	input := strings.TrimSpace(m.textInput.Value())
	if input == "" {
		return m.recent()
	}
	expr, err := query.Parse(input)
	if err != nil {
		return func() tea.Msg { return parseFailedMsg{err} }
	}
	return m.evaluate(expr)
}

type parseFailedMsg struct{ err error }

func (m Model) evaluate(expr query.Expr) tea.Cmd {
	searcher, limit, q := m.searcher, m.limit, expr.String()
	return func() tea.Msg {
		res, err := searcher.Search(context.Background(), expr, limit)
		if err != nil {
			res.Err = err
		}
		return ResultMsg{Query: q, SearchResult: res}
	}
}

func (m Model) recent() tea.Cmd {
	searcher, limit := m.searcher, m.limit
	return func() tea.Msg {
		res, err := searcher.Recent(context.Background(), limit)
		if err != nil {
			res.Err = err
		}
		return ResultMsg{SearchResult: res}
	}
}

var blanks = regexp.MustCompile(`\s{2,}|\t+`)

// Formats the content of the file
// removes newslines and replaces tabs with single space.
func formatContent(content string) string {
	s := stripansi.Strip(content)
	s = strings.ReplaceAll(s, "\n", " ↵ ")
	return blanks.ReplaceAllString(s, " ")
}

func (m *Model) setStatus(failed bool, format string, args ...interface{}) {
	m.failed = failed
	m.status = fmt.Sprintf(format, args...)
}

func (m *Model) selected() (Note, bool) {
	note, ok := m.list.SelectedItem().(Note)
	return note, ok
}

// The update fn for the bubbletea model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case ResultMsg:
		if msg.Err != nil {
			m.log.WithError(msg.Err).Error("search failed")
			m.setStatus(true, "search failed: %v", msg.Err)
			m.state = Idle
			break
		}
		m.list.SetItems(lo.Map(msg.Hits, func(hit search.DocumentMatch, _ int) list.Item {
			return Note{path: hit.Path, title: hit.Title, content: formatContent(hit.Content)}
		}))
		m.list.ResetSelected()
		switch {
		case msg.Query == "":
			m.setStatus(false, "%d recent notes", len(msg.Hits))
		case len(msg.Hits) == 0:
			m.setStatus(false, "no matches for %s", msg.Query)
		default:
			m.setStatus(false, "%d of %d matches for %s", len(msg.Hits), msg.Total, msg.Query)
		}
		m.log.WithFields(logrus.Fields{"query": msg.Query, "hits": len(msg.Hits)}).Debug("results")
		m.state = Displaying

	case parseFailedMsg:
		m.setStatus(true, "%v", msg.err)
		m.state = Idle

	case editor.FinishedMsg:
		if msg.Err != nil {
			m.log.WithError(msg.Err).Warn("external program failed")
			m.setStatus(true, "%v", msg.Err)
		}
		m.state = Idle

	case tea.KeyMsg:
		if m.state == Evaluating || m.state == Selected || m.state == Exiting || m.editor.Editing {
			return m, nil
		}

		// Keybindings:
		// Enter - run the query
		// Tab/Down - move down in the list
		// Shift+Tab/Up - move up in the list
		// Ctrl+P - toggle preview for the selected note
		// Esc - close preview, or quit
		// Ctrl+K - Preview lineup
		// Ctrl+J - Preview line down
		// Ctrl+O - Open the note in the editor
		// Ctrl+V - Open the note in the viewer
		// Ctrl+C/Ctrl+D - quit the application
		switch msg.String() {
		case "enter":
			return m.submit()
		case "tab", "down":
			m.list.CursorDown()
		case "shift+tab", "up":
			m.list.CursorUp()
		case "ctrl+p":
			if m.preview != nil {
				m.preview = nil
			} else if note, ok := m.selected(); ok {
				cmds = append(cmds, m.openPreview(note.path))
			}
		case "esc":
			if m.preview == nil {
				m.state = Exiting
				return m, tea.Quit
			}
			m.preview = nil
		case "ctrl+c", "ctrl+d":
			m.state = Exiting
			return m, tea.Quit
		case "ctrl+k":
			if m.preview != nil {
				m.preview.Viewport.LineUp(5)
			}
		case "ctrl+j":
			if m.preview != nil {
				m.preview.Viewport.LineDown(5)
			}
		case "ctrl+o", "ctrl+v":
			if note, ok := m.selected(); ok {
				kind := editor.Edit
				if msg.String() == "ctrl+v" {
					kind = editor.View
				}
				m.state = Selected
				m.log.WithFields(logrus.Fields{"path": note.path, "with": kind}).Info("opening note")
				cmd = m.editor.Open(kind, note.path)
				return m, cmd
			}
		default:
			// save to compare if changed
			oldValue := m.textInput.Value()
			m.textInput, cmd = m.textInput.Update(msg)
			cmds = append(cmds, cmd)
			if m.textInput.Value() != oldValue {
				m.state = Idle
				m.status = ""
			}
		}
		m.setListSize()
		m.setPreviewSize()
		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.updateSize(msg.Width, msg.Height)
	}

	// Update the widgets sizes
	m.setListSize()
	m.setPreviewSize()

	// pass on message to the other components
	m.textInput, cmd = m.textInput.Update(msg)
	cmds = append(cmds, cmd)

	m.editor, cmd = m.editor.Update(msg)
	cmds = append(cmds, cmd)

	if m.preview != nil {
		var newPreview code.Bubble
		newPreview, cmd = m.preview.Update(msg)
		cmds = append(cmds, cmd)
		m.preview = &newPreview
	}

	return m, tea.Batch(cmds...)
}

// submit parses the input and starts evaluating it. A syntax error is shown
// in place and leaves the session idle.
func (m Model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textInput.Value())
	if input == "" {
		m.state = Evaluating
		m.status = ""
		return m, m.recent()
	}

	expr, err := query.Parse(input)
	if err != nil {
		m.log.WithError(err).Debug("query rejected")
		m.setStatus(true, "%v", err)
		m.state = Idle
		return m, nil
	}

	m.state = Evaluating
	m.setStatus(false, "searching…")
	return m, m.evaluate(expr)
}

func (m *Model) openPreview(path string) tea.Cmd {
	codeModel := code.New(false, true, lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"})
	codeModel.SetSize(m.width/2, m.height-2)
	cmd := codeModel.SetFileName(path)
	m.preview = &codeModel
	m.setListSize()
	return cmd
}

// View fn for bubbletea model
func (m Model) View() string {
	listContent := ListStyle.Render(m.list.View())

	// render list
	innerContent := listContent

	// if preview then preview takes up half the width
	if m.preview != nil {
		innerContent = lipgloss.JoinHorizontal(lipgloss.Left,
			listContent,      // render list
			m.preview.View(), // render preview.
		)
	}

	status := StatusStyle.Render(m.status)
	if m.failed {
		status = ErrorStyle.Render(m.status)
	}

	// render the input box, the status line and the content
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.textInput.View(), // render the text input
		status,
		innerContent, // render the main content
	)
}
