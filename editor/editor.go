package editor

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Kind selects which external program opens a note.
type Kind int

const (
	Edit Kind = iota
	View
)

func (k Kind) String() string {
	if k == View {
		return "viewer"
	}
	return "editor"
}

type Editor struct {
	Editing   bool   // Is an external program running
	EditorCmd string // Command to open the editor on shell
	ViewerCmd string // Command to open the read-only viewer
}

// ExternalProcessError reports a viewer or editor that could not be started
// or exited with an error.
type ExternalProcessError struct {
	Kind    Kind
	Command string
	Path    string
	Err     error
}

func (e *ExternalProcessError) Error() string {
	return fmt.Sprintf("%s %q on %s: %v", e.Kind, e.Command, e.Path, e.Err)
}

func (e *ExternalProcessError) Unwrap() error { return e.Err }

// FinishedMsg is sent when the external program has exited.
type FinishedMsg struct {
	Kind Kind
	Path string
	Err  *ExternalProcessError // nil on success
}

var errNoCommand = errors.New("no command configured")

// command builds the process for line, which may carry arguments of its own
// (e.g. "code --wait"). The note path is appended last.
func command(line, path string) (*exec.Cmd, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errNoCommand
	}
	args := append(fields[1:], path)
	return exec.Command(fields[0], args...), nil
}

func (m *Editor) Init() tea.Cmd {
	return nil
}

// Open suspends the program and runs the editor or viewer on path.
func (m *Editor) Open(kind Kind, path string) tea.Cmd {
	line := m.EditorCmd
	if kind == View {
		line = m.ViewerCmd
	}

	fail := func(err error) *ExternalProcessError {
		return &ExternalProcessError{Kind: kind, Command: line, Path: path, Err: err}
	}

	c, err := command(line, path)
	if err != nil {
		return func() tea.Msg {
			return FinishedMsg{Kind: kind, Path: path, Err: fail(err)}
		}
	}

	m.Editing = true
	return tea.ExecProcess(c, func(err error) tea.Msg {
		msg := FinishedMsg{Kind: kind, Path: path}
		if err != nil {
			msg.Err = fail(err)
		}
		return msg
	})
}

func (m Editor) Update(msg tea.Msg) (Editor, tea.Cmd) {
	switch msg.(type) {
	case FinishedMsg:
		m.Editing = false
	}
	return m, nil
}

// Doesnt render anything
func (m Editor) View() string {
	return ""
}
