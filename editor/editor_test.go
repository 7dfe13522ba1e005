package editor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandSplitsArguments(t *testing.T) {
	c, err := command("code  --wait -n", "/notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "--wait", "-n", "/notes/a.md"}, c.Args)

	c, err = command("less", "/notes/a b.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"less", "/notes/a b.md"}, c.Args)
}

func TestOpenWithoutCommandFails(t *testing.T) {
	e := Editor{EditorCmd: "vim", ViewerCmd: "  "}

	cmd := e.Open(View, "/notes/a.md")
	require.NotNil(t, cmd)
	assert.False(t, e.Editing)

	msg, ok := cmd().(FinishedMsg)
	require.True(t, ok)
	assert.Equal(t, View, msg.Kind)
	require.NotNil(t, msg.Err)
	assert.True(t, errors.Is(msg.Err, errNoCommand))
	assert.Contains(t, msg.Err.Error(), "viewer")
}

func TestOpenMarksEditing(t *testing.T) {
	e := Editor{EditorCmd: "vim", ViewerCmd: "less"}

	cmd := e.Open(Edit, "/notes/a.md")
	require.NotNil(t, cmd)
	assert.True(t, e.Editing)

	e, _ = e.Update(FinishedMsg{Kind: Edit, Path: "/notes/a.md"})
	assert.False(t, e.Editing)
}
