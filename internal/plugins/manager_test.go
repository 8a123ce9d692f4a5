package plugins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personachat/personachat/internal/config"
)

func newTestManager(t *testing.T, dir string) *Manager {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return NewManager(&config.Config{PluginDir: dir}, &Context{})
}

func TestBuiltinsRegistered(t *testing.T) {
	m := newTestManager(t, t.TempDir())

	infos := m.List()
	require.Len(t, infos, 3)

	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
		assert.True(t, info.Enabled)
		assert.False(t, info.External)
	}
	assert.Equal(t, []string{"code_runner", "hello", "web_search"}, ids)
}

func TestHelloBypass(t *testing.T) {
	m := newTestManager(t, t.TempDir())

	res := m.ProcessInput(context.Background(), "/hello")
	assert.True(t, res.BypassAI)
	assert.Contains(t, res.Response, "Hello")
}

func TestNormalInputPassesThrough(t *testing.T) {
	m := newTestManager(t, t.TempDir())

	res := m.ProcessInput(context.Background(), "what is the weather?")
	assert.False(t, res.BypassAI)
	assert.Equal(t, "what is the weather?", res.Text)
}

func TestSearchWithoutCredential(t *testing.T) {
	m := newTestManager(t, t.TempDir())

	res := m.ProcessInput(context.Background(), "/search golang generics")
	assert.True(t, res.BypassAI)
	assert.Contains(t, res.Response, "TAVILY_API_KEY")
}

func TestExecuteWithoutCredential(t *testing.T) {
	m := newTestManager(t, t.TempDir())

	res := m.ProcessInput(context.Background(), "/execute print(1)")
	assert.True(t, res.BypassAI)
	assert.Contains(t, res.Response, "E2B_API_KEY")
}

func TestDisabledPluginSkipped(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	require.NoError(t, m.SetEnabled("hello", false))

	res := m.ProcessInput(context.Background(), "/hello")
	assert.False(t, res.BypassAI)
	assert.Equal(t, "/hello", res.Text)
}

func TestSetEnabledUnknownPlugin(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	assert.Error(t, m.SetEnabled("ghost", true))
}

func TestLoadExternalPlugins(t *testing.T) {
	m := newTestManager(t, "testdata")
	m.LoadExternal()

	infos := m.List()
	require.Len(t, infos, 5)

	byID := make(map[string]bool)
	for _, info := range infos {
		if info.External {
			byID[info.ID] = true
		}
	}
	assert.True(t, byID["shout"])
	assert.True(t, byID["prefix"])
}

func TestExternalInputHook(t *testing.T) {
	m := newTestManager(t, "testdata")
	m.LoadExternal()

	res := m.ProcessInput(context.Background(), "hi there")
	assert.False(t, res.BypassAI)
	assert.Equal(t, "[ext] hi there", res.Text)
}

func TestExternalOutputHook(t *testing.T) {
	m := newTestManager(t, "testdata")
	m.LoadExternal()

	out := m.ProcessOutput(context.Background(), "quiet reply")
	assert.Equal(t, "QUIET REPLY", out)
}

func TestRemoveExternalPlugin(t *testing.T) {
	m := newTestManager(t, "testdata")
	m.LoadExternal()
	require.Len(t, m.List(), 5)

	m.removeFile("testdata/shout.go")
	assert.Len(t, m.List(), 4)

	// Built-ins cannot be unloaded through file removal
	m.removeFile("hello.go")
	assert.Len(t, m.List(), 4)
}
