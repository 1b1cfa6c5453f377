package stores

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const presetYAML = `
systemPrompt: You are a terse assistant.
welcome:
  role: assistant
  content: Hi, ask me anything.
model: deepseek-chat
temperature: 0.3
replies:
  - keywords: [ping]
    text: pong
fallbacks:
  - "Interesting."
`

func TestLoadPreset(t *testing.T) {
	name := filepath.Join(t.TempDir(), "preset.yaml")
	require.NoError(t, os.WriteFile(name, []byte(presetYAML), 0o600))

	doc, err := LoadPreset(name)
	require.NoError(t, err)
	assert.Equal(t, "You are a terse assistant.", doc.SystemPrompt)
	require.NotNil(t, doc.Welcome)
	assert.Equal(t, "Hi, ask me anything.", doc.Welcome.Content)
	assert.Equal(t, "deepseek-chat", doc.Model)
	assert.InDelta(t, 0.3, doc.Temperature, 0.001)
	require.Len(t, doc.Replies, 1)
	assert.Equal(t, []string{"ping"}, doc.Replies[0].Keywords)
	assert.Equal(t, []string{"Interesting."}, doc.Fallbacks)
}

func TestLoadPresetEmptyAndMissing(t *testing.T) {
	doc, err := LoadPreset("")
	assert.NoError(t, err)
	assert.Empty(t, doc.SystemPrompt)

	_, err = LoadPreset(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
