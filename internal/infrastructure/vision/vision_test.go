package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDescriptionJSON(t *testing.T) {
	raw := `{"medium_description": "A silk patola saree.", "rich_description": "Double ikat weave in crimson and gold."}`

	got := parseDescription(raw)

	assert.Equal(t, "A silk patola saree.\n\nDouble ikat weave in crimson and gold.", got)
}

func TestParseDescriptionFencedJSON(t *testing.T) {
	raw := "```json\n{\"medium_description\": \"Short.\", \"rich_description\": \"Long.\"}\n```"

	assert.Equal(t, "Short.\n\nLong.", parseDescription(raw))
}

func TestParseDescriptionSeparatorFallback(t *testing.T) {
	raw := "A short description.\n---\nA much longer description."

	assert.Equal(t, "A short description.\n\nA much longer description.", parseDescription(raw))
}

func TestParseDescriptionRawFallback(t *testing.T) {
	raw := "Just plain prose from the model."

	assert.Equal(t, raw, parseDescription(raw))
}

func TestParseDescriptionPartialJSON(t *testing.T) {
	// модель вернула только одно поле: используется то, что есть
	raw := `{"medium_description": "Only medium."}`

	assert.Equal(t, "Only medium.", parseDescription(raw))
}
