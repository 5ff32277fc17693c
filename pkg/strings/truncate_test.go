package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSingleLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unchanged", "list documents", "list documents"},
		{"newlines", "List documents\nbelow content/", "List documents below content/"},
		{"crlf and tabs", "a\r\n\tb", "a b"},
		{"trimmed", "  padded  ", "padded"},
		{"whitespace only", " \n\t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SingleLine(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"short", "short", 10, "short"},
		{"exact", "exact", 5, "exact"},
		{"cut", "abcdefghijklmnop", 10, "abcdefg..."},
		{"runes", "ünïcödéünïcödé", 10, "ünïcödé..."},
		{"clamped", "hello", 1, "h..."},
		{"negative", "hello", -3, "h..."},
		{"empty", "", 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.input, tt.max))
		})
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize("Summarize one document\n\nfrom the workspace content directory", 30)
	assert.Equal(t, "Summarize one document from...", got)
	assert.Len(t, []rune(got), 30)
}
