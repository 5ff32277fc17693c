package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Render(t *testing.T) {
	e := New()

	tests := []struct {
		name    string
		text    string
		vars    map[string]any
		want    string
		wantErr string
	}{
		{"plain text", "no templates here", nil, "no templates here", ""},
		{"variable", "Hello {{ .name }}", map[string]any{"name": "docs"}, "Hello docs", ""},
		{"sprig function", "{{ .name | upper }}", map[string]any{"name": "docs"}, "DOCS", ""},
		{"sprig default", `{{ .tone | default "neutral" }}`, map[string]any{"tone": nil}, "neutral", ""},
		{"missing variable", "{{ .absent }}", map[string]any{}, "", "failed to render"},
		{"parse error", "{{ .name ", map[string]any{}, "", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Render(tt.text, tt.vars)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_ReplaceNested(t *testing.T) {
	e := New()
	value := map[string]any{
		"title": "{{ .name | title }}",
		"tags":  []any{"{{ .tag }}", "static"},
		"count": 3,
	}

	got, err := e.Replace(value, map[string]any{"name": "release notes", "tag": "docs"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"title": "Release Notes",
		"tags":  []any{"docs", "static"},
		"count": 3,
	}, got)

	_, err = e.Replace(value, map[string]any{"name": "x"})
	assert.ErrorContains(t, err, "error in key 'tags'")
}

func TestEngine_ExtractAndValidateContext(t *testing.T) {
	e := New()
	value := []any{"{{ .b }} and {{- .a | upper }}", map[string]any{"k": "{{ .a }}"}}

	assert.Equal(t, []string{"a", "b"}, e.ExtractVariables(value))
	assert.NoError(t, e.ValidateContext(value, map[string]any{"a": 1, "b": 2}))
	assert.EqualError(t, e.ValidateContext(value, map[string]any{"a": 1}), "missing required variables: b")
}

func TestEngine_Validate(t *testing.T) {
	e := New()
	assert.NoError(t, e.Validate(map[string]any{"ok": "{{ .x | trim }}"}))
	assert.Error(t, e.Validate([]any{"{{ .x | nosuchfunc }}"}))
}

func TestMergeContexts(t *testing.T) {
	got := MergeContexts(
		map[string]any{"a": 1, "b": 1},
		map[string]any{"b": 2},
		nil,
	)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, got)
}
