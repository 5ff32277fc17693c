package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterOwner struct {
	id int
}

func TestDefinition_Key(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		fields DefinitionFields
		want   string
	}{
		{
			name:   "tool keyed by name",
			kind:   KindTool,
			fields: DefinitionFields{Name: "list_documents"},
			want:   "list_documents",
		},
		{
			name:   "prompt keyed by name",
			kind:   KindPrompt,
			fields: DefinitionFields{Name: "summarize"},
			want:   "summarize",
		},
		{
			name:   "static resource keyed by uri",
			kind:   KindResource,
			fields: DefinitionFields{Name: "summary", URI: "capstan://catalog/summary"},
			want:   "capstan://catalog/summary",
		},
		{
			name:   "resource template keyed by name",
			kind:   KindResource,
			fields: DefinitionFields{Name: "document", URI: "capstan://documents/{path}", Template: true},
			want:   "document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewDefinition(tt.kind, tt.fields).Key())
		})
	}
}

func TestNewDefinition_KindSpecificFlags(t *testing.T) {
	prompt := NewDefinition(KindPrompt, DefinitionFields{Name: "p", Dangerous: true, Template: true})
	assert.False(t, prompt.Dangerous())
	assert.False(t, prompt.Template())

	tool := NewDefinition(KindTool, DefinitionFields{Name: "t", Dangerous: true})
	assert.True(t, tool.Dangerous())
	assert.Equal(t, DefaultCategory, tool.Category())
}

func TestNewDefinition_CopiesInputs(t *testing.T) {
	completions := map[string]string{"path": "core/completion.DocumentPaths"}
	params := []Param{{Name: "path"}}

	def := NewDefinition(KindTool, DefinitionFields{Name: "t", CompletionProviders: completions, Params: params})
	completions["other"] = "x"
	params[0].Name = "changed"

	assert.Len(t, def.CompletionProviders(), 1)
	assert.Equal(t, "path", def.Params()[0].Name)

	out := def.CompletionProviders()
	out["mutated"] = "y"
	_, ok := def.CompletionProvider("mutated")
	assert.False(t, ok)
	assert.Equal(t, []string{"path"}, def.CompletionParams())
	assert.True(t, def.HasCompletions())
}

func TestDefinition_IsConditionMet(t *testing.T) {
	t.Run("no condition is always met", func(t *testing.T) {
		def := NewDefinition(KindTool, DefinitionFields{Name: "t"})
		assert.False(t, def.HasCondition())
		assert.True(t, def.IsConditionMet())
	})

	t.Run("condition is not evaluated on construction and re-evaluated on every call", func(t *testing.T) {
		calls := 0
		cond := NewCondition("flip", func() bool {
			calls++
			return calls%2 == 1
		})

		def := NewDefinition(KindTool, DefinitionFields{Name: "t", Condition: cond})
		assert.Equal(t, 0, calls)

		first := def.IsConditionMet()
		second := def.IsConditionMet()
		assert.NotEqual(t, first, second)
		assert.Equal(t, 2, calls)
		assert.Equal(t, "flip", def.Condition().Method())
	})

	t.Run("condition without check fails closed", func(t *testing.T) {
		def := NewDefinition(KindTool, DefinitionFields{Name: "t", Condition: NewCondition("missing", nil)})
		assert.False(t, def.IsConditionMet())
	})
}

func TestDefinition_Invoke(t *testing.T) {
	next := 0
	newOwner := func() (any, error) {
		next++
		return &counterOwner{id: next}, nil
	}
	handler := Method(func(o *counterOwner, ctx context.Context, args map[string]any) (any, error) {
		return o.id, nil
	})

	def := NewDefinition(KindTool, DefinitionFields{Name: "t", Handler: handler, NewOwner: newOwner})

	first, err := def.Invoke(context.Background(), nil)
	require.NoError(t, err)
	second, err := def.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second, "each invocation must use a fresh owner")
}

func TestDefinition_InvokeErrors(t *testing.T) {
	ctx := context.Background()

	noHandler := NewDefinition(KindTool, DefinitionFields{Name: "t", NewOwner: func() (any, error) { return nil, nil }})
	_, err := noHandler.Invoke(ctx, nil)
	assert.ErrorContains(t, err, "has no handler")

	noFactory := NewDefinition(KindTool, DefinitionFields{Name: "t", OwnerClass: "x/y.Z", Handler: func(context.Context, any, map[string]any) (any, error) { return nil, nil }})
	_, err = noFactory.Invoke(ctx, nil)
	assert.ErrorContains(t, err, "not instantiable")

	boom := errors.New("boom")
	failing := NewDefinition(KindTool, DefinitionFields{
		Name:     "t",
		Handler:  func(context.Context, any, map[string]any) (any, error) { return nil, nil },
		NewOwner: func() (any, error) { return nil, boom },
	})
	_, err = failing.Invoke(ctx, nil)
	assert.ErrorIs(t, err, boom)
}

func TestMethodAndCheck_WrongOwnerType(t *testing.T) {
	handler := Method(func(o *counterOwner, ctx context.Context, args map[string]any) (any, error) {
		return "ok", nil
	})
	_, err := handler(context.Background(), "not an owner", nil)
	assert.Error(t, err)

	check := Check(func(o *counterOwner) bool { return true })
	assert.True(t, check(&counterOwner{}))
	assert.False(t, check(struct{}{}))
}
