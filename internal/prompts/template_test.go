package prompts

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/regex"
)

func TestTemplate_Render(t *testing.T) {
	t.Run("substitutes every placeholder", func(t *testing.T) {
		tmpl := MustTemplate("count", "test", "Generate {num} issues for {repo}", nil)

		got, err := tmpl.Render(map[string]any{"num": 3, "repo": "x/y"}, "")

		require.NoError(t, err)
		assert.Equal(t, "Generate 3 issues for x/y", got.Text)
		assert.Equal(t, "count", got.TemplateName)
	})

	t.Run("extra variables are ignored", func(t *testing.T) {
		tmpl := MustTemplate("t", "test", "Hello {name}", nil)

		got, err := tmpl.Render(map[string]any{"name": "mate", "unused": true}, "")

		require.NoError(t, err)
		assert.Equal(t, "Hello mate", got.Text)
	})

	t.Run("reports every missing variable", func(t *testing.T) {
		tmpl := MustTemplate("t", "test", "{c} {a} {b} {a}", nil)

		_, err := tmpl.Render(map[string]any{"b": 1}, "")

		var missing *errors.MissingVariableError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"a", "c"}, missing.Missing)
		assert.Equal(t, "t", missing.Template)
		assert.True(t, errors.IsType(err, errors.TypeConfiguration))
	})

	t.Run("declared variables are required even when unused", func(t *testing.T) {
		tmpl := MustTemplate("t", "test", "static text", nil, "language")

		_, err := tmpl.Render(map[string]any{}, "")

		var missing *errors.MissingVariableError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"language"}, missing.Missing)
	})

	t.Run("uses the provider variant when present", func(t *testing.T) {
		tmpl := MustTemplate("t", "test", "base {x}", map[string]string{"Ollama": "local {x}"})
		vars := map[string]any{"x": "!"}

		local, err := tmpl.Render(vars, "ollama")
		require.NoError(t, err)
		remote, err := tmpl.Render(vars, "gemini")
		require.NoError(t, err)
		plain, err := tmpl.Render(vars, "")
		require.NoError(t, err)

		assert.Equal(t, "local !", local.Text)
		assert.Equal(t, "ollama", local.Provider)
		assert.Equal(t, "base !", remote.Text)
		assert.Equal(t, "base !", plain.Text)
	})

	t.Run("variant placeholders are checked too", func(t *testing.T) {
		tmpl := MustTemplate("t", "test", "base {x}", map[string]string{"ollama": "{x} {y}"})

		_, err := tmpl.Render(map[string]any{"x": 1}, "ollama")

		var missing *errors.MissingVariableError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"y"}, missing.Missing)
	})

	t.Run("non identifier braces are literal", func(t *testing.T) {
		tmpl := MustTemplate("t", "test", `Example: [{"title": "{title}"}] {1} { spaced }`, nil)

		got, err := tmpl.Render(map[string]any{"title": "Fix"}, "")

		require.NoError(t, err)
		assert.Equal(t, `Example: [{"title": "Fix"}] {1} { spaced }`, got.Text)
	})

	t.Run("rendering is pure", func(t *testing.T) {
		tmpl := MustTemplate("t", "test", "{a}-{b}", nil)
		vars := map[string]any{"a": 1, "b": "two"}

		first, err1 := tmpl.Render(vars, "")
		second, err2 := tmpl.Render(vars, "")

		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, first, second)
	})
}

func TestTemplate_RenderProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	names := []string{"repo", "num", "files", "a_b", "x1", "Summary"}

	for i := 0; i < 200; i++ {
		var parts []string
		n := 1 + rng.Intn(6)
		for j := 0; j < n; j++ {
			parts = append(parts, fmt.Sprintf("text%d {%s}", j, names[rng.Intn(len(names))]))
		}
		tmpl := MustTemplate("prop", "test", strings.Join(parts, " "), nil)
		required := tmpl.RequiredVariables()

		full := map[string]any{}
		for _, name := range required {
			full[name] = rng.Intn(100)
		}
		got, err := tmpl.Render(full, "")
		require.NoError(t, err)
		assert.False(t, regex.Placeholder.MatchString(got.Text), "no unresolved placeholders in %q", got.Text)

		drop := required[rng.Intn(len(required))]
		partial := map[string]any{}
		for k, v := range full {
			if k != drop {
				partial[k] = v
			}
		}
		_, err = tmpl.Render(partial, "")
		var missing *errors.MissingVariableError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{drop}, missing.Missing)
	}
}

func TestTemplate_RequiredVariablesCoverEveryVariant(t *testing.T) {
	tmpl, err := NewTemplate("x", "t", "Hello {a}", map[string]string{"openai": "Hi {a} {c}"}, []string{"b"})
	require.NoError(t, err)

	required := tmpl.RequiredVariables()
	assert.Equal(t, []string{"a", "b", "c"}, required)

	vars := map[string]any{}
	for _, name := range required {
		vars[name] = name
	}
	for _, provider := range []string{"", "openai", "ollama"} {
		t.Run("provider "+provider, func(t *testing.T) {
			got, err := tmpl.Render(vars, provider)
			require.NoError(t, err)
			assert.False(t, regex.Placeholder.MatchString(got.Text))
		})
	}

	_, err = tmpl.Render(map[string]any{"a": 1}, "")
	var missing *errors.MissingVariableError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"b"}, missing.Missing)
}

func TestTemplate_Accessors(t *testing.T) {
	providers := map[string]string{"ollama": "short {x}"}
	tmpl, err := NewTemplate("t", "summary", "long {x} {y}", providers, []string{"z", "x"})
	require.NoError(t, err)

	providers["ollama"] = "mutated"
	vars := tmpl.Variables()
	vars[0] = "mutated"

	assert.Equal(t, "short {x}", tmpl.Variant("ollama"), "inputs are copied")
	assert.Equal(t, []string{"x", "y", "z"}, tmpl.Variables(), "returned slices are copies")
	assert.Equal(t, []string{"x", "y", "z"}, tmpl.RequiredVariables())
	assert.Equal(t, []string{"ollama"}, tmpl.Providers())
	assert.Equal(t, "summary", tmpl.Type())
	assert.Equal(t, "long {x} {y}", tmpl.Base())
}

func TestNewTemplate_Invalid(t *testing.T) {
	_, err := NewTemplate(" ", "t", "body", nil, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)

	_, err = NewTemplate("name", "t", "  ", nil, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}
