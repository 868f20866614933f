// Package prompts holds named, variable-parameterized prompt templates with
// per-provider variants.
package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/regex"
)

// Template is immutable once built; accessors return copies.
type Template struct {
	name      string
	kind      string
	base      string
	providers map[string]string
	variables []string
}

// NewTemplate copies its inputs. The declared variables are the explicit
// list plus every placeholder found in base.
func NewTemplate(name, kind, base string, providers map[string]string, variables []string) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.ErrInvalidConfig.WithContext("detail", "template name is empty")
	}
	if strings.TrimSpace(base) == "" {
		return nil, errors.ErrInvalidConfig.WithContext("detail", fmt.Sprintf("template %q has an empty body", name))
	}

	variants := make(map[string]string, len(providers))
	for provider, text := range providers {
		variants[strings.ToLower(provider)] = text
	}

	return &Template{
		name:      name,
		kind:      kind,
		base:      base,
		providers: variants,
		variables: union(variables, placeholders(base)),
	}, nil
}

// MustTemplate is NewTemplate for package-level built-ins.
func MustTemplate(name, kind, base string, providers map[string]string, variables ...string) *Template {
	t, err := NewTemplate(name, kind, base, providers, variables)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) Name() string {
	return t.name
}

func (t *Template) Type() string {
	return t.kind
}

func (t *Template) Base() string {
	return t.base
}

// Variant returns the text used for provider, falling back to the base.
func (t *Template) Variant(provider string) string {
	if text, ok := t.providers[strings.ToLower(provider)]; ok {
		return text
	}
	return t.base
}

// Providers lists the providers with a dedicated variant.
func (t *Template) Providers() []string {
	names := make([]string, 0, len(t.providers))
	for p := range t.providers {
		names = append(names, p)
	}
	sort.Strings(names)
	return names
}

// Variables returns the declared variable names, sorted.
func (t *Template) Variables() []string {
	return append([]string(nil), t.variables...)
}

// RequiredVariables returns every name Render may ask for: the declared
// variables plus the placeholders of the base and of each provider variant.
// Sorted and unique.
func (t *Template) RequiredVariables() []string {
	lists := [][]string{t.variables, placeholders(t.base)}
	for _, text := range t.providers {
		lists = append(lists, placeholders(text))
	}
	return union(lists...)
}

// Render substitutes vars into the variant for provider. Every declared
// variable and every placeholder of the chosen text must be present in vars;
// otherwise a MissingVariableError lists all of the absent names.
func (t *Template) Render(vars map[string]any, provider string) (*models.RenderedPrompt, error) {
	text := t.Variant(provider)

	var missing []string
	for _, name := range union(t.variables, placeholders(text)) {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewMissingVariableError(t.name, missing)
	}

	rendered := regex.Placeholder.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1 : len(match)-1]
		return fmt.Sprint(vars[name])
	})

	return &models.RenderedPrompt{
		TemplateName: t.name,
		Provider:     provider,
		Text:         rendered,
	}, nil
}

func placeholders(text string) []string {
	matches := regex.Placeholder.FindAllStringSubmatch(text, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return union(names)
}

func union(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, list := range lists {
		for _, name := range list {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
