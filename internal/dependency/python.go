package dependency

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
	"github.com/thomas-vilte/mateissue/internal/regex"
)

var (
	_ ports.ManifestProbe = (*RequirementsProbe)(nil)
	_ ports.ManifestProbe = (*PyProjectProbe)(nil)
)

type RequirementsProbe struct{}

func NewRequirementsProbe() *RequirementsProbe {
	return &RequirementsProbe{}
}

func (r *RequirementsProbe) Name() string {
	return "pip"
}

func (r *RequirementsProbe) Detect(_ context.Context, root string) (*models.DependencyManifest, error) {
	const name = "requirements.txt"
	data, err := readManifest(root, name)
	if err != nil || data == nil {
		return nil, err
	}

	deps := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		// options (-r, -e, --hash) and URLs are not named requirements
		if line == "" || strings.HasPrefix(line, "-") || strings.Contains(line, "://") {
			continue
		}
		matches := regex.RequirementLine.FindStringSubmatch(line)
		if matches == nil {
			continue
		}
		version := matches[3]
		if matches[2] != "" && matches[2] != "==" && matches[2] != "===" {
			version = matches[2] + matches[3]
		}
		deps[strings.ToLower(matches[1])] = version
	}
	if err := scanner.Err(); err != nil {
		return nil, parseError(name, err)
	}
	return newManifest(r.Name(), name, deps), nil
}

type PyProjectProbe struct{}

func NewPyProjectProbe() *PyProjectProbe {
	return &PyProjectProbe{}
}

func (p *PyProjectProbe) Name() string {
	return "python"
}

type pyProject struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func (p *PyProjectProbe) Detect(_ context.Context, root string) (*models.DependencyManifest, error) {
	const name = "pyproject.toml"
	data, err := readManifest(root, name)
	if err != nil || data == nil {
		return nil, err
	}

	var project pyProject
	if _, err := toml.Decode(string(data), &project); err != nil {
		return nil, parseError(name, err)
	}

	deps := make(map[string]string)
	addPEP508 := func(specs []string) {
		for _, spec := range specs {
			if m := regex.PEP508Name.FindStringSubmatch(spec); m != nil {
				deps[strings.ToLower(m[1])] = m[2]
			}
		}
	}
	addPEP508(project.Project.Dependencies)
	for _, group := range project.Project.OptionalDependencies {
		addPEP508(group)
	}

	for _, group := range []map[string]any{project.Tool.Poetry.DevDependencies, project.Tool.Poetry.Dependencies} {
		for dep, spec := range group {
			if strings.EqualFold(dep, "python") {
				continue
			}
			deps[strings.ToLower(dep)] = tomlVersion(spec)
		}
	}
	return newManifest(p.Name(), name, deps), nil
}

// tomlVersion reads a version from either `dep = "1.0"` or
// `dep = { version = "1.0", ... }`.
func tomlVersion(spec any) string {
	switch v := spec.(type) {
	case string:
		return v
	case map[string]any:
		if version, ok := v["version"].(string); ok {
			return version
		}
	}
	return ""
}
