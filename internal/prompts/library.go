package prompts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/logger"
)

// Library is a registry of templates keyed by name. It is safe for
// concurrent use.
type Library struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

func NewLibrary() *Library {
	return &Library{templates: make(map[string]*Template)}
}

// Register adds t; a second template with the same name is rejected.
func (l *Library) Register(t *Template) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.templates[t.Name()]; exists {
		return errors.ErrDuplicateTemplate.WithContext("template", t.Name()).
			WithContext("detail", t.Name())
	}
	l.templates[t.Name()] = t
	return nil
}

// Override registers t, replacing any template with the same name.
func (l *Library) Override(t *Template) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.templates[t.Name()] = t
}

func (l *Library) Get(name string) (*Template, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.templates[name]
	if !ok {
		return nil, errors.ErrTemplateNotFound.WithContext("template", name).
			WithContext("detail", name)
	}
	return t, nil
}

// Names returns the registered template names, sorted.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type templateFile struct {
	Name      string            `yaml:"name"`
	Type      string            `yaml:"type"`
	Template  string            `yaml:"template"`
	Providers map[string]string `yaml:"providers"`
	Variables []string          `yaml:"variables"`
}

// LoadDir reads every *.yml and *.yaml file in dir. Files may hold several
// YAML documents, one template each. Loaded templates override templates
// already registered under the same name. A missing dir is not an error.
func (l *Library) LoadDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug(ctx, "templates directory does not exist", "path", dir)
			return 0, nil
		}
		return 0, errors.NewAppError(errors.TypeConfiguration, "failed to read templates directory", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		templates, err := loadFile(path)
		if err != nil {
			logger.Error(ctx, "failed to load template file", err, "path", path)
			return loaded, err
		}
		for _, t := range templates {
			l.Override(t)
			loaded++
		}
	}

	logger.Debug(ctx, "templates loaded", "count", loaded, "path", dir)
	return loaded, nil
}

func loadFile(path string) ([]*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewAppError(errors.TypeConfiguration, fmt.Sprintf("failed to read template file: %s", path), err)
	}
	defer func() { _ = f.Close() }()

	var templates []*Template
	decoder := yaml.NewDecoder(f)
	for {
		var doc templateFile
		if err := decoder.Decode(&doc); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.NewAppError(errors.TypeConfiguration, fmt.Sprintf("failed to parse YAML template: %s", path), err)
		}

		t, err := NewTemplate(doc.Name, doc.Type, doc.Template, doc.Providers, doc.Variables)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}
