package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	ConfigFile = "config.json"
	CorpusFile = "corpus.txt"

	defaultOrder = 2
	maxOrder     = 5
)

// NGramConfig is the config.json of a model directory.
type NGramConfig struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// NGramModel is a word-level Markov chain. Output depends only on the prompt.
type NGramModel struct {
	name   string
	order  int
	next   map[string][]string
	starts []string
}

// LoadNGramModel reads config.json and corpus.txt from dir.
func LoadNGramModel(ctx context.Context, dir string) (Model, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("model directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("model path %s is not a directory", dir)
	}

	raw, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ConfigFile, err)
	}
	var cfg NGramConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFile, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	corpus, err := os.ReadFile(filepath.Join(dir, CorpusFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", CorpusFile, err)
	}

	if cfg.Name == "" {
		cfg.Name = filepath.Base(dir)
	}
	return NewNGramModel(cfg, string(corpus))
}

func NewNGramModel(cfg NGramConfig, corpus string) (*NGramModel, error) {
	order := cfg.Order
	if order <= 0 {
		order = defaultOrder
	}
	if order > maxOrder {
		return nil, fmt.Errorf("order %d exceeds %d", order, maxOrder)
	}

	words := strings.Fields(corpus)
	if len(words) <= order {
		return nil, fmt.Errorf("corpus has %d words, need more than %d", len(words), order)
	}

	m := &NGramModel{name: cfg.Name, order: order, next: make(map[string][]string)}
	for i := 0; i+order < len(words); i++ {
		key := strings.Join(words[i:i+order], " ")
		if _, seen := m.next[key]; !seen {
			m.starts = append(m.starts, key)
		}
		m.next[key] = append(m.next[key], words[i+order])
	}
	sort.Strings(m.starts)
	return m, nil
}

func (m *NGramModel) Name() string { return m.name }

func (m *NGramModel) Generate(prompt string, maxTokens int) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(prompt))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	state := m.seedState(prompt, rng)
	out := strings.Fields(state)
	for len(out) < maxTokens {
		successors := m.next[state]
		if len(successors) == 0 {
			break
		}
		word := successors[rng.IntN(len(successors))]
		out = append(out, word)
		state = strings.Join(out[len(out)-m.order:], " ")
	}
	if len(out) > maxTokens {
		out = out[:maxTokens]
	}
	return strings.Join(out, " ")
}

// seedState continues from the prompt tail when the chain knows it.
func (m *NGramModel) seedState(prompt string, rng *rand.Rand) string {
	words := strings.Fields(prompt)
	if len(words) >= m.order {
		tail := strings.Join(words[len(words)-m.order:], " ")
		if _, ok := m.next[tail]; ok {
			return tail
		}
	}
	return m.starts[rng.IntN(len(m.starts))]
}
