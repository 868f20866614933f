package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/thomas-vilte/mateissue/internal/errors"
)

type (
	Config struct {
		Language     string          `json:"language"`
		Analyzer     AnalyzerConfig  `json:"analyzer"`
		LLM          LLMConfig       `json:"llm"`
		Synthesis    SynthesisConfig `json:"synthesis"`
		GitHub       GitHubConfig    `json:"github"`
		TemplatesDir string          `json:"templates_dir,omitempty"`

		PathFile string `json:"-"`
	}

	AnalyzerConfig struct {
		MaxCommits     int      `json:"max_commits"`
		IgnorePatterns []string `json:"ignore_patterns,omitempty"`
		CacheEnabled   bool     `json:"cache_enabled"`
	}

	// BackendConfig is the uniform record every backend is built from.
	BackendConfig struct {
		Provider    string  `json:"provider"`
		Model       string  `json:"model,omitempty"`
		Host        string  `json:"host,omitempty"`
		Port        int     `json:"port,omitempty"`
		APIKey      string  `json:"api_key,omitempty"`
		ModelPath   string  `json:"model_path,omitempty"`
		Temperature float64 `json:"temperature,omitempty"`
		MaxTokens   int     `json:"max_tokens,omitempty"`
	}

	LLMConfig struct {
		Primary        BackendConfig   `json:"primary"`
		Fallbacks      []BackendConfig `json:"fallbacks,omitempty"`
		MaxRetries     int             `json:"max_retries"`
		BackoffMs      int             `json:"backoff_ms"`
		TimeoutSeconds int             `json:"timeout_seconds"`
	}

	SynthesisConfig struct {
		MaxIssues            int      `json:"max_issues"`
		MinDescriptionLength int      `json:"min_description_length"`
		RequiredLabels       []string `json:"required_labels,omitempty"`
		DefaultAssignees     []string `json:"default_assignees,omitempty"`
		HotspotFraction      float64  `json:"hotspot_fraction"`
		HotspotMinCommits    int      `json:"hotspot_min_commits"`
		DocsMinNewFiles      int      `json:"docs_min_new_files"`
	}

	GitHubConfig struct {
		Token string `json:"token,omitempty"`
		Owner string `json:"owner,omitempty"`
		Repo  string `json:"repo,omitempty"`
	}
)

const (
	configDirName  = ".mateissue"
	configFileName = "config.json"

	defaultLang                 = LangEN
	defaultMaxCommits           = 50
	defaultMaxRetries           = 2
	defaultBackoffMs            = 500
	defaultTimeoutSeconds       = 60
	defaultMaxIssues            = 5
	defaultMinDescriptionLength = 40
	defaultHotspotFraction      = 0.5
	defaultHotspotMinCommits    = 3
	defaultDocsMinNewFiles      = 3
	defaultOllamaHost           = "localhost"
	defaultOllamaPort           = 11434
)

// envFallbacks fills empty secrets from the environment.
var envFallbacks = map[AI]string{
	AIGemini: "GEMINI_API_KEY",
	AIOpenAI: "OPENAI_API_KEY",
}

// LoadConfig reads the configuration from <home>/.mateissue/config.json, or
// from path directly when it names a .json file. A missing file is created
// with defaults. .env files in the working directory and the config directory
// are loaded first so ${VAR} references and env fallbacks can resolve.
func LoadConfig(path string) (*Config, error) {
	var configPath string

	if filepath.Ext(path) == ".json" {
		configPath = path
	} else {
		configPath = filepath.Join(path, configDirName, configFileName)
	}

	loadDotEnv(".env", filepath.Join(filepath.Dir(configPath), ".env"))

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	} else if err != nil {
		return nil, errors.ErrInvalidConfig.WithError(err).WithContext("path", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.ErrInvalidConfig.WithError(err).WithContext("path", configPath)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, errors.ErrInvalidConfig.WithError(err).
			WithContext("path", configPath).
			WithContext("detail", "config file is not valid JSON")
	}
	config.PathFile = configPath

	config.applyDefaults()
	config.expandEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	config := &Config{
		Language: defaultLang,
		Analyzer: AnalyzerConfig{
			MaxCommits:   defaultMaxCommits,
			CacheEnabled: true,
			IgnorePatterns: []string{
				"vendor/", "node_modules/", "dist/", "*.lock", "*.min.js",
			},
		},
		LLM: LLMConfig{
			Primary: BackendConfig{
				Provider: string(AIGemini),
				Model:    string(DefaultModelForAI(AIGemini)),
				APIKey:   "${GEMINI_API_KEY}",
			},
			Fallbacks: []BackendConfig{
				{
					Provider: string(AIOllama),
					Model:    string(DefaultModelForAI(AIOllama)),
					Host:     defaultOllamaHost,
					Port:     defaultOllamaPort,
				},
			},
			MaxRetries:     defaultMaxRetries,
			BackoffMs:      defaultBackoffMs,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Synthesis: SynthesisConfig{
			MaxIssues:            defaultMaxIssues,
			MinDescriptionLength: defaultMinDescriptionLength,
			HotspotFraction:      defaultHotspotFraction,
			HotspotMinCommits:    defaultHotspotMinCommits,
			DocsMinNewFiles:      defaultDocsMinNewFiles,
		},
		GitHub: GitHubConfig{
			Token: "${GITHUB_TOKEN}",
		},
	}
	return config
}

func createDefaultConfig(path string) (*Config, error) {
	config := DefaultConfig()
	config.PathFile = path

	if err := writeConfig(config); err != nil {
		return nil, err
	}

	config.expandEnv()
	return config, nil
}

// SaveConfig validates and writes config to its PathFile.
func SaveConfig(config *Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if config.PathFile == "" {
		return errors.ErrInvalidConfig.WithContext("detail", "config file path is not set")
	}
	return writeConfig(config)
}

func writeConfig(config *Config) error {
	if err := os.MkdirAll(filepath.Dir(config.PathFile), 0755); err != nil {
		return errors.NewAppError(errors.TypeConfiguration, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return errors.NewAppError(errors.TypeConfiguration, "failed to encode config", err)
	}

	if err := os.WriteFile(config.PathFile, data, 0600); err != nil {
		return errors.NewAppError(errors.TypeConfiguration, "failed to save config", err)
	}
	return nil
}

// Backends returns the primary backend followed by the fallbacks, in order.
func (c *Config) Backends() []BackendConfig {
	out := make([]BackendConfig, 0, 1+len(c.LLM.Fallbacks))
	out = append(out, c.LLM.Primary)
	return append(out, c.LLM.Fallbacks...)
}

func (c *Config) applyDefaults() {
	if c.Language == "" {
		c.Language = defaultLang
	}
	if c.Analyzer.MaxCommits == 0 {
		c.Analyzer.MaxCommits = defaultMaxCommits
	}
	if c.LLM.Primary.Provider == "" {
		c.LLM.Primary = DefaultConfig().LLM.Primary
	}
	if c.LLM.BackoffMs == 0 {
		c.LLM.BackoffMs = defaultBackoffMs
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Synthesis.MaxIssues == 0 {
		c.Synthesis.MaxIssues = defaultMaxIssues
	}
	if c.Synthesis.HotspotFraction == 0 {
		c.Synthesis.HotspotFraction = defaultHotspotFraction
	}
	if c.Synthesis.HotspotMinCommits == 0 {
		c.Synthesis.HotspotMinCommits = defaultHotspotMinCommits
	}
	if c.Synthesis.DocsMinNewFiles == 0 {
		c.Synthesis.DocsMinNewFiles = defaultDocsMinNewFiles
	}
}

func (c *Config) expandEnv() {
	c.LLM.Primary.expandEnv()
	for i := range c.LLM.Fallbacks {
		c.LLM.Fallbacks[i].expandEnv()
	}
	c.GitHub.Token = os.ExpandEnv(c.GitHub.Token)
	if c.GitHub.Token == "" {
		c.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
}

func (b *BackendConfig) expandEnv() {
	b.APIKey = os.ExpandEnv(b.APIKey)
	b.Host = os.ExpandEnv(b.Host)
	b.ModelPath = os.ExpandEnv(b.ModelPath)
	if b.APIKey == "" {
		if env, ok := envFallbacks[AI(b.Provider)]; ok {
			b.APIKey = os.Getenv(env)
		}
	}
}

// Validate checks the whole configuration once; callers never re-check
// individual fields.
func (c *Config) Validate() error {
	var problems []string

	if c.Language != LangEN && c.Language != LangES {
		problems = append(problems, fmt.Sprintf("unsupported language %q", c.Language))
	}
	if c.Analyzer.MaxCommits <= 0 {
		problems = append(problems, "analyzer.max_commits must be greater than 0")
	}
	if c.LLM.MaxRetries < 0 {
		problems = append(problems, "llm.max_retries must not be negative")
	}
	if c.LLM.BackoffMs < 0 {
		problems = append(problems, "llm.backoff_ms must not be negative")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		problems = append(problems, "llm.timeout_seconds must be greater than 0")
	}
	if c.Synthesis.MaxIssues < 1 {
		problems = append(problems, "synthesis.max_issues must be at least 1")
	}
	if c.Synthesis.MinDescriptionLength < 0 {
		problems = append(problems, "synthesis.min_description_length must not be negative")
	}
	if c.Synthesis.HotspotFraction <= 0 || c.Synthesis.HotspotFraction > 1 {
		problems = append(problems, "synthesis.hotspot_fraction must be in (0, 1]")
	}
	if c.Synthesis.HotspotMinCommits < 1 {
		problems = append(problems, "synthesis.hotspot_min_commits must be at least 1")
	}
	if c.Synthesis.DocsMinNewFiles < 1 {
		problems = append(problems, "synthesis.docs_min_new_files must be at least 1")
	}

	for i, b := range c.Backends() {
		if err := b.Validate(); err != nil {
			return err.WithContext("backend", i)
		}
	}

	if len(problems) > 0 {
		return errors.ErrInvalidConfig.WithContext("detail", strings.Join(problems, "; "))
	}
	return nil
}

// Validate checks the provider tag and the numeric ranges of b.
func (b BackendConfig) Validate() *errors.AppError {
	if !IsSupported(b.Provider) {
		return errors.ErrUnknownProvider.WithContext("provider", b.Provider).
			WithContext("detail", fmt.Sprintf("provider %q", b.Provider))
	}
	if b.Temperature < 0 || b.Temperature > 2 {
		return errors.ErrInvalidConfig.WithContext("detail", fmt.Sprintf("%s temperature must be in [0, 2]", b.Provider))
	}
	if b.MaxTokens < 0 {
		return errors.ErrInvalidConfig.WithContext("detail", fmt.Sprintf("%s max_tokens must not be negative", b.Provider))
	}
	if b.Port < 0 || b.Port > 65535 {
		return errors.ErrInvalidConfig.WithContext("detail", fmt.Sprintf("%s port out of range", b.Provider))
	}
	return nil
}

// ModelName returns the configured model or the provider default.
func (b BackendConfig) ModelName() string {
	if b.Model != "" {
		return b.Model
	}
	return string(DefaultModelForAI(AI(b.Provider)))
}

// Endpoint joins host and port into a base URL, applying defaults when the
// host is empty. Hosts that already carry a scheme are kept as given.
func (b BackendConfig) Endpoint(defaultHost string, defaultPort int) string {
	host := strings.TrimRight(b.Host, "/")
	port := b.Port
	if host == "" {
		host = defaultHost
	}
	if port == 0 && !strings.Contains(b.Host, "://") {
		port = defaultPort
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	if port > 0 {
		return fmt.Sprintf("%s:%d", host, port)
	}
	return host
}

func loadDotEnv(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}
