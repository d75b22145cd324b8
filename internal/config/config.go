// Package config loads componentgen settings.
//
// Layers, later wins: built-in defaults, componentgen.yaml, .env, then
// COMPONENTGEN_* environment variables. The result is validated before use.
// Credentials are only read from the environment.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is looked up in the project root when no explicit path is given.
const FileName = "componentgen.yaml"

type Config struct {
	// Root is the project directory every other path is relative to.
	Root   string `yaml:"root" validate:"required"`
	Source string `yaml:"source" validate:"required"`
	Prefix string `yaml:"prefix" validate:"required,alphanum"`
	// IgnoreDirs are directory names the walker never enters.
	IgnoreDirs []string `yaml:"ignore_dirs"`

	Mirror    MirrorConfig    `yaml:"mirror"`
	Manifest  ManifestConfig  `yaml:"manifest"`
	Docs      DocsConfig      `yaml:"docs"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Serve     ServeConfig     `yaml:"serve"`
	Watch     WatchConfig     `yaml:"watch"`
}

type MirrorConfig struct {
	// Targets names the mirrored trees: "docs", "display".
	Targets []string `yaml:"targets" validate:"dive,oneof=docs display"`
}

type ManifestConfig struct {
	// ComponentsDir is walked for components, relative to Root.
	ComponentsDir     string   `yaml:"components_dir" validate:"required"`
	Include           []string `yaml:"include" validate:"min=1"`
	Exclude           []string `yaml:"exclude"`
	Barrel            string   `yaml:"barrel" validate:"required"`
	Types             string   `yaml:"types" validate:"required"`
	PluginName        string   `yaml:"plugin_name" validate:"required"`
	DistTypesPath     string   `yaml:"dist_types_path" validate:"required"`
	HostModule        string   `yaml:"host_module" validate:"required"`
	RequireComponents bool     `yaml:"require_components"`
	// HeaderFile replaces the default barrel header when set.
	HeaderFile string `yaml:"header_file"`
}

type DocsConfig struct {
	Provider         string        `yaml:"provider" validate:"required,oneof=gemini groq dashscope fake"`
	Model            string        `yaml:"model"`
	BaseURL          string        `yaml:"base_url" validate:"omitempty,url"`
	SystemPromptFile string        `yaml:"system_prompt_file"`
	ExampleFile      string        `yaml:"example_file"`
	Include          []string      `yaml:"include"`
	Exclude          []string      `yaml:"exclude"`
	Timeout          time.Duration `yaml:"timeout" validate:"gte=0"`
	Concurrency      int           `yaml:"concurrency" validate:"gte=1,lte=64"`
	Retries          int           `yaml:"retries" validate:"gte=1,lte=10"`
	RetryBase        time.Duration `yaml:"retry_base" validate:"gte=0"`
	RateLimit        float64       `yaml:"rate_limit" validate:"gte=0"`
	Burst            int           `yaml:"burst" validate:"gte=0"`

	APIKey string `yaml:"-"`
}

type CatalogConfig struct {
	Output string            `yaml:"output" validate:"required"`
	Titles map[string]string `yaml:"titles"`
}

type ArtifactsConfig struct {
	// Dir receives local copies of generated artifacts; empty writes them in place.
	Dir string   `yaml:"dir"`
	S3  S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint" validate:"required_if=Enabled true"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket" validate:"required_if=Enabled true"`
	UseSSL    bool   `yaml:"use_ssl"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

type LedgerConfig struct {
	Path string `yaml:"path"`
	DSN  string `yaml:"-"`
}

type ServeConfig struct {
	Addr        string `yaml:"addr" validate:"required"`
	CacheSize   int    `yaml:"cache_size" validate:"gte=1"`
	AllowOrigin string `yaml:"allow_origin"`
}

type WatchConfig struct {
	Patterns []string      `yaml:"patterns" validate:"min=1"`
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
	Docs     bool          `yaml:"docs"`
}

// Default returns the settings matching the stock component library layout.
func Default() *Config {
	return &Config{
		Root:       ".",
		Source:     "src",
		Prefix:     "Q",
		IgnoreDirs: []string{"node_modules", ".git"},
		Mirror:     MirrorConfig{Targets: []string{"docs", "display"}},
		Manifest: ManifestConfig{
			ComponentsDir: "src/components",
			Include:       []string{"**/*.vue"},
			Barrel:        "src/index.ts",
			Types:         "global.d.ts",
			PluginName:    "QyaniComponents",
			DistTypesPath: "./dist/types/index",
			HostModule:    "vue",
		},
		Docs: DocsConfig{
			Provider:    "dashscope",
			Include:     []string{"**/*.vue", "**/*.ts"},
			Exclude:     []string{"**/*.d.ts"},
			Timeout:     2 * time.Minute,
			Concurrency: 1,
			Retries:     3,
			RetryBase:   time.Second,
		},
		Catalog: CatalogConfig{Output: "docs/catalog.json"},
		Ledger:  LedgerConfig{Path: ".componentgen/runs.jsonl"},
		Serve:   ServeConfig{Addr: "127.0.0.1:5175", CacheSize: 256, AllowOrigin: "*"},
		Watch: WatchConfig{
			Patterns: []string{"**/*.vue", "**/*.ts"},
			Debounce: 300 * time.Millisecond,
		},
	}
}

// Load builds the configuration for root. An empty path looks for FileName
// in root and tolerates its absence; an explicit path must exist.
func Load(root, path string) (*Config, error) {
	cfg := Default()
	if root != "" {
		cfg.Root = root
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.Root, FileName)
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(Template(raw), cfg); err != nil {
			return nil, errors.Wrapf(err, "config: parse %s", path)
		}
		if root != "" {
			cfg.Root = root
		}
	case explicit || !os.IsNotExist(err):
		return nil, errors.Wrapf(err, "config: read %s", path)
	}

	_ = godotenv.Load(filepath.Join(cfg.Root, ".env"))
	applyEnv(cfg)

	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errors.Wrap(err, "config: resolve root")
	}
	cfg.Root = abs

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
			}
			return errors.WithHint(errors.Newf("config: invalid %s", strings.Join(fields, ", ")),
				"check "+FileName+" and COMPONENTGEN_* variables")
		}
		return errors.Wrap(err, "config: validate")
	}
	return nil
}

// Abs resolves a project-relative path against Root.
func (c *Config) Abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, filepath.FromSlash(p))
}

var templateRe = regexp.MustCompile(`\{\{\s*([^}]+?)\s*}}`)

// Template expands "{{ env.NAME || fallback }}" placeholders in a config file.
// The first non-empty alternative wins; env.NAME reads the environment.
func Template(raw []byte) []byte {
	return templateRe.ReplaceAllFunc(raw, func(match []byte) []byte {
		inner := templateRe.FindSubmatch(match)[1]
		for _, part := range strings.Split(string(inner), "||") {
			part = strings.TrimSpace(part)
			if name, ok := strings.CutPrefix(part, "env."); ok {
				if v := os.Getenv(name); v != "" {
					return []byte(v)
				}
				continue
			}
			if part != "" {
				return []byte(part)
			}
		}
		return nil
	})
}
