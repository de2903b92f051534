package internal

import (
	"fmt"
	"log/slog"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/oedify/internal/convert"
	"github.com/starford/oedify/internal/markup"
)

var safeNameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Source  SourceConfig      `yaml:"source"`
	Output  OutputConfig      `yaml:"output"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Convert ConvertConfig     `yaml:"convert"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	if err := c.Convert.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SourceConfig holds the path to the tab-separated dictionary source.
type SourceConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the source configuration.
func (c *SourceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// OutputConfig describes where the exported tabfile goes.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	Name       string `yaml:"name"`       // file stem of the tabfile and stylesheet
	Stylesheet string `yaml:"stylesheet"` // optional CSS file copied next to the tabfile
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Name, validation.Required, validation.Match(safeNameRe).Error("must be a plain file name")),
	)
}

// SQLiteConfig holds SQLite database configuration. An empty path disables
// the index for the convert command; serve and mcp require it.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether an index path is configured.
func (c *SQLiteConfig) Enabled() bool {
	return c.Path != ""
}

// ConvertConfig tunes the conversion run.
type ConvertConfig struct {
	Workers            int      `yaml:"workers"` // 0 selects NumCPU-1
	AddSynonyms        bool     `yaml:"add_synonyms"`
	DebugWords         []string `yaml:"debug_words"`
	PhoneticMode       string   `yaml:"phonetic_mode"`
	BatchSize          int      `yaml:"batch_size"`
	DuplicateWatchList []string `yaml:"duplicate_watch_list"`
}

// Validate validates the conversion configuration.
func (c *ConvertConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Min(0), validation.Max(64)),
		validation.Field(&c.BatchSize, validation.Min(0)),
		validation.Field(&c.PhoneticMode, validation.In(
			"", string(markup.PhoneticBlockquote), string(markup.PhoneticColor))),
	)
}

// Options converts the section into converter options.
func (c *ConvertConfig) Options() (convert.Options, error) {
	mode, err := markup.ParsePhoneticMode(c.PhoneticMode)
	if err != nil {
		return convert.Options{}, err
	}
	return convert.Options{
		Workers:     c.Workers,
		AddSynonyms: c.AddSynonyms,
		DebugWords:  c.DebugWords,
		Phonetic:    mode,
		WatchList:   c.DuplicateWatchList,
		BatchSize:   c.BatchSize,
	}, nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Source: SourceConfig{
			Path: "./oed.tsv",
		},
		Output: OutputConfig{
			Dir:  "./out",
			Name: "oed",
		},
		SQLite: SQLiteConfig{
			Path: "./oedify.db",
		},
		Convert: ConvertConfig{
			PhoneticMode: string(markup.PhoneticBlockquote),
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
