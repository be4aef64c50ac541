package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Source kinds.
const (
	SourceKindBing     = "bing"
	SourceKindUnsplash = "unsplash"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Paths     PathsConfig       `yaml:"paths"`
	Sources   []SourceConfig    `yaml:"sources"`
	Display   DisplayConfig     `yaml:"display"`
	HTTP      HTTPClientConfig  `yaml:"http"`
	Bing      BingConfig        `yaml:"bing"`
	Unsplash  UnsplashConfig    `yaml:"unsplash"`
	Story     StoryConfig       `yaml:"story"`
	Notify    NotifyConfig      `yaml:"notify"`
	Mirror    MirrorConfig      `yaml:"mirror"`
	Thumbnail ThumbnailConfig   `yaml:"thumbnail"`
	Ledger    LedgerConfig      `yaml:"ledger"`
	API       APIConfig         `yaml:"api"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Paths.Validate(); err != nil {
		return fmt.Errorf("paths: %w", err)
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.Display.Validate(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.Bing.Validate(); err != nil {
		return fmt.Errorf("bing: %w", err)
	}
	if err := c.Unsplash.Validate(); err != nil {
		return fmt.Errorf("unsplash: %w", err)
	}
	if err := c.Story.Validate(); err != nil {
		return fmt.Errorf("story: %w", err)
	}
	if err := c.Notify.Validate(); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if err := c.Thumbnail.Validate(); err != nil {
		return fmt.Errorf("thumbnail: %w", err)
	}
	if err := c.Ledger.Validate(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	return c.API.Validate()
}

func (c *Config) validateSources() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("sources: at least one source is required")
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	for i := range c.Sources {
		s := &c.Sources[i]
		if err := s.Validate(); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
		if !seen.Add(strings.ToLower(s.Name)) {
			return fmt.Errorf("sources[%d]: duplicate source name %q", i, s.Name)
		}
	}
	return nil
}

// Source returns the configured source named name, ignoring case.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// EnabledSources returns the enabled sources in display order.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// MaxItems returns the display limit for s.
func (c *Config) MaxItems(s SourceConfig) int {
	if s.MaxItems > 0 {
		return s.MaxItems
	}
	return c.Display.MaxItemsPerSource
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatText, LogFormatJSON)),
	)
}

// PathsConfig locates the wallpapers root and the generated documents.
type PathsConfig struct {
	Wallpapers string `yaml:"wallpapers"`
	Gallery    string `yaml:"gallery"`
	Readme     string `yaml:"readme"`
	// ReadmePrefix is prepended to entry paths in README links.
	ReadmePrefix string `yaml:"readme_prefix"`
	// GalleryPrefix is prepended to entry paths in gallery links.
	GalleryPrefix string `yaml:"gallery_prefix"`
	// MirrorPrefix is the object-store key prefix for entry files.
	MirrorPrefix string `yaml:"mirror_prefix"`
}

// Validate validates the paths configuration.
func (c *PathsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Wallpapers, validation.Required),
		validation.Field(&c.Gallery, validation.Required),
		validation.Field(&c.Readme, validation.Required),
	)
}

// SourceConfig declares one upstream photo provider.
type SourceConfig struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Kind        string `yaml:"kind"`
	Enabled     bool   `yaml:"enabled"`
	MaxItems    int    `yaml:"max_items"`
}

// Validate validates the source configuration.
func (c *SourceConfig) Validate() error {
	if c.Kind == "" {
		c.Kind = c.Name
	}
	if c.DisplayName == "" {
		c.DisplayName = c.Name
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Kind, validation.Required, validation.In(SourceKindBing, SourceKindUnsplash)),
		validation.Field(&c.MaxItems, validation.Min(0)),
	)
}

// DisplayConfig holds index rendering limits.
type DisplayConfig struct {
	MaxItemsPerSource int `yaml:"max_items_per_source"`
}

// Validate validates the display configuration.
func (c *DisplayConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxItemsPerSource, validation.Required, validation.Min(1)),
	)
}

// HTTPClientConfig holds outbound HTTP timeouts.
type HTTPClientConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	UserAgent       string        `yaml:"user_agent"`
}

// Validate validates the HTTP client configuration.
func (c *HTTPClientConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.DownloadTimeout, validation.Required, validation.Min(time.Second)),
	)
}

// BingConfig configures the daily-image API.
type BingConfig struct {
	APIURL   string `yaml:"api_url"`
	BaseURL  string `yaml:"base_url"`
	Market   string `yaml:"market"`
	Offsets  []int  `yaml:"offsets"`
	PageSize int    `yaml:"page_size"`
}

// Validate validates the Bing configuration.
func (c *BingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIURL, validation.Required),
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Offsets, validation.Required),
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(8)),
	)
}

// UnsplashConfig configures the random-photo API. AccessKey is checked when
// the unsplash fetcher is constructed, not here, so other commands run
// without it.
type UnsplashConfig struct {
	APIURL      string `yaml:"api_url"`
	AccessKey   string `yaml:"access_key"`
	Query       string `yaml:"query"`
	Orientation string `yaml:"orientation"`
	Featured    bool   `yaml:"featured"`
}

// Validate validates the Unsplash configuration.
func (c *UnsplashConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIURL, validation.Required),
	)
}

// StoryConfig configures the story generator. An empty APIKey disables it.
type StoryConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
	WithImage bool          `yaml:"with_image"`
}

// Enabled reports whether stories can be generated.
func (c *StoryConfig) Enabled() bool {
	return c.APIKey != ""
}

// Validate validates the story configuration.
func (c *StoryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.MaxTokens, validation.Min(1)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// NotifyConfig configures the chat webhook. An empty WebhookURL disables it.
type NotifyConfig struct {
	WebhookURL    string `yaml:"webhook_url"`
	RepoURL       string `yaml:"repo_url"`
	MaxStoryBytes int    `yaml:"max_story_bytes"`
	// MaxImageBytes is the largest image pushed as-is; bigger images are
	// replaced by their thumbnail.
	MaxImageBytes int `yaml:"max_image_bytes"`
}

// Enabled reports whether notifications can be sent.
func (c *NotifyConfig) Enabled() bool {
	return c.WebhookURL != ""
}

// Validate validates the notify configuration.
func (c *NotifyConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxStoryBytes, validation.Required, validation.Min(64)),
		validation.Field(&c.MaxImageBytes, validation.Required, validation.Min(1)),
	)
}

// MirrorConfig holds object-store credentials. Mirroring is disabled unless
// all four are set.
type MirrorConfig struct {
	SecretID  string `yaml:"secret_id"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	// Endpoint overrides the S3-compatible endpoint; empty means COS.
	Endpoint string `yaml:"endpoint"`
}

// ThumbnailConfig configures thumbnail generation.
type ThumbnailConfig struct {
	Width   int `yaml:"width"`
	Quality int `yaml:"quality"`
}

// Validate validates the thumbnail configuration.
func (c *ThumbnailConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(16)),
		validation.Field(&c.Quality, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

// LedgerConfig holds the SQLite ledger location.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the ledger configuration.
func (c *LedgerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// APIConfig configures the preview server.
type APIConfig struct {
	Port int        `yaml:"port"`
	Auth AuthConfig `yaml:"auth"`
}

// Address returns the HTTP server address.
func (c *APIConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the API configuration.
func (c *APIConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return c.Auth.Validate()
}

// AuthConfig holds preview API authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
		},
		Paths: PathsConfig{
			Wallpapers:    "docs/wallpapers",
			Gallery:       "docs/index.html",
			Readme:        "README.md",
			ReadmePrefix:  "docs/wallpapers",
			GalleryPrefix: "./wallpapers",
			MirrorPrefix:  "wallpapers",
		},
		Sources: []SourceConfig{
			{Name: "bing", DisplayName: "Bing", Kind: SourceKindBing, Enabled: true},
			{Name: "unsplash", DisplayName: "Unsplash", Kind: SourceKindUnsplash, Enabled: true},
		},
		Display: DisplayConfig{
			MaxItemsPerSource: 10,
		},
		HTTP: HTTPClientConfig{
			Timeout:         10 * time.Second,
			DownloadTimeout: 60 * time.Second,
			UserAgent:       "wallhub/1.0",
		},
		Bing: BingConfig{
			APIURL:   "https://www.bing.com/HPImageArchive.aspx",
			BaseURL:  "https://www.bing.com",
			Market:   "zh-CN",
			Offsets:  []int{0, 8, 16},
			PageSize: 8,
		},
		Unsplash: UnsplashConfig{
			APIURL:      "https://api.unsplash.com/photos/random",
			Query:       "nature,landscape,architecture",
			Orientation: "landscape",
			Featured:    true,
		},
		Story: StoryConfig{
			Model:     "gpt-4o-mini",
			MaxTokens: 800,
			Timeout:   60 * time.Second,
			WithImage: true,
		},
		Notify: NotifyConfig{
			RepoURL:       "https://github.com/starford/wallhub",
			MaxStoryBytes: 1800,
			MaxImageBytes: 2 << 20,
		},
		Thumbnail: ThumbnailConfig{
			Width:   480,
			Quality: 85,
		},
		Ledger: LedgerConfig{
			Path: "./wallhub.db",
		},
		API: APIConfig{
			Port: 8080,
			Auth: AuthConfig{
				Mode: AuthModeDisabled,
			},
		},
	}
}
