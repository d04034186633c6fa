package roster

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"influence-backend/lib/configutil"
	configlibsql "influence-backend/lib/configutil/libsql"
	"influence-backend/lib/estimate"
	"influence-backend/lib/influence"
	"influence-backend/lib/textutil"
)

// Creator is one tracked content creator, Accounts maps a platform to the handle,
// uid or feed url used to fetch it.
type Creator struct {
	Key       string            `json:"key"`
	Name      string            `json:"name"`
	RealName  string            `json:"real_name"`
	Category  string            `json:"category"`
	Region    string            `json:"region"`
	Stance    string            `json:"political_stance"`
	Direction string            `json:"direction"`
	Accounts  map[string]string `json:"accounts"`
}

// ScoringOverrides are the optional overrides of influence.DefaultOptions.
type ScoringOverrides struct {
	BaseBlend       *float64 `json:"base_blend"`
	EngagementBlend *float64 `json:"engagement_blend"`
	ReachBlend      *float64 `json:"reach_blend"`
	ScaleConstant   *float64 `json:"scale_constant"`
	ReachFraction   *float64 `json:"reach_fraction"`
	EstimatedFactor *float64 `json:"estimated_factor"`
	IncludeErrors   *bool    `json:"include_errors"`
}

type CollectorConfig struct {
	Concurrency int `json:"concurrency"`
	// RatePerSecond is the request rate allowed per platform.
	RatePerSecond  float64 `json:"rate_per_second"`
	TimeoutSeconds int     `json:"timeout_seconds"`
	Retries        int     `json:"retries"`
}

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
}

type YouTubeConfig struct {
	ApiKey   string `json:"api_key"`
	Endpoint string `json:"endpoint"`
}

type BilibiliConfig struct {
	BaseURL string `json:"base_url"`
}

// File is the on-disk shape of roster.json5.
type File struct {
	Region    string                                `json:"region"`
	Timezone  string                                `json:"timezone"`
	Schedule  string                                `json:"schedule"`
	Creators  []Creator                             `json:"creators"`
	Weights   map[string]influence.PlatformWeight   `json:"weights"`
	Scoring   ScoringOverrides                      `json:"scoring"`
	Estimates map[string]map[string]estimate.Record `json:"estimates"`
	Collector CollectorConfig                       `json:"collector"`
	Database  configlibsql.Struct                   `json:"database"`
	YouTube   YouTubeConfig                         `json:"youtube"`
	Bilibili  BilibiliConfig                        `json:"bilibili"`
	Smtp      SmtpConfig                            `json:"smtp"`
	Port      int                                   `json:"port"`
	// ApiToken protects the rankings api, empty leaves it open.
	ApiToken string `json:"api_token"`
}

// Config is the validated, immutable configuration of a run. It is built once
// at startup and passed explicitly.
type Config struct {
	file      File
	creators  []Creator
	weights   influence.WeightTable
	options   influence.Options
	estimates estimate.Table
}

var (
	ErrDuplicateCreator = errors.New("duplicate creator key")
	ErrEmptyKey         = errors.New("empty creator key")
	ErrNegativeWeight   = errors.New("negative weight")
	ErrNegativeOption   = errors.New("negative scoring option")
	ErrUnknownRegion    = errors.New("unknown region without explicit weights")
	ErrCreatorNotFound  = errors.New("creator not found")
)

const (
	DefaultSchedule = "0 6 * * *"
	DefaultPort     = 8080
)

// Load reads roster.json5 (and its local override) and validates it. Secrets can
// be supplied through INFLUENCE_* environment variables.
func Load(path string) (Config, error) {
	file, err := configutil.ReadConfig[File](path)
	if err != nil {
		return Config{}, fmt.Errorf("read roster %s: %w", path, err)
	}
	configutil.ApplyEnv(&file.YouTube.ApiKey, "INFLUENCE_YOUTUBE_API_KEY", "YOUTUBE_API_KEY")
	configutil.ApplyEnv(&file.Smtp.Password, "INFLUENCE_SMTP_PASSWORD")
	configutil.ApplyEnv(&file.Database.AuthToken, "INFLUENCE_DB_AUTH_TOKEN")
	configutil.ApplyEnv(&file.ApiToken, "INFLUENCE_API_TOKEN")
	return New(file)
}

// New validates a File and builds a Config from it.
func New(file File) (Config, error) {
	file.Region = strings.ToUpper(strings.TrimSpace(file.Region))

	weights := file.Weights
	if len(weights) == 0 {
		def, ok := regionWeights(file.Region)
		if !ok {
			return Config{}, fmt.Errorf("%w: %q", ErrUnknownRegion, file.Region)
		}
		weights = def
	}

	known := []string{}
	normalizedWeights := map[string]influence.PlatformWeight{}
	for platform, w := range weights {
		if w.Weight < 0 || w.Engagement < 0 {
			return Config{}, fmt.Errorf("%w: %s", ErrNegativeWeight, platform)
		}
		key := textutil.NormalizeKey(platform)
		normalizedWeights[key] = w
		known = append(known, key)
	}
	slices.Sort(known)

	seen := map[string]bool{}
	creators := make([]Creator, 0, len(file.Creators))
	for _, c := range file.Creators {
		c.Key = strings.TrimSpace(c.Key)
		if c.Key == "" {
			return Config{}, fmt.Errorf("%w: %q", ErrEmptyKey, c.Name)
		}
		if seen[c.Key] {
			return Config{}, fmt.Errorf("%w: %s", ErrDuplicateCreator, c.Key)
		}
		seen[c.Key] = true
		if c.Region == "" {
			c.Region = file.Region
		}

		accounts := map[string]string{}
		for platform, handle := range c.Accounts {
			resolved := influence.ResolvePlatform(platform, known)
			if resolved.Implicit {
				slog.Warn(
					"implicit platform resolution",
					"creator", c.Key,
					"platform", platform,
					"resolved", resolved.Platform,
					"similarity", resolved.Similarity,
				)
			}
			accounts[resolved.Platform] = handle
		}
		c.Accounts = accounts
		creators = append(creators, c)
	}

	options := file.Scoring.apply(influence.DefaultOptions())
	err := validateOptions(options)
	if err != nil {
		return Config{}, err
	}

	if file.Schedule == "" {
		file.Schedule = DefaultSchedule
	}
	if file.Port == 0 {
		file.Port = DefaultPort
	}
	if file.Database.File == "" && file.Database.Url == "" {
		file.Database.File = "influence.db"
	}

	return Config{
		file:      file,
		creators:  creators,
		weights:   influence.NewWeightTable(normalizedWeights),
		options:   options,
		estimates: estimate.DefaultTable().With(file.Estimates),
	}, nil
}

func (o ScoringOverrides) apply(opts influence.Options) influence.Options {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&opts.BaseBlend, o.BaseBlend)
	set(&opts.EngagementBlend, o.EngagementBlend)
	set(&opts.ReachBlend, o.ReachBlend)
	set(&opts.ScaleConstant, o.ScaleConstant)
	set(&opts.ReachFraction, o.ReachFraction)
	set(&opts.EstimatedFactor, o.EstimatedFactor)
	if o.IncludeErrors != nil {
		opts.IncludeErrors = *o.IncludeErrors
	}
	return opts
}

// validateOptions keeps the score monotonic in followers, views and engagement.
func validateOptions(opts influence.Options) error {
	values := []struct {
		name  string
		value float64
	}{
		{"base_blend", opts.BaseBlend},
		{"engagement_blend", opts.EngagementBlend},
		{"reach_blend", opts.ReachBlend},
		{"scale_constant", opts.ScaleConstant},
		{"reach_fraction", opts.ReachFraction},
		{"estimated_factor", opts.EstimatedFactor},
	}
	for _, v := range values {
		if v.value < 0 || math.IsNaN(v.value) {
			return fmt.Errorf("%w: %s = %v", ErrNegativeOption, v.name, v.value)
		}
	}
	return nil
}

func (c Config) Region() string { return c.file.Region }
func (c Config) Timezone() string { return c.file.Timezone }
func (c Config) Schedule() string { return c.file.Schedule }
func (c Config) Port() int { return c.file.Port }
func (c Config) Weights() influence.WeightTable { return c.weights }
func (c Config) Options() influence.Options { return c.options }
func (c Config) Estimates() estimate.Table { return c.estimates }
func (c Config) Database() configlibsql.Struct { return c.file.Database }
func (c Config) YouTube() YouTubeConfig { return c.file.YouTube }
func (c Config) Bilibili() BilibiliConfig { return c.file.Bilibili }
func (c Config) Smtp() SmtpConfig { return c.file.Smtp }
func (c Config) ApiToken() string { return c.file.ApiToken }

// Creators returns a copy of the creators in configured order.
func (c Config) Creators() []Creator {
	out := make([]Creator, len(c.creators))
	copy(out, c.creators)
	return out
}

func (c Config) Collector() CollectorConfig {
	cfg := c.file.Collector
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 20
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return cfg
}

func (c CollectorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Creator finds a creator by key, falling back to a normalized match on the key or
// display name.
func (c Config) Creator(key string) (Creator, error) {
	for _, creator := range c.creators {
		if creator.Key == key {
			return creator, nil
		}
	}
	normalized := textutil.NormalizeName(key)
	for _, creator := range c.creators {
		if textutil.NormalizeName(creator.Key) == normalized || textutil.NormalizeName(creator.Name) == normalized {
			return creator, nil
		}
	}
	return Creator{}, fmt.Errorf("%w: %s", ErrCreatorNotFound, key)
}
