// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, storage, rate limiting, observability, the generation backend and
// the game rules (language mode, craft ordering, guess-game sources).
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "infinite-crafting")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AI backend modes.
const (
	AIModeAPI       = "api"
	AIModeLocal     = "local"
	AIModeAnthropic = "anthropic"
)

// AIConfig selects and tunes the element/word generation backend.
type AIConfig struct {
	Mode        string        // api|local|anthropic
	Model       string        // model name for api/local
	Temperature float64       // [0,2]
	MaxTokens   int           // > 0
	Timeout     time.Duration // per outbound call

	APIKey string // AI_API_KEY, falls back to SILICONFLOW_API_KEY
	APIURL string // OpenAI-compatible chat completions endpoint

	LocalURL  string // Ollama /api/chat endpoint
	LocalPath string // local model name/path, overrides Model in local mode

	AnthropicKey   string
	AnthropicModel string
}

// GameConfig holds crafting rules and preset locations.
type GameConfig struct {
	AdminKey          string
	CraftOrderMatters bool
	LanguageMode      string // both|cn|en
	PresetsPath       string
	PromptRulesPath   string
	FewShotLimit      int
}

// GuessConfig holds guess-game settings.
type GuessConfig struct {
	Timezone       string
	WordRetries    int
	SpecialPrefix  string
	BaikeURL       string
	MCWikiURL      string
	ContentTimeout time.Duration
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // covers the outbound model call
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes
	GzipEnabled    bool

	// Storage
	DBPath string // SQLite path

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig

	AI    AIConfig
	Game  GameConfig
	Guess GuessConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from the process environment. Every problem found
// is reported in the returned error, not just the first.
func Load() (Config, error) {
	return loadFrom(os.LookupEnv)
}

func loadFrom(lookup func(string) (string, bool)) (Config, error) {
	e := &envReader{lookup: lookup}

	cfg := Config{
		Port:              e.str("PORT", "3000"),
		ReadTimeout:       e.duration("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.duration("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.duration("WRITE_TIMEOUT", 90*time.Second),
		IdleTimeout:       e.duration("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.integer("MAX_HEADER_BYTES", 1<<20),
		GinMode:           e.lower("GIN_MODE", "release"),

		LogLevel:       e.lower("LOG_LEVEL", "info"),
		LogPretty:      e.boolean("LOG_PRETTY", false),
		SwaggerEnabled: e.boolean("SWAGGER_ENABLED", false),
		APIBasePath:    basePath(e.str("API_BASE_PATH", "/")),
		GzipEnabled:    e.boolean("GZIP_ENABLED", true),

		DBPath: e.str("DB_PATH", "data/cache.db"),

		RateRPS:   e.float("RATE_RPS", 5.0),
		RateBurst: e.integer("RATE_BURST", 20),

		CORS: CORSConfig{AllowedOrigins: e.list("CORS_ALLOWED_ORIGINS")},
		Security: SecurityConfig{
			EnableHSTS: e.boolean("ENABLE_HSTS", false),
			HSTSMaxAge: e.duration("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		OTEL: OTELConfig{
			Enabled:     e.boolean("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.boolean("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "infinite-crafting"),
			SampleRatio: e.float("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},

		AI: AIConfig{
			Mode:           e.lower("AI_MODE", AIModeAPI),
			Model:          e.str("AI_MODEL", "deepseek-ai/DeepSeek-V3.2-Exp"),
			Temperature:    e.float("AI_TEMPERATURE", 0.7),
			MaxTokens:      e.integer("AI_MAX_TOKENS", 200),
			Timeout:        e.duration("AI_TIMEOUT", 60*time.Second),
			APIKey:         e.first("AI_API_KEY", "SILICONFLOW_API_KEY"),
			APIURL:         e.str("AI_API_URL", "https://api.siliconflow.cn/v1/chat/completions"),
			LocalURL:       e.str("LOCAL_MODEL_URL", "http://localhost:11434/api/chat"),
			LocalPath:      e.str("LOCAL_MODEL_PATH", ""),
			AnthropicKey:   e.str("ANTHROPIC_API_KEY", ""),
			AnthropicModel: e.str("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		},

		Game: GameConfig{
			AdminKey:          e.str("ADMIN_KEY", ""),
			CraftOrderMatters: e.boolean("CRAFT_ORDER_MATTERS", false),
			LanguageMode:      e.lower("LANGUAGE_MODE", "both"),
			PresetsPath:       e.str("PRESETS_PATH", "data/presets.json"),
			PromptRulesPath:   e.str("PROMPT_RULES_PATH", "data/prompt_rules.md"),
			FewShotLimit:      e.integer("FEW_SHOT_LIMIT", 6),
		},

		Guess: GuessConfig{
			Timezone:       e.str("GUESS_TIMEZONE", "Local"),
			WordRetries:    e.integer("GUESS_WORD_RETRIES", 3),
			SpecialPrefix:  e.str("GUESS_SPECIAL_PREFIX", "mc-"),
			BaikeURL:       e.str("BAIKE_URL", "https://baike.baidu.com/item/"),
			MCWikiURL:      e.str("MC_WIKI_RANDOM_URL", "https://zh.minecraft.wiki/Special:%E9%9A%8F%E6%9C%BA%E9%A1%B5%E9%9D%A2/Minecraft"),
			ContentTimeout: e.duration("CONTENT_TIMEOUT", 15*time.Second),
		},
	}

	cfg.normalize()
	return cfg, errors.Join(append(e.errs, cfg.validate()...)...)
}

// normalize folds accepted aliases onto their canonical spelling.
func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	if c.Game.LanguageMode == "zh" {
		c.Game.LanguageMode = "cn"
	}
	if !oneOf(c.GinMode, "debug", "release", "test") {
		c.GinMode = "release"
	}
}

func (c Config) validate() []error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	check(oneOf(c.LogLevel, "debug", "info", "warn", "error", "fatal", "panic"),
		"LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	check(strings.TrimSpace(c.Port) != "", "PORT must not be empty")
	check(c.ReadTimeout > 0 && c.ReadHeaderTimeout > 0 && c.WriteTimeout > 0 && c.IdleTimeout > 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")
	check(strings.TrimSpace(c.DBPath) != "", "DB_PATH must not be empty")
	check(c.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(c.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	check(oneOf(c.AI.Mode, AIModeAPI, AIModeLocal, AIModeAnthropic), "AI_MODE must be one of: api, local, anthropic")
	check(c.AI.Temperature >= 0 && c.AI.Temperature <= 2, "AI_TEMPERATURE must be in [0,2]")
	check(c.AI.MaxTokens > 0, "AI_MAX_TOKENS must be > 0")
	check(c.AI.Timeout > 0 && c.Guess.ContentTimeout > 0, "AI_TIMEOUT and CONTENT_TIMEOUT must be positive durations")

	check(oneOf(c.Game.LanguageMode, "both", "cn", "en"), "LANGUAGE_MODE must be one of: both, cn, en")
	check(c.Game.FewShotLimit >= 0, "FEW_SHOT_LIMIT must be >= 0")
	check(c.Guess.WordRetries >= 1, "GUESS_WORD_RETRIES must be >= 1")
	if _, err := c.Guess.Location(); err != nil {
		errs = append(errs, fmt.Errorf("GUESS_TIMEZONE must be a valid IANA time zone: %w", err))
	}
	return errs
}

// Location resolves the configured guess-game time zone.
func (g GuessConfig) Location() (*time.Location, error) {
	if g.Timezone == "" || strings.EqualFold(g.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(g.Timezone)
}

// ModelName returns the model to request for the configured mode.
func (a AIConfig) ModelName() string {
	switch a.Mode {
	case AIModeLocal:
		if a.LocalPath != "" {
			return a.LocalPath
		}
	case AIModeAnthropic:
		return a.AnthropicModel
	}
	return a.Model
}

// envReader reads typed values through lookup. A set but unparsable value
// is recorded in errs and the default is used in its place.
type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

// raw returns the trimmed value of key, or "" when unset.
func (e *envReader) raw(key string) string {
	v, _ := e.lookup(key)
	return strings.TrimSpace(v)
}

// str keeps surrounding whitespace so validation can reject blank values.
func (e *envReader) str(key, def string) string {
	if v, ok := e.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (e *envReader) lower(key, def string) string {
	return strings.ToLower(e.str(key, def))
}

// first returns the first non-blank value among keys.
func (e *envReader) first(keys ...string) string {
	for _, k := range keys {
		if v := e.raw(k); v != "" {
			return v
		}
	}
	return ""
}

func (e *envReader) list(key string) []string {
	var out []string
	for _, p := range strings.Split(e.raw(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (e *envReader) integer(key string, def int) int {
	return parseOr(e, key, def, strconv.Atoi)
}

func (e *envReader) float(key string, def float64) float64 {
	return parseOr(e, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	return parseOr(e, key, def, time.ParseDuration)
}

func (e *envReader) boolean(key string, def bool) bool {
	return parseOr(e, key, def, func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
		return false, errors.New("not a boolean")
	})
}

func parseOr[T any](e *envReader, key string, def T, parse func(string) (T, error)) T {
	v := e.raw(key)
	if v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s=%q: %w", key, v, err))
		return def
	}
	return out
}

func oneOf(v string, allowed ...string) bool {
	return slices.Contains(allowed, v)
}

// basePath ensures a leading slash and drops trailing ones, except for root.
func basePath(p string) string {
	return "/" + strings.Trim(strings.TrimSpace(p), "/")
}
