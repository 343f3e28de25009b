package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/example/go-transdiv/internal/stats"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Translate TranslateConfig `mapstructure:"translate"`
	Stats     StatsConfig     `mapstructure:"stats"`
	LogLevel  string          `mapstructure:"log_level"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	MaxSentences    int    `mapstructure:"max_sentences"`
}

type TranslateConfig struct {
	Mode                  string  `mapstructure:"mode"`
	GoogleCredentialsFile string  `mapstructure:"google_credentials_file"`
	OpenAIAPIKey          string  `mapstructure:"openai_api_key"`
	OpenAIModel           string  `mapstructure:"openai_model"`
	OpenAIBaseURL         string  `mapstructure:"openai_base_url"`
	TargetLanguage        string  `mapstructure:"target_language"`
	PivotLanguage         string  `mapstructure:"pivot_language"`
	SentenceBank          string  `mapstructure:"sentence_bank"`
	Concurrency           int     `mapstructure:"concurrency"`
	TimeoutSeconds        int     `mapstructure:"timeout_seconds"`
	RateLimit             float64 `mapstructure:"rate_limit"`
	RateBurst             int     `mapstructure:"rate_burst"`
}

type StatsConfig struct {
	Lambda          float64 `mapstructure:"lambda"`
	BootstrapRounds int     `mapstructure:"bootstrap_rounds"`
	TopConfusions   int     `mapstructure:"top_confusions"`
	Seed            uint64  `mapstructure:"seed"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:      ":3001",
			Workers:         4,
			ShutdownTimeout: 30,
			RequestTimeout:  120,
			MaxTextBytes:    4096,
			MaxSentences:    500,
		},
		Translate: TranslateConfig{
			Mode:           ModeAuto,
			OpenAIModel:    "gpt-4o-mini",
			TargetLanguage: "qu",
			PivotLanguage:  "es",
			Concurrency:    8,
			TimeoutSeconds: 30,
			RateLimit:      0,
			RateBurst:      1,
		},
		Stats: StatsConfig{
			Lambda:          1,
			BootstrapRounds: 200,
			TopConfusions:   20,
			Seed:            0,
		},
		LogLevel: "info",
	}
}

// flagKeys maps each flag registered by RegisterFlags to its config key.
var flagKeys = map[string]string{
	"server-listen-addr":      "server.listen_addr",
	"workers":                 "server.workers",
	"shutdown-timeout":        "server.shutdown_timeout",
	"request-timeout":         "server.request_timeout",
	"max-text-bytes":          "server.max_text_bytes",
	"max-sentences":           "server.max_sentences",
	"mode":                    "translate.mode",
	"google-credentials-file": "translate.google_credentials_file",
	"openai-api-key":          "translate.openai_api_key",
	"openai-model":            "translate.openai_model",
	"openai-base-url":         "translate.openai_base_url",
	"target-language":         "translate.target_language",
	"pivot-language":          "translate.pivot_language",
	"sentence-bank":           "translate.sentence_bank",
	"translate-concurrency":   "translate.concurrency",
	"translate-timeout":       "translate.timeout_seconds",
	"rate-limit":              "translate.rate_limit",
	"rate-burst":              "translate.rate_burst",
	"lambda":                  "stats.lambda",
	"bootstrap-rounds":        "stats.bootstrap_rounds",
	"top-confusions":          "stats.top_confusions",
	"seed":                    "stats.seed",
	"log-level":               "log_level",
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Max concurrent analysis requests")
	fs.Int("shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.Int("request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("max-text-bytes", defaults.Server.MaxTextBytes, "Max bytes accepted per text field")
	fs.Int("max-sentences", defaults.Server.MaxSentences, "Max sentences per experiment")
	fs.String("mode", defaults.Translate.Mode, "Translate mode: auto|real|mock")
	fs.String("google-credentials-file", defaults.Translate.GoogleCredentialsFile, "Google service account JSON file")
	fs.String("openai-api-key", defaults.Translate.OpenAIAPIKey, "OpenAI API key")
	fs.String("openai-model", defaults.Translate.OpenAIModel, "OpenAI chat model")
	fs.String("openai-base-url", defaults.Translate.OpenAIBaseURL, "OpenAI-compatible API base URL")
	fs.String("target-language", defaults.Translate.TargetLanguage, "Target language code")
	fs.String("pivot-language", defaults.Translate.PivotLanguage, "Pivot language code for Google (empty = direct)")
	fs.String("sentence-bank", defaults.Translate.SentenceBank, "YAML sentence bank (empty = built-in)")
	fs.Int("translate-concurrency", defaults.Translate.Concurrency, "Max sentences translated at once")
	fs.Int("translate-timeout", defaults.Translate.TimeoutSeconds, "Per-call translator timeout in seconds")
	fs.Float64("rate-limit", defaults.Translate.RateLimit, "Translator requests per second (0 = unlimited)")
	fs.Int("rate-burst", defaults.Translate.RateBurst, "Translator rate limit burst")
	fs.Float64("lambda", defaults.Stats.Lambda, "Laplace smoothing constant")
	fs.Int("bootstrap-rounds", defaults.Stats.BootstrapRounds, "Bootstrap resampling rounds")
	fs.Int("top-confusions", defaults.Stats.TopConfusions, "Confusion pairs to report")
	fs.Uint64("seed", defaults.Stats.Seed, "Bootstrap seed (0 = time-seeded)")
	fs.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("TRANSDIV")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("translate.openai_api_key", "TRANSDIV_TRANSLATE_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind openai env vars: %w", err)
	}
	if err := v.BindEnv("translate.google_credentials_file",
		"TRANSDIV_TRANSLATE_GOOGLE_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS"); err != nil {
		return Config{}, fmt.Errorf("bind google env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("transdiv")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate normalizes the translate mode in place and rejects values the
// analysis cannot run with.
func (c *Config) Validate() error {
	mode, err := NormalizeMode(c.Translate.Mode)
	if err != nil {
		return err
	}
	c.Translate.Mode = mode

	if !(c.Stats.Lambda >= stats.MinLambda) || math.IsInf(c.Stats.Lambda, 1) {
		return fmt.Errorf("invalid stats.lambda %v (must be finite and at least %g)", c.Stats.Lambda, stats.MinLambda)
	}
	if c.Stats.BootstrapRounds < 1 {
		return fmt.Errorf("invalid stats.bootstrap_rounds %d (must be at least 1)", c.Stats.BootstrapRounds)
	}
	if c.Server.MaxSentences < 1 {
		return fmt.Errorf("invalid server.max_sentences %d (must be at least 1)", c.Server.MaxSentences)
	}
	if c.Translate.RateLimit < 0 {
		return fmt.Errorf("invalid translate.rate_limit %v (must not be negative)", c.Translate.RateLimit)
	}

	return nil
}

// bindFlags binds each known flag present in fs to its nested key, so a
// changed flag beats env and config file values while an unchanged one
// only supplies the default.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.max_sentences", c.Server.MaxSentences)
	v.SetDefault("translate.mode", c.Translate.Mode)
	v.SetDefault("translate.google_credentials_file", c.Translate.GoogleCredentialsFile)
	v.SetDefault("translate.openai_api_key", c.Translate.OpenAIAPIKey)
	v.SetDefault("translate.openai_model", c.Translate.OpenAIModel)
	v.SetDefault("translate.openai_base_url", c.Translate.OpenAIBaseURL)
	v.SetDefault("translate.target_language", c.Translate.TargetLanguage)
	v.SetDefault("translate.pivot_language", c.Translate.PivotLanguage)
	v.SetDefault("translate.sentence_bank", c.Translate.SentenceBank)
	v.SetDefault("translate.concurrency", c.Translate.Concurrency)
	v.SetDefault("translate.timeout_seconds", c.Translate.TimeoutSeconds)
	v.SetDefault("translate.rate_limit", c.Translate.RateLimit)
	v.SetDefault("translate.rate_burst", c.Translate.RateBurst)
	v.SetDefault("stats.lambda", c.Stats.Lambda)
	v.SetDefault("stats.bootstrap_rounds", c.Stats.BootstrapRounds)
	v.SetDefault("stats.top_confusions", c.Stats.TopConfusions)
	v.SetDefault("stats.seed", c.Stats.Seed)
	v.SetDefault("log_level", c.LogLevel)
}
