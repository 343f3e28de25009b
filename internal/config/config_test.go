package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

// newFlagBinder creates a FlagSet with all config flags registered at their
// defaults and parses args into it.
func newFlagBinder(t *testing.T, defaults Config, args ...string) *fakeBinder {
	t.Helper()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}

	return &fakeBinder{fs: fs}
}

// clearProviderEnv hides provider credentials present in the developer's
// environment from Load.
func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.ListenAddr != ":3001" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":3001")
	}

	if cfg.Server.Workers != 4 {
		t.Errorf("Server.Workers = %d; want 4", cfg.Server.Workers)
	}

	if cfg.Server.ShutdownTimeout != 30 {
		t.Errorf("Server.ShutdownTimeout = %d; want 30", cfg.Server.ShutdownTimeout)
	}

	if cfg.Server.RequestTimeout != 120 {
		t.Errorf("Server.RequestTimeout = %d; want 120", cfg.Server.RequestTimeout)
	}

	if cfg.Server.MaxSentences != 500 {
		t.Errorf("Server.MaxSentences = %d; want 500", cfg.Server.MaxSentences)
	}

	if cfg.Translate.Mode != ModeAuto {
		t.Errorf("Translate.Mode = %q; want %q", cfg.Translate.Mode, ModeAuto)
	}

	if cfg.Translate.TargetLanguage != "qu" || cfg.Translate.PivotLanguage != "es" {
		t.Errorf("languages = %q via %q; want qu via es", cfg.Translate.TargetLanguage, cfg.Translate.PivotLanguage)
	}

	if cfg.Stats.Lambda != 1 {
		t.Errorf("Stats.Lambda = %v; want 1", cfg.Stats.Lambda)
	}

	if cfg.Stats.BootstrapRounds != 200 {
		t.Errorf("Stats.BootstrapRounds = %d; want 200", cfg.Stats.BootstrapRounds)
	}

	if cfg.Stats.TopConfusions != 20 {
		t.Errorf("Stats.TopConfusions = %d; want 20", cfg.Stats.TopConfusions)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}
}

// --- NormalizeMode ---

func TestNormalizeMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"auto", "auto", ModeAuto, false},
		{"real", "real", ModeReal, false},
		{"mock", "mock", ModeMock, false},
		{"uppercase", "REAL", ModeReal, false},
		{"spaces", "  mock  ", ModeMock, false},
		{"demo alias", "demo", ModeMock, false},
		{"offline alias", "Offline", ModeMock, false},
		{"empty defaults to auto", "", ModeAuto, false},
		{"whitespace defaults to auto", "   ", ModeAuto, false},
		{"invalid value", "google", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeMode(%q) = %q, nil; want error", tt.input, got)
				}

				return
			}

			if err != nil {
				t.Errorf("NormalizeMode(%q) unexpected error: %v", tt.input, err)
				return
			}

			if got != tt.want {
				t.Errorf("NormalizeMode(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

// --- RegisterFlags ---

func TestRegisterFlags(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	checks := []struct {
		flag string
		want string
	}{
		{"server-listen-addr", ":3001"},
		{"workers", "4"},
		{"mode", "auto"},
		{"openai-model", "gpt-4o-mini"},
		{"lambda", "1"},
		{"bootstrap-rounds", "200"},
		{"seed", "0"},
		{"log-level", "info"},
	}

	for _, c := range checks {
		f := fs.Lookup(c.flag)
		if f == nil {
			t.Errorf("flag %q not registered", c.flag)
			continue
		}

		if f.DefValue != c.want {
			t.Errorf("flag %q default = %q; want %q", c.flag, f.DefValue, c.want)
		}
	}
}

func TestFlagKeysCoverRegisteredFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())

	fs.VisitAll(func(f *pflag.Flag) {
		if _, ok := flagKeys[f.Name]; !ok {
			t.Errorf("flag %q has no config key", f.Name)
		}
	})
	for name := range flagKeys {
		if fs.Lookup(name) == nil {
			t.Errorf("config key for %q has no flag", name)
		}
	}
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	clearProviderEnv(t)
	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:      newFlagBinder(t, defaults),
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg != defaults {
		t.Errorf("Load() = %+v; want %+v", cfg, defaults)
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	clearProviderEnv(t)
	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd: newFlagBinder(t, defaults,
			"--mode=MOCK",
			"--workers=8",
			"--lambda=0.5",
			"--seed=42",
			"--log-level=debug",
		),
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Translate.Mode != ModeMock {
		t.Errorf("Translate.Mode = %q; want %q", cfg.Translate.Mode, ModeMock)
	}

	if cfg.Server.Workers != 8 {
		t.Errorf("Server.Workers = %d; want 8", cfg.Server.Workers)
	}

	if cfg.Stats.Lambda != 0.5 {
		t.Errorf("Stats.Lambda = %v; want 0.5", cfg.Stats.Lambda)
	}

	if cfg.Stats.Seed != 42 {
		t.Errorf("Stats.Seed = %d; want 42", cfg.Stats.Seed)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("TRANSDIV_LOG_LEVEL", "warn")
	t.Setenv("TRANSDIV_SERVER_LISTEN_ADDR", ":9999")
	t.Setenv("TRANSDIV_STATS_BOOTSTRAP_ROUNDS", "500")

	cfg, err := Load(LoadOptions{
		Defaults: DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "warn")
	}

	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":9999")
	}

	if cfg.Stats.BootstrapRounds != 500 {
		t.Errorf("Stats.BootstrapRounds = %d; want 500", cfg.Stats.BootstrapRounds)
	}
}

func TestLoad_ProviderEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/google.json")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Translate.OpenAIAPIKey != "sk-from-env" {
		t.Errorf("Translate.OpenAIAPIKey = %q; want %q", cfg.Translate.OpenAIAPIKey, "sk-from-env")
	}

	if cfg.Translate.GoogleCredentialsFile != "/secrets/google.json" {
		t.Errorf("Translate.GoogleCredentialsFile = %q; want %q",
			cfg.Translate.GoogleCredentialsFile, "/secrets/google.json")
	}
}

func TestLoad_PrefixedEnvBeatsProviderEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-generic")
	t.Setenv("TRANSDIV_TRANSLATE_OPENAI_API_KEY", "sk-specific")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Translate.OpenAIAPIKey != "sk-specific" {
		t.Errorf("Translate.OpenAIAPIKey = %q; want %q", cfg.Translate.OpenAIAPIKey, "sk-specific")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "transdiv.yaml")

	content := `
log_level: error
server:
  workers: 16
  listen_addr: ":7777"
translate:
  mode: real
  pivot_language: ""
stats:
  top_confusions: 5
`

	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := DefaultConfig()
	cfg, err := Load(LoadOptions{
		Cmd:        newFlagBinder(t, defaults),
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "error")
	}

	if cfg.Server.Workers != 16 {
		t.Errorf("Server.Workers = %d; want 16", cfg.Server.Workers)
	}

	if cfg.Server.ListenAddr != ":7777" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":7777")
	}

	if cfg.Translate.Mode != ModeReal {
		t.Errorf("Translate.Mode = %q; want %q", cfg.Translate.Mode, ModeReal)
	}

	if cfg.Translate.PivotLanguage != "" {
		t.Errorf("Translate.PivotLanguage = %q; want empty", cfg.Translate.PivotLanguage)
	}

	if cfg.Stats.TopConfusions != 5 {
		t.Errorf("Stats.TopConfusions = %d; want 5", cfg.Stats.TopConfusions)
	}
}

func TestLoad_FlagBeatsConfigFile(t *testing.T) {
	clearProviderEnv(t)
	cfgFile := filepath.Join(t.TempDir(), "transdiv.yaml")
	if err := os.WriteFile(cfgFile, []byte("server:\n  workers: 16\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := DefaultConfig()
	cfg, err := Load(LoadOptions{
		Cmd:        newFlagBinder(t, defaults, "--workers=2"),
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Workers != 2 {
		t.Errorf("Server.Workers = %d; want 2", cfg.Server.Workers)
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "bad.yaml")

	if err := os.WriteFile(cfgFile, []byte(":\t:bad yaml:::"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(LoadOptions{
		ConfigFile: cfgFile,
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for invalid config file")
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: "/nonexistent/path/transdiv.yaml",
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for missing explicit config file")
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad mode", []string{"--mode=google"}},
		{"zero lambda", []string{"--lambda=0"}},
		{"negative lambda", []string{"--lambda=-1"}},
		{"subnormal lambda", []string{"--lambda=5e-324"}},
		{"lambda below minimum", []string{"--lambda=1e-12"}},
		{"zero rounds", []string{"--bootstrap-rounds=0"}},
		{"zero max sentences", []string{"--max-sentences=0"}},
		{"negative rate limit", []string{"--rate-limit=-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defaults := DefaultConfig()
			_, err := Load(LoadOptions{Cmd: newFlagBinder(t, defaults, tt.args...), Defaults: defaults})
			if err == nil {
				t.Errorf("Load(%v) = nil; want error", tt.args)
			}
		})
	}
}

func TestValidate_LambdaBounds(t *testing.T) {
	tests := []struct {
		lambda  float64
		wantErr bool
	}{
		{1, false},
		{1e-9, false},
		{5e-324, true},
		{1e-10, true},
		{math.Inf(1), true},
		{math.NaN(), true},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Stats.Lambda = tt.lambda
		err := cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate() with lambda %v: err = %v; wantErr %v", tt.lambda, err, tt.wantErr)
		}
	}
}
