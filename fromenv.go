package perflog

import (
	"io"
	"os"
	"strconv"
	"strings"

	"pkt.systems/perflog/ansi"
)

// DefaultEnvPrefix prefixes every environment variable perflog reads.
const DefaultEnvPrefix = "PERFLOG_"

// EnvOption customises OptionsFromEnv and FormatterFromEnv.
type EnvOption func(*envConfig)

type envConfig struct {
	prefix    string
	options   Options
	formatter FormatterOptions
	writer    io.Writer
}

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) EnvOption {
	return func(cfg *envConfig) {
		cfg.prefix = prefix
	}
}

// WithEnvOptions seeds OptionsFromEnv with explicit values that environment
// variables may override.
func WithEnvOptions(opts Options) EnvOption {
	return func(cfg *envConfig) {
		cfg.options = opts
	}
}

// WithEnvFormatterOptions seeds FormatterFromEnv with explicit values that
// environment variables may override.
func WithEnvFormatterOptions(opts FormatterOptions) EnvOption {
	return func(cfg *envConfig) {
		cfg.formatter = opts
	}
}

// WithEnvWriter seeds FormatterFromEnv with a default output writer.
func WithEnvWriter(w io.Writer) EnvOption {
	return func(cfg *envConfig) {
		cfg.writer = w
	}
}

func newEnvConfig(opts []EnvOption) envConfig {
	cfg := envConfig{prefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// OptionsFromEnv reads tracker switches from the environment. Recognised
// variables are {prefix}DEBUG, DCL, FCP, FP, FID, LCP, CLS, TBT, RESOURCES,
// ATTRIBUTION and FID_POLICY. Unset or unparsable variables leave the seeded
// value untouched.
func OptionsFromEnv(opts ...EnvOption) Options {
	cfg := newEnvConfig(opts)
	resolved := cfg.options
	envBool(cfg.prefix, "DEBUG", &resolved.Debug)
	for _, m := range Metrics {
		var value *bool
		envBool(cfg.prefix, strings.ToUpper(string(m)), &value)
		if value != nil {
			resolved.SetMetric(m, *value)
		}
	}
	envBool(cfg.prefix, "ATTRIBUTION", &resolved.Attribution)
	if value, ok := lookupEnv(cfg.prefix, "FID_POLICY"); ok {
		if policy, ok := ParseFirstInputPolicy(value); ok {
			resolved.FirstInput = Policy(policy)
		}
	}
	return resolved
}

// FormatterOptionsFromEnv overlays environment variables on the seeded
// formatter options. Recognised variables are {prefix}MODE
// (console|structured|json), NO_COLOR, FORCE_COLOR, PALETTE and
// COLOR_PROFILE. A non-empty NO_COLOR without prefix disables colour as well.
func FormatterOptionsFromEnv(opts ...EnvOption) FormatterOptions {
	cfg := newEnvConfig(opts)
	resolved := cfg.formatter
	prefix := cfg.prefix
	if value, ok := lookupEnv(prefix, "MODE"); ok {
		if mode, ok := ParseMode(strings.ToLower(strings.TrimSpace(value))); ok {
			resolved.Mode = mode
		}
	}
	if value, ok := os.LookupEnv("NO_COLOR"); ok && value != "" {
		resolved.NoColor = true
	}
	if value, ok := lookupEnv(prefix, "NO_COLOR"); ok {
		if parsed, ok := parseEnvBool(value); ok {
			resolved.NoColor = parsed
		}
	}
	if value, ok := lookupEnv(prefix, "FORCE_COLOR"); ok {
		if parsed, ok := parseEnvBool(value); ok {
			resolved.ForceColor = parsed
		}
	}
	if value, ok := lookupEnv(prefix, "PALETTE"); ok {
		if palette, ok := ansi.PaletteByName(value); ok {
			resolved.Palette = &palette
		}
	}
	if value, ok := lookupEnv(prefix, "COLOR_PROFILE"); ok {
		if profile, ok := ansi.ParseProfile(value); ok {
			resolved.Profile = &profile
		}
	}
	return resolved
}

// OutputFromEnv returns {prefix}OUTPUT, the destination accepted by
// OpenOutput.
func OutputFromEnv(opts ...EnvOption) (string, bool) {
	cfg := newEnvConfig(opts)
	return lookupEnv(cfg.prefix, "OUTPUT")
}

// FormatterFromEnv builds a Formatter from FormatterOptionsFromEnv and
// {prefix}OUTPUT, on top of the seeded options and writer.
//
// When OUTPUT cannot be opened the Formatter falls back to the seeded writer
// and the failure is reported as its first record.
func FormatterFromEnv(opts ...EnvOption) *Formatter {
	cfg := newEnvConfig(opts)
	base := cfg.writer
	if base == nil {
		base = os.Stdout
	}
	writer := base
	var outputErr error
	if value, ok := lookupEnv(cfg.prefix, "OUTPUT"); ok {
		writer, outputErr = OpenOutput(value, base)
	}
	f := NewFormatter(writer, FormatterOptionsFromEnv(opts...))
	if outputErr != nil {
		f.Log(KindMisc, "output unavailable, using default: "+outputErr.Error())
	}
	return f
}

func lookupEnv(prefix, key string) (string, bool) {
	if prefix == "" {
		return os.LookupEnv(key)
	}
	return os.LookupEnv(prefix + key)
}

func envBool(prefix, key string, dst **bool) {
	value, ok := lookupEnv(prefix, key)
	if !ok {
		return
	}
	if parsed, ok := parseEnvBool(value); ok {
		*dst = Bool(parsed)
	}
}

func parseEnvBool(value string) (bool, bool) {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, false
	}
	return parsed, true
}
