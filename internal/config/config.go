// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"

	"github.com/handlerpack/handlerpack/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "handlerpack"
	// ConfigFileName is the config file name inside ConfigDir.
	ConfigFileName = "config.cue"
	// LocalConfigFileName is the project-local config file name.
	LocalConfigFileName = "handlerpack.cue"
	// EnvPrefix prefixes environment overrides, e.g. HANDLERPACK_LOG_LEVEL.
	EnvPrefix = "HANDLERPACK"

	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the handlerpack configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ResolvePath returns the settings file Load would read, or "" when none
// exists and defaults apply. An explicit ConfigFilePath is returned even when
// it does not exist; Load reports that case.
func ResolvePath(opts LoadOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if p := filepath.Join(cfgDir, ConfigFileName); fileExists(p) {
		return p, nil
	}
	if p := filepath.Join(opts.BaseDir, LocalConfigFileName); fileExists(p) {
		return p, nil
	}
	return "", nil
}

// loadWithOptions performs option-driven config loading and also returns the
// file it read ("" for defaults).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	path, err := ResolvePath(opts)
	if err != nil {
		return nil, "", err
	}

	if opts.ConfigFilePath != "" && !fileExists(opts.ConfigFilePath) {
		return nil, "", issue.NewErrorContext().
			WithOperation("load settings").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Use 'handlerpack config show' to see the default settings").
			WithIssue(issue.SettingsLoadFailedId).
			Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
			BuildError()
	}

	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load settings").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the schema shown by 'handlerpack config show'").
				WithIssue(issue.SettingsLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides bypass the CUE schema, so validate the result.
	if ok, errs := cfg.IsValid(); !ok {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate settings").
			WithResource(path).
			WithSuggestion("Check HANDLERPACK_* environment variables for typos").
			WithIssue(issue.SettingsLoadFailedId).
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, path, nil
}

// newViper returns a Viper instance holding the defaults and reading
// HANDLERPACK_<SECTION>_<KEY> environment overrides.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("layout.handler_config", defaults.Layout.HandlerConfigName)
	v.SetDefault("layout.modules_dir", defaults.Layout.ModulesDirName)
	v.SetDefault("layout.module_config", defaults.Layout.ModuleConfigName)
	v.SetDefault("layout.fallback_entries", defaults.Layout.FallbackEntries)
	v.SetDefault("layout.implicit_module", defaults.Layout.ImplicitModuleName)
	v.SetDefault("layout.target_field", defaults.Layout.TargetField)
	v.SetDefault("output.generated", defaults.Output.Generated)
	v.SetDefault("output.backup", defaults.Output.Backup)
	v.SetDefault("output.marker", defaults.Output.Marker)
	v.SetDefault("transform.target", defaults.Transform.Target)
	v.SetDefault("transform.format", defaults.Transform.Format)
	v.SetDefault("transform.extensions", defaults.Transform.Extensions)
	v.SetDefault("transform.ignore", defaults.Transform.Ignore)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", string(defaults.Log.Format))
	return v
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against #Config and merges
// its contents into Viper. Fields are optional, so validation is not concrete.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// formatCUEError flattens CUE errors into "<file>: <path>: <message>" lines.
func formatCUEError(err error, filePath string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		path := strings.Join(cueerrors.Path(e), ".")
		msg := e.Error()
		if path != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
			msg = path + ": " + msg
		}
		lines = append(lines, msg)
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default settings to {ConfigDir}/config.cue
// unless the file already exists. It reports the path and whether it wrote it.
func CreateDefaultConfig(opts LoadOptions) (string, bool, error) {
	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, true, nil
}

// GenerateCUE renders cfg as a CUE settings file.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// handlerpack settings\n")
	sb.WriteString("// Environment variables HANDLERPACK_<SECTION>_<KEY> override these values.\n\n")

	sb.WriteString("layout: {\n")
	fmt.Fprintf(&sb, "\thandler_config:   %q\n", cfg.Layout.HandlerConfigName)
	fmt.Fprintf(&sb, "\tmodules_dir:      %q\n", cfg.Layout.ModulesDirName)
	fmt.Fprintf(&sb, "\tmodule_config:    %q\n", cfg.Layout.ModuleConfigName)
	fmt.Fprintf(&sb, "\tfallback_entries: %s\n", cueList(cfg.Layout.FallbackEntries))
	fmt.Fprintf(&sb, "\timplicit_module:  %q\n", cfg.Layout.ImplicitModuleName)
	fmt.Fprintf(&sb, "\ttarget_field:     %q\n", cfg.Layout.TargetField)
	sb.WriteString("}\n")

	sb.WriteString("\noutput: {\n")
	fmt.Fprintf(&sb, "\tgenerated: %q\n", cfg.Output.Generated)
	fmt.Fprintf(&sb, "\tbackup:    %q\n", cfg.Output.Backup)
	fmt.Fprintf(&sb, "\tmarker:    %q\n", cfg.Output.Marker)
	sb.WriteString("}\n")

	sb.WriteString("\ntransform: {\n")
	fmt.Fprintf(&sb, "\ttarget:     %q\n", cfg.Transform.Target)
	fmt.Fprintf(&sb, "\tformat:     %q\n", cfg.Transform.Format)
	fmt.Fprintf(&sb, "\textensions: %s\n", cueList(cfg.Transform.Extensions))
	fmt.Fprintf(&sb, "\tignore:     %s\n", cueList(cfg.Transform.Ignore))
	sb.WriteString("}\n")

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel:  %q\n", cfg.Log.Level)
	fmt.Fprintf(&sb, "\tformat: %q\n", string(cfg.Log.Format))
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
