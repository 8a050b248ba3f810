package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Default values.
const (
	DefaultInterpreter = "php"
	DefaultViewerHost  = "localhost"
	DefaultViewerPort  = 9494
	LanguageAuto       = "auto"
)

// Tool names that have a script setting.
const (
	ToolParser = "parser"
	ToolViewer = "viewer"
)

// Supported lists the interface languages, in matching preference order.
var Supported = []language.Tag{language.English, language.French, language.German}

var matcher = language.NewMatcher(Supported)

// Config is the per-installation settings record.
type Config struct {
	// InterpreterPath is the executable that runs tool scripts.
	InterpreterPath string `yaml:"interpreter_path" toml:"interpreter_path" json:"interpreter_path"`

	GameFolderPath     string `yaml:"game_folder_path" toml:"game_folder_path" json:"game_folder_path"`
	SavegameFolderPath string `yaml:"savegame_folder_path" toml:"savegame_folder_path" json:"savegame_folder_path"`

	// ParserToolPath and ViewerToolPath are the scripts passed to the
	// interpreter for each tool.
	ParserToolPath string `yaml:"parser_tool_path" toml:"parser_tool_path" json:"parser_tool_path"`
	ViewerToolPath string `yaml:"viewer_tool_path" toml:"viewer_tool_path" json:"viewer_tool_path"`

	ViewerHost string `yaml:"viewer_host" toml:"viewer_host" json:"viewer_host"`
	ViewerPort int    `yaml:"viewer_port" toml:"viewer_port" json:"viewer_port"`

	// Language is "auto" or a BCP-47 tag.
	Language string `yaml:"language" toml:"language" json:"language"`
}

// fileConfig is the on-disk shape, including keys that only older files carry.
type fileConfig struct {
	Config `yaml:",inline"`

	ViewerURL string `yaml:"viewer_url,omitempty" toml:"viewer_url,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		InterpreterPath: DefaultInterpreter,
		ViewerHost:      DefaultViewerHost,
		ViewerPort:      DefaultViewerPort,
		Language:        LanguageAuto,
	}
}

// DefaultPath returns the config file location under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "toolshell", "config.yaml"), nil
}

// Load reads the config file at path. A missing file yields Default().
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse decodes data in the format implied by path and merges it over the
// defaults.
func Parse(path string, data []byte) (Config, error) {
	var raw fileConfig
	if err := decode(path, data, &raw); err != nil {
		return Config{}, err
	}

	if raw.ViewerURL != "" && raw.ViewerHost == "" {
		raw.ViewerHost, raw.ViewerPort = splitViewerURL(raw.ViewerURL)
	}

	cfg := Default()
	cfg.merge(raw.Config)
	return cfg, nil
}

// Save writes cfg to path atomically, creating the parent directory.
func Save(path string, cfg Config) error {
	data, err := encode(path, cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// merge copies every non-zero field of other into c.
func (c *Config) merge(other Config) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&c.InterpreterPath, other.InterpreterPath)
	setString(&c.GameFolderPath, other.GameFolderPath)
	setString(&c.SavegameFolderPath, other.SavegameFolderPath)
	setString(&c.ParserToolPath, other.ParserToolPath)
	setString(&c.ViewerToolPath, other.ViewerToolPath)
	setString(&c.ViewerHost, other.ViewerHost)
	setString(&c.Language, other.Language)
	if other.ViewerPort != 0 {
		c.ViewerPort = other.ViewerPort
	}
}

// Validate checks the viewer port and language.
func (c Config) Validate() error {
	var errs []error
	if c.ViewerPort < 1 || c.ViewerPort > 65535 {
		errs = append(errs, &ValidationError{Key: "viewer_port", Message: "must be between 1 and 65535", Value: c.ViewerPort})
	}
	if c.Language != LanguageAuto {
		if _, err := language.Parse(c.Language); err != nil {
			errs = append(errs, &ValidationError{Key: "language", Message: "must be \"auto\" or a BCP-47 tag", Value: c.Language})
		}
	}
	return errors.Join(errs...)
}

// ScriptFor returns the script path configured for tool.
func (c Config) ScriptFor(tool string) (string, error) {
	var script string
	switch tool {
	case ToolParser:
		script = c.ParserToolPath
	case ToolViewer:
		script = c.ViewerToolPath
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, tool)
	}
	if script == "" {
		return "", fmt.Errorf("%w: %s", ErrToolNotConfigured, tool)
	}
	return script, nil
}

// ViewerURL returns the address the viewer tool serves on.
func (c Config) ViewerURL() string {
	return "http://" + net.JoinHostPort(c.ViewerHost, strconv.Itoa(c.ViewerPort))
}

// ResolveLanguage returns the closest supported interface language. "auto"
// consults LC_ALL, LC_MESSAGES and LANG in that order.
func (c Config) ResolveLanguage() language.Tag {
	want := c.Language
	if want == LanguageAuto || want == "" {
		want = systemLocale()
	}
	tag, err := language.Parse(want)
	if err != nil {
		return language.English
	}
	_, idx, _ := matcher.Match(tag)
	return Supported[idx]
}

// systemLocale returns the first POSIX locale set in the environment,
// reduced to a BCP-47 shape ("fr_FR.UTF-8" becomes "fr-FR").
func systemLocale() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(key)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		return strings.ReplaceAll(v, "_", "-")
	}
	return ""
}

// Keys lists the setting keys accepted by Set, in file order.
func Keys() []string {
	return []string{
		"interpreter_path",
		"game_folder_path",
		"savegame_folder_path",
		"parser_tool_path",
		"viewer_tool_path",
		"viewer_host",
		"viewer_port",
		"language",
	}
}

// Set updates one setting by key. The config is left unchanged if the
// new value does not validate.
func Set(cfg *Config, key, value string) error {
	next := *cfg
	switch key {
	case "interpreter_path":
		next.InterpreterPath = value
	case "game_folder_path":
		next.GameFolderPath = value
	case "savegame_folder_path":
		next.SavegameFolderPath = value
	case "parser_tool_path":
		next.ParserToolPath = value
	case "viewer_tool_path":
		next.ViewerToolPath = value
	case "viewer_host":
		next.ViewerHost = value
	case "viewer_port":
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return &ValidationError{Key: key, Message: "must be an integer", Value: value}
		}
		next.ViewerPort = port
	case "language":
		next.Language = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*cfg = next
	return nil
}

func decode(path string, data []byte, v *fileConfig) error {
	switch format(path) {
	case "yaml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return &ParseError{Path: path, Reason: err.Error(), Err: err}
		}
	case "toml":
		if err := toml.Unmarshal(data, v); err != nil {
			perr := &ParseError{Path: path, Reason: err.Error(), Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				perr.Line, perr.Column = derr.Position()
			}
			return perr
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return nil
}

func encode(path string, cfg Config) ([]byte, error) {
	switch format(path) {
	case "yaml":
		return yaml.Marshal(cfg)
	case "toml":
		return toml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return ""
	}
}
