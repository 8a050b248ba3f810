// Package config loads, validates, and persists the toolshell settings.
//
// Settings are a single flat record: the interpreter used to run helper
// tools, the script path of each tool, the game folders the tools read,
// the viewer address, and the interface language.
//
// # File formats
//
// The format is chosen by file extension:
//
//	config.yaml, config.yml  YAML (gopkg.in/yaml.v3)
//	config.toml              TOML (github.com/pelletier/go-toml/v2)
//
// A missing file yields Default(). Values present in the file are merged
// over the defaults, so a partial file only overrides what it names.
//
// # Legacy settings
//
// Older installations stored a single viewer_url instead of a host and
// port. Load splits it on read. ImportStore reads the JSON settings store
// written by earlier desktop builds, and ExportStore produces that shape.
//
// # Live reload
//
// Watcher observes the config file and reports each successfully parsed
// revision:
//
//	w, err := config.NewWatcher(path,
//		config.OnChange(func(cfg config.Config) { ... }),
//		config.OnError(func(err error) { ... }),
//	)
//	defer w.Close()
package config
