package config

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// StoreKey is the top-level key holding settings in a JSON settings store.
const StoreKey = "config"

// storeFields maps JSON store keys to setting keys.
var storeFields = []struct {
	json string
	key  string
}{
	{"phpPath", "interpreter_path"},
	{"gameFolderPath", "game_folder_path"},
	{"savegameFolderPath", "savegame_folder_path"},
	{"parserToolPath", "parser_tool_path"},
	{"viewerToolPath", "viewer_tool_path"},
	{"viewerHost", "viewer_host"},
	{"viewerPort", "viewer_port"},
	{"language", "language"},
}

// ImportStore reads a JSON settings store file such as settings.json.
func ImportStore(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading settings store %s: %w", path, err)
	}
	return ParseStore(path, data)
}

// ParseStore decodes the settings blob of a JSON store. A store without
// the blob yields Default().
func ParseStore(path string, data []byte) (Config, error) {
	if !gjson.ValidBytes(data) {
		return Config{}, &ParseError{Path: path, Reason: "invalid JSON"}
	}

	blob := gjson.GetBytes(data, StoreKey)
	if !blob.Exists() {
		return Default(), nil
	}
	if !blob.IsObject() {
		return Config{}, &ParseError{Path: path, Reason: fmt.Sprintf("%q is not an object", StoreKey)}
	}

	raw := fileConfig{
		Config: Config{
			InterpreterPath:    blob.Get("phpPath").String(),
			GameFolderPath:     blob.Get("gameFolderPath").String(),
			SavegameFolderPath: blob.Get("savegameFolderPath").String(),
			ParserToolPath:     blob.Get("parserToolPath").String(),
			ViewerToolPath:     blob.Get("viewerToolPath").String(),
			ViewerHost:         blob.Get("viewerHost").String(),
			ViewerPort:         int(blob.Get("viewerPort").Int()),
			Language:           blob.Get("language").String(),
		},
		ViewerURL: blob.Get("viewerUrl").String(),
	}
	if raw.ViewerURL != "" && raw.ViewerHost == "" {
		raw.ViewerHost, raw.ViewerPort = splitViewerURL(raw.ViewerURL)
	}

	cfg := Default()
	cfg.merge(raw.Config)
	return cfg, nil
}

// ExportStore renders cfg in the JSON settings store shape. If base is a
// non-empty store document, its other keys are preserved.
func ExportStore(base []byte, cfg Config) ([]byte, error) {
	out := base
	if len(out) == 0 {
		out = []byte("{}")
	}
	if !gjson.ValidBytes(out) {
		return nil, &ParseError{Path: "<store>", Reason: "invalid JSON"}
	}

	values := map[string]any{
		"interpreter_path":     cfg.InterpreterPath,
		"game_folder_path":     cfg.GameFolderPath,
		"savegame_folder_path": cfg.SavegameFolderPath,
		"parser_tool_path":     cfg.ParserToolPath,
		"viewer_tool_path":     cfg.ViewerToolPath,
		"viewer_host":          cfg.ViewerHost,
		"viewer_port":          cfg.ViewerPort,
		"language":             cfg.Language,
	}

	var err error
	for _, f := range storeFields {
		out, err = sjson.SetBytes(out, StoreKey+"."+f.json, values[f.key])
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", f.json, err)
		}
	}
	out, err = sjson.DeleteBytes(out, StoreKey+".viewerUrl")
	if err != nil {
		return nil, err
	}
	return out, nil
}
