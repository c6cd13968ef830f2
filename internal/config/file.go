package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Server holds process-level settings that are read once at startup.
type Server struct {
	Addr      string `toml:"addr"`
	CameraID  int    `toml:"camera_id"`
	DataDir   string `toml:"data_dir"`
	PluginDir string `toml:"plugin_dir"`
	StaticDir string `toml:"static_dir"`
	LogLevel  string `toml:"log_level"`
	// Window opens the desktop renderer; Tray shows the system tray menu.
	// Both need the main thread, so Window wins when both are set.
	Window bool `toml:"window"`
	Tray   bool `toml:"tray"`
}

// File is the on-disk configuration layout.
type File struct {
	Server Server `toml:"server"`
	Tuning Config `toml:"tuning"`
}

// DefaultFile returns the configuration used when no file exists.
func DefaultFile() File {
	return File{
		Server: Server{
			Addr:     ":8080",
			LogLevel: "info",
		},
		Tuning: Default(),
	}
}

// Load reads a TOML configuration file. Missing keys keep their defaults and
// a missing file yields DefaultFile.
func Load(path string) (File, error) {
	f := DefaultFile()
	if path == "" {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &f); err != nil {
		return DefaultFile(), fmt.Errorf("parse config %s: %w", path, err)
	}
	f.Tuning.Normalize()
	return f, nil
}

// Encode renders the configuration as TOML.
func (f File) Encode() ([]byte, error) {
	return toml.Marshal(f)
}

// EncodeTuning renders only the tunables, for persistence.
func EncodeTuning(c Config) ([]byte, error) {
	return toml.Marshal(c)
}

// DecodeTuning parses tunables previously written by EncodeTuning. Keys
// absent from data keep their defaults.
func DecodeTuning(data []byte) (Config, error) {
	c := Default()
	if err := toml.Unmarshal(data, &c); err != nil {
		return Default(), fmt.Errorf("decode tuning: %w", err)
	}
	c.Normalize()
	return c, nil
}
