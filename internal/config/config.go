package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// File represents the optional pdd configuration file.
type File struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Theme    ThemeConfig    `toml:"theme"`
}

// DefaultsConfig holds persistent defaults. Nil fields were not set in the
// file; operands and flags always win over them.
type DefaultsConfig struct {
	BlockSize *string `toml:"bs"`
	Sync      *bool   `toml:"sync"`
	Direct    *bool   `toml:"direct"`
	Fsync     *bool   `toml:"fsync"`
	Status    *string `toml:"status"`
	Interval  *string `toml:"interval"`
	BWLimit   *string `toml:"bwlimit"`
	TUI       *bool   `toml:"tui"`
}

// ThemeConfig holds optional color overrides.
type ThemeConfig struct {
	Green  *string `toml:"green"`
	Blue   *string `toml:"blue"`
	Yellow *string `toml:"yellow"`
	Red    *string `toml:"red"`
	Muted  *string `toml:"muted"`
	Bright *string `toml:"bright"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pdd", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero File (no
// error) if the file does not exist.
func Load() (File, error) {
	return LoadFile(Path())
}

// LoadFile reads a config file from path. A missing file or empty path is not
// an error.
func LoadFile(path string) (File, error) {
	if path == "" {
		return File{}, nil
	}

	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{}, nil
		}
		return File{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return f, &Error{Field: undecoded[0].String(), Reason: "unknown config key"}
	}
	return f, nil
}
