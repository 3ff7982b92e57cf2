// Package config loads the host's YAML configuration: the shell to spawn,
// the respawn shell template, default terminal size, trace log path, and
// the command/insert-mode key bindings. A missing config file is not an
// error; it just means the built-in defaults apply.
package config

import (
	"os"
	"path/filepath"

	"github.com/google/shlex"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"vpty/internal/hosterr"
)

// Keys holds the single-byte command-mode and insert-mode key bindings.
type Keys struct {
	Quit         byte `yaml:"quit"`
	Insert       byte `yaml:"insert"`
	Respawn      byte `yaml:"respawn"`
	EscapeInsert byte `yaml:"escape_insert"`
}

// Config is the host's full configuration.
type Config struct {
	Shell        string   `yaml:"shell"`
	ShellArgs    []string `yaml:"shell_args"`
	RespawnShell string   `yaml:"respawn_shell"`
	Cols         int      `yaml:"cols"`
	Rows         int      `yaml:"rows"`
	LogPath      string   `yaml:"log_path"`
	Keys         Keys     `yaml:"keys"`
}

// Default returns the built-in configuration, used when no config file is
// present and as the base that a loaded file's zero fields fall back to.
// Cols and Rows are left at 0 ("unset") here; LoadFrom resolves them to
// the controlling terminal's real size, falling back to 80x24.
func Default() *Config {
	return &Config{
		Shell:        "bash",
		ShellArgs:    []string{"-l"},
		RespawnShell: "sh",
		LogPath:      "./log.txt",
		Keys: Keys{
			Quit:         'q',
			Insert:       'i',
			Respawn:      'r',
			EscapeInsert: 0x1D,
		},
	}
}

// ConfigDir returns the host's configuration directory (~/.config/vpty/).
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".vpty")
	}
	return filepath.Join(home, ".config", "vpty")
}

// Load reads the config from ~/.config/vpty/config.yaml.
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(ConfigDir(), "config.yaml"))
}

// LoadFrom reads the config from path. If the file does not exist, it
// returns Default() with no error; a malformed file is a ConfigFailure.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			resolveSize(cfg)
			return cfg, nil
		}
		return nil, hosterr.ConfigFailure("read config", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, hosterr.ConfigFailure("parse config", err)
	}
	resolveSize(cfg)
	return cfg, nil
}

// resolveSize fills in Cols/Rows left unset by the config file from the
// controlling terminal's real size, falling back to 80x24 if stdout isn't
// a terminal or the ioctl fails.
func resolveSize(cfg *Config) {
	if cfg.Cols > 0 && cfg.Rows > 0 {
		return
	}
	if cols, rows, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		if cfg.Cols <= 0 {
			cfg.Cols = cols
		}
		if cfg.Rows <= 0 {
			cfg.Rows = rows
		}
	}
	if cfg.Cols <= 0 {
		cfg.Cols = 80
	}
	if cfg.Rows <= 0 {
		cfg.Rows = 24
	}
}

// RespawnArgv builds the argv for the respawn shell invocation:
// `<shell-tokens...> -c "cd <dir>; bash"`, where <shell-tokens> is the
// full, re-tokenized RespawnShell template — e.g. "sh -l" or a wrapper
// script with its own flags, all of them preserved and passed through.
func (c *Config) RespawnArgv(dir string) ([]string, error) {
	shell := c.RespawnShell
	if shell == "" {
		shell = "sh"
	}
	fields, err := shlex.Split(shell)
	if err != nil {
		return nil, hosterr.ConfigFailure("parse respawn_shell", err)
	}
	if len(fields) == 0 {
		fields = []string{"sh"}
	}

	return append(fields, "-c", "cd "+dir+"; bash"), nil
}
