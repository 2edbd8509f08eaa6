// Package config defines the command-line surface of the helmsman binary.
package config

import "github.com/veldra/helmsman/internal/cmd"

// LogOptions are shared by every command.
type LogOptions struct {
	Level string `help:"Log level (trace, debug, info, warn, error)" default:"info" env:"HELMSMAN_LOG_LEVEL"`
	File  string `help:"Log file path; console only when empty" env:"HELMSMAN_LOG_FILE"`
}

// CLI is the kong root.
type CLI struct {
	ConfigFile string     `name:"config" help:"Path to a configuration file" env:"HELMSMAN_CONFIG"`
	Log        LogOptions `embed:"" prefix:"log."`

	Run       cmd.Run           `cmd:"" default:"withargs" help:"Run the interactive input loop"`
	ConfigCmd cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration utilities"`
}
