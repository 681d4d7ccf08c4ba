package cmd

// CLI is the root command line of dynbind.
type CLI struct {
	ConfigFile string    `name:"config" help:"Path to a JSON, YAML or TOML configuration file" env:"DYNBIND_CONFIG"`
	Log        LogConfig `embed:"" prefix:"log."`
	Quiet      bool      `help:"Suppress progress and summary lines" short:"q" env:"DYNBIND_QUIET"`

	Generate Generate      `cmd:"" default:"withargs" help:"Scan source directories and write the mapper header"`
	Config   ConfigCommand `cmd:"" help:"Configuration helpers"`
	Version  Version       `cmd:"" help:"Print version information"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `help:"Log level" enum:"trace,debug,info,warn,error" default:"warn" env:"DYNBIND_LOG_LEVEL"`
	File  string `help:"Also write logs to this file" env:"DYNBIND_LOG_FILE"`
}
