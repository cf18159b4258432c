package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// CLI represents the main CLI structure
type CLI struct {
	Config   string `env:"LAUNCHPAD_CONFIG" help:"Path to JSON config file"`
	LogLevel string `default:"info" env:"LAUNCHPAD_LOG_LEVEL" help:"Log level"`

	Serve ServeCmd `cmd:"" default:"1" help:"Run the agent HTTP server (default)"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("launchpad"),
		kong.Description("Tool-using agent served over HTTP"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	err := ctx.Run(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
