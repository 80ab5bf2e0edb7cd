package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" default:"1" help:"Play in the terminal"`
	Sim      SimCmd           `cmd:"" help:"Run headless games between bots"`
	HintsCmd HintsCmd         `cmd:"" name:"hints" help:"Deal the first board for a seed and list its sets"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("setgame"),
		kong.Description("Real-time Set card game for the terminal"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
