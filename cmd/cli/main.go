package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/sessionkit/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Decode  commands.DecodeCmd  `cmd:"" help:"Decode a token and print its claims"`
		Session commands.SessionCmd `cmd:"" help:"Manage the local session"`
		Debug   bool                `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
