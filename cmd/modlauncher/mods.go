package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/subcommands"
)

type ModsCommand struct {
	Build        int
	DisableCache bool
}

func (*ModsCommand) Name() string     { return "mods" }
func (*ModsCommand) Synopsis() string { return "install the mods of a build" }
func (*ModsCommand) Usage() string {
	return `Usage: modlauncher mods [-build id] [-nocache]

	Downloads the selected mods of the build and installs them into the
	mods directory. Useful for pre-filling the cache and checking download
	availability.

Flags:
`
}

func (cmd *ModsCommand) SetFlags(fs *flag.FlagSet) {
	fs.IntVar(&cmd.Build, "build", 0, "build id (defaults to the configured build)")
	fs.BoolVar(&cmd.DisableCache, "nocache", false, "disable filesystem cache")
}

func (cmd *ModsCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg, ok := loadConfig()
	if !ok {
		return subcommands.ExitFailure
	}
	id, ok := buildID(cmd.Build, cfg)
	if !ok {
		return subcommands.ExitUsageError
	}

	p, err := openPipeline(cfg, cmd.DisableCache)
	if err != nil {
		log.Printf("open pipeline: %+v", err)
		return subcommands.ExitFailure
	}
	defer p.Close()

	m, err := p.Client.FetchBuildManifest(ctx, id)
	if err != nil {
		log.Printf("load launch manifest of build %d: %+v", id, err)
		return subcommands.ExitFailure
	}
	if err := p.Resolver.Retrieve(ctx, m, p.Progress); err != nil {
		log.Printf("retrieve mods: %+v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
