package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/subcommands"

	"github.com/tie/modlauncher/launch"
)

type LaunchCommand struct {
	Build     int
	Username  string
	JavaPath  string
	MaxMemory int
}

func (*LaunchCommand) Name() string     { return "launch" }
func (*LaunchCommand) Synopsis() string { return "prepare a build for launching" }
func (*LaunchCommand) Usage() string {
	return `Usage: modlauncher launch [-build id] [-user name] [-java path] [-memory mb]

	Fetches the launch manifest of the build, installs its mods into the
	game directory and composes the version profile. The profile and the
	launch parameters are written to versions/<id> in the game directory.

Flags:
`
}

func (cmd *LaunchCommand) SetFlags(f *flag.FlagSet) {
	f.IntVar(&cmd.Build, "build", 0, "build id (defaults to the configured build)")
	f.StringVar(&cmd.Username, "user", "Player", "player name")
	f.StringVar(&cmd.JavaPath, "java", "", "java executable path")
	f.IntVar(&cmd.MaxMemory, "memory", 0, "maximum heap size in MiB")
}

func (cmd *LaunchCommand) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg, ok := loadConfig()
	if !ok {
		return subcommands.ExitFailure
	}
	id, ok := buildID(cmd.Build, cfg)
	if !ok {
		return subcommands.ExitUsageError
	}

	p, err := openPipeline(cfg, false)
	if err != nil {
		log.Printf("open pipeline: %+v", err)
		return subcommands.ExitFailure
	}
	defer p.Close()

	pl := launch.Prelauncher{
		Transport: p.Client,
		Resolver:  p.Resolver,
		Launcher:  &launch.Exporter{Dir: cfg.GameDir},
	}
	params := launch.Parameters{
		Username:    cmd.Username,
		JavaPath:    cmd.JavaPath,
		MaxMemoryMB: cmd.MaxMemory,
		GameDir:     cfg.GameDir,
	}
	if err := pl.Launch(ctx, id, params, p.Progress); err != nil {
		log.Printf("launch build %d: %+v", id, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
