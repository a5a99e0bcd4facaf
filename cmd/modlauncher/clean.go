package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/google/subcommands"
)

type CleanCommand struct {
}

func (*CleanCommand) Name() string     { return "clean" }
func (*CleanCommand) Synopsis() string { return "remove cached files" }
func (*CleanCommand) Usage() string {
	return `Usage: modlauncher clean

	Removes the mod cache and its index.
`
}

func (cmd *CleanCommand) SetFlags(f *flag.FlagSet) {
}

func (cmd *CleanCommand) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg, ok := loadConfig()
	if !ok {
		return subcommands.ExitFailure
	}
	path := cfg.CacheDir
	if err := os.RemoveAll(path); err != nil {
		log.Printf("clean %q: %+v", path, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
