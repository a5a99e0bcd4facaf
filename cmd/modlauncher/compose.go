package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/google/renameio/v2"
	"github.com/google/subcommands"

	"github.com/tie/modlauncher/launch"
)

type ComposeCommand struct {
	Build      int
	OutputPath string
}

func (*ComposeCommand) Name() string     { return "compose" }
func (*ComposeCommand) Synopsis() string { return "compose the version profile of a build" }
func (*ComposeCommand) Usage() string {
	return `Usage: modlauncher compose [-build id] [-o path]

	Resolves the loader profile of the build against its inherited
	profiles and writes the result as JSON. Mods are not downloaded.

Flags:
`
}

func (cmd *ComposeCommand) SetFlags(f *flag.FlagSet) {
	f.IntVar(&cmd.Build, "build", 0, "build id (defaults to the configured build)")
	f.StringVar(&cmd.OutputPath, "o", "-", "output path")
}

func (cmd *ComposeCommand) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg, ok := loadConfig()
	if !ok {
		return subcommands.ExitFailure
	}
	id, ok := buildID(cmd.Build, cfg)
	if !ok {
		return subcommands.ExitUsageError
	}

	client, err := newAPIClient(newHTTPClient(cfg), cfg)
	if err != nil {
		log.Printf("api client: %+v", err)
		return subcommands.ExitFailure
	}

	catalog, err := client.FetchVersionCatalog(ctx)
	if err != nil {
		log.Printf("load version catalog: %+v", err)
		return subcommands.ExitFailure
	}
	m, err := client.FetchBuildManifest(ctx, id)
	if err != nil {
		log.Printf("load launch manifest of build %d: %+v", id, err)
		return subcommands.ExitFailure
	}

	pl := launch.Prelauncher{Transport: client}
	d, err := pl.Compose(ctx, catalog, m)
	if err != nil {
		log.Printf("compose: %+v", err)
		return subcommands.ExitFailure
	}

	outSrc, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		log.Printf("encode %q: %+v", d.ID, err)
		return subcommands.ExitFailure
	}
	outSrc = append(outSrc, '\n')

	fpath := cmd.OutputPath
	if fpath == "-" {
		if _, err := os.Stdout.Write(outSrc); err != nil {
			log.Printf("write stdout: %+v", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	if err := renameio.WriteFile(fpath, outSrc, 0644); err != nil {
		log.Printf("write file %q: %+v", fpath, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
