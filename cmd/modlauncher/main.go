package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/google/subcommands"

	"github.com/tie/modlauncher/config"
)

const programName = "modlauncher"

var configPath = config.DefaultPath

func init() {
	log.SetFlags(0)
}

func main() {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.Bool("h", false, "alias for help")
	fs.Bool("help", false, "print usage")
	fs.StringVar(&configPath, "config", config.DefaultPath, "configuration file path")

	cdr := subcommands.NewCommander(fs, programName)
	cdr.Register(&LaunchCommand{}, "")
	cdr.Register(&ModsCommand{}, "")
	cdr.Register(&ComposeCommand{}, "")
	cdr.Register(&SumsCommand{}, "")
	cdr.Register(&CleanCommand{}, "")
	cdr.Register(&FormatCommand{}, "")
	cdr.Register(cdr.HelpCommand(), "help")
	cdr.Register(cdr.FlagsCommand(), "help")
	cdr.Register(cdr.CommandsCommand(), "help")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := cdr.Execute(ctx)
	stop()
	switch status {
	case subcommands.ExitFailure:
		os.Exit(1)
	case subcommands.ExitUsageError:
		os.Exit(2)
	}
}
