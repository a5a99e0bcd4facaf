package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/diff"

	"github.com/google/renameio/v2"
	"github.com/google/subcommands"

	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/tie/modlauncher/config"
)

type FormatCommand struct {
	DisableCheck bool
	Overwrite    bool
	ContextSize  int
}

func (*FormatCommand) Name() string     { return "fmt" }
func (*FormatCommand) Synopsis() string { return "format configuration files" }
func (*FormatCommand) Usage() string {
	return `Usage: modlauncher fmt [-c int] [-w] [-nocheck] [config paths]

	Formats configuration files using standard syntax. It can either write
	files in-place or generate unified diff with specified context size.

Flags:
`
}

func (cmd *FormatCommand) SetFlags(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.DisableCheck, "nocheck", false, "disable diagnostics")
	fs.BoolVar(&cmd.Overwrite, "w", false, "write result to (source) file instead of stdout")
	fs.IntVar(&cmd.ContextSize, "c", 3, "output n lines of diff context")
}

func (cmd *FormatCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	parser := hclparse.NewParser()
	_, color := fdinfo(int(os.Stdout.Fd()))

	paths := fs.Args()
	if len(paths) <= 0 {
		paths = []string{configPath}
	} else {
		sort.Strings(paths)
	}

	seen := make(map[string]bool, len(paths))
	for _, fpath := range paths {
		if seen[fpath] {
			continue
		}
		seen[fpath] = true
		src, err := os.ReadFile(fpath)
		if err != nil {
			log.Printf("read config %q: %+v", fpath, err)
			return subcommands.ExitFailure
		}

		if !cmd.DisableCheck {
			_, diags := config.Parse(parser, src, fpath)
			writeDiags(parser, diags)
			if diags.HasErrors() {
				return subcommands.ExitFailure
			}
		}

		outSrc := config.Format(src)
		if bytes.Equal(src, outSrc) {
			continue
		}
		if !cmd.Overwrite {
			if err := writeDiff(ctx, os.Stdout, fpath, src, outSrc, cmd.ContextSize, color); err != nil {
				log.Printf("write diff: %+v", err)
				return subcommands.ExitFailure
			}
			continue
		}
		if err := renameio.WriteFile(fpath, outSrc, 0644); err != nil {
			log.Printf("write file %q: %+v", fpath, err)
			return subcommands.ExitFailure
		}
	}

	return subcommands.ExitSuccess
}

func writeDiff(ctx context.Context, w io.Writer, fpath string, src, outSrc []byte, contextSize int, color bool) error {
	fpath = filepath.ToSlash(fpath)
	aname := fmt.Sprintf("a/%s", fpath)
	bname := fmt.Sprintf("b/%s", fpath)
	opts := []diff.WriteOpt{diff.Names(aname, bname)}
	if color {
		opts = append(opts, diff.TerminalColor())
	}
	a, b := splitLines(src), splitLines(outSrc)
	pair := diff.Bytes(a, b)
	edit := diff.Myers(ctx, pair)
	if contextSize >= 0 {
		edit = edit.WithContextSize(contextSize)
	}
	_, err := edit.WriteUnified(w, pair, opts...)
	return err
}

func splitLines(b []byte) [][]byte {
	return bytes.Split(b, []byte("\n"))
}
