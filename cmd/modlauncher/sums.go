package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/subcommands"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/tie/modlauncher/fetcher"
)

type SumsCommand struct {
	OutputPath string
}

func (*SumsCommand) Name() string     { return "sums" }
func (*SumsCommand) Synopsis() string { return "write checksums of cached mods" }
func (*SumsCommand) Usage() string {
	return `Usage: modlauncher sums [-o sums.hcl]

	Writes an "entry" block for every mod recorded in the cache index.
	Each block holds the source URL, the size and the checksums of the
	cached file.

Flags:
`
}

func (cmd *SumsCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.OutputPath, "o", "sums.hcl", "output path")
}

func (cmd *SumsCommand) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg, ok := loadConfig()
	if !ok {
		return subcommands.ExitFailure
	}

	p, err := openPipeline(cfg, false)
	if err != nil {
		log.Printf("open pipeline: %+v", err)
		return subcommands.ExitFailure
	}
	defer p.Close()

	entries, err := p.Cache.Entries()
	if err != nil {
		log.Printf("read index: %+v", err)
		return subcommands.ExitFailure
	}

	sumsFile := hclwrite.NewEmptyFile()
	sb := SumsBuilder{
		Body: sumsFile.Body(),
	}
	for _, e := range entries {
		sb.Add(e)
	}

	fpath := cmd.OutputPath
	if err := renameio.WriteFile(fpath, sumsFile.Bytes(), 0644); err != nil {
		log.Printf("write file %q: %+v", fpath, err)
		return subcommands.ExitFailure
	}
	log.Printf("wrote %d entries to %q", sb.Length, fpath)
	return subcommands.ExitSuccess
}

type SumsBuilder struct {
	*hclwrite.Body
	Length int
}

func (b *SumsBuilder) Add(e fetcher.Entry) {
	if b.Length > 0 {
		b.AppendNewline()
	}
	b.Length++

	block := b.AppendNewBlock("entry", []string{e.Key})
	body := block.Body()

	body.SetAttributeValue("url", cty.StringVal(e.URL))
	body.SetAttributeValue("size", cty.NumberIntVal(e.Size))
	if !e.Fetched.IsZero() {
		fetched := e.Fetched.UTC().Format(time.RFC3339)
		body.SetAttributeValue("fetched", cty.StringVal(fetched))
	}

	if len(e.Sums) <= 0 {
		return
	}
	vals := make([]cty.Value, len(e.Sums))
	for i, sum := range e.Sums {
		vals[i] = cty.StringVal(sum)
	}
	body.SetAttributeValue("sums", cty.ListVal(vals))
}
