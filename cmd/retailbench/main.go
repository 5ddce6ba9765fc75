// Command retailbench loads the abt_buy, cikm16, esci and wdc corpora into the
// six canonical tables (items, queries, query_item_labels, item_item_pairs,
// entities, item_entity).
//
// Subcommands:
//
//   - load: run the selected dataset adapters against one store
//   - convert-wdc: turn raw WDC Products JSON files into the CSV layout the
//     wdc adapter reads
//   - sniff: show how a source file parses and which columns the adapters
//     would pick
//
// Settings come from an optional YAML file (--config), .env and flags, with
// flags taking precedence.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
