// Command virel-audit is a tool for viewing and analyzing VIREL audit logs.
//
// Audit logs are CBOR event streams written by virel-gated when the
// audit_log configuration option is set.
//
// Usage:
//
//	virel-audit <command> [flags] <file.cbor>
//
// Commands:
//
//	view     View audit log in human-readable format
//	stats    Show statistics about the audit log
//
// Examples:
//
//	# View all events
//	virel-audit view audit.cbor
//
//	# View only vote events
//	virel-audit view --category vote audit.cbor
//
//	# View events for one domain in epoch 3
//	virel-audit view --domain alpha --epoch 3 audit.cbor
//
//	# Show statistics
//	virel-audit stats audit.cbor
package main

import (
	"flag"
	"fmt"
	"os"
)

const usage = `virel-audit - VIREL Audit Log Analyzer

Usage:
  virel-audit <command> [flags] <file.cbor>

Commands:
  view     View audit log in human-readable format
  stats    Show statistics about the audit log

Use "virel-audit <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `virel-audit view - View audit log in human-readable format

Usage:
  virel-audit view [flags] <file.cbor>

Flags:
`)
		fs.PrintDefaults()
	}

	layer := fs.String("layer", "", "Filter by layer (transport, wire, gate)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, control, state, error, vote)")
	domain := fs.String("domain", "", "Filter by domain identifier")
	connID := fs.String("conn-id", "", "Filter by connection ID")
	epoch := fs.Uint64("epoch", 0, "Filter by epoch (use with -has-epoch)")
	hasEpoch := fs.Bool("has-epoch", false, "Enable the -epoch filter")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: audit log path required")
		fs.Usage()
		os.Exit(1)
	}

	filter, err := buildFilter(*layer, *direction, *category, *domain, *connID, *epoch, *hasEpoch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := view(fs.Arg(0), filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `virel-audit stats - Show statistics about the audit log

Usage:
  virel-audit stats <file.cbor>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: audit log path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := stats(fs.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
