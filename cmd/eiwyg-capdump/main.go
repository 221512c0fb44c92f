// Command eiwyg-capdump is a tool for viewing and analyzing protocol
// capture files.
//
// Capture files are created by running eiwyg-server or eiwyg-view with
// the -capture flag.
//
// Usage:
//
//	eiwyg-capdump <command> [flags] <file.eclog>
//
// Commands:
//
//	view     View capture file in human-readable format
//	export   Export capture file to JSONL format
//	filter   Filter capture file and write to new file
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	eiwyg-capdump view server.eclog
//
//	# View only wire-layer events
//	eiwyg-capdump view -layer wire server.eclog
//
//	# View only outgoing messages
//	eiwyg-capdump view -direction out server.eclog
//
//	# Export to JSONL
//	eiwyg-capdump export server.eclog
//
//	# Filter by connection and save to new file
//	eiwyg-capdump filter -conn-id abc12345 -o filtered.eclog server.eclog
//
//	# Show statistics
//	eiwyg-capdump stats server.eclog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/deanSLAC/eiwyg/cmd/eiwyg-capdump/commands"
)

const usage = `eiwyg-capdump - Protocol Capture Analyzer

Usage:
  eiwyg-capdump <command> [flags] <file.eclog>

Commands:
  view     View capture file in human-readable format
  export   Export capture file to JSONL format
  filter   Filter capture file and write to new file
  stats    Show statistics about the capture file

Use "eiwyg-capdump <command> -help" for more information about a command.
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
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
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
		fmt.Fprintf(os.Stderr, `eiwyg-capdump view - View capture file in human-readable format

Usage:
  eiwyg-capdump view [flags] <file.eclog>

Flags:
`)
		fs.PrintDefaults()
	}

	layer := fs.String("layer", "", "Filter by layer (transport, wire, session)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	connID := fs.String("conn-id", "", "Filter by connection ID")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	opts := commands.ViewOptions{
		ConnID:    *connID,
		Layer:     *layer,
		Direction: *direction,
	}

	if err := commands.RunView(path, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `eiwyg-capdump export - Export capture file to JSONL format

Usage:
  eiwyg-capdump export [flags] <file.eclog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	if err := commands.RunExport(path, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `eiwyg-capdump filter - Filter capture file and write to new file

Usage:
  eiwyg-capdump filter [flags] <file.eclog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	connID := fs.String("conn-id", "", "Filter by connection ID")
	layer := fs.String("layer", "", "Filter by layer (transport, wire, session)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	timeStart := fs.String("time-start", "", "Filter events at or after this time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter events before this time (RFC3339)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file required (-o)")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	opts := commands.FilterOptions{
		Output:    *output,
		ConnID:    *connID,
		Layer:     *layer,
		Direction: *direction,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
	}

	if err := commands.RunFilter(path, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `eiwyg-capdump stats - Show statistics about the capture file

Usage:
  eiwyg-capdump stats <file.eclog>
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
