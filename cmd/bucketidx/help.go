package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage information to the given writer.
func printUsage(w io.Writer) {
	fmt.Fprint(w, `bucketidx - on-disk B-tree index engine CLI

Usage:
  bucketidx <command> [options]

Commands:
  bulkload    Build an index file from a sorted key stream
  validate    Check a data file's structural invariants
  dump        Print a human-readable listing of an index's buckets
  config      Configuration management
  version     Show version information

Use "bucketidx <command> -h" for more information about a command.
`)
}

// printBulkloadUsage prints the bulkload command usage.
func printBulkloadUsage(w io.Writer) {
	fmt.Fprint(w, `Build an index file from a key stream

Usage:
  bucketidx bulkload [options]

Reads newline-delimited JSON records of the form
  {"key": <int64>, "file": <int32>, "offset": <int64>}
from -input (or stdin) and builds idx.bkt/idx.journal.log/idx.meta.json
under -dir, one bucket level at a time via the builder's streaming
commit rather than one key at a time through Insert.

Options:
  -dir string
        Directory to create the index in (required)
  -name string
        Index name, stored in the sidecar metadata (default "idx")
  -input string
        Input file path (default: read from stdin)
  -h, -help
        Show this help message
`)
}

// printValidateUsage prints the validate command usage.
func printValidateUsage(w io.Writer) {
	fmt.Fprint(w, `Check a data file's structural invariants

Usage:
  bucketidx validate [options]

Walks every bucket reachable from the index root and reports any broken
invariant: out-of-order keys, a child pointing back at the wrong parent,
or a key outside the range its position in the tree allows.

Options:
  -dir string
        Directory containing the index (required)
  -name string
        Index name (default "idx")
  -h, -help
        Show this help message
`)
}

// printDumpUsage prints the dump command usage.
func printDumpUsage(w io.Writer) {
	fmt.Fprint(w, `Print a human-readable listing of an index's buckets

Usage:
  bucketidx dump [options]

Options:
  -dir string
        Directory containing the index (required)
  -name string
        Index name (default "idx")
  -h, -help
        Show this help message
`)
}

// printConfigUsage prints the config command usage.
func printConfigUsage(w io.Writer) {
	fmt.Fprint(w, `Configuration management

Usage:
  bucketidx config <subcommand> [options]

Subcommands:
  validate    Validate configuration file
  init        Generate default configuration
  show        Show effective configuration

Use "bucketidx config <subcommand> -h" for more information.
`)
}

// printVersionUsage prints the version command usage.
func printVersionUsage(w io.Writer) {
	fmt.Fprint(w, `Show version information

Usage:
  bucketidx version [options]

Options:
  -short
        Show only version number
  -h, -help
        Show this help message
`)
}
