package main

import (
	"flag"
	"fmt"
	"os"
)

// dumpCmd handles the dump command.
func dumpCmd(args []string) int {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	dir := fs.String("dir", "", "Directory containing the index")
	name := fs.String("name", "idx", "Index name")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		printDumpUsage(os.Stdout)
		return 0
	}

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "Error: -dir is required")
		return 1
	}

	tree, closeAll, err := openExistingTree(*dir, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		return 1
	}
	defer closeAll()

	if err := tree.Dump(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error dumping index: %v\n", err)
		return 1
	}
	return 0
}
