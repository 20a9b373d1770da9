package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oba-index/buckettree/internal/btree"
	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/config"
	"github.com/oba-index/buckettree/internal/cursorreg"
	"github.com/oba-index/buckettree/internal/journal"
	"github.com/oba-index/buckettree/internal/logging"
	"github.com/oba-index/buckettree/internal/pager"
)

// validateCmd handles the validate command.
func validateCmd(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	dir := fs.String("dir", "", "Directory containing the index")
	name := fs.String("name", "idx", "Index name")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		printValidateUsage(os.Stdout)
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

	startTime := time.Now()
	ctx := context.Background()
	errs, err := tree.FullValidate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation aborted: %v\n", err)
		return 1
	}

	if len(errs) == 0 {
		fmt.Printf("Index is structurally valid.\n")
		fmt.Printf("  Duration: %v\n", time.Since(startTime).Round(time.Millisecond))
		return 0
	}

	fmt.Fprintf(os.Stderr, "Found %d structural violation(s):\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "  - %s\n", e)
	}
	return 1
}

// openExistingTree opens the pager, journal, and sidecar metadata for an
// index previously built by bulkload, returning a shared closer for all
// three.
func openExistingTree(dir, name string) (*btree.Tree, func(), error) {
	metaPath := filepath.Join(dir, name+".meta.json")
	if _, err := os.Stat(metaPath); err != nil {
		return nil, nil, fmt.Errorf("no metadata at %s: %w", metaPath, err)
	}

	log := logging.New(logging.Config(config.DefaultConfig().Logging))

	pg, err := pager.Open(filepath.Join(dir, name+".bkt"), pager.Options{})
	if err != nil {
		return nil, nil, err
	}
	pg.SetLogger(log)

	jr, err := journal.Open(filepath.Join(dir, name+".journal.log"), pg)
	if err != nil {
		pg.Close()
		return nil, nil, err
	}

	fields := []comparator.FieldSpec{{Name: "key"}}
	meta, err := btree.OpenFileMeta(metaPath, name, fields)
	if err != nil {
		jr.Close()
		pg.Close()
		return nil, nil, err
	}

	tree := btree.New(pg, jr, cursorreg.New(), meta)
	tree.SetLogger(log)
	closeAll := func() {
		jr.Close()
		pg.Close()
	}
	return tree, closeAll, nil
}
