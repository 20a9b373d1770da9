package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/oba-index/buckettree/internal/btree"
	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/config"
	"github.com/oba-index/buckettree/internal/cursorreg"
	"github.com/oba-index/buckettree/internal/journal"
	"github.com/oba-index/buckettree/internal/locator"
	"github.com/oba-index/buckettree/internal/logging"
	"github.com/oba-index/buckettree/internal/pager"
)

// bulkRecord is one line of the bulkload input format.
type bulkRecord struct {
	Key    int64 `json:"key"`
	File   int32 `json:"file"`
	Offset int64 `json:"offset"`
}

// bulkloadCmd handles the bulkload command.
func bulkloadCmd(args []string) int {
	fs := flag.NewFlagSet("bulkload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	dir := fs.String("dir", "", "Directory to create the index in")
	name := fs.String("name", "idx", "Index name")
	input := fs.String("input", "", "Input file path (default: stdin)")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		printBulkloadUsage(os.Stdout)
		return 0
	}

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "Error: -dir is required")
		return 1
	}

	var r io.Reader = os.Stdin
	if *input != "" {
		f, err := os.Open(*input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input: %v\n", err)
			return 1
		}
		defer f.Close()
		r = f
	}

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating -dir: %v\n", err)
		return 1
	}

	log := logging.New(logging.Config(config.DefaultConfig().Logging))

	pg, err := pager.Open(filepath.Join(*dir, *name+".bkt"), pager.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening data file: %v\n", err)
		return 1
	}
	pg.SetLogger(log)
	defer pg.Close()

	jr, err := journal.Open(filepath.Join(*dir, *name+".journal.log"), pg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
		return 1
	}
	defer jr.Close()

	fields := []comparator.FieldSpec{{Name: "key"}}
	meta, err := btree.OpenFileMeta(filepath.Join(*dir, *name+".meta.json"), *name, fields)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening metadata: %v\n", err)
		return 1
	}

	tree := btree.New(pg, jr, cursorreg.New(), meta)
	tree.SetLogger(log)
	builder, err := tree.NewBulkBuilder()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting bulk builder: %v\n", err)
		return 1
	}

	startTime := time.Now()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var count int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec bulkRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			builder.Drop()
			fmt.Fprintf(os.Stderr, "Error parsing record %d: %v\n", count+1, err)
			return 1
		}
		doc := comparator.NewDocument(comparator.Field{Name: "key", Value: comparator.Int64Value(rec.Key)})
		if err := builder.AddKey(locator.Locator{File: rec.File, Offset: rec.Offset}, doc); err != nil {
			builder.Drop()
			fmt.Fprintf(os.Stderr, "Error adding record %d: %v\n", count+1, err)
			return 1
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		builder.Drop()
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		return 1
	}

	if err := builder.Commit(); err != nil {
		fmt.Fprintf(os.Stderr, "Error committing index: %v\n", err)
		return 1
	}
	if err := meta.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error flushing metadata: %v\n", err)
		return 1
	}

	fmt.Printf("Bulk load completed successfully!\n")
	fmt.Printf("  Keys:     %d\n", count)
	fmt.Printf("  Dir:      %s\n", *dir)
	fmt.Printf("  Name:     %s\n", *name)
	fmt.Printf("  Duration: %v\n", time.Since(startTime).Round(time.Millisecond))

	return 0
}
