package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/oba-index/buckettree/internal/config"
)

// configCmd handles the config command.
func configCmd(args []string) int {
	if len(args) == 0 {
		printConfigUsage(os.Stdout)
		return 0
	}

	if args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "validate":
		return configValidateCmd(args[1:])
	case "init":
		return configInitCmd(args[1:])
	case "show":
		return configShowCmd(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "Run 'bucketidx config help' for usage.")
		return 1
	}
}

// configValidateCmd handles the config validate subcommand.
func configValidateCmd(args []string) int {
	fs := flag.NewFlagSet("config validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	configFile := fs.String("config", "", "Path to configuration file")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		fmt.Println("Validate configuration file")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  bucketidx config validate [options]")
		fmt.Println()
		fmt.Println("Options:")
		fmt.Println("  -config string")
		fmt.Println("        Path to configuration file (required)")
		return 0
	}

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -config is required")
		return 1
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	errs := config.ValidateConfig(cfg)
	if len(errs) > 0 {
		fmt.Fprintln(os.Stderr, "Configuration errors:")
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  - %s\n", e)
		}
		return 1
	}

	fmt.Println("Configuration is valid")
	return 0
}

// configInitCmd handles the config init subcommand.
func configInitCmd(args []string) int {
	fs := flag.NewFlagSet("config init", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		fmt.Println("Generate default configuration")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  bucketidx config init")
		fmt.Println()
		fmt.Println("Outputs default configuration to stdout in INI format.")
		return 0
	}

	cfg := config.DefaultConfig()
	fmt.Print(marshalConfigToINI(cfg))
	return 0
}

// configShowCmd handles the config show subcommand.
func configShowCmd(args []string) int {
	fs := flag.NewFlagSet("config show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	configFile := fs.String("config", "", "Path to configuration file")
	format := fs.String("format", "ini", "Output format (ini, json)")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		fmt.Println("Show effective configuration")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  bucketidx config show [options]")
		fmt.Println()
		fmt.Println("Options:")
		fmt.Println("  -config string")
		fmt.Println("        Path to configuration file")
		fmt.Println("  -format string")
		fmt.Println("        Output format: ini, json (default \"ini\")")
		return 0
	}

	var cfg *config.Config
	var err error

	if *configFile != "" {
		cfg, err = config.LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			return 1
		}
	} else {
		cfg = config.DefaultConfig()
	}

	switch strings.ToLower(*format) {
	case "json":
		data, err := json.MarshalIndent(cfg.ToJSON(), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal config: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
	default:
		fmt.Print(marshalConfigToINI(cfg))
	}

	return 0
}

// marshalConfigToINI converts a Config to INI text, mirroring the
// sections parser.go reads back.
func marshalConfigToINI(cfg *config.Config) string {
	var sb strings.Builder

	sb.WriteString("; bucketidx configuration\n\n")

	sb.WriteString("[engine]\n")
	sb.WriteString(fmt.Sprintf("data_dir = %s\n", cfg.Engine.DataDir))
	if cfg.Engine.JournalDir != "" {
		sb.WriteString(fmt.Sprintf("journal_dir = %s\n", cfg.Engine.JournalDir))
	}
	sb.WriteString(fmt.Sprintf("read_only = %t\n", cfg.Engine.ReadOnly))
	sb.WriteString("\n")

	sb.WriteString("[journal]\n")
	sb.WriteString(fmt.Sprintf("fsync_policy = %s\n", cfg.Journal.FsyncPolicy))
	sb.WriteString(fmt.Sprintf("fsync_interval = %s\n", cfg.Journal.FsyncInterval))
	sb.WriteString(fmt.Sprintf("recover_on_open = %t\n", cfg.Journal.RecoverOnOpen))
	sb.WriteString("\n")

	sb.WriteString("[cache]\n")
	sb.WriteString(fmt.Sprintf("buffer_pool_pages = %d\n", cfg.Cache.BufferPoolPages))
	sb.WriteString("\n")

	sb.WriteString("[logging]\n")
	sb.WriteString(fmt.Sprintf("level = %s\n", cfg.Logging.Level))
	sb.WriteString(fmt.Sprintf("format = %s\n", cfg.Logging.Format))
	sb.WriteString(fmt.Sprintf("output = %s\n", cfg.Logging.Output))

	return sb.String()
}
