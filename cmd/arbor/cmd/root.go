// Package cmd implements the arbor CLI commands.
//
// The root command dispatches to subcommands (dump, query, view) after
// consuming the global flags.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-drift/arbor/pkg/config"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Command represents a CLI command.
type Command struct {
	Name        string
	Short       string
	Long        string
	Usage       string
	Run         func(args []string) error
	SubCommands []*Command
}

var rootCmd = &Command{
	Name:  "arbor",
	Short: "arbor - retained element trees with data-bound children",
	Long: `arbor loads element documents, renders their bound data into child
elements and lets you inspect the result.

Use "arbor <command> --help" for more information about a command.`,
	Usage: "arbor [--config FILE] [--log-level LEVEL] [--metrics-addr ADDR] <command> [flags]",
}

// Commands registered with the CLI.
var commands = make(map[string]*Command)

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *Command) {
	commands[cmd.Name] = cmd
	rootCmd.SubCommands = append(rootCmd.SubCommands, cmd)
}

// globals holds the flags accepted before the command name.
var globals struct {
	configPath  string
	logLevel    string
	metricsAddr string
}

// stdout receives command output.
var stdout io.Writer = os.Stdout

// Execute runs the CLI with os.Args.
func Execute() error {
	return execute(os.Args[1:])
}

func execute(args []string) error {
	if len(args) == 0 {
		printHelp(rootCmd)
		return nil
	}

	var filteredArgs []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-h", "--help", "help":
			if len(filteredArgs) == 0 {
				printHelp(rootCmd)
				return nil
			}
			filteredArgs = append(filteredArgs, arg)
		case "-v", "--version", "version":
			if len(filteredArgs) == 0 {
				fmt.Fprintf(stdout, "arbor version %s (engine %s, built %s)\n", Version, config.EngineVersion, BuildTime)
				return nil
			}
			filteredArgs = append(filteredArgs, arg)
		case "--config", "--log-level", "--metrics-addr":
			if len(filteredArgs) > 0 {
				filteredArgs = append(filteredArgs, arg)
				continue
			}
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a value", arg)
			}
			setGlobal(arg, args[i+1])
			i++
		default:
			if name, value, ok := strings.Cut(arg, "="); ok && len(filteredArgs) == 0 && isGlobal(name) {
				setGlobal(name, value)
				continue
			}
			filteredArgs = append(filteredArgs, arg)
		}
	}
	args = filteredArgs

	if len(args) == 0 {
		printHelp(rootCmd)
		return nil
	}

	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmdName)
		printHelp(rootCmd)
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	cmdArgs := args[1:]
	for _, arg := range cmdArgs {
		if arg == "-h" || arg == "--help" || arg == "help" {
			printCommandHelp(cmd)
			return nil
		}
	}

	return cmd.Run(cmdArgs)
}

func isGlobal(name string) bool {
	return name == "--config" || name == "--log-level" || name == "--metrics-addr"
}

func setGlobal(name, value string) {
	switch name {
	case "--config":
		globals.configPath = value
	case "--log-level":
		globals.logLevel = value
	case "--metrics-addr":
		globals.metricsAddr = value
	}
}

func printHelp(cmd *Command) {
	w := stdout
	fmt.Fprintln(w, cmd.Long)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %s\n", cmd.Usage)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, sub := range cmd.SubCommands {
		fmt.Fprintf(w, "  %-14s %s\n", sub.Name, sub.Short)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -h, --help            Show help for a command")
	fmt.Fprintln(w, "  -v, --version         Show version information")
	fmt.Fprintln(w, "  --config FILE         Configuration file (default: arbor.yaml in the project root)")
	fmt.Fprintln(w, "  --log-level LEVEL     Override log.level (debug, info, warn, error)")
	fmt.Fprintln(w, "  --metrics-addr ADDR   Serve Prometheus metrics on ADDR")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  arbor dump page.yaml              Render and print a document")
	fmt.Fprintln(w, "  arbor query page.yaml 'row-.*'    List elements whose key matches")
	fmt.Fprintln(w, "  arbor view page.yaml              Browse a document in the terminal")
}

func printCommandHelp(cmd *Command) {
	fmt.Fprintln(stdout, cmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage:")
	fmt.Fprintf(stdout, "  %s\n", cmd.Usage)
}
