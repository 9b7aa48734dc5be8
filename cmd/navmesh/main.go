// Command navmesh builds navigation meshes from OBJ files, inspects exported sets
// and answers path queries against them.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gorustyt/navbind/common/logs"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "navmesh: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage(os.Stderr)
		return errUsage
	}
	command, rest := args[0], args[1:]
	switch command {
	case "build":
		return handleBuild(rest, stdout)
	case "inspect":
		return handleInspect(rest, stdout)
	case "path":
		return handlePath(rest, stdout)
	case "help":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage(os.Stderr)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `navmesh - build and query navigation meshes

Usage: navmesh <command> [options]

Commands:
  build      Build a navmesh from an OBJ file and export it
  inspect    Print the params and tiles of an exported navmesh
  path       Find a straight path on an exported navmesh
  help       Show this help message

Examples:
  navmesh build -obj level.obj -mode tiled -out level.bin -png level.png
  navmesh inspect -in level.bin
  navmesh path -in level.bin -from 1,0,1 -to 9,0,9`)
}

type logFlags struct {
	level string
	json  bool
	file  string
}

func (l *logFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&l.level, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.BoolVar(&l.json, "log-json", false, "Write logs as json")
	fs.StringVar(&l.file, "log-file", "", "Also write logs to a rotating file")
}

func (l *logFlags) setup() error {
	logger, err := logs.New(logs.Options{Level: l.level, Json: l.json, File: l.file, MaxSizeMB: 10, MaxBackups: 3})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	logs.SetLogger(logger)
	return nil
}

// parseFlags parses args into fs and sets up logging from lf.
func parseFlags(fs *flag.FlagSet, lf *logFlags, args []string) error {
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return lf.setup()
}
