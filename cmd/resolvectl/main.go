// Command resolvectl is a CLI front end over the resolution engine: given an
// offline registry manifest and a set of root coordinates, it resolves the
// dependency graph, optionally fetches the resulting artifacts into a local
// repository, and reports the difference between two resolutions.
package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/golang/aetherresolve/repository"
)

// command is the per-subcommand contract, mirroring the teacher's cmd/dep
// command interface but built on pflag rather than stdlib flag since the
// rest of this engine already depends on pflag.
type command interface {
	Name() string
	Args() string
	ShortHelp() string
	LongHelp() string
	Register(*pflag.FlagSet)
	Run(e *env, args []string) error
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	commands := []command{
		&resolveCommand{},
		&getCommand{},
		&diffCommand{},
		&versionCommand{},
	}

	errLogger := log.New(stderr, "", 0)

	usage := func() {
		errLogger.Println("resolvectl drives dependency resolution against an offline registry manifest")
		errLogger.Println()
		errLogger.Println("Usage: resolvectl <command> [flags]")
		errLogger.Println()
		errLogger.Println("Commands:")
		errLogger.Println()
		w := tabwriter.NewWriter(stderr, 0, 4, 2, ' ', 0)
		for _, cmd := range commands {
			fmt.Fprintf(w, "\t%s\t%s\n", cmd.Name(), cmd.ShortHelp())
		}
		w.Flush()
		errLogger.Println()
		errLogger.Println("Use \"resolvectl <command> -h\" for flags specific to that command.")
	}

	if len(args) < 2 || isHelpArg(args[1]) {
		usage()
		return 1
	}
	cmdName := args[1]

	for _, cmd := range commands {
		if cmd.Name() != cmdName {
			continue
		}

		fs := pflag.NewFlagSet(cmdName, pflag.ContinueOnError)
		fs.SetOutput(stderr)
		verbose := fs.BoolP("verbose", "v", false, "enable verbose logging")
		localRepoPath := fs.String("local-repo", defaultLocalRepo(), "path to the local repository")
		split := fs.Bool("split", false, "use split installed/cached local repository layout")

		cmd.Register(fs)
		resetUsage(errLogger, fs, cmdName, cmd.Args(), cmd.LongHelp())

		if err := fs.Parse(args[2:]); err != nil {
			return 1
		}

		e := newEnv(stdout, stderr, *verbose, repository.NewLocalRepositoryManager(*localRepoPath, *split))
		if err := cmd.Run(e, fs.Args()); err != nil {
			errLogger.Printf("resolvectl %s: %v\n", cmdName, err)
			return 1
		}
		return 0
	}

	errLogger.Printf("resolvectl: %s: no such command\n", cmdName)
	usage()
	return 1
}

func defaultLocalRepo() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".resolvectl/repository"
	}
	return home + "/.resolvectl/repository"
}

func isHelpArg(s string) bool {
	return strings.Contains(strings.ToLower(s), "help") || s == "-h" || s == "--help"
}

func resetUsage(logger *log.Logger, fs *pflag.FlagSet, name, args, longHelp string) {
	var flagBlock bytes.Buffer
	flagWriter := tabwriter.NewWriter(&flagBlock, 0, 4, 2, ' ', 0)
	fs.VisitAll(func(f *pflag.Flag) {
		defValue := f.DefValue
		if defValue == "" {
			defValue = "<none>"
		}
		fmt.Fprintf(flagWriter, "\t-%s\t%s (default: %s)\n", f.Name, f.Usage, defValue)
	})
	flagWriter.Flush()
	fs.Usage = func() {
		logger.Printf("Usage: resolvectl %s %s\n", name, args)
		logger.Println()
		logger.Println(strings.TrimSpace(longHelp))
		logger.Println()
		logger.Println("Flags:")
		logger.Println()
		logger.Println(flagBlock.String())
	}
}
