package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if isVerbose(os.Args[1:]) {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	ctx, stop := notifyContext(context.Background())
	code := runMain(ctx, os.Args, DefaultEnv())
	stop()
	os.Exit(code)
}

func isVerbose(args []string) bool {
	for _, arg := range args {
		if arg == "-v" || arg == "--verbose" {
			return true
		}
	}
	return false
}

// runMain dispatches args[1] and returns the process exit code.
func runMain(ctx context.Context, args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}
	if env.Environ != nil {
		warnUnknownEnvVars(env.Stderr, env.Environ())
	}

	cmd, rest := args[1], args[2:]
	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx, rest, env)
	case "build":
		err = runBuild(ctx, rest, env)
	case "notes":
		err = runNotes(rest, env)
	case "link":
		err = runLink(rest, env)
	case "themes":
		err = runThemes(rest, env)
	case "config":
		err = runConfig(rest, env)
	case "doctor":
		return runDoctorCmd(ctx, rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "mdslides %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		runHelp(rest, env)
		return ExitSuccess
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}
