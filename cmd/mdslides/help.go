package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdslides <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve      Serve the live editor and presenter view")
	fmt.Fprintln(w, "  build      Write a deck as one self-contained HTML page")
	fmt.Fprintln(w, "  notes      Print the speaker notes of a deck")
	fmt.Fprintln(w, "  link       Print or decode a deep link")
	fmt.Fprintln(w, "  themes     List available themes")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  doctor     Check system configuration")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mdslides help <command>' for details on a specific command.")
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

func printEngineFlags(w io.Writer) {
	fmt.Fprintln(w, "Engines:")
	fmt.Fprintln(w, "      --no-browser          Render diagrams as source, never start Chrome")
	fmt.Fprintln(w, "      --math <s>            Math engine: markup, katex, none")
	fmt.Fprintln(w, "  -t, --timeout <d>         Engine timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "  -w, --workers <n>         Concurrent browser pages")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom styles/ and templates/ directory")
}

func printViewFlags(w io.Writer) {
	fmt.Fprintln(w, "View:")
	fmt.Fprintln(w, "      --theme <id>          Theme id (see 'mdslides themes')")
	fmt.Fprintln(w, "      --line-numbers        Number code block lines")
	fmt.Fprintln(w, "      --title <s>           Page title (\"\" = first slide title)")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdslides serve [deck.md] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve the live editor. Every open window shows the same slide and theme.")
	fmt.Fprintln(w, "A deck file replaces the stored document; without one the stored")
	fmt.Fprintln(w, "document resumes.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address")
	fmt.Fprintln(w, "      --store <s>           State store: sqlite, badger, memory")
	fmt.Fprintln(w, "      --store-path <path>   SQLite file or Badger directory")
	fmt.Fprintln(w)
	printViewFlags(w)
	fmt.Fprintln(w)
	printEngineFlags(w)
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdslides build <deck.md> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Write a deck as one HTML page with every slide fully rendered.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (default: deck.html, - for stdout)")
	fmt.Fprintln(w)
	printViewFlags(w)
	fmt.Fprintln(w)
	printEngineFlags(w)
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printNotesUsage prints usage for the notes command.
func printNotesUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdslides notes <deck.md> [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the speaker notes of every slide.")
}

// printLinkUsage prints usage for the link command.
func printLinkUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdslides link [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print a link that opens a deck at a slide and theme.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -s, --slide <n>           1-based slide number")
	fmt.Fprintln(w, "      --theme <id>          Theme id")
	fmt.Fprintln(w, "  -p, --presenter           Link to the presenter view")
	fmt.Fprintln(w, "      --base <url>          Server URL")
	fmt.Fprintln(w, "      --parse <s>           Decode a fragment or URL instead")
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdslides config [-c <name>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the effective configuration as YAML.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "serve":
		printServeUsage(env.Stdout)
	case "build":
		printBuildUsage(env.Stdout)
	case "notes":
		printNotesUsage(env.Stdout)
	case "link":
		printLinkUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "themes":
		fmt.Fprintln(env.Stdout, "Usage: mdslides themes [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "List available themes.")
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: mdslides doctor [--json] [--probe]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check system configuration. --probe launches Chrome and loads")
		fmt.Fprintln(env.Stdout, "the Mermaid and KaTeX scripts.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mdslides version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mdslides help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
