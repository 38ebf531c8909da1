// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and execution for tradeline.
//
// Commands:
//   tui (default)       Launch the interactive terminal client
//   serve               Run the local request gateway
//   login               Request a sign-in link or store a session token
//   logout              Remove stored credentials
//   status              Display backend, account and cache status
//   config              View and modify configuration
//   version             Print version information
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies the top-level command to run.
type Command int

const (
	CmdTUI Command = iota
	CmdServe
	CmdLogin
	CmdLogout
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed command-line arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool
	Theme   string
	APIURL  string

	// Command-specific values
	Email      string
	Token      string
	Port       int
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw holds the unconsumed arguments after the command name.
	Raw []string

	// Options holds additional key-value flags.
	Options map[string]string
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `tradeline - terminal client for the tradeline trading chat

USAGE:
  tradeline [command] [flags]

COMMANDS:
  tui                 Launch the interactive terminal client (default)
  serve               Run the local request gateway
  login               Request a sign-in link, or store a session token
  logout              Remove stored credentials
  status, s           Display backend, account and cache status
  config              View and modify configuration
  version             Print version information
  help                Show this help

GLOBAL FLAGS:
  --api-url <url>     Override the backend origin (or set TRADELINE_API_URL)
  --theme <name>      UI theme: dark, light, auto
  --json              Output in JSON format (status, config show)
  -q, --quiet         Suppress non-essential output
  -v, --verbose       Verbose logging

EXAMPLES:
  # Interactive client
  tradeline                             Launch the TUI
  tradeline --theme light               Launch with the light theme

  # Authentication
  tradeline login you@example.com       Email a sign-in link
  tradeline login --token <token>       Store a session token
  tradeline logout                      Remove stored credentials

  # Local gateway
  tradeline serve                       Run the gateway on the configured port
  tradeline serve --port 9000           Run the gateway on port 9000

  # Configuration
  tradeline config                      Show current configuration
  tradeline config set ui.theme dark    Set a configuration value
  tradeline config path                 Show the configuration file location

  # Diagnostics
  tradeline status                      Show system status
  tradeline status --json               Status in JSON format

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("tradeline version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given arguments and returns the command and args.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	// No remaining args defaults to the TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "serve", "gateway":
		parseServeArgs(&parsedArgs, remaining)
		return CmdServe, parsedArgs

	case "login":
		parseLoginArgs(&parsedArgs, remaining)
		return CmdLogin, parsedArgs

	case "logout":
		return CmdLogout, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command: restore it and fall through to help so a typo
		// never silently launches the TUI.
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		return CmdHelp, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	parsedArgs := Args{
		Options: make(map[string]string),
	}

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--theme":
			if i+1 < len(args) {
				i++
				parsedArgs.Theme = args[i]
			}
		case "--api-url":
			if i+1 < len(args) {
				i++
				parsedArgs.APIURL = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--theme=") {
				parsedArgs.Theme = strings.TrimPrefix(arg, "--theme=")
			} else if strings.HasPrefix(arg, "--api-url=") {
				parsedArgs.APIURL = strings.TrimPrefix(arg, "--api-url=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseServeArgs parses serve command specific arguments.
func parseServeArgs(args *Args, remaining []string) {
	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-p", "--port":
			if i+1 < len(remaining) {
				i++
				if n, err := strconv.Atoi(remaining[i]); err == nil && n > 0 {
					args.Port = n
				}
			}
		default:
			if strings.HasPrefix(arg, "--port=") {
				if n, err := strconv.Atoi(strings.TrimPrefix(arg, "--port=")); err == nil && n > 0 {
					args.Port = n
				}
			}
		}
		i++
	}
}

// parseLoginArgs parses login command specific arguments.
func parseLoginArgs(args *Args, remaining []string) {
	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-t", "--token":
			if i+1 < len(remaining) {
				i++
				args.Token = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--token=") {
				args.Token = strings.TrimPrefix(arg, "--token=")
			} else if args.Email == "" && !strings.HasPrefix(arg, "-") {
				// First positional argument is the email address
				args.Email = arg
			}
		}
		i++
	}
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) == 0 {
		args.Subcommand = "show"
		return
	}

	args.Subcommand = strings.ToLower(remaining[0])
	rest := remaining[1:]

	if args.Subcommand == "set" {
		if len(rest) > 0 {
			args.ConfigKey = rest[0]
		}
		if len(rest) > 1 {
			args.ConfigVal = strings.Join(rest[1:], " ")
		}
	}
}
