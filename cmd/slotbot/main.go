// Package main provides the slotbot application.
//
// Slotbot manages slot bookings for a small set of course categories:
// students pick slots for themselves, administrators edit bookings and
// configure the schedule, and the state survives restarts through a
// local database with an optional remote mirror.
package main

import (
	"flag"
	"fmt"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Parse()

	if *showVersion {
		fmt.Printf("slotbot %s\n", version)
		return nil
	}

	args := flag.Args()
	if len(args) == 0 {
		return showUsage()
	}

	switch args[0] {
	case "run":
		return runRunCommand(*configPath, args[1:])
	case "schedule":
		return runScheduleCommand(*configPath)
	case "config":
		return runConfigCommand(*configPath, args[1:])
	case "help":
		return showUsage()
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// runRunCommand starts the bot event loop.
func runRunCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	actorID := fs.Int64("actor", 1, "actor id for console input")
	actorName := fs.String("name", "Console User", "display name for console input")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &runCommand{
		configPath: configPath,
		actorID:    *actorID,
		actorName:  *actorName,
	}
	return cmd.Execute()
}

// runScheduleCommand prints the current schedule.
func runScheduleCommand(configPath string) error {
	cmd := &scheduleCommand{configPath: configPath}
	return cmd.Execute()
}

// runConfigCommand runs the config command.
func runConfigCommand(configPath string, args []string) error {
	cmd := &configCommand{configPath: configPath}
	return cmd.Execute(args)
}

// showUsage displays usage information.
func showUsage() error {
	usage := `Slotbot - slot booking bot for course categories

Usage:
  slotbot [flags] <command> [command flags]

Commands:
  run         Start the bot event loop (console transport)
  schedule    Print the current schedule as a table
  config      Configuration management (show, path, reset)
  help        Show this help message

Global Flags:
  -config     Path to configuration file
  -version    Show version information

Run Command Flags:
  -actor      Actor id for console input (default: 1)
  -name       Display name for console input

Examples:
  # Start the bot reading events from stdin
  slotbot run

  # Start as a specific actor
  slotbot run -actor 42 -name "Jane Doe"

  # Print the schedule
  slotbot schedule

  # Show the active configuration
  slotbot config show

  # Write a default config file
  slotbot config reset

Version: %s
`

	fmt.Printf(usage, version)
	return nil
}
