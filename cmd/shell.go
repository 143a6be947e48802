package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-cs-positions/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cOK       = color.New(color.FgGreen)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	cGreeting.Println("csposition shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("csposition")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		cmd, args := tokens[0], tokens[1:]

		var err error
		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			err = listAnalyses(db)
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <hash-prefix>")
				continue
			}
			err = showAnalysis(db, args[0], 5)
		case "rounds":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: rounds <hash-prefix> [--buy t] [--player n] [--area a]")
				continue
			}
			err = shellRounds(db, args)
		case "sql":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: sql <query>")
				continue
			}
			err = printQuery(db, strings.TrimSpace(strings.TrimPrefix(line, cmd)))
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", cmd)
		}
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored analyses"},
		{"show <hash-prefix>", "show an analysis's position table"},
		{"rounds <hash-prefix> [--buy t]", "per-round drill-down"},
		{"       [--player n] [--area a]", "filters; names with spaces are joined"},
		{"sql <query>", "run a raw query"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

// shellRounds parses rounds arguments. Flag values run until the next flag,
// so "--area Back Plat" works without quoting.
func shellRounds(db *storage.DB, args []string) error {
	flags, err := parseShellFlags(args[1:], "--buy", "--player", "--area")
	if err != nil {
		return err
	}
	buy, err := parseBuyType(flags["--buy"])
	if err != nil {
		return err
	}
	return showRounds(db, args[0], buy, flags["--player"], flags["--area"])
}

func parseShellFlags(args []string, known ...string) (map[string]string, error) {
	out := make(map[string]string)
	isKnown := func(s string) bool {
		for _, k := range known {
			if s == k {
				return true
			}
		}
		return false
	}
	for i := 0; i < len(args); {
		name := args[i]
		if !isKnown(name) {
			return nil, fmt.Errorf("unexpected argument %q", name)
		}
		j := i + 1
		for j < len(args) && !isKnown(args[j]) {
			j++
		}
		if j == i+1 {
			return nil, fmt.Errorf("%s needs a value", name)
		}
		out[name] = strings.Join(args[i+1:j], " ")
		i = j
	}
	return out, nil
}
