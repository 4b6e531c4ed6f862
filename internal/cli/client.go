// Package cli is the command-line client of a running clickmods agent.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tidwall/pretty"
	"golang.org/x/term"

	"clickmods/internal/ipc"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitUsage      = 2
	ExitNotRunning = 3
)

var (
	sendFn       = ipc.Send
	pipeNameFn   = ipc.DefaultPipeName
	isTerminalFn = isTerminal
	nowFn        = time.Now
)

// Run sends one control command built from args and prints the reply.
// It returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	setConsoleUTF8()

	jsonOut := false
	var positional []string
	for _, arg := range args {
		switch arg {
		case "-h", "-help", "--help", "help":
			printUsage(stdout)
			return ExitOK
		case "-json", "--json":
			jsonOut = true
		default:
			if strings.HasPrefix(arg, "-") {
				fmt.Fprintf(stderr, "clickmods: unknown flag %q\n", arg)
				printUsage(stderr)
				return ExitUsage
			}
			positional = append(positional, arg)
		}
	}
	if len(positional) != 1 {
		printUsage(stderr)
		return ExitUsage
	}

	cmd, err := ipc.ParseCommand(positional[0])
	if err != nil {
		fmt.Fprintf(stderr, "clickmods: %v\n", err)
		printUsage(stderr)
		return ExitUsage
	}

	resp, err := sendFn(pipeNameFn(), ipc.NewRequest(cmd))
	if err != nil {
		if ipc.IsConnectionError(err) {
			fmt.Fprintln(stderr, "clickmods: agent is not running")
			return ExitNotRunning
		}
		fmt.Fprintf(stderr, "clickmods: %v\n", err)
		return ExitFailure
	}

	if jsonOut {
		if err := writeJSON(stdout, resp); err != nil {
			fmt.Fprintf(stderr, "clickmods: %v\n", err)
			return ExitFailure
		}
	} else {
		writeText(stdout, resp)
	}
	if !resp.OK {
		return ExitFailure
	}
	return ExitOK
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(ipc.Commands()))
	for _, c := range ipc.Commands() {
		names = append(names, string(c))
	}
	fmt.Fprintf(w, "usage: clickmods [--json] <%s>\n", strings.Join(names, "|"))
	fmt.Fprintln(w, "Run without arguments to start the agent.")
}

// writeJSON prints resp indented, coloured when w is a terminal.
func writeJSON(w io.Writer, resp ipc.ControlResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	out := pretty.Pretty(raw)
	if isTerminalFn(w) {
		out = pretty.Color(out, nil)
	}
	_, err = w.Write(out)
	return err
}

func writeText(w io.Writer, resp ipc.ControlResponse) {
	if !resp.OK {
		fmt.Fprintf(w, "error: %s\n", resp.Message)
		return
	}
	if resp.Message != "" {
		fmt.Fprintln(w, resp.Message)
	}
	st := resp.Status
	if st == nil {
		return
	}

	state := "active"
	switch {
	case st.Paused:
		state = "paused"
	case !st.Installed:
		state = "inactive"
	}
	fmt.Fprintf(w, "hook:       %s\n", state)
	fmt.Fprintf(w, "instance:   %s\n", st.InstanceID)
	if !st.StartedAt.IsZero() {
		uptime := nowFn().Sub(st.StartedAt).Truncate(time.Second)
		fmt.Fprintf(w, "started:    %s (up %s)\n", st.StartedAt.Local().Format(time.DateTime), uptime)
	}
	if st.ConfigPath != "" {
		fmt.Fprintf(w, "config:     %s\n", st.ConfigPath)
	}
	fmt.Fprintf(w, "events:     %d\n", st.Stats.Events)
	fmt.Fprintf(w, "presses:    %d (releases %d, duplicates %d)\n",
		st.Stats.RightPresses, st.Stats.RightReleases, st.Stats.Duplicates)
	fmt.Fprintf(w, "forced:     %d\n", st.Stats.ForcedReleases)
	fmt.Fprintf(w, "anomalies:  %d\n", st.Stats.Anomalies)
	if len(st.RecentWarnings) > 0 {
		fmt.Fprintf(w, "warnings:   %d recent\n", len(st.RecentWarnings))
		for _, entry := range st.RecentWarnings {
			line := fmt.Sprintf("  %s %-5s %s", entry.Time.Local().Format(time.TimeOnly), entry.Level, entry.Message)
			if attrs := entry.AttrString(); attrs != "" {
				line += " " + attrs
			}
			fmt.Fprintln(w, line)
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
