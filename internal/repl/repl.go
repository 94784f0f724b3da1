package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"salinas/internal/engine"
	"strings"

	"github.com/chzyer/readline"
)

const (
	PROMPT       = ">> "
	CONTINUATION = ".. "
	historyFile  = ".salinas_history"
)

// HistoryPath returns the history file in the user's home directory, or ""
// when there is no home directory.
func HistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, historyFile)
}

// Start reads and evaluates input until EOF or :quit. Ctrl+C clears an
// unfinished block, and interrupts an evaluation in progress.
func Start(e *engine.Engine, out io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            PROMPT,
		HistoryFile:       HistoryPath(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdout:            out,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	session := NewSession(e, rl.Stdout())
	defer session.Close()

	fmt.Fprintf(rl.Stdout(), "salinas %s - :help for commands, :quit to exit\n", e.Config.Version)

	for {
		if session.Pending() {
			rl.SetPrompt(CONTINUATION)
		} else {
			rl.SetPrompt(PROMPT)
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if session.Pending() {
				session.Reset()
				fmt.Fprintln(rl.Stdout(), "(input cleared)")
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if !session.Pending() && strings.HasPrefix(strings.TrimSpace(line), ":") {
			if quit := command(session, rl.Stdout(), strings.TrimSpace(line)); quit {
				return nil
			}
			continue
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		session.Feed(ctx, line)
		stop()
	}
}

// command runs a REPL command and reports whether the REPL should exit.
func command(session *Session, out io.Writer, cmd string) bool {
	switch strings.ToLower(cmd) {
	case ":quit", ":q", ":exit":
		return true
	case ":vars":
		for _, v := range session.Variables() {
			fmt.Fprintln(out, v)
		}
	case ":help":
		fmt.Fprint(out, `Commands:
  :vars   list global variables
  :quit   leave the REPL
Blocks (IF, DO WHILE, DO CASE, FOR, FUNCTION) continue until they are closed.
`)
	default:
		fmt.Fprintf(out, "unknown command %s\n", cmd)
	}
	return false
}
