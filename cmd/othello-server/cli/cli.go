// Package cli implements the server's db subcommand
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"othello/internal/board"
	"othello/internal/storage"
)

// Run is the entry point for the db mini-app
func Run(args []string) error {
	return run(args, os.Stdout)
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, query or session")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:], out)
	case "delete":
		return runDelete(args[1:], out)
	case "query":
		return runQuery(args[1:], out)
	case "session":
		return runSession(args[1:], out)
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

// openStore parses -path plus any extra flags registered by setup
func openStore(name string, args []string, setup func(*flag.FlagSet)) (*storage.Store, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	if setup != nil {
		setup(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *path == "" {
		return nil, fmt.Errorf("database path required")
	}
	store, err := storage.NewStore(*path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func runInit(args []string, out io.Writer) error {
	store, err := openStore("init", args, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	fmt.Fprintln(out, "Database initialized")
	return nil
}

func runDelete(args []string, out io.Writer) error {
	store, err := openStore("delete", args, nil)
	if err != nil {
		return err
	}
	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}
	fmt.Fprintln(out, "Database deleted")
	return nil
}

func runQuery(args []string, out io.Writer) error {
	var gameID, moves *string
	store, err := openStore("query", args, func(fs *flag.FlagSet) {
		gameID = fs.String("gameId", "", "Game ID to filter (optional, * for all)")
		moves = fs.String("moves", "", "Exact move sequence to filter, e.g. F5D6C3 (optional)")
	})
	if err != nil {
		return err
	}
	defer store.Close()

	sequence := ""
	if *moves != "" {
		parsed, err := board.ParseMoveSequence(*moves)
		if err != nil {
			return err
		}
		sequence = board.FormatMoveSequence(parsed)
	}

	games, err := store.QueryGames(*gameID, sequence)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if len(games) == 0 {
		fmt.Fprintln(out, "No games found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tResult\tDiscs\tOpening\tFinished")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%d-%d\t%s\t%s\n",
			shortID(g.GameID)+"...",
			g.Winner(),
			g.BlackDiscs, g.WhiteDiscs,
			g.Opening,
			g.FinishedUTC.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d game(s)\n", len(games))
	return nil
}

func runSession(args []string, out io.Writer) error {
	store, err := openStore("session", args, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.LoadSession()
	if err != nil {
		return err
	}
	moves, err := board.DecodeMoves(rec.MoveSequence)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Game %s, %d plies, updated %s\n%s\n",
		rec.GameID, rec.PlyCount,
		rec.UpdatedUTC.Format("2006-01-02 15:04:05"),
		board.FormatMoveSequence(moves))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
