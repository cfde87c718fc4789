// Package main is the interactive terminal game
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"

	"othello/internal/bootstrap"
	"othello/internal/cli"
	"othello/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config.yaml (default: search XDG config dirs)")
		fresh      = flag.Bool("new", false, "Ignore the saved session and start a new game")
	)
	flag.Parse()

	if err := run(*configPath, *fresh); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, fresh bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = filepath.Join(cfg.DataDir, "othello.db")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// logs go to a file so they do not tear the prompt
	logPath, err := xdg.StateFile("othello/othello.log")
	if err != nil {
		return err
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	if err := config.SetupLogging(cfg.Log, logFile); err != nil {
		return err
	}

	view := cli.NewRenderer(os.Stdout)
	if err := view.SetTheme(cli.DetectTheme(int(os.Stdout.Fd()))); err != nil {
		return err
	}

	stack, err := bootstrap.Open(cfg, view)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			log.Warn().Err(err).Msg("shutdown incomplete")
		}
	}()
	stack.Processor.Start()

	historyPath, err := xdg.StateFile("othello/history")
	if err != nil {
		return err
	}
	term := cli.New(stack.Processor, stack.Service, view)
	rl, err := readline.NewEx(&readline.Config{
		HistoryFile:     historyPath,
		AutoComplete:    term.Completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	view.SetOutput(rl.Stdout())

	term.ShowWelcome()
	if err := resume(stack, fresh); err != nil {
		view.ShowError(err)
	}
	term.Run(rl)
	return nil
}

// resume replays the saved session, or starts a new game when there is none
func resume(stack *bootstrap.Stack, fresh bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !fresh {
		moves, err := stack.Service.SavedSession()
		if err != nil {
			log.Warn().Err(err).Msg("saved session unreadable")
		}
		if len(moves) > 0 {
			log.Info().Int("plies", len(moves)).Msg("resuming saved session")
			_, err := stack.Processor.Replay(ctx, moves)
			return err
		}
	}
	_, err := stack.Processor.NewGame(ctx)
	return err
}
