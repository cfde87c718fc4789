package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
)

// pidFile holds the server's PID file, optionally under an exclusive lock
type pidFile struct {
	path   string
	file   *os.File
	locked bool
}

// createPIDFile writes the current PID to path. With lock, a file held by a
// live instance is an error; an unlocked stale file is taken over.
func createPIDFile(path string, lock bool) (*pidFile, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("cannot create PID file: %w", err)
		}
		if lock {
			if err := checkOwner(path); err != nil {
				return nil, err
			}
		}
		if file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644); err != nil {
			return nil, fmt.Errorf("cannot open PID file: %w", err)
		}
	}

	p := &pidFile{path: path, file: file}
	if lock {
		if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
			file.Close()
			if errors.Is(err, syscall.EWOULDBLOCK) {
				return nil, errors.New("cannot acquire lock: another instance is running")
			}
			return nil, fmt.Errorf("lock failed: %w", err)
		}
		p.locked = true
	}

	if _, err := fmt.Fprintf(file, "%d\n", os.Getpid()); err != nil {
		p.Release()
		return nil, fmt.Errorf("cannot write PID: %w", err)
	}
	if err := file.Sync(); err != nil {
		p.Release()
		return nil, fmt.Errorf("cannot sync PID file: %w", err)
	}
	return p, nil
}

// Release unlocks and removes the file
func (p *pidFile) Release() {
	if p.locked {
		syscall.Flock(int(p.file.Fd()), syscall.LOCK_UN)
	}
	p.file.Close()
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", p.path).Msg("remove PID file")
	}
}

// checkOwner inspects an existing PID file. A dead process leaves a stale
// file that may be reused; a live one means another server.
func checkOwner(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read existing PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("corrupted PID file (contains: %q)", string(data))
	}

	// FindProcess never fails on Unix; signal 0 checks the process exists
	proc, _ := os.FindProcess(pid)
	err = proc.Signal(syscall.Signal(0))
	switch {
	case errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH):
		log.Warn().Int("pid", pid).Msg("replacing stale PID file")
		return nil
	case err != nil:
		return fmt.Errorf("process %d exists but cannot verify ownership: %v", pid, err)
	default:
		return fmt.Errorf("PID file %s belongs to running process %d", path, pid)
	}
}
