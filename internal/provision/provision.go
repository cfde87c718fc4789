package provision

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"othello/internal/core"
)

//go:embed assets/*.dat
var assets embed.FS

// Source supplies the bundled data files and names the writable directory
// they are materialized into
type Source interface {
	Open(asset string) (io.ReadCloser, error)
	FilesDir() string
}

// EmbeddedSource serves the data files compiled into the binary
type EmbeddedSource struct {
	dir string
}

func NewEmbeddedSource(dir string) *EmbeddedSource {
	return &EmbeddedSource{dir: dir}
}

func (s *EmbeddedSource) Open(asset string) (io.ReadCloser, error) {
	return assets.Open(path.Join("assets", asset))
}

func (s *EmbeddedSource) FilesDir() string {
	return s.dir
}

// Provisioner copies data files from a Source into its directory on fs
type Provisioner struct {
	src      Source
	fs       afero.Fs
	files    []string
	attempts uint
	delay    time.Duration
}

func New(src Source, fs afero.Fs, files ...string) *Provisioner {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Provisioner{
		src:      src,
		fs:       fs,
		files:    files,
		attempts: 3,
		delay:    50 * time.Millisecond,
	}
}

func (p *Provisioner) Dir() string {
	return p.src.FilesDir()
}

// Provision copies every missing or empty file. Existing files are kept.
func (p *Provisioner) Provision() error {
	if err := p.fs.MkdirAll(p.Dir(), 0o755); err != nil {
		return &core.ProvisionError{File: p.Dir(), Err: err}
	}

	for _, name := range p.files {
		dest := filepath.Join(p.Dir(), name)
		if fi, err := p.fs.Stat(dest); err == nil && fi.Size() > 0 {
			continue
		}

		err := retry.Do(
			func() error { return p.copy(name, dest) },
			retry.Attempts(p.attempts),
			retry.Delay(p.delay),
			retry.LastErrorOnly(true),
			retry.RetryIf(func(err error) bool { return !errors.Is(err, os.ErrNotExist) }),
			retry.OnRetry(func(n uint, err error) {
				log.Warn().Err(err).Str("file", name).Uint("attempt", n+1).Msg("retrying data file copy")
			}),
		)
		if err != nil {
			return &core.ProvisionError{File: name, Err: err}
		}
		log.Debug().Str("file", dest).Msg("data file provisioned")
	}
	return nil
}

// copy writes through a temporary file so a failed copy never leaves a
// truncated data file behind
func (p *Provisioner) copy(name, dest string) error {
	src, err := p.src.Open(name)
	if err != nil {
		return err
	}
	defer src.Close()

	tmp := dest + ".tmp"
	f, err := p.fs.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		p.fs.Remove(tmp)
		return fmt.Errorf("copy: %w", err)
	}
	if err := f.Close(); err != nil {
		p.fs.Remove(tmp)
		return err
	}
	return p.fs.Rename(tmp, dest)
}

// Cleanup deletes the provisioned files so the next start copies them again
func (p *Provisioner) Cleanup() error {
	var errs []error
	for _, name := range p.files {
		err := p.fs.Remove(filepath.Join(p.Dir(), name))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
