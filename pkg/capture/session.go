// Package capture records telemetry lines from a device into a CSV file.
package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/itohio/fueltable/pkg/config"
	"github.com/itohio/fueltable/pkg/device"
	"github.com/rs/zerolog"
)

// TimestampLayout is the timestamp embedded in capture and output file names.
const TimestampLayout = "20060102_150405"

// Result summarises a finished capture session.
type Result struct {
	Session string
	Path    string
	Lines   int // Lines written
	Skipped int // Lines dropped because they were not valid UTF-8
}

// Session writes every line received from a device to one file, verbatim.
type Session struct {
	cfg  config.CaptureConfig
	echo io.Writer
	log  zerolog.Logger
	now  func() time.Time
	id   string
}

// New creates a capture session. Captured lines are echoed to echo unless
// cfg.Quiet is set or echo is nil.
func New(cfg config.CaptureConfig, echo io.Writer, log zerolog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		cfg:  cfg,
		echo: echo,
		log:  log.With().Str("session", id).Logger(),
		now:  time.Now,
		id:   id,
	}
}

// FileName returns the capture file path for a session started at t.
func FileName(dir, prefix string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.csv", prefix, t.Format(TimestampLayout)))
}

// Run connects dev and records its lines until ctx is cancelled or the
// device stops producing. The capture file is created only once the device
// is connected. The device is closed before Run returns.
func (s *Session) Run(ctx context.Context, dev device.Device) (Result, error) {
	res := Result{
		Session: s.id,
		Path:    FileName(s.cfg.OutputDir, s.cfg.Prefix, s.now()),
	}

	if err := dev.Connect(); err != nil {
		return res, fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			s.log.Warn().Err(err).Msg("Error closing device")
		}
	}()

	f, err := os.Create(res.Path)
	if err != nil {
		return res, fmt.Errorf("failed to create capture file: %w", err)
	}
	defer f.Close()

	s.log.Info().Str("path", res.Path).Msg("Starting data capture")

	w := bufio.NewWriter(f)
	lines := dev.Lines()

	for {
		select {
		case <-ctx.Done():
			if err := s.drain(w, lines, &res); err != nil {
				return res, err
			}
			s.log.Info().Msg("Capture stopped")
			return res, s.finish(w, f, res)
		case raw, ok := <-lines:
			if !ok {
				s.log.Warn().Msg("Device stream ended")
				return res, s.finish(w, f, res)
			}
			if err := s.record(w, raw, &res); err != nil {
				return res, err
			}
		}
	}
}

// drain records lines the device has already delivered without waiting for more.
func (s *Session) drain(w *bufio.Writer, lines <-chan []byte, res *Result) error {
	for {
		select {
		case raw, ok := <-lines:
			if !ok {
				return nil
			}
			if err := s.record(w, raw, res); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// record decodes raw and writes it, counting it as written or skipped.
func (s *Session) record(w *bufio.Writer, raw []byte, res *Result) error {
	line, ok := decodeLine(raw)
	if !ok {
		res.Skipped++
		s.log.Warn().Int("line", res.Lines+res.Skipped).Hex("bytes", raw).Msg("Skipping line that is not valid UTF-8")
		return nil
	}

	if err := s.write(w, line); err != nil {
		return err
	}
	res.Lines++
	return nil
}

// write appends line to the file, flushes it and echoes it.
func (s *Session) write(w *bufio.Writer, line string) error {
	if _, err := w.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to write capture file: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush capture file: %w", err)
	}

	if s.echo != nil && !s.cfg.Quiet {
		fmt.Fprintln(s.echo, line)
	}

	return nil
}

func (s *Session) finish(w *bufio.Writer, f *os.File, res Result) error {
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush capture file: %w", err)
	}
	if err := f.Sync(); err != nil {
		s.log.Debug().Err(err).Msg("Sync failed")
	}

	s.log.Info().
		Str("path", res.Path).
		Int("lines", res.Lines).
		Int("skipped", res.Skipped).
		Msg("Data saved")

	return nil
}

// decodeLine validates raw as UTF-8 and strips trailing whitespace.
func decodeLine(raw []byte) (string, bool) {
	if !utf8.Valid(raw) {
		return "", false
	}
	return strings.TrimRightFunc(string(raw), unicode.IsSpace), true
}
