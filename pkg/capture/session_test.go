package capture

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/itohio/fueltable/pkg/config"
	"github.com/itohio/fueltable/pkg/device"
	"github.com/itohio/fueltable/pkg/telemetry"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted is a device that replays a fixed set of lines and then ends its stream.
type scripted struct {
	lines      [][]byte
	ch         chan []byte
	connectErr error
	keepOpen   bool
	closed     bool
	connected  bool
}

func newScripted(lines ...string) *scripted {
	s := &scripted{}
	for _, l := range lines {
		s.lines = append(s.lines, []byte(l))
	}
	return s
}

func (s *scripted) Connect() error {
	if s.connectErr != nil {
		return s.connectErr
	}
	s.ch = make(chan []byte, len(s.lines))
	for _, l := range s.lines {
		s.ch <- l
	}
	if !s.keepOpen {
		close(s.ch)
	}
	s.connected = true
	return nil
}

func (s *scripted) Close() error {
	s.closed = true
	s.connected = false
	return nil
}

func (s *scripted) Lines() <-chan []byte { return s.ch }
func (s *scripted) IsConnected() bool    { return s.connected }

var _ device.Device = (*scripted)(nil)

func newSession(t *testing.T, echo *bytes.Buffer) *Session {
	t.Helper()
	s := New(config.CaptureConfig{OutputDir: t.TempDir(), Prefix: "test_data"}, echo, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }
	return s
}

func TestFileName(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	assert.Equal(t, filepath.Join("out", "test_data_20250314_092653.csv"), FileName("out", "test_data", ts))
}

func TestDecodeLine(t *testing.T) {
	tests := []struct {
		name   string
		raw    []byte
		want   string
		wantOK bool
	}{
		{"plain", []byte("1000,5000"), "1000,5000", true},
		{"carriage return", []byte("1000,5000\r"), "1000,5000", true},
		{"trailing spaces", []byte("a,b  \t"), "a,b", true},
		{"leading spaces kept", []byte("  a,b"), "  a,b", true},
		{"empty", []byte(""), "", true},
		{"invalid utf8", []byte{0xff, 0xfe, '1'}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeLine(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSession_Run_WritesVerbatim(t *testing.T) {
	var echo bytes.Buffer
	s := newSession(t, &echo)
	dev := newScripted(
		"TimeMS,FuelLevel,InternalTemp,ExternalTemp,Pitch,Phase,MovementDirection\r",
		"1000,5000,2500,3000,12.50,Movement,Up\r",
		"1010,No Data,2500,Open Circuit,12.60,Movement,Up\r",
	)

	res, err := s.Run(context.Background(), dev)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Lines)
	assert.Equal(t, 0, res.Skipped)
	assert.NotEmpty(t, res.Session)
	assert.True(t, strings.HasSuffix(res.Path, "test_data_20250314_092653.csv"))
	assert.True(t, dev.closed, "device must be closed")

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	want := "TimeMS,FuelLevel,InternalTemp,ExternalTemp,Pitch,Phase,MovementDirection\n" +
		"1000,5000,2500,3000,12.50,Movement,Up\n" +
		"1010,No Data,2500,Open Circuit,12.60,Movement,Up\n"
	assert.Equal(t, want, string(data))
	assert.Equal(t, want, echo.String())
}

func TestSession_Run_SkipsUndecodableLines(t *testing.T) {
	s := newSession(t, nil)
	dev := newScripted("first", string([]byte{0xc3, 0x28}), "second")

	res, err := s.Run(context.Background(), dev)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Lines)
	assert.Equal(t, 1, res.Skipped)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestSession_Run_Quiet(t *testing.T) {
	var echo bytes.Buffer
	s := newSession(t, &echo)
	s.cfg.Quiet = true

	_, err := s.Run(context.Background(), newScripted("a", "b"))
	require.NoError(t, err)
	assert.Empty(t, echo.String())
}

func TestSession_Run_ConnectError(t *testing.T) {
	s := newSession(t, nil)
	dev := newScripted()
	dev.connectErr = errors.New("no such port")

	res, err := s.Run(context.Background(), dev)
	assert.Error(t, err)
	assert.False(t, dev.closed)

	assert.NoFileExists(t, res.Path)
	entries, err := os.ReadDir(s.cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSession_Run_BadOutputDir(t *testing.T) {
	s := New(config.CaptureConfig{OutputDir: filepath.Join(t.TempDir(), "missing"), Prefix: "x"}, nil, zerolog.Nop())
	dev := newScripted("a")

	_, err := s.Run(context.Background(), dev)
	assert.Error(t, err)
	assert.True(t, dev.closed)
	assert.False(t, dev.IsConnected())
}

func TestSession_Run_DrainsBufferedLinesOnCancel(t *testing.T) {
	s := newSession(t, nil)
	dev := newScripted("TimeMS,FuelLevel", "0,5000", "10,5001", "20,5002")
	dev.keepOpen = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Run(ctx, dev)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Lines)
	assert.True(t, dev.closed)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "TimeMS,FuelLevel\n0,5000\n10,5001\n20,5002\n", string(data))
}

func TestSession_Run_CancelWithMock(t *testing.T) {
	s := newSession(t, nil)
	mock := device.NewMock(config.MockConfig{SampleRate: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, err := s.Run(ctx, mock)
	require.NoError(t, err)
	assert.False(t, mock.IsConnected())
	require.GreaterOrEqual(t, res.Lines, 1)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Equal(t, res.Lines, len(lines))
	assert.Equal(t, strings.Join(telemetry.Header, ","), lines[0])
}
