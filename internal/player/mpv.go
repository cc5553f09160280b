package player

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/mgpai22/sublisten/internal/ffmpeg"
)

// ErrPropertyUnavailable is mpv's answer for properties that have no value
// yet, such as time-pos before the file is loaded.
var ErrPropertyUnavailable = errors.New("mpv: property unavailable")

const ipcTimeout = 2 * time.Second

type MPVOptions struct {
	// Binary defaults to the ffmpeg tool locator's mpv lookup.
	Binary string
	// SocketPath defaults to a per-process path in the temp dir.
	SocketPath  string
	StartPaused bool
	// Volume is passed as --volume when set; 0 mutes.
	Volume       *int
	StartTimeout time.Duration
}

// MPV drives an mpv process through its JSON IPC socket. Requests are
// serialized; mpv answers in order but interleaves event lines, which are
// skipped.
type MPV struct {
	cmd    *exec.Cmd
	socket string
	stderr *bytes.Buffer

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	nextID int

	done   chan struct{}
	closed bool
}

type ipcRequest struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id"`
}

type ipcResponse struct {
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	RequestID int             `json:"request_id"`
	Event     string          `json:"event"`
}

// StartMPV launches mpv on mediaPath without video or terminal output and
// connects to its IPC socket.
func StartMPV(ctx context.Context, mediaPath string, opts MPVOptions) (*MPV, error) {
	if _, err := os.Stat(mediaPath); err != nil {
		return nil, fmt.Errorf("audio file not readable: %w", err)
	}

	binary := opts.Binary
	if binary == "" {
		var err error
		if binary, err = ffmpeg.MPVPath(); err != nil {
			return nil, err
		}
	}

	socket := opts.SocketPath
	if socket == "" {
		socket = filepath.Join(os.TempDir(), fmt.Sprintf("sublisten-%d.sock", os.Getpid()))
	}
	_ = os.Remove(socket)

	cmd := exec.Command(binary, mpvArgs(socket, mediaPath, opts)...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mpv: %w", err)
	}

	m := &MPV{
		cmd:    cmd,
		socket: socket,
		stderr: stderr,
		done:   make(chan struct{}),
	}
	go func() {
		_ = cmd.Wait()
		close(m.done)
	}()

	timeout := opts.StartTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	conn, err := dialSocket(ctx, socket, timeout, m.done)
	if err != nil {
		_ = cmd.Process.Kill()
		<-m.done
		return nil, fmt.Errorf("mpv did not open its IPC socket: %w (stderr: %s)", err, stderr.String())
	}
	m.attach(conn)

	return m, nil
}

func mpvArgs(socket, mediaPath string, opts MPVOptions) []string {
	args := []string{
		"--no-video",
		"--no-terminal",
		"--keep-open=yes",
		"--input-ipc-server=" + socket,
	}
	if opts.StartPaused {
		args = append(args, "--pause")
	}
	if opts.Volume != nil {
		args = append(args, "--volume="+strconv.Itoa(*opts.Volume))
	}
	return append(args, "--", mediaPath)
}

// DialMPV connects to an mpv instance that is already listening on socket,
// typically one started by the user with --input-ipc-server. The instance
// is not ours: Close drops the connection and leaves mpv running.
func DialMPV(ctx context.Context, socket string, timeout time.Duration) (*MPV, error) {
	m := &MPV{
		socket: socket,
		done:   make(chan struct{}),
	}
	conn, err := dialSocket(ctx, socket, timeout, nil)
	if err != nil {
		return nil, err
	}
	m.attach(conn)
	return m, nil
}

func (m *MPV) attach(conn net.Conn) {
	m.conn = conn
	m.reader = bufio.NewReader(conn)
}

// retries until the socket accepts, the process exits or time runs out
func dialSocket(ctx context.Context, socket string, timeout time.Duration, exited <-chan struct{}) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "unix", socket)
		if err == nil {
			return conn, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("dial %s: %w", socket, err)
		case <-exited:
			return nil, fmt.Errorf("mpv exited before accepting connections")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (m *MPV) command(args ...any) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.conn == nil {
		return nil, ErrNotRunning
	}

	m.nextID++
	id := m.nextID
	payload, err := json.Marshal(ipcRequest{Command: args, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("encode mpv command: %w", err)
	}

	_ = m.conn.SetDeadline(time.Now().Add(ipcTimeout))
	if _, err := m.conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write mpv command: %w", err)
	}

	for {
		line, err := m.reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("read mpv reply: %w", err)
		}
		var resp ipcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return nil, fmt.Errorf("decode mpv reply %q: %w", bytes.TrimSpace(line), err)
		}
		if resp.Event != "" || resp.RequestID != id {
			continue
		}
		switch resp.Error {
		case "success":
			return resp.Data, nil
		case "property unavailable":
			return nil, ErrPropertyUnavailable
		default:
			return nil, fmt.Errorf("mpv %v: %s", args[0], resp.Error)
		}
	}
}

func (m *MPV) getFloat(property string) (float64, error) {
	data, err := m.command("get_property", property)
	if err != nil {
		return 0, err
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("decode %s: %w", property, err)
	}
	return v, nil
}

// Position is time-pos; before the file is loaded it reads as zero.
func (m *MPV) Position() (time.Duration, error) {
	sec, err := m.getFloat("time-pos")
	if errors.Is(err, ErrPropertyUnavailable) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// Duration of the loaded file as mpv reports it.
func (m *MPV) Duration() (time.Duration, error) {
	sec, err := m.getFloat("duration")
	if err != nil {
		return 0, err
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func (m *MPV) Seek(pos time.Duration) error {
	_, err := m.command("seek", pos.Seconds(), "absolute+exact")
	return err
}

func (m *MPV) Paused() (bool, error) {
	data, err := m.command("get_property", "pause")
	if err != nil {
		return false, err
	}
	var paused bool
	if err := json.Unmarshal(data, &paused); err != nil {
		return false, fmt.Errorf("decode pause: %w", err)
	}
	return paused, nil
}

func (m *MPV) SetPaused(paused bool) error {
	_, err := m.command("set_property", "pause", paused)
	return err
}

func (m *MPV) Done() <-chan struct{} {
	return m.done
}

// Close asks a started mpv to quit, then kills it if it lingers. An
// attached mpv only loses the connection.
func (m *MPV) Close() error {
	if m.cmd != nil {
		_, _ = m.command("quit")
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	var err error
	if m.conn != nil {
		err = m.conn.Close()
	}
	m.mu.Unlock()

	if m.cmd == nil {
		close(m.done)
		return err
	}

	select {
	case <-m.done:
	case <-time.After(ipcTimeout):
		_ = m.cmd.Process.Kill()
		<-m.done
	}
	_ = os.Remove(m.socket)
	return err
}
