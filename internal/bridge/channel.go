package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cristianoliveira/ntfytoast/internal/colors"
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
	"github.com/cristianoliveira/ntfytoast/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// Terminator ends every payload written to a delivery channel.
const Terminator = '\x00'

// DefaultChannelWait bounds how long Deliver waits for a channel to appear.
const DefaultChannelWait = 20 * time.Second

// Deliverer writes payloads to delivery channels.
type Deliverer interface {
	Deliver(ctx context.Context, path, payload string, wait bool) bool
}

// Channel delivers payloads to unix stream sockets owned by the caller.
type Channel struct {
	waitTimeout time.Duration
	dialTimeout time.Duration
	logger      logging.Logger
}

// NewChannel creates a Channel. A non-positive waitTimeout selects
// DefaultChannelWait.
func NewChannel(waitTimeout time.Duration, logger logging.Logger) *Channel {
	if waitTimeout <= 0 {
		waitTimeout = DefaultChannelWait
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Channel{waitTimeout: waitTimeout, dialTimeout: 2 * time.Second, logger: logger}
}

// Deliver writes payload and one terminator to the channel at path. With
// wait set it first waits, bounded, for a listener to show up. An absent
// listener is an expected condition and only reported through the result.
func (c *Channel) Deliver(ctx context.Context, path, payload string, wait bool) bool {
	conn, err := c.connect(ctx, path, wait)
	if err != nil {
		c.logger.Info("delivery channel unavailable", "pipe", path, "payload", payload, "error", err)
		return false
	}
	defer conn.Close()
	conn.SetWriteDeadline(time.Now().Add(c.dialTimeout))

	w := bufio.NewWriter(conn)
	w.WriteString(payload)
	w.WriteByte(Terminator)
	if err := w.Flush(); err != nil {
		c.logger.Warn("failed to write delivery channel", "pipe", path, "payload", payload, "error", err)
		return false
	}
	c.logger.Info("delivered", "pipe", path, "payload", payload)
	return true
}

func (c *Channel) connect(ctx context.Context, path string, wait bool) (net.Conn, error) {
	var d net.Dialer
	if !wait {
		dctx, cancel := context.WithTimeout(ctx, c.dialTimeout)
		defer cancel()
		return d.DialContext(dctx, "unix", path)
	}

	ctx, cancel := context.WithTimeout(ctx, c.waitTimeout)
	defer cancel()
	if err := waitForPath(ctx, path); err != nil {
		return nil, err
	}
	// the socket file exists from bind() on, accept may lag a little
	for {
		conn, err := d.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, ntfyerrors.Wrap(ntfyerrors.ChannelUnavailable, "bridge.Deliver", err)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// waitForPath blocks until path exists or ctx ends, watching the parent
// directory for the file to be created.
func waitForPath(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return pollForPath(ctx, path)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return pollForPath(ctx, path)
	}
	// checked after the watch is in place so a creation in between is not lost
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	target := filepath.Clean(path)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return pollForPath(ctx, path)
			}
			if filepath.Clean(ev.Name) == target && ev.Has(fsnotify.Create) {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok || err != nil {
				return pollForPath(ctx, path)
			}
		case <-ctx.Done():
			return ntfyerrors.Wrap(ntfyerrors.ChannelUnavailable, "bridge.Deliver",
				fmt.Errorf("waiting for %s: %w", path, ctx.Err()))
		}
	}
}

func pollForPath(ctx context.Context, path string) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ntfyerrors.Wrap(ntfyerrors.ChannelUnavailable, "bridge.Deliver",
				fmt.Errorf("waiting for %s: %w", path, ctx.Err()))
		}
	}
}

// Listener is the reading end of a delivery channel.
type Listener struct {
	ln   *net.UnixListener
	path string
}

// Listen creates a delivery channel at path. A stale socket left by a dead
// process is replaced.
func Listen(path string) (*Listener, error) {
	if fi, err := os.Lstat(path); err == nil {
		if fi.Mode()&os.ModeSocket == 0 {
			return nil, ntfyerrors.New(ntfyerrors.ChannelUnavailable, "bridge.Listen", path+" exists and is not a socket")
		}
		if conn, err := net.DialTimeout("unix", path, time.Second); err == nil {
			conn.Close()
			return nil, ntfyerrors.New(ntfyerrors.ChannelUnavailable, "bridge.Listen", path+" is in use")
		}
		os.Remove(path)
	}
	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, ntfyerrors.Wrap(ntfyerrors.ChannelUnavailable, "bridge.Listen", err)
	}
	ln.SetUnlinkOnClose(true)
	return &Listener{ln: ln, path: path}, nil
}

// Path returns the socket path.
func (l *Listener) Path() string {
	return l.path
}

// Receive accepts one writer and reads its payload up to the terminator.
func (l *Listener) Receive(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", ntfyerrors.Wrap(ntfyerrors.Timeout, "bridge.Receive", err)
		}
		deadline := time.Now().Add(250 * time.Millisecond)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		l.ln.SetDeadline(deadline)

		conn, err := l.ln.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return "", ntfyerrors.Wrap(ntfyerrors.ChannelUnavailable, "bridge.Receive", err)
		}
		payload, err := readPayload(ctx, conn)
		if err == nil {
			colors.StructuredDebug("channel", "receive", "received", nil, "", map[string]any{"path": l.path, "bytes": len(payload)})
		}
		return payload, err
	}
}

func readPayload(ctx context.Context, conn net.Conn) (string, error) {
	defer conn.Close()
	if d, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(d)
	}
	data, err := bufio.NewReader(conn).ReadString(Terminator)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", ntfyerrors.Wrap(ntfyerrors.ChannelUnavailable, "bridge.Receive", err)
	}
	return strings.TrimSuffix(data, string(Terminator)), nil
}

// Close stops listening and removes the socket file.
func (l *Listener) Close() error {
	return l.ln.Close()
}
