package bridge

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cristianoliveira/ntfytoast/internal/action"
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
	"github.com/cristianoliveira/ntfytoast/internal/logging"
	"github.com/google/uuid"
)

// eventNamespace derives socket names for event names that cannot be used
// verbatim.
var eventNamespace = uuid.MustParse("6c0c3f4e-2b8e-5d7a-9f61-0a4e1f3b7c25")

const (
	// sun_path is 108 bytes on Linux, 104 on the BSDs.
	maxSocketPath = 104
	socketSuffix  = ".sock"

	cmdSignal = "signal"
	replyOK   = "ok"
)

// Registry owns the named events of this process. Each event created here
// also listens on a unix socket under dir so other processes can signal it.
type Registry struct {
	dir         string
	logger      logging.Logger
	dialTimeout time.Duration

	mu     sync.Mutex
	events map[string]*Event
}

// NewRegistry creates a registry keeping its sockets in dir.
func NewRegistry(dir string, logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Registry{
		dir:         dir,
		logger:      logger,
		dialTimeout: 2 * time.Second,
		events:      make(map[string]*Event),
	}
}

// Dir returns the socket directory.
func (r *Registry) Dir() string {
	return r.dir
}

// SocketPath returns where the event called name listens.
func (r *Registry) SocketPath(name string) string {
	return filepath.Join(r.dir, socketName(r.dir, name))
}

func socketName(dir, name string) string {
	plain := name + socketSuffix
	if safeName(name) && len(filepath.Join(dir, plain)) < maxSocketPath {
		return plain
	}
	return uuid.NewSHA1(eventNamespace, []byte(name)).String() + socketSuffix
}

func safeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// Create returns the event called name, creating it on first use. A new
// event starts listening for remote signals; when that fails the event still
// works inside this process and a warning is logged.
func (r *Registry) Create(name string) *Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.events[name]; ok {
		return e
	}
	e := newEvent(name)
	e.onClose = func() { r.forget(e) }
	r.events[name] = e

	if err := r.listen(e); err != nil {
		r.logger.Warn("event is local to this process", "event", name, "error", err)
	}
	return e
}

func (r *Registry) forget(e *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events[e.name] == e {
		delete(r.events, e.name)
	}
}

func (r *Registry) listen(e *Event) error {
	if err := os.MkdirAll(r.dir, 0700); err != nil {
		return fmt.Errorf("create event dir: %w", err)
	}
	path := r.SocketPath(e.name)
	if _, err := os.Lstat(path); err == nil {
		if r.ping(path) {
			return fmt.Errorf("event %s is owned by another process", e.name)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove stale socket: %w", err)
		}
		r.logger.Debug("removed stale event socket", "path", path)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", path, err)
	}
	e.ln = ln
	e.path = path
	go r.serve(e, ln)
	return nil
}

func (r *Registry) serve(e *Event, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				r.logger.Warn("event listener stopped", "event", e.name, "error", err)
			}
			return
		}
		go r.handle(e, conn)
	}
}

// handle serves one remote command: "signal" or "signal <kind>".
func (r *Registry) handle(e *Event, conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(r.dialTimeout))

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		return
	}
	fields := strings.Fields(line)
	switch {
	case len(fields) == 0:
		// ping
	case fields[0] != cmdSignal || len(fields) > 2:
		fmt.Fprintf(conn, "error unknown command %q\n", strings.TrimSpace(line))
		return
	case len(fields) == 2:
		kind := action.Parse(fields[1])
		e.SignalWith(kind)
		r.logger.Debug("event signaled remotely", "event", e.name, "action", kind.String())
	default:
		e.Signal()
		r.logger.Debug("event signaled remotely", "event", e.name)
	}
	fmt.Fprintln(conn, replyOK)
}

// ping reports whether a live process answers on path.
func (r *Registry) ping(path string) bool {
	return remoteEvent{path: path, timeout: r.dialTimeout}.send("") == nil
}

// Open finds the event called name, in this process or owned by another
// one. ok is false when no such event exists.
func (r *Registry) Open(name string) (Signaler, bool) {
	r.mu.Lock()
	e, ok := r.events[name]
	r.mu.Unlock()
	if ok {
		return e, true
	}
	path := r.SocketPath(name)
	if fi, err := os.Lstat(path); err != nil || fi.Mode()&os.ModeSocket == 0 {
		return nil, false
	}
	return remoteEvent{path: path, timeout: r.dialTimeout}, true
}

// Signal wakes the event called name. It reports false when the event cannot
// be opened or its owner does not answer.
func (r *Registry) Signal(name string) bool {
	s, ok := r.Open(name)
	if !ok {
		return false
	}
	if err := s.Signal(); err != nil {
		r.logger.Debug("signal failed", "event", name, "error", err)
		return false
	}
	return true
}

// SignalWith is Signal carrying an outcome.
func (r *Registry) SignalWith(name string, kind action.Kind) bool {
	s, ok := r.Open(name)
	if !ok {
		return false
	}
	if err := s.SignalWith(kind); err != nil {
		r.logger.Debug("signal failed", "event", name, "action", kind.String(), "error", err)
		return false
	}
	return true
}

// Close closes every event of the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	events := make([]*Event, 0, len(r.events))
	for _, e := range r.events {
		events = append(events, e)
	}
	r.mu.Unlock()

	var errs []error
	for _, e := range events {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// remoteEvent is an event owned by another process.
type remoteEvent struct {
	path    string
	timeout time.Duration
}

func (r remoteEvent) Signal() error {
	return r.send(cmdSignal)
}

func (r remoteEvent) SignalWith(kind action.Kind) error {
	return r.send(cmdSignal + " " + kind.String())
}

func (r remoteEvent) send(cmd string) error {
	conn, err := net.DialTimeout("unix", r.path, r.timeout)
	if err != nil {
		return ntfyerrors.Wrap(ntfyerrors.ChannelUnavailable, "bridge.signal", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(r.timeout))

	if _, err := fmt.Fprintln(conn, cmd); err != nil {
		return ntfyerrors.Wrap(ntfyerrors.ChannelUnavailable, "bridge.signal", err)
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return ntfyerrors.Wrap(ntfyerrors.ChannelUnavailable, "bridge.signal", err)
	}
	if reply = strings.TrimSpace(reply); reply != replyOK {
		return ntfyerrors.New(ntfyerrors.ChannelUnavailable, "bridge.signal", reply)
	}
	return nil
}
