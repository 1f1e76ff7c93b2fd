// Package tcp is the line-of-text transport in front of the chat room.
// It owns everything socket-shaped: accepting connections, reading the
// nickname, relaying inbound lines into the room and rendering outbound
// messages one per line. The room itself never sees a net.Conn.
package tcp

import (
	"bufio"
	"chat-room/runtime"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const nicknamePrompt = "Welcome to our chat room, please enter your nickname:"

// Server accepts TCP connections and serves each on its own goroutine.
// It implements contract.Worker so the supervisor owns its lifecycle.
type Server struct {
	log        *slog.Logger
	room       *runtime.Chatroom
	addr       string
	bufferSize int

	mu        sync.Mutex
	listener  net.Listener
	ready     chan struct{}
	readyOnce sync.Once
}

// NewServer builds a server bound to addr once Run is called. bufferSize is
// the per-connection outbound buffer; when a participant's buffer is full,
// further messages to it are dropped rather than stalling the room.
func NewServer(log *slog.Logger, room *runtime.Chatroom, addr string, bufferSize int) *Server {
	return &Server{
		log:        log,
		room:       room,
		addr:       addr,
		bufferSize: bufferSize,
		ready:      make(chan struct{}),
	}
}

// Run listens on the configured address and accepts until ctx is canceled.
// Cancellation closes the listener, which unblocks Accept; Run then waits
// for the per-connection goroutines to drain before returning.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })

	s.log.Info("Listening", "address", listener.Addr().String())

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.log.Info("Listener closed, waiting for connections to drain")
				wg.Wait()
				return nil
			}
			s.log.Error("Accept failed", "error", err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

// Addr reports the bound address. It blocks until Run has started listening,
// which lets tests bind to ":0" and discover the port.
func (s *Server) Addr() net.Addr {
	<-s.ready
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener.Addr()
}

// handle runs one connection's whole life: prompt, join, relay, leave.
// The deferred session.Close is the only leave path and runs on every exit,
// including panics unwinding through the read loop.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	log := s.log.With("conn", uuid.NewString(), "remote", conn.RemoteAddr().String())
	log.Info("Connection opened")
	defer log.Info("Connection closed")

	// Unblock the socket reads below if the server shuts down mid-connection.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	reader := bufio.NewReader(conn)

	if _, err := fmt.Fprintf(conn, "%s\n", nicknamePrompt); err != nil {
		return
	}
	// A nickname arriving without a trailing newline before EOF still counts,
	// same as a partial final chat line below.
	line, err := reader.ReadString('\n')
	if err != nil && len(line) == 0 {
		log.Debug("Connection dropped before sending a nickname", "error", err)
		return
	}
	nickname := strings.TrimSpace(line)

	sink := NewSink(s.bufferSize)
	session, err := s.room.Join(nickname, sink)
	if err != nil {
		// The error text is the wire contract the legacy clients expect.
		_, _ = fmt.Fprintf(conn, "%s\n", err)
		log.Info("Join refused", "nickname", nickname, "reason", err)
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for m := range sink.Messages() {
			if _, err := fmt.Fprintf(conn, "%s\n", m.Render()); err != nil {
				// Socket is gone: keep draining so the room's enqueues and
				// the final Close are never stranded on a full buffer.
				for range sink.Messages() {
				}
				return
			}
		}
	}()

	// Teardown order matters: leave first so the room stops delivering,
	// only then close the sink and release the writer.
	defer func() {
		session.Close()
		sink.Close()
		<-writerDone
	}()

	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			session.SendMessage(strings.TrimSpace(line))
		}
		if err != nil {
			return
		}
	}
}
