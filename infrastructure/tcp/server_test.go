package tcp

import (
	"bufio"
	"chat-room/runtime"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) string {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	room := runtime.NewChatroom(log)
	server := NewServer(log, room, "127.0.0.1:0", 64)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = server.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})
	return server.Addr().String()
}

type testClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, addr string) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (c *testClient) readLine() string {
	c.t.Helper()
	line, err := c.reader.ReadString('\n')
	require.NoError(c.t, err)
	return strings.TrimRight(line, "\n")
}

func (c *testClient) sendLine(text string) {
	c.t.Helper()
	_, err := fmt.Fprintf(c.conn, "%s\n", text)
	require.NoError(c.t, err)
}

// join dials, answers the nickname prompt and consumes the welcome line.
func join(t *testing.T, addr, nickname string) *testClient {
	t.Helper()
	c := dial(t, addr)
	require.Equal(t, "Welcome to our chat room, please enter your nickname:", c.readLine())
	c.sendLine(nickname)
	require.True(t, strings.HasPrefix(c.readLine(), "* Welcome, the room contains:"))
	return c
}

func TestServer_Scenario_Alice_And_Bob(t *testing.T) {
	req := require.New(t)
	addr := startServer(t)

	// alice joins an empty room
	alice := dial(t, addr)
	req.Equal("Welcome to our chat room, please enter your nickname:", alice.readLine())
	alice.sendLine("alice")
	req.Equal("* Welcome, the room contains: ", alice.readLine())

	// bob joins and both sides see it
	bob := dial(t, addr)
	req.Equal("Welcome to our chat room, please enter your nickname:", bob.readLine())
	bob.sendLine("bob")
	req.Equal("* Welcome, the room contains: alice", bob.readLine())
	req.Equal("* bob joined the room", alice.readLine())

	// alice speaks; only bob hears her
	alice.sendLine("hi")
	req.Equal("[alice] hi", bob.readLine())

	// bob hangs up; alice is told
	req.NoError(bob.conn.Close())
	req.Equal("* bob left the room", alice.readLine())

	// alice speaking to an empty audience is not an error
	alice.sendLine("yo")
	req.NoError(alice.conn.Close())
}

func TestServer_Empty_Chat_Line_Is_Delivered(t *testing.T) {
	req := require.New(t)
	addr := startServer(t)

	alice := join(t, addr, "alice")
	bob := join(t, addr, "bob")
	req.Equal("* bob joined the room", alice.readLine())

	alice.sendLine("")
	req.Equal("[alice] ", bob.readLine())
}

func TestServer_Rejects_Invalid_Nickname_And_Closes(t *testing.T) {
	req := require.New(t)
	addr := startServer(t)

	c := dial(t, addr)
	req.Equal("Welcome to our chat room, please enter your nickname:", c.readLine())
	c.sendLine("not a nickname!")
	req.Equal("Nickname can only alphanumerical characters.", c.readLine())

	// Then the server hangs up
	_, err := c.reader.ReadString('\n')
	req.Error(err)
}

func TestServer_Rejects_Duplicate_Nickname_And_Closes(t *testing.T) {
	req := require.New(t)
	addr := startServer(t)

	join(t, addr, "sam")

	c := dial(t, addr)
	req.Equal("Welcome to our chat room, please enter your nickname:", c.readLine())
	c.sendLine("sam")
	req.Equal("Nickname already used.", c.readLine())

	_, err := c.reader.ReadString('\n')
	req.Error(err)
}

func TestServer_Nickname_Is_Trimmed_Before_Join(t *testing.T) {
	req := require.New(t)
	addr := startServer(t)

	alice := dial(t, addr)
	req.Equal("Welcome to our chat room, please enter your nickname:", alice.readLine())
	alice.sendLine("  alice\r")
	req.Equal("* Welcome, the room contains: ", alice.readLine())

	join(t, addr, "bob")
	req.Equal("* bob joined the room", alice.readLine())
}

func TestServer_Accepts_Nickname_Without_Trailing_Newline(t *testing.T) {
	req := require.New(t)
	addr := startServer(t)

	alice := join(t, addr, "alice")

	// bob's client sends its nickname and hangs up its write side without a
	// final newline
	bob := dial(t, addr)
	req.Equal("Welcome to our chat room, please enter your nickname:", bob.readLine())
	_, err := bob.conn.Write([]byte("bob"))
	req.NoError(err)
	req.NoError(bob.conn.(*net.TCPConn).CloseWrite())

	// bob still joins, and leaves as soon as the read loop sees EOF
	req.Equal("* Welcome, the room contains: alice", bob.readLine())
	req.Equal("* bob joined the room", alice.readLine())
	req.Equal("* bob left the room", alice.readLine())
}

func TestServer_Shutdown_Disconnects_Clients(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	room := runtime.NewChatroom(log)
	server := NewServer(log, room, "127.0.0.1:0", 64)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = server.Run(ctx)
	}()

	c := join(t, server.Addr().String(), "alice")
	req.Equal(1, room.Len())

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		req.Fail("server did not drain connections on shutdown")
	}

	// The connection was closed server-side and the room emptied
	_, err := c.reader.ReadString('\n')
	req.Error(err)
	req.Zero(room.Len())
}
