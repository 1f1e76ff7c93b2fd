package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// These renderings are wire contract; clients parse the exact text.
func TestMessage_Render_Wire_Formats(t *testing.T) {
	req := require.New(t)

	req.Equal("* alice joined the room", Joined{Nickname: "alice"}.Render())
	req.Equal("* alice left the room", Left{Nickname: "alice"}.Render())
	req.Equal("[alice] hello", Chat{From: "alice", Text: "hello"}.Render())
	req.Equal("[alice] ", Chat{From: "alice", Text: ""}.Render())
}

func TestConnectedUsers_Render_Joins_Roster_With_Comma_Space(t *testing.T) {
	req := require.New(t)

	req.Equal("* Welcome, the room contains: ", ConnectedUsers{}.Render())
	req.Equal("* Welcome, the room contains: alice", ConnectedUsers{Roster: []string{"alice"}}.Render())
	req.Equal("* Welcome, the room contains: alice, bob, cara",
		ConnectedUsers{Roster: []string{"alice", "bob", "cara"}}.Render())
}
