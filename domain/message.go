// Package domain contains core concepts of the chat room.
// This file defines the Message variants delivered to participants and their
// canonical text rendering. Renderings are a wire contract: clients receive
// exactly these lines, so the formats must never change.
package domain

import (
	"fmt"
	"strings"
)

// Message is one event delivered to a participant. Values are immutable once
// constructed and Render is pure.
type Message interface {
	Render() string
}

// Joined is broadcast to every already-connected participant when a new
// participant enters the room.
type Joined struct {
	Nickname string
}

func (m Joined) Render() string {
	return fmt.Sprintf("* %s joined the room", m.Nickname)
}

// Left is broadcast to every remaining participant when a participant leaves.
type Left struct {
	Nickname string
}

func (m Left) Render() string {
	return fmt.Sprintf("* %s left the room", m.Nickname)
}

// ConnectedUsers is delivered to a joining participant only, right before it
// is registered. Roster holds the nicknames present at that instant.
type ConnectedUsers struct {
	Roster []string
}

func (m ConnectedUsers) Render() string {
	return fmt.Sprintf("* Welcome, the room contains: %s", strings.Join(m.Roster, ", "))
}

// Chat carries one text line from a participant to every other participant.
// Text is opaque: no length limit, no filtering, empty allowed.
type Chat struct {
	From string
	Text string
}

func (m Chat) Render() string {
	return fmt.Sprintf("[%s] %s", m.From, m.Text)
}
