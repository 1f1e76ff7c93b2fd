package tcp

import (
	"chat-room/domain"
	"chat-room/errors"
)

// Sink is one connection's outbound delivery buffer. The chat room enqueues
// into it under its membership lock, so Consume must stay non-blocking: when
// the buffer is full the message is dropped and the room moves on.
//
// Ownership rule: Close may only be called once the session has left the
// room. While the session is registered the room may call Consume at any
// time, and a send on a closed channel would panic.
type Sink struct {
	messages chan domain.Message
}

func NewSink(bufferSize int) *Sink {
	return &Sink{messages: make(chan domain.Message, bufferSize)}
}

// Consume is called by the chat room during fan-out.
// Redirects the message through the connection's writer goroutine, which
// drains Messages into the socket.
func (s *Sink) Consume(m domain.Message) error {
	select {
	case s.messages <- m:
		return nil
	default:
		return errors.ErrSinkFull
	}
}

// Messages is drained by the connection's writer goroutine.
func (s *Sink) Messages() <-chan domain.Message {
	return s.messages
}

// Close releases the writer goroutine once the buffer is drained.
func (s *Sink) Close() {
	close(s.messages)
}
