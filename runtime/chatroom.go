package runtime

import (
	"chat-room/contract"
	"chat-room/domain"
	"chat-room/errors"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

// SessionID is the synthetic identity of one live participant. IDs are
// allocated monotonically and never exposed outside this package.
type SessionID uint64

type participant struct {
	nickname string
	sink     contract.MessageSink
}

// Chatroom is the shared membership table and broadcast engine.
//
// One mutex guards the whole table. Every operation runs its complete
// read-validate-mutate-deliver sequence inside that single critical section,
// so join, leave and message fan-out are totally ordered relative to each
// other: no participant can observe a roster change between the roster
// snapshot a joiner receives and the insertion of its record.
//
// Sinks are required to be non-blocking (see contract.MessageSink), which is
// what keeps holding the lock across fan-out safe: a slow or dead
// participant costs a dropped message, never a stalled room.
type Chatroom struct {
	log *slog.Logger

	mu            sync.Mutex
	sessions      map[SessionID]participant
	lastSessionID SessionID
}

func NewChatroom(log *slog.Logger) *Chatroom {
	return &Chatroom{
		log:      log,
		sessions: make(map[SessionID]participant),
	}
}

// Join registers a participant under nickname and returns the Session handle
// owning that registration.
//
// Validation order is fixed: shape first (errors.ErrInvalidNickname), then
// uniqueness against the live table (errors.ErrDuplicateNickname). On either
// error the table is untouched.
//
// On success, atomically: the joiner's sink receives ConnectedUsers with the
// pre-join roster, every already-registered sink receives Joined, and the
// record is inserted under a fresh SessionID. Delivery failures are dropped;
// they never fail the join.
func (c *Chatroom) Join(nickname string, sink contract.MessageSink) (*Session, error) {
	if err := domain.ValidateNickname(nickname); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.sessions {
		if p.nickname == nickname {
			return nil, errors.ErrDuplicateNickname
		}
	}

	roster := lo.Map(lo.Values(c.sessions), func(p participant, _ int) string {
		return p.nickname
	})
	c.deliver(sink, domain.ConnectedUsers{Roster: roster})

	for _, p := range c.sessions {
		c.deliver(p.sink, domain.Joined{Nickname: nickname})
	}

	c.lastSessionID++
	id := c.lastSessionID
	c.sessions[id] = participant{nickname: nickname, sink: sink}

	c.log.Info("Participant joined", "nickname", nickname, "participants", len(c.sessions))

	return &Session{id: id, room: c}, nil
}

// Len reports the number of currently registered participants.
func (c *Chatroom) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Roster returns a snapshot of the registered nicknames, in no particular order.
func (c *Chatroom) Roster() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Map(lo.Values(c.sessions), func(p participant, _ int) string {
		return p.nickname
	})
}

// leave removes the session's record if present and broadcasts Left to the
// remaining participants. Unknown sessions are a silent no-op, which makes
// the operation idempotent.
func (c *Chatroom) leave(id SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.sessions[id]
	if !ok {
		return
	}
	delete(c.sessions, id)

	for _, other := range c.sessions {
		c.deliver(other.sink, domain.Left{Nickname: p.nickname})
	}

	c.log.Info("Participant left", "nickname", p.nickname, "participants", len(c.sessions))
}

// sendMessage fans text out to every registered participant except the
// sender. A session that already left (raced with its own disconnect) is a
// silent no-op.
func (c *Chatroom) sendMessage(id SessionID, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	from, ok := c.sessions[id]
	if !ok {
		return
	}

	for other, p := range c.sessions {
		if other == id {
			continue
		}
		c.deliver(p.sink, domain.Chat{From: from.nickname, Text: text})
	}
}

// deliver is called with c.mu held. Failures are swallowed: an unreachable
// sink is the connection handler's problem, not the room's.
func (c *Chatroom) deliver(sink contract.MessageSink, m domain.Message) {
	if err := sink.Consume(m); err != nil {
		c.log.Debug("Dropping undeliverable message", "error", err)
	}
}

// Session is the capability returned by Join. Exactly one handle exists per
// live participant; the connection handler owns it and must Close it on
// every exit path, typically via defer.
type Session struct {
	id   SessionID
	room *Chatroom
	once sync.Once
}

// SendMessage broadcasts one text line to every other participant. Text is
// opaque and delivered as-is, including the empty string. After Close this
// is a harmless no-op.
func (s *Session) SendMessage(text string) {
	s.room.sendMessage(s.id, text)
}

// Close leaves the room. Safe to call more than once; the Left broadcast is
// emitted at most once.
func (s *Session) Close() {
	s.once.Do(func() {
		s.room.leave(s.id)
	})
}
