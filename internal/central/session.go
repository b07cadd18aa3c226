package central

import (
	"fmt"
	"sort"
	"time"
)

// DiscoveryState is the attribute discovery progress of a session
type DiscoveryState int

const (
	DiscoveryNotStarted DiscoveryState = iota
	DiscoveryInProgress
	DiscoveryComplete
)

func (s DiscoveryState) String() string {
	switch s {
	case DiscoveryNotStarted:
		return "not_started"
	case DiscoveryInProgress:
		return "in_progress"
	case DiscoveryComplete:
		return "complete"
	default:
		return fmt.Sprintf("DiscoveryState(%d)", int(s))
	}
}

// SessionStats counts poll activity of one session
type SessionStats struct {
	Reads        uint64
	Samples      uint64
	DecodeErrors uint64
	ReadErrors   uint64
	Timeouts     uint64
}

// Session is the live state of one connected peer.
// The role is bound at connect-complete and never changes.
type Session struct {
	handle      Handle
	peer        *PeerSpec
	address     Address
	connectedAt time.Time

	discovery DiscoveryState
	handles   map[Kind]ValueHandle

	armed       []Kind
	cursor      int
	outstanding bool
	issuedAt    time.Time

	stats SessionStats
}

func newSession(h Handle, peer *PeerSpec, addr Address, at time.Time) *Session {
	return &Session{
		handle:      h,
		peer:        peer,
		address:     addr,
		connectedAt: at,
		discovery:   DiscoveryNotStarted,
		handles:     make(map[Kind]ValueHandle),
	}
}

func (s *Session) Handle() Handle            { return s.handle }
func (s *Session) Role() Role                { return s.peer.Role }
func (s *Session) Peer() *PeerSpec           { return s.peer }
func (s *Session) Address() Address          { return s.address }
func (s *Session) ConnectedAt() time.Time    { return s.connectedAt }
func (s *Session) Discovery() DiscoveryState { return s.discovery }
func (s *Session) Cursor() int               { return s.cursor }
func (s *Session) Outstanding() bool         { return s.outstanding }
func (s *Session) Stats() SessionStats       { return s.stats }

// Armed returns a copy of the armed kind sequence.
func (s *Session) Armed() []Kind {
	return append([]Kind(nil), s.armed...)
}

// ValueHandle returns the value handle discovered for a kind.
func (s *Session) ValueHandle(k Kind) (ValueHandle, bool) {
	vh, ok := s.handles[k]
	return vh, ok
}

// KindFor maps a value handle back to its kind.
func (s *Session) KindFor(vh ValueHandle) (Kind, bool) {
	for k, h := range s.handles {
		if h == vh {
			return k, true
		}
	}
	return KindUnknown, false
}

// current returns the kind under the cursor and its value handle.
func (s *Session) current() (Kind, ValueHandle, bool) {
	if s.discovery != DiscoveryComplete || len(s.armed) == 0 {
		return KindUnknown, 0, false
	}
	k := s.armed[s.cursor]
	vh, ok := s.handles[k]
	return k, vh, ok
}

// ConnectionTable maps connection handles to sessions.
// It is the single source of truth for who is connected.
type ConnectionTable struct {
	sessions map[Handle]*Session
}

func NewConnectionTable() *ConnectionTable {
	return &ConnectionTable{sessions: make(map[Handle]*Session)}
}

// OnConnectComplete creates the session for a new link.
// A live session already using the handle is returned as replaced.
func (t *ConnectionTable) OnConnectComplete(h Handle, peer *PeerSpec, addr Address, at time.Time) (s *Session, replaced *Session) {
	replaced = t.sessions[h]
	s = newSession(h, peer, addr, at)
	t.sessions[h] = s
	return s, replaced
}

// OnDisconnect removes the session of a handle.
func (t *ConnectionTable) OnDisconnect(h Handle) (*Session, bool) {
	s, ok := t.sessions[h]
	if ok {
		delete(t.sessions, h)
	}
	return s, ok
}

// Lookup returns the live session of a handle.
func (t *ConnectionTable) Lookup(h Handle) (*Session, bool) {
	s, ok := t.sessions[h]
	return s, ok
}

// ByRole returns the live session bound to a role.
func (t *ConnectionTable) ByRole(r Role) (*Session, bool) {
	for _, s := range t.sessions {
		if s.Role() == r {
			return s, true
		}
	}
	return nil, false
}

func (t *ConnectionTable) Len() int {
	return len(t.sessions)
}

// Sessions returns live sessions ordered by handle.
func (t *ConnectionTable) Sessions() []*Session {
	out := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].handle < out[j].handle
	})
	return out
}
