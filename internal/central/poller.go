package central

import (
	"encoding/hex"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultPollInterval is the tick period of the poll cycle
const DefaultPollInterval = 500 * time.Millisecond

// PollSequencer walks each session's armed sequence with at most one read in flight.
type PollSequencer struct {
	stack       Stack
	decoder     ReadDecoder
	reporter    Reporter
	readTimeout time.Duration
	logger      *logrus.Logger
}

// NewPollSequencer creates a sequencer. A zero readTimeout lets a read stay outstanding forever.
func NewPollSequencer(stack Stack, reporter Reporter, readTimeout time.Duration, logger *logrus.Logger) *PollSequencer {
	if reporter == nil {
		reporter = discardReporter{}
	}
	return &PollSequencer{
		stack:       stack,
		reporter:    reporter,
		readTimeout: readTimeout,
		logger:      logger,
	}
}

// Arm installs the armed sequence and resets the cursor.
func (p *PollSequencer) Arm(s *Session, armed []Kind) {
	s.armed = armed
	s.cursor = 0
	s.outstanding = false
}

// Tick issues the next read on every idle, armed session.
func (p *PollSequencer) Tick(sessions []*Session, now time.Time) {
	for _, s := range sessions {
		if s.outstanding && p.readTimeout > 0 && now.Sub(s.issuedAt) >= p.readTimeout {
			p.expire(s, now)
		}
		p.Issue(s, now)
	}
}

// Issue sends a read for the kind under the cursor if the session is idle.
// It returns true when a read is now outstanding.
func (p *PollSequencer) Issue(s *Session, now time.Time) bool {
	if s.outstanding {
		return false
	}
	kind, vh, ok := s.current()
	if !ok {
		return false
	}

	if err := p.stack.Read(s.handle, vh); err != nil {
		// The cursor stays put so the next tick retries the same kind
		p.logger.WithFields(logrus.Fields{
			"role":   s.Role(),
			"handle": s.handle,
			"kind":   kind,
			"error":  err,
		}).Warn("Read request rejected")
		return false
	}

	s.outstanding = true
	s.issuedAt = now
	s.stats.Reads++
	return true
}

// OnReadComplete decodes the outstanding read, reports it and advances the cursor.
// Completions that do not match the outstanding read are stale and dropped.
func (p *PollSequencer) OnReadComplete(s *Session, ev ReadComplete, now time.Time) {
	kind, vh, ok := s.current()
	log := p.logger.WithFields(logrus.Fields{
		"role":         s.Role(),
		"handle":       s.handle,
		"value_handle": ev.ValueHandle,
	})
	if !s.outstanding || !ok || vh != ev.ValueHandle {
		log.Debug("Stale read completion ignored")
		return
	}
	log = log.WithField("kind", kind)

	switch {
	case ev.Err != nil:
		s.stats.ReadErrors++
		log.WithError(ev.Err).Warn("Read failed, sample dropped")
	default:
		sample, err := p.decoder.DecodeRead(s, ev.ValueHandle, ev.Data, now)
		if err != nil {
			s.stats.DecodeErrors++
			var derr *DecodeError
			if errors.As(err, &derr) {
				log.WithField("payload", hex.EncodeToString(ev.Data)).WithError(err).Warn("Malformed sample dropped")
			} else {
				log.WithError(err).Warn("Sample dropped")
			}
			break
		}
		s.stats.Samples++
		log.WithField("value", sample.Value).Debug("Sample decoded")
		p.reporter.Report(sample)
	}

	p.advance(s)
}

// expire abandons an outstanding read that exceeded the read timeout.
func (p *PollSequencer) expire(s *Session, now time.Time) {
	kind, _, _ := s.current()
	p.logger.WithFields(logrus.Fields{
		"role":    s.Role(),
		"handle":  s.handle,
		"kind":    kind,
		"elapsed": now.Sub(s.issuedAt),
		"error":   ErrReadTimeout,
	}).Warn("Read timed out, advancing")
	s.stats.Timeouts++
	p.advance(s)
}

func (p *PollSequencer) advance(s *Session) {
	s.outstanding = false
	s.issuedAt = time.Time{}
	if len(s.armed) > 0 {
		s.cursor = (s.cursor + 1) % len(s.armed)
	}
}
