package central

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrStackClosed is returned by Run when the stack closes its event channel
var ErrStackClosed = errors.New("stack event channel closed")

// Options configures a Central
type Options struct {
	Logger        *logrus.Logger
	Reporter      Reporter
	PollInterval  time.Duration // zero means DefaultPollInterval
	ReadTimeout   time.Duration // zero disables read timeouts
	ConnectParams *ConnectParams
	Clock         func() time.Time
}

// Central wires the components together and owns the dispatch loop.
// It is not safe for concurrent use: every method must be called from the
// goroutine that runs Run, or with Run not running.
type Central struct {
	stack     Stack
	peers     []*PeerSpec
	table     *ConnectionTable
	scanner   *Scanner
	discovery *DiscoveryCoordinator
	poller    *PollSequencer
	interval  time.Duration
	clock     func() time.Time
	logger    *logrus.Logger
	started   bool
}

// New validates the peer list and builds a Central on top of a stack.
func New(stack Stack, peers []*PeerSpec, opts Options) (*Central, error) {
	if stack == nil {
		return nil, ErrNilStack
	}
	if len(peers) == 0 {
		return nil, ErrNoPeers
	}
	seen := make(map[Role]struct{}, len(peers))
	for _, p := range peers {
		if _, dup := seen[p.Role]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRole, p.Role)
		}
		seen[p.Role] = struct{}{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	params := DefaultConnectParams()
	if opts.ConnectParams != nil {
		params = *opts.ConnectParams
	}

	table := NewConnectionTable()
	return &Central{
		stack:     stack,
		peers:     peers,
		table:     table,
		scanner:   NewScanner(stack, peers, table, params, logger),
		discovery: NewDiscoveryCoordinator(stack, logger),
		poller:    NewPollSequencer(stack, opts.Reporter, opts.ReadTimeout, logger),
		interval:  interval,
		clock:     clock,
		logger:    logger,
	}, nil
}

func (c *Central) Table() *ConnectionTable { return c.table }
func (c *Central) Scanner() *Scanner       { return c.scanner }
func (c *Central) Peers() []*PeerSpec      { return c.peers }

// Start begins scanning. Calling it again is a no-op.
func (c *Central) Start() {
	if c.started {
		return
	}
	c.started = true
	c.logger.WithField("peers", len(c.peers)).Info("Central starting")
	c.scanner.Start()
}

// Run starts the central and dispatches stack events and ticks until ctx is done.
func (c *Central) Run(ctx context.Context) error {
	c.Start()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	events := c.stack.Events()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Central stopped")
			return ctx.Err()
		case at := <-ticker.C:
			c.Dispatch(Tick{At: at})
		case ev, ok := <-events:
			if !ok {
				return ErrStackClosed
			}
			c.Dispatch(ev)
		}
	}
}

// Dispatch routes one event to the owning component.
func (c *Central) Dispatch(ev Event) {
	switch e := ev.(type) {
	case Advertisement:
		c.scanner.OnAdvertisement(e)
	case ConnectComplete:
		c.onConnectComplete(e)
	case ConnectFailed:
		c.scanner.OnConnectFailed(e.Address, e.Err)
	case Disconnect:
		c.onDisconnect(e)
	case ScanStopped:
		c.scanner.OnScanStopped(e.Err)
	case CharacteristicDiscovered:
		if s, ok := c.live(e.Handle, "characteristic"); ok {
			c.discovery.OnCharacteristic(s, e)
		}
	case DiscoveryTerminated:
		c.onDiscoveryTerminated(e)
	case ReadComplete:
		if s, ok := c.live(e.Handle, "read"); ok {
			c.poller.OnReadComplete(s, e, c.clock())
		}
	case Tick:
		at := e.At
		if at.IsZero() {
			at = c.clock()
		}
		c.scanner.Start()
		c.poller.Tick(c.table.Sessions(), at)
	default:
		c.logger.WithField("event", fmt.Sprintf("%T", ev)).Warn("Unknown event ignored")
	}
}

func (c *Central) onConnectComplete(e ConnectComplete) {
	log := c.logger.WithFields(logrus.Fields{
		"handle":  e.Handle,
		"address": e.Address,
	})
	if e.OwnRole != LinkCentral {
		log.Debug("Connection in peripheral role ignored")
		return
	}

	peer, ok := c.scanner.BindConnection(e.Address)
	if !ok {
		log.Warn("Connection does not match any peer, disconnecting")
		c.drop(e.Handle, log)
		return
	}
	if existing, connected := c.table.ByRole(peer.Role); connected && existing.handle != e.Handle {
		log.WithField("role", peer.Role).Warn("Role already connected, disconnecting duplicate")
		c.drop(e.Handle, log)
		c.scanner.AfterConnect()
		return
	}

	s, replaced := c.table.OnConnectComplete(e.Handle, peer, e.Address, c.clock())
	if replaced != nil {
		log.WithField("previous_role", replaced.Role()).Warn("Handle reused without disconnect, previous session dropped")
	}
	log.WithField("role", peer.Role).Info("Peer connected")

	c.discovery.Start(s)
	c.scanner.AfterConnect()
}

// drop closes a link that never got a session
func (c *Central) drop(h Handle, log *logrus.Entry) {
	if err := c.stack.Disconnect(h); err != nil {
		log.WithError(err).Warn("Failed to disconnect, link left open")
	}
}

func (c *Central) onDisconnect(e Disconnect) {
	s, ok := c.table.OnDisconnect(e.Handle)
	if !ok {
		c.logger.WithField("handle", e.Handle).Debug("Disconnect for unknown handle ignored")
		return
	}
	c.logger.WithFields(logrus.Fields{
		"role":   s.Role(),
		"handle": e.Handle,
		"reason": e.Reason,
		"stats":  fmt.Sprintf("%+v", s.stats),
	}).Info("Peer disconnected")
	c.scanner.OnDisconnect()
}

func (c *Central) onDiscoveryTerminated(e DiscoveryTerminated) {
	s, ok := c.live(e.Handle, "discovery termination")
	if !ok {
		return
	}
	if s.discovery != DiscoveryInProgress {
		c.logger.WithField("handle", e.Handle).Debug("Duplicate discovery termination ignored")
		return
	}
	if e.Err != nil {
		c.logger.WithFields(logrus.Fields{
			"role":   s.Role(),
			"handle": e.Handle,
			"error":  e.Err,
		}).Warn("Discovery ended with error")
	}

	armed := c.discovery.Terminate(s)
	if len(armed) == 0 {
		return
	}
	c.poller.Arm(s, armed)
	c.poller.Issue(s, c.clock())
}

// live looks up the session an event refers to; stale handles are logged and dropped.
func (c *Central) live(h Handle, what string) (*Session, bool) {
	s, ok := c.table.Lookup(h)
	if !ok {
		c.logger.WithFields(logrus.Fields{
			"handle": h,
			"event":  what,
			"error":  ErrStaleHandle,
		}).Debug("Stale event ignored")
	}
	return s, ok
}
