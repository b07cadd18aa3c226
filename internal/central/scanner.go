package central

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ScanState is the state of the scan/connect state machine
type ScanState int

const (
	ScanIdle ScanState = iota
	ScanScanning
	ScanStoppingToConnect
	ScanConnectPending
)

func (s ScanState) String() string {
	switch s {
	case ScanIdle:
		return "idle"
	case ScanScanning:
		return "scanning"
	case ScanStoppingToConnect:
		return "stopping_to_connect"
	case ScanConnectPending:
		return "connect_pending"
	default:
		return fmt.Sprintf("ScanState(%d)", int(s))
	}
}

// Scanner owns scan on/off state and the single pending connection attempt.
type Scanner struct {
	stack  Stack
	filter *PeerFilter
	peers  []*PeerSpec
	table  *ConnectionTable
	params ConnectParams
	logger *logrus.Logger

	state       ScanState
	pending     *PeerSpec
	pendingAddr Address
}

func NewScanner(stack Stack, peers []*PeerSpec, table *ConnectionTable, params ConnectParams, logger *logrus.Logger) *Scanner {
	return &Scanner{
		stack:  stack,
		filter: NewPeerFilter(peers...),
		peers:  peers,
		table:  table,
		params: params,
		logger: logger,
		state:  ScanIdle,
	}
}

func (s *Scanner) State() ScanState {
	return s.state
}

// Pending returns the peer of the connection attempt in flight.
func (s *Scanner) Pending() (*PeerSpec, Address, bool) {
	if s.pending == nil {
		return nil, "", false
	}
	return s.pending, s.pendingAddr, true
}

// Start begins scanning when idle and a peer is still missing.
// It is also the recovery path after a failed or aborted scan.
func (s *Scanner) Start() {
	if s.state != ScanIdle || !s.needsScan() {
		return
	}
	s.startScan()
}

// OnAdvertisement stops scanning and connects when the advertisement matches a peer.
func (s *Scanner) OnAdvertisement(adv Advertisement) {
	if s.state != ScanScanning {
		return
	}

	peer, ok := s.filter.Match(adv)
	if !ok {
		return
	}
	if _, connected := s.table.ByRole(peer.Role); connected {
		return
	}

	log := s.logger.WithFields(logrus.Fields{
		"role":    peer.Role,
		"address": adv.Address,
		"rssi":    adv.RSSI,
	})
	log.Info("Matched advertisement")

	s.state = ScanStoppingToConnect
	if err := s.stack.StopScan(); err != nil {
		// Stay in Scanning; the attempt is dropped and the next advertisement retries
		log.WithError(err).Warn("Failed to stop scan, connect attempt abandoned")
		s.state = ScanScanning
		return
	}

	if err := s.stack.Connect(adv.Address, adv.AddressType, s.params); err != nil {
		log.WithError(err).Warn("Connect request rejected, resuming scan")
		s.state = ScanIdle
		s.startScan()
		return
	}

	s.pending = peer
	s.pendingAddr = adv.Address
	s.state = ScanConnectPending
	log.Debug("Connect requested")
}

// BindConnection resolves the peer of a completed connection and clears the pending attempt.
// The pending attempt is preferred; a peer with a fixed address is the fallback.
func (s *Scanner) BindConnection(addr Address) (*PeerSpec, bool) {
	if s.pending != nil && (s.pendingAddr.Equal(addr) || addr == "") {
		peer := s.pending
		s.clearPending()
		return peer, true
	}
	for _, p := range s.peers {
		if p.Address != "" && p.Address.Equal(addr) {
			if s.pending == p {
				s.clearPending()
			}
			return p, true
		}
	}
	return nil, false
}

// AfterConnect resumes scanning if any peer still has no session.
func (s *Scanner) AfterConnect() {
	if s.pending != nil {
		return
	}
	s.state = ScanIdle
	if s.needsScan() {
		s.startScan()
		return
	}
	s.logger.Info("All peers connected, scanning stopped")
}

// OnConnectFailed resumes scanning after a failed attempt.
func (s *Scanner) OnConnectFailed(addr Address, err error) {
	if s.pending == nil || !s.pendingAddr.Equal(addr) {
		s.logger.WithFields(logrus.Fields{
			"address": addr,
			"error":   err,
		}).Debug("Ignoring connect failure for an address with no pending attempt")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"role":    s.pending.Role,
		"address": addr,
		"error":   err,
	}).Warn("Connect failed, resuming scan")

	s.clearPending()
	s.state = ScanIdle
	s.startScan()
}

// OnDisconnect resumes scanning once a peer lost its session.
func (s *Scanner) OnDisconnect() {
	if s.state != ScanIdle {
		return
	}
	if s.needsScan() {
		s.startScan()
	}
}

// OnScanStopped handles a scan that ended on its own.
func (s *Scanner) OnScanStopped(err error) {
	if s.state != ScanScanning {
		return
	}
	s.logger.WithError(err).Warn("Scan stopped unexpectedly")
	s.state = ScanIdle
}

func (s *Scanner) needsScan() bool {
	for _, p := range s.peers {
		if _, ok := s.table.ByRole(p.Role); !ok {
			return true
		}
	}
	return false
}

func (s *Scanner) startScan() {
	if err := s.stack.StartScan(); err != nil {
		s.logger.WithError(err).Warn("Failed to start scan")
		s.state = ScanIdle
		return
	}
	s.state = ScanScanning
	s.logger.Debug("Scanning")
}

func (s *Scanner) clearPending() {
	s.pending = nil
	s.pendingAddr = ""
}
