package goble

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/go-ble/ble"
	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/senspoll/internal/central"
	"github.com/srg/senspoll/internal/groutine"
)

const (
	// DefaultEventBuffer is the capacity of the event channel
	DefaultEventBuffer = 64

	// DefaultStopScanTimeout bounds how long StopScan waits for the radio to leave scanning
	DefaultStopScanTimeout = 2 * time.Second
)

// DeviceFactory creates the platform ble.Device (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = newPlatformDevice

// gattClient is the part of ble.Client the stack uses
type gattClient interface {
	DiscoverServices(filter []ble.UUID) ([]*ble.Service, error)
	DiscoverCharacteristics(filter []ble.UUID, s *ble.Service) ([]*ble.Characteristic, error)
	ReadCharacteristic(c *ble.Characteristic) ([]byte, error)
	CancelConnection() error
	Disconnected() <-chan struct{}
}

type scanFunc func(ctx context.Context, allowDup bool, h ble.AdvHandler) error
type dialFunc func(ctx context.Context, addr ble.Addr) (gattClient, error)

// Options tunes the stack
type Options struct {
	EventBuffer     int           `default:"64"`
	StopScanTimeout time.Duration `default:"2s"`
	AllowDuplicates bool          `default:"true"`
}

// DefaultOptions returns Options filled from the struct defaults.
func DefaultOptions() Options {
	opts := Options{}
	defaults.SetDefaults(&opts)
	return opts
}

// link is one established connection
type link struct {
	handle  central.Handle
	address central.Address
	client  gattClient

	// chars maps value handles to characteristics found by discovery
	chars *hashmap.Map[uint16, *ble.Characteristic]

	// gatt serializes requests on the link; the ATT bearer allows one at a time
	gatt sync.Mutex
}

// Stack implements central.Stack on top of go-ble.
// Every blocking library call runs on a named goroutine and reports back on Events.
type Stack struct {
	scan   scanFunc
	dial   dialFunc
	opts   Options
	logger *logrus.Logger

	group  *groutine.Group
	events chan central.Event

	links      *hashmap.Map[uint16, *link]
	nextHandle atomic.Uint32
	connecting atomic.Bool
	dropped    atomic.Uint64

	scanMu     sync.Mutex
	scanCancel context.CancelFunc
	scanDone   chan struct{}

	// scanLate is set when StopScan gave up waiting; the scan goroutine then
	// reports ScanStopped on exit so the caller can restart it
	scanLate bool
}

// NewStack opens the platform device through DeviceFactory.
func NewStack(ctx context.Context, opts Options, logger *logrus.Logger) (*Stack, error) {
	dev, err := DeviceFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE device: %w", NormalizeError(err))
	}
	dial := func(ctx context.Context, addr ble.Addr) (gattClient, error) {
		return dev.Dial(ctx, addr)
	}
	return newStack(ctx, dev.Scan, dial, opts, logger), nil
}

func newStack(ctx context.Context, scan scanFunc, dial dialFunc, opts Options, logger *logrus.Logger) *Stack {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	if opts.StopScanTimeout <= 0 {
		opts.StopScanTimeout = DefaultStopScanTimeout
	}
	return &Stack{
		scan:   scan,
		dial:   dial,
		opts:   opts,
		logger: logger,
		group:  groutine.NewGroup(ctx),
		events: make(chan central.Event, opts.EventBuffer),
		links:  hashmap.New[uint16, *link](),
	}
}

func (s *Stack) Events() <-chan central.Event {
	return s.events
}

// Dropped returns the number of advertisements discarded because the event channel was full.
func (s *Stack) Dropped() uint64 {
	return s.dropped.Load()
}

// StartScan starts a background scan. Advertisements are delivered until StopScan.
func (s *Stack) StartScan() error {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	if s.group.Context().Err() != nil {
		return fmt.Errorf("start scan: %w", s.group.Context().Err())
	}
	if s.scanCancel != nil {
		return fmt.Errorf("%w: scan already running", central.ErrScanBusy)
	}

	scanCtx, cancel := context.WithCancel(s.group.Context())
	done := make(chan struct{})
	s.scanCancel, s.scanDone = cancel, done

	s.group.Go("ble-scan", func(context.Context) {
		err := s.scan(scanCtx, s.opts.AllowDuplicates, s.onAdvertisement)
		stopped := scanCtx.Err() != nil
		close(done)

		s.scanMu.Lock()
		late := false
		if s.scanDone == done {
			s.scanCancel, s.scanDone = nil, nil
			late, s.scanLate = s.scanLate, false
		}
		s.scanMu.Unlock()
		cancel()

		switch {
		case late:
			s.logger.Debug("Scan stopped after the stop timeout")
			s.post(central.ScanStopped{Err: ErrScanStoppedLate})
		case stopped:
		default:
			err = NormalizeError(err)
			s.logger.WithError(err).Debug("Scan ended on its own")
			s.post(central.ScanStopped{Err: err})
		}
	})
	return nil
}

// StopScan stops the running scan and waits for the radio to leave scanning.
// On timeout the scan is still cancelled; ScanStopped follows once it exits.
func (s *Stack) StopScan() error {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	if s.scanCancel == nil {
		return nil
	}
	s.scanCancel()

	select {
	case <-s.scanDone:
		s.scanCancel, s.scanDone, s.scanLate = nil, nil, false
		return nil
	case <-time.After(s.opts.StopScanTimeout):
		s.scanLate = true
		return fmt.Errorf("%w: scan did not stop within %s", central.ErrScanBusy, s.opts.StopScanTimeout)
	}
}

func (s *Stack) onAdvertisement(a ble.Advertisement) {
	adv := toAdvertisement(a)

	select {
	case s.events <- adv:
	default:
		s.dropped.Add(1)
	}
}

// Connect dials addr in the background. Only one attempt may be in flight.
func (s *Stack) Connect(addr central.Address, _ central.AddressType, params central.ConnectParams) error {
	if !s.connecting.CompareAndSwap(false, true) {
		return central.ErrConnectInProgress
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = central.DefaultConnectTimeout
	}

	s.group.Go("ble-dial", func(ctx context.Context) {
		dialCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		log := s.logger.WithField("address", addr)
		log.WithField("timeout", timeout).Debug("Dialing BLE device...")

		client, err := s.dial(dialCtx, ble.NewAddr(string(addr)))
		if err != nil {
			s.connecting.Store(false)
			err = NormalizeError(err)
			if errors.Is(dialCtx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("connect timed out after %s: %w", timeout, err)
			}
			log.WithError(err).Debug("Dial failed")
			s.post(central.ConnectFailed{Address: addr, Err: err})
			return
		}

		l := &link{
			handle:  s.allocHandle(),
			address: addr,
			client:  client,
			chars:   hashmap.New[uint16, *ble.Characteristic](),
		}
		s.links.Set(uint16(l.handle), l)
		s.connecting.Store(false)

		s.post(central.ConnectComplete{Handle: l.handle, Address: addr, OwnRole: central.LinkCentral})
		s.group.Go("ble-link-monitor", func(ctx context.Context) {
			s.monitor(ctx, l)
		})
	})
	return nil
}

// allocHandle returns the next non-zero handle not in use
func (s *Stack) allocHandle() central.Handle {
	for {
		h := uint16(s.nextHandle.Add(1))
		if h == 0 {
			continue
		}
		if _, taken := s.links.Get(h); !taken {
			return central.Handle(h)
		}
	}
}

func (s *Stack) monitor(ctx context.Context, l *link) {
	select {
	case <-l.client.Disconnected():
		s.links.Del(uint16(l.handle))
		s.logger.WithFields(logrus.Fields{
			"handle":  l.handle,
			"address": l.address,
		}).Debug("Link disconnected")
		s.post(central.Disconnect{Handle: l.handle, Reason: ErrNotConnected})
	case <-ctx.Done():
	}
}

// Discover resolves the service and its characteristics on a link.
func (s *Stack) Discover(h central.Handle, service central.UUID) error {
	l, ok := s.links.Get(uint16(h))
	if !ok {
		return fmt.Errorf("%w: %d", central.ErrUnknownHandle, h)
	}
	id, err := ble.Parse(string(service))
	if err != nil {
		return fmt.Errorf("discover: invalid service %q: %w", service, err)
	}

	s.group.Go("ble-discover", func(context.Context) {
		l.gatt.Lock()
		err := s.discover(l, id)
		l.gatt.Unlock()
		s.post(central.DiscoveryTerminated{Handle: h, Err: err})
	})
	return nil
}

func (s *Stack) discover(l *link, id ble.UUID) error {
	services, err := l.client.DiscoverServices([]ble.UUID{id})
	if err != nil {
		return NormalizeError(err)
	}

	found := false
	for _, svc := range services {
		if !svc.UUID.Equal(id) {
			continue
		}
		found = true

		chars, err := l.client.DiscoverCharacteristics(nil, svc)
		if err != nil {
			return NormalizeError(err)
		}
		for _, c := range chars {
			l.chars.Set(c.ValueHandle, c)
			s.post(central.CharacteristicDiscovered{
				Handle:      l.handle,
				Type:        central.NormalizeUUID(c.UUID.String()),
				ValueHandle: central.ValueHandle(c.ValueHandle),
			})
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrServiceNotFound, id)
	}
	return nil
}

// Read reads one characteristic value in the background.
func (s *Stack) Read(h central.Handle, vh central.ValueHandle) error {
	l, ok := s.links.Get(uint16(h))
	if !ok {
		return fmt.Errorf("%w: %d", central.ErrUnknownHandle, h)
	}
	c, ok := l.chars.Get(uint16(vh))
	if !ok {
		return fmt.Errorf("%w: %d on handle %d", central.ErrUnknownValueHandle, vh, h)
	}

	s.group.Go("ble-read", func(context.Context) {
		l.gatt.Lock()
		data, err := l.client.ReadCharacteristic(c)
		l.gatt.Unlock()
		s.post(central.ReadComplete{Handle: h, ValueHandle: vh, Data: data, Err: NormalizeError(err)})
	})
	return nil
}

// Disconnect cancels a link in the background; the link monitor reports the Disconnect event.
func (s *Stack) Disconnect(h central.Handle) error {
	l, ok := s.links.Get(uint16(h))
	if !ok {
		return fmt.Errorf("%w: %d", central.ErrUnknownHandle, h)
	}

	s.group.Go("ble-disconnect", func(context.Context) {
		if err := l.client.CancelConnection(); err != nil {
			s.logger.WithFields(logrus.Fields{
				"handle":  h,
				"address": l.address,
				"error":   NormalizeError(err),
			}).Warn("Failed to cancel connection")
		}
	})
	return nil
}

// Close cancels every connection and background call, then waits for them.
func (s *Stack) Close() error {
	var errs []error
	s.links.Range(func(h uint16, l *link) bool {
		if err := l.client.CancelConnection(); err != nil {
			errs = append(errs, fmt.Errorf("disconnect handle %d: %w", h, NormalizeError(err)))
		}
		return true
	})
	s.group.Stop()
	return errors.Join(errs...)
}

// post delivers an event unless the stack is closing
func (s *Stack) post(ev central.Event) {
	select {
	case s.events <- ev:
	case <-s.group.Context().Done():
	}
}
