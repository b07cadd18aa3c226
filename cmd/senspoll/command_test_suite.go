//go:build test

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/senspoll/internal/central"
	"github.com/srg/senspoll/pkg/config"
	"github.com/stretchr/testify/suite"
)

// Test device addresses for consistent peer identification
const (
	TestDeviceAddress1 = "00:00:00:00:00:01"
	TestDeviceAddress2 = "00:00:00:00:00:02"
)

// scriptedPeer is a peripheral the scripted stack pretends to see
type scriptedPeer struct {
	address  central.Address
	name     string
	chars    []central.CharacteristicDiscovered
	payloads map[central.ValueHandle][]byte
}

// scriptedStack answers every command with the events a real radio would
// produce for the scripted peers.
type scriptedStack struct {
	peers  []scriptedPeer
	events chan central.Event
	closed chan struct{}
	once   sync.Once

	mu      sync.Mutex
	handles map[central.Handle]*scriptedPeer
	next    central.Handle
	reads   int
	dropped uint64
}

func newScriptedStack(peers ...scriptedPeer) *scriptedStack {
	return &scriptedStack{
		peers:   peers,
		events:  make(chan central.Event, 64),
		closed:  make(chan struct{}),
		handles: make(map[central.Handle]*scriptedPeer),
	}
}

func (s *scriptedStack) emit(evs ...central.Event) {
	go func() {
		for _, ev := range evs {
			select {
			case s.events <- ev:
			case <-s.closed:
				return
			}
		}
	}()
}

func (s *scriptedStack) StartScan() error {
	evs := make([]central.Event, 0, len(s.peers))
	for _, p := range s.peers {
		evs = append(evs, central.Advertisement{
			Address:     p.address,
			AddressType: central.AddressPublic,
			RSSI:        -60,
			Connectable: true,
			Fields:      []central.ADField{{Type: central.ADCompleteLocalName, Data: []byte(p.name)}},
		})
	}
	s.emit(evs...)
	return nil
}

func (s *scriptedStack) StopScan() error { return nil }

func (s *scriptedStack) Connect(addr central.Address, _ central.AddressType, _ central.ConnectParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.peers {
		if s.peers[i].address == addr {
			s.next++
			s.handles[s.next] = &s.peers[i]
			s.emit(central.ConnectComplete{Handle: s.next, Address: addr, OwnRole: central.LinkCentral})
			return nil
		}
	}
	s.emit(central.ConnectFailed{Address: addr, Err: central.ErrUnknownHandle})
	return nil
}

func (s *scriptedStack) peer(h central.Handle) (*scriptedPeer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.handles[h]
	if !ok {
		return nil, central.ErrUnknownHandle
	}
	return p, nil
}

func (s *scriptedStack) Discover(h central.Handle, _ central.UUID) error {
	p, err := s.peer(h)
	if err != nil {
		return err
	}
	evs := make([]central.Event, 0, len(p.chars)+1)
	for _, c := range p.chars {
		c.Handle = h
		evs = append(evs, c)
	}
	s.emit(append(evs, central.DiscoveryTerminated{Handle: h})...)
	return nil
}

func (s *scriptedStack) Read(h central.Handle, vh central.ValueHandle) error {
	p, err := s.peer(h)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.reads++
	s.mu.Unlock()
	s.emit(central.ReadComplete{Handle: h, ValueHandle: vh, Data: p.payloads[vh]})
	return nil
}

func (s *scriptedStack) Disconnect(h central.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handles[h]; !ok {
		return central.ErrUnknownHandle
	}
	delete(s.handles, h)
	s.emit(central.Disconnect{Handle: h})
	return nil
}

func (s *scriptedStack) Events() <-chan central.Event { return s.events }

func (s *scriptedStack) Dropped() uint64 { return s.dropped }

func (s *scriptedStack) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

// envPeer is a scripted EnvironmentalSensor reporting 25.36 °C, 45.67 % and 1013.2 hPa
func envPeer(address string) scriptedPeer {
	return scriptedPeer{
		address: central.Address(address),
		name:    config.EnvironmentalSensor.Name,
		chars: []central.CharacteristicDiscovered{
			{Type: "2a6e", ValueHandle: 0x10},
			{Type: "2a6f", ValueHandle: 0x12},
			{Type: "2a6d", ValueHandle: 0x14},
		},
		payloads: map[central.ValueHandle][]byte{
			0x10: {0xe8, 0x09},
			0x12: {0xd7, 0x11},
			0x14: {0x94, 0x27, 0x00, 0x00},
		},
	}
}

// CommandTestSuite provides command execution helpers and a scripted BLE stack.
// All cmd/senspoll test suites should embed it.
type CommandTestSuite struct {
	suite.Suite

	Stack  *scriptedStack
	Stderr *bytes.Buffer

	origFactory func(context.Context, *config.Config, *logrus.Logger) (StackCloser, error)
}

func (s *CommandTestSuite) SetupTest() {
	s.Stack = newScriptedStack(envPeer(TestDeviceAddress1))
	s.Stderr = new(bytes.Buffer)
	s.origFactory = StackFactory
	StackFactory = func(context.Context, *config.Config, *logrus.Logger) (StackCloser, error) {
		return s.Stack, nil
	}
}

func (s *CommandTestSuite) TearDownTest() {
	StackFactory = s.origFactory
}

// WriteConfig writes a YAML config file into a temp dir and returns its path.
func (s *CommandTestSuite) WriteConfig(yaml string) string {
	path := filepath.Join(s.T().TempDir(), "senspoll.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(yaml), 0o600), "config write MUST succeed")
	return path
}

// CaptureStdout executes fn while capturing stdout, returns captured output.
// Stdout is restored even if fn panics.
func (s *CommandTestSuite) CaptureStdout(fn func()) string {
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	s.Require().NoError(err, "pipe creation MUST succeed")
	os.Stdout = w
	defer func() { os.Stdout = oldStdout }()

	fn()

	w.Close()
	out, _ := io.ReadAll(r)
	return string(out)
}

// ExecuteCommand runs a fresh root command with args, returns stdout and error.
// Stderr (logs, summaries) is kept in s.Stderr.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, error) {
	return s.ExecuteCobra(newRootCmd(), args...)
}

// ExecuteCobra runs a cobra command with args, returns stdout and error.
func (s *CommandTestSuite) ExecuteCobra(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	s.Stderr.Reset()
	cmd.SetOut(buf)
	cmd.SetErr(s.Stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
