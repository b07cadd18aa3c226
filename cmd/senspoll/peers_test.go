//go:build test

package main

import (
	"testing"

	"github.com/srg/senspoll/internal/testutils"
	"github.com/srg/senspoll/pkg/config"
	"github.com/stretchr/testify/suite"
)

type PeersTestSuite struct {
	CommandTestSuite
}

func (s *PeersTestSuite) TestStockPeers() {
	out, err := s.ExecuteCommand("peers")
	s.Require().NoError(err)

	testutils.NewTextAsserter(s.T()).Assert(out, `
ROLE  NAME                 ADDRESS  SERVICE                           KINDS
env   EnvironmentalSensor  -        181a                              Temperature,Humidity,Pressure
rgb   RGBSensor            -        1234567812345678123456789abcdef0  Red,Green,Blue
`)
}

func (s *PeersTestSuite) TestConfiguredPeers() {
	path := s.WriteConfig(`
peers:
  - role: lab
    address: F0:6A:41:DD:3F:8B
    service: "181A"
    characteristics:
      - {kind: pressure, uuid: "2A6D"}
`)
	out, err := s.ExecuteCommand("peers", "--config", path)
	s.Require().NoError(err)
	s.Contains(out, "lab")
	s.Contains(out, "F0:6A:41:DD:3F:8B")
	s.Contains(out, "Pressure")
	s.NotContains(out, "EnvironmentalSensor", "configured peers MUST replace the stock ones")
}

func (s *PeersTestSuite) TestInvalidConfig() {
	path := s.WriteConfig(`
peers:
  - role: lab
    service: "181A"
    characteristics:
      - {kind: voltage, uuid: "2A6D"}
`)
	_, err := s.ExecuteCommand("peers", "--config", path)
	s.Require().ErrorIs(err, config.ErrInvalidConfig)

	msg := FormatUserError(err)
	s.Contains(msg, "configuration is invalid")
	s.Contains(msg, "name or address is required")
	s.Contains(msg, "unknown characteristic kind")
}

func TestPeersTestSuite(t *testing.T) {
	suite.Run(t, new(PeersTestSuite))
}
