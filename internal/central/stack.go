package central

import "time"

// DefaultConnectTimeout bounds one connection attempt made with DefaultConnectParams
const DefaultConnectTimeout = 30 * time.Second

// ConnectParams are the link parameters of a connect command
type ConnectParams struct {
	Timeout time.Duration
}

// DefaultConnectParams returns the parameters used for every connect.
func DefaultConnectParams() ConnectParams {
	return ConnectParams{Timeout: DefaultConnectTimeout}
}

// Stack is the command surface of the wireless stack.
//
// Commands never block on the radio and never carry results; outcomes are
// delivered later on Events. A returned error means the command was not
// accepted at all.
type Stack interface {
	StartScan() error
	StopScan() error
	Connect(addr Address, addrType AddressType, params ConnectParams) error
	Discover(h Handle, service UUID) error
	Read(h Handle, vh ValueHandle) error

	// Disconnect drops a link; a Disconnect event follows
	Disconnect(h Handle) error

	// Events delivers events in generation order per handle
	Events() <-chan Event
}

// Sample is one decoded reading
type Sample struct {
	Role    Role      `json:"role"`
	Address Address   `json:"address"`
	Kind    Kind      `json:"kind"`
	Value   float64   `json:"value"`
	Unit    string    `json:"unit,omitempty"`
	At      time.Time `json:"at"`
}

// Reporter receives decoded samples
type Reporter interface {
	Report(s Sample)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(Sample)

func (f ReporterFunc) Report(s Sample) { f(s) }

type discardReporter struct{}

func (discardReporter) Report(Sample) {}
