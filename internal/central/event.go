package central

import "time"

// Handle identifies one live connection; assigned by the stack when a connect completes
type Handle uint16

// ValueHandle is the per-connection attribute handle of a characteristic value
type ValueHandle uint16

// LinkRole is the local device's role on a connection
type LinkRole int

const (
	LinkCentral LinkRole = iota
	LinkPeripheral
)

// Event is one input of the dispatcher. The set of variants is closed.
type Event interface {
	event()
}

// Advertisement is an advertising report seen while scanning
type Advertisement struct {
	Address     Address
	AddressType AddressType
	RSSI        int
	Connectable bool
	Fields      []ADField
}

// Field returns the data of the first AD structure of the given type.
func (a Advertisement) Field(t ADType) ([]byte, bool) {
	for _, f := range a.Fields {
		if f.Type == t {
			return f.Data, true
		}
	}
	return nil, false
}

// ConnectComplete reports an established link
type ConnectComplete struct {
	Handle  Handle
	Address Address
	OwnRole LinkRole
}

// ConnectFailed reports a connect attempt that did not produce a link
type ConnectFailed struct {
	Address Address
	Err     error
}

// Disconnect reports a link that went away; it cancels every expectation on the handle
type Disconnect struct {
	Handle Handle
	Reason error
}

// ScanStopped reports a scan that ended without being asked to, or one that
// kept running past a StopScan that returned an error
type ScanStopped struct {
	Err error
}

// CharacteristicDiscovered reports one characteristic found during discovery
type CharacteristicDiscovered struct {
	Handle      Handle
	Type        UUID
	ValueHandle ValueHandle
}

// DiscoveryTerminated reports the end of discovery on a handle
type DiscoveryTerminated struct {
	Handle Handle
	Err    error
}

// ReadComplete carries the outcome of a read
type ReadComplete struct {
	Handle      Handle
	ValueHandle ValueHandle
	Data        []byte
	Err         error
}

// Tick is the periodic polling trigger
type Tick struct {
	At time.Time
}

func (Advertisement) event()            {}
func (ConnectComplete) event()          {}
func (ConnectFailed) event()            {}
func (Disconnect) event()               {}
func (ScanStopped) event()              {}
func (CharacteristicDiscovered) event() {}
func (DiscoveryTerminated) event()      {}
func (ReadComplete) event()             {}
func (Tick) event()                     {}
