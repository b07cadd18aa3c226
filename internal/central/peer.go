package central

import (
	"bytes"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Role is the tag that names a configured peer ("env", "rgb")
type Role string

// PeerSpec is the static description of one allowed peripheral.
// Characteristics keeps the declared kind order, which is the poll order.
type PeerSpec struct {
	Role            Role
	Name            string
	Address         Address
	Service         UUID
	Characteristics *orderedmap.OrderedMap[Kind, UUID]
}

// NewPeerSpec creates a PeerSpec matched by its complete local name.
func NewPeerSpec(role Role, name string, service string) *PeerSpec {
	return &PeerSpec{
		Role:            role,
		Name:            name,
		Service:         NormalizeUUID(service),
		Characteristics: orderedmap.New[Kind, UUID](),
	}
}

// WithAddress pins the peer to a fixed link-layer address.
func (p *PeerSpec) WithAddress(addr Address) *PeerSpec {
	p.Address = addr
	return p
}

// WithCharacteristic declares a kind and its characteristic type identifier.
// Declaring the same kind twice keeps its original position.
func (p *PeerSpec) WithCharacteristic(kind Kind, id string) *PeerSpec {
	p.Characteristics.Set(kind, NormalizeUUID(id))
	return p
}

// Kinds returns the declared kinds in declaration order.
func (p *PeerSpec) Kinds() []Kind {
	kinds := make([]Kind, 0, p.Characteristics.Len())
	for pair := p.Characteristics.Oldest(); pair != nil; pair = pair.Next() {
		kinds = append(kinds, pair.Key)
	}
	return kinds
}

// KindOf classifies a discovered characteristic type identifier.
func (p *PeerSpec) KindOf(id UUID) (Kind, bool) {
	normalized := NormalizeUUID(string(id))
	for pair := p.Characteristics.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == normalized {
			return pair.Key, true
		}
	}
	return KindUnknown, false
}

// matches reports whether the advertisement satisfies every criterion the peer declares.
func (p *PeerSpec) matches(adv Advertisement) bool {
	if p.Name == "" && p.Address == "" {
		return false
	}
	if p.Address != "" && !p.Address.Equal(adv.Address) {
		return false
	}
	if p.Name == "" {
		return true
	}
	want := []byte(p.Name)
	for _, f := range adv.Fields {
		if f.Type == ADCompleteLocalName && bytes.Equal(f.Data, want) {
			return true
		}
	}
	return false
}

// PeerFilter classifies advertisements against a static allow-list
type PeerFilter struct {
	peers []*PeerSpec
}

// NewPeerFilter creates a filter; peers are tried in the given order.
func NewPeerFilter(peers ...*PeerSpec) *PeerFilter {
	return &PeerFilter{peers: peers}
}

// Match returns the first peer, in declaration order, the advertisement matches.
func (f *PeerFilter) Match(adv Advertisement) (*PeerSpec, bool) {
	for _, p := range f.peers {
		if p.matches(adv) {
			return p, true
		}
	}
	return nil, false
}
