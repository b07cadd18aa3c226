// Package central implements the central-role polling core for BLE sensor
// peripherals.
//
// The package drives the whole connection lifecycle through a single
// dispatcher:
//   - PeerFilter matches advertisements against the configured allow-list
//   - Scanner keeps one connection attempt in flight at a time
//   - ConnectionTable owns one Session per connection handle
//   - DiscoveryCoordinator resolves characteristic kinds to value handles
//   - PollSequencer issues exactly one outstanding read per session
//   - ReadDecoder turns raw payloads into physical units
//
// All state is mutated from Central.Dispatch, which must be called from one
// goroutine only. Central.Run provides that loop on top of a Stack.
package central
