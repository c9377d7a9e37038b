// Package net defines the transport boundary of the routing core. The core
// never blocks on network I/O: it hands wire payloads to a Transport and
// consumes inbound RPCs from a channel. Connection management, retries and
// timeouts live behind this interface, outside the core.
package net

// Transport provides an interface for network transports to allow a node to
// exchange routed messages with other nodes.
type Transport interface {

	// Listen starts the transport listening.
	Listen()

	// Consumer returns a channel that can be used to consume and respond to
	// RPC requests.
	Consumer() <-chan RPC

	// LocalAddr is used to return our local address.
	LocalAddr() string

	// AdvertiseAddr is used to return our advertise address where other
	// peers can reach us.
	AdvertiseAddr() string

	// Message sends a routed message envelope to the target node.
	Message(target string, args *MessageRequest, resp *MessageResponse) error

	// Close permanently closes a transport, stopping any associated
	// goroutines and freeing other resources.
	Close() error
}
