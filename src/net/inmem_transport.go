package net

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"
)

// NewInmemAddr returns a new in-memory addr with a randomly generated UUID
// as the ID.
func NewInmemAddr() string {
	return generateUUID()
}

// generateUUID is used to generate a random UUID.
func generateUUID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("failed to read random bytes: %v", err))
	}

	return fmt.Sprintf("%08x-%04x-%04x-%04x-%12x",
		buf[0:4],
		buf[4:6],
		buf[6:8],
		buf[8:10],
		buf[10:16])
}

// InmemTransport implements the Transport interface, to allow the routing
// core to be tested in-memory without going over a network.
type InmemTransport struct {
	sync.RWMutex
	consumerCh chan RPC
	localAddr  string
	peers      map[string]*InmemTransport
	timeout    time.Duration
}

// NewInmemTransport is used to initialize a new transport and generates a
// random local address if none is specified.
func NewInmemTransport(addr string) (string, *InmemTransport) {
	if addr == "" {
		addr = NewInmemAddr()
	}
	trans := &InmemTransport{
		consumerCh: make(chan RPC, 16),
		localAddr:  addr,
		peers:      make(map[string]*InmemTransport),
		timeout:    50 * time.Millisecond,
	}
	return addr, trans
}

// Listen implements the Transport interface.
func (i *InmemTransport) Listen() {}

// Consumer implements the Transport interface.
func (i *InmemTransport) Consumer() <-chan RPC {
	return i.consumerCh
}

// LocalAddr implements the Transport interface.
func (i *InmemTransport) LocalAddr() string {
	return i.localAddr
}

// AdvertiseAddr implements the Transport interface.
func (i *InmemTransport) AdvertiseAddr() string {
	return i.localAddr
}

// Message implements the Transport interface.
func (i *InmemTransport) Message(target string, args *MessageRequest, resp *MessageResponse) error {
	rpcResp, err := i.makeRPC(target, args, i.timeout)
	if err != nil {
		return err
	}

	// Copy the result back
	out := rpcResp.Response.(*MessageResponse)
	*resp = *out
	return nil
}

func (i *InmemTransport) makeRPC(target string, args interface{}, timeout time.Duration) (rpcResp RPCResponse, err error) {
	i.RLock()
	peer, ok := i.peers[target]
	i.RUnlock()

	if !ok {
		err = fmt.Errorf("failed to connect to peer: %v", target)
		return
	}

	// Send the RPC over
	respCh := make(chan RPCResponse)
	peer.consumerCh <- RPC{
		Command:  args,
		RespChan: respCh,
	}

	// Wait for a response
	select {
	case rpcResp = <-respCh:
		if rpcResp.Error != nil {
			err = rpcResp.Error
		}
	case <-time.After(timeout):
		err = fmt.Errorf("command timed out")
	}
	return
}

// Connect is used to connect this transport to another transport for a given
// peer name. This allows for local routing.
func (i *InmemTransport) Connect(peer string, trans Transport) {
	i.Lock()
	defer i.Unlock()
	i.peers[peer] = trans.(*InmemTransport)
}

// Disconnect is used to remove the ability to route to a given peer.
func (i *InmemTransport) Disconnect(peer string) {
	i.Lock()
	defer i.Unlock()
	delete(i.peers, peer)
}

// DisconnectAll is used to remove all routes to peers.
func (i *InmemTransport) DisconnectAll() {
	i.Lock()
	defer i.Unlock()
	i.peers = make(map[string]*InmemTransport)
}

// Close is used to permanently disable the transport.
func (i *InmemTransport) Close() error {
	i.DisconnectAll()
	return nil
}
