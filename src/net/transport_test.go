package net

import (
	"testing"
	"time"
)

func TestInmemTransportMessage(t *testing.T) {
	addr1, trans1 := NewInmemTransport("")
	defer trans1.Close()
	addr2, trans2 := NewInmemTransport("")
	defer trans2.Close()

	trans1.Connect(addr2, trans2)
	trans2.Connect(addr1, trans1)

	// Serve one request on trans2.
	go func() {
		select {
		case rpc := <-trans2.Consumer():
			req := rpc.Command.(*MessageRequest)
			if string(req.Payload) != "hello" {
				t.Errorf("payload: got %q, want hello", req.Payload)
			}
			rpc.Respond(&MessageResponse{From: addr2, Success: true}, nil)
		case <-time.After(time.Second):
			t.Errorf("no request received")
		}
	}()

	var resp MessageResponse
	err := trans1.Message(addr2, &MessageRequest{From: addr1, Payload: []byte("hello")}, &resp)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !resp.Success || resp.From != addr2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestInmemTransportUnknownTarget(t *testing.T) {
	_, trans := NewInmemTransport("")
	defer trans.Close()

	var resp MessageResponse
	err := trans.Message("nowhere", &MessageRequest{Payload: []byte("x")}, &resp)
	if err == nil {
		t.Fatalf("sending to an unconnected peer should fail")
	}
}

func TestInmemTransportDisconnect(t *testing.T) {
	addr1, trans1 := NewInmemTransport("")
	defer trans1.Close()
	addr2, trans2 := NewInmemTransport("")
	defer trans2.Close()

	trans1.Connect(addr2, trans2)
	trans1.Disconnect(addr2)

	var resp MessageResponse
	if err := trans1.Message(addr2, &MessageRequest{From: addr1}, &resp); err == nil {
		t.Fatalf("sending after disconnect should fail")
	}
}
