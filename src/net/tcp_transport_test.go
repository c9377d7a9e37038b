package net

import (
	"bytes"
	"testing"
	"time"

	"github.com/sectornet/routing/src/common"
)

func TestTCPTransportMessage(t *testing.T) {
	logger := common.NewTestEntry(t)

	trans1, err := NewTCPTransport("127.0.0.1:0", "", 2, time.Second, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer trans1.Close()
	go trans1.Listen()

	rpcCh := trans1.Consumer()

	args := MessageRequest{From: "me", Payload: []byte("over tcp")}
	expectedResp := MessageResponse{From: trans1.LocalAddr(), Success: true}

	go func() {
		select {
		case rpc := <-rpcCh:
			req, ok := rpc.Command.(*MessageRequest)
			if !ok {
				t.Errorf("command: got %T, want *MessageRequest", rpc.Command)
			}
			if !bytes.Equal(req.Payload, args.Payload) {
				t.Errorf("payload mismatch")
			}
			rpc.Respond(&expectedResp, nil)
		case <-time.After(time.Second):
			t.Errorf("timeout waiting for RPC")
		}
	}()

	trans2, err := NewTCPTransport("127.0.0.1:0", "", 2, time.Second, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer trans2.Close()

	var resp MessageResponse
	if err := trans2.Message(trans1.LocalAddr(), &args, &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Fatalf("response not successful")
	}
}

func TestTCPTransportBadAdvertise(t *testing.T) {
	logger := common.NewTestEntry(t)

	_, err := NewTCPTransport("127.0.0.1:0", "0.0.0.0:1234", 2, time.Second, logger)
	if err != errNotAdvertisable {
		t.Fatalf("got %v, want errNotAdvertisable", err)
	}
}
