package net

// MessageRequest carries one wire-encoded routed message. The payload is the
// routing layer's signed envelope; the transport does not interpret it.
type MessageRequest struct {
	From    string
	Payload []byte
}

// MessageResponse acknowledges receipt of a MessageRequest. Success means
// the payload was accepted for processing, not that it reached its final
// destination.
type MessageResponse struct {
	From    string
	Success bool
}
