package sender

import (
	"errors"
	"fmt"
)

// ErrPayloadTooLarge is wrapped by an EncodingError when a payload does not fit
// the 32-bit length written into the packet header.
var ErrPayloadTooLarge = errors.New("payload exceeds 4 GiB frame limit")

const (
	ReasonMalformedHeader = "malformed header"
	ReasonMalformedBody   = "malformed body"
	ReasonUnparseableInfo = "unparseable info field"
)

// EncodingError reports an item that could not be rendered into the sender data payload.
// Index is -1 when the failure concerns the payload as a whole.
type EncodingError struct {
	Index int
	Err   error
}

func (e *EncodingError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("encoding: %v", e.Err)
	}
	return fmt.Sprintf("encoding item %d: %v", e.Index, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a response frame that does not follow the trapper protocol.
// Raw carries the offending input, such as the unmatched info string.
type ProtocolError struct {
	Reason string
	Raw    string
}

func (e *ProtocolError) Error() string {
	if e.Raw == "" {
		return "protocol: " + e.Reason
	}
	return fmt.Sprintf("protocol: %s: %q", e.Reason, e.Raw)
}

// ConnectionError wraps a failure to dial, write to, read from or close the trapper connection.
type ConnectionError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// PartialReadError reports that the peer closed the connection before a full
// header or body was received.
type PartialReadError struct {
	Stage string
	Want  uint64
	Got   uint64
}

func (e *PartialReadError) Error() string {
	return fmt.Sprintf("connection closed while reading %s: got %d of %d bytes", e.Stage, e.Got, e.Want)
}
