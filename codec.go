package sender

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"unicode/utf8"
)

const (
	// HeaderSize is the length of the fixed frame prefix: magic, version and length fields.
	HeaderSize = 13
	// ProtocolVersion is the only header version byte this package writes or accepts.
	ProtocolVersion byte = 0x01

	senderDataRequest = "sender data"
)

var (
	headerMagic = []byte("ZBXD")

	errEmptyHost = errors.New("host is required")
	errEmptyKey  = errors.New("key is required")
	errNilValue  = errors.New("value is required")
	errNotUTF8   = errors.New("not valid UTF-8")
)

// EncodePacket frames the sender data payload for items behind the 13 byte header.
// Only the low four bytes of the length field are written; the remaining four are zero,
// which limits a packet to payloads below 4 GiB.
func EncodePacket(items []Item) ([]byte, error) {
	payload, err := EncodePayload(items)
	if err != nil {
		return nil, err
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, &EncodingError{Index: -1, Err: ErrPayloadTooLarge}
	}

	packet := make([]byte, HeaderSize, HeaderSize+len(payload))
	copy(packet[0:4], headerMagic)
	packet[4] = ProtocolVersion
	binary.LittleEndian.PutUint32(packet[5:9], uint32(len(payload)))
	// bytes 9-12 stay zero
	return append(packet, payload...), nil
}

// EncodePayload renders the JSON document {"request": "sender data", "data": [...]}.
// Items keep their order and each renders its fields as host, key, value, then clock and ns
// only when set.
func EncodePayload(items []Item) ([]byte, error) {
	w := newPayloadWriter()

	w.raw(`{"request": `)
	if err := w.scalar(senderDataRequest); err != nil {
		return nil, &EncodingError{Index: -1, Err: err}
	}
	w.raw(`, "data": [`)
	for i, item := range items {
		if i > 0 {
			w.raw(", ")
		}
		if err := w.item(item); err != nil {
			return nil, &EncodingError{Index: i, Err: err}
		}
	}
	w.raw("]}")

	return w.buf.Bytes(), nil
}

type payloadWriter struct {
	buf bytes.Buffer
	enc *json.Encoder
}

func newPayloadWriter() *payloadWriter {
	w := &payloadWriter{}
	w.enc = json.NewEncoder(&w.buf)
	w.enc.SetEscapeHTML(false)
	return w
}

func (w *payloadWriter) raw(s string) {
	w.buf.WriteString(s)
}

// scalar appends one JSON scalar without the newline the encoder terminates values with.
func (w *payloadWriter) scalar(v interface{}) error {
	mark := w.buf.Len()
	if err := w.enc.Encode(v); err != nil {
		w.buf.Truncate(mark)
		return err
	}
	w.buf.Truncate(w.buf.Len() - 1)
	return nil
}

func (w *payloadWriter) item(item Item) error {
	if item.host == "" {
		return errEmptyHost
	}
	if item.key == "" {
		return errEmptyKey
	}
	if !utf8.ValidString(item.host) {
		return fmt.Errorf("host: %w", errNotUTF8)
	}
	if !utf8.ValidString(item.key) {
		return fmt.Errorf("key: %w", errNotUTF8)
	}
	if err := checkScalar(item.value); err != nil {
		return err
	}

	w.raw(`{"host": `)
	if err := w.scalar(item.host); err != nil {
		return err
	}
	w.raw(`, "key": `)
	if err := w.scalar(item.key); err != nil {
		return err
	}
	w.raw(`, "value": `)
	if err := w.scalar(item.value); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	if item.hasClock {
		w.raw(`, "clock": `)
		if err := w.scalar(item.clock); err != nil {
			return err
		}
	}
	if item.hasNs {
		w.raw(`, "ns": `)
		if err := w.scalar(item.ns); err != nil {
			return err
		}
	}
	w.raw("}")
	return nil
}

func checkScalar(v interface{}) error {
	if v == nil {
		return errNilValue
	}
	if _, ok := v.(json.Number); ok {
		return nil
	}
	if _, ok := v.(json.Marshaler); ok {
		return fmt.Errorf("value of type %T is not a JSON scalar", v)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		if !utf8.ValidString(rv.String()) {
			return fmt.Errorf("value: %w", errNotUTF8)
		}
		return nil
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("value %v is not a finite number", f)
		}
		return nil
	default:
		return fmt.Errorf("value of type %T is not a JSON scalar", v)
	}
}
