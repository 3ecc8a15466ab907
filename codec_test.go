package sender

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePayload(t *testing.T) {
	payload, err := EncodePayload([]Item{NewItem("localhost", "test", 123456)})
	require.NoError(t, err)

	assert.Equal(t,
		`{"request": "sender data", "data": [{"host": "localhost", "key": "test", "value": 123456}]}`,
		string(payload))
}

func TestEncodePacket(t *testing.T) {
	packet, err := EncodePacket([]Item{NewItem("localhost", "test", 123456)})
	require.NoError(t, err)

	expected := "ZBXD\x01[\x00\x00\x00\x00\x00\x00\x00" +
		`{"request": "sender data", "data": [{"host": "localhost", "key": "test", "value": 123456}]}`
	assert.Equal(t, expected, string(packet))
	assert.Equal(t, uint32(91), binary.LittleEndian.Uint32(packet[5:9]))
}

func TestEncodePayload_OptionalFields(t *testing.T) {
	payload, err := EncodePayload([]Item{NewItem("h", "k", 1)})
	require.NoError(t, err)
	assert.NotContains(t, string(payload), `"clock"`)
	assert.NotContains(t, string(payload), `"ns"`)

	payload, err = EncodePayload([]Item{
		NewItem("localhost", "test", 123456).WithClock(123456789).WithNs(123456789),
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"request": "sender data", "data": [{"host": "localhost", "key": "test", "value": 123456, "clock": 123456789, "ns": 123456789}]}`,
		string(payload))

	payload, err = EncodePayload([]Item{NewItem("h", "k", 1).WithNs(5)})
	require.NoError(t, err)
	assert.Equal(t,
		`{"request": "sender data", "data": [{"host": "h", "key": "k", "value": 1, "ns": 5}]}`,
		string(payload))
}

func TestEncodePayload_PreservesOrder(t *testing.T) {
	payload, err := EncodePayload([]Item{
		NewItem("b", "k2", "two"),
		NewItem("a", "k1", 1.5),
		NewItem("c", "k3", true),
	})
	require.NoError(t, err)

	assert.Equal(t,
		`{"request": "sender data", "data": [`+
			`{"host": "b", "key": "k2", "value": "two"}, `+
			`{"host": "a", "key": "k1", "value": 1.5}, `+
			`{"host": "c", "key": "k3", "value": true}]}`,
		string(payload))
}

func TestEncodePayload_Empty(t *testing.T) {
	payload, err := EncodePayload(nil)
	require.NoError(t, err)
	assert.Equal(t, `{"request": "sender data", "data": []}`, string(payload))
	assert.True(t, json.Valid(payload))
}

func TestEncodePayload_Strings(t *testing.T) {
	payload, err := EncodePayload([]Item{NewItem("hé", "k", "a \"quoted\" <tag> & ü\n")})
	require.NoError(t, err)
	assert.True(t, json.Valid(payload))

	var decoded struct {
		Data []map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.Len(t, decoded.Data, 1)
	assert.Equal(t, "hé", decoded.Data[0]["host"])
	assert.Equal(t, "a \"quoted\" <tag> & ü\n", decoded.Data[0]["value"])
	assert.Contains(t, string(payload), "<tag> &")
}

func TestEncodePayload_NumericKinds(t *testing.T) {
	type celsius float64
	payload, err := EncodePayload([]Item{
		NewItem("h", "a", int8(-3)),
		NewItem("h", "b", uint64(math.MaxUint64)),
		NewItem("h", "c", celsius(21.5)),
		NewItem("h", "d", json.Number("1e3")),
		NewItem("h", "e", float32(0.25)),
	})
	require.NoError(t, err)

	assert.Contains(t, string(payload), `"value": -3}`)
	assert.Contains(t, string(payload), `"value": 18446744073709551615}`)
	assert.Contains(t, string(payload), `"value": 21.5}`)
	assert.Contains(t, string(payload), `"value": 1e3}`)
	assert.Contains(t, string(payload), `"value": 0.25}`)
}

func TestEncodePacket_EncodingErrors(t *testing.T) {
	tests := []struct {
		name  string
		item  Item
		match string
	}{
		{name: "nil", item: NewItem("h", "k", nil), match: "value is required"},
		{name: "nan", item: NewItem("h", "k", math.NaN()), match: "finite"},
		{name: "inf", item: NewItem("h", "k", math.Inf(1)), match: "finite"},
		{name: "struct", item: NewItem("h", "k", struct{ A int }{1}), match: "not a JSON scalar"},
		{name: "slice", item: NewItem("h", "k", []int{1}), match: "not a JSON scalar"},
		{name: "marshaler", item: NewItem("h", "k", time.Now()), match: "not a JSON scalar"},
		{name: "bad number", item: NewItem("h", "k", json.Number("12abc")), match: "value"},
		{name: "invalid utf8 value", item: NewItem("h", "k", "a\xffb"), match: "value: not valid UTF-8"},
		{name: "invalid utf8 host", item: NewItem("h\xff", "k", 1), match: "host: not valid UTF-8"},
		{name: "invalid utf8 key", item: NewItem("h", "k\xff", 1), match: "key: not valid UTF-8"},
		{name: "empty host", item: NewItem("", "k", 1), match: "host is required"},
		{name: "empty key", item: NewItem("h", "", 1), match: "key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packet, err := EncodePacket([]Item{NewItem("ok", "ok", 1), tt.item})
			require.Error(t, err)
			assert.Nil(t, packet)

			var encErr *EncodingError
			require.True(t, errors.As(err, &encErr), "got %T", err)
			assert.Equal(t, 1, encErr.Index)
			assert.Contains(t, err.Error(), tt.match)
		})
	}
}

func TestEncodePacket_HeaderDeclaresPayloadLength(t *testing.T) {
	values := []interface{}{"", "plain", "ünïcødé ✓", strings.Repeat("x", 5000), 0, -1, 3.5}
	for n := 0; n <= 50; n++ {
		items := make([]Item, 0, n)
		for i := 0; i < n; i++ {
			items = append(items, NewItem("host-ü", "key.日本", values[i%len(values)]).WithClock(int64(i)))
		}

		packet, err := EncodePacket(items)
		require.NoError(t, err)

		length, err := ParseHeader(packet[:HeaderSize])
		require.NoError(t, err)
		assert.Equal(t, uint64(len(packet[HeaderSize:])), length, "items=%d", n)
		assert.True(t, json.Valid(packet[HeaderSize:]))
	}
}

func TestItem_WithTime(t *testing.T) {
	item := NewItem("h", "k", 1)
	stamped := item.WithTime(time.Unix(1700000000, 42))

	_, ok := item.Clock()
	assert.False(t, ok, "original item must not change")

	clock, ok := stamped.Clock()
	assert.True(t, ok)
	assert.Equal(t, int64(1700000000), clock)
	ns, ok := stamped.Ns()
	assert.True(t, ok)
	assert.Equal(t, int64(42), ns)
	assert.Equal(t, "h", stamped.Host())
	assert.Equal(t, "k", stamped.Key())
	assert.Equal(t, 1, stamped.Value())
}
