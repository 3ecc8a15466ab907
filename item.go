package sender

import "time"

// Item is a single trapper item: one value for one key on one host.
// Items are immutable; the With methods return modified copies.
type Item struct {
	host  string
	key   string
	value interface{}

	clock    int64
	hasClock bool
	ns       int64
	hasNs    bool
}

// NewItem creates an item without a timestamp, letting the server stamp it on receipt.
// The value should be a string, a number or a bool. Host, key and string values must be
// valid UTF-8; encoding rejects anything else rather than substituting replacement characters.
func NewItem(host, key string, value interface{}) Item {
	return Item{host: host, key: key, value: value}
}

func (i Item) WithClock(clock int64) Item {
	i.clock = clock
	i.hasClock = true
	return i
}

func (i Item) WithNs(ns int64) Item {
	i.ns = ns
	i.hasNs = true
	return i
}

// WithTime sets both clock and ns from t.
func (i Item) WithTime(t time.Time) Item {
	return i.WithClock(t.Unix()).WithNs(int64(t.Nanosecond()))
}

func (i Item) Host() string {
	return i.host
}

func (i Item) Key() string {
	return i.key
}

func (i Item) Value() interface{} {
	return i.value
}

func (i Item) Clock() (int64, bool) {
	return i.clock, i.hasClock
}

func (i Item) Ns() (int64, bool) {
	return i.ns, i.hasNs
}
