package sender

import (
	"strings"
	"time"

	protocol "github.com/influxdata/line-protocol"
)

// SimpleMetric is a ready-to-use protocol.Metric for producers that have no
// Influx implementation of their own. Convert it to items with FromMetric.
type SimpleMetric struct {
	name      string
	tags      []*protocol.Tag
	fields    []*protocol.Field
	timestamp time.Time
}

func NewSimpleMetric(name string) *SimpleMetric {
	return &SimpleMetric{name: name}
}

func (m *SimpleMetric) SetTime(t time.Time) {
	m.timestamp = t
}

// Time is the time set with SetTime, or the current time when none was set.
func (m *SimpleMetric) Time() time.Time {
	if m.timestamp.IsZero() {
		return time.Now()
	}
	return m.timestamp
}

func (m *SimpleMetric) Name() string {
	return m.name
}

func (m *SimpleMetric) TagList() []*protocol.Tag {
	return m.tags
}

func (m *SimpleMetric) FieldList() []*protocol.Field {
	return m.fields
}

// AddTag appends a tag. A HostTag tag selects the item host in FromMetric.
func (m *SimpleMetric) AddTag(key, value string) {
	m.tags = append(m.tags, &protocol.Tag{
		Key:   key,
		Value: value,
	})
}

func (m *SimpleMetric) AddField(key string, value interface{}) {
	m.fields = append(m.fields, &protocol.Field{
		Key:   key,
		Value: value,
	})
}

// HostTag is the line protocol tag whose value, when present, is used as the item host.
const HostTag = "host"

// FromMetric converts a line protocol metric into one item per field.
// Keys take the form "<measurement>.<field>", with the values of any tags other than
// HostTag appended as key parameters, e.g. "cpu.usage[cpu0,idle]".
// Items are stamped with the metric's time; bool fields become 1 or 0.
func FromMetric(defaultHost string, m protocol.Metric) []Item {
	host := defaultHost
	var params []string
	for _, tag := range m.TagList() {
		if tag.Key == HostTag {
			host = tag.Value
			continue
		}
		params = append(params, tag.Value)
	}

	suffix := ""
	if len(params) > 0 {
		suffix = "[" + strings.Join(params, ",") + "]"
	}

	ts := m.Time()
	items := make([]Item, 0, len(m.FieldList()))
	for _, field := range m.FieldList() {
		value := field.Value
		if b, ok := value.(bool); ok {
			if b {
				value = 1
			} else {
				value = 0
			}
		}
		key := m.Name() + "." + field.Key + suffix
		items = append(items, NewItem(host, key, value).WithTime(ts))
	}
	return items
}
