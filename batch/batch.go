// Package batch groups trapper items added by many producers into fewer sends.
// Batches are flushed by size, by timeout or on demand; failed sends are reported, not retried.
package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	sender "github.com/itzg/zabbix-sender"
)

const ItemsChanSize = 100

type ErrorListener func(err error)

type ResultListener func(resp sender.Response)

// Sink performs one send of a batch. *sender.Sender satisfies it.
type Sink interface {
	Send(ctx context.Context, items ...sender.Item) (sender.Response, error)
}

type Config struct {
	// BatchSize flushes once this many items are pending. With neither BatchSize nor
	// BatchTimeout set every item is sent immediately.
	BatchSize    int
	BatchTimeout time.Duration
	ErrorListener
	ResultListener
}

type Batcher struct {
	ctx         context.Context
	sink        Sink
	config      Config
	entries     chan entry
	processSync sync.Once
}

type entry struct {
	item  sender.Item
	flush bool
}

func New(ctx context.Context, sink Sink, config Config) (*Batcher, error) {
	if sink == nil {
		return nil, errors.New("sink is required")
	}
	if config.BatchSize < 0 || config.BatchTimeout < 0 {
		return nil, errors.New("batch size and timeout must not be negative")
	}
	return &Batcher{
		ctx:    ctx,
		sink:   sink,
		config: config,
	}, nil
}

// Add queues item for the next batch. It blocks while the queue is full and
// drops the item once the batcher's context is done.
func (b *Batcher) Add(item sender.Item) {
	b.enqueue(entry{item: item})
}

// Flush sends whatever is pending.
func (b *Batcher) Flush() {
	b.enqueue(entry{flush: true})
}

func (b *Batcher) enqueue(e entry) {
	b.processSync.Do(func() {
		b.entries = make(chan entry, ItemsChanSize)
		go b.processItems()
	})

	select {
	case b.entries <- e:
	case <-b.ctx.Done():
	}
}

// processItems owns the pending batch. The timeout starts with the first item
// of a batch and is dropped whenever the batch is sent.
func (b *Batcher) processItems() {
	pending := make([]sender.Item, 0, b.config.BatchSize)
	var deadline <-chan time.Time

	sendPending := func() {
		b.send(pending)
		pending = pending[:0]
		deadline = nil
	}

	for {
		select {
		case <-b.ctx.Done():
			return

		case <-deadline:
			sendPending()

		case e := <-b.entries:
			if e.flush {
				sendPending()
				continue
			}
			pending = append(pending, e.item)
			switch {
			case b.full(len(pending)):
				sendPending()
			case deadline == nil && b.config.BatchTimeout > 0:
				deadline = time.After(b.config.BatchTimeout)
			}
		}
	}
}

// full reports whether n pending items should be sent now. Without a size or
// timeout every item goes out on its own.
func (b *Batcher) full(n int) bool {
	if b.config.BatchSize == 0 {
		return b.config.BatchTimeout == 0
	}
	return n >= b.config.BatchSize
}

func (b *Batcher) send(batch []sender.Item) {
	if len(batch) == 0 {
		return
	}
	resp, err := b.sink.Send(b.ctx, batch...)
	if err != nil {
		if b.config.ErrorListener != nil {
			b.config.ErrorListener(err)
		}
		return
	}
	if b.config.ResultListener != nil {
		b.config.ResultListener(resp)
	}
}
