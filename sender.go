package sender

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DialFunc opens the stream connection for one exchange. It matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

type Option func(*Sender)

// WithLogger attaches a logger for debug tracing of each exchange.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Sender) {
		s.logger = logger
	}
}

// WithMetrics records every Send into m.
func WithMetrics(m *Metrics) Option {
	return func(s *Sender) {
		s.metrics = m
	}
}

func WithDialer(dial DialFunc) Option {
	return func(s *Sender) {
		s.dial = dial
	}
}

// Sender submits trapper items to a Zabbix server or proxy.
// Every Send opens its own connection, performs one request/response exchange and closes it,
// so a Sender may be used from any number of goroutines.
type Sender struct {
	addr      string
	chunkSize int
	dial      DialFunc
	logger    zerolog.Logger
	metrics   *Metrics
}

func New(config Config, opts ...Option) (*Sender, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()

	s := &Sender{
		addr:      config.Address(),
		chunkSize: config.ReadChunkSize,
		dial:      (&net.Dialer{}).DialContext,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Sender) Addr() string {
	return s.addr
}

// Send delivers items in a single sender data request and returns the server's response.
// No timeout is applied; bound the call through ctx. Cancelling ctx closes the connection
// and Send returns ctx.Err().
func (s *Sender) Send(ctx context.Context, items ...Item) (resp Response, err error) {
	start := time.Now()
	defer func() {
		s.metrics.observe(resp, err, time.Since(start))
	}()

	s.logger.Debug().Int("items", len(items)).Str("addr", s.addr).Msg("sending items")

	packet, err := EncodePacket(items)
	if err != nil {
		return Response{}, err
	}
	s.logger.Debug().Int("length", len(packet)).Msg("packet created")

	body, err := s.exchange(ctx, packet)
	if err != nil {
		return Response{}, err
	}

	resp, err = ParseBody(body)
	if err != nil {
		return Response{}, err
	}
	s.logger.Debug().
		Str("status", resp.Status).
		Uint64("processed", resp.Processed).
		Uint64("failed", resp.Failed).
		Uint64("total", resp.Total).
		Float64("seconds_spent", resp.SecondsSpent).
		Msg("parsed response")
	return resp, nil
}

// exchange writes packet on a fresh connection and returns the response body.
// The connection is closed before exchange returns.
func (s *Sender) exchange(ctx context.Context, packet []byte) (body []byte, err error) {
	conn, err := s.dial(ctx, "tcp", s.addr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ConnectionError{Op: "dial", Addr: s.addr, Err: err}
	}

	var (
		closeOnce sync.Once
		closeErr  error
	)
	closeConn := func() error {
		closeOnce.Do(func() {
			closeErr = conn.Close()
		})
		return closeErr
	}
	stop := context.AfterFunc(ctx, func() {
		_ = closeConn()
	})
	defer func() {
		stop()
		cerr := closeConn()
		if err != nil {
			// I/O on a connection closed by cancellation reports as the cancellation.
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			body = nil
			return
		}
		if cerr != nil {
			body, err = nil, &ConnectionError{Op: "close", Addr: s.addr, Err: cerr}
		}
	}()

	if _, err := conn.Write(packet); err != nil {
		return nil, &ConnectionError{Op: "write", Addr: s.addr, Err: err}
	}
	return s.readFrame(conn)
}

// readFrame assembles one response frame from r, tolerating reads of any size.
// It never consumes bytes past the declared body length.
func (s *Sender) readFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderSize)
	if n, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &PartialReadError{Stage: "header", Want: HeaderSize, Got: uint64(n)}
		}
		return nil, &ConnectionError{Op: "read", Addr: s.addr, Err: err}
	}

	length, err := ParseHeader(header)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Uint64("length", length).Msg("response header received")

	return s.readBody(r, length)
}

func (s *Sender) readBody(r io.Reader, length uint64) ([]byte, error) {
	var body bytes.Buffer
	chunk := make([]byte, s.chunkSize)
	for uint64(body.Len()) < length {
		want := length - uint64(body.Len())
		if want > uint64(len(chunk)) {
			want = uint64(len(chunk))
		}
		n, err := r.Read(chunk[:want])
		body.Write(chunk[:n])
		if err == nil {
			continue
		}
		if uint64(body.Len()) == length {
			break
		}
		if errors.Is(err, io.EOF) {
			return nil, &PartialReadError{Stage: "body", Want: length, Got: uint64(body.Len())}
		}
		return nil, &ConnectionError{Op: "read", Addr: s.addr, Err: err}
	}
	return body.Bytes(), nil
}
