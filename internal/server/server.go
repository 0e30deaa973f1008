package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/eternalApril/starlight/internal/metrics"
	"github.com/eternalApril/starlight/internal/queue"
	"github.com/eternalApril/starlight/internal/wire"
	"github.com/panjf2000/ants"
	"go.uber.org/zap"
)

// Submitter hands request lines to the processing goroutine
type Submitter interface {
	Submit(ctx context.Context, request string) (*queue.Future, error)
}

// Options configures a Server
type Options struct {
	MaxLineLength  int           // longest accepted request line, terminator excluded
	MaxConnections int           // connection handlers running at once, Accept waits beyond that
	RequestTimeout time.Duration // 0 waits for every reply
}

// Server accepts TCP clients and relays their request lines to the queue
type Server struct {
	opts    Options
	queue   Submitter
	pool    *ants.Pool
	logger  *zap.Logger
	metrics *metrics.Collector

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// New creates a Server. collector may be nil
func New(opts Options, q Submitter, logger *zap.Logger, collector *metrics.Collector) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxConnections <= 0 {
		return nil, fmt.Errorf("server: max connections must be positive, got %d", opts.MaxConnections)
	}

	pool, err := ants.NewPool(opts.MaxConnections, ants.WithPanicHandler(func(i interface{}) {
		logger.Error("connection handler panicked",
			zap.Any("panic", i),
			zap.ByteString("stack", debug.Stack()),
		)
	}))
	if err != nil {
		return nil, fmt.Errorf("server: create connection pool: %w", err)
	}

	return &Server{
		opts:    opts,
		queue:   q,
		pool:    pool,
		logger:  logger,
		metrics: collector,
		conns:   make(map[net.Conn]struct{}),
	}, nil
}

// Serve accepts connections on ln until ctx ends, then closes the listener
// and every open connection and waits for their handlers to return
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("listening on", zap.String("address", ln.Addr().String()))

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		ln.Close() //nolint:errcheck
		// handlers hold pool workers, release them so a waiting Submit can return
		s.closeConnections()
	}()
	defer close(stop)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept error", zap.Error(err))
			continue
		}

		s.track(conn)
		s.wg.Add(1)
		err = s.pool.Submit(func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		})
		if err != nil {
			s.wg.Done()
			s.untrack(conn)
			conn.Close() //nolint:errcheck
			s.logger.Error("connection rejected", zap.Error(err))
		}
	}

	s.logger.Info("shutting down listener")
	s.closeConnections()
	s.wg.Wait()
	s.pool.Release()
	s.logger.Info("all connections closed")

	return nil
}

// handleConnection handles a connection for a single user
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	peer := NewPeer(conn, s.opts.MaxLineLength)

	s.metrics.ConnectionOpened()
	if s.logger.Core().Enabled(zap.DebugLevel) {
		s.logger.Debug("client connected", zap.String("addr", peer.RemoteAddr()))
	}

	defer func() {
		s.untrack(conn)
		peer.Close() //nolint:errcheck
		s.metrics.ConnectionClosed()
		// log connection close
		if s.logger.Core().Enabled(zap.DebugLevel) {
			s.logger.Debug("client disconnected", zap.String("addr", peer.RemoteAddr()))
		}
	}()

	for {
		line, err := peer.ReadLine()
		if err != nil {
			switch {
			case errors.Is(err, wire.ErrLineTooLong):
				s.logger.Warn("request line too long", zap.String("addr", peer.RemoteAddr()))
				if peer.Send(makeError(err)) == nil {
					peer.Flush() //nolint:errcheck
				}
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			default:
				s.logger.Warn("read request failed", zap.Error(err))
			}
			return
		}

		if line == "" {
			continue
		}

		if strings.EqualFold(line, "bye") {
			if peer.Send(farewellLine) == nil {
				peer.Flush() //nolint:errcheck
			}
			return
		}

		if err = peer.Send(s.execute(ctx, line)); err != nil {
			s.logger.Error("error writing response", zap.Error(err))
			return
		}

		if peer.InputBuffered() == 0 {
			if err := peer.Flush(); err != nil {
				return
			}
		}
	}
}

// execute submits one request and waits for its reply.
// Server shutdown does not cut the wait short: the queue answers every accepted request
func (s *Server) execute(ctx context.Context, line string) string {
	reqCtx := context.WithoutCancel(ctx)
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(reqCtx, s.opts.RequestTimeout)
		defer cancel()
	}

	future, err := s.queue.Submit(reqCtx, line)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.metrics.RequestTimedOut()
			return makeError(queue.ErrTimeout)
		}
		return makeError(err)
	}

	res, err := future.Wait(reqCtx)
	if err != nil {
		if errors.Is(err, queue.ErrTimeout) {
			s.metrics.RequestTimedOut()
			s.logger.Warn("request timed out",
				zap.String("request", line),
				zap.Duration("timeout", s.opts.RequestTimeout),
			)
			return makeError(queue.ErrTimeout)
		}
		return makeError(err)
	}
	return res
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// closeConnections unblocks every handler waiting on a read
func (s *Server) closeConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		conn.Close() //nolint:errcheck
	}
}
