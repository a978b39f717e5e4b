// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package server hosts the governance JSON-RPC API over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/prometheus"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/govledger/govledger/internal/config"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	rpcPath     = "/"
	wsPath      = "/ws"
	metricsPath = "/debug/metrics/prometheus"

	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second

	// Per-IP limiters unused for limiterIdle are dropped every sweepInterval
	limiterIdle   = 10 * time.Minute
	sweepInterval = time.Minute
)

var (
	throttledMeter = metrics.NewRegisteredMeter("server/http/throttled", nil)
	requestMeter   = metrics.NewRegisteredMeter("server/http/requests", nil)
)

// Server serves an rpc.Server on a single listen address
type Server struct {
	cfg     config.HTTPConfig
	metrics bool
	rpc     *rpc.Server
	http    *http.Server
	limiter *ipLimiter
}

// New wraps rpcSrv in the HTTP stack described by cfg
func New(cfg config.HTTPConfig, metricsEnabled bool, rpcSrv *rpc.Server) *Server {
	s := &Server{
		cfg:     cfg,
		metrics: metricsEnabled,
		rpc:     rpcSrv,
		limiter: newIPLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(rpcPath, newCorsHandler(s.rpc, s.cfg.CORSOrigins))
	mux.Handle(wsPath, s.rpc.WebsocketHandler(s.cfg.WSOrigins))
	if s.metrics {
		mux.Handle(metricsPath, prometheus.Handler(metrics.DefaultRegistry))
	}
	return s.limiter.middleware(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	log.Info("JSON-RPC server started", "endpoint", listener.Addr(), "ws", wsPath, "metrics", s.metrics)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.http.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		s.limiter.sweep(gctx, sweepInterval, limiterIdle)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := s.http.Shutdown(shutdownCtx)
		s.rpc.Stop()
		log.Info("JSON-RPC server stopped", "endpoint", listener.Addr())
		return err
	})
	return g.Wait()
}

func newCorsHandler(srv http.Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		return srv
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	})
	return c.Handler(srv)
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter throttles requests per remote IP
type ipLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	entries map[string]*ipEntry
}

func newIPLimiter(limit rate.Limit, burst int) *ipLimiter {
	return &ipLimiter{limit: limit, burst: burst, entries: make(map[string]*ipEntry)}
}

func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[ip]
	if !ok {
		entry = &ipEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// prune drops limiters not used since now-idle and returns how many remain
func (l *ipLimiter) prune(now time.Time, idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, entry := range l.entries {
		if now.Sub(entry.lastSeen) >= idle {
			delete(l.entries, ip)
		}
	}
	return len(l.entries)
}

func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// sweep prunes idle limiters every interval until ctx is done
func (l *ipLimiter) sweep(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			if remaining := l.prune(now, idle); remaining > 0 {
				log.Trace("Pruned idle rate limiters", "remaining", remaining)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	if l.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestMeter.Mark(1)
		if !l.allow(remoteIP(r), time.Now()) {
			throttledMeter.Mark(1)
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
