package events

import (
	"bufio"
	"context"
	"errors"
	"net"
	"time"
)

type Server struct {
	Addr string
	Hub  *Hub
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

// Run listens on Addr until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.Hub.logger.Info("events listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			backoff = nextBackoff(backoff)
			s.Hub.logger.Warn("events accept failed", "err", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0

		go s.handle(conn)
	}
}

func (s *Server) handle(c net.Conn) {
	addr := c.RemoteAddr().String()
	_ = c.SetWriteDeadline(time.Now().Add(s.Hub.writeTimeout))
	if _, err := c.Write(welcome("tcp", s.Hub.Count()+1)); err != nil {
		s.Hub.logger.Debug("welcome failed", "addr", addr, "err", err)
		_ = c.Close()
		return
	}
	s.Hub.Add(c)
	s.Hub.logger.Info("watcher connected", "addr", addr)

	defer func() {
		s.Hub.Remove(c)
		s.Hub.logger.Info("watcher disconnected", "addr", addr)
	}()

	// watchers never send anything meaningful; read until EOF
	sc := bufio.NewScanner(c)
	for sc.Scan() {
	}
}

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return minAcceptBackoff
	}
	return min(d*2, maxAcceptBackoff)
}
