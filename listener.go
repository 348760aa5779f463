package oioproxy

import (
	"context"
	"net"
	"net/http"
	"time"
)

const listenerTimeout = 10 * time.Second

// Listener serves the proxy's HTTP API on one address. Adapted from the
// teacher's AdminListener (adminlistener.go), which wrapped an
// http.Server/http3.Server pair behind Start/Stop; the QUIC/TLS
// transport choice is dropped here since the proxy's API is plain HTTP
// behind a load balancer (spec §3 Non-goals: "TLS termination is out of
// scope, left to a fronting load balancer"), keeping only the
// Start/Stop/String shape.
type Listener struct {
	id     string
	addr   string
	server *http.Server
}

// NewListener returns a Listener serving handler on addr.
func NewListener(id, addr string, handler http.Handler) *Listener {
	return &Listener{
		id:   id,
		addr: addr,
		server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  listenerTimeout,
			WriteTimeout: listenerTimeout,
		},
	}
}

// Start runs the HTTP server, blocking until it is stopped or fails.
func (l *Listener) Start() error {
	Log.Info("starting listener", "id", l.id, "addr", l.addr)
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	err = l.server.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down.
func (l *Listener) Stop() error {
	Log.Info("stopping listener", "id", l.id, "addr", l.addr)
	ctx, cancel := context.WithTimeout(context.Background(), listenerTimeout)
	defer cancel()
	return l.server.Shutdown(ctx)
}

func (l *Listener) String() string {
	return l.id
}
