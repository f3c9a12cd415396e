// Package server wraps http.Server with timeouts tuned for this API and a
// graceful shutdown hook.
package server

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"
)

// Server is the HTTP front of the application, optionally serving TLS when
// a certificate pair is configured.
type Server struct {
	srv     *http.Server
	tlsCert string
	tlsKey  string
}

// New creates a server for the given handler. The write timeout leaves room
// for the optimize and resume-import endpoints, which block on the external
// model and routinely take tens of seconds; the read timeout covers a full
// 5MB resume upload on a slow link.
func New(handler http.Handler, port, tlsCert, tlsKey string) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      120 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		tlsCert: tlsCert,
		tlsKey:  tlsKey,
	}
}

// Start begins serving in a background goroutine and returns immediately.
func (s *Server) Start() error {
	if s.tlsCert != "" && s.tlsKey != "" {
		s.srv.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}

		go func() {
			if err := s.srv.ListenAndServeTLS(s.tlsCert, s.tlsKey); err != nil && err != http.ErrServerClosed {
				panic(err)
			}
		}()
		return nil
	}

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests
// until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
