package bridge

import (
	"context"
	"net/http"
	"time"

	"github.com/golang/glog"
)

// Server is an HTTP server running as a framework.Runnable.
type Server struct {
	Addr    string
	Handler http.Handler
}

// Run implements framework.Runnable. The server is shut down when ctx is
// done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.Addr, Handler: s.Handler}
	errCh := make(chan error, 1)
	go func() {
		glog.Infof("http listening on %s", s.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}
