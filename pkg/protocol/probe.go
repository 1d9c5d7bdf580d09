package protocol

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
)

// Opener opens a named port.
type Opener func(name string) (io.ReadWriteCloser, error)

var errFound = errors.New("device found")

// Probe checks whether a device answers a connect on rw within timeout.
// It returns nil when the identification is received.
func Probe(ctx context.Context, rw io.ReadWriter, timeout time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	client := NewClient(NewLink(rw))
	go client.Run(ctx)
	return client.Connect(ctx, timeout)
}

// Discover probes ports concurrently and returns the first one a device
// answers on. Remaining probes are cancelled once a device is found.
func Discover(ctx context.Context, ports []string, open Opener, timeout time.Duration) (string, error) {
	var (
		found string
		lock  sync.Mutex
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range ports {
		name := name
		g.Go(func() error {
			rwc, err := open(name)
			if err != nil {
				glog.V(2).Infof("open %s: %v", name, err)
				return nil
			}
			defer rwc.Close()
			glog.V(2).Infof("probing %s", name)
			if err := Probe(gctx, rwc, timeout); err != nil {
				glog.V(2).Infof("probe %s: %v", name, err)
				return nil
			}
			lock.Lock()
			if found == "" {
				found = name
			}
			lock.Unlock()
			return errFound
		})
	}
	g.Wait()
	if found != "" {
		return found, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", ErrNoDevice
}
