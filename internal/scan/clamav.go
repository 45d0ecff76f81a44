// Package scan checks uploaded files with a ClamAV daemon.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dutchcoders/go-clamd"
)

// ErrInfected is returned when the daemon reports a signature match.
var ErrInfected = errors.New("infected file")

// ClamAV streams files to clamd with INSTREAM.
type ClamAV struct {
	client *clamd.Clamd
}

// NewClamAV creates a scanner for addr, e.g. tcp://localhost:3310 or
// unix:///var/run/clamav/clamd.ctl.
func NewClamAV(addr string) *ClamAV {
	return &ClamAV{client: clamd.NewClamd(addr)}
}

// Ping checks that the daemon answers.
func (c *ClamAV) Ping() error {
	return c.client.Ping()
}

// Scan streams r to the daemon and waits for its verdict.
func (c *ClamAV) Scan(ctx context.Context, r io.Reader) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := c.client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok := <-results:
			if !ok {
				return nil
			}
			switch res.Status {
			case clamd.RES_OK:
			case clamd.RES_FOUND:
				return fmt.Errorf("%w: %s", ErrInfected, res.Description)
			default:
				return fmt.Errorf("scan: %s %s", res.Status, res.Description)
			}
		}
	}
}
