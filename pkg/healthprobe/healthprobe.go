package healthprobe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Options configures one WaitForHealthy call.
type Options struct {
	HealthPath         string // appended to http://localhost:<port>; "" means root
	StartupTimeoutMS   int    // total deadline, default 30000
	PollIntervalMS     int    // default 500
	SingleCheckTimeoutMS int  // default 2000
}

func (o Options) withDefaults() Options {
	if o.StartupTimeoutMS <= 0 {
		o.StartupTimeoutMS = 30000
	}
	if o.PollIntervalMS <= 0 {
		o.PollIntervalMS = 500
	}
	if o.SingleCheckTimeoutMS <= 0 {
		o.SingleCheckTimeoutMS = 2000
	}
	return o
}

// Result is the outcome of WaitForHealthy.
type Result struct {
	Healthy    bool
	StatusCode int
	Elapsed    time.Duration
	Attempts   int
	Err        error
	TimedOut   bool
}

// Prober is the HealthProber.
type Prober struct {
	client *http.Client
}

// New creates a Prober. Each probe attempt gets its own per-request
// timeout via context, so the shared client need not set one itself.
func New() *Prober {
	return &Prober{client: &http.Client{}}
}

// WaitForHealthy polls http://localhost:<port><healthPath> until it
// responds or the total deadline passes. ctx cancellation (e.g. a stop
// of a starting process) aborts the poll early with Healthy=false.
func (p *Prober) WaitForHealthy(ctx context.Context, port int, opts Options) Result {
	opts = opts.withDefaults()
	path := opts.HealthPath
	if path == "" {
		path = "/"
	} else if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := fmt.Sprintf("http://localhost:%d%s", port, path)

	start := time.Now()
	deadline := start.Add(time.Duration(opts.StartupTimeoutMS) * time.Millisecond)
	attempts := 0

	for {
		attempts++
		select {
		case <-ctx.Done():
			return Result{Healthy: false, Elapsed: time.Since(start), Attempts: attempts, Err: ctx.Err()}
		default:
		}

		reqCtx, cancel := context.WithTimeout(ctx, time.Duration(opts.SingleCheckTimeoutMS)*time.Millisecond)
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
		if err == nil {
			resp, doErr := p.client.Do(req)
			if doErr == nil {
				resp.Body.Close()
				cancel()
				return Result{Healthy: true, StatusCode: resp.StatusCode, Elapsed: time.Since(start), Attempts: attempts}
			}
		}
		cancel()

		if time.Now().After(deadline) {
			return Result{Healthy: false, Elapsed: time.Since(start), Attempts: attempts, TimedOut: true}
		}

		select {
		case <-ctx.Done():
			return Result{Healthy: false, Elapsed: time.Since(start), Attempts: attempts, Err: ctx.Err()}
		case <-time.After(time.Duration(opts.PollIntervalMS) * time.Millisecond):
		}
	}
}

// QuickProbe issues a single short-timeout check, used by external-app
// detection to tell quickly whether something is already listening on
// a port.
func (p *Prober) QuickProbe(port int, healthPath string) bool {
	res := p.WaitForHealthy(context.Background(), port, Options{
		HealthPath:           healthPath,
		StartupTimeoutMS:     500,
		PollIntervalMS:       500,
		SingleCheckTimeoutMS: 500,
	})
	return res.Healthy
}
