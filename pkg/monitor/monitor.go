package monitor

import (
	"context"
	"net/http"
	"time"

	"github.com/platinummonkey/membergate/pkg/observability"
)

// DefaultIdleThreshold matches the server-side session idle threshold.
const DefaultIdleThreshold = 7200 * time.Second

// DefaultPollInterval bounds how long a pause can go unnoticed while media
// is playing.
const DefaultPollInterval = 30 * time.Second

// Config controls a Monitor.
type Config struct {
	// IdleThreshold is how long the user may be inactive before the
	// session is terminated. Zero means DefaultIdleThreshold.
	IdleThreshold time.Duration
	// PollInterval is how often the media probe is rechecked while
	// playback is holding the session open. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration
	// TerminateURL receives the termination POST.
	TerminateURL string
	// RedirectURL is passed to the Redirect callback once the session
	// is confirmed gone.
	RedirectURL string
}

// Monitor drives the inactivity-termination loop for one session. All state
// transitions happen on the single goroutine inside Run; Interact is the
// only cross-goroutine entry point.
type Monitor struct {
	cfg      Config
	probe    MediaPlaybackProbe
	client   *http.Client
	redirect func(url string)
	logger   *observability.Logger

	activity chan struct{}

	// terminated is closed by Run after the redirect fires. Tests use it
	// to observe completion.
	terminated chan struct{}
}

// New builds a Monitor. The redirect callback is invoked at most once, after
// the server confirms the session no longer exists. probe may be nil, which
// behaves like NoneProbe.
func New(cfg Config, probe MediaPlaybackProbe, client *http.Client, redirect func(url string), logger *observability.Logger) *Monitor {
	if cfg.IdleThreshold <= 0 {
		cfg.IdleThreshold = DefaultIdleThreshold
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if probe == nil {
		probe = NoneProbe{}
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Monitor{
		cfg:        cfg,
		probe:      probe,
		client:     client,
		redirect:   redirect,
		logger:     logger,
		activity:   make(chan struct{}, 1),
		terminated: make(chan struct{}),
	}
}

// Interact records user activity. It never blocks; bursts of activity
// between loop wakeups coalesce into a single timer reset.
func (m *Monitor) Interact() {
	select {
	case m.activity <- struct{}{}:
	default:
	}
}

// Terminated is closed once the redirect callback has fired.
func (m *Monitor) Terminated() <-chan struct{} {
	return m.terminated
}

// Run executes the monitor loop until the session is terminated or ctx is
// canceled. At most one asynchronous operation (probe or termination POST)
// is in flight at any time; activity observed during one is applied when it
// completes.
func (m *Monitor) Run(ctx context.Context) {
	defer observability.RecoverPanic(m.logger, "session monitor")

	timer := NewIdleTimer(m.cfg.IdleThreshold)
	defer timer.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.activity:
			timer.Reset()
		case <-timer.C():
			if m.expired(ctx, timer) {
				return
			}
		}
	}
}

// expired handles one idle-threshold expiry. It returns true when the loop
// should exit because the session is gone or the context was canceled.
func (m *Monitor) expired(ctx context.Context, timer *IdleTimer) bool {
	// Activity that raced the expiry wins: drain it and keep the session.
	select {
	case <-m.activity:
		timer.Reset()
		return false
	default:
	}

	state, err := m.probe.State(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		// A probe failure is indistinguishable from a broken player
		// bridge. Treat it as no player so a dead bridge cannot hold
		// the session open forever.
		m.logger.WithError(err).Debug("media probe failed, treating as no player")
		state = StateNoPlayer
	}

	if state == StatePlaying {
		// Playback holds the session open. Recheck at the poll
		// interval so a pause is noticed within one interval.
		timer.ResetTo(m.cfg.PollInterval)
		return false
	}

	if m.terminate(ctx) {
		return true
	}
	// Transient failure: the session may still exist, so arm a full idle
	// threshold before trying again.
	timer.Reset()
	return false
}

// terminate posts the termination request and interprets the response. Once
// started, the POST is never canceled: a termination the server may already
// have applied must not be abandoned halfway.
func (m *Monitor) terminate(ctx context.Context) bool {
	req, err := http.NewRequest(http.MethodPost, m.cfg.TerminateURL, nil)
	if err != nil {
		m.logger.WithError(err).Error("building termination request")
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		m.logger.WithError(err).Warn("termination request failed, retrying after idle threshold")
		return false
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// Session terminated.
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusNotFound:
		// Session already gone; the outcome is the same.
	default:
		m.logger.WithField("status", resp.StatusCode).Warn("termination rejected, retrying after idle threshold")
		return false
	}

	if m.redirect != nil {
		m.redirect(m.cfg.RedirectURL)
	}
	close(m.terminated)
	return true
}
