// Package keypool implements a resilient multi-credential client pool for
// rate-limited external providers.
//
// Each service gets one Pool holding an ordered set of credentials and one
// bound client per credential. Selection is round-robin; a credential that
// produced a temporary failure is quarantined for a cooldown window and
// skipped until the window expires or a later success clears it. Execute
// drives a whole operation across bounded attempts, rotating credentials
// between temporary failures.
package keypool

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Snapshot is a read-only view of a pool's health.
type Snapshot struct {
	Total       int `json:"totalKeys"`
	Quarantined int `json:"quarantinedKeys"`
	Available   int `json:"availableKeys"`
	Cursor      int `json:"cursor"`
}

// Options configures a Pool. Zero values fall back to defaults.
type Options struct {
	// Cooldown is how long a quarantined credential stays ineligible.
	Cooldown time.Duration

	// MaxAttempts bounds Execute's attempt loop.
	MaxAttempts int

	// BaseDelay seeds the exponential backoff between attempts. A service
	// with stricter provider rate limits should use a longer base.
	BaseDelay time.Duration

	// MaxDelay caps the backoff.
	MaxDelay time.Duration

	// RateLimit smooths outgoing calls client-side, in requests per
	// second. Zero disables the limiter.
	RateLimit float64

	// HardFail makes Select return ErrAllQuarantined instead of falling
	// back to the least-recently-failed credential when everything is
	// quarantined and still cooling down.
	HardFail bool
}

const (
	defaultCooldown    = 60 * time.Second
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 30 * time.Second
)

// Pool holds the credentials and bound clients for one service.
//
// Bound clients are constructed once and shared across concurrent callers;
// the mutex guards only the rotation cursor and quarantine bookkeeping,
// never a network call.
type Pool[C any] struct {
	service     string
	cooldown    time.Duration
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	hardFail    bool
	limiter     *rate.Limiter

	// Immutable after construction.
	clients   map[string]C
	buildErrs map[string]error

	mu            sync.Mutex
	credentials   []string
	cursor        int
	quarantined   map[string]struct{}
	lastFailureAt map[string]time.Time

	now func() time.Time
}

// New constructs a pool for service from an ordered credential list,
// building one bound client per credential up front. A credential whose
// client cannot be built is kept in the rotation but recorded as broken;
// Execute quarantines it on selection without spending an attempt's worth
// of provider quota on it.
func New[C any](service string, credentials []string, build func(credential string) (C, error), opts Options) *Pool[C] {
	if opts.Cooldown <= 0 {
		opts.Cooldown = defaultCooldown
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = defaultMaxDelay
	}

	p := &Pool[C]{
		service:       service,
		cooldown:      opts.Cooldown,
		maxAttempts:   opts.MaxAttempts,
		baseDelay:     opts.BaseDelay,
		maxDelay:      opts.MaxDelay,
		hardFail:      opts.HardFail,
		clients:       make(map[string]C),
		buildErrs:     make(map[string]error),
		quarantined:   make(map[string]struct{}),
		lastFailureAt: make(map[string]time.Time),
		now:           time.Now,
	}
	if opts.RateLimit > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	for _, cred := range credentials {
		if cred == "" {
			continue
		}
		if _, dup := p.clients[cred]; dup {
			continue
		}
		if _, dup := p.buildErrs[cred]; dup {
			continue
		}
		p.credentials = append(p.credentials, cred)
		client, err := build(cred)
		if err != nil {
			p.buildErrs[cred] = fmt.Errorf("keypool: %s: build client for %s: %w", service, Mask(cred), err)
			continue
		}
		p.clients[cred] = client
	}

	return p
}

// Service returns the service name the pool was constructed for.
func (p *Pool[C]) Service() string { return p.service }

// Size returns the number of configured credentials.
func (p *Pool[C]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.credentials)
}

// Select returns the next eligible credential. It scans at most one full
// rotation from the cursor: healthy credentials win immediately, and a
// quarantined credential whose cooldown has expired is reinstated and
// returned. When every credential is quarantined and still cooling down,
// the least-recently-failed one is returned so callers keep making forward
// progress (unless HardFail is set).
func (p *Pool[C]) Select() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.credentials)
	if n == 0 {
		return "", ErrNoCredentials
	}

	now := p.now()
	for i := 0; i < n; i++ {
		idx := (p.cursor + i) % n
		cred := p.credentials[idx]

		if _, bad := p.quarantined[cred]; !bad {
			p.cursor = (idx + 1) % n
			return cred, nil
		}
		if now.Sub(p.lastFailureAt[cred]) >= p.cooldown {
			delete(p.quarantined, cred)
			delete(p.lastFailureAt, cred)
			p.cursor = (idx + 1) % n
			return cred, nil
		}
	}

	if p.hardFail {
		return "", ErrAllQuarantined
	}

	// Everything is cooling down: reuse the credential that failed
	// longest ago rather than failing hard.
	oldest := p.credentials[0]
	oldestAt := p.lastFailureAt[oldest]
	for _, cred := range p.credentials[1:] {
		if at := p.lastFailureAt[cred]; at.Before(oldestAt) {
			oldest, oldestAt = cred, at
		}
	}
	return oldest, nil
}

// RecordSuccess clears any quarantine on credential. A credential that
// just served a successful call is healthy regardless of its cooldown.
func (p *Pool[C]) RecordSuccess(credential string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.quarantined, credential)
	delete(p.lastFailureAt, credential)
}

// RecordFailure quarantines credential, stamps its failure time, and moves
// the cursor off it so the next selection starts elsewhere.
func (p *Pool[C]) RecordFailure(credential string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.credentials)
	if n == 0 || !p.holdsLocked(credential) {
		return
	}

	p.quarantined[credential] = struct{}{}
	p.lastFailureAt[credential] = p.now()
	if p.credentials[p.cursor] == credential {
		p.cursor = (p.cursor + 1) % n
	}
}

// Snapshot returns current pool health. Quarantined counts the raw
// quarantine set; Available excludes only credentials still inside their
// cooldown window.
func (p *Pool[C]) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	cooling := 0
	for cred := range p.quarantined {
		if now.Sub(p.lastFailureAt[cred]) < p.cooldown {
			cooling++
		}
	}

	return Snapshot{
		Total:       len(p.credentials),
		Quarantined: len(p.quarantined),
		Available:   len(p.credentials) - cooling,
		Cursor:      p.cursor,
	}
}

// ResetAll clears all quarantine and failure state. Administrative escape
// hatch for recovering after a known provider outage.
func (p *Pool[C]) ResetAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.quarantined = make(map[string]struct{})
	p.lastFailureAt = make(map[string]time.Time)
}

// Client returns the bound client for credential, or the error recorded
// when the client could not be constructed at startup.
func (p *Pool[C]) Client(credential string) (C, error) {
	if err, ok := p.buildErrs[credential]; ok {
		var zero C
		return zero, err
	}
	client, ok := p.clients[credential]
	if !ok {
		var zero C
		return zero, fmt.Errorf("keypool: %s: no client bound to %s", p.service, Mask(credential))
	}
	return client, nil
}

func (p *Pool[C]) holdsLocked(credential string) bool {
	for _, cred := range p.credentials {
		if cred == credential {
			return true
		}
	}
	return false
}

// Mask returns a log-safe prefix of a credential value.
func Mask(credential string) string {
	const visible = 6
	if len(credential) <= visible {
		return credential[:len(credential)/2] + "…"
	}
	return credential[:visible] + "…"
}
