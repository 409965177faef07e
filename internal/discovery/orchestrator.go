// Package discovery finds a company's career page and extracts its jobs.
//
// Each company is driven through an explicit state machine:
//
//	init -> candidate_selected -> page_fetched -> validated
//	     -> [portal_followed] -> extracted -> succeeded | failed
//
// Fetch and validation failures loop back to candidate_selected with the
// next candidate URL. The first success ends the session.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/careerscout/internal/fetch"
	"github.com/jonathan/careerscout/internal/logging"
	"github.com/jonathan/careerscout/internal/portal"
	"github.com/jonathan/careerscout/internal/types"
	"github.com/jonathan/careerscout/internal/validation"
)

var (
	// ErrCandidateExhausted means no candidate produced a valid career page
	ErrCandidateExhausted = errors.New("no working career URL")
	// ErrExtractionEmpty means a valid page yielded no jobs by any strategy
	ErrExtractionEmpty = errors.New("no jobs found")
)

// CandidateSource produces the ranked candidate URLs for a company.
type CandidateSource interface {
	Generate(company types.Company) ([]string, error)
}

// PageValidator decides whether HTML is a career page.
type PageValidator interface {
	Validate(html string) validation.Verdict
}

// PortalDetector finds outbound ATS links.
type PortalDetector interface {
	Detect(html, pageURL string) []portal.Link
}

// Extractor runs the extraction cascade.
type Extractor interface {
	Extract(html, sourceURL string, company types.Company) ([]types.JobRecord, types.DiscoveryMethod)
	KeywordLinks(html, sourceURL string, company types.Company) []types.JobRecord
}

// Config bounds the work done per company.
type Config struct {
	MaxCandidates  int           // 0 means try every generated candidate
	CandidateDelay time.Duration // Politeness delay between candidate attempts
	Wait           time.Duration // Render wait budget passed to every fetch
}

// Orchestrator composes candidate generation, fetching, validation, portal
// detection and extraction into a single per-company operation.
type Orchestrator struct {
	candidates CandidateSource
	fetcher    fetch.Fetcher
	validator  PageValidator
	portals    PortalDetector
	extractor  Extractor
	cfg        Config
	log        *logging.Logger
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSleep replaces the politeness delay implementation.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.sleep = fn
		}
	}
}

// WithClock sets the time source used for elapsed time.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an Orchestrator.
func New(
	candidates CandidateSource,
	fetcher fetch.Fetcher,
	validator PageValidator,
	portals PortalDetector,
	extractor Extractor,
	cfg Config,
	logger *logging.Logger,
	opts ...Option,
) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		candidates: candidates,
		fetcher:    fetcher,
		validator:  validator,
		portals:    portals,
		extractor:  extractor,
		cfg:        cfg,
		log:        logger,
		sleep:      SleepContext,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// session carries the mutable state of one company's discovery.
type session struct {
	company    types.Company
	candidates []string
	next       int
	current    string

	page     *fetch.Result // Last fetched candidate page
	original *fetch.Result // Validated company page
	portal   *fetch.Result // Validated portal page, if followed

	jobs          []types.JobRecord
	method        types.DiscoveryMethod
	fallbackTried bool

	lastErr error
	err     error
	detail  string
	trace   []Transition
}

// Discover runs the state machine for one company. Failure is reported in
// the result, never returned.
func (o *Orchestrator) Discover(ctx context.Context, company types.Company) types.CompanyResult {
	result, _ := o.DiscoverTrace(ctx, company)
	return result
}

// DiscoverTrace is Discover plus the list of transitions taken.
func (o *Orchestrator) DiscoverTrace(ctx context.Context, company types.Company) (types.CompanyResult, []Transition) {
	start := o.now()
	s := &session{company: company, method: types.MethodNone}
	log := o.log.With("company", company.Name)

	state := StateInit
	for !state.Terminal() {
		s.detail = ""
		next := o.step(ctx, s, state)
		s.trace = append(s.trace, Transition{From: state, To: next, Detail: s.detail})
		log.Debug("discovery transition", "from", state.String(), "to", next.String(), "detail", s.detail)
		state = next
	}

	result := types.CompanyResult{
		Company:         company.Name,
		Sector:          company.Sector,
		Success:         state == StateSucceeded,
		Jobs:            s.jobs,
		JobsFound:       len(s.jobs),
		TimeElapsed:     o.now().Sub(start).Milliseconds(),
		DiscoveryMethod: s.method,
	}
	if result.Jobs == nil {
		result.Jobs = []types.JobRecord{}
	}
	if s.original != nil {
		result.CareerURL = s.original.URL
	}
	if s.err != nil {
		result.Error = s.err.Error()
	}

	return result, s.trace
}

// step performs the work of state and returns the next state.
func (o *Orchestrator) step(ctx context.Context, s *session, state State) State {
	switch state {
	case StateInit:
		return o.init(ctx, s)
	case StateCandidateSelected:
		return o.fetchCandidate(ctx, s)
	case StatePageFetched:
		return o.validate(ctx, s)
	case StateValidated:
		return o.followPortal(ctx, s)
	case StatePortalFollowed:
		return o.extractPortal(s)
	case StateExtracted:
		return o.finish(s)
	default:
		return state
	}
}

func (o *Orchestrator) init(ctx context.Context, s *session) State {
	candidates, err := o.candidates.Generate(s.company)
	if err != nil {
		s.err = err
		s.detail = "candidate generation failed"
		return StateFailed
	}
	if o.cfg.MaxCandidates > 0 && len(candidates) > o.cfg.MaxCandidates {
		candidates = candidates[:o.cfg.MaxCandidates]
	}
	s.candidates = candidates
	return o.advance(ctx, s)
}

// advance selects the next candidate, pausing between attempts, or fails
// the session when the list is exhausted.
func (o *Orchestrator) advance(ctx context.Context, s *session) State {
	if s.next >= len(s.candidates) {
		if s.lastErr != nil {
			s.err = fmt.Errorf("%w after %d candidates (last: %v)", ErrCandidateExhausted, len(s.candidates), s.lastErr)
		} else {
			s.err = ErrCandidateExhausted
		}
		s.detail = "candidates exhausted"
		return StateFailed
	}

	if s.next > 0 {
		if err := o.sleep(ctx, o.cfg.CandidateDelay); err != nil {
			s.err = fmt.Errorf("discovery interrupted: %w", err)
			s.detail = "cancelled"
			return StateFailed
		}
	}

	s.current = s.candidates[s.next]
	s.next++
	s.detail = s.current
	return StateCandidateSelected
}

func (o *Orchestrator) fetchCandidate(ctx context.Context, s *session) State {
	page, err := o.fetcher.Fetch(ctx, s.current, o.cfg.Wait)
	if err != nil {
		o.log.Debug("candidate fetch failed", "company", s.company.Name, "url", s.current, "kind", string(fetch.KindOf(err)), "err", err)
		s.lastErr = err
		return o.advance(ctx, s)
	}
	s.page = page
	s.detail = fmt.Sprintf("%d bytes", len(page.HTML))
	return StatePageFetched
}

func (o *Orchestrator) validate(ctx context.Context, s *session) State {
	verdict := o.validator.Validate(s.page.HTML)
	if !verdict.OK {
		o.log.Debug("candidate rejected", "company", s.company.Name, "url", s.current, "reason", string(verdict.Reason))
		s.lastErr = fmt.Errorf("%s rejected: %s", s.current, verdict.Reason)
		return o.advance(ctx, s)
	}
	s.original = s.page
	s.detail = string(verdict.Reason)
	return StateValidated
}

// followPortal makes at most one hop to the first detected ATS link. When
// no portal page is usable the original page is extracted directly.
func (o *Orchestrator) followPortal(ctx context.Context, s *session) State {
	if links := o.portals.Detect(s.original.HTML, s.original.URL); len(links) > 0 {
		link := links[0]
		page, err := o.fetcher.Fetch(ctx, link.URL, o.cfg.Wait)
		switch {
		case err != nil:
			o.log.Debug("portal fetch failed", "company", s.company.Name, "url", link.URL, "err", err)
		case !o.validator.Validate(page.HTML).OK:
			o.log.Debug("portal rejected", "company", s.company.Name, "url", link.URL)
		default:
			s.portal = page
			s.detail = link.Vendor + " " + link.URL
			return StatePortalFollowed
		}
	}

	s.jobs, s.method = o.extractor.Extract(s.original.HTML, s.original.URL, s.company)
	s.detail = fmt.Sprintf("%d jobs from company page", len(s.jobs))
	return StateExtracted
}

func (o *Orchestrator) extractPortal(s *session) State {
	jobs, _ := o.extractor.Extract(s.portal.HTML, s.portal.URL, s.company)
	for i := range jobs {
		jobs[i].DiscoveryMethod = types.MethodExternalPortal
	}
	s.jobs = jobs
	if len(jobs) > 0 {
		s.method = types.MethodExternalPortal
	}
	s.detail = fmt.Sprintf("%d jobs from portal", len(jobs))
	return StateExtracted
}

// finish ends the session. An empty portal extraction gets one last
// keyword-link pass over the original page.
func (o *Orchestrator) finish(s *session) State {
	if len(s.jobs) == 0 && s.portal != nil && !s.fallbackTried {
		s.fallbackTried = true
		s.jobs = o.extractor.KeywordLinks(s.original.HTML, s.original.URL, s.company)
		if len(s.jobs) > 0 {
			s.method = types.MethodKeywordLink
		}
	}

	if len(s.jobs) == 0 {
		s.jobs = nil
		s.method = types.MethodNone
		s.err = ErrExtractionEmpty
		s.detail = "no jobs"
		return StateFailed
	}

	s.detail = fmt.Sprintf("%d jobs via %s", len(s.jobs), s.method)
	return StateSucceeded
}

// SleepContext pauses for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
