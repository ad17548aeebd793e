package namescan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"memoria/internal/namescan/metrics"
	"memoria/internal/people"
	"memoria/internal/preference"
	"memoria/internal/visibility"
	id "memoria/pkg/domain"
	"memoria/pkg/platform/sentinel"
	"memoria/pkg/requestcontext"
)

const tracerName = "memoria/namescan"

// PersonDirectory is the slice of the people store the scanner needs.
type PersonDirectory interface {
	FindByName(ctx context.Context, name string) (*people.Person, error)
}

// PreferenceSource supplies the standing preference pair for resolution.
type PreferenceSource interface {
	SnapshotPair(ctx context.Context, personID id.PersonID, contributorID id.ContributorID) (preference.Pair, error)
}

// RelationshipSource supplies the most recently recorded relationship
// for a person. Implemented by the reference store.
type RelationshipSource interface {
	LatestRelationship(ctx context.Context, personID id.PersonID) (string, error)
}

// Detector finds name spans in submitted content. The production
// detector runs the named-entity pass; tests substitute deterministic
// ones.
type Detector func(content string, maxNames int) ([]Span, error)

// ClearedPerson is one detected name whose standing visibility resolved
// to exactly approved, together with the person's most recently recorded
// relationship to a story subject.
type ClearedPerson struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
}

// Result carries the consent facts for one submission. Spans cover every
// detected name; Cleared lists the pre-approved ones; NeedsConsent lists
// the distinct names the moderation gate must still decide on.
type Result struct {
	Spans        []Span          `json:"spans"`
	Cleared      []ClearedPerson `json:"cleared"`
	NeedsConsent []string        `json:"needs_consent,omitempty"`
}

// Scanner resolves detected names against the people registry and the
// standing visibility signals.
type Scanner struct {
	people   PersonDirectory
	prefs    PreferenceSource
	refs     RelationshipSource
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *metrics.Metrics
	detect   Detector
	maxNames int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMaxNames overrides the distinct-name cap per submission.
func WithMaxNames(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxNames = n
		}
	}
}

// WithMetrics attaches scanner metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) {
		s.metrics = m
	}
}

// WithDetector replaces the named-entity detector, letting tests feed
// deterministic spans through the lookup pipeline.
func WithDetector(detect Detector) Option {
	return func(s *Scanner) {
		if detect != nil {
			s.detect = detect
		}
	}
}

// NewScanner constructs the consent scanner.
func NewScanner(persons PersonDirectory, prefs PreferenceSource, refs RelationshipSource, logger *slog.Logger, opts ...Option) *Scanner {
	scanner := &Scanner{
		people:   persons,
		prefs:    prefs,
		refs:     refs,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		detect:   DetectNames,
		maxNames: DefaultMaxNames,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(scanner)
		}
	}
	return scanner
}

// Scan finds person names in the submitted body and reports which of
// them are pre-cleared for publication. The per-contributor preference
// consults the authoring contributor from the request context.
//
// Scan never fails. Detection errors degrade to an empty result and
// lookup errors degrade to "not yet cleared": a storage blip cannot
// block a submission, and can never promote a name to approved.
func (s *Scanner) Scan(ctx context.Context, body string) Result {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "namescan.scan")
	defer span.End()

	spans, err := s.detect(body, s.maxNames)
	if err != nil {
		s.logger.WarnContext(ctx, "name detection failed, continuing without consent facts",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return Result{}
	}

	names := DistinctNames(spans)
	contributor := requestcontext.ContributorID(ctx)

	result := Result{Spans: spans}
	for _, name := range names {
		relationship, cleared := s.clearanceFor(ctx, name, contributor)
		if !cleared {
			result.NeedsConsent = append(result.NeedsConsent, name)
			continue
		}
		result.Cleared = append(result.Cleared, ClearedPerson{Name: name, Relationship: relationship})
	}

	span.SetAttributes(
		attribute.Int("names.detected", len(names)),
		attribute.Int("names.cleared", len(result.Cleared)),
	)
	s.metrics.AddNamesDetected(len(names))
	s.metrics.AddConsentCleared(len(result.Cleared))
	s.metrics.ObserveScanDuration(time.Since(start))
	return result
}

// clearanceFor resolves one detected name. It reports the person's most
// recent relationship and true only when the standing visibility is
// exactly approved; unknown names, lookup failures, and every other
// state count as not cleared.
func (s *Scanner) clearanceFor(ctx context.Context, name string, contributor id.ContributorID) (string, bool) {
	person, err := s.people.FindByName(ctx, name)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "person lookup failed during scan",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return "", false
	}

	pair, err := s.prefs.SnapshotPair(ctx, person.ID, contributor)
	if err != nil {
		// A failed preference read reads as pending, never as consent.
		s.logger.WarnContext(ctx, "preference lookup failed during scan",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		pair = preference.Pair{}
	}

	state := visibility.ResolveStanding(visibility.Signals{
		Contributor: pair.Contributor,
		Global:      pair.Global,
		Default:     person.DefaultVisibility,
	})
	if state != visibility.StateApproved {
		return "", false
	}

	relationship, err := s.refs.LatestRelationship(ctx, person.ID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "relationship lookup failed during scan",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		relationship = ""
	}
	return relationship, true
}
