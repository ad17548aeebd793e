package reference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"memoria/internal/audit"
	"memoria/internal/people"
	"memoria/internal/preference"
	"memoria/internal/reference/metrics"
	"memoria/internal/visibility"
	id "memoria/pkg/domain"
	dErrors "memoria/pkg/domain-errors"
	"memoria/pkg/platform/sentinel"
	"memoria/pkg/requestcontext"
)

// PersonDirectory is the slice of the people store this service needs.
type PersonDirectory interface {
	Get(ctx context.Context, personID id.PersonID) (*people.Person, error)
}

// PreferenceSource supplies the standing preference pair consulted during
// resolution. Implemented by the preference service, which answers from
// its snapshot cache when it can.
type PreferenceSource interface {
	SnapshotPair(ctx context.Context, personID id.PersonID, contributorID id.ContributorID) (preference.Pair, error)
}

// StoryDirectory resolves a story to its submitting contributor, used to
// decide who receives the author payload and who may set overrides.
type StoryDirectory interface {
	AuthorOf(ctx context.Context, storyID id.StoryID) (id.ContributorID, error)
}

// Service assembles visibility snapshots and applies reference-level
// mutations.
type Service struct {
	store       Store
	people      PersonDirectory
	preferences PreferenceSource
	stories     StoryDirectory
	audit       audit.Recorder
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches redaction metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService constructs the reference service.
func NewService(store Store, persons PersonDirectory, preferences PreferenceSource, stories StoryDirectory, recorder audit.Recorder, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:       store,
		people:      persons,
		preferences: preferences,
		stories:     stories,
		audit:       recorder,
		logger:      logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// ListForStory returns the story's references redacted for the calling
// viewer. References that resolve to removed are absent from the result.
//
// Errors: returns CodeNotFound when the story does not exist.
func (s *Service) ListForStory(ctx context.Context, storyID id.StoryID) ([]Redacted, error) {
	author, err := s.stories.AuthorOf(ctx, storyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "story not found")
		}
		return nil, fmt.Errorf("resolve story author: %w", err)
	}

	refs, err := s.store.ListByStory(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}

	viewer := viewerFrom(ctx)
	snaps := make([]Snapshot, 0, len(refs))
	for _, ref := range refs {
		snap, err := s.snapshotFor(ctx, ref, author, viewer)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}

	redacted := RedactAll(snaps, viewer)
	for _, r := range redacted {
		s.metrics.IncrRedacted(string(r.Visibility))
	}
	s.metrics.AddRemovedSuppressed(len(snaps) - len(redacted))
	return redacted, nil
}

// SetOverride records the per-appearance visibility choice on one
// reference. Only the story's author or an admin may set it; the
// mentioned person steers disclosure through their default and standing
// preferences instead.
//
// An override can never resurrect a removed person: resolution absorbs
// removal regardless of what is stored here.
//
// Errors: returns CodeInvalidInput for unknown states, CodeNotFound for
// unknown references, CodeUnauthorized without a caller, CodeForbidden
// for callers who are neither the author nor an admin.
func (s *Service) SetOverride(ctx context.Context, referenceID id.ReferenceID, rawState, reason string) (*Reference, error) {
	newState, err := visibility.ParseState(rawState)
	if err != nil {
		return nil, err
	}

	ref, err := s.store.Get(ctx, referenceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "reference not found")
		}
		return nil, fmt.Errorf("get reference: %w", err)
	}

	if err := s.requireAuthor(ctx, ref.StoryID); err != nil {
		return nil, err
	}

	oldState := ref.Override
	if oldState == newState {
		return ref, nil
	}

	if err := s.store.SetOverride(ctx, referenceID, newState); err != nil {
		return nil, fmt.Errorf("set override: %w", err)
	}
	ref.Override = newState

	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionOverrideSet,
		Actor:     requestcontext.ContributorID(ctx),
		Person:    ref.PersonID,
		Story:     ref.StoryID,
		Reference: ref.ID,
		Scope:     audit.ScopeReferenceOverride,
		OldState:  oldState,
		NewState:  newState,
		Reason:    reason,
	})
	s.metrics.IncrOverrideSet()

	s.logger.InfoContext(ctx, "reference override set",
		"reference_id", ref.ID.String(),
		"story_id", ref.StoryID.String(),
		"new_state", newState.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return ref, nil
}

// Get returns one raw reference row.
//
// Errors: returns CodeNotFound when the reference does not exist.
func (s *Service) Get(ctx context.Context, referenceID id.ReferenceID) (*Reference, error) {
	ref, err := s.store.Get(ctx, referenceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "reference not found")
		}
		return nil, fmt.Errorf("get reference: %w", err)
	}
	return ref, nil
}

// snapshotFor loads the standing signals for one reference. A person row
// the store no longer returns degrades to a nil person (pending default)
// rather than failing the listing.
func (s *Service) snapshotFor(ctx context.Context, ref Reference, author id.ContributorID, viewer Viewer) (Snapshot, error) {
	snap := Snapshot{Reference: ref, Author: author}
	if ref.PersonID.IsZero() {
		return snap, nil
	}

	person, err := s.people.Get(ctx, ref.PersonID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return snap, nil
		}
		return Snapshot{}, fmt.Errorf("load person: %w", err)
	}
	snap.Person = person

	pair, err := s.preferences.SnapshotPair(ctx, ref.PersonID, viewer.ContributorID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load preferences: %w", err)
	}
	snap.Preference = pair
	return snap, nil
}

func (s *Service) requireAuthor(ctx context.Context, storyID id.StoryID) error {
	actor := requestcontext.ContributorID(ctx)
	if actor.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if requestcontext.Admin(ctx) {
		return nil
	}
	author, err := s.stories.AuthorOf(ctx, storyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "story not found")
		}
		return fmt.Errorf("resolve story author: %w", err)
	}
	if author != actor {
		return dErrors.New(dErrors.CodeForbidden, "only the story author may set reference overrides")
	}
	return nil
}

func viewerFrom(ctx context.Context) Viewer {
	return Viewer{
		ContributorID: requestcontext.ContributorID(ctx),
		IsAdmin:       requestcontext.Admin(ctx),
	}
}
