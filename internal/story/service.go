package story

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"memoria/internal/audit"
	"memoria/internal/namescan"
	"memoria/internal/people"
	"memoria/internal/preference"
	"memoria/internal/reference"
	"memoria/internal/story/metrics"
	"memoria/internal/visibility"
	id "memoria/pkg/domain"
	dErrors "memoria/pkg/domain-errors"
	"memoria/pkg/platform/sentinel"
	"memoria/pkg/requestcontext"
)

const tracerName = "memoria/story"

// Submission limits, enforced on write and shared with the HTTP layer.
const (
	MaxTitleLength = 200
	MaxBodyLength  = 50_000
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// Scanner finds person names in a body and reports consent standing.
// Implemented by the namescan scanner.
type Scanner interface {
	Scan(ctx context.Context, body string) namescan.Result
}

// PersonResolver resolves names to registry people, creating them on
// first mention, and supplies the names a rendered story must mask.
// Implemented by the people service.
type PersonResolver interface {
	EnsureByName(ctx context.Context, name string, creator id.ContributorID) (*people.Person, error)
	Get(ctx context.Context, personID id.PersonID) (*people.Person, error)
	Aliases(ctx context.Context, personID id.PersonID) ([]string, error)
}

// ReferenceWriter persists and lists the reference rows a story's
// mentions produce. Implemented by the reference store.
type ReferenceWriter interface {
	Create(ctx context.Context, ref *reference.Reference) error
	ListByStory(ctx context.Context, storyID id.StoryID) ([]reference.Reference, error)
}

// PreferenceSource supplies the standing preference pair consulted when
// rendering a body for a viewer.
type PreferenceSource interface {
	SnapshotPair(ctx context.Context, personID id.PersonID, contributorID id.ContributorID) (preference.Pair, error)
}

// Service runs the submission pipeline and renders stories for viewers.
type Service struct {
	store   Store
	refs    ReferenceWriter
	people  PersonResolver
	prefs   PreferenceSource
	scanner Scanner
	gate    Gate
	audit   audit.Recorder
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithGate replaces the default permissive moderation gate.
func WithGate(g Gate) Option {
	return func(s *Service) {
		if g != nil {
			s.gate = g
		}
	}
}

// WithMetrics attaches story pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService constructs the story service.
func NewService(store Store, refs ReferenceWriter, persons PersonResolver, prefs PreferenceSource, scanner Scanner, recorder audit.Recorder, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:   store,
		refs:    refs,
		people:  persons,
		prefs:   prefs,
		scanner: scanner,
		gate:    PermissiveGate{},
		audit:   recorder,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Receipt reports what a submission produced back to its author.
type Receipt struct {
	Story        *Story                   `json:"story"`
	References   []ReferenceReceipt       `json:"references"`
	Cleared      []namescan.ClearedPerson `json:"cleared"`
	NeedsConsent []string                 `json:"needs_consent,omitempty"`
}

// ReferenceReceipt summarizes one reference row for the submitting
// author. Names appear here because the author wrote them.
type ReferenceReceipt struct {
	ID           id.ReferenceID   `json:"id"`
	Kind         reference.Kind   `json:"type"`
	PersonID     id.PersonID      `json:"person_id,omitzero"`
	Name         string           `json:"name,omitempty"`
	Relationship string           `json:"relationship,omitempty"`
	URL          string           `json:"url,omitempty"`
	Override     visibility.State `json:"visibility"`
}

// draft is one person mention waiting to become a reference row.
type draft struct {
	name         string
	relationship string
	role         reference.Role
}

// Submit accepts one memory: scans the body for named people, registers
// each name as a person (created on first mention) with a pending
// reference, asks the moderation gate whether the story may publish,
// and persists the result. The gate receives the body with every
// not-yet-cleared name masked.
//
// Errors: returns CodeUnauthorized without a caller and CodeInvalidInput
// for an empty or oversized body, an untagged mention, a bad role, or a
// link without a URL.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Receipt, error) {
	author := requestcontext.ContributorID(ctx)
	if author.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "story.submit")
	defer span.End()

	scan := s.scanner.Scan(ctx, sub.Body)
	drafts, err := buildDrafts(sub.Mentions, scan.Spans)
	if err != nil {
		return nil, err
	}

	status := s.review(ctx, sub.Body, scan)

	st := &Story{
		ID:       id.NewStoryID(),
		AuthorID: author,
		Title:    strings.TrimSpace(sub.Title),
		Body:     sub.Body,
		Status:   status,
	}
	if err := s.store.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}

	receipts := make([]ReferenceReceipt, 0, len(drafts)+len(sub.Links))
	for _, d := range drafts {
		person, err := s.people.EnsureByName(ctx, d.name, author)
		if err != nil {
			return nil, fmt.Errorf("resolve mention %q: %w", d.name, err)
		}
		ref := &reference.Reference{
			ID:           id.NewReferenceID(),
			StoryID:      st.ID,
			Kind:         reference.KindPerson,
			PersonID:     person.ID,
			Relationship: d.relationship,
			Role:         d.role,
			Override:     visibility.StatePending,
		}
		if err := s.refs.Create(ctx, ref); err != nil {
			return nil, fmt.Errorf("create reference: %w", err)
		}
		receipts = append(receipts, ReferenceReceipt{
			ID:           ref.ID,
			Kind:         ref.Kind,
			PersonID:     ref.PersonID,
			Name:         d.name,
			Relationship: d.relationship,
			Override:     ref.Override,
		})
	}
	for _, link := range sub.Links {
		ref := &reference.Reference{
			ID:       id.NewReferenceID(),
			StoryID:  st.ID,
			Kind:     reference.KindLink,
			URL:      strings.TrimSpace(link.URL),
			Label:    strings.TrimSpace(link.Label),
			Override: visibility.StatePending,
		}
		if err := s.refs.Create(ctx, ref); err != nil {
			return nil, fmt.Errorf("create link reference: %w", err)
		}
		receipts = append(receipts, ReferenceReceipt{
			ID:       ref.ID,
			Kind:     ref.Kind,
			URL:      ref.URL,
			Override: ref.Override,
		})
	}

	s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionStorySubmitted,
		Actor:  author,
		Story:  st.ID,
		Scope:  audit.ScopeStory,
	})
	s.metrics.IncrSubmitted(string(st.Status))
	s.metrics.AddReferencesCreated(len(receipts))
	span.SetAttributes(
		attribute.Int("references.created", len(receipts)),
		attribute.Int("names.cleared", len(scan.Cleared)),
		attribute.Int("names.needing_consent", len(scan.NeedsConsent)),
	)

	s.logger.InfoContext(ctx, "story submitted",
		"story_id", st.ID.String(),
		"status", string(st.Status),
		"references", len(receipts),
		"request_id", requestcontext.RequestID(ctx),
	)

	return &Receipt{
		Story:        st,
		References:   receipts,
		Cleared:      scan.Cleared,
		NeedsConsent: scan.NeedsConsent,
	}, nil
}

// ScanPreview runs the consent scan without persisting anything, so the
// authoring UI can show who is cleared before the contributor submits.
func (s *Service) ScanPreview(ctx context.Context, body string) namescan.Result {
	return s.scanner.Scan(ctx, body)
}

// View returns one story rendered for the calling viewer. The author
// and admins read the original text; everyone else reads the masked
// form. Held stories are invisible to other viewers.
//
// Errors: returns CodeNotFound when the story does not exist or the
// viewer may not know it does.
func (s *Service) View(ctx context.Context, storyID id.StoryID) (*Rendered, error) {
	st, err := s.store.Get(ctx, storyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "story not found")
		}
		return nil, fmt.Errorf("get story: %w", err)
	}

	viewer := requestcontext.ContributorID(ctx)
	privileged := requestcontext.Admin(ctx) || viewer == st.AuthorID
	if st.Status != StatusPublished && !privileged {
		return nil, dErrors.New(dErrors.CodeNotFound, "story not found")
	}

	rendered := &Rendered{
		ID:        st.ID,
		AuthorID:  st.AuthorID,
		Title:     st.Title,
		Body:      st.Body,
		Status:    st.Status,
		CreatedAt: st.CreatedAt,
	}
	if privileged {
		return rendered, nil
	}
	if err := s.maskFor(ctx, st, viewer, rendered); err != nil {
		return nil, err
	}
	return rendered, nil
}

// ListRecent returns the public feed: the newest published stories,
// each rendered for the calling viewer.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Rendered, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	stories, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}

	viewer := requestcontext.ContributorID(ctx)
	admin := requestcontext.Admin(ctx)
	out := make([]Rendered, 0, len(stories))
	for i := range stories {
		st := &stories[i]
		rendered := Rendered{
			ID:        st.ID,
			AuthorID:  st.AuthorID,
			Title:     st.Title,
			Body:      st.Body,
			Status:    st.Status,
			CreatedAt: st.CreatedAt,
		}
		if !admin && viewer != st.AuthorID {
			if err := s.maskFor(ctx, st, viewer, &rendered); err != nil {
				return nil, err
			}
		}
		out = append(out, rendered)
	}
	return out, nil
}

// AuthorOf resolves a story to its submitting contributor. Unknown
// stories return sentinel.ErrNotFound so callers can translate at
// their own boundary.
func (s *Service) AuthorOf(ctx context.Context, storyID id.StoryID) (id.ContributorID, error) {
	st, err := s.store.Get(ctx, storyID)
	if err != nil {
		return id.ContributorID{}, err
	}
	return st.AuthorID, nil
}

// maskFor rewrites the rendered title and body so that every mentioned
// person whose resolved state is not approved appears under their
// masked label. Lookup failures fail the render: a body we cannot mask
// is a body we must not show.
func (s *Service) maskFor(ctx context.Context, st *Story, viewer id.ContributorID, rendered *Rendered) error {
	refs, err := s.refs.ListByStory(ctx, st.ID)
	if err != nil {
		return fmt.Errorf("list references: %w", err)
	}

	var replacements []namescan.Replacement
	seen := make(map[id.PersonID]struct{}, len(refs))
	for _, ref := range refs {
		if ref.Kind != reference.KindPerson || ref.PersonID.IsZero() {
			continue
		}
		if _, done := seen[ref.PersonID]; done {
			continue
		}
		seen[ref.PersonID] = struct{}{}

		person, err := s.people.Get(ctx, ref.PersonID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				continue
			}
			return fmt.Errorf("load person: %w", err)
		}

		pair, err := s.prefs.SnapshotPair(ctx, ref.PersonID, viewer)
		if err != nil {
			// A failed preference read reads as pending, which masks.
			s.logger.WarnContext(ctx, "preference lookup failed during render",
				"person_id", ref.PersonID.String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			pair = preference.Pair{}
		}

		state := visibility.Resolve(visibility.Signals{
			Override:    ref.Override,
			Contributor: pair.Contributor,
			Global:      pair.Global,
			Default:     person.DefaultVisibility,
		})
		label, mask := maskLabel(state, person.CanonicalName, ref.Relationship)
		if !mask {
			continue
		}

		aliases, err := s.people.Aliases(ctx, ref.PersonID)
		if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return fmt.Errorf("list aliases: %w", err)
		}
		replacements = append(replacements, namescan.Replacement{Name: person.CanonicalName, Label: label})
		for _, alias := range aliases {
			replacements = append(replacements, namescan.Replacement{Name: alias, Label: label})
		}
	}

	rendered.Title = namescan.Mask(rendered.Title, replacements)
	rendered.Body = namescan.Mask(rendered.Body, replacements)
	s.metrics.AddNamesMasked(len(replacements))
	return nil
}

// review asks the gate for a publication decision. A gate failure holds
// the story rather than publishing unreviewed content.
func (s *Service) review(ctx context.Context, body string, scan namescan.Result) Status {
	masked := body
	if len(scan.NeedsConsent) > 0 {
		replacements := make([]namescan.Replacement, 0, len(scan.NeedsConsent))
		for _, name := range scan.NeedsConsent {
			replacements = append(replacements, namescan.Replacement{Name: name, Label: visibility.PlaceholderInline})
		}
		masked = namescan.Mask(body, replacements)
	}

	status, err := s.gate.Review(ctx, masked, scan)
	if err != nil {
		s.logger.WarnContext(ctx, "moderation gate failed, holding story",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return StatusPendingReview
	}
	if status != StatusPublished {
		return StatusPendingReview
	}
	return StatusPublished
}

// maskLabel returns the replacement label for one person's name, or
// ok=false when the resolved state lets the real name stay.
func maskLabel(state visibility.State, name, relationship string) (string, bool) {
	switch state {
	case visibility.StateApproved:
		return "", false
	case visibility.StateBlurred:
		return visibility.Initials(name), true
	case visibility.StateAnonymized:
		return visibility.DescribeRelationship(relationship), true
	case visibility.StatePending:
		if _, ok := visibility.RelationshipLabel(relationship); ok {
			return visibility.DescribeRelationship(relationship), true
		}
		return visibility.PlaceholderInline, true
	default:
		// Removed masks to the opaque inline marker; the relationship
		// phrase would still advertise that someone is there.
		return visibility.PlaceholderInline, true
	}
}

func validateSubmission(sub Submission) error {
	if strings.TrimSpace(sub.Body) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "story body is required")
	}
	if utf8.RuneCountInString(sub.Body) > MaxBodyLength {
		return dErrors.Newf(dErrors.CodeInvalidInput, "story body exceeds %d characters", MaxBodyLength)
	}
	if utf8.RuneCountInString(sub.Title) > MaxTitleLength {
		return dErrors.Newf(dErrors.CodeInvalidInput, "story title exceeds %d characters", MaxTitleLength)
	}
	for _, link := range sub.Links {
		if strings.TrimSpace(link.URL) == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "link url is required")
		}
	}
	return nil
}

// buildDrafts merges the author's explicit mentions with the names the
// detector found, explicit tags first. Duplicate names collapse onto
// the first occurrence, so a tagged mention keeps its relationship even
// when the detector also finds the name.
func buildDrafts(mentions []Mention, spans []namescan.Span) ([]draft, error) {
	drafts := make([]draft, 0, len(mentions))
	taken := make(map[string]struct{}, len(mentions))

	for _, m := range mentions {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "mention name is required")
		}
		role, err := reference.ParseRole(strings.TrimSpace(m.Role))
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(name)
		if _, dup := taken[key]; dup {
			continue
		}
		taken[key] = struct{}{}
		drafts = append(drafts, draft{
			name:         name,
			relationship: strings.TrimSpace(m.Relationship),
			role:         role,
		})
	}

	for _, name := range namescan.DistinctNames(spans) {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := taken[key]; dup {
			continue
		}
		taken[key] = struct{}{}
		drafts = append(drafts, draft{name: name})
	}
	return drafts, nil
}
