package people

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"memoria/internal/audit"
	"memoria/internal/visibility"
	id "memoria/pkg/domain"
	dErrors "memoria/pkg/domain-errors"
	"memoria/pkg/platform/sentinel"
	"memoria/pkg/requestcontext"
)

const maxNameLength = 200

// Service orchestrates registry lookups and the audited mutations of a
// person's baseline visibility.
type Service struct {
	store  Store
	audit  audit.Recorder
	logger *slog.Logger
}

// NewService constructs the people service.
func NewService(store Store, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{store: store, audit: recorder, logger: logger}
}

// Get loads a person by ID.
func (s *Service) Get(ctx context.Context, personID id.PersonID) (*Person, error) {
	person, err := s.store.Get(ctx, personID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load person")
	}
	return person, nil
}

// EnsureByName resolves a free-text name to a person, creating the
// registry row on first mention. New people start with a pending default
// so nothing is disclosed before someone with standing decides.
func (s *Service) EnsureByName(ctx context.Context, name string, creator id.ContributorID) (*Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "name must not be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "name exceeds %d characters", maxNameLength)
	}

	person, err := s.store.FindByName(ctx, name)
	if err == nil {
		return person, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find person by name")
	}

	person = &Person{
		ID:                id.NewPersonID(),
		CanonicalName:     name,
		DefaultVisibility: visibility.StatePending,
		CreatedBy:         creator,
	}
	if err := s.store.Create(ctx, person); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create person")
	}
	s.logger.InfoContext(ctx, "person created from first mention",
		"person_id", person.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return person, nil
}

// SetDefaultVisibility changes a person's baseline state. Only the
// claimant or an admin may change it. Removal is absorbing at resolve
// time, not at write time: the identity owner can later revise their own
// default, so no write-path veto applies here.
func (s *Service) SetDefaultVisibility(ctx context.Context, personID id.PersonID, rawState, reason string) (*Person, error) {
	newState, err := visibility.ParseState(rawState)
	if err != nil {
		return nil, err
	}

	person, err := s.Get(ctx, personID)
	if err != nil {
		return nil, err
	}
	if err := s.requireControl(ctx, person); err != nil {
		return nil, err
	}

	old := person.DefaultVisibility
	if old == newState {
		return person, nil
	}

	if err := s.store.SetDefaultVisibility(ctx, personID, newState); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "set default visibility")
	}
	person.DefaultVisibility = newState

	action := audit.ActionDefaultChanged
	if newState == visibility.StateRemoved {
		action = audit.ActionPersonRemoved
	}
	s.audit.Emit(ctx, audit.Event{
		Action:   action,
		Person:   personID,
		Scope:    audit.ScopePersonDefault,
		OldState: old,
		NewState: newState,
		Reason:   reason,
	})
	return person, nil
}

// AddAliases registers alternate names so future scans match them.
func (s *Service) AddAliases(ctx context.Context, personID id.PersonID, names []string) error {
	valid := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if utf8.RuneCountInString(name) > maxNameLength {
			return dErrors.Newf(dErrors.CodeInvalidInput, "alias exceeds %d characters", maxNameLength)
		}
		valid = append(valid, name)
	}
	if len(valid) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "at least one alias is required")
	}

	person, err := s.Get(ctx, personID)
	if err != nil {
		return err
	}
	if err := s.requireControl(ctx, person); err != nil {
		return err
	}

	if err := s.store.AddAliases(ctx, personID, valid); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "add aliases")
	}
	return nil
}

// Aliases lists a person's alternate names.
func (s *Service) Aliases(ctx context.Context, personID id.PersonID) ([]string, error) {
	aliases, err := s.store.Aliases(ctx, personID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list aliases")
	}
	return aliases, nil
}

// requireControl checks that the caller holds standing over this person:
// the claimant account, or an admin. Unclaimed people are admin-only.
func (s *Service) requireControl(ctx context.Context, person *Person) error {
	if requestcontext.Admin(ctx) {
		return nil
	}
	actor := requestcontext.ContributorID(ctx)
	if person.Claimed() && person.ClaimedBy == actor {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "not authorized to manage this person")
}
