package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoria/internal/audit"
	"memoria/internal/people"
	"memoria/internal/visibility"
	id "memoria/pkg/domain"
	"memoria/pkg/testutil"
)

type noopRecorder struct{}

func (noopRecorder) Emit(context.Context, audit.Event) {}

type fixture struct {
	router   http.Handler
	store    *people.InMemoryStore
	claimant id.ContributorID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    people.NewInMemoryStore(),
		claimant: id.NewContributorID(),
	}

	logger := slog.New(slog.DiscardHandler)
	svc := people.NewService(f.store, noopRecorder{}, logger)

	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	f.router = r
	return f
}

// addClaimedPerson seeds a person bound to the fixture claimant.
func (f *fixture) addClaimedPerson(t *testing.T, name string, def visibility.State) *people.Person {
	t.Helper()
	person := &people.Person{
		ID:                id.NewPersonID(),
		CanonicalName:     name,
		DefaultVisibility: def,
		CreatedBy:         id.NewContributorID(),
		ClaimedBy:         f.claimant,
	}
	require.NoError(t, f.store.Create(context.Background(), person))
	return person
}

func asContributor(req *http.Request, contributor id.ContributorID) *http.Request {
	return testutil.WithContributor(req, contributor)
}

func asAdmin(req *http.Request) *http.Request {
	return testutil.WithAdmin(req, id.NewContributorID())
}

func TestSetVisibilityByClaimant(t *testing.T) {
	f := newFixture(t)
	person := f.addClaimedPerson(t, "Maria Olsen", visibility.StatePending)

	body := []byte(`{"visibility":"approved","reason":"she told me to share it"}`)
	req := asContributor(httptest.NewRequest(http.MethodPut, "/people/"+person.ID.String()+"/visibility", bytes.NewReader(body)), f.claimant)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "approved", resp["default_visibility"])
	assert.Equal(t, "Maria Olsen", resp["canonical_name"])
	assert.Equal(t, true, resp["claimed"])

	stored, err := f.store.Get(context.Background(), person.ID)
	require.NoError(t, err)
	assert.Equal(t, visibility.StateApproved, stored.DefaultVisibility)
}

func TestSetVisibilityRemovedByAdmin(t *testing.T) {
	f := newFixture(t)
	person := f.addClaimedPerson(t, "Maria Olsen", visibility.StateApproved)

	body := []byte(`{"visibility":"removed","reason":"family request"}`)
	req := asAdmin(httptest.NewRequest(http.MethodPut, "/people/"+person.ID.String()+"/visibility", bytes.NewReader(body)))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	stored, err := f.store.Get(context.Background(), person.ID)
	require.NoError(t, err)
	assert.Equal(t, visibility.StateRemoved, stored.DefaultVisibility)
}

func TestSetVisibilityForbiddenForOthers(t *testing.T) {
	f := newFixture(t)
	person := f.addClaimedPerson(t, "Maria Olsen", visibility.StatePending)

	body := []byte(`{"visibility":"approved"}`)
	req := asContributor(httptest.NewRequest(http.MethodPut, "/people/"+person.ID.String()+"/visibility", bytes.NewReader(body)), id.NewContributorID())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

// An unclaimed person has no claimant with standing; even the contributor
// who first mentioned them cannot set the default.
func TestSetVisibilityUnclaimedIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	creator := id.NewContributorID()
	person := &people.Person{
		ID:                id.NewPersonID(),
		CanonicalName:     "Tom Reed",
		DefaultVisibility: visibility.StatePending,
		CreatedBy:         creator,
	}
	require.NoError(t, f.store.Create(context.Background(), person))

	body := []byte(`{"visibility":"approved"}`)
	req := asContributor(httptest.NewRequest(http.MethodPut, "/people/"+person.ID.String()+"/visibility", bytes.NewReader(body)), creator)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSetVisibilityRejectsUnknownState(t *testing.T) {
	f := newFixture(t)
	person := f.addClaimedPerson(t, "Maria Olsen", visibility.StatePending)

	body := []byte(`{"visibility":"sparkly"}`)
	req := asContributor(httptest.NewRequest(http.MethodPut, "/people/"+person.ID.String()+"/visibility", bytes.NewReader(body)), f.claimant)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetVisibilityUnknownPerson(t *testing.T) {
	f := newFixture(t)

	body := []byte(`{"visibility":"approved"}`)
	req := asAdmin(httptest.NewRequest(http.MethodPut, "/people/"+id.NewPersonID().String()+"/visibility", bytes.NewReader(body)))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetVisibilityRequiresAuth(t *testing.T) {
	f := newFixture(t)

	body := []byte(`{"visibility":"approved"}`)
	req := httptest.NewRequest(http.MethodPut, "/people/"+id.NewPersonID().String()+"/visibility", bytes.NewReader(body))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAddAliasesByClaimant(t *testing.T) {
	f := newFixture(t)
	person := f.addClaimedPerson(t, "Margaret Hayes", visibility.StateApproved)

	body := []byte(`{"aliases":["Peggy","Peg Hayes"]}`)
	req := asContributor(httptest.NewRequest(http.MethodPost, "/people/"+person.ID.String()+"/aliases", bytes.NewReader(body)), f.claimant)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Aliases []string `json:"aliases"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []string{"Peggy", "Peg Hayes"}, resp.Aliases)
}

func TestAddAliasesRejectsEmptyList(t *testing.T) {
	f := newFixture(t)
	person := f.addClaimedPerson(t, "Margaret Hayes", visibility.StateApproved)

	body := []byte(`{"aliases":[]}`)
	req := asContributor(httptest.NewRequest(http.MethodPost, "/people/"+person.ID.String()+"/aliases", bytes.NewReader(body)), f.claimant)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
