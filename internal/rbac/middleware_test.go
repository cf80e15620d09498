package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-id/sentinel/internal/observability"
	"github.com/sentinel-id/sentinel/internal/shared"
)

type stubSource struct {
	granted map[int64][]string
	err     error
}

func (s *stubSource) EffectivePermissions(_ context.Context, userID int64) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.granted[userID], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(t *testing.T, handler http.Handler, identity *shared.Identity) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	if identity != nil {
		req = req.WithContext(shared.ContextWithIdentity(req.Context(), *identity))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireAnyAllowsMatchingPermission(t *testing.T) {
	mw := Middleware{Source: &stubSource{granted: map[int64][]string{7: {PermUsersRead}}}}
	handler := mw.RequireAny(PermUsersRead, PermUsersUpdate)(okHandler())

	rec := doRequest(t, handler, &shared.Identity{UserID: 7, Email: "ada@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAnyDeniesWithoutPermission(t *testing.T) {
	metrics := observability.NewMetrics()
	mw := Middleware{
		Source:  &stubSource{granted: map[int64][]string{7: {PermRolesRead}}},
		Metrics: metrics,
	}
	handler := mw.RequireAny(PermUsersDelete)(okHandler())

	rec := doRequest(t, handler, &shared.Identity{UserID: 7})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAnyDeniesAnonymous(t *testing.T) {
	mw := Middleware{Source: &stubSource{}}
	handler := mw.RequireAny(PermUsersRead)(okHandler())

	rec := doRequest(t, handler, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAnyEmptyRequirementPasses(t *testing.T) {
	mw := Middleware{Source: &stubSource{}}
	handler := mw.RequireAny()(okHandler())

	rec := doRequest(t, handler, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAnySourceFailure(t *testing.T) {
	mw := Middleware{Source: &stubSource{err: errors.New("db down")}}
	handler := mw.RequireAny(PermUsersRead)(okHandler())

	rec := doRequest(t, handler, &shared.Identity{UserID: 7})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
