package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/editor"
	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
	"github.com/MarcoPoloResearchLab/modulux/internal/sections"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New(Config{BaseURL: server.URL + "/", Token: "token-1"})
	require.NoError(t, err)
	return client
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestCreateSendsBearerTokenAndDecodesEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/portfolios", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Demo", body["name"])
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"portfolio": portfolios.Portfolio{
				ID:        "portfolio-1",
				Name:      "Demo",
				Sections:  []sections.Section{},
				Status:    portfolios.StatusDraft,
				Version:   1,
				CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			},
		})
	})

	created, err := client.Create(context.Background(), "Demo")
	require.NoError(t, err)
	assert.Equal(t, "portfolio-1", created.ID)
	assert.Equal(t, portfolios.StatusDraft, created.Status)
	assert.Empty(t, created.Sections)
}

func TestErrorResponsesMapToSentinels(t *testing.T) {
	testCases := []struct {
		status   int
		expected error
	}{
		{status: http.StatusUnauthorized, expected: ErrUnauthorized},
		{status: http.StatusNotFound, expected: ErrNotFound},
		{status: http.StatusConflict, expected: ErrConflict},
		{status: http.StatusBadRequest, expected: ErrInvalidRequest},
	}
	for _, testCase := range testCases {
		t.Run(http.StatusText(testCase.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, testCase.status, map[string]string{"error": "nope", "code": "SOME_CODE"})
			})
			_, err := client.Get(context.Background(), "portfolio-1")
			assert.ErrorIs(t, err, testCase.expected)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "SOME_CODE", apiErr.Code)
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestServerErrorKeepsStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	err := client.Delete(context.Background(), "portfolio-1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), apiErr.Message)
}

func TestBackendFetchTreatsMissingAsAbsent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Portfolio not found"})
	})
	_, found, err := client.Fetch(context.Background(), "portfolio-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBackendSaveSectionsSendsVersionAndMapsConflict(t *testing.T) {
	var received portfolios.Patch
	conflict := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/portfolios/portfolio-1", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		if conflict {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "Portfolio was modified", "code": "VERSION_CONFLICT"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"portfolio": portfolios.Portfolio{ID: "portfolio-1", Sections: *received.Sections, Version: *received.Version + 1},
		})
	})

	collection := sections.Insert(nil, sections.Create(sections.TypeHero, 0, sections.NewUUIDSource()))
	version, err := client.SaveSections(context.Background(), "portfolio-1", collection, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)
	require.NotNil(t, received.Version)
	assert.Equal(t, int64(3), *received.Version)
	require.NotNil(t, received.Sections)
	require.Len(t, *received.Sections, 1)
	assert.IsType(t, &sections.HeroData{}, (*received.Sections)[0].Data)

	conflict = true
	_, err = client.SaveSections(context.Background(), "portfolio-1", collection, 3)
	assert.ErrorIs(t, err, editor.ErrConflict)
}

func TestEditorSessionOverClient(t *testing.T) {
	stored := portfolios.Portfolio{ID: "portfolio-1", Name: "Demo", Sections: []sections.Section{}, Version: 1}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "portfolio": stored})
		case http.MethodPut:
			var patch portfolios.Patch
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
			if *patch.Version != stored.Version {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "conflict", "code": "VERSION_CONFLICT"})
				return
			}
			stored.Sections = *patch.Sections
			stored.Version++
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "portfolio": stored})
		}
	})

	session, err := editor.Open(context.Background(), editor.Config{Backend: client, PortfolioID: "portfolio-1"})
	require.NoError(t, err)
	defer session.Close()

	_, added := session.AddSection(sections.TypeSkills)
	require.True(t, added)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, session.Wait(ctx))

	assert.NoError(t, session.Err())
	assert.Equal(t, int64(2), session.Version())
}
