package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lineage/pkg/application/dto"
	"github.com/vsinha/lineage/pkg/application/services/batch"
	"github.com/vsinha/lineage/pkg/application/services/lineage"
	testhelpers "github.com/vsinha/lineage/pkg/application/services/testing"
	apperrors "github.com/vsinha/lineage/pkg/domain/errors"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc, err := lineage.NewService(lineage.DefaultConfig(), nil)
	require.NoError(t, err)
	return NewServer(svc, batch.NewRunner(svc, 2, nil), nil)
}

func post(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Resolve(t *testing.T) {
	rec := post(t, newTestServer(t), "/v1/resolve", testhelpers.ReplacementScenario().Build())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, err := uuid.Parse(rec.Header().Get(RunIDHeader))
	assert.NoError(t, err)

	var result dto.LineageResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Chains, 1)
	assert.Equal(t, []string{"S1", "S2"}, result.Chains[0].Serials)
	assert.Equal(t, []string{"S2"}, result.Summary.SuspectedInField)
}

func TestServer_ResolveRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	t.Run("malformed_json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/resolve", strings.NewReader(`{"orders": [`))
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown_field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/resolve", strings.NewReader(`{"shipments": []}`))
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty_input", func(t *testing.T) {
		rec := post(t, s, "/v1/resolve", dto.BatchInput{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, apperrors.CodeInvalidInput, body.Code)
	})
}

func TestServer_Batch(t *testing.T) {
	groups := []dto.BatchInput{
		testhelpers.ReplacementScenario().Build(),
		{GroupID: "empty"},
	}
	groups[0].GroupID = "acme"

	rec := post(t, newTestServer(t), "/v1/batch", groups)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var results []batch.GroupResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "acme", results[0].GroupID)
	assert.NotNil(t, results[0].Result)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, "empty", results[1].GroupID)
	assert.Nil(t, results[1].Result)
	assert.NotEmpty(t, results[1].Error)
}

func TestServer_BatchRejectsEmptyList(t *testing.T) {
	rec := post(t, newTestServer(t), "/v1/batch", []dto.BatchInput{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
