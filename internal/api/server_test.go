package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-leadgen-automation/internal/database"
	"go-leadgen-automation/internal/interpreter"
	"go-leadgen-automation/internal/logging"
	"go-leadgen-automation/internal/models"
	"go-leadgen-automation/internal/orchestrator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubInterpreter struct {
	filter *models.FilterModel
	err    error
}

func (s *stubInterpreter) Parse(ctx context.Context, query string, provider models.Provider, resultCap int) (*models.FilterModel, error) {
	return s.filter, s.err
}

// emptyStore backs the orchestrator read path with an empty repository.
type emptyStore struct{}

func (emptyStore) SaveJob(context.Context, *models.ScrapeJob) error { return nil }

func (emptyStore) LoadJob(ctx context.Context, jobID string) (*models.ScrapeJob, error) {
	return nil, database.ErrNotFound
}

func (emptyStore) ListJobs(context.Context, int) ([]models.ScrapeJob, error) { return nil, nil }

func (emptyStore) AppendRecord(context.Context, string, models.ProfileRecord) error { return nil }

func (emptyStore) ListRecords(context.Context, string) ([]models.ProfileRecord, error) {
	return nil, nil
}

func newTestRouter(i orchestrator.QueryInterpreter) *gin.Engine {
	log := logging.New()
	orch := orchestrator.New(orchestrator.Deps{Interpreter: i, Store: emptyStore{}}, log)
	return NewServer(orch, nil, log).Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := doJSON(t, newTestRouter(&stubInterpreter{}), "GET", "/api/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestParseQuery(t *testing.T) {
	filter := &models.FilterModel{Roles: []string{"Cto"}, Locations: []string{"Berlin"}, ResultCap: 50}
	router := newTestRouter(&stubInterpreter{filter: filter})

	w := doJSON(t, router, "POST", "/api/parse-query", `{"query": "ctos in berlin"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"roles":["Cto"]`)
}

func TestParseQuery_MissingBody(t *testing.T) {
	router := newTestRouter(&stubInterpreter{})
	w := doJSON(t, router, "POST", "/api/parse-query", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseQuery_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		kind     interpreter.ParseKind
		wantCode int
	}{
		{"unusable query", interpreter.KindEmptyResult, http.StatusUnprocessableEntity},
		{"malformed backend output", interpreter.KindMalformedResponse, http.StatusUnprocessableEntity},
		{"backend down", interpreter.KindBackendUnavailable, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubInterpreter{
				err: &interpreter.ParseError{Kind: tt.kind, Detail: tt.name},
			})
			w := doJSON(t, router, "POST", "/api/parse-query", `{"query": "anything"}`)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), string(tt.kind))
		})
	}
}

func TestGetJob_Unknown(t *testing.T) {
	router := newTestRouter(&stubInterpreter{})
	w := doJSON(t, router, "GET", "/api/scraping-jobs/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListJobs_Empty(t *testing.T) {
	router := newTestRouter(&stubInterpreter{})
	w := doJSON(t, router, "GET", "/api/scraping-jobs", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExportCSV_Unknown(t *testing.T) {
	router := newTestRouter(&stubInterpreter{})
	w := doJSON(t, router, "GET", "/api/export-csv/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancel_Unknown(t *testing.T) {
	router := newTestRouter(&stubInterpreter{})
	w := doJSON(t, router, "POST", "/api/scraping-jobs/nope/cancel", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
