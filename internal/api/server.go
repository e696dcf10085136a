// Package api exposes the boundary operations over HTTP. Thin layer: every
// handler validates input, calls the orchestrator or the store, and maps
// error kinds onto status codes.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"go-leadgen-automation/internal/database"
	"go-leadgen-automation/internal/interpreter"
	"go-leadgen-automation/internal/models"
	"go-leadgen-automation/internal/orchestrator"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	orch *orchestrator.Orchestrator
	repo *database.Repository
	log  *logrus.Logger
}

func NewServer(orch *orchestrator.Orchestrator, repo *database.Repository, log *logrus.Logger) *Server {
	return &Server{orch: orch, repo: repo, log: log}
}

func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	api.GET("/", s.health)
	api.GET("/credentials", s.getCredentials)
	api.POST("/credentials", s.saveCredentials)
	api.POST("/parse-query", s.parseQuery)
	api.POST("/start-scraping", s.startScraping)
	api.GET("/scraping-jobs", s.listJobs)
	api.GET("/scraping-jobs/:id", s.getJob)
	api.POST("/scraping-jobs/:id/cancel", s.cancelJob)
	api.GET("/export-csv/:id", s.exportCSV)

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Lead generation API is running!",
		"status":  "healthy",
	})
}

type searchRequest struct {
	Query      string `json:"query" binding:"required"`
	Provider   string `json:"llm_provider"`
	MaxResults int    `json:"max_results"`
}

func (req *searchRequest) provider() models.Provider {
	if req.Provider == "" {
		return models.ProviderOpenAI
	}
	return models.Provider(req.Provider)
}

func (s *Server) parseQuery(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter, err := s.orch.Interpret(c.Request.Context(), req.Query, req.provider(), req.MaxResults)
	if err != nil {
		s.respondParseError(c, err)
		return
	}
	c.JSON(http.StatusOK, filter)
}

func (s *Server) startScraping(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := s.orch.SubmitJob(c.Request.Context(), req.Query, req.provider(), req.MaxResults)
	if err != nil {
		s.respondParseError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) listJobs(c *gin.Context) {
	jobs, err := s.orch.ListJobs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (s *Server) getJob(c *gin.Context) {
	job, err := s.orch.GetJob(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, orchestrator.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) cancelJob(c *gin.Context) {
	if err := s.orch.CancelJob(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancellation requested"})
}

func (s *Server) exportCSV(c *gin.Context) {
	jobID := c.Param("id")
	records, err := s.orch.ExportRecords(c.Request.Context(), jobID)
	switch {
	case errors.Is(err, orchestrator.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	case errors.Is(err, orchestrator.ErrNotReady):
		c.JSON(http.StatusBadRequest, gin.H{"error": "job not completed"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=leads_%s.csv", jobID))
	c.Header("Content-Type", "text/csv")
	if err := orchestrator.WriteCSV(c.Writer, records); err != nil {
		s.log.Errorf("csv export for job %s failed: %v", jobID, err)
	}
}

func (s *Server) getCredentials(c *gin.Context) {
	creds, err := s.repo.GetCredentials(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, creds.Masked())
}

func (s *Server) saveCredentials(c *gin.Context) {
	var update models.Credentials
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := s.repo.SaveCredentials(c.Request.Context(), &update)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, saved.Masked())
}

// respondParseError maps interpreter failures onto status codes: a query the
// user can fix is 422, a broken backend is 502.
func (s *Server) respondParseError(c *gin.Context, err error) {
	var parseErr *interpreter.ParseError
	if errors.As(err, &parseErr) {
		status := http.StatusUnprocessableEntity
		if parseErr.Kind == interpreter.KindBackendUnavailable {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": parseErr.Detail, "kind": string(parseErr.Kind)})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
