package api

import (
	"encoding/json"
	"log"
	"net/http"

	"synergyfit/adapters/report"
	"synergyfit/app"
	"synergyfit/domain/core"
	"synergyfit/ports"

	"github.com/gin-gonic/gin"
)

// ReaderFactory builds a screening loader for one dataset; the server stays
// ignorant of file layouts.
type ReaderFactory func(cellLine, population string) ports.ScreeningReader

// Server exposes the analysis pipeline over HTTP
type Server struct {
	router    *gin.Engine
	service   *app.AnalysisService
	analyses  ports.AnalysisRepository
	artifacts ports.ArtifactRepository
	newReader ReaderFactory
	defaults  app.AnalysisOptions
}

// NewServer wires the routes
func NewServer(service *app.AnalysisService, analyses ports.AnalysisRepository, artifacts ports.ArtifactRepository, newReader ReaderFactory, defaults app.AnalysisOptions) *Server {
	s := &Server{
		router:    gin.Default(),
		service:   service,
		analyses:  analyses,
		artifacts: artifacts,
		newReader: newReader,
		defaults:  defaults,
	}
	s.registerRoutes()
	return s
}

// Run starts the HTTP server
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")
	{
		api.POST("/analyses", s.createAnalysis)
		api.GET("/analyses", s.listAnalyses)
		api.GET("/analyses/:id", s.getAnalysis)
		api.GET("/analyses/:id/artifacts", s.listArtifacts)
		api.GET("/analyses/:id/report", s.getReport)
	}
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

type createAnalysisRequest struct {
	CellLine   string `json:"cell_line" binding:"required"`
	Population string `json:"population" binding:"required"`
	Seed       *int64 `json:"seed"`
	Classes    *int   `json:"classes"`
	SampleSize *int   `json:"sample_size"`
}

// createAnalysis loads the requested dataset and runs the full pipeline
// synchronously; the payload is the structured result, with the stored
// analysis ID for later retrieval.
func (s *Server) createAnalysis(c *gin.Context) {
	var req createAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := s.defaults
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	if req.Classes != nil {
		opts.Classes = *req.Classes
	}
	if req.SampleSize != nil {
		opts.SampleSize = *req.SampleSize
	}

	data, err := s.newReader(req.CellLine, req.Population).Read()
	if err != nil {
		log.Printf("[API] failed to load %s/%s: %v", req.CellLine, req.Population, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	result, err := s.service.Run(c.Request.Context(), data, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if core.IsPreconditionError(err) || core.IsConsistencyError(err) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (s *Server) listAnalyses(c *gin.Context) {
	records, err := s.analyses.ListAnalyses(c.Request.Context(), 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": records})
}

func (s *Server) getAnalysis(c *gin.Context) {
	record, err := s.analyses.GetAnalysis(c.Request.Context(), core.AnalysisID(c.Param("id")))
	if err != nil {
		c.JSON(s.statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) listArtifacts(c *gin.Context) {
	artifacts, err := s.artifacts.ListArtifactsByAnalysis(c.Request.Context(), core.AnalysisID(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"artifacts": artifacts})
}

// getReport renders the stored markdown report as HTML.
func (s *Server) getReport(c *gin.Context) {
	analysisID := core.AnalysisID(c.Param("id"))
	artifacts, err := s.artifacts.ListArtifactsByAnalysis(c.Request.Context(), analysisID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	for _, artifact := range artifacts {
		if artifact.Kind != core.ArtifactAnalysisReport {
			continue
		}
		md, ok := reportMarkdown(artifact.Payload)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "report artifact has unexpected payload"})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", report.RenderHTML(md))
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": core.NewNotFoundError("report for analysis", analysisID.String()).Error()})
}

// reportMarkdown unwraps the report payload, which is a plain string when
// fresh from the pipeline and a JSON-encoded string when read back from
// the database.
func reportMarkdown(payload interface{}) (string, bool) {
	switch v := payload.(type) {
	case string:
		return v, true
	case json.RawMessage:
		var md string
		if err := json.Unmarshal(v, &md); err != nil {
			return "", false
		}
		return md, true
	default:
		return "", false
	}
}

func (s *Server) statusFor(err error) int {
	if core.IsNotFoundError(err) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
