package webapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mhoran/kubesift/internal/errdefs"
	"github.com/mhoran/kubesift/internal/pipeline"
	"github.com/mhoran/kubesift/internal/report"
)

// defaultHistoryLimit bounds an unqualified history listing.
const defaultHistoryLimit = 50

// analyzeRequest is the wire shape for one workload analysis. The API key
// travels on a dedicated DTO so pipeline results can never echo it back.
type analyzeRequest struct {
	ComponentType string `json:"component_type"`
	ComponentName string `json:"component_name"`
	Namespace     string `json:"namespace"`
	TimeRange     string `json:"time_range"`
	TailLines     int    `json:"tail_lines"`
	Container     string `json:"container"`
	AnalysisMode  string `json:"analysis_mode"`
	Provider      string `json:"llm_provider"`
	Model         string `json:"model"`
	APIKey        string `json:"api_key"`
	APIBaseURL    string `json:"api_base_url"`
	MaxIterations int    `json:"max_iterations"`
}

// multiRequest is the wire shape for a batch: a list of workloads plus
// shared analysis settings.
type multiRequest struct {
	Components []struct {
		ComponentType string `json:"component_type"`
		ComponentName string `json:"component_name"`
		Namespace     string `json:"namespace"`
	} `json:"components"`

	TimeRange     string `json:"time_range"`
	TailLines     int    `json:"tail_lines"`
	AnalysisMode  string `json:"analysis_mode"`
	Provider      string `json:"llm_provider"`
	Model         string `json:"model"`
	APIKey        string `json:"api_key"`
	APIBaseURL    string `json:"api_base_url"`
	MaxIterations int    `json:"max_iterations"`
}

// toPipeline maps the DTO onto a pipeline request, filling unset fields
// from the server configuration.
func (s *Server) toPipeline(req analyzeRequest) pipeline.Request {
	out := pipeline.Request{
		ComponentType: req.ComponentType,
		ComponentName: req.ComponentName,
		Namespace:     req.Namespace,
		TimeRange:     req.TimeRange,
		TailLines:     req.TailLines,
		Container:     req.Container,
		Kubeconfig:    s.cfg.Kubeconfig,
		AnalysisMode:  req.AnalysisMode,
		Provider:      req.Provider,
		Model:         req.Model,
		APIKey:        req.APIKey,
		APIBaseURL:    req.APIBaseURL,
		MaxIterations: req.MaxIterations,
		ReduceConfig:  &s.cfg.Reduce,
	}
	if out.AnalysisMode == "" {
		out.AnalysisMode = s.cfg.Backend.Mode
	}
	if out.Provider == "" {
		out.Provider = s.cfg.Backend.Provider
	}
	if out.Model == "" {
		out.Model = s.cfg.Backend.Model
	}
	if out.APIBaseURL == "" {
		out.APIBaseURL = s.cfg.Backend.APIBaseURL
	}
	if out.MaxIterations == 0 {
		out.MaxIterations = s.cfg.Backend.MaxIterations
	}
	return out
}

// handleAnalyze runs one workload through the pipeline. Workload-level
// failures still return a result envelope; only a malformed body is
// rejected outright.
func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}
	result := s.runner.Run(c.Request.Context(), s.toPipeline(req))
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": result})
}

// handleAnalyzeMulti runs a batch of workloads under the shared settings.
func (s *Server) handleAnalyzeMulti(c *gin.Context) {
	var req multiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}
	if len(req.Components) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "components must not be empty"})
		return
	}

	requests := make([]pipeline.Request, 0, len(req.Components))
	for _, comp := range req.Components {
		requests = append(requests, s.toPipeline(analyzeRequest{
			ComponentType: comp.ComponentType,
			ComponentName: comp.ComponentName,
			Namespace:     comp.Namespace,
			TimeRange:     req.TimeRange,
			TailLines:     req.TailLines,
			AnalysisMode:  req.AnalysisMode,
			Provider:      req.Provider,
			Model:         req.Model,
			APIKey:        req.APIKey,
			APIBaseURL:    req.APIBaseURL,
			MaxIterations: req.MaxIterations,
		}))
	}

	summary := s.coord.RunBatch(c.Request.Context(), requests)
	if s.notifier != nil {
		s.notifier.BatchFinished(summary)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "summary": summary})
}

func (s *Server) handleHistoryList(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}
	entries, err := s.store.List(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entries": entries})
}

func (s *Server) handleHistoryGet(c *gin.Context) {
	entry, err := s.store.Get(c.Param("id"))
	if errors.Is(err, errdefs.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "history entry not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entry": entry})
}

func (s *Server) handleHistoryDelete(c *gin.Context) {
	err := s.store.Delete(c.Param("id"))
	if errors.Is(err, errdefs.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "history entry not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleTestConnection(c *gin.Context) {
	kubeconfig := c.DefaultQuery("kubeconfig", s.cfg.Kubeconfig)
	nodes, err := s.cluster.TestConnection(c.Request.Context(), kubeconfig)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "nodes": nodes})
}

func (s *Server) handleNamespaces(c *gin.Context) {
	kubeconfig := c.DefaultQuery("kubeconfig", s.cfg.Kubeconfig)
	namespaces, err := s.cluster.ListNamespaces(c.Request.Context(), kubeconfig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "namespaces": namespaces})
}

func (s *Server) handleComponents(c *gin.Context) {
	kind := c.Query("component_type")
	namespace := c.DefaultQuery("namespace", "default")
	kubeconfig := c.DefaultQuery("kubeconfig", s.cfg.Kubeconfig)
	names, err := s.cluster.ListComponents(c.Request.Context(), kind, namespace, kubeconfig)
	if errors.Is(err, errdefs.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "components": names})
}

func (s *Server) handleReportCapability(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "pdf": report.PDFAvailable()})
}

// exportRequest carries a finished result back for rendering to disk.
type exportRequest struct {
	Result pipeline.Result `json:"result"`
	Format string          `json:"format"` // md (default) | pdf
	Dir    string          `json:"dir"`
}

func (s *Server) handleExportReport(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}
	if req.Result.ComponentName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "result.component_name is required"})
		return
	}
	if req.Format != "" && req.Format != "md" && req.Format != "pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "format must be md or pdf"})
		return
	}

	dir := req.Dir
	if dir == "" {
		var err error
		dir, err = report.DefaultDir()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
			return
		}
	}
	path, err := report.WriteAnalysis(dir, req.Result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if req.Format == "pdf" {
		pdfPath, err := report.ConvertPDF(c.Request.Context(), path)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
			return
		}
		path = pdfPath
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "path": path})
}
