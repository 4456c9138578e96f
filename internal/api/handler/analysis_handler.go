package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-forum-analytics/internal/model"
	"go-forum-analytics/internal/pipeline"
	"go-forum-analytics/internal/store"
	"go-forum-analytics/pkg/utils"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const analysesPrefix = "/api/v1/analyses/"

// AnalysisHandler serves the analysis endpoints.
type AnalysisHandler struct {
	Store   *store.Store
	Fetcher pipeline.Fetcher // nil when no warehouse is configured
	Output  *utils.OutputManager

	wg sync.WaitGroup
}

// NewAnalysisHandler wires the handler. fetcher may be nil.
func NewAnalysisHandler(st *store.Store, fetcher pipeline.Fetcher, outputDir string) *AnalysisHandler {
	return &AnalysisHandler{
		Store:   st,
		Fetcher: fetcher,
		Output:  utils.NewOutputManager(outputDir),
	}
}

// Wait blocks until every analysis started by this handler has finished.
func (h *AnalysisHandler) Wait() {
	h.wg.Wait()
}

// CreateAnalysis starts a new analysis run
// @Summary Start an analysis
// @Description Validate the analysis configuration, store it and run it in the background
// @Tags analyses
// @Accept json
// @Produce json
// @Param analysis body model.AnalysisSpec true "Analysis configuration"
// @Success 202 {object} map[string]interface{} "Analysis accepted"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /analyses [post]
func (h *AnalysisHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var spec model.AnalysisSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	if err := h.validateSpec(spec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	spec = spec.WithDefaults()
	if spec.Export == nil {
		spec.Export = &model.Export{Format: "csv", DB: true}
	}
	if spec.Export.Dir == "" {
		spec.Export.Dir = h.Output.BaseOutputDir
	}

	runID := uuid.New().String()
	if err := h.Store.SaveRun(runID, spec); err != nil {
		log.Printf("❌ Failed to save run %s: %v", runID, err)
		http.Error(w, "Failed to save analysis", http.StatusInternalServerError)
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		deps := pipeline.Deps{Fetcher: h.Fetcher, Store: h.Store}
		if _, err := pipeline.Run(context.Background(), deps, runID, spec); err != nil {
			log.Printf("❌ Analysis %s failed: %v", runID, err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":   "Analysis started",
		"runID":     runID,
		"status":    "pending",
		"createdAt": time.Now().UTC(),
	})
}

func (h *AnalysisHandler) validateSpec(spec model.AnalysisSpec) error {
	if spec.Sources.Students == nil {
		return fmt.Errorf("sources.students is required")
	}
	for _, src := range []*model.Source{spec.Sources.Students, spec.Sources.Drivers, spec.Sources.NPS, spec.Sources.Modules} {
		if src == nil {
			continue
		}
		switch strings.ToLower(src.Type) {
		case "csv", "json", "api":
			if src.URL == "" {
				return fmt.Errorf("%s source needs a url", src.Type)
			}
		case "warehouse", "sql":
			if h.Fetcher == nil {
				return fmt.Errorf("warehouse sources are disabled: no warehouse configured")
			}
			if src.Query == "" {
				return fmt.Errorf("warehouse source needs a query")
			}
		default:
			return fmt.Errorf("unknown source type: %q", src.Type)
		}
	}
	switch spec.DegeneratePolicy {
	case "", model.PolicyExclude, model.PolicyZero:
	default:
		return fmt.Errorf("unknown degeneratePolicy: %q", spec.DegeneratePolicy)
	}
	if spec.Export != nil {
		switch strings.ToLower(spec.Export.Format) {
		case "", "csv", "json":
		default:
			return fmt.Errorf("unknown export format: %q", spec.Export.Format)
		}
	}
	return nil
}

// ListAnalyses retrieves all runs
// @Summary List analyses
// @Description Get every analysis run with its current status
// @Tags analyses
// @Produce json
// @Success 200 {array} store.Run "List of runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /analyses [get]
func (h *AnalysisHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns()
	if err != nil {
		http.Error(w, "Failed to fetch analyses", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetAnalysis retrieves one run
// @Summary Get analysis
// @Description Retrieve the configuration and status of an analysis run
// @Tags analyses
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} store.Run "Run details"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /analyses/{id} [get]
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(w, r, "")
	if !ok {
		return
	}
	run, ok := h.lookup(w, runID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetAnalysisResults retrieves the stored correlation results of a run
// @Summary Get analysis results
// @Description Retrieve ranked correlation results and driver scores of an analysis run
// @Tags analyses
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run results"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /analyses/{id}/results [get]
func (h *AnalysisHandler) GetAnalysisResults(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(w, r, "/results")
	if !ok {
		return
	}
	run, ok := h.lookup(w, runID)
	if !ok {
		return
	}

	correlations, err := h.Store.GetCorrelations(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve results", http.StatusInternalServerError)
		return
	}
	drivers, err := h.Store.GetDriverScores(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve drivers", http.StatusInternalServerError)
		return
	}

	files, err := h.outputFor(run).Files(runID)
	if err != nil {
		http.Error(w, "Failed to list files", http.StatusInternalServerError)
		return
	}

	grouped := make(map[string][]model.CorrelationResult)
	for _, c := range correlations {
		grouped[c.Analysis] = append(grouped[c.Analysis], c.CorrelationResult)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":       runID,
		"status":       run.Status,
		"correlations": grouped,
		"drivers":      drivers,
		"files":        files,
	})
}

// GetAnalysisFiles lists the exported files of a run
// @Summary List analysis files
// @Description List the exported result tables of an analysis run with their download URLs
// @Tags files
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run files"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /analyses/{id}/files [get]
func (h *AnalysisHandler) GetAnalysisFiles(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(w, r, "/files")
	if !ok {
		return
	}
	run, ok := h.lookup(w, runID)
	if !ok {
		return
	}

	files, err := h.outputFor(run).Files(runID)
	if err != nil {
		http.Error(w, "Failed to list files", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"files":  files,
		"count":  len(files),
	})
}

// GetAnalysisWarnings retrieves the warnings of a run
// @Summary Get analysis warnings
// @Description Retrieve degenerate groups and join mismatches raised during a run
// @Tags analyses
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run warnings"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /analyses/{id}/warnings [get]
func (h *AnalysisHandler) GetAnalysisWarnings(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(w, r, "/warnings")
	if !ok {
		return
	}
	if _, ok := h.lookup(w, runID); !ok {
		return
	}

	warnings, err := h.Store.GetWarnings(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve warnings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":   runID,
		"warnings": warnings,
		"count":    len(warnings),
	})
}

// GetAnalysisLogs retrieves the logs of a run
// @Summary Get analysis logs
// @Description Retrieve the stage log lines of an analysis run
// @Tags analyses
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run logs"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /analyses/{id}/logs [get]
func (h *AnalysisHandler) GetAnalysisLogs(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(w, r, "/logs")
	if !ok {
		return
	}
	if _, ok := h.lookup(w, runID); !ok {
		return
	}

	logs, err := h.Store.GetLogs(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve logs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"logs":   logs,
		"count":  len(logs),
	})
}

// DownloadFile serves an exported result file
// @Summary Download file
// @Description Download an exported result table of an analysis run
// @Tags files
// @Produce application/octet-stream
// @Param id path string true "Run ID"
// @Param filename path string true "File name"
// @Success 200 {file} file "File download"
// @Failure 400 {object} map[string]interface{} "Invalid URL format"
// @Failure 404 {object} map[string]interface{} "File not found"
// @Router /analyses/{id}/files/{filename} [get]
func (h *AnalysisHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, analysesPrefix)
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[1] != "files" || parts[0] == "" || parts[2] == "" {
		http.Error(w, "Invalid URL format", http.StatusBadRequest)
		return
	}
	runID, fileName := parts[0], parts[2]

	run, ok := h.lookup(w, runID)
	if !ok {
		return
	}
	output := h.outputFor(run)
	path, err := output.Lookup(runID, fileName)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	switch output.FileType(fileName) {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
	case "json":
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	http.ServeFile(w, r, path)
}

// outputFor returns the output manager of the directory a run exported to.
func (h *AnalysisHandler) outputFor(run *store.Run) *utils.OutputManager {
	if run.Spec.Export != nil && run.Spec.Export.Dir != "" {
		return utils.NewOutputManager(run.Spec.Export.Dir)
	}
	return h.Output
}

func (h *AnalysisHandler) lookup(w http.ResponseWriter, runID string) (*store.Run, bool) {
	run, err := h.Store.GetRun(runID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, "Failed to fetch analysis", http.StatusInternalServerError)
		return nil, false
	}
	return run, true
}

// pathID extracts the run ID between the analyses prefix and suffix.
func pathID(w http.ResponseWriter, r *http.Request, suffix string) (string, bool) {
	path := r.URL.Path
	if !strings.HasPrefix(path, analysesPrefix) || !strings.HasSuffix(path, suffix) {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return "", false
	}

	runID := path[len(analysesPrefix) : len(path)-len(suffix)]
	if runID == "" || strings.Contains(runID, "/") {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return "", false
	}
	return runID, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
