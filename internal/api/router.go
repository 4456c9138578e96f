package api

import (
	"go-forum-analytics/internal/api/handler"
	"go-forum-analytics/pkg/router"

	_ "go-forum-analytics/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

func RegisterRoutes(r *router.Router, h *handler.AnalysisHandler) {
	r.POST("/api/v1/analyses", h.CreateAnalysis)
	r.GET("/api/v1/analyses", h.ListAnalyses)
	// More specific routes first
	r.GET("/api/v1/analyses/*/results", h.GetAnalysisResults)
	r.GET("/api/v1/analyses/*/warnings", h.GetAnalysisWarnings)
	r.GET("/api/v1/analyses/*/logs", h.GetAnalysisLogs)
	r.GET("/api/v1/analyses/*/files", h.GetAnalysisFiles)
	r.GET("/api/v1/analyses/*/files/*", h.DownloadFile)
	// Generic analysis route last
	r.GET("/api/v1/analyses/*", h.GetAnalysis)

	r.GET("/swagger/*", router.HandlerFunc(httpSwagger.WrapHandler))
}
