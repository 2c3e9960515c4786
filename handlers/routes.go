package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the handlers on r. Nil handlers are skipped.
func RegisterRoutes(r *gin.Engine, reviews *ReviewHandler, files *FileHandler, analysis *AnalysisHandler) {
	r.GET("/health", Health)

	api := r.Group("/api")
	if files != nil {
		api.POST("/files", files.UploadFile)
		api.GET("/files/:id", files.GetFile)
		api.GET("/files/:id/download", files.DownloadFile)
		api.DELETE("/files/:id", files.DeleteFile)
	}

	if reviews != nil {
		api.POST("/reviews", reviews.CreateReview)
		api.GET("/reviews", reviews.ListReviews)
		api.GET("/reviews/:id", reviews.GetReview)
		api.DELETE("/reviews/:id", reviews.DeleteReview)
		api.GET("/reviews/:id/decisions", reviews.GetDecisions)
		api.POST("/reviews/:id/draft", reviews.ComposeDraft)
		api.GET("/jobs/:id", reviews.GetJobStatus)
	}

	if analysis != nil {
		group := api.Group("/analysis")
		group.POST("/diff", analysis.Diff)
		group.POST("/clauses", analysis.Clauses)
		group.POST("/decisions", analysis.Decisions)
		group.POST("/fallback", analysis.Fallback)
		group.POST("/validate", analysis.Validate)
		group.POST("/run", analysis.Run)
	}
}
