package metrics

// PipelineStages lists the ingest stage labels in execution order.
var PipelineStages = []string{"receive", "address", "probe", "thumbnail", "commit"}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, stage := range PipelineStages {
		IngestStageDuration.WithLabelValues(stage)
	}

	for _, status := range []string{"committed", "rejected", "duplicate", "failed"} {
		IngestUploadsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"success", "error", "skipped"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	for _, result := range []string{"hit", "miss", "error"} {
		PreviewCacheRequests.WithLabelValues(result)
	}

	dbOps := []string{
		"initialize_schema", "add_video", "get_video", "list_videos",
		"increment_views", "create_user", "validate_password",
		"create_session", "get_session", "delete_session", "clean_sessions",
	}
	for _, op := range dbOps {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
