// Package startup loads configuration from the environment, verifies
// the external tools and directories the server depends on, and owns
// the structured startup and shutdown log output.
//
// Configuration is environment-variable driven:
//
//	LIBRARY_DIR        root of the content-addressed video library (default /library)
//	DATA_DIR           directory holding vidvault.db (default /data)
//	CACHE_DIR          preview cache directory (default /cache)
//	PORT               application listen port (default 8080)
//	METRICS_PORT       Prometheus listen port (default 9090)
//	METRICS_ENABLED    serve /metrics (default true)
//	THUMBNAIL_QUALITY  webp quality 1-100 (default 80)
//	PROBE_TIMEOUT      ffprobe wall-clock limit (default 30s)
//	THUMBNAIL_TIMEOUT  ffmpeg wall-clock limit (default 60s)
//	LOG_LEVEL / DEBUG  handled by the logging package
package startup
