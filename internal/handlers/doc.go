// Package handlers implements the HTTP API: upload ingestion, library
// listing and retrieval, video streaming with view counting, thumbnail
// previews, password authentication and health endpoints.
package handlers
