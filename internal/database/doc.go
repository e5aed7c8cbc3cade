// Package database provides SQLite database operations for the video
// vault application.
//
// It handles storage and retrieval of:
//   - Video library records (the durable ingest index)
//   - The single user account and authentication sessions
//
// The database uses WAL mode for improved concurrent read performance
// and includes automatic schema initialization. Library record inserts
// are keyed by the content-derived video id; inserting an id that is
// already present fails with ErrVideoExists rather than overwriting.
package database
