// Package ingest implements the upload pipeline that turns an incoming
// byte stream into a durable, content-addressed library record.
//
// A pipeline run moves through five stages, each consuming the artifact
// the previous stage produced:
//
//	receive   stream to a temp file while hashing (SHA-256)
//	address   relocate into the library under the digest-derived id
//	probe     extract container kind, duration and descriptive tags
//	thumbnail best-effort preview frame (never fatal)
//	commit    insert the record into the index
//
// Exactly one on-disk representation of the upload exists at any time;
// the stage that owns it cleans it up when it fails, so an aborted run
// leaves neither a stray file nor a dangling record behind. The stages
// are expressed as distinct unexported artifact types so a stage cannot
// be skipped or replayed.
package ingest
