package database

import (
	"errors"
	"time"
)

// ContainerKind is the closed set of media container formats the library
// accepts. It is always derived from probe output, never from a file
// extension supplied by a client.
type ContainerKind string

const (
	ContainerMP4  ContainerKind = "mp4"
	ContainerWebM ContainerKind = "webm"
	ContainerAVI  ContainerKind = "avi"
	ContainerOgg  ContainerKind = "ogg"
)

// Video is a durable library record. Path and ThumbnailPath are stored
// relative to the library root so the root can be relocated without
// rewriting records.
type Video struct {
	ID               string        `json:"id"`
	Path             string        `json:"path"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Artist           string        `json:"artist"`
	Views            int64         `json:"views"`
	UploadTime       time.Time     `json:"uploadTime"`
	Container        ContainerKind `json:"container"`
	OriginalFilename string        `json:"originalFilename"`
	Duration         time.Duration `json:"duration"`
	ThumbnailPath    string        `json:"thumbnailPath,omitempty"`
}

// User represents the single user account in the system.
type User struct {
	ID           int64     `json:"id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session represents an authenticated user session.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	// ErrVideoExists is returned when inserting a record whose id is
	// already present in the index.
	ErrVideoExists = errors.New("video id already exists")

	// ErrVideoNotFound is returned by operations that require an
	// existing record.
	ErrVideoNotFound = errors.New("video not found")
)
