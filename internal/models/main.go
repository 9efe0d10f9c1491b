// Package models defines the core data structures for users, projects and episodes.
package models

import "time"

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Username is the unique login name chosen by the user.
	Username string `json:"username"`
	// Email is the unique email address used to sign in.
	Email string `json:"email"`
	// PasswordHash is the bcrypt hash of the user's password. Never serialized.
	PasswordHash []byte `json:"-"`
}

// Project groups episodes and belongs to exactly one user.
type Project struct {
	// ID is the unique identifier for the project.
	ID string `json:"id"`
	// Name is unique per owner, at most MaxProjectNameLen characters.
	Name string `json:"name"`
	// UserID references the owning user.
	UserID string `json:"userId"`
	// EpisodeCount caches the number of episodes in the project.
	EpisodeCount int `json:"episodeCount"`
	// CreatedAt is the creation time.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the time of the last change.
	UpdatedAt time.Time `json:"updatedAt"`
}

// Episode holds a transcript attached to a project.
type Episode struct {
	// ID is the unique identifier for the episode.
	ID string `json:"id"`
	// Name is the episode title, at most MaxEpisodeNameLen characters.
	Name string `json:"name"`
	// Transcript is free text, empty by default.
	Transcript string `json:"transcript"`
	// ProjectID references the owning project.
	ProjectID string `json:"projectId"`
	// Source tags the entry point the episode came from.
	Source Source `json:"source"`
	// CreatedAt is the creation time.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the time of the last change.
	UpdatedAt time.Time `json:"updatedAt"`
}

// EpisodeUpdate carries the optional fields of an episode update.
// A nil field is left untouched.
type EpisodeUpdate struct {
	Name       *string
	Transcript *string
}

// Empty reports whether the update changes nothing.
func (u EpisodeUpdate) Empty() bool {
	return u.Name == nil && u.Transcript == nil
}

// Source defines the set of valid episode source identifiers.
type Source string

const (
	// SourceUpload marks an episode created from an uploaded file.
	SourceUpload Source = "upload"
	// SourceYouTube marks an episode created from a YouTube video.
	SourceYouTube Source = "youtube"
	// SourceRSS marks an episode created from an RSS feed item.
	SourceRSS Source = "rss"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceUpload, SourceYouTube, SourceRSS:
		return true
	}
	return false
}

const (
	// MaxProjectNameLen is the longest allowed project name.
	MaxProjectNameLen = 100
	// MaxEpisodeNameLen is the longest allowed episode name.
	MaxEpisodeNameLen = 200
)
