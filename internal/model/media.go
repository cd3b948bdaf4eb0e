package model

import "io"

type MediaSlot string

const (
	SlotAvatar MediaSlot = "avatar"
	SlotCover  MediaSlot = "cover"
)

type MediaUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CleanupOutcome records what happened to the asset a new upload replaced.
type CleanupOutcome string

const (
	CleanupSkipped CleanupOutcome = "skipped"
	CleanupDone    CleanupOutcome = "deleted"
	CleanupFailed  CleanupOutcome = "failed"
)

type MediaUpdateResult struct {
	Ref     string         `json:"ref"`
	URL     string         `json:"url"`
	Cleanup CleanupOutcome `json:"cleanup"`
}
