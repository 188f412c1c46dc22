package models

import "time"

// ResourceType identifies the external platform a music item lives on.
type ResourceType string

const (
	ResourceYouTube    ResourceType = "youtube"
	ResourceSoundCloud ResourceType = "soundcloud"
)

// KnownResourceType reports whether rt is one of the supported platforms.
func KnownResourceType(rt ResourceType) bool {
	return rt == ResourceYouTube || rt == ResourceSoundCloud
}

// MusicItem references a track hosted elsewhere; the pair
// (ResourceType, ResourceID) is unique.
type MusicItem struct {
	ID           string
	ResourceType ResourceType
	ResourceID   string
	PinCount     int64
	ListenCount  int64
	CreatedAt    time.Time
}
