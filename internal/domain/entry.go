package domain

import (
	"fmt"
	"strings"
)

// TranscriptEntry is one timestamped line of live chat or translated
// dialogue. Entries within a room are kept ordered by OffsetSeconds
// non-decreasing; the timestamp index depends on that ordering.
type TranscriptEntry struct {
	// Key is the stable identity of the entry. Unique within a room,
	// used for dedupe and for edit-collection identity.
	Key string `json:"key"`

	// OffsetSeconds is the playback-relative timestamp of the entry.
	OffsetSeconds float64 `json:"video_offset"`

	// DurationMillis is the display duration for editing contexts.
	// Nil for plain chat messages.
	DurationMillis *float64 `json:"duration,omitempty"`

	// Message is the literal text; Parsed is the markup-expanded form
	// and wins for display when present.
	Message string `json:"message"`
	Parsed  string `json:"parsed,omitempty"`

	Name      string `json:"name"`
	ChannelID string `json:"channel_id,omitempty"`

	IsOwner     bool `json:"is_owner,omitempty"`
	IsVerified  bool `json:"is_verified,omitempty"`
	IsVTuber    bool `json:"is_vtuber,omitempty"`
	IsModerator bool `json:"is_moderator,omitempty"`

	// Timestamp is the wall-clock arrival time in unix millis.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// DisplayText returns the parsed form when present, else the raw message.
func (e TranscriptEntry) DisplayText() string {
	if e.Parsed != "" {
		return e.Parsed
	}
	return e.Message
}

// DurationOr returns DurationMillis, or def when the entry has none.
func (e TranscriptEntry) DurationOr(def float64) float64 {
	if e.DurationMillis != nil {
		return *e.DurationMillis
	}
	return def
}

// Millis returns a *float64 for literal duration values.
func Millis(v float64) *float64 {
	return &v
}

// Room identifies one live-translation stream: a video plus a language.
// Changing either component is a full context switch.
type Room struct {
	VideoID string
	Lang    string
}

// Key renders the composite room key, e.g. "dQw4w9WgXcQ/en".
func (r Room) Key() string {
	return r.VideoID + "/" + r.Lang
}

func (r Room) IsZero() bool {
	return r.VideoID == "" && r.Lang == ""
}

// ParseRoom splits a composite room key back into its components.
func ParseRoom(key string) (Room, error) {
	i := strings.IndexByte(key, '/')
	if i <= 0 || i == len(key)-1 {
		return Room{}, fmt.Errorf("malformed room key %q", key)
	}
	return Room{VideoID: key[:i], Lang: key[i+1:]}, nil
}
