package domain

// PlayerState enumerates the states reported by the video player.
type PlayerState string

const (
	StatePlaying   PlayerState = "playing"
	StatePaused    PlayerState = "paused"
	StateBuffering PlayerState = "buffering"
	StateEnded     PlayerState = "ended"
	StateUnknown   PlayerState = "unknown"
)

// PlaybackStatus is the player's current position report. Progress is nil
// when the player has not reported a position yet.
type PlaybackStatus struct {
	Progress *float64    `json:"progress,omitempty"`
	State    PlayerState `json:"state"`
}

// Playing reports whether the status carries a usable playing position.
func (s PlaybackStatus) Playing() bool {
	return s.State == StatePlaying && s.Progress != nil
}
