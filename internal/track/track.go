// Package track defines the immutable snapshot of the media player's
// current track and playback state.
package track

import "time"

// PlayState represents the playback state of the media player.
type PlayState int

const (
	// Stopped indicates no track is loaded or playback is stopped.
	Stopped PlayState = iota
	// Paused indicates playback is paused.
	Paused
	// Playing indicates the track is currently playing.
	Playing
)

func (s PlayState) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// Snapshot is a point-in-time view of the player's current track.
// Snapshots are produced whole by the player binding on every relevant
// change and are never partially mutated.
type Snapshot struct {
	// Name is the track title.
	Name string
	// Artist is the performing artist.
	Artist string
	// Album is the album name.
	Album string
	// Rating is the track rating on a 0-100 scale.
	Rating int
	// Position is the elapsed playback time.
	Position time.Duration
	// Length is the total track duration.
	Length time.Duration
	// State is the playback state at snapshot time.
	State PlayState
	// Muted reports whether the player output is muted.
	Muted bool
	// Artwork holds encoded album art bytes, if available.
	Artwork []byte
}

// HasArtwork returns true if the snapshot carries album art data.
func (s Snapshot) HasArtwork() bool {
	return len(s.Artwork) > 0
}
