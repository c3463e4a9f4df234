// Package player binds to the system media player: it issues transport
// commands and surfaces playback events as track snapshots.
package player

import (
	"context"

	"github.com/overplay-app/overplay/internal/track"
)

// Player is the media-player automation binding. Commands are
// parameterless and fire-and-forget; events deliver fresh snapshots.
// Callback registration must happen before Start.
type Player interface {
	// Transport commands.
	Play() error
	Pause() error
	PlayPause() error
	Stop() error
	Next() error
	Previous() error
	VolumeUp() error
	VolumeDown() error
	ToggleMute() error

	// Current returns the latest known snapshot.
	Current() track.Snapshot

	// Event API.
	OnTrackChanged(func(track.Snapshot))
	OnPlayStateChanged(func(track.PlayState))
	OnRatingChanged(func(int))
	OnMuteChanged(func(bool))
	OnVolumeChanged(func(float64))

	// Start begins delivering events until the context is cancelled.
	Start(ctx context.Context) error
	// Close releases the binding's resources.
	Close() error
}

// callbacks is the shared registration plumbing for Player
// implementations.
type callbacks struct {
	onTrackChanged     []func(track.Snapshot)
	onPlayStateChanged []func(track.PlayState)
	onRatingChanged    []func(int)
	onMuteChanged      []func(bool)
	onVolumeChanged    []func(float64)
}

func (c *callbacks) OnTrackChanged(cb func(track.Snapshot)) {
	c.onTrackChanged = append(c.onTrackChanged, cb)
}

func (c *callbacks) OnPlayStateChanged(cb func(track.PlayState)) {
	c.onPlayStateChanged = append(c.onPlayStateChanged, cb)
}

func (c *callbacks) OnRatingChanged(cb func(int)) {
	c.onRatingChanged = append(c.onRatingChanged, cb)
}

func (c *callbacks) OnMuteChanged(cb func(bool)) {
	c.onMuteChanged = append(c.onMuteChanged, cb)
}

func (c *callbacks) OnVolumeChanged(cb func(float64)) {
	c.onVolumeChanged = append(c.onVolumeChanged, cb)
}

func (c *callbacks) emitTrackChanged(s track.Snapshot) {
	for _, cb := range c.onTrackChanged {
		cb(s)
	}
}

func (c *callbacks) emitPlayStateChanged(s track.PlayState) {
	for _, cb := range c.onPlayStateChanged {
		cb(s)
	}
}

func (c *callbacks) emitRatingChanged(r int) {
	for _, cb := range c.onRatingChanged {
		cb(r)
	}
}

func (c *callbacks) emitMuteChanged(m bool) {
	for _, cb := range c.onMuteChanged {
		cb(m)
	}
}

func (c *callbacks) emitVolumeChanged(v float64) {
	for _, cb := range c.onVolumeChanged {
		cb(v)
	}
}
