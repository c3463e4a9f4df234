package player

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"github.com/overplay-app/overplay/internal/track"
)

const (
	mprisPrefix     = "org.mpris.MediaPlayer2."
	mprisObjectPath = "/org/mpris/MediaPlayer2"
	playerInterface = "org.mpris.MediaPlayer2.Player"
	propsInterface  = "org.freedesktop.DBus.Properties"

	volumeStep         = 0.05
	artworkFetchLimit  = 8 << 20
	artworkHTTPTimeout = 5 * time.Second
)

// MprisPlayer binds to an MPRIS media player over the D-Bus session bus.
// With an empty preferred name it attaches to the first MPRIS player it
// finds and follows PropertiesChanged signals from there.
type MprisPlayer struct {
	callbacks

	logger    *zap.Logger
	conn      *dbus.Conn
	preferred string

	mu         sync.Mutex
	busName    string
	current    track.Snapshot
	lastVolume float64
	volumeSeen float64
	httpClient *http.Client
}

// NewMprisPlayer connects to the session bus. preferred is a player name
// suffix like "spotify"; empty means first detected player.
func NewMprisPlayer(logger *zap.Logger, preferred string) (*MprisPlayer, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &MprisPlayer{
		logger:     logger,
		conn:       conn,
		preferred:  preferred,
		lastVolume: 1.0,
		volumeSeen: -1,
		httpClient: &http.Client{Timeout: artworkHTTPTimeout},
	}, nil
}

// Detect resolves the target player, pulls its current state and reports
// the bus name it attached to. Used by health checks.
func (p *MprisPlayer) Detect() (string, error) {
	if err := p.resolvePlayer(); err != nil {
		return "", err
	}
	p.refresh()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busName, nil
}

// Current returns the latest known snapshot.
func (p *MprisPlayer) Current() track.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Close shuts down the bus connection.
func (p *MprisPlayer) Close() error {
	return p.conn.Close()
}

// Start resolves the target player, pulls its initial state and follows
// PropertiesChanged signals until the context is cancelled.
func (p *MprisPlayer) Start(ctx context.Context) error {
	if err := p.resolvePlayer(); err != nil {
		p.logger.Warn("No media player detected yet; waiting for one", zap.Error(err))
	} else {
		p.refresh()
	}

	if err := p.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(mprisObjectPath),
		dbus.WithMatchInterface(propsInterface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("add PropertiesChanged match: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	p.conn.Signal(signals)

	for {
		select {
		case <-ctx.Done():
			p.conn.RemoveSignal(signals)
			return ctx.Err()
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			p.handleSignal(sig)
		}
	}
}

// resolvePlayer finds the bus name to talk to.
func (p *MprisPlayer) resolvePlayer() error {
	var names []string
	if err := p.conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return fmt.Errorf("list bus names: %w", err)
	}
	var found string
	for _, name := range names {
		if !strings.HasPrefix(name, mprisPrefix) {
			continue
		}
		if p.preferred == "" || strings.HasSuffix(name, "."+p.preferred) {
			found = name
			break
		}
	}
	if found == "" {
		return fmt.Errorf("no MPRIS player on the bus")
	}
	p.mu.Lock()
	p.busName = found
	p.mu.Unlock()
	p.logger.Info("Attached to media player", zap.String("name", found))
	return nil
}

func (p *MprisPlayer) playerObject() (dbus.BusObject, error) {
	if p.conn == nil {
		return nil, fmt.Errorf("no bus connection")
	}
	p.mu.Lock()
	name := p.busName
	p.mu.Unlock()
	if name == "" {
		if err := p.resolvePlayer(); err != nil {
			return nil, err
		}
		p.mu.Lock()
		name = p.busName
		p.mu.Unlock()
	}
	return p.conn.Object(name, mprisObjectPath), nil
}

func (p *MprisPlayer) call(method string) error {
	obj, err := p.playerObject()
	if err != nil {
		return err
	}
	if call := obj.Call(playerInterface+"."+method, 0); call.Err != nil {
		return fmt.Errorf("%s: %w", method, call.Err)
	}
	return nil
}

func (p *MprisPlayer) Play() error      { return p.call("Play") }
func (p *MprisPlayer) Pause() error     { return p.call("Pause") }
func (p *MprisPlayer) PlayPause() error { return p.call("PlayPause") }
func (p *MprisPlayer) Stop() error      { return p.call("Stop") }
func (p *MprisPlayer) Next() error      { return p.call("Next") }
func (p *MprisPlayer) Previous() error  { return p.call("Previous") }

func (p *MprisPlayer) VolumeUp() error   { return p.adjustVolume(volumeStep) }
func (p *MprisPlayer) VolumeDown() error { return p.adjustVolume(-volumeStep) }

func (p *MprisPlayer) adjustVolume(delta float64) error {
	obj, err := p.playerObject()
	if err != nil {
		return err
	}
	volume, err := p.volume(obj)
	if err != nil {
		return err
	}
	volume += delta
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	return p.setVolume(obj, volume)
}

// ToggleMute emulates mute on MPRIS players, which expose only a volume
// property: drop to zero, remembering the prior level for the way back.
func (p *MprisPlayer) ToggleMute() error {
	obj, err := p.playerObject()
	if err != nil {
		return err
	}
	volume, err := p.volume(obj)
	if err != nil {
		return err
	}
	p.mu.Lock()
	if volume > 0 {
		p.lastVolume = volume
		volume = 0
	} else {
		volume = p.lastVolume
		if volume <= 0 {
			volume = 1.0
		}
	}
	p.mu.Unlock()
	return p.setVolume(obj, volume)
}

func (p *MprisPlayer) volume(obj dbus.BusObject) (float64, error) {
	variant, err := obj.GetProperty(playerInterface + ".Volume")
	if err != nil {
		return 0, fmt.Errorf("get volume: %w", err)
	}
	volume, ok := variant.Value().(float64)
	if !ok {
		return 0, fmt.Errorf("volume is not a float")
	}
	return volume, nil
}

func (p *MprisPlayer) setVolume(obj dbus.BusObject, volume float64) error {
	if call := obj.Call(propsInterface+".Set", 0, playerInterface, "Volume", dbus.MakeVariant(volume)); call.Err != nil {
		return fmt.Errorf("set volume: %w", call.Err)
	}
	return nil
}

// refresh pulls the full player state and emits change events.
func (p *MprisPlayer) refresh() {
	obj, err := p.playerObject()
	if err != nil {
		return
	}
	props := make(map[string]dbus.Variant)
	if variant, err := obj.GetProperty(playerInterface + ".Metadata"); err == nil {
		props["Metadata"] = variant
	}
	if variant, err := obj.GetProperty(playerInterface + ".PlaybackStatus"); err == nil {
		props["PlaybackStatus"] = variant
	}
	if variant, err := obj.GetProperty(playerInterface + ".Volume"); err == nil {
		props["Volume"] = variant
	}
	if variant, err := obj.GetProperty(playerInterface + ".Position"); err == nil {
		props["Position"] = variant
	}
	p.applyProperties(props)
}

// handleSignal processes a PropertiesChanged signal from the player.
func (p *MprisPlayer) handleSignal(sig *dbus.Signal) {
	if sig == nil || sig.Name != propsInterface+".PropertiesChanged" || len(sig.Body) < 2 {
		return
	}
	iface, ok := sig.Body[0].(string)
	if !ok || iface != playerInterface {
		return
	}
	props, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}
	p.applyProperties(props)
}

// applyProperties folds changed properties into the current snapshot and
// emits the matching events.
func (p *MprisPlayer) applyProperties(props map[string]dbus.Variant) {
	p.mu.Lock()
	prev := p.current
	next := prev

	if variant, ok := props["Metadata"]; ok {
		if metadata, ok := variant.Value().(map[string]dbus.Variant); ok {
			applyMetadata(&next, metadata)
		}
	}
	if variant, ok := props["PlaybackStatus"]; ok {
		if status, ok := variant.Value().(string); ok {
			next.State = parseState(status)
		}
	}

	volume := -1.0
	if variant, ok := props["Volume"]; ok {
		if v, ok := variant.Value().(float64); ok {
			volume = v
			next.Muted = v == 0
		}
	}

	positionSeen := false
	if variant, ok := props["Position"]; ok {
		if us, ok := variant.Value().(int64); ok {
			next.Position = time.Duration(us) * time.Microsecond
			positionSeen = true
		}
	}

	trackChanged := next.Name != prev.Name || next.Artist != prev.Artist || next.Album != prev.Album
	p.mu.Unlock()

	if trackChanged {
		if metaVariant, ok := props["Metadata"]; ok {
			if metadata, ok := metaVariant.Value().(map[string]dbus.Variant); ok {
				next.Artwork = p.fetchArtwork(artURL(metadata))
			}
		}
		// Position is not signaled through PropertiesChanged, so a track
		// change pulls it fresh off the player.
		if !positionSeen {
			next.Position = p.queryPosition()
		}
	} else {
		next.Artwork = prev.Artwork
	}

	p.mu.Lock()
	p.current = next
	prevVolume := p.volumeSeen
	if volume >= 0 {
		p.volumeSeen = volume
	}
	p.mu.Unlock()

	if trackChanged {
		p.emitTrackChanged(next)
	}
	if next.State != prev.State {
		p.emitPlayStateChanged(next.State)
	}
	if next.Rating != prev.Rating {
		p.emitRatingChanged(next.Rating)
	}
	if next.Muted != prev.Muted {
		p.emitMuteChanged(next.Muted)
	}
	if volume >= 0 && prevVolume >= 0 && volume != prevVolume {
		p.emitVolumeChanged(volume)
	}
}

// applyMetadata maps MPRIS metadata keys onto the snapshot.
func applyMetadata(snap *track.Snapshot, metadata map[string]dbus.Variant) {
	if v, ok := metadata["xesam:title"]; ok {
		if s, ok := v.Value().(string); ok {
			snap.Name = s
		}
	}
	if v, ok := metadata["xesam:artist"]; ok {
		switch artists := v.Value().(type) {
		case []string:
			snap.Artist = strings.Join(artists, ", ")
		case string:
			snap.Artist = artists
		}
	}
	if v, ok := metadata["xesam:album"]; ok {
		if s, ok := v.Value().(string); ok {
			snap.Album = s
		}
	}
	if v, ok := metadata["xesam:userRating"]; ok {
		if r, ok := v.Value().(float64); ok {
			snap.Rating = int(r * 100)
		}
	}
	if v, ok := metadata["mpris:length"]; ok {
		switch length := v.Value().(type) {
		case int64:
			snap.Length = time.Duration(length) * time.Microsecond
		case uint64:
			snap.Length = time.Duration(length) * time.Microsecond
		}
	}
}

// queryPosition reads the playback position property, in microseconds.
func (p *MprisPlayer) queryPosition() time.Duration {
	obj, err := p.playerObject()
	if err != nil {
		return 0
	}
	variant, err := obj.GetProperty(playerInterface + ".Position")
	if err != nil {
		return 0
	}
	if us, ok := variant.Value().(int64); ok {
		return time.Duration(us) * time.Microsecond
	}
	return 0
}

func artURL(metadata map[string]dbus.Variant) string {
	if v, ok := metadata["mpris:artUrl"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// fetchArtwork loads album art bytes from a file:// or http(s) URL.
func (p *MprisPlayer) fetchArtwork(url string) []byte {
	if url == "" {
		return nil
	}
	switch {
	case strings.HasPrefix(url, "file://"):
		data, err := os.ReadFile(strings.TrimPrefix(url, "file://"))
		if err != nil {
			p.logger.Debug("Failed to read artwork file", zap.String("url", url), zap.Error(err))
			return nil
		}
		return data
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		resp, err := p.httpClient.Get(url)
		if err != nil {
			p.logger.Debug("Failed to fetch artwork", zap.String("url", url), zap.Error(err))
			return nil
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, artworkFetchLimit))
		if err != nil {
			return nil
		}
		return data
	default:
		return nil
	}
}

func parseState(status string) track.PlayState {
	switch status {
	case "Playing":
		return track.Playing
	case "Paused":
		return track.Paused
	default:
		return track.Stopped
	}
}
