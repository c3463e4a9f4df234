package player

import (
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/overplay-app/overplay/internal/track"
)

func TestApplyMetadata_MapsMprisKeys(t *testing.T) {
	var snap track.Snapshot
	applyMetadata(&snap, map[string]dbus.Variant{
		"xesam:title":      dbus.MakeVariant("Blue in Green"),
		"xesam:artist":     dbus.MakeVariant([]string{"Miles Davis", "Bill Evans"}),
		"xesam:album":      dbus.MakeVariant("Kind of Blue"),
		"xesam:userRating": dbus.MakeVariant(0.8),
		"mpris:length":     dbus.MakeVariant(int64(337_000_000)),
	})

	assert.Equal(t, "Blue in Green", snap.Name)
	assert.Equal(t, "Miles Davis, Bill Evans", snap.Artist)
	assert.Equal(t, "Kind of Blue", snap.Album)
	assert.Equal(t, 80, snap.Rating)
	assert.Equal(t, 337*time.Second, snap.Length)
}

func TestApplyMetadata_IgnoresWrongTypes(t *testing.T) {
	snap := track.Snapshot{Name: "keep"}
	applyMetadata(&snap, map[string]dbus.Variant{
		"xesam:title":  dbus.MakeVariant(12345),
		"mpris:length": dbus.MakeVariant("not a number"),
	})
	assert.Equal(t, "keep", snap.Name)
	assert.Zero(t, snap.Length)
}

func TestApplyProperties_MapsPosition(t *testing.T) {
	p := &MprisPlayer{logger: zap.NewNop(), volumeSeen: -1}

	p.applyProperties(map[string]dbus.Variant{
		"Position": dbus.MakeVariant(int64(95_000_000)),
	})

	assert.Equal(t, 95*time.Second, p.Current().Position)
}

func TestApplyProperties_EmitsVolumeChange(t *testing.T) {
	p := &MprisPlayer{logger: zap.NewNop(), volumeSeen: -1}
	var volumes []float64
	p.OnVolumeChanged(func(v float64) { volumes = append(volumes, v) })

	// The first observation establishes the baseline without an event.
	p.applyProperties(map[string]dbus.Variant{"Volume": dbus.MakeVariant(0.5)})
	assert.Empty(t, volumes)

	p.applyProperties(map[string]dbus.Variant{"Volume": dbus.MakeVariant(0.7)})
	p.applyProperties(map[string]dbus.Variant{"Volume": dbus.MakeVariant(0.7)})
	assert.Equal(t, []float64{0.7}, volumes, "only actual changes fire")
}

func TestParseState(t *testing.T) {
	assert.Equal(t, track.Playing, parseState("Playing"))
	assert.Equal(t, track.Paused, parseState("Paused"))
	assert.Equal(t, track.Stopped, parseState("Stopped"))
	assert.Equal(t, track.Stopped, parseState("anything else"))
}

func TestArtURL(t *testing.T) {
	assert.Equal(t, "file:///tmp/a.jpg", artURL(map[string]dbus.Variant{
		"mpris:artUrl": dbus.MakeVariant("file:///tmp/a.jpg"),
	}))
	assert.Empty(t, artURL(map[string]dbus.Variant{}))
}

func TestCallbacks_EmitInRegistrationOrder(t *testing.T) {
	var cbs callbacks
	var order []int
	cbs.OnTrackChanged(func(track.Snapshot) { order = append(order, 1) })
	cbs.OnTrackChanged(func(track.Snapshot) { order = append(order, 2) })

	cbs.emitTrackChanged(track.Snapshot{})
	assert.Equal(t, []int{1, 2}, order)
}
