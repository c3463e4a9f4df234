package hotkey

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

// Source delivers global shortcut activations as canonical chords. The
// desktop's shortcut service owns key grabbing; this side only receives
// "these keys went down" notifications.
type Source interface {
	// Chords is the stream of activated chords.
	Chords() <-chan Chord
	// Start registers the chords with the desktop and delivers
	// activations until the context is cancelled.
	Start(ctx context.Context, chords []Chord) error
	// Close releases the source.
	Close() error
}

const (
	portalBusName    = "org.freedesktop.portal.Desktop"
	portalObjectPath = "/org/freedesktop/portal/desktop"
	shortcutsIface   = "org.freedesktop.portal.GlobalShortcuts"
)

// PortalSource registers global shortcuts through the XDG desktop portal
// and surfaces its Activated signals as chords. Shortcut ids are the
// canonical chord strings, so activation maps straight back to a chord.
type PortalSource struct {
	logger *zap.Logger
	conn   *dbus.Conn
	chords chan Chord

	sessionHandle dbus.ObjectPath
}

// NewPortalSource connects to the session bus portal.
func NewPortalSource(logger *zap.Logger) (*PortalSource, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &PortalSource{
		logger: logger,
		conn:   conn,
		chords: make(chan Chord, 16),
	}, nil
}

// Chords returns the activation stream.
func (s *PortalSource) Chords() <-chan Chord {
	return s.chords
}

// Close shuts the bus connection down.
func (s *PortalSource) Close() error {
	return s.conn.Close()
}

// Start creates a portal session, binds the chords and pumps Activated
// signals until the context is cancelled.
func (s *PortalSource) Start(ctx context.Context, chords []Chord) error {
	if err := s.createSession(); err != nil {
		return err
	}
	if len(chords) > 0 {
		if err := s.bindShortcuts(chords); err != nil {
			return err
		}
	}

	if err := s.conn.AddMatchSignal(
		dbus.WithMatchInterface(shortcutsIface),
		dbus.WithMatchMember("Activated"),
	); err != nil {
		return fmt.Errorf("add Activated match: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	s.conn.Signal(signals)

	for {
		select {
		case <-ctx.Done():
			s.conn.RemoveSignal(signals)
			close(s.chords)
			return ctx.Err()
		case sig, ok := <-signals:
			if !ok {
				close(s.chords)
				return nil
			}
			s.handleSignal(sig)
		}
	}
}

func (s *PortalSource) createSession() error {
	portal := s.conn.Object(portalBusName, portalObjectPath)
	options := map[string]dbus.Variant{
		"handle_token":         dbus.MakeVariant("overplay"),
		"session_handle_token": dbus.MakeVariant("overplay"),
	}
	var requestHandle dbus.ObjectPath
	call := portal.Call(shortcutsIface+".CreateSession", 0, options)
	if call.Err != nil {
		return fmt.Errorf("create shortcut session: %w", call.Err)
	}
	if err := call.Store(&requestHandle); err != nil {
		return fmt.Errorf("create shortcut session response: %w", err)
	}

	// The session handle is derivable from our token per the portal
	// addressing scheme.
	sender := strings.TrimPrefix(s.conn.Names()[0], ":")
	sender = strings.ReplaceAll(sender, ".", "_")
	s.sessionHandle = dbus.ObjectPath("/org/freedesktop/portal/desktop/session/" + sender + "/overplay")
	return nil
}

func (s *PortalSource) bindShortcuts(chords []Chord) error {
	type shortcut struct {
		ID      string
		Options map[string]dbus.Variant
	}
	shortcuts := make([]shortcut, 0, len(chords))
	for _, c := range chords {
		shortcuts = append(shortcuts, shortcut{
			ID: c.String(),
			Options: map[string]dbus.Variant{
				"description":       dbus.MakeVariant("overplay: " + c.String()),
				"preferred_trigger": dbus.MakeVariant(portalTrigger(c)),
			},
		})
	}

	portal := s.conn.Object(portalBusName, portalObjectPath)
	call := portal.Call(shortcutsIface+".BindShortcuts", 0,
		s.sessionHandle, shortcuts, "", map[string]dbus.Variant{
			"handle_token": dbus.MakeVariant("overplay_bind"),
		})
	if call.Err != nil {
		return fmt.Errorf("bind shortcuts: %w", call.Err)
	}
	return nil
}

// handleSignal turns an Activated signal back into a chord. Body layout:
// (session_handle o, shortcut_id s, timestamp t, options a{sv}).
func (s *PortalSource) handleSignal(sig *dbus.Signal) {
	if sig == nil || !strings.HasSuffix(sig.Name, ".Activated") || len(sig.Body) < 2 {
		return
	}
	id, ok := sig.Body[1].(string)
	if !ok {
		return
	}
	chord := ParseChord(id)
	select {
	case s.chords <- chord:
	default:
		s.logger.Warn("Dropping shortcut activation, channel full",
			zap.String("chord", chord.String()))
	}
}

// portalTrigger renders a chord in the portal's trigger notation, e.g.
// "CTRL+SHIFT+a".
func portalTrigger(c Chord) string {
	keys := c.Keys()
	out := make([]string, 0, len(keys))
	// Modifiers first; the portal expects them uppercased.
	for _, k := range keys {
		switch k {
		case "ctrl", "shift", "alt", "super", "logo":
			out = append(out, strings.ToUpper(k))
		}
	}
	for _, k := range keys {
		switch k {
		case "ctrl", "shift", "alt", "super", "logo":
		default:
			out = append(out, k)
		}
	}
	return strings.Join(out, "+")
}
