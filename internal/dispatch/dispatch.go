// Package dispatch maps triggers to ordered action lists and fires them.
package dispatch

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/overplay-app/overplay/internal/hotkey"
)

// EventType enumerates the named semantic triggers raised by the player
// binding.
type EventType int

const (
	EventNone EventType = iota
	EventPlay
	EventPause
	EventStop
	EventTrackChange
	EventRatingChange
	EventMuteChange
	EventVolumeChange
)

func (e EventType) String() string {
	switch e {
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventStop:
		return "stop"
	case EventTrackChange:
		return "track-change"
	case EventRatingChange:
		return "rating-change"
	case EventMuteChange:
		return "mute-change"
	case EventVolumeChange:
		return "volume-change"
	default:
		return "none"
	}
}

// ParseEvent maps a config event name back to its EventType.
func ParseEvent(name string) (EventType, bool) {
	for _, e := range []EventType{
		EventPlay, EventPause, EventStop, EventTrackChange,
		EventRatingChange, EventMuteChange, EventVolumeChange,
	} {
		if e.String() == name {
			return e, true
		}
	}
	return EventNone, false
}

// Trigger is either a named semantic event or a captured key chord.
// Exactly one of the two fields is set. Triggers are comparable and used
// directly as table keys; chord comparison is order-independent because
// chords are canonicalized at construction.
type Trigger struct {
	Event EventType
	Chord hotkey.Chord
}

// EventTrigger builds a trigger for a named semantic event.
func EventTrigger(e EventType) Trigger {
	return Trigger{Event: e}
}

// ChordTrigger builds a trigger for a key chord.
func ChordTrigger(c hotkey.Chord) Trigger {
	return Trigger{Chord: c}
}

func (t Trigger) String() string {
	if !t.Chord.IsZero() {
		return "keys:" + t.Chord.String()
	}
	return "event:" + t.Event.String()
}

// Action is one invocable operation: a parameterless player command or a
// request to display the overlay. The set is closed; actions carry no
// state and are interpreted by the table's invoker.
type Action int

const (
	ActionPlay Action = iota + 1
	ActionPause
	ActionPlayPause
	ActionStop
	ActionNext
	ActionPrevious
	ActionVolumeUp
	ActionVolumeDown
	ActionMute
	ActionShowOverlay
)

var actionNames = map[Action]string{
	ActionPlay:        "play",
	ActionPause:       "pause",
	ActionPlayPause:   "play-pause",
	ActionStop:        "stop",
	ActionNext:        "next",
	ActionPrevious:    "previous",
	ActionVolumeUp:    "volume-up",
	ActionVolumeDown:  "volume-down",
	ActionMute:        "mute",
	ActionShowOverlay: "show-overlay",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction maps a config action name back to its Action.
func ParseAction(name string) (Action, bool) {
	for a, n := range actionNames {
		if n == name {
			return a, true
		}
	}
	return 0, false
}

// Invoker executes a single action. Invocation errors are isolated per
// action by Fire.
type Invoker func(Action) error

// Table maps triggers to ordered action lists. It is not internally
// synchronized: the controller serializes all access on its own lock,
// matching the single-thread discipline of the dispatch core.
type Table struct {
	logger   *zap.Logger
	invoke   Invoker
	bindings map[Trigger][]Action
}

// NewTable creates an empty dispatch table firing through the invoker.
func NewTable(logger *zap.Logger, invoke Invoker) *Table {
	return &Table{
		logger:   logger,
		invoke:   invoke,
		bindings: make(map[Trigger][]Action),
	}
}

// Fire executes the trigger's actions in list order. A trigger with no
// entry is a no-op. An action error is logged and does not stop the
// remaining actions.
func (t *Table) Fire(trigger Trigger) {
	actions, ok := t.bindings[trigger]
	if !ok {
		return
	}
	for _, a := range actions {
		if err := t.invoke(a); err != nil {
			t.logger.Warn("Action failed",
				zap.Stringer("trigger", trigger),
				zap.Stringer("action", a),
				zap.Error(err))
		}
	}
}

// Bind replaces the trigger's action list. Rebinding an existing trigger
// replaces its prior list; warning the user about duplicates is the
// caller's concern.
func (t *Table) Bind(trigger Trigger, actions []Action) {
	t.bindings[trigger] = append([]Action(nil), actions...)
}

// AddAction inserts an action at the given index, creating the trigger's
// entry if needed. index == len appends.
func (t *Table) AddAction(trigger Trigger, index int, action Action) error {
	actions := t.bindings[trigger]
	if index < 0 || index > len(actions) {
		return fmt.Errorf("dispatch: insert index %d out of range [0,%d]", index, len(actions))
	}
	actions = append(actions, 0)
	copy(actions[index+1:], actions[index:])
	actions[index] = action
	t.bindings[trigger] = actions
	return nil
}

// RemoveAction removes the action at the given index. The trigger entry
// is retained even when its list becomes empty, so an actionless key
// binding stays registered.
func (t *Table) RemoveAction(trigger Trigger, index int) error {
	actions, ok := t.bindings[trigger]
	if !ok {
		return fmt.Errorf("dispatch: trigger %s not bound", trigger)
	}
	if index < 0 || index >= len(actions) {
		return fmt.Errorf("dispatch: remove index %d out of range [0,%d)", index, len(actions))
	}
	t.bindings[trigger] = append(actions[:index], actions[index+1:]...)
	return nil
}

// SwapActions exchanges the actions at indices i and j (drag reorder).
func (t *Table) SwapActions(trigger Trigger, i, j int) error {
	actions, ok := t.bindings[trigger]
	if !ok {
		return fmt.Errorf("dispatch: trigger %s not bound", trigger)
	}
	if i < 0 || i >= len(actions) || j < 0 || j >= len(actions) {
		return fmt.Errorf("dispatch: swap indices (%d,%d) out of range [0,%d)", i, j, len(actions))
	}
	actions[i], actions[j] = actions[j], actions[i]
	return nil
}

// RemoveTrigger deletes the trigger and its action list entirely.
func (t *Table) RemoveTrigger(trigger Trigger) {
	delete(t.bindings, trigger)
}

// Actions returns a copy of the trigger's action list.
func (t *Table) Actions(trigger Trigger) []Action {
	return append([]Action(nil), t.bindings[trigger]...)
}

// Has reports whether the trigger has an entry, even an empty one.
func (t *Table) Has(trigger Trigger) bool {
	_, ok := t.bindings[trigger]
	return ok
}

// ChordTriggers returns every bound chord trigger, for hotkey matching.
func (t *Table) ChordTriggers() []Trigger {
	var out []Trigger
	for trig := range t.bindings {
		if !trig.Chord.IsZero() {
			out = append(out, trig)
		}
	}
	return out
}
