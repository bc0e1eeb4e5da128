// Package hotkey binds a global keyboard chord to the capture trigger.
// The chord is rebindable at runtime so a config reload never restarts
// the OS-level hook.
package hotkey

import (
	"fmt"
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Chord is a parsed key combination: every listed key must be held.
type Chord struct {
	spec string
	keys []chordKey
}

type chordKey struct {
	name     string
	rawcodes []uint16
}

func (c Chord) String() string { return c.spec }

// Parse converts a spec like "Ctrl+Alt+Q" into a Chord. Key names are
// case-insensitive; win/cmd/super are aliases.
func Parse(spec string) (Chord, error) {
	parts := strings.Split(strings.ToLower(spec), "+")
	chord := Chord{spec: spec}
	for _, part := range parts {
		name := normalizeKey(strings.TrimSpace(part))
		codes := rawcodesFor(name)
		if len(codes) == 0 {
			return Chord{}, fmt.Errorf("unknown key %q in hotkey %q", part, spec)
		}
		chord.keys = append(chord.keys, chordKey{name: name, rawcodes: codes})
	}
	if len(chord.keys) == 0 {
		return Chord{}, fmt.Errorf("empty hotkey spec")
	}
	return chord, nil
}

// Listener watches global key events and fires a callback when the
// bound chord is fully held.
type Listener struct {
	mu      sync.Mutex
	chord   Chord
	pressed map[uint16]bool
	fire    func()
	started bool
}

// NewListener binds the initial chord to fire.
func NewListener(chord Chord, fire func()) *Listener {
	return &Listener{chord: chord, pressed: make(map[uint16]bool), fire: fire}
}

// Rebind swaps the active chord. Held-key state is reset so a chord
// change mid-press cannot trigger spuriously.
func (l *Listener) Rebind(chord Chord) {
	l.mu.Lock()
	l.chord = chord
	l.pressed = make(map[uint16]bool)
	l.mu.Unlock()
	log.Printf("hotkey: rebound to %s", chord)
}

// Start begins consuming the global event hook on its own goroutine.
func (l *Listener) Start() error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return fmt.Errorf("hotkey listener already started")
	}
	l.started = true
	l.mu.Unlock()

	evChan := gohook.Start()
	if evChan == nil {
		return fmt.Errorf("failed to install keyboard hook")
	}
	log.Printf("hotkey: listening for %s", l.chord)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("hotkey: panic in event loop: %v", r)
			}
		}()
		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown, gohook.KeyHold:
				l.keyDown(ev.Rawcode)
			case gohook.KeyUp:
				l.keyUp(ev.Rawcode)
			}
		}
		log.Printf("hotkey: event channel closed")
	}()
	return nil
}

// Stop uninstalls the keyboard hook.
func (l *Listener) Stop() {
	gohook.End()
}

func (l *Listener) keyDown(rawcode uint16) {
	l.mu.Lock()
	l.pressed[rawcode] = true
	complete := l.chordHeldLocked()
	if complete {
		// Reset so the chord fires once per press, not per repeat.
		l.pressed = make(map[uint16]bool)
	}
	fire := l.fire
	l.mu.Unlock()

	if complete && fire != nil {
		fire()
	}
}

func (l *Listener) keyUp(rawcode uint16) {
	l.mu.Lock()
	delete(l.pressed, rawcode)
	l.mu.Unlock()
}

// chordHeldLocked reports whether every chord key has at least one of
// its rawcode variants down. Caller holds l.mu.
func (l *Listener) chordHeldLocked() bool {
	for _, k := range l.chord.keys {
		held := false
		for _, rc := range k.rawcodes {
			if l.pressed[rc] {
				held = true
				break
			}
		}
		if !held {
			return false
		}
	}
	return len(l.chord.keys) > 0
}

func normalizeKey(name string) string {
	switch name {
	case "win", "cmd", "super":
		return "cmd"
	case "return":
		return "enter"
	case "escape":
		return "esc"
	case "del":
		return "delete"
	case "ins":
		return "insert"
	case "pgup":
		return "pageup"
	case "pgdn":
		return "pagedown"
	}
	return name
}

// namedRawcodes maps key names to virtual key codes. Modifiers carry
// both their left and right variants.
var namedRawcodes = map[string][]uint16{
	"ctrl":  {162, 163},
	"alt":   {164, 165},
	"shift": {160, 161},
	"cmd":   {91, 92},

	"space":     {32},
	"enter":     {13},
	"esc":       {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"insert":    {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pagedown":  {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

func rawcodesFor(name string) []uint16 {
	if codes, ok := namedRawcodes[name]; ok {
		return codes
	}
	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c - 'a' + 65)}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c - '0' + 48)}
		}
	}
	// F1..F24 sit at contiguous virtual key codes starting at 112.
	if strings.HasPrefix(name, "f") && len(name) > 1 {
		n := 0
		for _, r := range name[1:] {
			if r < '0' || r > '9' {
				return nil
			}
			n = n*10 + int(r-'0')
		}
		if n >= 1 && n <= 24 {
			return []uint16{uint16(112 + n - 1)}
		}
	}
	return nil
}
