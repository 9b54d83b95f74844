package browser

import (
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
)

// TypeHuman types text into an element with human-like timing.
// It uses Element.Type() which properly triggers keyboard events (keydown/keyup).
// Small random delays (50-150ms) between keystrokes simulate human typing.
func TypeHuman(el *rod.Element, text string) error {
	for _, char := range text {
		if err := el.Type(input.Key(char)); err != nil {
			return err
		}
		time.Sleep(time.Duration(50+rand.Intn(100)) * time.Millisecond)
	}
	return nil
}

// TypeFast types text quickly without delays.
// Still triggers proper keyboard events (keydown/keyup) for each character.
func TypeFast(el *rod.Element, text string) error {
	keys := make([]input.Key, 0, len(text))
	for _, char := range text {
		keys = append(keys, input.Key(char))
	}
	return el.Type(keys...)
}

// TypeText types text as keystrokes when the keyboard map covers every
// character. Otherwise it falls back to Element.Input, which sets the value
// and dispatches input and change events so reactive forms still register it.
func TypeText(el *rod.Element, text string, human bool) error {
	if !Typeable(text) {
		return el.Input(text)
	}
	if human {
		return TypeHuman(el, text)
	}
	return TypeFast(el, text)
}

// Typeable reports whether every rune is printable ASCII.
func Typeable(text string) bool {
	for _, r := range text {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}
