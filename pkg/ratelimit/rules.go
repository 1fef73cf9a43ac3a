package ratelimit

import "time"

// Rule describes one sliding-window limit. BlockMs of zero means the block
// lasts one full window.
type Rule struct {
	Scope    string
	Max      int
	WindowMs int64
	BlockMs  int64
}

// Window returns the rule window as a duration
func (r Rule) Window() time.Duration {
	return time.Duration(r.WindowMs) * time.Millisecond
}

// Block returns the block duration, defaulting to the window
func (r Rule) Block() time.Duration {
	if r.BlockMs > 0 {
		return time.Duration(r.BlockMs) * time.Millisecond
	}
	return r.Window()
}

// Rules exposed by the server. Scopes are stable strings: changing one
// orphans its persisted buckets.
var (
	LoginByIP = Rule{
		Scope:    "login:ip",
		Max:      10,
		WindowMs: 10 * 60 * 1000,
	}

	LoginByAccount = Rule{
		Scope:    "login:account",
		Max:      5,
		WindowMs: 10 * 60 * 1000,
	}

	ResetRequestByIP = Rule{
		Scope:    "reset-request:ip",
		Max:      10,
		WindowMs: 10 * 60 * 1000,
		BlockMs:  60 * 1000,
	}

	ResetRequestByAccount = Rule{
		Scope:    "reset-request:account",
		Max:      1,
		WindowMs: 60 * 1000,
		BlockMs:  60 * 1000,
	}

	ResetConfirmByIP = Rule{
		Scope:    "reset-confirm:ip",
		Max:      15,
		WindowMs: 10 * 60 * 1000,
	}

	ResetConfirmByAccount = Rule{
		Scope:    "reset-confirm:account",
		Max:      6,
		WindowMs: 10 * 60 * 1000,
		BlockMs:  5 * 60 * 1000,
	}
)
