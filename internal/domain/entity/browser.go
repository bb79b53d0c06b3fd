package entity

import (
	"fmt"
	"strings"
)

// BrowserKind selects the engine family a session launches.
type BrowserKind string

const (
	BrowserChromium BrowserKind = "chromium"
	BrowserFirefox  BrowserKind = "firefox"
	BrowserWebKit   BrowserKind = "webkit"
)

var browserKinds = []BrowserKind{BrowserChromium, BrowserFirefox, BrowserWebKit}

// BrowserKinds returns every supported kind in display order.
func BrowserKinds() []BrowserKind {
	out := make([]BrowserKind, len(browserKinds))
	copy(out, browserKinds)
	return out
}

// ParseBrowserKind accepts the kind names case-insensitively. An empty
// string selects chromium.
func ParseBrowserKind(s string) (BrowserKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return BrowserChromium, nil
	}
	for _, k := range browserKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown browser kind %q", s)
}

func (k BrowserKind) String() string {
	return string(k)
}

type SessionState int

const (
	SessionUnopened SessionState = iota
	SessionOpen
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionUnopened:
		return "unopened"
	case SessionOpen:
		return "open"
	case SessionClosed:
		return "closed"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}
