package main

import (
	"strings"
	"unicode"

	"github.com/muesli/termenv"

	loopconfig "github.com/tomz197/shatter/internal/loop/config"
)

// colorProfile picks the richest color profile the remote terminal claims to
// support, from its TERM and the session environment.
func colorProfile(term string, environ []string) termenv.Profile {
	for _, kv := range environ {
		name, value, _ := strings.Cut(kv, "=")
		if name != "COLORTERM" {
			continue
		}
		switch strings.ToLower(value) {
		case "truecolor", "24bit":
			return termenv.TrueColor
		}
	}

	term = strings.ToLower(term)
	switch {
	case term == "" || term == "dumb":
		return termenv.Ascii
	case strings.Contains(term, "truecolor") || strings.Contains(term, "direct") ||
		strings.HasPrefix(term, "xterm-kitty") || strings.HasPrefix(term, "wezterm"):
		return termenv.TrueColor
	case strings.Contains(term, "256color"):
		return termenv.ANSI256
	default:
		return termenv.ANSI
	}
}

// sanitizeUsername keeps printable characters and caps the length so names
// fit above ships.
func sanitizeUsername(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return r
		}
		return -1
	}, name)
	if r := []rune(name); len(r) > loopconfig.MaxUsernameLength {
		name = string(r[:loopconfig.MaxUsernameLength])
	}
	if name == "" {
		return "pilot"
	}
	return name
}
