// Package command recognizes spoken voice commands in finalized transcripts.
// A transcript is a command only when the whole utterance is the command,
// optionally wrapped in polite filler, so prompts that merely contain a
// command phrase still generate.
package command

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Name identifies a recognized command.
type Name string

const (
	None          Name = ""
	Regenerate    Name = "regenerate"
	MoreRealistic Name = "more_realistic"
	MoreAbstract  Name = "more_abstract"
	SaveImage     Name = "save_image"
)

var (
	punctRE    = regexp.MustCompile(`[^a-z0-9\s]`)
	spaceRE    = regexp.MustCompile(`\s+`)
	leadingRE  = regexp.MustCompile(`^(please|hey|ok|okay)\s+`)
	trailingRE = regexp.MustCompile(`\s+(please|thanks|thank you)$`)

	grammar = []struct {
		re   *regexp.Regexp
		name Name
	}{
		{regexp.MustCompile(`^regenerate$`), Regenerate},
		{regexp.MustCompile(`^more realistic$`), MoreRealistic},
		{regexp.MustCompile(`^more abstract$`), MoreAbstract},
		{regexp.MustCompile(`^save (the )?image$`), SaveImage},
	}
)

// Normalize lowercases text, replaces everything but ASCII letters, digits
// and whitespace with spaces, and collapses runs of whitespace.
func Normalize(text string) string {
	t := cases.Lower(language.Und).String(strings.TrimSpace(text))
	t = punctRE.ReplaceAllString(t, " ")
	return strings.TrimSpace(spaceRE.ReplaceAllString(t, " "))
}

// Strip normalizes text and removes one leading and one trailing filler word.
func Strip(text string) string {
	n := Normalize(text)
	if n == "" {
		return ""
	}
	n = strings.TrimSpace(leadingRE.ReplaceAllString(n, ""))
	return strings.TrimSpace(trailingRE.ReplaceAllString(n, ""))
}

// Parse returns the command spoken in text, or None.
func Parse(text string) Name {
	n := Strip(text)
	if n == "" {
		return None
	}
	for _, g := range grammar {
		if g.re.MatchString(n) {
			return g.name
		}
	}
	return None
}

// IsCommand reports whether text is a recognized voice command.
func IsCommand(text string) bool { return Parse(text) != None }
