// Package recipient extracts a counterparty name embedded in the free-text
// notes of peer-transfer transactions.
package recipient

import (
	"regexp"
	"strings"
)

// payboxMarker identifies the peer-transfer service whose exports embed the
// recipient inside the notes column.
const payboxMarker = "PAYBOX"

// transferPattern pairs a capture pattern with a builder for the removal
// pattern once the name is known. Patterns are tried in order; the first
// match wins.
type transferPattern struct {
	capture *regexp.Regexp
	removal func(name string) *regexp.Regexp
}

var transferPatterns = []transferPattern{
	{
		// "למי: <name>", terminated by a trailing free-text marker or end.
		capture: regexp.MustCompile(`למי:\s*(.+?)(?:\s+(?:some|additional|notes|info|details|comment|remark)|$)`),
		removal: func(name string) *regexp.Regexp {
			return regexp.MustCompile(`למי:\s*` + regexp.QuoteMeta(name) + `(?:\s+|$)`)
		},
	},
	{
		// "שובר ל-<name>", "שוברים ל-<name>" or "שוברים לקניה ב-<name>".
		capture: regexp.MustCompile(`שוברי?ם?\s+ל(?:קניה\s+ב)?-(.+?)(?:\s+|$)`),
		removal: func(name string) *regexp.Regexp {
			return regexp.MustCompile(`שוברי?ם?\s+ל(?:קניה\s+ב)?-` + regexp.QuoteMeta(name) + `(?:\s+|$)`)
		},
	},
}

// Extract pulls the recipient name out of notes for transfer-type businesses.
// Non-matching input passes through unchanged with an empty name, and running
// Extract on already-cleaned notes is a no-op. The name is regex-escaped
// before removal so it cannot re-match unrelated text.
func Extract(businessName, notes string) (name, cleanedNotes string) {
	if !strings.Contains(businessName, payboxMarker) || notes == "" {
		return "", notes
	}

	for _, p := range transferPatterns {
		m := p.capture.FindStringSubmatch(notes)
		if m == nil {
			continue
		}
		name = strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		cleanedNotes = strings.TrimSpace(p.removal(name).ReplaceAllString(notes, ""))
		return name, cleanedNotes
	}

	return "", notes
}
