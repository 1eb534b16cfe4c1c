// Package tag implements the loop-prevention marker embedded in event
// descriptions. A mirrored record carries, as the final line of its
// description, the line
//
//	fogTimeID: <canonical_id>
//
// The label is a wire format: records written by earlier runs carry it
// verbatim, so it must never change.
package tag

import (
	"regexp"
	"strings"
)

// Label is the fixed tag prefix, version 1 of the format.
const Label = "fogTimeID"

var tagPattern = regexp.MustCompile(Label + ": (.*)$")

// Encode returns the tag line for the given canonical id.
func Encode(canonicalID string) string {
	return Label + ": " + canonicalID
}

// Append returns description with the tag line for canonicalID appended as a
// new final line.
func Append(description, canonicalID string) string {
	return description + "\n" + Encode(canonicalID)
}

// Decode extracts the canonical id from a description whose final line is a
// tag. Absence or a malformed tag is not an error: ok is false and the id
// empty. If the final line somehow contains the label twice, the leftmost
// occurrence wins.
func Decode(description string) (id string, ok bool) {
	trimmed := strings.TrimRight(description, "\n")
	m := tagPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Has reports whether the description carries a decodable tag.
func Has(description string) bool {
	_, ok := Decode(description)
	return ok
}
