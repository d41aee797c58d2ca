package utils

import (
	"encoding/json"
	"unicode/utf8"
)

// MessageLimit is the maximum length of a Discord message body.
const MessageLimit = 2000

// JSONString renders data as indented JSON for debug output.
func JSONString(data any) string {
	jsonData, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return "<unprintable: " + err.Error() + ">"
	}
	return string(jsonData)
}

// TruncateMessage shortens s to at most limit runes, ending it with "…"
// when something was cut.
func TruncateMessage(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
