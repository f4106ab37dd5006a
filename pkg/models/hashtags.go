package models

import "regexp"

// hashtagPattern matches #word where word is letters, digits or underscore
// in any script.
var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// ExtractHashtags returns the hashtags of text in order of appearance. With
// keepHash the leading # is kept. The result is never nil.
func ExtractHashtags(text string, keepHash bool) []string {
	tags := []string{}
	for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		if keepHash {
			tags = append(tags, m[0])
		} else {
			tags = append(tags, m[1])
		}
	}
	return tags
}
