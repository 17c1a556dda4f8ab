package util

import "strings"

var digitWords = map[rune]string{
	'0': "zero", '1': "one", '2': "two", '3': "three", '4': "four",
	'5': "five", '6': "six", '7': "seven", '8': "eight", '9': "nine",
}

// SayDigits converts a number string to spoken words for TTS.
//
// Example: "123456" -> "one two three four five six"
func SayDigits(number string) string {
	words := make([]string, 0, len(number))
	for _, r := range number {
		if w, ok := digitWords[r]; ok {
			words = append(words, w)
		} else {
			words = append(words, string(r))
		}
	}
	return strings.Join(words, " ")
}
