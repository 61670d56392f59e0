package words

import "unicode"

// MaskRune is the placeholder shown for an unrevealed letter.
const MaskRune = '_'

// Mask hides every letter of the word behind the placeholder.
// Non-letter runes (spaces, hyphens, digits) stay visible, so guessers
// can see the shape of multi-word answers.
func Mask(word string) string {
	masked := []rune(word)
	for i, r := range masked {
		if unicode.IsLetter(r) {
			masked[i] = MaskRune
		}
	}
	return string(masked)
}

// Reveal uncovers the letter of word at the given rune index of the
// mask. Out-of-range or already revealed positions leave the mask
// unchanged.
func Reveal(masked, word string, index int) string {
	m := []rune(masked)
	w := []rune(word)
	if index < 0 || index >= len(m) || index >= len(w) {
		return masked
	}
	if m[index] != MaskRune {
		return masked
	}
	m[index] = w[index]
	return string(m)
}

func maskedPositions(masked string) []int {
	var positions []int
	for i, r := range []rune(masked) {
		if r == MaskRune {
			positions = append(positions, i)
		}
	}
	return positions
}
