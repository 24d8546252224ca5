// Package alphabet defines the radio symbol set and offset arithmetic.
package alphabet

// The transmission alphabet: uppercase letters, digits, then the two
// punctuation symbols that appear in captured traffic. Ordinals follow
// this order, so 'A' is 0 and '-' is Size-1.
const symbols = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789=-"

// Size is the number of symbols in the alphabet.
const Size = len(symbols)

// Ordinal returns the position of a symbol in the alphabet.
// The second return value is false for bytes outside the alphabet.
func Ordinal(b byte) (int, bool) {
	switch {
	case b >= 'A' && b <= 'Z':
		return int(b - 'A'), true
	case b >= '0' && b <= '9':
		return int(b-'0') + 26, true
	case b == '=':
		return 36, true
	case b == '-':
		return 37, true
	}
	return 0, false
}

// SymbolAt returns the symbol with the given ordinal. Ordinals outside
// [0, Size) wrap modulo Size.
func SymbolAt(ord int) byte {
	ord %= Size
	if ord < 0 {
		ord += Size
	}
	return symbols[ord]
}

// Offset returns the modular difference between a cipher symbol and a
// clear symbol at the same position. The second return value is false
// when either byte is outside the alphabet.
func Offset(cipher, clear byte) (int, bool) {
	co, ok := Ordinal(cipher)
	if !ok {
		return 0, false
	}
	ko, ok := Ordinal(clear)
	if !ok {
		return 0, false
	}
	d := (co - ko) % Size
	if d < 0 {
		d += Size
	}
	return d, true
}

// Shift applies an offset to a symbol. Shift(clear, Offset(cipher, clear))
// recovers cipher; Shift(cipher, -offset) recovers clear.
func Shift(b byte, off int) (byte, bool) {
	ord, ok := Ordinal(b)
	if !ok {
		return 0, false
	}
	return SymbolAt(ord + off), true
}

// ValidWord reports whether a token is a nonempty sequence of alphabet
// symbols.
func ValidWord(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		if _, ok := Ordinal(word[i]); !ok {
			return false
		}
	}
	return true
}
