// Package message parses corrected intercept text into structured
// messages and classifies them as clear or cipher traffic.
package message

import (
	"strings"

	"github.com/e-frolov/shortwave/internal/alphabet"
	"github.com/e-frolov/shortwave/internal/vocab"
)

// Classification marks a message as clear or cipher text.
type Classification int

const (
	// Clear means enough body words match the known vocabulary.
	Clear Classification = iota
	// Cipher means the body failed the vocabulary threshold.
	Cipher
)

func (c Classification) String() string {
	if c == Clear {
		return "clear"
	}
	return "cipher"
}

// Optional is a word field that may be absent. The zero value is absent.
type Optional struct {
	Word    string
	Present bool
}

// Message is one parsed, immutable intercept.
type Message struct {
	Raw         string
	Sender      Optional
	Receiver    Optional
	Body        []string
	Class       Classification
	Fingerprint string
}

// Parse splits corrected text into sender, receiver and body words and
// classifies the result against the dictionary. The sender is the first
// token when '='-prefixed; the receiver is the last token when
// '='-suffixed. Both are optional and malformed markers degrade to
// absent fields. Parse never panics on malformed input.
func Parse(correctedText string, dict *vocab.Dictionary) Message {
	msg := Message{
		Raw:         correctedText,
		Fingerprint: Fingerprint(correctedText),
	}

	tokens := tokenize(correctedText)
	if len(tokens) > 0 {
		if name, ok := markerName(tokens[0], true); ok {
			msg.Sender = Optional{Word: name, Present: true}
			tokens = tokens[1:]
		}
	}
	if len(tokens) > 0 {
		last := len(tokens) - 1
		if name, ok := markerName(tokens[last], false); ok {
			msg.Receiver = Optional{Word: name, Present: true}
			tokens = tokens[:last]
		}
	}
	msg.Body = tokens
	msg.Class = Classify(msg.Body, dict)
	return msg
}

// tokenize uppercases the text, treats every rune outside the radio
// alphabet as a separator, and splits on the result.
func tokenize(text string) []string {
	upper := strings.ToUpper(text)
	mapped := strings.Map(func(r rune) rune {
		if r < 256 {
			if _, ok := alphabet.Ordinal(byte(r)); ok {
				return r
			}
		}
		return ' '
	}, upper)
	return strings.Fields(mapped)
}

// markerName strips the sender or receiver marker from a token and
// returns the bare name. A marker with nothing behind it is not a
// detectable field.
func markerName(token string, prefix bool) (string, bool) {
	var name string
	switch {
	case prefix && strings.HasPrefix(token, "="):
		name = strings.TrimLeft(token, "=")
	case !prefix && strings.HasSuffix(token, "="):
		name = strings.TrimRight(token, "=")
	default:
		return "", false
	}
	if name == "" {
		return "", false
	}
	return name, true
}

// Classify reports whether the body reads as clear text: more than a
// quarter of the body words are known vocabulary or pure digit groups.
// Classify does not mutate any state.
func Classify(body []string, dict *vocab.Dictionary) Classification {
	if len(body) == 0 {
		return Cipher
	}
	known := 0
	for _, word := range body {
		if dict != nil && dict.Contains(word) || allDigits(word) {
			known++
		}
	}
	if known*4 > len(body) {
		return Clear
	}
	return Cipher
}

func allDigits(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < '0' || word[i] > '9' {
			return false
		}
	}
	return true
}
