// Package infer proposes candidate substitution keys for cipher
// messages by voting cipher words against the frequency model.
package infer

import (
	"sort"

	"github.com/e-frolov/shortwave/internal/alphabet"
	"github.com/e-frolov/shortwave/internal/freq"
	"github.com/e-frolov/shortwave/internal/message"
)

// DefaultGroupCount is the minimum number of independently agreeing
// cipher words needed to call a candidate fully corroborated. Two is
// the smallest count that is not self-confirmation.
const DefaultGroupCount = 2

// Completeness grades the evidence behind a candidate key.
type Completeness int

const (
	// Partial means fewer corroborating words than the group count;
	// the candidate is returned but flagged as weaker evidence.
	Partial Completeness = iota
	// Full means the key was derived independently from at least the
	// group count of distinct cipher words.
	Full
)

func (c Completeness) String() string {
	if c == Full {
		return "full"
	}
	return "partial"
}

// Candidate is one proposed per-position offset key, scored by the
// frequency counts of the clear words that produced it.
type Candidate struct {
	Key      []int
	Weight   int64
	Words    []string
	Complete Completeness
}

// Infer ranks candidate keys for a cipher message. Every length-
// compatible clear word votes for the offset pattern that maps it to
// the cipher word, weighted by its stored count. Identical patterns
// from distinct cipher words accumulate into one candidate. The
// assumption that distinct clear words rarely produce the same pattern
// against one cipher word is a documented limitation, not enforced.
//
// An empty result means no length-compatible vocabulary exists; that is
// a valid outcome, not an error.
func Infer(m message.Message, store *freq.Store, groupCount int) []Candidate {
	if groupCount <= 0 {
		groupCount = DefaultGroupCount
	}

	type accum struct {
		key    []int
		weight int64
		words  map[string]struct{}
	}
	votes := map[string]*accum{}

	vote := func(ns freq.Namespace, cipherWord string) {
		for _, entry := range store.CandidatesOfLength(ns, len(cipherWord)) {
			key, ok := offsets(cipherWord, entry.Word)
			if !ok {
				continue
			}
			id := encode(key)
			acc, seen := votes[id]
			if !seen {
				acc = &accum{key: key, words: map[string]struct{}{}}
				votes[id] = acc
			}
			acc.weight += entry.Count
			acc.words[cipherWord] = struct{}{}
		}
	}

	for _, word := range dedupe(m.Body) {
		vote(freq.Body, word)
	}
	if m.Sender.Present {
		vote(freq.Sender, m.Sender.Word)
	}
	if m.Receiver.Present {
		vote(freq.Receiver, m.Receiver.Word)
	}

	candidates := make([]Candidate, 0, len(votes))
	for _, acc := range votes {
		words := make([]string, 0, len(acc.words))
		for word := range acc.words {
			words = append(words, word)
		}
		sort.Strings(words)
		complete := Partial
		if len(words) >= groupCount {
			complete = Full
		}
		candidates = append(candidates, Candidate{
			Key:      acc.key,
			Weight:   acc.weight,
			Words:    words,
			Complete: complete,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		if a.Complete != b.Complete {
			return a.Complete == Full
		}
		if len(a.Words) != len(b.Words) {
			return len(a.Words) > len(b.Words)
		}
		return lessKey(a.Key, b.Key)
	})
	return candidates
}

// Apply decodes a cipher word with a candidate key by reversing the
// per-position offsets. It reports false when the key length does not
// match the word or the word leaves the alphabet.
func Apply(key []int, cipherWord string) (string, bool) {
	if len(key) != len(cipherWord) {
		return "", false
	}
	out := make([]byte, len(cipherWord))
	for i := 0; i < len(cipherWord); i++ {
		b, ok := alphabet.Shift(cipherWord[i], -key[i])
		if !ok {
			return "", false
		}
		out[i] = b
	}
	return string(out), true
}

// offsets computes the per-position offset sequence that maps the clear
// word onto the cipher word.
func offsets(cipherWord, clearWord string) ([]int, bool) {
	if len(cipherWord) != len(clearWord) {
		return nil, false
	}
	key := make([]int, len(cipherWord))
	for i := 0; i < len(cipherWord); i++ {
		off, ok := alphabet.Offset(cipherWord[i], clearWord[i])
		if !ok {
			return nil, false
		}
		key[i] = off
	}
	return key, true
}

// encode packs an offset sequence into a map key. Offsets are below
// the alphabet size, so one byte each is enough.
func encode(key []int) string {
	buf := make([]byte, len(key))
	for i, off := range key {
		buf[i] = byte(off)
	}
	return string(buf)
}

func lessKey(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func dedupe(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, word := range words {
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
	}
	return out
}
