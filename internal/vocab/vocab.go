// Package vocab loads the known-English word dictionary used for
// clear-text classification.
package vocab

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/e-frolov/shortwave/internal/alphabet"
)

// Dictionary is a static set of known clear-text words, uppercased and
// filtered to the radio alphabet.
type Dictionary struct {
	words map[string]struct{}
}

// Load reads one word per line from the provided file path.
func Load(path string) (*Dictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	dict := &Dictionary{words: map[string]struct{}{}}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if !alphabet.ValidWord(word) {
			continue
		}
		dict.words[word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(dict.words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return dict, nil
}

// New builds a dictionary from the given words. Intended for tests and
// for feeding confirmed decodes back without a file round trip.
func New(words []string) *Dictionary {
	dict := &Dictionary{words: make(map[string]struct{}, len(words))}
	for _, word := range words {
		word = strings.ToUpper(strings.TrimSpace(word))
		if alphabet.ValidWord(word) {
			dict.words[word] = struct{}{}
		}
	}
	return dict
}

// Contains reports whether the dictionary holds the given word.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.words[word]
	return ok
}

// Len returns the number of words in the dictionary.
func (d *Dictionary) Len() int {
	return len(d.words)
}
