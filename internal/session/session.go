// Package session orchestrates parsing, deduplication, the frequency
// model and key inference for one operator-paced decoding session.
package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/e-frolov/shortwave/internal/freq"
	"github.com/e-frolov/shortwave/internal/infer"
	"github.com/e-frolov/shortwave/internal/message"
	"github.com/e-frolov/shortwave/internal/seenlog"
	"github.com/e-frolov/shortwave/internal/vocab"
)

// OutcomeKind tags the result of processing one message.
type OutcomeKind int

const (
	// Duplicate means the fingerprint was already recorded; no store
	// was touched.
	Duplicate OutcomeKind = iota
	// FrequencyUpdated means a clear message was counted.
	FrequencyUpdated
	// KeySuggestions means a cipher message produced ranked candidate
	// keys (possibly none).
	KeySuggestions
)

// Outcome is the result handed to the presentation layer. Ordinary
// conditions (duplicates, empty suggestion sets, absent fields) are
// variants here, never errors.
type Outcome struct {
	Kind        OutcomeKind
	Message     message.Message
	Counted     []string
	Suggestions []infer.Candidate
}

// Options tune the coordinator.
type Options struct {
	// GroupCount is the corroboration threshold for full candidates.
	// Zero means infer.DefaultGroupCount.
	GroupCount int
}

// Coordinator owns the processing sequence for one session. Stores are
// borrowed: the caller opens and closes them.
type Coordinator struct {
	dict   *vocab.Dictionary
	store  *freq.Store
	seen   *seenlog.Log
	logger *zap.Logger
	opts   Options
}

// New builds a coordinator around the given stores. logger may be nil.
func New(dict *vocab.Dictionary, store *freq.Store, seen *seenlog.Log, logger *zap.Logger, opts Options) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{dict: dict, store: store, seen: seen, logger: logger, opts: opts}
}

// Process runs one corrected message through the full sequence:
// parse, fingerprint, dedup gate, branch on classification, persist.
// The fingerprint is recorded only after the relevant store update has
// durably completed, so a recorded-seen message has always had its full
// effect applied. Errors are persistence failures only.
func (c *Coordinator) Process(ctx context.Context, correctedText string) (Outcome, error) {
	msg := message.Parse(correctedText, c.dict)

	if c.seen.Contains(msg.Fingerprint) {
		c.logger.Debug("duplicate message", zap.String("fingerprint", msg.Fingerprint))
		return Outcome{Kind: Duplicate, Message: msg}, nil
	}

	switch msg.Class {
	case message.Clear:
		if err := c.store.Update(ctx, msg); err != nil {
			return Outcome{}, fmt.Errorf("failed to update frequency model: %w", err)
		}
		if err := c.seen.Record(msg.Fingerprint); err != nil {
			return Outcome{}, fmt.Errorf("failed to record fingerprint: %w", err)
		}
		counted := countedWords(msg)
		c.logger.Info("clear message counted",
			zap.Int("words", len(counted)),
			zap.String("fingerprint", msg.Fingerprint))
		return Outcome{Kind: FrequencyUpdated, Message: msg, Counted: counted}, nil

	default:
		suggestions := infer.Infer(msg, c.store, c.opts.GroupCount)
		if err := c.seen.Record(msg.Fingerprint); err != nil {
			return Outcome{}, fmt.Errorf("failed to record fingerprint: %w", err)
		}
		c.logger.Info("cipher message inferred",
			zap.Int("candidates", len(suggestions)),
			zap.String("fingerprint", msg.Fingerprint))
		return Outcome{Kind: KeySuggestions, Message: msg, Suggestions: suggestions}, nil
	}
}

// ConfirmKey feeds an operator-confirmed decode back into the
// frequency model: the cipher message is decoded with the key and the
// resulting clear words are counted under the usual durability rules.
// The seen gate does not apply; confirmation is an explicit action on a
// message already processed once.
func (c *Coordinator) ConfirmKey(ctx context.Context, msg message.Message, key []int) (Outcome, error) {
	decoded := message.Message{
		Raw:         msg.Raw,
		Fingerprint: msg.Fingerprint,
		Class:       message.Clear,
	}
	for _, word := range msg.Body {
		clear, ok := infer.Apply(key, word)
		if !ok {
			// Length-incompatible words stay ciphered; counting them
			// would poison the clear-text model.
			continue
		}
		decoded.Body = append(decoded.Body, clear)
	}
	if msg.Sender.Present {
		decoded.Sender = decodeField(msg.Sender, key)
	}
	if msg.Receiver.Present {
		decoded.Receiver = decodeField(msg.Receiver, key)
	}

	if err := c.store.Update(ctx, decoded); err != nil {
		return Outcome{}, fmt.Errorf("failed to count confirmed decode: %w", err)
	}
	c.logger.Info("confirmed decode counted",
		zap.Int("words", len(decoded.Body)),
		zap.String("fingerprint", msg.Fingerprint))
	return Outcome{Kind: FrequencyUpdated, Message: decoded, Counted: countedWords(decoded)}, nil
}

func decodeField(field message.Optional, key []int) message.Optional {
	if clear, ok := infer.Apply(key, field.Word); ok {
		return message.Optional{Word: clear, Present: true}
	}
	return message.Optional{}
}

func countedWords(msg message.Message) []string {
	words := append([]string(nil), msg.Body...)
	if msg.Sender.Present {
		words = append(words, msg.Sender.Word)
	}
	if msg.Receiver.Present {
		words = append(words, msg.Receiver.Word)
	}
	return words
}
