package infer

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/e-frolov/shortwave/internal/freq"
	"github.com/e-frolov/shortwave/internal/message"
)

func seededStore(t *testing.T, bodyCounts map[string]int) *freq.Store {
	t.Helper()
	store, err := freq.Open(filepath.Join(t.TempDir(), "freq.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if cerr := store.Close(); cerr != nil {
			t.Errorf("failed to close store: %v", cerr)
		}
	})
	ctx := context.Background()
	for word, count := range bodyCounts {
		for i := 0; i < count; i++ {
			msg := message.Message{Body: []string{word}, Class: message.Clear}
			if err := store.Update(ctx, msg); err != nil {
				t.Fatalf("Update failed: %v", err)
			}
		}
	}
	return store
}

func cipherMessage(body ...string) message.Message {
	return message.Message{Body: body, Class: message.Cipher}
}

func TestInferConstantShiftCorroborated(t *testing.T) {
	// "CNRJC" is "ALPHA" and "PQTVJ" is "NORTH", both under a constant
	// shift of 2.
	store := seededStore(t, map[string]int{"ALPHA": 5, "NORTH": 3})

	candidates := Infer(cipherMessage("CNRJC", "PQTVJ"), store, 2)
	if len(candidates) == 0 {
		t.Fatalf("expected candidates")
	}

	top := candidates[0]
	wantKey := []int{2, 2, 2, 2, 2}
	if !reflect.DeepEqual(top.Key, wantKey) {
		t.Fatalf("top key = %v, want %v", top.Key, wantKey)
	}
	if top.Weight != 8 {
		t.Fatalf("top weight = %d, want 8 (5+3)", top.Weight)
	}
	if top.Complete != Full {
		t.Fatalf("two corroborating words should be full, got %v", top.Complete)
	}
	if !reflect.DeepEqual(top.Words, []string{"CNRJC", "PQTVJ"}) {
		t.Fatalf("top words = %v", top.Words)
	}
	for _, cand := range candidates[1:] {
		if cand.Complete != Partial {
			t.Fatalf("single-word candidate marked full: %+v", cand)
		}
		if cand.Weight > top.Weight {
			t.Fatalf("candidates out of order: %+v above %+v", cand, top)
		}
	}
}

func TestInferBelowGroupCountIsPartial(t *testing.T) {
	store := seededStore(t, map[string]int{"ALPHA": 5, "NORTH": 3})

	candidates := Infer(cipherMessage("CNRJC"), store, 2)
	if len(candidates) == 0 {
		t.Fatalf("expected candidates")
	}
	for _, cand := range candidates {
		if cand.Complete != Partial {
			t.Fatalf("one matchable word can never be full: %+v", cand)
		}
	}
}

func TestInferNoLengthCompatibleWords(t *testing.T) {
	store := seededStore(t, map[string]int{"ALPHA": 5})

	candidates := Infer(cipherMessage("QQQQQQQ"), store, 2)
	if len(candidates) != 0 {
		t.Fatalf("expected empty result, got %v", candidates)
	}
}

func TestInferWeightsByFrequency(t *testing.T) {
	// Both stored words decode "CNRJC" under different keys; the more
	// frequent word must rank first.
	store := seededStore(t, map[string]int{"ALPHA": 5, "NORTH": 9})

	candidates := Infer(cipherMessage("CNRJC"), store, 2)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %v", candidates)
	}
	if candidates[0].Weight != 9 || candidates[1].Weight != 5 {
		t.Fatalf("weights out of order: %+v", candidates)
	}
	decoded, ok := Apply(candidates[1].Key, "CNRJC")
	if !ok || decoded != "ALPHA" {
		t.Fatalf("Apply on the ALPHA-derived key = %q, %v", decoded, ok)
	}
}

func TestInferRepeatedCipherWordNotIndependent(t *testing.T) {
	store := seededStore(t, map[string]int{"ALPHA": 5})

	// The same cipher word twice is one contributor, not two.
	candidates := Infer(cipherMessage("CNRJC", "CNRJC"), store, 2)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %v", candidates)
	}
	if candidates[0].Complete != Partial {
		t.Fatalf("repeated word must not promote to full")
	}
	if candidates[0].Weight != 5 {
		t.Fatalf("repeated word must not double the weight, got %d", candidates[0].Weight)
	}
}

func TestInferBodyAndSenderSumWeightAsOneContributor(t *testing.T) {
	store, err := freq.Open(filepath.Join(t.TempDir(), "freq.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			t.Errorf("failed to close store: %v", cerr)
		}
	}()
	seed := message.Message{
		Sender: message.Optional{Word: "ALPHA", Present: true},
		Body:   []string{"ALPHA"},
		Class:  message.Clear,
	}
	if err := store.Update(context.Background(), seed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// "CNRJC" appears as both the sender and a body word: the vote in
	// each namespace adds its count (body 1 + sender 1), but it stays a
	// single corroborator.
	msg := message.Message{
		Sender: message.Optional{Word: "CNRJC", Present: true},
		Body:   []string{"CNRJC"},
		Class:  message.Cipher,
	}
	candidates := Infer(msg, store, 2)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %v", candidates)
	}
	if candidates[0].Weight != 2 {
		t.Fatalf("weight = %d, want 2 (one per namespace)", candidates[0].Weight)
	}
	if candidates[0].Complete != Partial {
		t.Fatalf("one cipher string must not promote to full")
	}
	if len(candidates[0].Words) != 1 {
		t.Fatalf("contributor list = %v, want one word", candidates[0].Words)
	}
}

func TestInferUsesSenderNamespace(t *testing.T) {
	store, err := freq.Open(filepath.Join(t.TempDir(), "freq.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			t.Errorf("failed to close store: %v", cerr)
		}
	}()
	seed := message.Message{
		Sender: message.Optional{Word: "KHIVA", Present: true},
		Body:   []string{"HEAVY"},
		Class:  message.Clear,
	}
	if err := store.Update(context.Background(), seed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// "MJKXC" is "KHIVA" shifted by 2; only the sender namespace holds
	// a length-5 name.
	msg := message.Message{
		Sender: message.Optional{Word: "MJKXC", Present: true},
		Body:   []string{"QQQ"},
		Class:  message.Cipher,
	}
	candidates := Infer(msg, store, 2)
	found := false
	for _, cand := range candidates {
		if reflect.DeepEqual(cand.Key, []int{2, 2, 2, 2, 2}) {
			found = true
			if decoded, ok := Apply(cand.Key, "MJKXC"); !ok || decoded != "KHIVA" {
				t.Fatalf("Apply = %q, %v", decoded, ok)
			}
		}
	}
	if !found {
		t.Fatalf("sender-derived key missing from %v", candidates)
	}
}

func TestInferDeterministicTieBreak(t *testing.T) {
	store := seededStore(t, map[string]int{"AB": 1, "BA": 1})

	first := Infer(cipherMessage("CC"), store, 2)
	if len(first) != 2 {
		t.Fatalf("expected 2 candidates, got %v", first)
	}
	if !lessKey(first[0].Key, first[1].Key) {
		t.Fatalf("tied candidates not in lexicographic order: %v", first)
	}
	for i := 0; i < 10; i++ {
		again := Infer(cipherMessage("CC"), store, 2)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("ordering is not reproducible: %v vs %v", first, again)
		}
	}
}

func TestApplyLengthMismatch(t *testing.T) {
	if _, ok := Apply([]int{1, 2}, "ABC"); ok {
		t.Fatalf("length mismatch must fail")
	}
	if _, ok := Apply([]int{1, 2, 3}, "AbC"); ok {
		t.Fatalf("invalid symbol must fail")
	}
}
