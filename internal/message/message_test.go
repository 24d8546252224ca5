package message

import (
	"testing"

	"github.com/e-frolov/shortwave/internal/vocab"
)

func testDict() *vocab.Dictionary {
	return vocab.New([]string{"ALPHA", "BETA", "HEAVY", "CARGO", "NORTH"})
}

func TestParseSenderAndReceiver(t *testing.T) {
	msg := Parse("=KHIVA HEAVY CARGO TARKHAN=", testDict())
	if !msg.Sender.Present || msg.Sender.Word != "KHIVA" {
		t.Fatalf("unexpected sender: %+v", msg.Sender)
	}
	if !msg.Receiver.Present || msg.Receiver.Word != "TARKHAN" {
		t.Fatalf("unexpected receiver: %+v", msg.Receiver)
	}
	if len(msg.Body) != 2 || msg.Body[0] != "HEAVY" || msg.Body[1] != "CARGO" {
		t.Fatalf("unexpected body: %v", msg.Body)
	}
	if msg.Class != Clear {
		t.Fatalf("expected clear classification, got %v", msg.Class)
	}
}

func TestParseMissingReceiver(t *testing.T) {
	msg := Parse("=ALPHA BETA GAMMA=DELTA", testDict())
	if msg.Receiver.Present {
		t.Fatalf("receiver should be absent, got %+v", msg.Receiver)
	}
	if !msg.Sender.Present || msg.Sender.Word != "ALPHA" {
		t.Fatalf("unexpected sender: %+v", msg.Sender)
	}
	if len(msg.Body) != 2 || msg.Body[0] != "BETA" || msg.Body[1] != "GAMMA=DELTA" {
		t.Fatalf("unexpected body: %v", msg.Body)
	}
}

func TestParseMalformedInput(t *testing.T) {
	cases := map[string]int{
		"":              0,
		"   \n\t ":      0,
		"= = =":         3,
		"?!@ #$%":       0,
		"one two three": 3,
	}
	for input, bodyLen := range cases {
		msg := Parse(input, testDict())
		if msg.Sender.Present || msg.Receiver.Present {
			t.Fatalf("input %q: fields should be absent", input)
		}
		if len(msg.Body) != bodyLen {
			t.Fatalf("input %q: expected %d body words, got %v", input, bodyLen, msg.Body)
		}
	}
}

func TestParseLowercaseAndPunctuation(t *testing.T) {
	msg := Parse("heavy, cargo!", testDict())
	if len(msg.Body) != 2 || msg.Body[0] != "HEAVY" || msg.Body[1] != "CARGO" {
		t.Fatalf("unexpected body: %v", msg.Body)
	}
}

func TestParsePreservesBodyOrder(t *testing.T) {
	msg := Parse("ZZ YYY X WWWW", testDict())
	want := []string{"ZZ", "YYY", "X", "WWWW"}
	for i, word := range want {
		if msg.Body[i] != word {
			t.Fatalf("body order not preserved: %v", msg.Body)
		}
	}
}

func TestClassifyThreshold(t *testing.T) {
	dict := testDict()
	cases := []struct {
		body []string
		want Classification
	}{
		{[]string{"ALPHA", "QQQQQ", "WWWWW", "EEEEE"}, Cipher},
		{[]string{"ALPHA", "BETA", "QQQQQ", "WWWWW"}, Clear},
		{[]string{"1944", "QQQQQ", "WWWWW"}, Clear},
		{[]string{"QQQQQ", "WWWWW"}, Cipher},
		{nil, Cipher},
	}
	for _, tc := range cases {
		if got := Classify(tc.body, dict); got != tc.want {
			t.Fatalf("Classify(%v) = %v, want %v", tc.body, got, tc.want)
		}
	}
}

func TestClassifyNilDictionary(t *testing.T) {
	if got := Classify([]string{"ALPHA"}, nil); got != Cipher {
		t.Fatalf("nil dictionary should classify words as cipher, got %v", got)
	}
	if got := Classify([]string{"1944"}, nil); got != Clear {
		t.Fatalf("digit groups count as clear even without a dictionary, got %v", got)
	}
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("=KHIVA HEAVY CARGO TARKHAN=")
	b := Fingerprint("=KHIVA HEAVY CARGO TARKHAN=")
	if a != b {
		t.Fatalf("fingerprint is not deterministic: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == Fingerprint("=KHIVA HEAVY CARGO TARKHAN") {
		t.Fatalf("different text must produce different fingerprints")
	}
}
