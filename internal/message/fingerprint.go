package message

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// fingerprintKey is the BLAKE3 domain key for message fingerprints.
// It is a fixed constant; changing it invalidates every recorded
// fingerprint. The bytes are the ASCII domain name zero-padded to 32,
// which keeps the key readable in hex dumps without weakening the hash.
var fingerprintKey = [32]byte{
	's', 'h', 'o', 'r', 't', 'w', 'a', 'v', 'e', '.',
	'f', 'i', 'n', 'g', 'e', 'r', 'p', 'r', 'i', 'n', 't',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Fingerprint derives the stable identity of a message from its exact
// corrected text.
func Fingerprint(correctedText string) string {
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		// NewKeyed only fails for a wrong key length, which the
		// fixed-size array rules out.
		panic("message: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(correctedText))
	return hex.EncodeToString(hasher.Sum(nil))
}
