package encryption

import (
	"bytes"
	"fmt"

	"chordbook/internal/store"
)

// testHeader makes sealed output differ from plaintext while staying
// deterministic and reversible.
var testHeader = []byte("CBENC\x00\x00\x00")

// TestKeys needs no key material and unlocks to a TestSealer.
type TestKeys struct{}

var _ Keys = TestKeys{}

func (TestKeys) Setup(string) error { return nil }
func (TestKeys) IsConfigured() bool { return true }

func (TestKeys) Unlock(string) (store.Sealer, error) { return TestSealer{}, nil }

// TestSealer prepends a fixed 8-byte header instead of encrypting.
type TestSealer struct{}

func (TestSealer) Seal(plaintext []byte) ([]byte, error) {
	return append(append([]byte{}, testHeader...), plaintext...), nil
}

func (TestSealer) Open(ciphertext []byte) ([]byte, error) {
	rest, ok := bytes.CutPrefix(ciphertext, testHeader)
	if !ok {
		return nil, fmt.Errorf("invalid test encryption header")
	}
	return append([]byte{}, rest...), nil
}
