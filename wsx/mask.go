package wsx

import "crypto/rand"

// randomMaskKey generates a fresh 4-byte client-to-server mask key
// (spec §4.10). crypto/rand is standard library by necessity: no example
// in the corpus wires a third-party CSPRNG, and RFC 6455 §5.3 requires a
// cryptographically unpredictable mask.
func randomMaskKey() [4]byte {
	var key [4]byte
	rand.Read(key[:])
	return key
}
