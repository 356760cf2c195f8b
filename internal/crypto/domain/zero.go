// Package domain defines the cryptographic primitives protecting device-token
// secret material at rest.
package domain

// Zero overwrites the byte slice with zeros. Call on plaintext key material as
// soon as it is no longer needed.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
