// Package secure provides memory-safe storage for credential material.
//
// Secrets fetched from a vault (the Looker client secret, warehouse
// passwords) live in process memory between fetch and use. SecureBuffer
// wraps memguard.Enclave so that material is encrypted at rest in memory
// and protected from swapping via mlock.
package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// SecureBuffer holds sensitive bytes in an encrypted memguard enclave.
// The zero value is not usable; create instances with NewSecureBuffer
// or NewSecureString.
type SecureBuffer struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	// destroyed allows idempotent Destroy() calls and prevents use after destroy
	destroyed bool
}

// NewSecureBuffer creates a protected buffer from secret bytes.
// The data is copied into a protected memory region; the caller should
// zero its own copy afterwards. Empty input yields a buffer with no
// enclave behind it; memguard panics on zero-length allocations, and a
// store can legitimately hold an empty value.
//
// If mlock is unavailable (e.g. RLIMIT_MEMLOCK), memguard degrades to
// standard allocation, which is acceptable for this library.
func NewSecureBuffer(data []byte) *SecureBuffer {
	if len(data) == 0 {
		return &SecureBuffer{}
	}
	return &SecureBuffer{
		enclave: memguard.NewEnclave(data),
	}
}

// NewSecureString creates a protected buffer from a secret string.
func NewSecureString(s string) *SecureBuffer {
	return NewSecureBuffer([]byte(s))
}

// Open decrypts and returns the protected data in a locked buffer.
// The caller MUST call Destroy() on the returned LockedBuffer when done
// to wipe the plaintext from memory. A nil buffer with a nil error
// means there is nothing to serve: the value was empty or the buffer
// was destroyed.
func (s *SecureBuffer) Open() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed || s.enclave == nil {
		return nil, nil
	}

	return s.enclave.Open()
}

// OpenString decrypts the buffer and returns the plaintext as a string.
// The locked buffer backing the string is destroyed before returning, so
// the returned string is an ordinary Go string; use it immediately and
// let it go out of scope. Intended for handing credentials to APIs that
// take strings (HTTP form values, DSN builders). Empty or destroyed
// buffers return "".
func (s *SecureBuffer) OpenString() (string, error) {
	locked, err := s.Open()
	if err != nil {
		return "", err
	}
	if locked == nil {
		return "", nil
	}
	defer locked.Destroy()
	return string(locked.Bytes()), nil
}

// Destroy marks this SecureBuffer as destroyed and prevents further use.
// Idempotent. After Destroy(), Open() returns nil and OpenString "".
//
// For complete cleanup of all memguard data at process exit, call
// memguard.Purge() in a defer in main().
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}

	s.enclave = nil
	s.destroyed = true
}
