// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"encoding/hex"
	"hash"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// hasherPool is a package-level pool of reusable unkeyed BLAKE2b-256 hash
// instances used for message body checksums.
var hasherPool = sync.Pool{
	New: func() any {
		h, err := blake2b.New256(nil)
		if err != nil {
			// unreachable: New256 only fails for keys longer than 64 bytes
			panic(err)
		}
		return h
	},
}

// AcquireHasher returns a reset BLAKE2b-256 hasher from the pool.
// Callers must hand it back with ReleaseHasher once the digest is read.
//
// Example usage:
//
//	h := utils.AcquireHasher()
//	defer utils.ReleaseHasher(h)
//	io.Copy(io.MultiWriter(dst, h), body)
//	sum := hex.EncodeToString(h.Sum(nil))
func AcquireHasher() hash.Hash {
	h := hasherPool.Get().(hash.Hash)
	h.Reset()
	return h
}

// ReleaseHasher resets h and returns it to the pool.
func ReleaseHasher(h hash.Hash) {
	h.Reset()
	hasherPool.Put(h)
}

// Checksum computes the BLAKE2b-256 digest of data using a pooled hasher and
// returns it hex-encoded.
//
// Example usage:
//
//	sum := utils.Checksum([]byte("Subject: hi\r\n\r\nbody"))
func Checksum(data []byte) string {
	h := AcquireHasher()
	defer ReleaseHasher(h)

	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
