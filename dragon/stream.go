// Copyright © 2026 Enrik Berkhan.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package dragon

import (
	"crypto/cipher"
)

// The byte-granular interface sits on top of the block engine: whenever the
// lookahead cache runs dry it is refilled with sixteen blocks at once, then
// served sequentially.  The cache never changes the block engine's counter
// semantics, only the granularity at which output is consumed.

var _ cipher.Stream = (*Cipher)(nil)

// refill regenerates the lookahead cache.  Only called when it is empty.
func (x *Cipher) refill() {
	x.ks.Reset()
	fill := x.ks.PreData(bufferBytes)
	x.crank(fill, nil, bufferBlocks)
}

// KeystreamBytes fills out with keystream.  Unlike KeystreamBlocks it has
// no alignment requirement; leftover keystream is kept for the next call.
func (x *Cipher) KeystreamBytes(out []byte) {
	for len(out) > 0 {
		if x.ks.Empty() {
			x.refill()
		}
		x.ks.CopyOut(&out)
	}
}

// XORKeyStream XORs src with keystream into dst, encrypting or decrypting
// it.  dst and src must be the same length (dst may be longer), and may
// overlap entirely or not at all.  This implements crypto/cipher.Stream.
func (x *Cipher) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("dragon: output buffer shorter than input")
	}
	dst = dst[:len(src)]

	for len(src) > 0 {
		if x.ks.Empty() {
			x.refill()
		}
		x.ks.XOROut(&dst, &src)
	}
}

// NewStream is a convenience constructor returning the cipher as a bare
// cipher.Stream.  Both key and iv are required.
func NewStream(key, iv []byte) (cipher.Stream, error) {
	if iv == nil {
		return nil, IVSizeError(0)
	}
	return NewCipher(key, iv)
}
