// Copyright © 2026 Enrik Berkhan.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

// Package dragon implements the Dragon word-based stream cipher, an eSTREAM
// Phase 3 candidate designed at the QUT Information Security Institute.
// Dragon keeps a 1024-bit nonlinear feedback shift register, keyed with a
// 128-bit or 256-bit key and an IV of the same size, and emits keystream in
// 64-bit blocks.  This package exposes both the block-oriented engine and an
// arbitrary-length byte interface satisfying crypto/cipher.Stream.
//
// The cipher provides confidentiality only.  Key management, IV uniqueness,
// and authentication are the calling protocol's responsibility.
package dragon

import (
	"encoding/binary"
	"strconv"

	"github.com/enrikb/spitfire/buf"
)

const (
	// nlfsrWords is the length of the NLFSR in 32-bit words.
	nlfsrWords = 32

	// mixingStages is the number of feedback iterations run during IV
	// setup.  Fixed design parameter, not configurable.
	mixingStages = 16

	// BlockSize is the keystream block size in bytes.
	BlockSize = 8

	// BlockAlign is the granularity of the block engine: block counts
	// passed to KeystreamBlocks and ProcessBlocks must be positive
	// multiples of this.
	BlockAlign = 16

	// bufferBlocks is the lookahead depth of the byte interface.
	bufferBlocks = 16
	bufferBytes  = bufferBlocks * BlockSize
)

// Initial values for the two halves of the state counter: the string
// "Dragon" packed big-end first.
const (
	counterSeedHi = 0x00004472
	counterSeedLo = 0x61676F6E
)

// KeySizeError reports an unsupported key size, in bits.
type KeySizeError int

func (k KeySizeError) Error() string {
	return "dragon: invalid key size " + strconv.Itoa(int(k)) + " bits"
}

// IVSizeError reports an IV whose size, in bits, does not match the key
// size the cipher was set up with.
type IVSizeError int

func (i IVSizeError) Error() string {
	return "dragon: invalid IV size " + strconv.Itoa(int(i)) + " bits"
}

// A Cipher holds the state of a single Dragon keystream.  It is not safe
// for concurrent use, and must not be copied after first use.  Independent
// instances share nothing and may run concurrently.
type Cipher struct {
	// The NLFSR proper: a circular buffer of 32 words.  Logical position
	// i lives at physical index (off+i) mod 32.
	word [nlfsrWords]uint32
	off  uint32

	// Snapshot of the NLFSR immediately after key setup, restored at the
	// start of every IV setup except the first.
	initState [nlfsrWords]uint32
	fullRekey bool

	keySize int

	// The 64-bit state counter.  The reference implementation carries it
	// as two u32 halves; here it is one genuine uint64.  The low half is
	// folded into the f lane (incrementing once per round) and the high
	// half into the e lane.
	ctr uint64

	// Lookahead cache for the byte-granular interface.
	ksbuf [bufferBytes]byte
	ks    buf.Reassembly
}

// NewCipher creates a Cipher keyed with key (16 or 32 bytes).  If iv is
// non-nil it must be the same length as key, and the cipher is ready for
// keystream output on return.  If iv is nil, SetIV must be called before
// any keystream is requested.
func NewCipher(key, iv []byte) (*Cipher, error) {
	c := new(Cipher)
	c.ks = buf.BeginReassemblyArray(c.ksbuf[:])

	if err := c.setKey(key); err != nil {
		return nil, err
	}
	if iv != nil {
		if err := c.SetIV(iv); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// setKey lays the key words out into the NLFSR and snapshots the result.
// The IV-dependent positions are left for SetIV to fill.
func (x *Cipher) setKey(key []byte) error {
	x.off = 0
	x.fullRekey = true
	x.ks.Reset()

	switch len(key) {
	case 16:
		// Layout: k | k'^iv' | iv | k^iv' | k' | k^iv | iv' | k'^iv,
		// where k' swaps the key halves.  Each key word lands in three
		// slots; the iv contributions are deferred.
		for i := 0; i < 4; i++ {
			w := binary.LittleEndian.Uint32(key[i*4:])
			x.word[0+i], x.word[12+i], x.word[20+i] = w, w, w
		}
		for i := 0; i < 2; i++ {
			w := binary.LittleEndian.Uint32(key[8+i*4:])
			x.word[4+i], x.word[16+i], x.word[28+i] = w, w, w

			w = binary.LittleEndian.Uint32(key[i*4:])
			x.word[6+i], x.word[18+i], x.word[30+i] = w, w, w
		}
		x.keySize = 128

	case 32:
		// Layout: k | k^iv | complement(k^iv) | iv.
		for i := 0; i < 8; i++ {
			w := binary.LittleEndian.Uint32(key[i*4:])
			x.word[0+i], x.word[8+i], x.word[16+i] = w, w, w
		}
		x.keySize = 256

	default:
		return KeySizeError(len(key) * 8)
	}

	x.initState = x.word
	return nil
}

// at reads the NLFSR word at logical position i.
func (x *Cipher) at(i uint32) uint32 {
	return x.word[(x.off+i)&(nlfsrWords-1)]
}

// setAt writes the NLFSR word at logical position i.
func (x *Cipher) setAt(i uint32, w uint32) {
	x.word[(x.off+i)&(nlfsrWords-1)] = w
}

// update is the full round transform (the F function) used during IV
// mixing: XOR feedback, addition, the G and H s-box layers, and a second
// addition and XOR pass.
func update(a, b, c, d, e, f uint32) (uint32, uint32, uint32, uint32, uint32, uint32) {
	b ^= a
	d ^= c
	f ^= e
	c += b
	e += d
	a += f
	f ^= g2(c)
	b ^= g3(e)
	d ^= g1(a)
	e ^= h3(f)
	a ^= h1(b)
	c ^= h2(d)
	b += e
	d += a
	f += c
	c ^= b
	e ^= d
	a ^= f
	return a, b, c, d, e, f
}

// SetIV starts a fresh keystream under the current key.  It may be called
// any number of times; every call after the first restores the NLFSR to
// its post-key-setup state first, so streams under distinct IVs are fully
// independent.  The IV must be the same length as the key.
func (x *Cipher) SetIV(iv []byte) error {
	if len(iv)*8 != x.keySize {
		return IVSizeError(len(iv) * 8)
	}

	if !x.fullRekey {
		x.word = x.initState
	}

	if x.keySize == 128 {
		// Fill in the iv and iv' contributions of the 128-bit layout.
		// Positions {0,1,8,9} of each quarter that carry key material
		// only were written during key setup.
		for i := 0; i < 4; i++ {
			w := binary.LittleEndian.Uint32(iv[i*4:])
			x.word[8+i] = w
			x.word[20+i] ^= w
			x.word[28+i] ^= w
		}
		for i := 0; i < 2; i++ {
			w := binary.LittleEndian.Uint32(iv[8+i*4:])
			x.word[4+i] ^= w
			x.word[12+i] ^= w
			x.word[24+i] = w

			w = binary.LittleEndian.Uint32(iv[i*4:])
			x.word[6+i] ^= w
			x.word[14+i] ^= w
			x.word[26+i] = w
		}
	} else {
		for i := 0; i < 8; i++ {
			w := binary.LittleEndian.Uint32(iv[i*4:])
			x.word[8+i] ^= w
			x.word[16+i] ^= ^w
			x.word[24+i] = w
		}
	}

	// Diffuse key and IV through the register.  Each iteration taps
	// logical positions {0,24,28} per lane, runs the full round
	// transform, rotates the register by 28 words, and folds the result
	// back into the front against positions 20..23.
	e := uint32(counterSeedHi)
	f := uint32(counterSeedLo)
	for i := 0; i < mixingStages; i++ {
		a := x.at(0) ^ x.at(24) ^ x.at(28)
		b := x.at(1) ^ x.at(25) ^ x.at(29)
		c := x.at(2) ^ x.at(26) ^ x.at(30)
		d := x.at(3) ^ x.at(27) ^ x.at(31)

		a, b, c, d, e, f = update(a, b, c, d, e, f)

		x.off += nlfsrWords - 4

		x.setAt(0, a^x.at(20))
		x.setAt(1, b^x.at(21))
		x.setAt(2, c^x.at(22))
		x.setAt(3, d^x.at(23))
	}
	x.ctr = uint64(e)<<32 | uint64(f)

	x.fullRekey = false
	x.ks.Reset()
	return nil
}

// KeySize returns the configured key size in bits (128 or 256).
func (x *Cipher) KeySize() int {
	return x.keySize
}

// checkBlocks enforces the block engine's caller contract.
func checkBlocks(blocks int, bufLens ...int) {
	if blocks <= 0 || blocks%BlockAlign != 0 {
		panic("dragon: block count must be a positive multiple of 16")
	}
	for _, n := range bufLens {
		if n < blocks*BlockSize {
			panic("dragon: buffer shorter than requested block count")
		}
	}
}

// KeystreamBlocks writes 8*blocks bytes of raw keystream into out.
// blocks must be a positive multiple of 16, and out must have room for
// it; violating either is a programming error and panics.  SetIV must
// have been called first.
func (x *Cipher) KeystreamBlocks(out []byte, blocks int) {
	checkBlocks(blocks, len(out))
	x.crank(out, nil, blocks)
}

// ProcessBlocks XORs 8*blocks bytes of src with keystream into dst.
// Encryption and decryption are the same operation.  The block-count and
// length contract matches KeystreamBlocks.
func (x *Cipher) ProcessBlocks(dst, src []byte, blocks int) {
	checkBlocks(blocks, len(dst), len(src))
	x.crank(dst, src, blocks)
}

// crank runs the block engine for a multiple of 16 blocks.  Each round
// opens a six-word window onto the register, folds the counter halves
// into the e and f lanes, runs the addition and s-box layers of the round
// transform, feeds two new words back just past the window, and emits two
// keystream words.  Sixteen rounds walk the window backwards around the
// whole register, so the rotation offset never moves here.
//
// If src is nil the keystream is written to dst as-is; otherwise dst
// receives src XOR keystream.
func (x *Cipher) crank(dst, src []byte, blocks int) {
	for blocks > 0 {
		p := uint32(0)
		for r := 0; r < 16; r++ {
			a := x.word[p]
			c := x.word[(p+16)&31]
			e := x.word[(p+30)&31] ^ uint32(x.ctr>>32)
			b := x.word[(p+9)&31] ^ a
			d := x.word[(p+19)&31] ^ c
			f := x.word[(p+31)&31] ^ e ^ uint32(x.ctr)
			x.ctr++

			c += b
			e += d
			a += f
			f ^= g2(c)
			b ^= g3(e)
			d ^= g1(a)
			e ^= h3(f)
			a ^= h1(b)
			c ^= h2(d)

			fb := b + e
			x.word[(p+30)&31] = fb
			x.word[(p+31)&31] = c ^ fb

			k0 := a ^ (f + c)
			k1 := e ^ (d + a)
			if src != nil {
				k0 ^= binary.LittleEndian.Uint32(src)
				k1 ^= binary.LittleEndian.Uint32(src[4:])
				src = src[8:]
			}
			binary.LittleEndian.PutUint32(dst, k0)
			binary.LittleEndian.PutUint32(dst[4:], k1)
			dst = dst[8:]

			p = (p + 30) & 31
		}
		blocks -= BlockAlign
	}
}
