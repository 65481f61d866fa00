// Copyright © 2026 Enrik Berkhan.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package dragon

import (
	"testing"
)

// The state counter is one 64-bit quantity: each round consumes one value,
// and the high half carries when the low half wraps.
func TestCounterAdvancesPerRound(t *testing.T) {
	c, err := NewCipher(make([]byte, 16), make([]byte, 16))
	if err != nil {
		t.Fatal(err)
	}

	before := c.ctr
	out := make([]byte, 16*BlockSize)
	c.KeystreamBlocks(out, 16)
	if c.ctr != before+16 {
		t.Errorf("counter advanced by %d, want 16", c.ctr-before)
	}

	c.KeystreamBlocks(out, 16)
	c.KeystreamBlocks(out, 16)
	if c.ctr != before+48 {
		t.Errorf("counter advanced by %d after 48 blocks, want 48", c.ctr-before)
	}
}

func TestCounterCarriesAcrossHalves(t *testing.T) {
	c, err := NewCipher(make([]byte, 16), make([]byte, 16))
	if err != nil {
		t.Fatal(err)
	}

	c.ctr = 0x00000000FFFFFFF8
	out := make([]byte, 16*BlockSize)
	c.KeystreamBlocks(out, 16)
	if c.ctr != 0x0000000100000008 {
		t.Errorf("counter = %#x after wrapping the low half, want 0x100000008", c.ctr)
	}
}

// Key setup must leave an exact snapshot behind, and nothing after key
// setup may touch it.
func TestInitStateIsImmutableAfterKeySetup(t *testing.T) {
	c, err := NewCipher(make([]byte, 32), nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.initState != c.word {
		t.Fatal("snapshot differs from NLFSR right after key setup")
	}
	if !c.fullRekey {
		t.Fatal("fullRekey not set by key setup")
	}

	saved := c.initState
	if err := c.SetIV(make([]byte, 32)); err != nil {
		t.Fatal(err)
	}
	if c.fullRekey {
		t.Fatal("fullRekey not cleared by IV setup")
	}

	out := make([]byte, 64*BlockSize)
	c.KeystreamBlocks(out, 64)
	if err := c.SetIV(make([]byte, 32)); err != nil {
		t.Fatal(err)
	}
	if c.initState != saved {
		t.Error("snapshot mutated after IV setup and keystream generation")
	}
}

// After every IV setup the rotation offset is a multiple of the register
// size, so the block engine may address the register physically.
func TestOffsetAlignedAfterIVSetup(t *testing.T) {
	c, err := NewCipher(make([]byte, 16), nil)
	if err != nil {
		t.Fatal(err)
	}
	iv := make([]byte, 16)
	for i := 0; i < 4; i++ {
		iv[0] = byte(i)
		if err := c.SetIV(iv); err != nil {
			t.Fatal(err)
		}
		if c.off&(nlfsrWords-1) != 0 {
			t.Fatalf("offset %d not word-aligned after IV setup %d", c.off, i)
		}
	}
}
