// Copyright © 2026 Enrik Berkhan.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package buf_test

import (
	"bytes"
	"testing"

	"github.com/enrikb/spitfire/buf"
)

func TestPreDataAndCopyOut(t *testing.T) {
	var backing [8]byte
	r := buf.BeginReassemblyArray(backing[:])
	if !r.Empty() {
		t.Fatal("fresh reassembly not empty")
	}

	fill := r.PreData(8)
	if len(fill) != 8 {
		t.Fatalf("PreData gave %d bytes, want 8", len(fill))
	}
	copy(fill, "abcdefgh")

	out := make([]byte, 3)
	dst := out
	if n := r.CopyOut(&dst); n != 3 {
		t.Fatalf("CopyOut = %d, want 3", n)
	}
	if string(out) != "abc" {
		t.Fatalf("CopyOut produced %q", out)
	}
	if r.ValidLen() != 5 {
		t.Fatalf("ValidLen = %d after partial consume, want 5", r.ValidLen())
	}

	rest := make([]byte, 16)
	dst = rest
	if n := r.CopyOut(&dst); n != 5 {
		t.Fatalf("CopyOut = %d, want 5", n)
	}
	if string(rest[:5]) != "defgh" {
		t.Fatalf("CopyOut produced %q", rest[:5])
	}
	if !r.Empty() {
		t.Fatal("reassembly not empty after full consume")
	}
}

func TestPreDataClampsToCapacity(t *testing.T) {
	r := buf.BeginReassembly(4)
	if got := len(r.PreData(10)); got != 4 {
		t.Fatalf("PreData past capacity gave %d bytes, want 4", got)
	}
	if got := len(r.PreData(1)); got != 0 {
		t.Fatalf("PreData on full buffer gave %d bytes, want 0", got)
	}
}

func TestXOROut(t *testing.T) {
	r := buf.BeginReassembly(8)
	copy(r.PreData(4), []byte{0xF0, 0x0F, 0xAA, 0x55})

	src := []byte{0xFF, 0xFF, 0x00, 0xF0, 0x77}
	dst := make([]byte, 5)
	s, d := src, dst
	if n := r.XOROut(&d, &s); n != 4 {
		t.Fatalf("XOROut = %d, want 4 (limited by buffered bytes)", n)
	}
	if !bytes.Equal(dst[:4], []byte{0x0F, 0xF0, 0xAA, 0xA5}) {
		t.Fatalf("XOROut produced % x", dst[:4])
	}
	if len(s) != 1 || len(d) != 1 {
		t.Fatal("XOROut did not advance the caller slices")
	}
	if !r.Empty() {
		t.Fatal("XOROut did not consume the buffered bytes")
	}
}

func TestConsumeTooMuchPanics(t *testing.T) {
	r := buf.BeginReassembly(4)
	r.PreData(2)
	defer func() {
		if recover() == nil {
			t.Error("no panic when over-consuming")
		}
	}()
	r.Consume(3)
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3}
	buf.Zero(b)
	if !bytes.Equal(b, []byte{0, 0, 0}) {
		t.Fatalf("Zero left % x", b)
	}
}
