// Copyright © 2026 Enrik Berkhan.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

/*
Package buf contains a few imperative buffer-handling utility routines for
serving block-granular output at byte granularity: a fixed-capacity prefix
buffer that is refilled in bulk and consumed sequentially.
*/
package buf

// A Reassembly is a prefix of a dedicated array.  New bytes are appended
// between len() and cap(), advancing len(); consumption removes bytes from
// the front.
type Reassembly []byte

// BeginReassembly returns a fresh, empty reassembly with the given capacity.
func BeginReassembly(size int) Reassembly {
	return make([]byte, 0, size)
}

// BeginReassemblyArray returns an empty reassembly backed by the given array.
func BeginReassemblyArray(array []byte) Reassembly {
	return array[:0]
}

// PreData extends the valid region by up to n bytes and returns the newly
// valid slice for the caller to fill in place.
func (reassembly *Reassembly) PreData(n int) (fill []byte) {
	avail := cap(*reassembly) - len(*reassembly)
	if avail < n {
		n = avail
	}

	newLen := len(*reassembly) + n
	fill = (*reassembly)[len(*reassembly):newLen]
	*reassembly = (*reassembly)[:newLen]
	return
}

// Data returns the slice of valid bytes in reassembly.  This is the same as
// slicing the reassembly.
func (reassembly Reassembly) Data() []byte {
	return reassembly
}

// ValidLen returns the number of valid bytes in reassembly.
func (reassembly Reassembly) ValidLen() int {
	return len(reassembly)
}

// Empty returns true iff reassembly contains no data.
func (reassembly Reassembly) Empty() bool {
	return len(reassembly) == 0
}

// Consume alters reassembly so that all but the first n bytes are copied to
// the front and become the new valid region.
func (reassembly *Reassembly) Consume(n int) {
	switch {
	case n > len(*reassembly):
		panic("buf: consuming more bytes than are available in reassembly buffer")
	case n == len(*reassembly):
		*reassembly = (*reassembly)[:0]
	case n < len(*reassembly):
		remaining := copy(*reassembly, (*reassembly)[n:len(*reassembly)])
		*reassembly = (*reassembly)[:remaining]
	}
}

// CopyOut copies bytes from the front of reassembly into *out, consumes
// them, advances *out past the copied bytes, and returns the count.
func (reassembly *Reassembly) CopyOut(out *[]byte) int {
	n := copy(*out, *reassembly)
	reassembly.Consume(n)
	*out = (*out)[n:]
	return n
}

// XOROut XORs bytes from the front of reassembly against *src into *dst,
// consumes them, advances both *dst and *src, and returns the count.  The
// count is limited by whichever of the three regions is shortest.
func (reassembly *Reassembly) XOROut(dst, src *[]byte) int {
	n := len(*reassembly)
	if len(*src) < n {
		n = len(*src)
	}
	if len(*dst) < n {
		n = len(*dst)
	}

	d, s, r := *dst, *src, *reassembly
	for i := 0; i < n; i++ {
		d[i] = s[i] ^ r[i]
	}

	reassembly.Consume(n)
	*dst = (*dst)[n:]
	*src = (*src)[n:]
	return n
}

// Reset alters reassembly to contain no valid bytes, reusing the same
// underlying slice.
func (reassembly *Reassembly) Reset() {
	*reassembly = (*reassembly)[:0]
}

// Zero sets all bytes of a slice to zero.
func Zero(slice []byte) {
	for i := range slice {
		slice[i] = 0
	}
}
