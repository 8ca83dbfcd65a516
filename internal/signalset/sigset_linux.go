//go:build linux

package signalset

import "golang.org/x/sys/unix"

// addSignal sets signum's bit in set. Linux represents sigset_t as an
// array of 64-bit words (see unix.Sigset_t); the POSIX sigaddset
// algorithm is word = (signum-1)/64, bit = (signum-1)%64.
func addSignal(set *unix.Sigset_t, signum unix.Signal) {
	n := uint(signum) - 1
	set.Val[n/64] |= 1 << (n % 64)
}
