//go:build !ringbufdebug

package ringbuf

// debug enables precondition assertions. Build with -tags ringbufdebug.
const debug = false
