package ringbuf

import "fmt"

// assertf panics when a caller broke a documented precondition. The calls
// are compiled out unless the ringbufdebug tag is set.
func assertf(ok bool, format string, args ...any) {
	if debug && !ok {
		panic(fmt.Sprintf("ringbuf: "+format, args...))
	}
}
