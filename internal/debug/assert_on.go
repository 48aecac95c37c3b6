//go:build assert

package debug

// Assert panics with msg if cond is false.
//
// msg must be a string, func() string or fmt.Stringer.
func Assert(cond bool, msg interface{}) {
	if !cond {
		panic(getStringValue(msg))
	}
}

// Enabled reports whether assertions are compiled in.
const Enabled = true
