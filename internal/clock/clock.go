// Package clock centralises time access so tests can freeze or advance the
// current time deterministically.
package clock

import "time"

// NowFunc returns the current time. Tests may replace it.
var NowFunc = time.Now

// Now delegates to NowFunc.
func Now() time.Time { return NowFunc() }
