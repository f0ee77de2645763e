package clock

import "time"

// Clock abstracts the ambient time source so workflow stamps can be fixed
// deterministically in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns a Clock backed by the wall clock (UTC).
func System() Clock { return systemClock{} }

// Fixed returns a Clock that always reports the given instant.
func Fixed(t time.Time) Clock { return fixedClock{t: t.UTC()} }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
