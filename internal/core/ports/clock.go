package ports

import "time"

// Clock is the trusted wall clock.
type Clock interface {
	Now() time.Time
}
