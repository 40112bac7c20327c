package providers

import "time"

const (
	backoffBase = 3 * time.Second
	backoffCap  = 15 * time.Second
)

// backoff is a bounded exponential delay for re-attempting a transport
// handshake: base delay, doubling per failure, capped, reset on success.
// Stateless request/response polls do not use it; they simply ride the
// fixed poll interval.
type backoff struct {
	next time.Duration
	at   time.Time
}

func newBackoff() *backoff {
	return &backoff{next: backoffBase}
}

// ready reports whether enough time has passed since the last failure to
// attempt again.
func (b *backoff) ready(now time.Time) bool {
	return !now.Before(b.at)
}

// failure records a failed attempt and schedules the next one.
func (b *backoff) failure(now time.Time) {
	b.at = now.Add(b.next)
	b.next *= 2
	if b.next > backoffCap {
		b.next = backoffCap
	}
}

// success resets the schedule so the next failure starts from the base
// delay again.
func (b *backoff) success() {
	b.next = backoffBase
	b.at = time.Time{}
}
