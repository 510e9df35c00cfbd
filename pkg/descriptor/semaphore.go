// Package descriptor implements the file-descriptor counting semaphore
// that bounds concurrent open files across workers (source: FileHandleManager).
package descriptor

// DefaultMax is the fixed maximum number of concurrently open file
// descriptors the semaphore permits.
const DefaultMax = 20

// Semaphore is a counting semaphore over a fixed number of permits.
type Semaphore struct {
	slots chan struct{}
}

// New creates a Semaphore with the given maximum permit count.
func New(max int) *Semaphore {
	if max <= 0 {
		max = DefaultMax
	}
	return &Semaphore{slots: make(chan struct{}, max)}
}

// Acquire blocks until a permit is available and returns a scoped Permit.
// The caller must call Permit.Release exactly once, typically via defer,
// on every exit path.
func (s *Semaphore) Acquire() *Permit {
	s.slots <- struct{}{}
	return &Permit{sem: s}
}

// Available returns the number of permits currently free.
func (s *Semaphore) Available() int {
	return cap(s.slots) - len(s.slots)
}

// Max returns the semaphore's configured maximum.
func (s *Semaphore) Max() int {
	return cap(s.slots)
}

// Permit is a single held slot of a Semaphore. Its zero value is not
// usable; obtain one via Semaphore.Acquire.
type Permit struct {
	sem      *Semaphore
	released bool
}

// Release returns the permit to the semaphore. Safe to call more than
// once; only the first call has an effect, which supports the
// move-assignment-style non-blocking release the source exposes.
func (p *Permit) Release() {
	if p == nil || p.released {
		return
	}
	p.released = true
	<-p.sem.slots
}
