package service

import (
	"sync"

	"github.com/google/uuid"
)

// DoctorLocks serializes slot mutations per doctor within this process.
// Entries are reference counted and removed once unused.
type DoctorLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*doctorLock
}

type doctorLock struct {
	mu   sync.Mutex
	refs int
}

func NewDoctorLocks() *DoctorLocks {
	return &DoctorLocks{locks: make(map[uuid.UUID]*doctorLock)}
}

// Lock blocks until the doctor's lock is held and returns its release func.
func (l *DoctorLocks) Lock(doctorID uuid.UUID) func() {
	l.mu.Lock()
	dl, ok := l.locks[doctorID]
	if !ok {
		dl = &doctorLock{}
		l.locks[doctorID] = dl
	}
	dl.refs++
	l.mu.Unlock()

	dl.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			dl.mu.Unlock()

			l.mu.Lock()
			dl.refs--
			if dl.refs == 0 {
				delete(l.locks, doctorID)
			}
			l.mu.Unlock()
		})
	}
}

func (l *DoctorLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
