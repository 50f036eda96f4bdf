package store

import (
	"errors"
)

// ErrLockModeConflict is returned when exclusive and shared read locking
// would be active at the same time.
var ErrLockModeConflict = errors.New("exclusive and shared read locking are mutually exclusive")

// ErrLockNotHeld is returned when ending a read-lock mode that was not begun.
var ErrLockNotHeld = errors.New("read locking was not begun")

// BeginExclusiveReadLocking makes subsequent reads lock rows for update.
// Calls nest; each must be paired with EndExclusiveReadLocking.
func (s *Store) BeginExclusiveReadLocking() error {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	if s.shared > 0 {
		return ErrLockModeConflict
	}
	s.exclusive++
	return nil
}

// EndExclusiveReadLocking undoes one BeginExclusiveReadLocking.
func (s *Store) EndExclusiveReadLocking() error {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	if s.exclusive == 0 {
		return ErrLockNotHeld
	}
	s.exclusive--
	return nil
}

// BeginSharedReadLocking makes subsequent reads take shared row locks.
// Calls nest; each must be paired with EndSharedReadLocking.
func (s *Store) BeginSharedReadLocking() error {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	if s.exclusive > 0 {
		return ErrLockModeConflict
	}
	s.shared++
	return nil
}

// EndSharedReadLocking undoes one BeginSharedReadLocking.
func (s *Store) EndSharedReadLocking() error {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	if s.shared == 0 {
		return ErrLockNotHeld
	}
	s.shared--
	return nil
}

// IsExclusiveReadLocking implements Conn.
func (s *Store) IsExclusiveReadLocking() bool {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	return s.exclusive > 0
}

// IsSharedReadLocking implements Conn.
func (s *Store) IsSharedReadLocking() bool {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	return s.shared > 0
}
