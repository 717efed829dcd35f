package snapshot

import (
	"sync/atomic"

	"github.com/golang/glog"
)

// CompareAndUpdate runs the CAS retry loop over p.
//
// It loads the current value, computes fn(prev) and installs the result if p
// still holds prev, retrying with the fresh value otherwise. fn must be pure:
// under contention it runs more than once. An error from fn aborts the update
// and is returned unchanged. A nil current value yields ErrStoreClosed.
func CompareAndUpdate[T any](p *atomic.Pointer[T], fn func(prev *T) (*T, error)) (prev, next *T, err error) {
	for attempt := 0; ; attempt++ {
		prev = p.Load()
		if prev == nil {
			return nil, nil, ErrStoreClosed
		}
		next, err = fn(prev)
		if err != nil {
			return nil, nil, err
		}
		if p.CompareAndSwap(prev, next) {
			return prev, next, nil
		}
		if glog.V(2) {
			glog.Infof("snapshot: CAS conflict, retry %d", attempt+1)
		}
	}
}

// Store holds the current snapshot of one table.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a store holding s, or an empty snapshot when s is nil.
func NewStore(s *Snapshot) *Store {
	if s == nil {
		s = Empty()
	}
	st := &Store{}
	st.current.Store(s)
	return st
}

// Load returns the current snapshot, or ErrStoreClosed after Release.
func (st *Store) Load() (*Snapshot, error) {
	s := st.current.Load()
	if s == nil {
		return nil, ErrStoreClosed
	}
	return s, nil
}

// Update applies fn through CompareAndUpdate. The installed snapshot is
// stamped with the replaced snapshot's version plus one.
func (st *Store) Update(fn func(prev *Snapshot) (*Snapshot, error)) (prev, next *Snapshot, err error) {
	return CompareAndUpdate(&st.current, func(prev *Snapshot) (*Snapshot, error) {
		next, err := fn(prev)
		if err != nil {
			return nil, err
		}
		return next.withVersion(prev.version + 1), nil
	})
}

// Release drops the current snapshot. Later loads and updates fail.
func (st *Store) Release() {
	st.current.Store(nil)
}
