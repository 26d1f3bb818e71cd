// Package inflight implements the in-flight registry: the mapping from
// pushing-key to the task currently awaiting its transport callback.
package inflight

import (
	"sync"

	"github.com/regpush/pushcore/internal/model"
)

// Registry tracks at most one task per pushing-key. Callback removal
// compares against the exact *model.Task pointer it was handed at dispatch
// time, via sync.Map.CompareAndDelete. If a fresher task has since
// overwritten the slot, the compare fails and the newer task's entry is left
// untouched, eliminating a "removed but still present" race that an
// unconditional delete would otherwise introduce.
type Registry struct {
	tasks sync.Map // model.PushingKey -> *model.Task
}

// New creates an empty Registry.
func New() *Registry { return &Registry{} }

// Get returns the task currently in flight for key, if any.
func (r *Registry) Get(key model.PushingKey) (*model.Task, bool) {
	v, ok := r.tasks.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*model.Task), true
}

// Put installs task as the in-flight occupant of key, unconditionally
// overwriting any straggler.
func (r *Registry) Put(key model.PushingKey, task *model.Task) {
	r.tasks.Store(key, task)
}

// Remove unconditionally evicts whatever occupies key, used when a prior
// task is declared stuck or when dispatch itself fails before a transport
// call was ever made.
func (r *Registry) Remove(key model.PushingKey) bool {
	_, existed := r.tasks.LoadAndDelete(key)
	return existed
}

// CompareAndRemove removes key only if it currently holds expected, and
// reports whether it did. This is the callback-safe removal that avoids
// evicting a fresher task that has since taken the slot.
func (r *Registry) CompareAndRemove(key model.PushingKey, expected *model.Task) bool {
	return r.tasks.CompareAndDelete(key, expected)
}

// Len reports the number of tasks currently in flight (used by the admin
// stats endpoint).
func (r *Registry) Len() int {
	n := 0
	r.tasks.Range(func(_, _ any) bool { n++; return true })
	return n
}
