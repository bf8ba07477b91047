// Package event implements the listener plumbing shared across the engine:
// a typed dispatcher generalized from the teacher's trace.go call-site
// pattern (traceCheckPkgs, traceStartBacktrack, ...), each guarded by a
// "tracing enabled" check before formatting a message. Here there is no
// per-type registration or guard: Fire hands every event to every
// subscribed listener (none at all when nothing subscribed), fanning out
// rather than calling one tracer.
package event

import (
	"fmt"

	"github.com/golang/aetherresolve/internal/logging"
)

// Type names the kind of event being dispatched, e.g. "collect.descriptor",
// "connector.download", "resolve.conflict".
type Type string

// Event is the payload handed to every listener. RepositoryID is empty for
// events that aren't scoped to one repository (e.g. conflict resolution).
type Event struct {
	Type         Type
	RepositoryID string
	Data         interface{}
}

// Listener observes dispatched events. A non-nil return does not stop
// dispatch to other listeners; see Dispatcher.Fire.
type Listener func(Event) error

// Dispatcher fans an Event out to every registered Listener. Per the
// decision recorded in DESIGN.md, a listener panic or returned error is
// never dropped silently: Fire recovers the panic, logs it with the
// event's repository id and type, and continues to the next listener
// rather than aborting the whole dispatch or propagating the panic up
// through unrelated call stacks.
type Dispatcher struct {
	listeners []Listener
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers l to receive every future Fire call.
func (d *Dispatcher) Subscribe(l Listener) {
	d.listeners = append(d.listeners, l)
}

// Fire dispatches ev to every registered listener in subscription order.
func (d *Dispatcher) Fire(ev Event) {
	for _, l := range d.listeners {
		d.invoke(l, ev)
	}
}

func (d *Dispatcher) invoke(l Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.WithContext(ev.RepositoryID, string(ev.Type)).Warnf("listener panicked: %v", r)
		}
	}()
	if err := l(ev); err != nil {
		logging.WithContext(ev.RepositoryID, string(ev.Type)).Warnf("listener returned error: %v", err)
	}
}

// TransferEvent carries transporter-level detail (spec.md §4.6's
// started/progressed/terminal contract) for the "connector.transfer" event
// type, once a byte count is known.
type TransferEvent struct {
	RemotePath string
	Offset     int64
	Total      int64
	Err        error
}

func (e TransferEvent) String() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: failed after offset %d: %v", e.RemotePath, e.Offset, e.Err)
	}
	return fmt.Sprintf("%s: %d/%d bytes", e.RemotePath, e.Offset, e.Total)
}
