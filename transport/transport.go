// Package transport implements the per-repository byte-transfer layer: a
// small peek/get/put/classify/close contract with schemes for local files,
// an in-memory "classpath" resource set, and HTTP, each driving a
// Listener through the started/progressed/terminal lifecycle.
package transport

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// ErrorKind classifies a transfer failure the way callers need to branch on:
// whether the remote simply doesn't have the resource, or something else
// went wrong.
type ErrorKind int

const (
	// NotFound means the remote repository has no such resource at all —
	// a 404, a missing file, a missing classpath entry.
	NotFound ErrorKind = iota
	// Other covers anything else: network failure, malformed response,
	// permission denied, a cancelled transfer.
	Other
)

// TransferCancelled is returned instead of a generic I/O error when a
// Listener aborts a transfer in progress. Callers must treat this
// as cancellation, not failure, per spec.md's transporter contract.
type TransferCancelled struct {
	Location string
}

func (e *TransferCancelled) Error() string {
	return "transfer of " + e.Location + " was cancelled by the listener"
}

// Listener is driven once per transfer: Started exactly once before any
// bytes move, Progressed zero or more times as bytes move, and exactly one
// of the above returning a non-nil error turns the transfer into a
// *TransferCancelled rather than a generic failure.
type Listener interface {
	// Started is called once offset and total are known. total is -1 when
	// the remote doesn't report a size up front.
	Started(offset, total int64) error
	// Progressed is called as each chunk is read or written.
	Progressed(chunk []byte) error
}

// NopListener satisfies Listener without observing anything.
type NopListener struct{}

func (NopListener) Started(offset, total int64) error { return nil }
func (NopListener) Progressed(chunk []byte) error      { return nil }

// GetTask describes a download: RemotePath identifies the resource within
// the repository's base URI, Dest receives the bytes, Offset requests a
// resume point (0 for a full download), and Listener (nil-safe — defaults
// to NopListener) observes progress.
type GetTask struct {
	RemotePath string
	Dest       io.WriterAt
	Offset     int64
	Listener   Listener
}

// PutTask describes an upload: Src supplies the bytes, RemotePath names the
// destination within the repository.
type PutTask struct {
	RemotePath string
	Src        io.ReadSeeker
	Size       int64
	Listener   Listener
}

func (t GetTask) listener() Listener {
	if t.Listener == nil {
		return NopListener{}
	}
	return t.Listener
}

func (t PutTask) listener() Listener {
	if t.Listener == nil {
		return NopListener{}
	}
	return t.Listener
}

// Transporter is the per-repository transfer contract (spec.md §4.6).
// Implementations must be safe for concurrent use by multiple goroutines
// until Close is called; after Close, every method must return an error.
type Transporter interface {
	// Peek probes existence of remotePath without transferring its body.
	Peek(ctx context.Context, remotePath string) error
	Get(ctx context.Context, task GetTask) error
	Put(ctx context.Context, task PutTask) error
	// Classify maps a transfer error (typically one this Transporter itself
	// returned) to NotFound or Other.
	Classify(err error) ErrorKind
	Close() error
}

// classified is a transport error tagged with its ErrorKind so Classify can
// recover it without re-deriving the classification from scratch.
type classified struct {
	kind ErrorKind
	err  error
}

func (c *classified) Error() string { return c.err.Error() }
func (c *classified) Unwrap() error { return c.err }

func wrapClassified(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &classified{kind: kind, err: err}
}

// classifyGeneric recovers the ErrorKind tagged by wrapClassified, falling
// back to Other for anything a Transporter didn't tag itself (including
// errors from an unrelated layer).
func classifyGeneric(err error) ErrorKind {
	var c *classified
	if errors.As(err, &c) {
		return c.kind
	}
	return Other
}
