package connector

import (
	"context"
	"errors"

	"github.com/golang/aetherresolve/transport"
)

// FallbackChain tries a download against each Connector in order, per
// spec.md §7's retry policy: a NotFound classification (the remote simply
// doesn't have it) skips straight to the next repository with no retry; any
// other classification gets exactly one retry against the same repository
// before falling through; a checksum mismatch never retries, since trying
// the same repository again would just fetch the same bad bytes; a
// *transport.TransferCancelled is returned at once, with no retry and no
// further repository tried — grounded
// on the teacher's try-then-fall-through retry shape, generalized from
// "next VCS remote" to "next configured repository".
type FallbackChain struct {
	Connectors []*Connector
}

// GetArtifact fetches one coordinate against each configured repository in
// order, returning the first successful result, or the last attempt's
// result if every repository failed.
func (f *FallbackChain) GetArtifact(ctx context.Context, req DownloadRequest) DownloadResult {
	var last DownloadResult
	for _, c := range f.Connectors {
		last = f.tryOne(ctx, c, req)
		var cancelled *transport.TransferCancelled
		if last.Err == nil || errors.As(last.Err, &cancelled) {
			return last
		}
	}
	return last
}

// tryOne runs the single-repository retry policy: one attempt, classified,
// and at most one retry when the classification calls for it.
func (f *FallbackChain) tryOne(ctx context.Context, c *Connector, req DownloadRequest) DownloadResult {
	result := c.GetArtifacts(ctx, []DownloadRequest{req})[0]
	if result.Err == nil {
		return result
	}
	if _, mismatch := result.Err.(*ChecksumMismatch); mismatch {
		return result
	}
	var cancelled *transport.TransferCancelled
	if errors.As(result.Err, &cancelled) {
		return result
	}
	if c.Transporter.Classify(result.Err) == transport.NotFound {
		return result
	}
	// Other: exactly one retry against the same repository.
	return c.GetArtifacts(ctx, []DownloadRequest{req})[0]
}
