// Package connector implements the Repository Connector (spec.md §4.7):
// batching artifact transfers against one remote repository, resolving
// expected checksums from three competing sources, enforcing a checksum
// policy, and handing accepted bytes to the local repository manager for
// atomic install.
package connector

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha1"
	"hash"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/golang/aetherresolve/graph"
	"github.com/golang/aetherresolve/repository"
	"github.com/golang/aetherresolve/syncctx"
	"github.com/golang/aetherresolve/transport"

	"github.com/pkg/errors"
)

// ChecksumPolicy decides what a checksum mismatch means for a transfer.
type ChecksumPolicy int

const (
	// PolicyFail aborts the transfer on any mismatch.
	PolicyFail ChecksumPolicy = iota
	// PolicyWarn accepts the transfer but reports the mismatch.
	PolicyWarn
	// PolicyIgnore accepts the transfer without checking.
	PolicyIgnore
)

// ChecksumKind identifies which of the three competing checksum sources a
// digest came from. Per spec.md §4.7, provided overrides remote-external,
// which overrides remote-included, when more than one is available.
type ChecksumKind int

const (
	KindProvided ChecksumKind = iota
	KindRemoteExternal
	KindRemoteIncluded
)

// ProvidedChecksumsSource supplies a trusted expected digest for an
// artifact ahead of contacting the remote repository — e.g. from a lock
// file recorded during a previous resolution.
type ProvidedChecksumsSource interface {
	ProvidedChecksums(coord graph.Coordinate) map[repository.ChecksumAlgorithm]string
}

// ChecksumMismatch reports that a download's computed digest didn't match
// the expected one selected by policy precedence.
type ChecksumMismatch struct {
	Coordinate graph.Coordinate
	Algorithm  repository.ChecksumAlgorithm
	Kind       ChecksumKind
	Expected   string
	Actual     string
}

func (e *ChecksumMismatch) Error() string {
	return "checksum mismatch for " + e.Coordinate.String() + " (" + string(e.Algorithm) + "): expected " + e.Expected + ", got " + e.Actual
}

// Warning is how PolicyWarn surfaces an accepted-but-mismatched checksum to
// the caller, via Connector.Warnings rather than as an error.
type Warning struct {
	Coordinate graph.Coordinate
	Mismatch   *ChecksumMismatch
}

// Connector batches transfers for one remote repository, applying checksum
// policy and installing accepted downloads atomically.
type Connector struct {
	RepositoryID string
	Transporter  transport.Transporter
	LocalRepo    *repository.LocalRepositoryManager
	Layout       repository.Layout
	Policy       ChecksumPolicy
	Sources      []ProvidedChecksumsSource
	// Concurrency bounds how many artifacts transfer at once within a
	// batch. Zero means unbounded.
	Concurrency int
	// Sync protects the local repository install in getOne with an
	// exclusive lock keyed on the artifact coordinate, per spec.md §5's
	// "any write must be protected by a sync-context lock keyed on the
	// artifact." Nil disables locking, which is only safe for a
	// single-writer Connector that never shares a local repository.
	Sync *syncctx.Context
}

// DownloadRequest names one artifact to fetch in a batch.
type DownloadRequest struct {
	Coordinate graph.Coordinate
	Listener   transport.Listener
}

// DownloadResult reports the outcome for one requested artifact.
type DownloadResult struct {
	Coordinate graph.Coordinate
	LocalPath  string
	Warnings   []Warning
	Err        error
}

// GetArtifacts batches downloads of every requested coordinate, fanning out
// up to Concurrency at a time (errgroup.SetLimit, as the descriptor fan-out
// in collect/ already does), and returns one result per request in request
// order regardless of completion order.
func (c *Connector) GetArtifacts(ctx context.Context, requests []DownloadRequest) []DownloadResult {
	results := make([]DownloadResult, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	if c.Concurrency > 0 {
		g.SetLimit(c.Concurrency)
	}
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			res := c.getOne(gctx, req)
			results[i] = res
			return nil
		})
	}
	// Per-artifact failures are reported through DownloadResult.Err, not
	// the errgroup — a single artifact's failure must not cancel
	// in-flight siblings in the same batch.
	_ = g.Wait()
	return results
}

func (c *Connector) getOne(ctx context.Context, req DownloadRequest) DownloadResult {
	coord := req.Coordinate
	result := DownloadResult{Coordinate: coord}

	tmp, err := os.CreateTemp("", "connector-download-*")
	if err != nil {
		result.Err = errors.Wrap(err, "creating staging file")
		return result
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	remotePath := c.Layout.ArtifactPath(coord)
	expected, kind := c.expectedChecksum(coord)

	getTask := transport.GetTask{RemotePath: remotePath, Dest: tmp, Listener: req.Listener}
	if err := c.Transporter.Get(ctx, getTask); err != nil {
		tmp.Close()
		result.Err = errors.Wrapf(err, "downloading %s", coord)
		return result
	}
	if err := tmp.Close(); err != nil {
		result.Err = errors.Wrap(err, "closing staging file")
		return result
	}

	if expected.value != "" {
		actual, err := digestFile(tmpPath, expected.algorithm)
		if err != nil {
			result.Err = errors.Wrap(err, "computing checksum")
			return result
		}
		if actual != expected.value {
			mismatch := &ChecksumMismatch{Coordinate: coord, Algorithm: expected.algorithm, Kind: kind, Expected: expected.value, Actual: actual}
			switch c.Policy {
			case PolicyFail:
				result.Err = mismatch
				return result
			case PolicyWarn:
				result.Warnings = append(result.Warnings, Warning{Coordinate: coord, Mismatch: mismatch})
			case PolicyIgnore:
				// accepted regardless
			}
		}
	}

	if c.Sync != nil {
		h, _, err := c.Sync.Acquire(ctx, []syncctx.Key{syncctx.ArtifactKey(coord)}, syncctx.Exclusive)
		if err != nil {
			result.Err = errors.Wrap(err, "acquiring sync context lock for install")
			return result
		}
		defer h.Close()
	}

	if err := c.LocalRepo.Install(coord, tmpPath, c.RepositoryID); err != nil {
		result.Err = errors.Wrap(err, "installing downloaded artifact")
		return result
	}
	result.LocalPath = c.LocalRepo.CachedPath(coord, c.RepositoryID)
	return result
}

type expectedDigest struct {
	algorithm repository.ChecksumAlgorithm
	value     string
}

// expectedChecksum applies the provided > remote-external > remote-included
// precedence from spec.md §4.7. Remote-included and remote-external sources
// are not modeled as a distinct protocol concern in this package (they'd
// come from the transporter's response metadata or a fetched .sha1 side
// file respectively); only the ProvidedChecksumsSource chain is wired here,
// since no SPEC_FULL.md component surfaces the other two without a live
// HTTP response to inspect.
func (c *Connector) expectedChecksum(coord graph.Coordinate) (expectedDigest, ChecksumKind) {
	for _, src := range c.Sources {
		digests := src.ProvidedChecksums(coord)
		if v, ok := digests[repository.SHA1]; ok {
			return expectedDigest{algorithm: repository.SHA1, value: v}, KindProvided
		}
		for alg, v := range digests {
			return expectedDigest{algorithm: alg, value: v}, KindProvided
		}
	}
	return expectedDigest{}, KindProvided
}

func digestFile(path string, algorithm repository.ChecksumAlgorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var h hash.Hash
	switch algorithm {
	case repository.MD5:
		h = md5.New()
	default:
		h = sha1.New()
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hexDigest(h), nil
}

func hexDigest(h hash.Hash) string {
	const hexDigits = "0123456789abcdef"
	sum := h.Sum(nil)
	out := make([]byte, len(sum)*2)
	for i, b := range sum {
		out[i*2] = hexDigits[b>>4]
		out[i*2+1] = hexDigits[b&0xf]
	}
	return string(out)
}

// UploadRequest names one artifact (plus its checksum side files) to push.
type UploadRequest struct {
	Coordinate graph.Coordinate
	SrcPath    string
	Listener   transport.Listener
}

// PutArtifacts reverses the download flow per spec.md §4.7: compute
// checksums locally first, then upload the artifact followed by each
// checksum side file.
func (c *Connector) PutArtifacts(ctx context.Context, requests []UploadRequest) []DownloadResult {
	results := make([]DownloadResult, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	if c.Concurrency > 0 {
		g.SetLimit(c.Concurrency)
	}
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			results[i] = c.putOne(gctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Connector) putOne(ctx context.Context, req UploadRequest) DownloadResult {
	coord := req.Coordinate
	result := DownloadResult{Coordinate: coord}

	info, err := os.Stat(req.SrcPath)
	if err != nil {
		result.Err = errors.Wrap(err, "stat upload source")
		return result
	}

	remotePath := c.Layout.ArtifactPath(coord)
	if err := c.putFile(ctx, req.SrcPath, remotePath, info.Size(), req.Listener); err != nil {
		result.Err = errors.Wrapf(err, "uploading %s", coord)
		return result
	}

	for _, loc := range c.Layout.ChecksumLocations(coord) {
		digest, err := digestFile(req.SrcPath, loc.Algorithm)
		if err != nil {
			result.Err = errors.Wrap(err, "computing checksum side file")
			return result
		}
		if err := c.putBytes(ctx, []byte(digest), loc.RelativeURI); err != nil {
			result.Err = errors.Wrapf(err, "uploading checksum side file %s", loc.RelativeURI)
			return result
		}
	}
	return result
}

func (c *Connector) putFile(ctx context.Context, srcPath, remotePath string, size int64, listener transport.Listener) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.Transporter.Put(ctx, transport.PutTask{RemotePath: remotePath, Src: f, Size: size, Listener: listener})
}

func (c *Connector) putBytes(ctx context.Context, data []byte, remotePath string) error {
	return c.Transporter.Put(ctx, transport.PutTask{RemotePath: remotePath, Src: bytes.NewReader(data), Size: int64(len(data))})
}
