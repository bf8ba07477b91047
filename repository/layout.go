// Package repository implements the local repository manager (installed vs
// cached artifact layout, tracking files) and the remote Maven2-style
// layout used to map coordinates to relative URIs, alongside their checksum
// and signature side files.
package repository

import (
	"fmt"
	"strings"

	"github.com/golang/aetherresolve/graph"
)

// ChecksumAlgorithm names a digest algorithm a layout advertises a checksum
// side file for.
type ChecksumAlgorithm string

const (
	SHA1   ChecksumAlgorithm = "SHA-1"
	MD5    ChecksumAlgorithm = "MD5"
	SHA256 ChecksumAlgorithm = "SHA-256"
	SHA512 ChecksumAlgorithm = "SHA-512"
)

// checksumSuffixes maps each algorithm to the side-file suffix its factory
// produces.
var checksumSuffixes = map[ChecksumAlgorithm]string{
	SHA1:   ".sha1",
	MD5:    ".md5",
	SHA256: ".sha256",
	SHA512: ".sha512",
}

// Suffix returns the side-file extension this algorithm is published under.
func (a ChecksumAlgorithm) Suffix() string {
	if s, ok := checksumSuffixes[a]; ok {
		return s
	}
	return "." + strings.ToLower(string(a))
}

// ChecksumLocation pairs a digest algorithm with the relative URI its side
// file is published at, alongside the primary artifact.
type ChecksumLocation struct {
	Algorithm   ChecksumAlgorithm
	RelativeURI string
}

// SignatureAlgorithms are the detached-signature suffixes a Maven2 layout
// advertises support for, beyond checksums.
var SignatureAlgorithms = []string{"asc"}

// DefaultChecksumAlgorithms is the set of checksum side files computed and
// published for every primary artifact by this layout.
var DefaultChecksumAlgorithms = []ChecksumAlgorithm{SHA1, MD5}

// Layout maps artifact and metadata coordinates to relative URIs/paths
// following the Maven2 convention: <groupId with dots as slashes>/<artifactId>/
// <baseVersion>/<artifactId>-<version>[-<classifier>].<extension>. The
// literal (non-base) version is used in the file name so timestamped
// snapshots coexist in one version directory.
type Layout struct {
	// Split additionally segments by installed/cached and releases/snapshots;
	// see Split's doc comment.
	Split bool
}

// ArtifactPath returns the relative path (forward-slash separated,
// regardless of host OS) for coord's primary artifact file.
func (l Layout) ArtifactPath(coord graph.Coordinate) string {
	dir := l.versionDir(coord)
	return dir + "/" + fileName(coord)
}

// versionDir returns the directory holding every file for coord's
// (groupId, artifactId, baseVersion).
func (l Layout) versionDir(coord graph.Coordinate) string {
	group := strings.ReplaceAll(coord.GroupID, ".", "/")
	return fmt.Sprintf("%s/%s/%s", group, coord.ArtifactID, coord.BaseVersion())
}

func fileName(coord graph.Coordinate) string {
	ext := coord.Extension
	if ext == "" {
		ext = "jar"
	}
	if coord.Classifier == "" {
		return fmt.Sprintf("%s-%s.%s", coord.ArtifactID, coord.Version, ext)
	}
	return fmt.Sprintf("%s-%s-%s.%s", coord.ArtifactID, coord.Version, coord.Classifier, ext)
}

// ChecksumLocations returns the checksum side-file locations a layout
// advertises for coord's primary artifact.
func (l Layout) ChecksumLocations(coord graph.Coordinate) []ChecksumLocation {
	base := l.ArtifactPath(coord)
	out := make([]ChecksumLocation, 0, len(DefaultChecksumAlgorithms))
	for _, a := range DefaultChecksumAlgorithms {
		out = append(out, ChecksumLocation{Algorithm: a, RelativeURI: base + a.Suffix()})
	}
	return out
}

// MetadataPath returns the relative path to maven-metadata.xml for the
// (groupId, artifactId) pair, or for one specific baseVersion directory when
// baseVersion is non-empty.
func (l Layout) MetadataPath(ga graph.GAKey, baseVersion string) string {
	group := strings.ReplaceAll(ga.GroupID, ".", "/")
	if baseVersion == "" {
		return fmt.Sprintf("%s/%s/maven-metadata.xml", group, ga.ArtifactID)
	}
	return fmt.Sprintf("%s/%s/%s/maven-metadata.xml", group, ga.ArtifactID, baseVersion)
}

// isSnapshotVersion reports whether v should be treated as a snapshot for
// split-mode path construction purposes. Delegates to graph.IsSnapshot so
// the two packages share one definition of "snapshot".
func isSnapshotVersion(v string) bool {
	return graph.IsSnapshot(v)
}
