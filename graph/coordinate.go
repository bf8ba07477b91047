// Package graph holds the data model shared by the collector and conflict
// resolver: artifact coordinates, dependencies, and the node arena that
// represents a (possibly cyclic) dependency graph.
package graph

import (
	"fmt"
	"regexp"
	"strings"
)

// Coordinate is the 5-tuple that identifies a concrete artifact.
type Coordinate struct {
	GroupID    string
	ArtifactID string
	Extension  string
	Classifier string
	Version    string
}

// NewCoordinate fills in the default extension ("jar") expected throughout
// the engine when one isn't supplied.
func NewCoordinate(groupID, artifactID, version string) Coordinate {
	return Coordinate{GroupID: groupID, ArtifactID: artifactID, Extension: "jar", Version: version}
}

// String renders the coordinate in g:a:e:c:v form, omitting the extension
// and classifier when they hold their defaults.
func (c Coordinate) String() string {
	ext := c.Extension
	if ext == "" {
		ext = "jar"
	}
	if c.Classifier == "" && ext == "jar" {
		return fmt.Sprintf("%s:%s:%s", c.GroupID, c.ArtifactID, c.Version)
	}
	if c.Classifier == "" {
		return fmt.Sprintf("%s:%s:%s:%s", c.GroupID, c.ArtifactID, ext, c.Version)
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s", c.GroupID, c.ArtifactID, ext, c.Classifier, c.Version)
}

var snapshotTimestamp = regexp.MustCompile(`^(.+)-(\d{8}\.\d{6})-(\d+)$`)

// BaseVersion collapses a timestamped snapshot version
// ("1.0-20110329.221805-4") to its base form ("1.0-SNAPSHOT"). Non-snapshot
// versions are returned unchanged. Path construction in the local
// repository manager uses BaseVersion; resolution keeps the literal
// Version.
func (c Coordinate) BaseVersion() string {
	return BaseVersion(c.Version)
}

// BaseVersion applies the same collapsing rule as Coordinate.BaseVersion to
// a bare version string.
func BaseVersion(v string) string {
	if m := snapshotTimestamp.FindStringSubmatch(v); m != nil {
		return m[1] + "-SNAPSHOT"
	}
	return v
}

// IsSnapshot reports whether v is a snapshot version, either the literal
// "-SNAPSHOT" suffix or a resolved timestamped form.
func IsSnapshot(v string) bool {
	return strings.HasSuffix(v, "-SNAPSHOT") || snapshotTimestamp.MatchString(v)
}

// GAKey is the (groupId, artifactId) pair used to key metadata requests and
// exclusion matching.
type GAKey struct {
	GroupID    string
	ArtifactID string
}

// ConflictKey is the (groupId, artifactId, classifier, extension) key that
// groups occurrences into a single conflict group.
type ConflictKey struct {
	GroupID    string
	ArtifactID string
	Classifier string
	Extension  string
}

// ConflictKeyOf derives the conflict-group key for a coordinate.
func ConflictKeyOf(c Coordinate) ConflictKey {
	ext := c.Extension
	if ext == "" {
		ext = "jar"
	}
	return ConflictKey{GroupID: c.GroupID, ArtifactID: c.ArtifactID, Classifier: c.Classifier, Extension: ext}
}

// Matches reports whether an exclusion pattern key (which may use "*" as a
// wildcard for either field) matches a GAKey.
func (k GAKey) Matches(pattern GAKey) bool {
	return matchField(k.GroupID, pattern.GroupID) && matchField(k.ArtifactID, pattern.ArtifactID)
}

func matchField(actual, pattern string) bool {
	return pattern == "*" || pattern == actual
}
