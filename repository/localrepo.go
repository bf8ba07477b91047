package repository

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/termie/go-shutil"

	"github.com/golang/aetherresolve/graph"
)

// LocalRepositoryManager owns a base directory holding both artifacts this
// process installed itself and artifacts cached from remote repositories.
// Grounded on the teacher's renameWithFallback/CopyFile atomic-install shape
// (fs.go) generalized to go-shutil's CopyFile, plus an explicit os.Rename for
// the atomic publish step go-shutil itself doesn't provide.
type LocalRepositoryManager struct {
	Base   string
	Layout Layout
}

// NewLocalRepositoryManager constructs a manager rooted at base, in either
// flat or split ("installed/cached" x "releases/snapshots") layout mode.
func NewLocalRepositoryManager(base string, split bool) *LocalRepositoryManager {
	return &LocalRepositoryManager{Base: base, Layout: Layout{Split: split}}
}

// pathFor returns the absolute on-disk path for coord, honoring split mode:
// installed/<releases|snapshots>/... for artifacts this process produced,
// cached/<repositoryID>/<releases|snapshots>/... for ones fetched remotely.
func (m *LocalRepositoryManager) pathFor(coord graph.Coordinate, installed bool, repositoryID string) string {
	rel := m.Layout.ArtifactPath(coord)
	if !m.Layout.Split {
		return filepath.Join(m.Base, filepath.FromSlash(rel))
	}
	branch := "releases"
	if isSnapshotVersion(coord.Version) {
		branch = "snapshots"
	}
	if installed {
		return filepath.Join(m.Base, "installed", branch, filepath.FromSlash(rel))
	}
	return filepath.Join(m.Base, "cached", repositoryID, branch, filepath.FromSlash(rel))
}

// InstalledPath returns where coord lives if this process installed it
// directly (as opposed to caching a remote download).
func (m *LocalRepositoryManager) InstalledPath(coord graph.Coordinate) string {
	return m.pathFor(coord, true, "")
}

// CachedPath returns where coord lives if it was cached from repositoryID.
func (m *LocalRepositoryManager) CachedPath(coord graph.Coordinate, repositoryID string) string {
	return m.pathFor(coord, false, repositoryID)
}

// Find looks for coord first among this process's installed artifacts,
// then among files cached from any of trustedRepositories (in order),
// verifying each cached hit against that version directory's tracking
// file. It returns the absolute path and true on a trusted hit.
func (m *LocalRepositoryManager) Find(coord graph.Coordinate, trustedRepositories []string) (string, bool) {
	if p := m.InstalledPath(coord); fileExists(p) {
		// In flat mode the installed and cached paths coincide: a file the
		// tracking file attributes to a repository was cached, not installed.
		tf, err := LoadTrackingFile(filepath.Dir(p))
		if m.Layout.Split || (err == nil && len(tf.sources[filepath.Base(p)]) == 0) {
			return p, true
		}
	}
	for _, repoID := range trustedRepositories {
		p := m.CachedPath(coord, repoID)
		if !fileExists(p) {
			continue
		}
		tf, err := LoadTrackingFile(filepath.Dir(p))
		if err != nil {
			continue
		}
		if tf.TrustedBy(filepath.Base(p), trustedRepositories) {
			return p, true
		}
	}
	return "", false
}

// Install atomically copies srcPath into coord's installed location, or into
// its location cached from repositoryID when repositoryID is non-empty, and
// then records repositoryID in that version directory's tracking file. "Atomic" means: copy to a temp file in the destination directory,
// then os.Rename into place — a crash mid-copy never leaves a partial file
// at the final path.
func (m *LocalRepositoryManager) Install(coord graph.Coordinate, srcPath, repositoryID string) error {
	dest := m.InstalledPath(coord)
	if repositoryID != "" {
		dest = m.CachedPath(coord, repositoryID)
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating version directory")
	}

	tmp := dest + ".tmp"
	if err := shutil.CopyFile(srcPath, tmp, true); err != nil {
		return errors.Wrap(err, "copying artifact into local repository")
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "publishing artifact atomically")
	}

	if repositoryID != "" {
		tf, err := LoadTrackingFile(dir)
		if err != nil {
			return errors.Wrap(err, "loading tracking file")
		}
		tf.Record(filepath.Base(dest), repositoryID)
		if err := tf.Save(); err != nil {
			return errors.Wrap(err, "saving tracking file")
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
