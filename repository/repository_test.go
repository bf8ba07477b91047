package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/aetherresolve/graph"
)

func TestLayoutArtifactPath(t *testing.T) {
	l := Layout{}
	coord := graph.NewCoordinate("org.example", "widget", "1.2.0")
	got := l.ArtifactPath(coord)
	want := "org/example/widget/1.2.0/widget-1.2.0.jar"
	if got != want {
		t.Fatalf("ArtifactPath = %q, want %q", got, want)
	}
}

func TestLayoutArtifactPathWithClassifier(t *testing.T) {
	l := Layout{}
	coord := graph.Coordinate{GroupID: "org.example", ArtifactID: "widget", Version: "1.2.0", Classifier: "sources", Extension: "jar"}
	got := l.ArtifactPath(coord)
	want := "org/example/widget/1.2.0/widget-1.2.0-sources.jar"
	if got != want {
		t.Fatalf("ArtifactPath = %q, want %q", got, want)
	}
}

func TestLayoutArtifactPathUsesLiteralVersionNotBase(t *testing.T) {
	l := Layout{}
	coord := graph.NewCoordinate("org.example", "widget", "1.0-20110329.221805-4")
	got := l.ArtifactPath(coord)
	want := "org/example/widget/1.0-SNAPSHOT/widget-1.0-20110329.221805-4.jar"
	if got != want {
		t.Fatalf("ArtifactPath = %q, want %q (version directory uses baseVersion, file name keeps the literal timestamp)", got, want)
	}
}

func TestChecksumLocations(t *testing.T) {
	l := Layout{}
	coord := graph.NewCoordinate("org.example", "widget", "1.0")
	locs := l.ChecksumLocations(coord)
	if len(locs) != 2 {
		t.Fatalf("expected 2 default checksum locations, got %d", len(locs))
	}
	if locs[0].Algorithm != SHA1 || locs[0].RelativeURI != "org/example/widget/1.0/widget-1.0.jar.sha1" {
		t.Fatalf("unexpected SHA1 location: %+v", locs[0])
	}
	if locs[1].Algorithm != MD5 || locs[1].RelativeURI != "org/example/widget/1.0/widget-1.0.jar.md5" {
		t.Fatalf("unexpected MD5 location: %+v", locs[1])
	}
}

func TestMetadataPath(t *testing.T) {
	l := Layout{}
	ga := graph.GAKey{GroupID: "org.example", ArtifactID: "widget"}
	if got, want := l.MetadataPath(ga, ""), "org/example/widget/maven-metadata.xml"; got != want {
		t.Fatalf("MetadataPath() = %q, want %q", got, want)
	}
	if got, want := l.MetadataPath(ga, "1.0-SNAPSHOT"), "org/example/widget/1.0-SNAPSHOT/maven-metadata.xml"; got != want {
		t.Fatalf("MetadataPath(baseVersion) = %q, want %q", got, want)
	}
}

func TestTrackingFileRoundTrip(t *testing.T) {
	dir := t.TempDir()

	tf, err := LoadTrackingFile(dir)
	if err != nil {
		t.Fatalf("LoadTrackingFile (fresh): %v", err)
	}
	tf.Record("widget-1.0.jar", "central")
	tf.Record("widget-1.0.jar", "company-mirror")
	tf.Record("widget-1.0.jar.sha1", "central")
	if err := tf.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := LoadTrackingFile(dir)
	if err != nil {
		t.Fatalf("LoadTrackingFile (reload): %v", err)
	}
	if !reloaded.TrustedBy("widget-1.0.jar", []string{"company-mirror"}) {
		t.Fatal("expected widget-1.0.jar to be trusted via company-mirror after reload")
	}
	if !reloaded.TrustedBy("widget-1.0.jar", []string{"someone-else", "central"}) {
		t.Fatal("expected widget-1.0.jar to be trusted via central after reload")
	}
	if reloaded.TrustedBy("widget-1.0.jar.sha1", []string{"company-mirror"}) {
		t.Fatal("the checksum side file was only ever recorded against central")
	}
	if reloaded.TrustedBy("absent.jar", []string{"central"}) {
		t.Fatal("an unrecorded file name must never be trusted")
	}
}

func TestLocalRepositoryManagerSplitModeSnapshotBranch(t *testing.T) {
	base := t.TempDir()
	m := NewLocalRepositoryManager(base, true)

	release := graph.NewCoordinate("org.example", "widget", "1.0")
	snapshot := graph.NewCoordinate("org.example", "widget", "1.1-SNAPSHOT")

	relPath := m.InstalledPath(release)
	snapPath := m.InstalledPath(snapshot)

	if !hasPrefix(relPath, filepath.Join(base, "installed", "releases")) {
		t.Fatalf("release path %q should live under installed/releases", relPath)
	}
	if !hasPrefix(snapPath, filepath.Join(base, "installed", "snapshots")) {
		t.Fatalf("snapshot path %q should live under installed/snapshots", snapPath)
	}
}

func TestLocalRepositoryManagerInstallAndFind(t *testing.T) {
	base := t.TempDir()
	m := NewLocalRepositoryManager(base, false)

	src := filepath.Join(t.TempDir(), "widget-1.0.jar")
	if err := os.WriteFile(src, []byte("jar bytes"), 0o644); err != nil {
		t.Fatalf("writing source fixture: %v", err)
	}

	coord := graph.NewCoordinate("org.example", "widget", "1.0")
	if err := m.Install(coord, src, "central"); err != nil {
		t.Fatalf("Install: %v", err)
	}

	path, ok := m.Find(coord, []string{"central"})
	if !ok {
		t.Fatal("expected Find to locate the cached artifact trusted via central")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading installed artifact: %v", err)
	}
	if string(data) != "jar bytes" {
		t.Fatalf("installed artifact content = %q", data)
	}

	if _, ok := m.Find(coord, []string{"untrusted-repo"}); ok {
		t.Fatal("Find must not trust a cached copy from a repository that never vouched for it")
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("the temporary copy used for the atomic rename must not survive a successful install")
	}
}

func TestLocalRepositoryManagerInstallWithoutRepositoryIDSkipsTracking(t *testing.T) {
	base := t.TempDir()
	m := NewLocalRepositoryManager(base, false)

	src := filepath.Join(t.TempDir(), "widget-1.0.jar")
	if err := os.WriteFile(src, []byte("jar bytes"), 0o644); err != nil {
		t.Fatalf("writing source fixture: %v", err)
	}

	coord := graph.NewCoordinate("org.example", "widget", "1.0")
	if err := m.Install(coord, src, ""); err != nil {
		t.Fatalf("Install: %v", err)
	}

	// Artifacts this process produced itself are trusted unconditionally,
	// without consulting any tracking file.
	path, ok := m.Find(coord, nil)
	if !ok {
		t.Fatal("expected Find to locate a self-installed artifact with no trusted repositories listed")
	}
	if filepath.Base(filepath.Dir(path)) != "1.0" {
		t.Fatalf("expected installed artifact to live in its version directory, got %q", path)
	}
}

func TestMirrorSelectorLongestPrefixWins(t *testing.T) {
	s := NewMirrorSelector([]Mirror{
		{Prefix: "org", RepositoryID: "org-mirror"},
		{Prefix: "org.example", RepositoryID: "example-mirror"},
	})

	id, ok := s.Select("org.example.widget", "central")
	if !ok || id != "example-mirror" {
		t.Fatalf("expected the longer org.example prefix to win, got (%q, %v)", id, ok)
	}

	id, ok = s.Select("org.other", "central")
	if !ok || id != "org-mirror" {
		t.Fatalf("expected the catch-all org prefix to win, got (%q, %v)", id, ok)
	}

	if _, ok := s.Select("com.unrelated", "central"); ok {
		t.Fatal("expected no mirror to match an unrelated groupId")
	}
}

func TestMirrorSelectorRestrictsToMirroredRepositories(t *testing.T) {
	s := NewMirrorSelector([]Mirror{
		{Prefix: "org.example", RepositoryID: "example-mirror", Mirrored: map[string]struct{}{"central": {}}},
	})

	if _, ok := s.Select("org.example.widget", "some-other-repo"); ok {
		t.Fatal("a mirror scoped to specific upstream ids must not match a different upstream")
	}
	if _, ok := s.Select("org.example.widget", "central"); !ok {
		t.Fatal("expected the mirror to match its declared upstream")
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
