package repository

import (
	"bufio"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// trackingFileName is the sidecar written once per version directory,
// recording which remote repository IDs vouch for each file in that
// directory.
const trackingFileName = "_remote.repositories"

// TrackingFile records, per file name, the set of remote repository ids a
// locally cached copy is authoritative from. A file served from the local
// repo is only acceptable to a caller that trusts one of the recorded ids.
type TrackingFile struct {
	path    string
	sources map[string]map[string]struct{} // file name -> set of repository ids
}

// LoadTrackingFile reads (or initializes empty, if absent) the tracking
// file for a version directory.
func LoadTrackingFile(versionDir string) (*TrackingFile, error) {
	path := versionDir + "/" + trackingFileName
	tf := &TrackingFile{path: path, sources: make(map[string]map[string]struct{})}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return tf, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening tracking file")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ">", 2)
		if len(parts) != 2 {
			continue
		}
		name := parts[0]
		ids := tf.sources[name]
		if ids == nil {
			ids = make(map[string]struct{})
			tf.sources[name] = ids
		}
		for _, id := range strings.Split(parts[1], ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				ids[id] = struct{}{}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading tracking file")
	}
	return tf, nil
}

// Record adds repositoryID as an authoritative source for fileName.
func (t *TrackingFile) Record(fileName, repositoryID string) {
	ids := t.sources[fileName]
	if ids == nil {
		ids = make(map[string]struct{})
		t.sources[fileName] = ids
	}
	ids[repositoryID] = struct{}{}
}

// TrustedBy reports whether fileName was recorded as authoritative from any
// of the given trusted repository ids.
func (t *TrackingFile) TrustedBy(fileName string, trusted []string) bool {
	ids, ok := t.sources[fileName]
	if !ok {
		return false
	}
	for _, id := range trusted {
		if _, ok := ids[id]; ok {
			return true
		}
	}
	return false
}

// Save writes the tracking file back out, one line per file name, entries
// sorted for a stable diff.
func (t *TrackingFile) Save() error {
	names := make([]string, 0, len(t.sources))
	for name := range t.sources {
		names = append(names, name)
	}
	sort.Strings(names)

	f, err := os.Create(t.path)
	if err != nil {
		return errors.Wrap(err, "creating tracking file")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, name := range names {
		ids := make([]string, 0, len(t.sources[name]))
		for id := range t.sources[name] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		if _, err := w.WriteString(name + ">" + strings.Join(ids, ",") + "\n"); err != nil {
			return errors.Wrap(err, "writing tracking file")
		}
	}
	return w.Flush()
}
