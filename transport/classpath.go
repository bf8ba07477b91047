package transport

import (
	"bytes"
	"context"
	"io"

	"github.com/pkg/errors"
)

// ClasspathTransporter serves resources from an in-memory map keyed by
// remote path, matching Maven's "classpath:" repository scheme used to ship
// a small bundled repository inside a single binary or test fixture. It
// never accepts uploads.
type ClasspathTransporter struct {
	Resources map[string][]byte
	closed    bool
}

// NewClasspathTransporter wraps resources as a read-only transporter.
// Ownership of the map is not taken; callers must not mutate it afterward.
func NewClasspathTransporter(resources map[string][]byte) *ClasspathTransporter {
	return &ClasspathTransporter{Resources: resources}
}

func (t *ClasspathTransporter) checkOpen() error {
	if t.closed {
		return wrapClassified(Other, errors.New("transporter is closed"))
	}
	return nil
}

func (t *ClasspathTransporter) Peek(ctx context.Context, remotePath string) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if _, ok := t.Resources[remotePath]; !ok {
		return wrapClassified(NotFound, errors.Errorf("peek %s: not on classpath", remotePath))
	}
	return nil
}

func (t *ClasspathTransporter) Get(ctx context.Context, task GetTask) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	data, ok := t.Resources[task.RemotePath]
	if !ok {
		return wrapClassified(NotFound, errors.Errorf("get %s: not on classpath", task.RemotePath))
	}
	if task.Offset > int64(len(data)) {
		return wrapClassified(Other, errors.Errorf("get %s: offset %d beyond resource length %d", task.RemotePath, task.Offset, len(data)))
	}

	listener := task.listener()
	if err := listener.Started(task.Offset, int64(len(data))); err != nil {
		return &TransferCancelled{Location: task.RemotePath}
	}
	return copyWithListener(ctx, task.Dest, task.Offset, bytes.NewReader(data[task.Offset:]), listener, task.RemotePath)
}

func (t *ClasspathTransporter) Put(ctx context.Context, task PutTask) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	return wrapClassified(Other, errors.Errorf("put %s: classpath repositories are read-only", task.RemotePath))
}

func (t *ClasspathTransporter) Classify(err error) ErrorKind {
	return classifyGeneric(err)
}

func (t *ClasspathTransporter) Close() error {
	t.closed = true
	return nil
}

var _ io.Closer = (*ClasspathTransporter)(nil)
