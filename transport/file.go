package transport

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileTransporter implements Transporter against a file:// repository base
// directory — the common case of a shared network mount or a locally
// staged repository tree.
type FileTransporter struct {
	Base   string
	closed bool
}

// NewFileTransporter returns a transporter rooted at base.
func NewFileTransporter(base string) *FileTransporter {
	return &FileTransporter{Base: base}
}

func (t *FileTransporter) resolve(remotePath string) string {
	return filepath.Join(t.Base, filepath.FromSlash(remotePath))
}

func (t *FileTransporter) checkOpen() error {
	if t.closed {
		return wrapClassified(Other, errors.New("transporter is closed"))
	}
	return nil
}

func (t *FileTransporter) Peek(ctx context.Context, remotePath string) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	info, err := os.Stat(t.resolve(remotePath))
	if err != nil {
		if os.IsNotExist(err) {
			return wrapClassified(NotFound, errors.Wrapf(err, "peek %s", remotePath))
		}
		return wrapClassified(Other, errors.Wrapf(err, "peek %s", remotePath))
	}
	if info.IsDir() {
		return wrapClassified(NotFound, errors.Errorf("peek %s: is a directory", remotePath))
	}
	return nil
}

func (t *FileTransporter) Get(ctx context.Context, task GetTask) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	path := t.resolve(task.RemotePath)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return wrapClassified(NotFound, errors.Wrapf(err, "get %s", task.RemotePath))
		}
		return wrapClassified(Other, errors.Wrapf(err, "get %s", task.RemotePath))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return wrapClassified(Other, errors.Wrapf(err, "stat %s", task.RemotePath))
	}
	total := info.Size()

	listener := task.listener()
	if err := listener.Started(task.Offset, total); err != nil {
		return &TransferCancelled{Location: task.RemotePath}
	}
	if task.Offset > 0 {
		if _, err := f.Seek(task.Offset, io.SeekStart); err != nil {
			return wrapClassified(Other, errors.Wrapf(err, "seeking to offset in %s", task.RemotePath))
		}
	}

	return copyWithListener(ctx, task.Dest, task.Offset, f, listener, task.RemotePath)
}

func (t *FileTransporter) Put(ctx context.Context, task PutTask) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	path := t.resolve(task.RemotePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return wrapClassified(Other, errors.Wrapf(err, "creating directory for %s", task.RemotePath))
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return wrapClassified(Other, errors.Wrapf(err, "put %s", task.RemotePath))
	}

	listener := task.listener()
	if err := listener.Started(0, task.Size); err != nil {
		f.Close()
		os.Remove(tmp)
		return &TransferCancelled{Location: task.RemotePath}
	}

	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			f.Close()
			os.Remove(tmp)
			return wrapClassified(Other, err)
		}
		n, readErr := task.Src.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				f.Close()
				os.Remove(tmp)
				return wrapClassified(Other, errors.Wrapf(err, "writing %s", task.RemotePath))
			}
			if err := listener.Progressed(buf[:n]); err != nil {
				f.Close()
				os.Remove(tmp)
				return &TransferCancelled{Location: task.RemotePath}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			os.Remove(tmp)
			return wrapClassified(Other, errors.Wrapf(readErr, "reading source for %s", task.RemotePath))
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return wrapClassified(Other, errors.Wrapf(err, "closing %s", task.RemotePath))
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return wrapClassified(Other, errors.Wrapf(err, "publishing %s", task.RemotePath))
	}
	return nil
}

func (t *FileTransporter) Classify(err error) ErrorKind {
	return classifyGeneric(err)
}

func (t *FileTransporter) Close() error {
	t.closed = true
	return nil
}

// copyWithListener streams src into dest at an io.WriterAt offset starting
// point, calling listener.Progressed per chunk and translating a listener
// cancellation into *TransferCancelled.
func copyWithListener(ctx context.Context, dest io.WriterAt, offset int64, src io.Reader, listener Listener, remotePath string) error {
	buf := make([]byte, 32*1024)
	pos := offset
	for {
		if err := ctx.Err(); err != nil {
			return wrapClassified(Other, err)
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dest.WriteAt(buf[:n], pos); err != nil {
				return wrapClassified(Other, errors.Wrapf(err, "writing %s", remotePath))
			}
			pos += int64(n)
			if err := listener.Progressed(buf[:n]); err != nil {
				return &TransferCancelled{Location: remotePath}
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return wrapClassified(Other, errors.Wrapf(readErr, "reading %s", remotePath))
		}
	}
}
