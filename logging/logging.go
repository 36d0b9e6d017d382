package logging

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

const defaultMaxLogSize = 2 * 1024 * 1024 // 2MB

var debugEnabled bool

// SetLevel controls the package filter. Only "debug" widens output; any
// other value keeps the default info level.
func SetLevel(level string) {
	debugEnabled = strings.EqualFold(level, "debug")
}

// Debugf logs only at debug level. Per-item chatter goes through here so a
// normal run stays at a few lines per job.
func Debugf(format string, v ...any) {
	if debugEnabled {
		log.Printf(format, v...)
	}
}

// RotatingWriter appends to a log file and swaps it for a .1 backup when
// it grows past maxSize. Everything written through the standard logger
// also reaches stdout, so journald/docker logs keep working.
type RotatingWriter struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	size    int64
	maxSize int64
}

// Setup routes the stdlib logger to stdout plus a rotating file and arms
// the level filter. The file is truncated on startup if a previous run
// left it oversized.
func Setup(logPath, level string) (*RotatingWriter, error) {
	SetLevel(level)
	if info, err := os.Stat(logPath); err == nil && info.Size() > defaultMaxLogSize {
		os.Truncate(logPath, 0)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	rw := &RotatingWriter{
		file:    f,
		path:    logPath,
		size:    size,
		maxSize: defaultMaxLogSize,
	}

	log.SetOutput(io.MultiWriter(os.Stdout, rw))
	return rw, nil
}

func (w *RotatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err = w.file.Write(p)
	w.size += int64(n)

	if w.size > w.maxSize {
		w.rotate()
	}
	return n, err
}

// rotate keeps exactly one backup.
func (w *RotatingWriter) rotate() {
	w.file.Close()
	os.Rename(w.path, w.path+".1")

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return
	}
	w.file = f
	w.size = 0
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
