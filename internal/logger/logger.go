package logger

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"sync"
)

// Rotator writes to Filename and moves it aside before a write would take
// it past MaxSize. Filename.1 is the newest backup, Filename.MaxBackups
// the oldest.
type Rotator struct {
	Filename   string
	MaxSize    int64 // bytes, 0 disables rotation
	MaxBackups int

	mu   sync.Mutex
	file *os.File
	size int64
}

// Setup sends the standard logger to stdout and, when filename is set, to
// a rotating file as well.
func Setup(filename string, maxSizeMB int64, maxBackups int, level string) {
	SetLevel(ParseLevel(level))
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if filename == "" {
		return
	}

	r := &Rotator{Filename: filename, MaxSize: maxSizeMB << 20, MaxBackups: maxBackups}
	if err := r.open(); err != nil {
		log.Printf("Cannot open log file %s, logging to stdout only: %v", filename, err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stdout, r))
}

func (r *Rotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.open(); err != nil {
			return 0, err
		}
	}
	if r.MaxSize > 0 && r.size > 0 && r.size+int64(len(p)) > r.MaxSize {
		if err := r.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "Log rotation failed: %v\n", err)
		}
	}
	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *Rotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// open appends to Filename, creating it if needed.
func (r *Rotator) open() error {
	f, err := os.OpenFile(r.Filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	r.file, r.size = f, info.Size()
	return nil
}

func (r *Rotator) backup(i int) string { return fmt.Sprintf("%s.%d", r.Filename, i) }

// rotate shifts every backup up by one, dropping the oldest, and starts a
// fresh file. On failure the current handle stays in use.
func (r *Rotator) rotate() error {
	if r.MaxBackups <= 0 {
		if err := r.file.Truncate(0); err != nil {
			return err
		}
		r.size = 0
		return nil
	}

	for i := r.MaxBackups - 1; i >= 1; i-- {
		if err := os.Rename(r.backup(i), r.backup(i+1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := os.Rename(r.Filename, r.backup(1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	old := r.file
	if err := r.open(); err != nil {
		return err
	}
	old.Close()
	return nil
}
