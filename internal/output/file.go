package output

import (
	"fmt"
	"os"
)

// FileWriter appends lines to a file and keeps one rotated backup.
type FileWriter struct {
	path       string
	maxRecords int
	file       *os.File
	count      int
}

func NewFileWriter(path string, maxRecords int) *FileWriter {
	if maxRecords <= 0 {
		maxRecords = 1000
	}
	return &FileWriter{
		path:       path,
		maxRecords: maxRecords,
	}
}

func (w *FileWriter) Write(line string) error {
	if w.path == "" {
		return nil
	}

	if w.file == nil {
		if err := w.open(); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w.file, line); err != nil {
		return err
	}

	w.count++
	if w.count >= w.maxRecords {
		return w.rotate()
	}

	return nil
}

func (w *FileWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}

func (w *FileWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", w.path, err)
	}
	w.file = f
	w.count = 0
	return nil
}

func (w *FileWriter) rotate() error {
	if err := w.Close(); err != nil {
		return err
	}
	backup := w.path + ".1"
	if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", backup, err)
	}
	if err := os.Rename(w.path, backup); err != nil {
		return fmt.Errorf("rotate %s: %w", w.path, err)
	}
	return nil
}
