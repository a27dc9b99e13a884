package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"option_monitor/internal/models"
)

// FileLog writes each alert as its own JSON file in Dir.
type FileLog struct {
	Dir string
}

// NewFileLog creates dir if needed.
func NewFileLog(dir string) (*FileLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("alerts dir: %w", err)
	}
	return &FileLog{Dir: dir}, nil
}

// FileName is <type>_<YYYYmmdd_HHMMSS>_<first 8 chars of id>.json.
func FileName(rec models.AlertRecord) string {
	id := rec.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s_%s_%s.json", rec.Type, rec.Timestamp.Format("20060102_150405"), id)
}

func (f *FileLog) Record(ctx context.Context, rec models.AlertRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal alert %s: %w", rec.ID, err)
	}
	path := filepath.Join(f.Dir, FileName(rec))
	// O_EXCL: records are never overwritten
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := fh.Write(data); err != nil {
		fh.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return fh.Close()
}
