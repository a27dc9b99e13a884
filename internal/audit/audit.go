// Package audit keeps an append-only record of every fired alert.
package audit

import (
	"context"
	"errors"

	"option_monitor/internal/models"
)

// Recorder stores one alert record.
type Recorder interface {
	Record(ctx context.Context, rec models.AlertRecord) error
}

// Multi writes to every recorder and joins their errors.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, rec models.AlertRecord) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
