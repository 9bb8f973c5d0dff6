package repository

import (
	"context"

	"github.com/akashabrah/StreetSense/internal/model"
)

// PedestrianRepository defines the remote store for detection records.
type PedestrianRepository interface {
	// Create operations
	Insert(ctx context.Context, rec *model.DetectionRecord) error

	// Read operations
	ListBySession(ctx context.Context, sessionID string) ([]model.DetectionRecord, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)
}
