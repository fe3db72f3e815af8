package storage

import (
	"alcyxob/totalfit/internal/domain"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const exportContentType = "application/json"

// PlanExporter publishes saved plans as JSON snapshots with a shareable link.
type PlanExporter struct {
	files   FileStorage
	expires time.Duration
}

// NewPlanExporter creates a PlanExporter over files.
func NewPlanExporter(files FileStorage, expires time.Duration) *PlanExporter {
	return &PlanExporter{files: files, expires: expires}
}

// ExportKey is the object key of a plan snapshot.
func ExportKey(owner, planID string) string {
	return fmt.Sprintf("exports/%s/%s.json", owner, planID)
}

// Export uploads plan and returns its object key and a presigned download URL.
// Exporting the same plan again overwrites the snapshot.
func (e *PlanExporter) Export(ctx context.Context, owner string, plan domain.SavedPlan) (key, url string, err error) {
	body, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encode plan: %w", err)
	}
	key = ExportKey(owner, plan.ID)
	if err := e.files.PutObject(ctx, key, exportContentType, body); err != nil {
		return "", "", fmt.Errorf("upload plan export: %w", err)
	}
	url, err = e.files.GeneratePresignedDownloadURL(ctx, key, e.expires)
	if err != nil {
		return "", "", fmt.Errorf("presign plan export: %w", err)
	}
	return key, url, nil
}

// Remove deletes a snapshot. An empty key is a no-op.
func (e *PlanExporter) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return e.files.DeleteObject(ctx, key)
}
