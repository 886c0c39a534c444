package sweeper

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/morphlyhq/morphly/internal/pkg/apperrors"
	"github.com/morphlyhq/morphly/internal/pkg/blobstore"
)

// DefaultGraceWindow is the minimum age a blob must reach before it can be
// classified as garbage. The window exists because uploads land at the
// storage provider before the Image row is written; without it a blob from
// an in-flight save would be deleted out from under the user.
const DefaultGraceWindow = 5 * time.Minute

// ImageIndex is the ground-truth side of the diff: the set of blob
// identifiers the database says should exist.
type ImageIndex interface {
	ListPublicIDs() ([]string, error)
}

// Sweeper reclaims storage consumed by uploads that were never completed
// into a persisted Image row. Each sweep recomputes garbage from scratch, so
// the operation is naturally idempotent and a failed run is simply retried
// at the next tick.
type Sweeper struct {
	images      ImageIndex
	blobs       blobstore.Provider
	graceWindow time.Duration
}

// NewSweeper creates a sweeper over the given ground truth and provider.
func NewSweeper(images ImageIndex, blobs blobstore.Provider, graceWindow time.Duration) *Sweeper {
	if graceWindow <= 0 {
		graceWindow = DefaultGraceWindow
	}
	return &Sweeper{
		images:      images,
		blobs:       blobs,
		graceWindow: graceWindow,
	}
}

// Result reports what a single sweep saw and removed.
type Result struct {
	Listed  int
	Deleted []string
}

// SweepOnce lists blobs older than the grace window, diffs them against the
// referenced set and bulk-deletes the difference. No delete call is issued
// when the diff is empty.
func (s *Sweeper) SweepOnce(ctx context.Context) (*Result, error) {
	referenced, err := s.images.ListPublicIDs()
	if err != nil {
		return nil, apperrors.Upstream("list referenced images", err)
	}

	cutoff := time.Now().Add(-s.graceWindow)
	listed, err := s.blobs.Search(ctx, cutoff)
	if err != nil {
		return nil, apperrors.Upstream("list stored blobs", err)
	}

	referencedSet := make(map[string]struct{}, len(referenced))
	for _, id := range referenced {
		referencedSet[id] = struct{}{}
	}

	var garbage []string
	for _, obj := range listed {
		if _, ok := referencedSet[obj.PublicID]; !ok {
			garbage = append(garbage, obj.PublicID)
		}
	}

	result := &Result{Listed: len(listed), Deleted: garbage}
	if len(garbage) == 0 {
		log.Infof("[Sweeper] No orphaned blobs found (%d listed, %d referenced)", len(listed), len(referenced))
		return result, nil
	}

	if err := s.blobs.BulkDelete(ctx, garbage); err != nil {
		return nil, apperrors.Upstream("delete orphaned blobs", err)
	}

	log.Infof("[Sweeper] Deleted %d orphaned blobs: %v", len(garbage), garbage)
	return result, nil
}
