package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morphlyhq/morphly/internal/pkg/apperrors"
	"github.com/morphlyhq/morphly/internal/pkg/blobstore"
)

type fakeIndex struct {
	ids []string
	err error
}

func (f *fakeIndex) ListPublicIDs() ([]string, error) {
	return f.ids, f.err
}

// fakeProvider serves objects from memory and honors the uploadedBefore
// cutoff the same way the storage listing does.
type fakeProvider struct {
	objects    []blobstore.Object
	searchErr  error
	deleteErr  error
	lastCutoff time.Time
	deleted    [][]string
}

func (f *fakeProvider) Search(_ context.Context, uploadedBefore time.Time) ([]blobstore.Object, error) {
	f.lastCutoff = uploadedBefore
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []blobstore.Object
	for _, obj := range f.objects {
		if obj.UploadedAt.Before(uploadedBefore) {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (f *fakeProvider) BulkDelete(_ context.Context, publicIDs []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, publicIDs)
	return nil
}

func oldObject(id string) blobstore.Object {
	return blobstore.Object{PublicID: id, UploadedAt: time.Now().Add(-time.Hour)}
}

func TestSweepOnce_DeletesExactlyTheUnreferenced(t *testing.T) {
	index := &fakeIndex{ids: []string{"a", "b"}}
	provider := &fakeProvider{objects: []blobstore.Object{
		oldObject("a"), oldObject("c"), oldObject("d"),
	}}
	s := NewSweeper(index, provider, DefaultGraceWindow)

	result, err := s.SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, result.Listed)
	assert.ElementsMatch(t, []string{"c", "d"}, result.Deleted)
	require.Len(t, provider.deleted, 1)
	assert.ElementsMatch(t, []string{"c", "d"}, provider.deleted[0])
}

func TestSweepOnce_NoGarbageSkipsDeleteCall(t *testing.T) {
	index := &fakeIndex{ids: []string{"a", "b", "c"}}
	provider := &fakeProvider{objects: []blobstore.Object{
		oldObject("a"), oldObject("b"),
	}}
	s := NewSweeper(index, provider, DefaultGraceWindow)

	result, err := s.SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Empty(t, result.Deleted)
	assert.Empty(t, provider.deleted, "no delete call may be issued for an empty diff")
}

func TestSweepOnce_GraceWindowShieldsFreshUploads(t *testing.T) {
	// An in-flight upload: the blob exists but its row has not landed yet.
	index := &fakeIndex{ids: nil}
	provider := &fakeProvider{objects: []blobstore.Object{
		{PublicID: "fresh", UploadedAt: time.Now().Add(-2 * time.Minute)},
		oldObject("stale"),
	}}
	s := NewSweeper(index, provider, DefaultGraceWindow)

	result, err := s.SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, result.Deleted)
	assert.WithinDuration(t, time.Now().Add(-DefaultGraceWindow), provider.lastCutoff, 5*time.Second)
}

func TestSweepOnce_IndexErrorAbortsBeforeListing(t *testing.T) {
	index := &fakeIndex{err: errors.New("connection refused")}
	provider := &fakeProvider{objects: []blobstore.Object{oldObject("a")}}
	s := NewSweeper(index, provider, DefaultGraceWindow)

	_, err := s.SweepOnce(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
	assert.Empty(t, provider.deleted)
}

func TestSweepOnce_SearchErrorAbortsSweep(t *testing.T) {
	index := &fakeIndex{ids: []string{"a"}}
	provider := &fakeProvider{searchErr: errors.New("503 slow down")}
	s := NewSweeper(index, provider, DefaultGraceWindow)

	_, err := s.SweepOnce(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
	assert.Empty(t, provider.deleted)
}

func TestSweepOnce_DeleteErrorIsUpstream(t *testing.T) {
	index := &fakeIndex{}
	provider := &fakeProvider{
		objects:   []blobstore.Object{oldObject("orphan")},
		deleteErr: errors.New("access denied"),
	}
	s := NewSweeper(index, provider, DefaultGraceWindow)

	_, err := s.SweepOnce(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
}

func TestNewSweeper_DefaultsGraceWindow(t *testing.T) {
	s := NewSweeper(&fakeIndex{}, &fakeProvider{}, 0)
	assert.Equal(t, DefaultGraceWindow, s.graceWindow)
}
