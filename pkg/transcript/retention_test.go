package transcript

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/williamokano/sshrun/pkg/logger"
	"github.com/williamokano/sshrun/pkg/storage"
	"github.com/williamokano/sshrun/pkg/storage/mocks"
)

func transcriptFiles(remote string, times ...time.Time) []storage.FileInfo {
	files := make([]storage.FileInfo, 0, len(times))
	for _, ts := range times {
		files = append(files, storage.FileInfo{
			Path:    Filename(remote, ts),
			Size:    100,
			ModTime: ts,
		})
	}
	return files
}

func TestApplyRetention_DeletesOldest(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2025, 8, d, 10, 0, 0, 0, time.UTC)
	}

	backend := mocks.NewMockBackend(t)
	backend.On("Name").Return("local_archive")
	backend.On("List", mock.Anything, "web1--*.log").
		Return(transcriptFiles("web1", day(3), day(1), day(5), day(2), day(4)), nil)
	backend.On("Delete", mock.Anything, Filename("web1", day(1))).Return(nil)
	backend.On("Delete", mock.Anything, Filename("web1", day(2))).Return(nil)

	deleted, err := ApplyRetention(context.Background(), backend, "web1", 3, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
}

func TestApplyRetention_WithinLimit(t *testing.T) {
	backend := mocks.NewMockBackend(t)
	backend.On("Name").Return("local_archive")
	backend.On("List", mock.Anything, "web1--*.log").
		Return(transcriptFiles("web1", time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)), nil)

	deleted, err := ApplyRetention(context.Background(), backend, "web1", 5, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestApplyRetention_UnlimitedKeepsAll(t *testing.T) {
	backend := mocks.NewMockBackend(t)
	backend.On("Name").Return("local_archive")

	deleted, err := ApplyRetention(context.Background(), backend, "web1", 0, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestApplyRetention_SkipsForeignFiles(t *testing.T) {
	ts := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	files := transcriptFiles("web1", ts)
	files = append(files, storage.FileInfo{Path: "unrelated.log", Size: 10, ModTime: ts})

	backend := mocks.NewMockBackend(t)
	backend.On("Name").Return("local_archive")
	backend.On("List", mock.Anything, "web1--*.log").Return(files, nil)

	deleted, err := ApplyRetention(context.Background(), backend, "web1", 1, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestApplyRetention_ListFailure(t *testing.T) {
	backend := mocks.NewMockBackend(t)
	backend.On("Name").Return("s3_offsite")
	backend.On("List", mock.Anything, "web1--*.log").
		Return(nil, errors.New("connection reset"))

	_, err := ApplyRetention(context.Background(), backend, "web1", 3, logger.Nop())
	require.Error(t, err)
}

func TestApplyRetention_DeleteFailureReported(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2025, 8, d, 10, 0, 0, 0, time.UTC)
	}

	backend := mocks.NewMockBackend(t)
	backend.On("Name").Return("local_archive")
	backend.On("List", mock.Anything, "web1--*.log").
		Return(transcriptFiles("web1", day(1), day(2), day(3)), nil)
	backend.On("Delete", mock.Anything, Filename("web1", day(1))).
		Return(errors.New("permission denied"))
	backend.On("Delete", mock.Anything, Filename("web1", day(2))).Return(nil)

	deleted, err := ApplyRetention(context.Background(), backend, "web1", 1, logger.Nop())
	require.Error(t, err)
	assert.Equal(t, 1, deleted)
}
