package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRun_AssignsIDAndSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.RecordRun(ctx, createTestRun("aaa"))
	require.NoError(t, err)
	second, err := s.RecordRun(ctx, createTestRun("bbb"))
	require.NoError(t, err)

	assert.Equal(t, "run-001", first.ID)
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, "run-002", second.ID)
	assert.Equal(t, int64(2), second.Seq)
}

func TestRecordRun_DefaultIDsAreUUIDv7(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	run, err := s.RecordRun(context.Background(), createTestRun("aaa"))
	require.NoError(t, err)

	parsed, err := uuid.Parse(run.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestRecordRun_DuplicateIDFails(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := createTestRun("aaa")
	run.ID = "fixed"
	_, err := s.RecordRun(ctx, run)
	require.NoError(t, err)

	_, err = s.RecordRun(ctx, run)
	assert.Error(t, err)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1, "failed insert must not leave a row")
}

func TestListRuns_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, h := range []string{"c", "a", "b"} {
		_, err := s.RecordRun(ctx, createTestRun(h))
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{runs[0].ModelHash, runs[1].ModelHash, runs[2].ModelHash})
	assert.Equal(t, createTestRun("c").SourceHash, runs[0].SourceHash)
	assert.Equal(t, 6, runs[0].Operations)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunsForModel(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, h := range []string{"x", "y", "x"} {
		_, err := s.RecordRun(ctx, createTestRun(h))
		require.NoError(t, err)
	}

	runs, err := s.RunsForModel(ctx, "x")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(1), runs[0].Seq)
	assert.Equal(t, int64(3), runs[1].Seq)

	latest, err := s.LatestRun(ctx, "x")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(3), latest.Seq)

	none, err := s.LatestRun(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRecordRun_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	run := createTestRun("aaa")
	run.HeaderHash = "hdr"
	_, err = s.RecordRun(context.Background(), run)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "hdr", runs[0].HeaderHash)
	assert.Equal(t, "models/pi.xml", runs[0].ModelPath)
}
