package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"bulkmerge/core/merge"
	"bulkmerge/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sampleResult() Result {
	return Result{
		Scenario: "many",
		Elapsed:  1500 * time.Millisecond,
		Rows:     10001,
		Counts:   merge.Counts{Inserted: 10000, Updated: 1},
		At:       time.Unix(1700000000, 42).UTC(),
	}
}

func TestFromSummary(t *testing.T) {
	s := merge.Summary{
		Elapsed: time.Second,
		Rows:    3,
		Counts:  merge.Counts{Inserted: 3},
		Levels:  []merge.Level{{Table: "invoices", Rows: 3}},
	}
	res := FromSummary("single", s)
	assert.Equal(t, "single", res.Scenario)
	assert.Equal(t, time.Second, res.Elapsed)
	assert.Equal(t, 3, res.Rows)
	assert.Len(t, res.Levels, 1)
	assert.False(t, res.At.IsZero())
}

func TestLogReporter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := NewLogReporter(zap.New(core))

	require.NoError(t, r.Report(context.Background(), sampleResult()))
	require.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	assert.Equal(t, "Merge finished", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "many", fields["scenario"])
	assert.EqualValues(t, 10001, fields["rows"])
	assert.EqualValues(t, 1, fields["updated"])
}

func TestStorageReporter(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	client.On("BucketExists", ctx, "bulkmerge").Return(false, nil).Once()
	client.On("MakeBucket", ctx, "bulkmerge", minio.MakeBucketOptions{}).Return(nil).Once()

	var uploaded Result
	client.On("PutObject", ctx, "bulkmerge", "reports/many/1700000000000000042.json",
		mock.Anything, mock.Anything, minio.PutObjectOptions{ContentType: "application/json"}).
		Run(func(args mock.Arguments) {
			body, err := io.ReadAll(args.Get(3).(io.Reader))
			require.NoError(t, err)
			assert.EqualValues(t, len(body), args.Get(4))
			require.NoError(t, json.Unmarshal(body, &uploaded))
		}).
		Return(minio.UploadInfo{}, nil).Twice()

	r := NewStorageReporter(client, "bulkmerge", "", "/reports/")
	require.NoError(t, r.Report(ctx, sampleResult()))
	// the bucket is only checked once
	require.NoError(t, r.Report(ctx, sampleResult()))

	assert.Equal(t, "many", uploaded.Scenario)
	assert.Equal(t, 10000, uploaded.Counts.Inserted)
	client.AssertExpectations(t)
}

func TestStorageReporter_UploadError(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	client.On("BucketExists", ctx, "bulkmerge").Return(true, nil)
	client.On("PutObject", ctx, "bulkmerge", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("quota exceeded"))

	r := NewStorageReporter(client, "bulkmerge", "", "")
	err := r.Report(ctx, sampleResult())
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestStorageReporter_List(t *testing.T) {
	ctx := context.Background()
	ch := make(chan minio.ObjectInfo, 1)
	ch <- minio.ObjectInfo{Key: "reports/single/1.json"}
	close(ch)

	client := new(mocks.Client)
	client.On("ListObjects", ctx, "bulkmerge", minio.ListObjectsOptions{Prefix: "reports/single/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))

	r := NewStorageReporter(client, "bulkmerge", "", "")
	keys, err := r.List(ctx, "single")
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/single/1.json"}, keys)
}

type failingReporter struct{ calls int }

func (f *failingReporter) Report(context.Context, Result) error {
	f.calls++
	return errors.New("down")
}

func TestMulti(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	failing := &failingReporter{}
	m := Multi{failing, NewLogReporter(zap.New(core))}

	err := m.Report(context.Background(), sampleResult())
	assert.ErrorContains(t, err, "down")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, logs.Len(), "later reporters still run")
}
