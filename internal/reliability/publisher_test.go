package reliability

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	objects map[string]string
	types   map[string]string
	failKey string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: map[string]string{}, types: map[string]string{}}
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if *input.Key == f.failKey {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*input.Key] = string(body)
	f.types[*input.Key] = *input.ContentType
	return &manager.UploadOutput{}, nil
}

func writeArtifacts(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("content of "+name), 0644))
	}
	return dir
}

func TestPublisher_Publish(t *testing.T) {
	dir := writeArtifacts(t, "all_stocks_valuation.json", "SH600519_valuation.json", "all_stocks_valuation.xlsx", "notes.txt")
	uploader := newFakeUploader()
	p := NewPublisher(uploader, "bucket", "site/data", zerolog.New(nil).Level(zerolog.Disabled))

	files, err := p.Publish(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "site/data/SH600519_valuation.json", files[0].Key)
	assert.Len(t, files[0].Checksum, 64)
	assert.Equal(t, "content of all_stocks_valuation.json", uploader.objects["site/data/all_stocks_valuation.json"])
	assert.Equal(t, "application/json", uploader.types["site/data/all_stocks_valuation.json"])
	assert.Contains(t, uploader.types["site/data/all_stocks_valuation.xlsx"], "spreadsheetml")
	assert.NotContains(t, uploader.objects, "site/data/notes.txt")
}

func TestPublisher_EmptyDir(t *testing.T) {
	p := NewPublisher(newFakeUploader(), "bucket", "", zerolog.New(nil).Level(zerolog.Disabled))

	files, err := p.Publish(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestPublisher_StopsOnUploadError(t *testing.T) {
	dir := writeArtifacts(t, "a.json", "b.json", "c.json")
	uploader := newFakeUploader()
	uploader.failKey = "b.json"
	p := NewPublisher(uploader, "bucket", "", zerolog.New(nil).Level(zerolog.Disabled))

	files, err := p.Publish(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.json")
	assert.Len(t, files, 1)
	assert.NotContains(t, uploader.objects, "c.json")
}

func TestPublisher_Key(t *testing.T) {
	assert.Equal(t, "x.json", NewPublisher(nil, "b", "", zerolog.Nop()).Key("x.json"))
	assert.Equal(t, "p/x.json", NewPublisher(nil, "b", "p/", zerolog.Nop()).Key("x.json"))
}
