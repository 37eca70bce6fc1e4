package media

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kostikrut/bubbly-back/config"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
)

func newTestUploader(t *testing.T, maxBytes int64) *DiskUploader {
	t.Helper()

	log, err := logger.NewDevelopmentLogger()
	require.NoError(t, err)

	u, err := NewDiskUploader(&config.MediaConfig{
		UploadDir: t.TempDir(),
		BaseURL:   "/media",
		MaxBytes:  maxBytes,
	}, log)
	require.NoError(t, err)
	return u
}

func dataURI(mime string, payload []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

func TestClassifyMIME(t *testing.T) {
	assert.Equal(t, KindImage, ClassifyMIME("image/png"))
	assert.Equal(t, KindVideo, ClassifyMIME("video/mp4"))
	assert.Equal(t, KindVideo, ClassifyMIME("audio/mpeg"))
	assert.Equal(t, KindRaw, ClassifyMIME("application/pdf"))
	assert.Equal(t, KindRaw, ClassifyMIME("text/plain"))
}

func TestParseDataURI(t *testing.T) {
	mime, payload, err := ParseDataURI(dataURI("image/png", []byte("fake-png")))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, []byte("fake-png"), payload)

	_, _, err = ParseDataURI("https://example.com/not-a-data-uri.png")
	assert.ErrorIs(t, err, ErrInvalidDataURI)

	_, _, err = ParseDataURI("data:image/png;base64,!!!not-base64!!!")
	assert.ErrorIs(t, err, ErrInvalidDataURI)
}

func TestDiskUploader_Upload(t *testing.T) {
	u := newTestUploader(t, 0)

	url, err := u.Upload(context.Background(), dataURI("image/png", []byte("fake-png")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/image/"), "url %q", url)
	assert.True(t, strings.HasSuffix(url, ".png"), "url %q", url)

	// stored payload is byte-identical
	rel := strings.TrimPrefix(url, "/media/")
	stored, err := os.ReadFile(filepath.Join(u.Dir(), filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png"), stored)
}

func TestDiskUploader_UploadKinds(t *testing.T) {
	u := newTestUploader(t, 0)
	ctx := context.Background()

	urlAudio, err := u.Upload(ctx, dataURI("audio/mpeg", []byte("fake-audio")))
	require.NoError(t, err)
	assert.Contains(t, urlAudio, "/video/") // audio shares the video class

	urlRaw, err := u.Upload(ctx, dataURI("application/pdf", []byte("fake-pdf")))
	require.NoError(t, err)
	assert.Contains(t, urlRaw, "/raw/")
}

func TestDiskUploader_SizeLimit(t *testing.T) {
	u := newTestUploader(t, 4)

	_, err := u.Upload(context.Background(), dataURI("image/png", []byte("payload-over-limit")))
	assert.ErrorIs(t, err, ErrUploadTooLarge)
}
