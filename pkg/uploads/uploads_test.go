package uploads

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/clipshelf/clipshelf/pkg/config"
	"github.com/clipshelf/clipshelf/pkg/errcodes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A bare ftyp box is enough for content sniffing to recognize video/mp4.
var mp4Bytes = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
	'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00,
	'm', 'p', '4', '2', 'i', 's', 'o', 'm',
}

var pngBytes = append(
	[]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a},
	[]byte{0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R'}...,
)

func newTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()

	s, err := New(&config.Config{
		UploadDir:      t.TempDir(),
		MaxUploadBytes: maxBytes,
	})
	require.NoError(t, err)
	return s
}

func makeFileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video_file"; filename=%q`, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() {
		form.RemoveAll()
	})

	return form.File["video_file"][0]
}

func storedFiles(t *testing.T, s *Store) []string {
	t.Helper()

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)

	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func assertErrCode(t *testing.T, err error, httpCode int) {
	t.Helper()

	require.Error(t, err)
	var e *errcodes.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, httpCode, e.HTTPCode)
}

func TestSave_ValidMP4(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 1024)
	fh := makeFileHeader(t, "clip.mp4", "video/mp4", mp4Bytes)

	saved, err := s.Save(context.Background(), fh)
	require.NoError(t, err)
	assert.Equal(t, ".mp4", filepath.Ext(saved.Filename))
	assert.Equal(t, "video/mp4", saved.MimeType)
	// The stored name never reuses the client-supplied one.
	assert.NotContains(t, saved.Filename, "clip")

	data, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, mp4Bytes, data)
	assert.Equal(t, []string{saved.Filename}, storedFiles(t, s))

	// A bare ftyp box has no movie header, so the probe finds no duration.
	assert.Nil(t, saved.DurationMS)
}

func TestSave_NilHeader(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 1024)

	_, err := s.Save(context.Background(), nil)
	assertErrCode(t, err, http.StatusUnprocessableEntity)
	assert.Empty(t, storedFiles(t, s))
}

func TestSave_DisguisedContentRejected(t *testing.T) {
	t.Parallel()

	// PNG bytes declaring themselves video/mp4: sniffing wins, zero bytes
	// reach disk.
	s := newTestStore(t, 1024)
	fh := makeFileHeader(t, "notavideo.mp4", "video/mp4", pngBytes)

	_, err := s.Save(context.Background(), fh)
	assertErrCode(t, err, http.StatusUnsupportedMediaType)
	assert.Empty(t, storedFiles(t, s))
}

func TestSave_ScriptContentRejected(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 1024)
	fh := makeFileHeader(t, "clip.mp4", "video/mp4", []byte("#!/bin/sh\nrm -rf /\n"))

	_, err := s.Save(context.Background(), fh)
	assertErrCode(t, err, http.StatusUnsupportedMediaType)
	assert.Empty(t, storedFiles(t, s))
}

func TestSave_ConflictingDeclaredType(t *testing.T) {
	t.Parallel()

	// mp4 content declared as webm: recognizable but conflicting.
	s := newTestStore(t, 1024)
	fh := makeFileHeader(t, "clip.webm", "video/webm", mp4Bytes)

	_, err := s.Save(context.Background(), fh)
	assertErrCode(t, err, http.StatusUnsupportedMediaType)
	assert.Empty(t, storedFiles(t, s))
}

func TestSave_InconclusiveSniffTrustsAllowedDeclaredType(t *testing.T) {
	t.Parallel()

	// No recognizable signature, so the declared type decides.
	payload := bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, 8)

	s := newTestStore(t, 1024)
	fh := makeFileHeader(t, "clip.webm", "video/webm", payload)

	saved, err := s.Save(context.Background(), fh)
	require.NoError(t, err)
	assert.Equal(t, ".webm", filepath.Ext(saved.Filename))

	fh = makeFileHeader(t, "clip.bin", "application/x-msdownload", payload)
	_, err = s.Save(context.Background(), fh)
	assertErrCode(t, err, http.StatusUnsupportedMediaType)
}

func TestSave_NoDeclaredTypeDetectedContent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 1024)
	fh := makeFileHeader(t, "clip", "", mp4Bytes)

	saved, err := s.Save(context.Background(), fh)
	require.NoError(t, err)
	assert.Equal(t, ".mp4", filepath.Ext(saved.Filename))
}

func TestSave_PayloadTooLarge(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 16)
	fh := makeFileHeader(t, "clip.mp4", "video/mp4", mp4Bytes)

	_, err := s.Save(context.Background(), fh)
	assertErrCode(t, err, http.StatusRequestEntityTooLarge)
	assert.Empty(t, storedFiles(t, s))
}

func TestRemove(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 1024)
	fh := makeFileHeader(t, "clip.mp4", "video/mp4", mp4Bytes)

	saved, err := s.Save(context.Background(), fh)
	require.NoError(t, err)

	require.NoError(t, s.Remove(saved.Filename))
	assert.Empty(t, storedFiles(t, s))

	// Removing a file that is already gone is success.
	require.NoError(t, s.Remove(saved.Filename))

	// An empty name is a no-op.
	require.NoError(t, s.Remove(""))
}

func TestRemove_TraversalRejected(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 1024)

	for _, name := range []string{"../evil", "..", "nested/evil", "/etc/passwd"} {
		err := s.Remove(name)
		assertErrCode(t, err, http.StatusUnprocessableEntity)
	}
}
