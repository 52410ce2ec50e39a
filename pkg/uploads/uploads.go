package uploads

import (
	"context"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/clipshelf/clipshelf/pkg/config"
	"github.com/clipshelf/clipshelf/pkg/errcodes"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// allowedTypes maps the accepted video container types to their stored
// extensions. Order matters for AllowedMimeTypes.
var allowedTypes = []struct {
	mime string
	ext  string
}{
	{"video/mp4", ".mp4"},
	{"video/webm", ".webm"},
	{"video/ogg", ".ogv"},
	{"video/quicktime", ".mov"},
}

// Store validates uploads and persists them under a sandboxed directory.
// Stored names are server-generated (uuid + validated extension); the
// client-supplied filename is never used.
type Store struct {
	root     string
	maxBytes int64
}

type SavedFile struct {
	Filename   string
	Path       string
	MimeType   string
	DurationMS *int64
}

func New(cfg *config.Config) (*Store, error) {
	root, err := filepath.Abs(cfg.UploadDir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.WithStack(err)
	}

	return &Store{
		root:     root,
		maxBytes: cfg.MaxUploadBytes,
	}, nil
}

// AllowedMimeTypes returns the accepted declared/sniffed media types.
func (s *Store) AllowedMimeTypes() []string {
	types := make([]string, 0, len(allowedTypes))
	for _, a := range allowedTypes {
		types = append(types, a.mime)
	}
	return types
}

// MaxBytes returns the configured upload size limit.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Root returns the absolute upload root directory.
func (s *Store) Root() string {
	return s.root
}

// Save validates the upload and writes it under the upload root. Nothing is
// written to disk unless every check passes. The content is sniffed and
// reconciled against the declared type, so a payload whose declared MIME type
// lies about disguised content is rejected before it reaches disk.
func (s *Store) Save(ctx context.Context, fh *multipart.FileHeader) (*SavedFile, error) {
	if fh == nil {
		return nil, errcodes.ValidationError("No video file was uploaded.")
	}
	if fh.Size > s.maxBytes {
		return nil, errcodes.PayloadTooLarge(s.maxBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxBytes+1))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	// The header size can lie, so check the actual byte count too.
	if int64(len(data)) > s.maxBytes {
		return nil, errcodes.PayloadTooLarge(s.maxBytes)
	}

	declared := fh.Header.Get("Content-Type")
	ext, err := resolveExtension(declared, mimetype.Detect(data))
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	name := id.String() + ext

	target, err := s.confine(name)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(target, data, 0644); err != nil { //nolint:gosec
		return nil, errors.WithStack(err)
	}

	saved := &SavedFile{
		Filename: name,
		Path:     target,
		MimeType: mimeForExtension(ext),
	}

	if ext == ".mp4" {
		durationMS, err := probeDurationMS(data)
		if err != nil {
			// The probe is best-effort metadata, never a reason to fail an
			// otherwise valid upload.
			logger.FromContext(ctx).Warn("could not probe mp4 duration", logger.Data{"filename": name, "error": err.Error()})
		} else {
			saved.DurationMS = durationMS
		}
	}

	return saved, nil
}

// Remove deletes a stored file by name, best-effort: a file that is already
// gone is success.
func (s *Store) Remove(filename string) error {
	if filename == "" {
		return nil
	}

	target, err := s.confine(filename)
	if err != nil {
		return err
	}

	err = os.Remove(target)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.WithStack(err)
	}
	return nil
}

// confine resolves a stored name and rejects anything that would escape the
// upload root or nest below it. Only direct children of the root are valid.
func (s *Store) confine(name string) (string, error) {
	target := filepath.Join(s.root, name)

	rel, err := filepath.Rel(s.root, target)
	if err != nil ||
		rel == "." ||
		strings.HasPrefix(rel, "..") ||
		filepath.IsAbs(rel) ||
		strings.ContainsRune(rel, os.PathSeparator) {
		return "", errcodes.ValidationError("Invalid file name.")
	}

	return target, nil
}

// resolveExtension reconciles the caller-declared type with the sniffed one.
// A recognized type outside the allow-list is rejected outright, as is a
// recognized type that conflicts with an allow-listed declared type. Only
// when sniffing finds no signature at all is the declared type trusted, and
// then only if it is itself allow-listed.
func resolveExtension(declared string, detected *mimetype.MIME) (string, error) {
	declared = strings.TrimSpace(strings.Split(declared, ";")[0])

	declaredExt := ""
	for _, a := range allowedTypes {
		if declared == a.mime {
			declaredExt = a.ext
			break
		}
	}

	detectedExt := ""
	for _, a := range allowedTypes {
		if detected.Is(a.mime) {
			detectedExt = a.ext
			break
		}
	}

	switch {
	case detectedExt != "":
		if declaredExt != "" && declaredExt != detectedExt {
			return "", errcodes.UnsupportedMediaType()
		}
		return detectedExt, nil
	case detected.String() == "application/octet-stream":
		// No recognizable signature.
		if declaredExt == "" {
			return "", errcodes.UnsupportedMediaType()
		}
		return declaredExt, nil
	default:
		return "", errcodes.UnsupportedMediaType()
	}
}

func mimeForExtension(ext string) string {
	for _, a := range allowedTypes {
		if a.ext == ext {
			return a.mime
		}
	}
	return ""
}
