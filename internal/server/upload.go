package server

import (
	"io"
	"net/http"

	errs "github.com/matzehuels/kitbash/pkg/errors"
)

// manifestField is the multipart field carrying the TOML project.
const manifestField = "manifest"

// maxFormMemory is how much of a multipart body is buffered in memory before
// spilling to temporary files.
const maxFormMemory = 16 << 20

type upload struct {
	manifest []byte
	assets   map[string][]byte
}

// readUpload parses a multipart project upload. The manifest may be sent as a
// plain field or a file; every other file field is an asset keyed by its
// field name, which must be a valid relative source path.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "expected a multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	up := &upload{assets: make(map[string][]byte)}
	if v := r.MultipartForm.Value[manifestField]; len(v) > 0 {
		up.manifest = []byte(v[0])
	}

	for field, files := range r.MultipartForm.File {
		if len(files) == 0 {
			continue
		}
		f, err := files[0].Open()
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read %s", field)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read %s", field)
		}

		if field == manifestField {
			up.manifest = data
			continue
		}
		if err := errs.ValidatePath(field); err != nil {
			return nil, err
		}
		up.assets[field] = data
	}
	return up, nil
}
