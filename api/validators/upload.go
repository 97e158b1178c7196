package validators

import (
	"errors"
	"io"
	"mime"
	"net/http"

	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

const (
	UploadField     = "file"
	multipartMemory = 8 << 20
)

// ReadUpload returns the export bytes from the multipart "file" part, or the
// raw body for any other content type. Bodies past maxBytes are rejected.
func ReadUpload(r *http.Request, maxBytes int64) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(min(maxBytes, multipartMemory)); err != nil {
			return nil, uploadError(err, maxBytes)
		}
		file, _, err := r.FormFile(UploadField)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "export file required").
				WithDetails(map[string]any{"field": UploadField})
		}
		defer file.Close()
		return readLimited(file, maxBytes)
	}
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()
	return readLimited(r.Body, maxBytes)
}

func readLimited(src io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, uploadError(err, maxBytes)
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
	if err != nil {
		return nil, uploadError(err, maxBytes)
	}
	if int64(len(data)) > maxBytes {
		return nil, tooLarge(maxBytes)
	}
	return data, nil
}

func uploadError(err error, maxBytes int64) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return tooLarge(mbe.Limit)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid upload").WithDetails(map[string]any{"error": err.Error()})
}

func tooLarge(limit int64) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "upload too large").WithDetails(map[string]any{"limitBytes": limit})
}
