package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"loopyard/internal/upload"
	"loopyard/internal/validate"
)

// maxMultipartMemory is the in-memory threshold for multipart parsing; larger
// parts spill to temp files. Size limits are enforced per file by the upload
// package so oversized files get a field error instead of a dropped request.
const maxMultipartMemory = 32 << 20

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func parseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return validate.Field("body", "invalid multipart body")
	}
	return nil
}

// formFile returns the uploaded file under field, or nil when absent.
func formFile(r *http.Request, field string) (*upload.File, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, validate.Field(field, "could not read uploaded file")
	}
	return &upload.File{Name: hdr.Filename, Size: hdr.Size, Reader: f}, nil
}

// formValue reports the first value for a multipart field and whether the
// field was present at all. Presence matters for partial updates.
func formValue(r *http.Request, name string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vals, ok := r.MultipartForm.Value[name]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func formStringPtr(r *http.Request, name string) *string {
	if v, ok := formValue(r, name); ok {
		return &v
	}
	return nil
}

func formIntPtr(r *http.Request, name string) (*int, error) {
	v, ok := formValue(r, name)
	if !ok || v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, validate.Field(name, "must be an integer")
	}
	return &n, nil
}

func formFloatPtr(r *http.Request, name string) (*float64, error) {
	v, ok := formValue(r, name)
	if !ok || v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, validate.Field(name, "must be a number")
	}
	return &f, nil
}

func formBoolPtr(r *http.Request, name string) (*bool, error) {
	v, ok := formValue(r, name)
	if !ok || v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, validate.Field(name, "must be true or false")
	}
	return &b, nil
}

// formTags gathers tag values. Repeated fields and comma-separated values are
// both accepted; the second form is what HTML forms typically send.
func formTags(r *http.Request, name string) ([]string, bool) {
	if r.MultipartForm == nil {
		return nil, false
	}
	vals, ok := r.MultipartForm.Value[name]
	if !ok {
		return nil, false
	}
	var tags []string
	for _, v := range vals {
		for _, t := range strings.Split(v, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags, true
}
