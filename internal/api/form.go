package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
)

// Body decoding failures, each rendered with its own status.
var (
	errBodyTooLarge     = errors.New("request body too large")
	errUnsupportedMedia = errors.New("unsupported media type")
	errMalformedBody    = errors.New("malformed request body")
)

// requestForm is a decoded request body. JSON values keep their decoded
// type (string, bool, json.Number, nil, ...); form values are strings.
type requestForm struct {
	fields map[string]any
	files  map[string][]*multipart.FileHeader
}

// readForm decodes a JSON, urlencoded or multipart body of at most limit
// bytes.
func readForm(w http.ResponseWriter, r *http.Request, limit int64) (*requestForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	defer r.Body.Close()

	form := &requestForm{fields: map[string]any{}}

	contentType := r.Header.Get("Content-Type")
	mediaType := ""
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errUnsupportedMedia, contentType)
		}
		mediaType = mt
	}

	switch mediaType {
	case "application/json":
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&form.fields); err != nil {
			if errors.Is(err, io.EOF) {
				return form, nil
			}
			return nil, classifyBodyError(err)
		}
		if form.fields == nil {
			form.fields = map[string]any{}
		}

	case "multipart/form-data":
		if err := r.ParseMultipartForm(limit); err != nil {
			return nil, classifyBodyError(err)
		}
		for key, values := range r.MultipartForm.Value {
			if len(values) > 0 {
				form.fields[key] = values[0]
			}
		}
		form.files = r.MultipartForm.File

	case "", "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, classifyBodyError(err)
		}
		for key, values := range r.PostForm {
			if len(values) > 0 {
				form.fields[key] = values[0]
			}
		}

	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedMedia, mediaType)
	}

	return form, nil
}

func classifyBodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return errBodyTooLarge
	}
	return fmt.Errorf("%w: %v", errMalformedBody, err)
}

// writeFormError renders an error returned by readForm.
func writeFormError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, "Request body too large.")
	case errors.Is(err, errUnsupportedMedia):
		jsonError(w, http.StatusUnsupportedMediaType, "Unsupported media type in request.")
	case errors.Is(err, errMalformedBody):
		jsonError(w, http.StatusBadRequest, "Malformed request body.")
	default:
		writeError(w, r, err)
	}
}

// value returns the raw value of key and whether it was present.
func (f *requestForm) value(key string) (any, bool) {
	v, ok := f.fields[key]
	return v, ok
}

// string returns the value of key as text. Missing and null values are "".
func (f *requestForm) string(key string) string {
	switch v := f.fields[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// file opens the first uploaded file for key. ok is false when none was
// sent.
func (f *requestForm) file(key string) (multipart.File, bool, error) {
	headers := f.files[key]
	if len(headers) == 0 {
		return nil, false, nil
	}
	file, err := headers[0].Open()
	if err != nil {
		return nil, true, fmt.Errorf("opening upload %s: %w", key, err)
	}
	return file, true, nil
}
