// Package postecho implements the content-type-dispatched POST body
// echo handler: it never touches disk, never mutates policy, and holds
// no state across requests.
package postecho

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

// FileEntry describes a single uploaded file part.
type FileEntry struct {
	FieldName string `json:"field_name"`
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
}

// Response is the canonical JSON shape returned for every POST, per
// spec.md §4.7 / §6.
type Response struct {
	Path        string            `json:"path"`
	ContentType string            `json:"content_type"`
	JSONData    any               `json:"json_data,omitempty"`
	FormData    map[string]string `json:"form_data,omitempty"`
	Files       []FileEntry       `json:"files,omitempty"`
	TextData    string            `json:"text_data,omitempty"`
	BinaryData  string            `json:"binary_data,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// BodyReadError reports an I/O failure while reading the request body.
type BodyReadError struct {
	Err error
}

func (e *BodyReadError) Error() string { return "reading request body: " + e.Err.Error() }
func (e *BodyReadError) Unwrap() error { return e.Err }

const binaryPlaceholder = "<binary data>"

// Handle reads r's body and builds the canonical Response, dispatching
// on the declared Content-Type as a sum of content-kind variants
// (multipart, json, urlencoded, text, other). logger may be nil.
func Handle(r *http.Request, logger *slog.Logger) (Response, int, error) {
	resp := Response{
		Path: strings.TrimPrefix(r.URL.Path, "/"),
	}

	rawType := r.Header.Get("Content-Type")
	if rawType == "" {
		resp.ContentType = "application/octet-stream"
	} else {
		resp.ContentType = rawType
	}

	mediaType, params, err := mime.ParseMediaType(resp.ContentType)
	if err != nil {
		resp.Error = "invalid Content-Type: " + err.Error()
		return resp, http.StatusOK, nil
	}

	switch {
	case mediaType == "multipart/form-data":
		if err := handleMultipart(r, params, &resp, logger); err != nil {
			return resp, http.StatusBadRequest, &BodyReadError{Err: err}
		}
	case mediaType == "application/json":
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return resp, http.StatusBadRequest, &BodyReadError{Err: err}
		}
		var parsed any
		if err := json.Unmarshal(body, &parsed); err != nil {
			resp.Error = "JSON parse error: " + err.Error()
			return resp, http.StatusBadRequest, nil
		}
		resp.JSONData = parsed
	case mediaType == "application/x-www-form-urlencoded":
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return resp, http.StatusBadRequest, &BodyReadError{Err: err}
		}
		resp.FormData = parseURLEncoded(string(body))
	case strings.HasPrefix(mediaType, "text/"):
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return resp, http.StatusBadRequest, &BodyReadError{Err: err}
		}
		if utf8.Valid(body) {
			resp.TextData = string(body)
		} else {
			resp.BinaryData = binaryPlaceholder
		}
	default:
		if _, err := io.Copy(io.Discard, r.Body); err != nil {
			return resp, http.StatusBadRequest, &BodyReadError{Err: err}
		}
		resp.BinaryData = binaryPlaceholder
	}

	return resp, http.StatusOK, nil
}

func handleMultipart(r *http.Request, params map[string]string, resp *Response, logger *slog.Logger) error {
	boundary := params["boundary"]
	if boundary == "" {
		if _, err := io.Copy(io.Discard, r.Body); err != nil {
			return err
		}
		resp.Error = "multipart/form-data request missing boundary parameter"
		return nil
	}
	reader := multipart.NewReader(r.Body, boundary)
	formData := map[string]string{}
	var files []FileEntry

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(formData) > 0 {
				resp.FormData = formData
			}
			if len(files) > 0 {
				resp.Files = files
			}
			return err
		}

		if part.FileName() != "" {
			size, err := io.Copy(io.Discard, part)
			part.Close()
			if err != nil {
				if logger != nil {
					logger.Debug("skipping multipart file field after read error",
						"field", part.FormName(), "filename", part.FileName(), "error", err)
				}
				continue
			}
			files = append(files, FileEntry{
				FieldName: part.FormName(),
				Filename:  part.FileName(),
				Size:      size,
			})
			continue
		}

		value, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			if logger != nil {
				logger.Debug("skipping multipart field after read error",
					"field", part.FormName(), "error", err)
			}
			continue
		}
		formData[part.FormName()] = string(value)
	}

	if len(formData) > 0 {
		resp.FormData = formData
	}
	if len(files) > 0 {
		resp.Files = files
	}
	return nil
}

func parseURLEncoded(body string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		key, err := url.QueryUnescape(kv[0])
		if err != nil {
			key = kv[0]
		}
		value := ""
		if len(kv) == 2 {
			if decoded, err := url.QueryUnescape(kv[1]); err == nil {
				value = decoded
			} else {
				value = kv[1]
			}
		}
		out[key] = value
	}
	return out
}
