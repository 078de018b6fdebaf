package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
)

// Form builds a multipart/form-data body the way the agency API
// expects: each nested draft section JSON-stringified into its own
// field, files under their fixed field names, and metadata arrays
// aligned index-for-index with the file fields.
type Form struct {
	fields []fieldPart
	files  []filePart
}

type fieldPart struct {
	name  string
	value string
}

type filePart struct {
	field    string
	filename string
	data     []byte
}

// NewForm creates an empty form.
func NewForm() *Form {
	return &Form{}
}

// AddField appends a plain string field.
func (f *Form) AddField(name, value string) *Form {
	f.fields = append(f.fields, fieldPart{name: name, value: value})
	return f
}

// AddJSON appends a field holding the JSON encoding of v. Nil values
// are omitted entirely rather than sent as "null": absent sections must
// not reach the server as garbage.
func (f *Form) AddJSON(name string, v interface{}) error {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode field %s: %w", name, err)
	}
	f.fields = append(f.fields, fieldPart{name: name, value: string(data)})
	return nil
}

// AddFile appends a file part.
func (f *Form) AddFile(field, filename string, data []byte) *Form {
	f.files = append(f.files, filePart{field: field, filename: filename, data: data})
	return f
}

// Encode renders the body and returns it with the content type
// (including the boundary). The bytes can be replayed on retry.
func (f *Form) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range f.fields {
		if err := w.WriteField(p.name, p.value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", p.name, err)
		}
	}
	for _, p := range f.files {
		fw, err := w.CreateFormFile(p.field, p.filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file part %s: %w", p.field, err)
		}
		if _, err := fw.Write(p.data); err != nil {
			return nil, "", fmt.Errorf("failed to write file part %s: %w", p.field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// filenameFromDisposition pulls the filename out of a
// Content-Disposition header; empty when absent or unparsable.
func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
