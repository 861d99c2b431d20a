package transport

import (
	"bytes"
	"fmt"
	"mime/multipart"
)

// FormField is one plain multipart field.
type FormField struct {
	Name  string
	Value string
}

// FormFile is the file part of a multipart body.
type FormFile struct {
	Field    string
	FileName string
	Content  []byte
}

// NewMultipartRequest builds a Request with a multipart/form-data body.
func NewMultipartRequest(method, url string, fields []FormField, file FormFile) (*Request, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, field := range fields {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", field.Name, err)
		}
	}

	part, err := writer.CreateFormFile(file.Field, file.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return &Request{
		Method:      method,
		URL:         url,
		Body:        body.Bytes(),
		ContentType: writer.FormDataContentType(),
	}, nil
}
