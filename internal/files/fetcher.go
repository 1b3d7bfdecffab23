// Package files provides the resource-fetch capabilities the tool-call
// gatekeeper executes through: the Gemini Files API for files/<id> resource
// ids, and a local document directory for offline use.
package files

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"google.golang.org/genai"
)

// Service resolves resource ids through the Gemini Files API. PDF payloads
// are reduced to plain text before being handed back.
type Service struct {
	client *genai.Client
}

// NewService wraps an authenticated genai client.
func NewService(client *genai.Client) *Service {
	return &Service{client: client}
}

// Fetch downloads the file behind resourceID (e.g. "files/abc123") and
// returns its textual content.
func (s *Service) Fetch(ctx context.Context, resourceID string) (string, error) {
	file, err := s.client.Files.Get(ctx, resourceID, nil)
	if err != nil {
		return "", fmt.Errorf("files: get %q: %w", resourceID, err)
	}

	data, err := s.client.Files.Download(ctx, file, nil)
	if err != nil {
		return "", fmt.Errorf("files: download %q: %w", resourceID, err)
	}

	if strings.Contains(file.MIMEType, "pdf") {
		text, err := pdfText(data)
		if err != nil {
			return "", fmt.Errorf("files: extract pdf %q: %w", resourceID, err)
		}
		return text, nil
	}
	return string(data), nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
