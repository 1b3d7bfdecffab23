package files

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DocStore serves resource ids from a local directory, so a console session
// can be exercised without uploading anything to the Files API. A resource
// id of "files/report" matches report, report.pdf, report.txt or report.md
// under the directory.
type DocStore struct {
	dir string
}

// NewDocStore points a store at dir. The directory is not required to exist
// until the first fetch.
func NewDocStore(dir string) *DocStore {
	return &DocStore{dir: dir}
}

// Fetch loads the document named by resourceID and returns its plain text.
func (d *DocStore) Fetch(ctx context.Context, resourceID string) (string, error) {
	name := path.Base(strings.TrimSpace(resourceID))
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("docstore: invalid resource id %q", resourceID)
	}

	for _, candidate := range []string{name, name + ".pdf", name + ".txt", name + ".md"} {
		full := filepath.Join(d.dir, candidate)
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			continue
		}
		return d.read(full)
	}
	return "", fmt.Errorf("docstore: resource %q not found in %q", resourceID, d.dir)
}

func (d *DocStore) read(full string) (string, error) {
	if strings.EqualFold(filepath.Ext(full), ".pdf") {
		data, err := os.ReadFile(full)
		if err != nil {
			return "", fmt.Errorf("docstore: read %q: %w", full, err)
		}
		text, err := pdfText(data)
		if err != nil {
			return "", fmt.Errorf("docstore: extract pdf %q: %w", full, err)
		}
		return text, nil
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("docstore: read %q: %w", full, err)
	}
	return string(data), nil
}
