package sparql

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ontostock/ontostock-engine/pkg/apperrors"
)

// templateIDPattern guards against template IDs that could escape the
// templates directory.
var templateIDPattern = regexp.MustCompile(`^Template_[0-9A-Za-z]+$`)

// TemplateStore loads SPARQL template files by ID. Templates are plain
// text files named "<id>.txt" holding #PLACEHOLDER# tokens.
type TemplateStore struct {
	dir string
}

// NewTemplateStore verifies the directory exists and returns a store.
func NewTemplateStore(dir string) (*TemplateStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("templates directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("templates path %s is not a directory", dir)
	}
	return &TemplateStore{dir: dir}, nil
}

// Load returns the raw template text for the given ID.
func (s *TemplateStore) Load(templateID string) (string, error) {
	if !templateIDPattern.MatchString(templateID) {
		return "", fmt.Errorf("%w: invalid template id %q", apperrors.ErrTemplateNotFound, templateID)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, templateID+".txt"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", apperrors.ErrTemplateNotFound, templateID)
		}
		return "", err
	}
	return strings.TrimRight(string(data), "\n") + "\n", nil
}

// IDs lists the template IDs available in the store.
func (s *TemplateStore) IDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".txt")
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") && templateIDPattern.MatchString(name) {
			ids = append(ids, name)
		}
	}
	return ids, nil
}
