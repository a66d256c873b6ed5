package descriptor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/yaml"
)

// Decode parses a multi-document YAML or JSON manifest into descriptors.
// Empty documents are skipped.
func Decode(data []byte) ([]Descriptor, error) {
	decoder := yaml.NewYAMLOrJSONDecoder(bytes.NewReader(data), 4096)

	var out []Descriptor
	for i := 0; ; i++ {
		obj := &unstructured.Unstructured{}
		if err := decoder.Decode(obj); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode manifest document %d: %w", i, err)
		}
		if len(obj.Object) == 0 {
			continue
		}
		out = append(out, New(obj))
	}
	return out, nil
}

// AddManifest decodes a manifest and registers every document.
func (s *Store) AddManifest(data []byte) error {
	descriptors, err := Decode(data)
	if err != nil {
		return err
	}
	for _, d := range descriptors {
		if err := s.Add(d); err != nil {
			return err
		}
	}
	return nil
}

// AddFile reads and registers one manifest file.
func (s *Store) AddFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	if err := s.AddManifest(data); err != nil {
		return fmt.Errorf("manifest %s: %w", path, err)
	}
	return nil
}

// AddDir registers every .yaml/.yml file directly inside dir, in lexical
// order so loading is deterministic.
func (s *Store) AddDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read manifest directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isManifestFile(entry.Name()) {
			continue
		}
		if err := s.AddFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// AddFS registers every .yaml/.yml file under root in fsys. Used for the
// embedded catalog manifests.
func (s *Store) AddFS(fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk embedded manifests: %w", err)
		}
		if d.IsDir() || !isManifestFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("failed to read embedded manifest %s: %w", path, err)
		}
		if err := s.AddManifest(data); err != nil {
			return fmt.Errorf("embedded manifest %s: %w", path, err)
		}
		return nil
	})
}

func isManifestFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
