package scoring

import (
	"encoding"
	"fmt"
	"os"
	"path/filepath"
)

func ClassifierPath(dir string, v Variant) string {
	return filepath.Join(dir, string(v)+"_classifier.bin")
}

func ScalerPath(dir string, v Variant) string {
	return filepath.Join(dir, string(v)+"_scaler.bin")
}

func LoadModel(path string) (*Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := &Model{}
	if err := m.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func LoadScaler(path string) (*StandardScaler, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := &StandardScaler{}
	if err := s.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// SaveArtifacts writes the scaler and classifier for a variant into dir.
func SaveArtifacts(dir string, v Variant, scaler *StandardScaler, model *Model) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	if err := writeBinary(ScalerPath(dir, v), scaler); err != nil {
		return err
	}
	return writeBinary(ClassifierPath(dir, v), model)
}

func writeBinary(path string, m encoding.BinaryMarshaler) error {
	b, err := m.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
