package receipt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Receipt describes one finished build.
type Receipt struct {
	App           string        `yaml:"app"`
	Bundle        string        `yaml:"bundle"`
	Archive       string        `yaml:"archive,omitempty"`
	RuntimeBase   string        `yaml:"runtime_base"`
	EnvDir        string        `yaml:"env_dir"`
	PythonVersion string        `yaml:"python_version"`
	Packages      []string      `yaml:"packages"`
	Signed        bool          `yaml:"signed"`
	Duration      time.Duration `yaml:"duration"`
	BuiltAt       time.Time     `yaml:"built_at"`
	ToolVersion   string        `yaml:"tool_version"`
}

// Repository defines persistence operations for build receipts.
type Repository interface {
	Load(ctx context.Context) (*Receipt, error)
	Save(ctx context.Context, receipt *Receipt) error
}

// FileRepository persists a receipt to a YAML file on disk.
type FileRepository struct {
	// path is the filesystem location of the receipt file.
	path string
	// mu protects concurrent access to the receipt file.
	mu sync.Mutex
}

const (
	// filenameSuffix follows the application name in the receipt file name.
	filenameSuffix = ".receipt.yaml"
	// fileMode is the permission of written receipts.
	fileMode os.FileMode = 0o644
)

// ErrNotFound is returned when no receipt was written yet.
var ErrNotFound = errors.New("receipt not found")

// PathFor returns <buildPath>/<name>.receipt.yaml.
func PathFor(buildPath, name string) string {
	return filepath.Join(buildPath, name+filenameSuffix)
}

// NewFileRepository creates a repository that reads and writes YAML at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the receipt from disk.
func (r *FileRepository) Load(_ context.Context) (*Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read receipt file: %w", err)
	}

	var receipt Receipt
	if err = yaml.Unmarshal(contents, &receipt); err != nil {
		return nil, fmt.Errorf("decode receipt file: %w", err)
	}

	return &receipt, nil
}

// Save writes the receipt to disk, creating the parent folder if needed.
func (r *FileRepository) Save(_ context.Context, receipt *Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create receipt folder: %w", err)
	}

	if err = os.WriteFile(r.path, data, fileMode); err != nil {
		return fmt.Errorf("write receipt file: %w", err)
	}

	return nil
}
