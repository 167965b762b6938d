package settings

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// filePermissions is the mode settings files are written with.
const filePermissions = 0600

// dirPermissions is the mode of directories created for settings files.
const dirPermissions = 0750

// Format identifies the encoding of a settings file.
type Format string

// Supported file formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor returns the format implied by the extension of path.
//
// Returns:
//   - Format: FormatYAML for .yaml/.yml, FormatTOML for .toml
//   - error: ErrUnknownFormat for anything else
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// FileStore keeps settings in memory and persists them to a YAML or TOML
// file. Each section becomes a top-level table/mapping:
//
//	logq:
//	  '*default*': DEBUG
//	  net-Conn: WARNING
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type FileStore struct {
	sections
	path   string
	format Format

	// digest is the hash of the file as last read or written; guarded by mu.
	digest [sha256.Size]byte
}

// OpenFile creates a FileStore backed by path and loads its contents.
// A missing file is an empty store; it is created by the first Sync.
//
// Parameters:
//   - path: Settings file; the extension selects the format
//
// Returns:
//   - *FileStore: Loaded store
//   - error: ErrUnknownFormat, a read error, or ErrDecode
func OpenFile(path string) (*FileStore, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	s := &FileStore{
		sections: newSections(),
		path:     path,
		format:   format,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file the store is backed by.
func (s *FileStore) Path() string {
	return s.path
}

// Format returns the encoding used for the file.
func (s *FileStore) Format() Format {
	return s.format
}

// Reload discards in-memory values and re-reads the file.
func (s *FileStore) Reload() error {
	raw, err := s.read()
	if err != nil {
		return err
	}

	var data map[string]map[string]string
	if raw != nil {
		if data, err = decode(s.format, raw); err != nil {
			return fmt.Errorf("%w %s: %w", ErrDecode, s.path, err)
		}
	}

	s.mu.Lock()
	s.replace(data)
	s.digest = sha256.Sum256(raw)
	s.mu.Unlock()
	return nil
}

// Changed reports whether the file differs from what the store last read
// or wrote. A watcher uses it to ignore the store's own Sync.
func (s *FileStore) Changed() (bool, error) {
	raw, err := s.read()
	if err != nil {
		return false, err
	}
	sum := sha256.Sum256(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	return sum != s.digest, nil
}

// read returns the file contents, or nil when the file does not exist.
func (s *FileStore) read() ([]byte, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}
	return raw, nil
}

// Sync writes every section to the file. The write goes to a temporary
// file in the same directory which is then renamed over the target, so
// readers never see a partial file.
func (s *FileStore) Sync() error {
	s.mu.Lock()
	snapshot := s.snapshot()
	s.mu.Unlock()

	raw, err := encode(s.format, snapshot)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // Gone after a successful rename

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close() //nolint:errcheck // Write error takes precedence
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck // Sync error takes precedence
		return fmt.Errorf("flushing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing settings: %w", err)
	}
	if err := os.Chmod(tmpName, filePermissions); err != nil {
		return fmt.Errorf("setting settings file mode: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing settings file: %w", err)
	}

	s.mu.Lock()
	s.digest = sha256.Sum256(raw)
	s.mu.Unlock()
	return nil
}

// decode parses raw into sections. Scalar values of any type are kept in
// their textual form so hand-edited files may write levels as numbers.
func decode(format Format, raw []byte) (map[string]map[string]string, error) {
	var doc map[string]map[string]any

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
	case FormatTOML:
		if err := toml.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	data := make(map[string]map[string]string, len(doc))
	for name, sec := range doc {
		values := make(map[string]string, len(sec))
		for k, v := range sec {
			if v == nil {
				continue
			}
			values[k] = fmt.Sprint(v)
		}
		data[name] = values
	}
	return data, nil
}

// encode renders sections in the given format.
func encode(format Format, data map[string]map[string]string) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		return toml.Marshal(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
