// Package cache decides whether a generation run can be skipped. It keeps a
// msgpack manifest next to the artifacts recording the package identity, a
// digest per input file, and a digest of the emitted library.json. When every
// recorded digest still matches the current inputs and the output file is
// intact, the library model cannot have changed and the pipeline need not run.
//
// The manifest never feeds data into the pipeline; a stale or corrupt manifest
// simply forces a fresh run.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/fuzdev/libmap/internal/source"
)

// ManifestName is the file written next to the generated artifacts.
const ManifestName = ".libmap-manifest.mp"

// schemaVersion invalidates manifests written by incompatible releases.
const schemaVersion uint16 = 1

// Manifest records the complete input and output state of one generation run.
type Manifest struct {
	Schema  uint16
	Name    string
	Version string
	// Files maps marker-relative source paths to hex-encoded SHA-256 digests.
	Files map[string]string
	// Output is the digest of the library.json bytes that were written.
	Output string
}

// Digest returns the hex-encoded SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Snapshot builds a manifest from the inputs and output of a finished run.
// Files without loaded content are read from disk.
func Snapshot(name, version string, files []source.File, o *source.Options, output []byte) (*Manifest, error) {
	m := &Manifest{
		Schema:  schemaVersion,
		Name:    name,
		Version: version,
		Files:   make(map[string]string, len(files)),
		Output:  Digest(output),
	}
	for _, f := range files {
		content, err := fileContent(f)
		if err != nil {
			return nil, err
		}
		m.Files[o.ExtractPath(f.Path)] = Digest(content)
	}
	return m, nil
}

// Load reads a manifest from path. A missing file reports (nil, nil); an
// unreadable manifest or one written under a different schema version is
// treated as missing.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, nil
	}
	if m.Schema != schemaVersion {
		return nil, nil
	}
	return &m, nil
}

// Write atomically replaces the manifest at path.
func (m *Manifest) Write(path string) error {
	data, err := msgpack.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), "manifest-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Fresh reports whether the recorded state still describes the current
// inputs: same identity, same file set, same content digests, and an output
// file at outputPath whose bytes still match the recorded digest.
func (m *Manifest) Fresh(name, version string, files []source.File, o *source.Options, outputPath string) bool {
	if m == nil || m.Name != name || m.Version != version || len(m.Files) != len(files) {
		return false
	}
	for _, f := range files {
		want, ok := m.Files[o.ExtractPath(f.Path)]
		if !ok {
			return false
		}
		content, err := fileContent(f)
		if err != nil {
			return false
		}
		if Digest(content) != want {
			return false
		}
	}
	out, err := os.ReadFile(outputPath)
	if err != nil {
		return false
	}
	return Digest(out) == m.Output
}

func fileContent(f source.File) ([]byte, error) {
	if f.Content != nil {
		return f.Content, nil
	}
	data, err := os.ReadFile(filepath.FromSlash(f.Path))
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", f.Path, err)
	}
	return data, nil
}
