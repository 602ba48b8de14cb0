// Package store loads and persists versioned model artifact bundles. A
// bundle is a directory holding a manifest, the fitted TF-IDF vocabulary,
// the boosted-tree ensemble, and the sentence encoder files. The manifest
// carries SHA-256 checksums for every payload file; nothing is served from a
// bundle that fails verification.
package store

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/triage/internal/engine/classifier"
	"github.com/crimson-sun/triage/internal/engine/features"
	"github.com/crimson-sun/triage/internal/engine/lexical"
)

// SchemaVersion is the bundle layout version this engine understands.
const SchemaVersion = 1

const (
	manifestFile = "manifest.yaml"
	tfidfFile    = "tfidf.json"
	ensembleFile = "ensemble.json"
)

var (
	// ErrArtifactCorrupt marks a bundle whose contents fail checksum or
	// structural verification. Always fatal: the engine must not serve from it.
	ErrArtifactCorrupt = errors.New("artifact corrupt")

	// ErrVersionMismatch marks a bundle written for an incompatible schema
	// version. Always fatal.
	ErrVersionMismatch = errors.New("artifact schema version mismatch")
)

// EncoderRef points at the sentence encoder files inside the bundle. Paths
// are relative to the bundle directory so bundles stay relocatable.
type EncoderRef struct {
	Model      string `yaml:"model"`
	Vocab      string `yaml:"vocab"`
	RuntimeLib string `yaml:"runtime_lib"`
}

// TrainingMeta records provenance of the trained model.
type TrainingMeta struct {
	TrainedAt time.Time `yaml:"trained_at"`
	Examples  int       `yaml:"examples"`
	Accuracy  float64   `yaml:"accuracy"`
}

// Manifest is the bundle's self-description. Everything the engine needs to
// stay version-consistent lives here: the label set, the feature layout, the
// pinned repository slots, and the payload checksums.
type Manifest struct {
	SchemaVersion int               `yaml:"schema_version"`
	ID            string            `yaml:"id"`
	CreatedAt     time.Time         `yaml:"created_at"`
	Labels        []string          `yaml:"labels"`
	Layout        features.Layout   `yaml:"layout"`
	Repos         map[string]int    `yaml:"repos,omitempty"`
	Encoder       EncoderRef        `yaml:"encoder"`
	Checksums     map[string]string `yaml:"checksums"`
	Training      TrainingMeta      `yaml:"training"`
}

// Artifact is a fully loaded, verified bundle. Read-only after Load: an
// update means loading a new Artifact and rebuilding the engine around it.
type Artifact struct {
	Dir      string
	Manifest Manifest
	Terms    []lexical.Term
	Ensemble classifier.Ensemble
}

// EncoderModelPath returns the absolute path of the ONNX encoder model.
func (a *Artifact) EncoderModelPath() string {
	return filepath.Join(a.Dir, a.Manifest.Encoder.Model)
}

// EncoderVocabPath returns the absolute path of the encoder's WordPiece vocab.
func (a *Artifact) EncoderVocabPath() string {
	return filepath.Join(a.Dir, a.Manifest.Encoder.Vocab)
}

// EncoderLibPath returns the absolute path of the ONNX Runtime shared library.
func (a *Artifact) EncoderLibPath() string {
	return filepath.Join(a.Dir, a.Manifest.Encoder.RuntimeLib)
}

// Load reads and verifies a bundle directory. It fails with
// ErrVersionMismatch before looking at any payload, then with
// ErrArtifactCorrupt on checksum or structural damage. Only a fully verified
// artifact is ever returned.
func Load(dir string) (*Artifact, error) {
	raw, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("store: read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("store: %w: manifest unparseable: %v", ErrArtifactCorrupt, err)
	}
	if m.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("store: %w: bundle has schema %d, engine expects %d",
			ErrVersionMismatch, m.SchemaVersion, SchemaVersion)
	}
	if len(m.Labels) == 0 {
		return nil, fmt.Errorf("store: %w: manifest has no labels", ErrArtifactCorrupt)
	}

	required := []string{tfidfFile, ensembleFile}
	for _, rel := range []string{m.Encoder.Model, m.Encoder.Vocab, m.Encoder.RuntimeLib} {
		if rel != "" {
			required = append(required, rel)
		}
	}
	if err := verifyChecksums(dir, m.Checksums, required); err != nil {
		return nil, err
	}

	var terms struct {
		Terms []lexical.Term `json:"terms"`
	}
	if err := readJSON(filepath.Join(dir, tfidfFile), &terms); err != nil {
		return nil, err
	}

	var ensemble classifier.Ensemble
	if err := readJSON(filepath.Join(dir, ensembleFile), &ensemble); err != nil {
		return nil, err
	}

	if ensemble.NumClass != len(m.Labels) {
		return nil, fmt.Errorf("store: %w: ensemble has %d classes, manifest lists %d labels",
			ErrArtifactCorrupt, ensemble.NumClass, len(m.Labels))
	}

	return &Artifact{
		Dir:      dir,
		Manifest: m,
		Terms:    terms.Terms,
		Ensemble: ensemble,
	}, nil
}

// Save writes the artifact as a new bundle at dir. The bundle is assembled
// in a temporary sibling directory and renamed into place, so a crash
// mid-write never leaves a partial bundle visible to readers. A fresh ULID
// is minted as the bundle id. dir must not already exist.
func Save(a *Artifact, dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("store: save target %s already exists", dir)
	}

	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	tmp := dir + ".tmp-" + id
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer os.RemoveAll(tmp) // no-op after successful rename

	checksums := make(map[string]string)

	write := func(rel string, data []byte) error {
		path := filepath.Join(tmp, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("store: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("store: write %s: %w", rel, err)
		}
		sum := sha256.Sum256(data)
		checksums[rel] = hex.EncodeToString(sum[:])
		return nil
	}

	termsDoc := struct {
		Terms []lexical.Term `json:"terms"`
	}{Terms: a.Terms}
	termsJSON, err := json.Marshal(termsDoc)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := write(tfidfFile, termsJSON); err != nil {
		return err
	}

	ensembleJSON, err := json.Marshal(a.Ensemble)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := write(ensembleFile, ensembleJSON); err != nil {
		return err
	}

	// Carry the encoder files over from the source bundle.
	for _, rel := range []string{a.Manifest.Encoder.Model, a.Manifest.Encoder.Vocab, a.Manifest.Encoder.RuntimeLib} {
		if rel == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(a.Dir, rel))
		if err != nil {
			return fmt.Errorf("store: read encoder file %s: %w", rel, err)
		}
		if err := write(rel, data); err != nil {
			return err
		}
	}

	m := a.Manifest
	m.SchemaVersion = SchemaVersion
	m.ID = id
	m.CreatedAt = time.Now().UTC()
	m.Checksums = checksums

	manifestYAML, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	// The manifest itself is not checksummed (it holds the checksums).
	if err := os.WriteFile(filepath.Join(tmp, manifestFile), manifestYAML, 0o644); err != nil {
		return fmt.Errorf("store: write manifest: %w", err)
	}

	if err := os.Rename(tmp, dir); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// verifyChecksums recomputes the SHA-256 of every listed file. Every required
// file must have an entry: a manifest that omits a payload from its checksum
// map cannot vouch for it.
func verifyChecksums(dir string, sums map[string]string, required []string) error {
	if len(sums) == 0 {
		return fmt.Errorf("store: %w: manifest lists no checksums", ErrArtifactCorrupt)
	}
	for _, rel := range required {
		if _, ok := sums[rel]; !ok {
			return fmt.Errorf("store: %w: manifest missing checksum for %s", ErrArtifactCorrupt, rel)
		}
	}
	for rel, want := range sums {
		got, err := fileSHA256(filepath.Join(dir, rel))
		if err != nil {
			return fmt.Errorf("store: %w: %s: %v", ErrArtifactCorrupt, rel, err)
		}
		if got != want {
			return fmt.Errorf("store: %w: checksum mismatch for %s", ErrArtifactCorrupt, rel)
		}
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("store: %w: %v", ErrArtifactCorrupt, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: %w: %s unparseable: %v", ErrArtifactCorrupt, filepath.Base(path), err)
	}
	return nil
}
