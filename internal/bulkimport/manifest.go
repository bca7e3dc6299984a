package bulkimport

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Manifest describes a batch of cards to upload.
type Manifest struct {
	// Collection targets a collection metadata id. Empty uploads to
	// the service default.
	Collection string `yaml:"collection"`

	// ImageRoot prefixes relative image paths. It is itself resolved
	// relative to the manifest file.
	ImageRoot string `yaml:"image_root"`

	Cards []ManifestCard `yaml:"cards"`
}

// ManifestCard is one row of the manifest. Quantity defaults to 1 and
// date to today when omitted.
type ManifestCard struct {
	Name     string `yaml:"name"`
	Rarity   string `yaml:"rarity"`
	Points   int    `yaml:"points"`
	Quantity int    `yaml:"quantity"`
	Date     string `yaml:"date"`
	Image    string `yaml:"image"`
}

// LoadManifest reads and strictly decodes a YAML manifest. Unknown
// fields are rejected so typos surface before any upload starts.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var manifest Manifest
	if err := dec.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if len(manifest.Cards) == 0 {
		return nil, fmt.Errorf("manifest %s lists no cards", path)
	}

	return &manifest, nil
}

// resolveImage anchors a row's image path at the manifest's directory,
// honoring ImageRoot.
func (m *Manifest) resolveImage(manifestPath, image string) string {
	if filepath.IsAbs(image) {
		return image
	}
	base := filepath.Dir(manifestPath)
	if m.ImageRoot != "" {
		if filepath.IsAbs(m.ImageRoot) {
			base = m.ImageRoot
		} else {
			base = filepath.Join(base, m.ImageRoot)
		}
	}
	return filepath.Join(base, image)
}

// NormalizeName canonicalizes a card name: Unicode NFC so composed and
// decomposed spellings store identically, with whitespace collapsed.
// Search is prefix-match on the stored name, so the stored form has to
// be predictable.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}
