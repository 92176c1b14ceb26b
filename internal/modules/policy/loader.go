package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Loader reads policy documents from a directory. Each policy is stored as
// policy_<name>.json (e.g. policy_safe.json, policy_aggressive.json).
type Loader struct {
	dir string
	log zerolog.Logger
}

// NewLoader creates a policy loader rooted at dir.
func NewLoader(dir string, log zerolog.Logger) *Loader {
	return &Loader{
		dir: dir,
		log: log.With().Str("service", "policy_loader").Logger(),
	}
}

// Load reads and parses the policy document with the given name.
func (l *Loader) Load(name string) (*Document, error) {
	path := filepath.Join(l.dir, fmt.Sprintf("policy_%s.json", name))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy %q: %w", name, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse policy %q: %w", name, err)
	}

	if doc.Name == "" {
		doc.Name = name
	}

	l.log.Debug().Str("policy", name).Str("version", doc.Version).Msg("Policy loaded")
	return &doc, nil
}
