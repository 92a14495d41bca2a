package diligence

import (
	"embed"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	models "diligence/internal/domain/models/diligence"
)

//go:embed config/*.yaml
var configFiles embed.FS

// minMatchLength keeps one- and two-letter fragments from matching every principal
const minMatchLength = 3

type principalsFile struct {
	Principals []models.Principal `yaml:"principals"`
}

// Registry is the read-only set of known principals
type Registry struct {
	principals []models.Principal
	byID       map[string]int
}

// NewRegistry loads the embedded principal list
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/principals.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded principals: %w", err)
	}
	return parseRegistry(data, "config/principals.yaml")
}

// LoadRegistryFile loads principals from a YAML file instead of the embedded list
func LoadRegistryFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return parseRegistry(data, path)
}

// NewRegistryFromPrincipals builds a registry from an in-memory list
func NewRegistryFromPrincipals(principals []models.Principal) (*Registry, error) {
	r := &Registry{byID: make(map[string]int, len(principals))}
	for _, p := range principals {
		if p.ID == "" || strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("principal %q: id and name are required", p.ID)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate principal id %q", p.ID)
		}
		r.byID[p.ID] = len(r.principals)
		r.principals = append(r.principals, p)
	}
	return r, nil
}

func parseRegistry(data []byte, source string) (*Registry, error) {
	var file principalsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", source, err)
	}
	r, err := NewRegistryFromPrincipals(file.Principals)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return r, nil
}

// Get returns the principal with the given id
func (r *Registry) Get(id string) (models.Principal, bool) {
	i, ok := r.byID[id]
	if !ok {
		return models.Principal{}, false
	}
	return r.principals[i], true
}

// List returns every principal in file order
func (r *Registry) List() []models.Principal {
	return append([]models.Principal{}, r.principals...)
}

// Match finds the principal an investor name refers to. Comparison ignores
// case, punctuation and spacing and only matches whole words: a principal
// name or alias appearing inside the investor name matches, and so does an
// investor name of at least two words that opens a principal name. Principals
// listed in exclude never match. The first principal in file order wins.
func (r *Registry) Match(investorName string, exclude ...string) (models.Principal, bool) {
	needle := strings.Fields(normalizeName(investorName))
	if utf8.RuneCountInString(strings.Join(needle, " ")) < minMatchLength {
		return models.Principal{}, false
	}

	for _, p := range r.principals {
		if slices.Contains(exclude, p.ID) {
			continue
		}
		for _, candidate := range append([]string{p.Name}, p.Aliases...) {
			name := normalizeName(candidate)
			if utf8.RuneCountInString(name) < minMatchLength {
				continue
			}
			words := strings.Fields(name)
			if containsWords(needle, words) {
				return p, true
			}
			if len(needle) >= 2 && len(needle) < len(words) && slices.Equal(words[:len(needle)], needle) {
				return p, true
			}
		}
	}
	return models.Principal{}, false
}

// containsWords reports whether sub appears as a contiguous run of words in words
func containsWords(words, sub []string) bool {
	for i := 0; i+len(sub) <= len(words); i++ {
		if slices.Equal(words[i:i+len(sub)], sub) {
			return true
		}
	}
	return false
}

// normalizeName lowercases and reduces every run of non-alphanumerics to a single space
func normalizeName(name string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(name) {
		if isAlnum(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			space = false
			continue
		}
		space = true
	}
	return b.String()
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r > utf8.RuneSelf
}
