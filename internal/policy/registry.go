package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
)

// TypePolicy holds the submission rules for one request type.
type TypePolicy struct {
	Type           string  `json:"type"`
	Ceiling        float64 `json:"ceiling"`
	AmountRequired bool    `json:"amount_required"`
}

// Override is one entry of a policy file. Omitted fields keep the value of
// the type's current policy.
type Override struct {
	Type           string   `json:"type"`
	Ceiling        *float64 `json:"ceiling"`
	AmountRequired *bool    `json:"amount_required"`
}

type PolicyFile struct {
	Types []Override `json:"types"`
}

// DefaultExtensionCeiling applies to free-form request types.
const DefaultExtensionCeiling = 100000

var typeSlug = regexp.MustCompile(`^[a-z][a-z0-9_]{1,31}$`)

type Registry struct {
	mu       sync.RWMutex
	policies map[string]*TypePolicy
}

// NewRegistry returns a registry preloaded with the built-in types.
func NewRegistry() *Registry {
	r := &Registry{policies: make(map[string]*TypePolicy)}
	r.Register(&TypePolicy{Type: models.TypeLoan, Ceiling: 500000, AmountRequired: true})
	r.Register(&TypePolicy{Type: models.TypeMicrofinance, Ceiling: 50000, AmountRequired: true})
	r.Register(&TypePolicy{Type: models.TypeGeneral, Ceiling: 100000})
	return r
}

// LoadFromFile applies overrides from a JSON policy file on top of the
// built-in defaults. An empty path yields the defaults.
func LoadFromFile(path string) (*Registry, error) {
	registry := NewRegistry()
	if path == "" {
		return registry, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request policy: %w", err)
	}

	var file PolicyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse request policy: %w", err)
	}

	for _, o := range file.Types {
		if !typeSlug.MatchString(o.Type) {
			return nil, fmt.Errorf("invalid request type %q in policy", o.Type)
		}
		p, err := registry.merge(o)
		if err != nil {
			return nil, err
		}
		registry.Register(p)
	}
	return registry, nil
}

// merge applies o on top of the registered policy for its type, or on an
// empty policy for a new type, which then needs a ceiling.
func (r *Registry) merge(o Override) (*TypePolicy, error) {
	p := TypePolicy{Type: o.Type}
	r.mu.RLock()
	base, ok := r.policies[o.Type]
	if ok {
		p = *base
	}
	r.mu.RUnlock()

	if o.Ceiling != nil {
		p.Ceiling = *o.Ceiling
	}
	if o.AmountRequired != nil {
		p.AmountRequired = *o.AmountRequired
	}
	if p.Ceiling <= 0 {
		return nil, fmt.Errorf("ceiling for %q must be positive", o.Type)
	}
	return &p, nil
}

func (r *Registry) Register(p *TypePolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[p.Type] = p
}

// Lookup returns the policy for requestType. Unknown but well-formed types
// get the extension policy; malformed names return false.
func (r *Registry) Lookup(requestType string) (TypePolicy, bool) {
	r.mu.RLock()
	p, ok := r.policies[requestType]
	r.mu.RUnlock()
	if ok {
		return *p, true
	}
	if !typeSlug.MatchString(requestType) {
		return TypePolicy{}, false
	}
	return TypePolicy{Type: requestType, Ceiling: DefaultExtensionCeiling}, true
}

func (r *Registry) Builtin(requestType string) bool {
	switch requestType {
	case models.TypeLoan, models.TypeMicrofinance, models.TypeGeneral:
		return true
	}
	return false
}
