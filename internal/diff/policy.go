package diff

import (
	"errors"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zakopane-go/zakopane/internal/core/domain"
)

// Policy is a set of rules a path is held to between two snapshots.
type Policy uint8

const (
	// Ignore holds a path to nothing.
	Ignore Policy = 0
	// NoAdd forbids the path from appearing.
	NoAdd Policy = 1 << (iota - 1)
	// NoDelete forbids the path from disappearing.
	NoDelete
	// NoModify forbids the content from changing.
	NoModify

	// Immutable combines every rule.
	Immutable = NoAdd | NoDelete | NoModify
)

var policyTokens = []struct {
	name   string
	policy Policy
}{
	{"ignore", Ignore},
	{"noadd", NoAdd},
	{"nodelete", NoDelete},
	{"nomodify", NoModify},
	{"immutable", Immutable},
}

// ParsePolicy reads a comma-separated list of policy tokens. Tokens
// combine, and repeats are harmless.
func ParsePolicy(s string) (Policy, error) {
	var p Policy
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		found := false
		for _, t := range policyTokens {
			if t.name == tok {
				p |= t.policy
				found = true
				break
			}
		}
		if !found {
			return 0, domain.ErrInvalidArgument.WithDetailsf("unknown policy token %q", tok)
		}
	}
	return p, nil
}

// Has reports whether p includes every rule in q.
func (p Policy) Has(q Policy) bool { return p&q == q }

// IsIgnore reports whether p holds a path to nothing.
func (p Policy) IsIgnore() bool { return p == Ignore }

func (p Policy) String() string {
	switch p {
	case Ignore:
		return "ignore"
	case Immutable:
		return "immutable"
	}
	var names []string
	for _, t := range policyTokens[1:4] {
		if p.Has(t.policy) {
			names = append(names, t.name)
		}
	}
	return strings.Join(names, ",")
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

type rule struct {
	prefix string
	policy Policy
}

// Policies maps path prefixes to policies, falling back to a default.
type Policies struct {
	def   Policy
	rules []rule
}

// NewPolicies builds a rule set from prefix rules and a default.
func NewPolicies(def Policy, prefixes map[string]Policy) *Policies {
	p := &Policies{def: def, rules: make([]rule, 0, len(prefixes))}
	for prefix, policy := range prefixes {
		p.rules = append(p.rules, rule{prefix: prefix, policy: policy})
	}
	sort.Slice(p.rules, func(i, j int) bool { return p.rules[i].prefix < p.rules[j].prefix })
	return p
}

// Default returns the policy for paths no prefix matches.
func (p *Policies) Default() Policy { return p.def }

// Rules returns the number of rules, counting the default.
func (p *Policies) Rules() int { return 1 + len(p.rules) }

// Match returns the policy of the longest prefix of path, or the default.
// Prefixes compare as plain strings: "food/" does not match "food.md".
func (p *Policies) Match(path string) Policy {
	best, found := "", false
	policy := p.def
	for _, r := range p.rules {
		if strings.HasPrefix(path, r.prefix) && (!found || len(r.prefix) > len(best)) {
			best, found, policy = r.prefix, true, r.policy
		}
	}
	return policy
}

// policyDocument is the YAML layout of a policy file.
type policyDocument struct {
	DefaultPolicy *string           `yaml:"default-policy"`
	Policies      map[string]string `yaml:"policies"`
}

// ParsePolicies reads a policy document. An empty document yields
// Immutable for every path.
func ParsePolicies(r io.Reader) (*Policies, error) {
	var doc policyDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, domain.ErrInvalidArgument.WithDetails("policy file").WithCause(err)
	}

	def := Immutable
	if doc.DefaultPolicy != nil {
		p, err := ParsePolicy(*doc.DefaultPolicy)
		if err != nil {
			return nil, err
		}
		def = p
	}

	prefixes := make(map[string]Policy, len(doc.Policies))
	for prefix, tokens := range doc.Policies {
		p, err := ParsePolicy(tokens)
		if err != nil {
			return nil, domain.ErrInvalidArgument.WithDetailsf("policy for %q", prefix).WithCause(err)
		}
		prefixes[prefix] = p
	}
	return NewPolicies(def, prefixes), nil
}

// LoadPolicies reads the policy file at path.
func LoadPolicies(path string) (*Policies, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.ErrStorage.WithDetails(path).WithCause(err)
	}
	defer f.Close()
	return ParsePolicies(f)
}

// WithDefault returns a copy of p whose default is def.
func (p *Policies) WithDefault(def Policy) *Policies {
	return &Policies{def: def, rules: p.rules}
}

// Violations keeps the changes whose path is held to NoModify. Additions
// and deletions are never reported, whatever the policy says.
func Violations(changes []Change, p *Policies) []Change {
	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		if p.Match(c.Path).Has(NoModify) {
			out = append(out, c)
		}
	}
	return out
}
