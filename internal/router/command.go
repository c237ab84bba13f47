package router

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type HandlerFunc func(ctx context.Context, req *Request) error

// Command binds a name to a handler plus the metadata the pipeline
// enforces before the handler runs.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Category    string

	AdminOnly bool
	GroupOnly bool
	// CooldownExempt commands (help/status style) never consume or hit
	// the rate limiter.
	CooldownExempt bool

	Handle HandlerFunc
}

// Registry resolves an incoming token to a command. Registration rejects
// nothing: a later Register under the same name silently replaces the
// earlier one. That is the documented contract, not an oversight.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	aliases  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		commands: map[string]*Command{},
		aliases:  map[string]string{},
	}
}

func (r *Registry) Register(cmd Command) {
	name := strings.ToLower(strings.TrimSpace(cmd.Name))
	if name == "" {
		return
	}
	cmd.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = &cmd
	for _, a := range cmd.Aliases {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			r.aliases[a] = name
		}
	}
}

// Resolve lower-cases the token, follows the alias map to the canonical
// name, and returns nil when nothing matches.
func (r *Registry) Resolve(token string) *Command {
	token = strings.ToLower(strings.TrimSpace(token))
	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[token]; ok {
		token = canonical
	}
	return r.commands[token]
}

func (r *Registry) All() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) ByCategory(category string) []*Command {
	var out []*Command
	for _, c := range r.All() {
		if strings.EqualFold(c.Category, category) {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) Categories() []string {
	r.mu.RLock()
	seen := map[string]bool{}
	var out []string
	for _, c := range r.commands {
		if !seen[c.Category] {
			seen[c.Category] = true
			out = append(out, c.Category)
		}
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// suggest returns a registered name the token is likely a typo of, or "".
// Purely best-effort UX; nothing depends on it.
func (r *Registry) suggest(token string) string {
	token = strings.ToLower(token)
	if len(token) < 3 {
		return ""
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name := range r.commands {
		if strings.HasPrefix(name, token) || strings.HasPrefix(token, name) {
			return name
		}
	}
	for alias, name := range r.aliases {
		if strings.HasPrefix(alias, token) || strings.HasPrefix(token, alias) {
			return name
		}
	}
	return ""
}
