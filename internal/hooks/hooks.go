// Where: internal/hooks/hooks.go
// What: Registry of checks run against every materialized stack.
// Why: Teams encode naming and tagging conventions once, as hooks, and
// every CreateStack call enforces them without per-test boilerplate.
package hooks

import (
	"fmt"
	"sort"

	"github.com/cloudgauge/raincheck/internal/stack"
	"github.com/cloudgauge/raincheck/internal/template"
)

// ResourceContext is handed to each resource hook.
type ResourceContext struct {
	Resource *stack.Resource
	Stack    *stack.Stack
	Template *template.Template
}

// ResourceHook checks one rendered resource. A non-nil error fails the
// whole CreateStack call.
type ResourceHook struct {
	Name string
	Fn   func(ctx *ResourceContext) error
}

// TemplateHook checks the whole rendered stack.
type TemplateHook struct {
	Name string
	Fn   func(s *stack.Stack, t *template.Template) error
}

// Registry holds hooks keyed by resource type, split into a global tier
// shared across a codebase and a local tier owned by one suite. Global
// hooks run before local ones.
type Registry struct {
	global    map[string][]ResourceHook
	local     map[string][]ResourceHook
	templates []TemplateHook
}

func NewRegistry() *Registry {
	return &Registry{
		global: map[string][]ResourceHook{},
		local:  map[string][]ResourceHook{},
	}
}

// Global registers hooks for a resource type in the shared tier.
func (r *Registry) Global(resourceType string, hooks ...ResourceHook) {
	r.global[resourceType] = append(r.global[resourceType], hooks...)
}

// Local registers hooks for a resource type in the suite-local tier.
func (r *Registry) Local(resourceType string, hooks ...ResourceHook) {
	r.local[resourceType] = append(r.local[resourceType], hooks...)
}

// Template registers hooks that see the whole stack.
func (r *Registry) Template(hooks ...TemplateHook) {
	r.templates = append(r.templates, hooks...)
}

// Evaluate runs every applicable hook against a freshly materialized
// stack. Hooks named in the reserved metadata ignore list, at template
// or individual resource scope, are skipped.
func (r *Registry) Evaluate(s *stack.Stack, t *template.Template) error {
	ignored := nameSet(t.IgnoredHooks())

	for _, tier := range []map[string][]ResourceHook{r.global, r.local} {
		if err := r.evaluateTier(tier, s, t, ignored); err != nil {
			return err
		}
	}

	for _, hook := range r.templates {
		if _, skip := ignored[hook.Name]; skip {
			continue
		}
		if err := hook.Fn(s, t); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name, err)
		}
	}
	return nil
}

func (r *Registry) evaluateTier(tier map[string][]ResourceHook, s *stack.Stack, t *template.Template, ignored map[string]struct{}) error {
	resources := s.Data()["Resources"]
	entries, _ := resources.(map[string]any)

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		resource, err := s.GetResource(name)
		if err != nil {
			return err
		}
		resourceType, err := resource.Type()
		if err != nil {
			return err
		}

		localIgnored := resourceIgnoredHooks(resource)
		for _, hook := range tier[resourceType] {
			if _, skip := ignored[hook.Name]; skip {
				continue
			}
			if _, skip := localIgnored[hook.Name]; skip {
				continue
			}
			ctx := &ResourceContext{Resource: resource, Stack: s, Template: t}
			if err := hook.Fn(ctx); err != nil {
				return fmt.Errorf("hook %s on resource %s: %w", hook.Name, name, err)
			}
		}
	}
	return nil
}

// resourceIgnoredHooks reads the per-resource suppression list from the
// reserved metadata block.
func resourceIgnoredHooks(resource *stack.Resource) map[string]struct{} {
	metadata, _ := resource.Data()["Metadata"].(map[string]any)
	reserved, _ := metadata[template.MetadataKey].(map[string]any)
	names, _ := reserved["ignore-hooks"].([]any)

	out := make(map[string]struct{}, len(names))
	for _, name := range names {
		if s, ok := name.(string); ok {
			out[s] = struct{}{}
		}
	}
	return out
}

func nameSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, name := range names {
		out[name] = struct{}{}
	}
	return out
}
