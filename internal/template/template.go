// Where: internal/template/template.go
// What: Template type and the render lifecycle.
// Why: Drive one full offline render pass: reset, parameter
// materialization, metadata injection, resolution, pruning and stack
// materialization.
package template

import (
	"sort"

	"github.com/mitchellh/copystructure"

	"github.com/cloudgauge/raincheck/internal/stack"
)

// MetadataKey is the reserved metadata namespace used for the render
// region, attribute/ref overrides and hook suppression.
const MetadataKey = "Raincheck"

// Pseudo holds the values backing the AWS::* pseudo variables for one
// Template. It is plain per-instance configuration, never process
// state, so repeated or interleaved renders cannot interfere.
type Pseudo struct {
	AccountID        string
	NotificationARNs []string
	NoValue          string
	Partition        string
	Region           string
	StackID          string
	StackName        string
	URLSuffix        string
}

// DefaultPseudo returns the stand-in values used when the caller does
// not override them.
func DefaultPseudo() Pseudo {
	return Pseudo{
		AccountID: "555555555555",
		Partition: "aws",
		Region:    "us-east-1",
		URLSuffix: "amazonaws.com",
	}
}

// HookEvaluator runs post-render hooks against a materialized stack.
// Hook failures surface verbatim to the CreateStack caller.
type HookEvaluator interface {
	Evaluate(s *stack.Stack, t *Template) error
}

// Template wraps a parsed CloudFormation document so its parameters,
// conditions and intrinsic functions can be rendered into their final
// form for testing. The pristine parse survives in raw; every render
// rebuilds working from it, so no state leaks between renders.
type Template struct {
	raw               map[string]any
	working           map[string]any
	imports           map[string]string
	dynamicReferences map[string]map[string]string
	pseudo            Pseudo
	funcs             map[FuncID]intrinsicFunc
	hooks             HookEvaluator

	// resolvingConditions guards condition evaluation against cycles
	// within a single render.
	resolvingConditions map[string]bool
}

// Option configures a Template at construction time.
type Option func(*Template)

// WithImports supplies the export name to value map consulted by
// Fn::ImportValue.
func WithImports(imports map[string]string) Option {
	return func(t *Template) { t.imports = imports }
}

// WithDynamicReferences supplies the service to key to value map
// consulted when resolving {{resolve:service:key}} placeholders.
func WithDynamicReferences(refs map[string]map[string]string) Option {
	return func(t *Template) { t.dynamicReferences = refs }
}

// WithPseudo overrides the pseudo-variable values for this Template.
func WithPseudo(pseudo Pseudo) Option {
	return func(t *Template) { t.pseudo = pseudo }
}

// WithHooks registers the hook evaluator invoked by CreateStack.
func WithHooks(hooks HookEvaluator) Option {
	return func(t *Template) { t.hooks = hooks }
}

// New builds a Template from a parsed document. Short-form intrinsic
// aliases must already be normalized to their long forms. Unknown
// Transform declarations fail here rather than at first render.
func New(doc map[string]any, opts ...Option) (*Template, error) {
	if doc == nil {
		return nil, shapeErrorf("template should be a Map, not %s", typeName(doc))
	}

	snapshot, err := copystructure.Copy(doc)
	if err != nil {
		return nil, err
	}

	t := &Template{
		raw:    snapshot.(map[string]any),
		pseudo: DefaultPseudo(),
		funcs:  baseRegistry(),
	}
	for _, opt := range opts {
		opt(t)
	}

	for _, name := range transformNames(doc) {
		extra, ok := transformFuncs[name]
		if !ok {
			return nil, unsupportedErrorf("unknown transform %q declared in template", name)
		}
		for id, fn := range extra {
			t.funcs[id] = fn
		}
	}

	return t, nil
}

func transformNames(doc map[string]any) []string {
	switch typed := doc["Transform"].(type) {
	case string:
		return []string{typed}
	case []any:
		names := make([]string, 0, len(typed))
		for _, name := range typed {
			names = append(names, asString(name))
		}
		return names
	}
	return nil
}

// Render solves all conditions, references and intrinsic functions
// using the supplied parameters, then removes every resource and output
// whose condition evaluated false. An empty region keeps the template's
// default. The first failure aborts the whole render; re-rendering
// after fixing inputs is always safe because the working tree is
// rebuilt from the pristine snapshot each call.
func (t *Template) Render(params map[string]string, region string) (map[string]any, error) {
	working, err := copystructure.Copy(t.raw)
	if err != nil {
		return nil, err
	}
	t.working = working.(map[string]any)
	t.resolvingConditions = map[string]bool{}

	if region == "" {
		region = t.pseudo.Region
	}

	if err := t.setParameters(params); err != nil {
		return nil, err
	}

	t.injectMetadata(region)

	if err := t.resolveConditions(); err != nil {
		return nil, err
	}
	if err := t.resolveSections(); err != nil {
		return nil, err
	}
	t.pruneConditional()

	return t.working, nil
}

// CreateStack renders the template and wraps the result as a detached
// stack snapshot, then runs any registered hooks against it.
func (t *Template) CreateStack(params map[string]string, region string) (*stack.Stack, error) {
	rendered, err := t.Render(params, region)
	if err != nil {
		return nil, err
	}

	detached, err := copystructure.Copy(rendered)
	if err != nil {
		return nil, err
	}
	s := stack.New(detached.(map[string]any))

	if t.hooks != nil {
		if err := t.hooks.Evaluate(s, t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// setParameters materializes a working Value for every declared
// parameter, validating caller-supplied values against the declared
// constraints first. Defaults are stored as-is.
func (t *Template) setParameters(parameters map[string]string) error {
	declared := asMap(t.working["Parameters"])
	if declared == nil {
		if len(parameters) > 0 {
			return referenceErrorf("parameters supplied for a template with none")
		}
		return nil
	}

	for name := range parameters {
		if _, ok := declared[name]; !ok {
			return referenceErrorf("parameter %q was not in the template", name)
		}
	}

	for _, name := range sortedKeys(declared) {
		definition := asMap(declared[name])
		if definition == nil {
			return shapeErrorf("parameter %s definition must be a Map", name)
		}

		if value, ok := parameters[name]; ok {
			if err := validateParameterValue(name, definition, value); err != nil {
				return err
			}
			definition["Value"] = value
			continue
		}

		fallback, ok := definition["Default"]
		if !ok {
			return referenceErrorf("must provide a value for parameter %s because it has no default", name)
		}
		definition["Value"] = fallback
	}
	return nil
}

// injectMetadata records the active region in the reserved metadata
// namespace. Existing entries there, such as hook suppression lists,
// are preserved.
func (t *Template) injectMetadata(region string) {
	metadata := asMap(t.working["Metadata"])
	if metadata == nil {
		metadata = map[string]any{}
		t.working["Metadata"] = metadata
	}
	reserved := asMap(metadata[MetadataKey])
	if reserved == nil {
		reserved = map[string]any{}
		metadata[MetadataKey] = reserved
	}
	reserved["Region"] = region
}

// region reads the active region from the working metadata so that it
// can vary per render without touching the template's defaults.
func (t *Template) region() string {
	if metadata := asMap(t.working["Metadata"]); metadata != nil {
		if reserved := asMap(metadata[MetadataKey]); reserved != nil {
			if s, ok := reserved["Region"].(string); ok {
				return s
			}
		}
	}
	return t.pseudo.Region
}

// conditionValue resolves and memoizes one named condition. Conditions
// may depend on parameters, mappings, pseudo values and each other,
// never on resources, which the restricted function set enforces.
func (t *Template) conditionValue(name string) (bool, error) {
	conditions := asMap(t.working["Conditions"])
	if conditions == nil {
		return false, referenceErrorf("unable to find condition %q in template", name)
	}
	raw, ok := conditions[name]
	if !ok {
		return false, referenceErrorf("unable to find condition %q in template", name)
	}
	if b, ok := raw.(bool); ok {
		return b, nil
	}

	if t.resolvingConditions[name] {
		return false, referenceErrorf("condition %q depends on itself", name)
	}
	t.resolvingConditions[name] = true
	defer delete(t.resolvingConditions, name)

	resolved, err := t.resolveValue(raw, conditionFuncs)
	if err != nil {
		return false, err
	}
	b, ok := resolved.(bool)
	if !ok {
		return false, shapeErrorf("condition %q did not resolve to a Boolean, got %s", name, typeName(resolved))
	}
	conditions[name] = b
	return b, nil
}

func (t *Template) resolveConditions() error {
	conditions := asMap(t.working["Conditions"])
	for _, name := range sortedKeys(conditions) {
		if _, err := t.conditionValue(name); err != nil {
			return err
		}
	}
	return nil
}

// conditionalSections can carry entries gated by a Condition attribute.
var conditionalSections = []string{"Resources", "Outputs"}

func (t *Template) resolveSections() error {
	for _, section := range conditionalSections {
		entries := asMap(t.working[section])
		for _, name := range sortedKeys(entries) {
			entry := asMap(entries[name])
			if entry == nil {
				return shapeErrorf("%s entry %s must be a Map, not %s", section, name, typeName(entries[name]))
			}

			// Entries whose condition is false are skipped entirely:
			// their bodies may reference things that only exist on the
			// other branch.
			if condName, ok := entry["Condition"].(string); ok {
				keep, err := t.conditionValue(condName)
				if err != nil {
					return err
				}
				if !keep {
					continue
				}
			}

			if err := t.resolveEntry(entry); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveEntry resolves a resource or output body. The entry's own
// Condition attribute names a condition for the pruning pass and is
// never evaluated as the Condition intrinsic, whatever the entry's
// other keys are.
func (t *Template) resolveEntry(entry map[string]any) error {
	for key, value := range entry {
		if key == "Condition" {
			continue
		}
		resolved, err := t.resolveValue(value, allFuncs)
		if err != nil {
			return err
		}
		entry[key] = resolved
	}
	return nil
}

// pruneConditional deletes every entry whose condition resolved false.
// Pruning runs as a separate pass after resolution so lookups during
// resolution still see not-yet-pruned siblings.
func (t *Template) pruneConditional() {
	for _, section := range conditionalSections {
		entries := asMap(t.working[section])
		for name, value := range entries {
			entry := asMap(value)
			if entry == nil {
				continue
			}
			condName, ok := entry["Condition"].(string)
			if !ok {
				continue
			}
			// Conditions are already memoized booleans at this point.
			if keep, err := t.conditionValue(condName); err == nil && !keep {
				delete(entries, name)
			}
		}
	}
}

// IgnoredHooks returns the hook names suppressed at template scope via
// the reserved metadata block.
func (t *Template) IgnoredHooks() []string {
	metadata := asMap(t.working["Metadata"])
	if metadata == nil {
		return nil
	}
	reserved := asMap(metadata[MetadataKey])
	if reserved == nil {
		return nil
	}
	ignored, _ := asSlice(reserved["ignore-hooks"])
	out := make([]string, 0, len(ignored))
	for _, name := range ignored {
		out = append(out, asString(name))
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
