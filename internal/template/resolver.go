// Where: internal/template/resolver.go
// What: Recursive-descent evaluator for the template's data tree.
// Why: Recognize intrinsic-function call sites, enforce nesting rules
// and substitute results in place.
package template

// resolveValue walks a template subtree. allowed is the set of
// functions legal at this nesting position; descending into a
// function's argument narrows it to that function's own set.
func (t *Template) resolveValue(node any, allowed funcSet) (any, error) {
	switch typed := node.(type) {
	case map[string]any:
		return t.resolveMap(typed, allowed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			resolved, err := t.resolveValue(item, allowed)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case string:
		// A plain template string may already carry {{resolve:...}}.
		return t.resolveDynamicReferences(typed)
	default:
		return node, nil
	}
}

func (t *Template) resolveMap(m map[string]any, allowed funcSet) (any, error) {
	// A function call site is a mapping with exactly one key matching
	// a function name.
	if len(m) == 1 {
		for key, value := range m {
			if key == "Condition" {
				// The Condition intrinsic takes a plain string; any
				// other value shape is an ordinary property key that
				// happens to be named Condition.
				if name, ok := value.(string); ok {
					result, err := t.conditionValue(name)
					if err != nil {
						return nil, err
					}
					return result, nil
				}
				break
			}
			if id, ok := lookupFunc(key); ok {
				return t.callFunction(id, value, allowed)
			}
		}
	}

	_, hasProperties := m["Properties"]
	_, hasValue := m["Value"]

	for key, value := range m {
		if key == "Condition" {
			// Alongside Properties or Value this is the conditional
			// inclusion attribute of a resource or output; it is
			// consulted by the pruning pass, never evaluated here.
			if hasProperties || hasValue {
				continue
			}
			if name, ok := value.(string); ok {
				result, err := t.conditionValue(name)
				if err != nil {
					return nil, err
				}
				m[key] = result
				continue
			}
		}
		resolved, err := t.resolveValue(value, allowed)
		if err != nil {
			return nil, err
		}
		m[key] = resolved
	}
	return m, nil
}

// callFunction checks nesting legality, resolves the argument under the
// function's own allowed set, dispatches, and resolves any dynamic
// references the produced string may contain.
func (t *Template) callFunction(id FuncID, value any, allowed funcSet) (any, error) {
	if !allowed.contains(id) {
		return nil, notAllowedErrorf("%s with value (%v) not allowed here", id, value)
	}

	resolvedArg, err := t.resolveValue(value, allowedNested[id])
	if err != nil {
		return nil, err
	}

	result, err := t.funcs[id](t, resolvedArg)
	if err != nil {
		return nil, err
	}

	if s, ok := result.(string); ok {
		return t.resolveDynamicReferences(s)
	}
	return result, nil
}
