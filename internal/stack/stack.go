// Where: internal/stack/stack.go
// What: Read-only view over a rendered template.
// Why: Give tests a structured way to assert on the parameters,
// conditions, resources and outputs of one render pass.
package stack

import "fmt"

// Stack wraps the fully resolved, condition-pruned template tree
// produced by one render. It is a detached snapshot owned by the
// caller; the Template never mutates it after return.
type Stack struct {
	data map[string]any
}

// New wraps a rendered template tree.
func New(rendered map[string]any) *Stack {
	if rendered == nil {
		rendered = map[string]any{}
	}
	return &Stack{data: rendered}
}

// Data exposes the underlying rendered tree.
func (s *Stack) Data() map[string]any {
	return s.data
}

func (s *Stack) section(name string) map[string]any {
	section, _ := s.data[name].(map[string]any)
	return section
}

// HasParameter checks that a parameter is declared in the template.
func (s *Stack) HasParameter(name string) error {
	if _, ok := s.section("Parameters")[name]; !ok {
		return fmt.Errorf("parameter %q not found in template", name)
	}
	return nil
}

// NoParameter checks that a parameter is not declared in the template.
func (s *Stack) NoParameter(name string) error {
	if _, ok := s.section("Parameters")[name]; ok {
		return fmt.Errorf("parameter %q was found in template", name)
	}
	return nil
}

// GetParameter checks that a parameter exists and returns it.
func (s *Stack) GetParameter(name string) (*Parameter, error) {
	if err := s.HasParameter(name); err != nil {
		return nil, err
	}
	data, _ := s.section("Parameters")[name].(map[string]any)
	return &Parameter{Name: name, data: data}, nil
}

// HasCondition checks that a condition is declared in the template.
func (s *Stack) HasCondition(name string) error {
	if _, ok := s.section("Conditions")[name]; !ok {
		return fmt.Errorf("condition %q not found in template", name)
	}
	return nil
}

// NoCondition checks that a condition is not declared in the template.
func (s *Stack) NoCondition(name string) error {
	if _, ok := s.section("Conditions")[name]; ok {
		return fmt.Errorf("condition %q was found in template", name)
	}
	return nil
}

// GetCondition checks that a condition exists and returns it with its
// resolved boolean value.
func (s *Stack) GetCondition(name string) (*Condition, error) {
	if err := s.HasCondition(name); err != nil {
		return nil, err
	}
	value, _ := s.section("Conditions")[name].(bool)
	return &Condition{Name: name, value: value}, nil
}

// HasResource checks that a resource survived the render.
func (s *Stack) HasResource(name string) error {
	if _, ok := s.section("Resources")[name]; !ok {
		return fmt.Errorf("resource %q not found in template", name)
	}
	return nil
}

// NoResource checks that a resource is absent from the render.
func (s *Stack) NoResource(name string) error {
	if _, ok := s.section("Resources")[name]; ok {
		return fmt.Errorf("resource %q was found in template", name)
	}
	return nil
}

// GetResource checks that a resource exists and returns it.
func (s *Stack) GetResource(name string) (*Resource, error) {
	if err := s.HasResource(name); err != nil {
		return nil, err
	}
	data, _ := s.section("Resources")[name].(map[string]any)
	return &Resource{Name: name, data: data}, nil
}

// ResourcesOfType returns every rendered resource with the given
// CloudFormation type, keyed by logical id.
func (s *Stack) ResourcesOfType(resourceType string) map[string]*Resource {
	out := map[string]*Resource{}
	for name, value := range s.section("Resources") {
		data, ok := value.(map[string]any)
		if !ok {
			continue
		}
		if data["Type"] == resourceType {
			out[name] = &Resource{Name: name, data: data}
		}
	}
	return out
}

// HasOutput checks that an output survived the render.
func (s *Stack) HasOutput(name string) error {
	if _, ok := s.section("Outputs")[name]; !ok {
		return fmt.Errorf("output %q not found in template", name)
	}
	return nil
}

// NoOutput checks that an output is absent from the render.
func (s *Stack) NoOutput(name string) error {
	if _, ok := s.section("Outputs")[name]; ok {
		return fmt.Errorf("output %q was found in template", name)
	}
	return nil
}

// GetOutput checks that an output exists and returns it.
func (s *Stack) GetOutput(name string) (*Output, error) {
	if err := s.HasOutput(name); err != nil {
		return nil, err
	}
	data, _ := s.section("Outputs")[name].(map[string]any)
	return &Output{Name: name, data: data}, nil
}
