// Where: internal/stack/resource.go
// What: Assertions over a single rendered resource.
// Why: Resource checks are the bulk of template tests; keep their
// failure messages specific enough to read without a debugger.
package stack

import (
	"fmt"
	"reflect"
)

// Resource is one rendered resource from a Stack.
type Resource struct {
	Name string
	data map[string]any
}

// Data exposes the rendered resource body.
func (r *Resource) Data() map[string]any {
	return r.data
}

// HasType checks that the resource declares a Type.
func (r *Resource) HasType() error {
	if _, ok := r.data["Type"]; !ok {
		return fmt.Errorf("resource %q has no Type", r.Name)
	}
	return nil
}

// Type returns the resource type string.
func (r *Resource) Type() (string, error) {
	if err := r.HasType(); err != nil {
		return "", err
	}
	value, ok := r.data["Type"].(string)
	if !ok {
		return "", fmt.Errorf("resource %q Type is not a string", r.Name)
	}
	return value, nil
}

// AssertType checks the resource type against an expected value.
func (r *Resource) AssertType(expected string) error {
	actual, err := r.Type()
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("resource %q type %q did not match %q", r.Name, actual, expected)
	}
	return nil
}

// Properties returns the resource properties, which may be empty when
// the resource declares none.
func (r *Resource) Properties() map[string]any {
	properties, _ := r.data["Properties"].(map[string]any)
	if properties == nil {
		properties = map[string]any{}
	}
	return properties
}

// HasProperty checks that a property was rendered onto the resource.
func (r *Resource) HasProperty(name string) error {
	if _, ok := r.Properties()[name]; !ok {
		return fmt.Errorf("property %q not found on resource %q", name, r.Name)
	}
	return nil
}

// NoProperty checks that a property is absent from the resource.
func (r *Resource) NoProperty(name string) error {
	if _, ok := r.Properties()[name]; ok {
		return fmt.Errorf("property %q was found on resource %q", name, r.Name)
	}
	return nil
}

// Property checks that a property exists and returns its value.
func (r *Resource) Property(name string) (any, error) {
	if err := r.HasProperty(name); err != nil {
		return nil, err
	}
	return r.Properties()[name], nil
}

// AssertProperty checks one property against the expected value.
func (r *Resource) AssertProperty(name string, expected any) error {
	actual, err := r.Property(name)
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(actual, expected) {
		return fmt.Errorf("property %q on resource %q is %v, expected %v", name, r.Name, actual, expected)
	}
	return nil
}
