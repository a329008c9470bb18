// Where: internal/stack/parameter.go
// What: Assertions over a single parameter definition.
package stack

import (
	"fmt"
	"reflect"
)

// Parameter is one parameter definition from a Stack. Unlike resources
// and outputs, parameter bodies are carried through the render
// untouched, so these assertions see the declared definition.
type Parameter struct {
	Name string
	data map[string]any
}

// Data exposes the parameter definition.
func (p *Parameter) Data() map[string]any {
	return p.data
}

// HasDefault checks that the parameter declares a Default.
func (p *Parameter) HasDefault() error {
	if _, ok := p.data["Default"]; !ok {
		return fmt.Errorf("parameter %q has no Default", p.Name)
	}
	return nil
}

// NoDefault checks that the parameter declares no Default.
func (p *Parameter) NoDefault() error {
	if _, ok := p.data["Default"]; ok {
		return fmt.Errorf("parameter %q has a Default", p.Name)
	}
	return nil
}

// Default returns the declared default value.
func (p *Parameter) Default() (any, error) {
	if err := p.HasDefault(); err != nil {
		return nil, err
	}
	return p.data["Default"], nil
}

// AssertDefault checks the declared default value.
func (p *Parameter) AssertDefault(expected any) error {
	actual, err := p.Default()
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(actual, expected) {
		return fmt.Errorf("parameter %q default is %v, expected %v", p.Name, actual, expected)
	}
	return nil
}

// Type returns the declared parameter type, defaulting to String when
// the definition omits one.
func (p *Parameter) Type() string {
	if value, ok := p.data["Type"].(string); ok {
		return value
	}
	return "String"
}

// AssertType checks the declared parameter type.
func (p *Parameter) AssertType(expected string) error {
	if actual := p.Type(); actual != expected {
		return fmt.Errorf("parameter %q type %q did not match %q", p.Name, actual, expected)
	}
	return nil
}

// HasAllowedValues checks that the parameter declares AllowedValues.
func (p *Parameter) HasAllowedValues() error {
	if _, ok := p.data["AllowedValues"]; !ok {
		return fmt.Errorf("parameter %q has no AllowedValues", p.Name)
	}
	return nil
}

// AllowedValues returns the declared allowed values.
func (p *Parameter) AllowedValues() ([]any, error) {
	if err := p.HasAllowedValues(); err != nil {
		return nil, err
	}
	values, ok := p.data["AllowedValues"].([]any)
	if !ok {
		return nil, fmt.Errorf("parameter %q AllowedValues is not a list", p.Name)
	}
	return values, nil
}

// AssertAllowedValues checks the declared allowed values in order.
func (p *Parameter) AssertAllowedValues(expected []any) error {
	actual, err := p.AllowedValues()
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(actual, expected) {
		return fmt.Errorf("parameter %q allowed values are %v, expected %v", p.Name, actual, expected)
	}
	return nil
}
