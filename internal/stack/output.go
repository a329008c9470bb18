// Where: internal/stack/output.go
// What: Assertions over a single rendered output.
package stack

import (
	"fmt"
	"reflect"
)

// Output is one rendered output from a Stack.
type Output struct {
	Name string
	data map[string]any
}

// Data exposes the rendered output body.
func (o *Output) Data() map[string]any {
	return o.data
}

// HasValue checks that the output carries a Value.
func (o *Output) HasValue() error {
	if _, ok := o.data["Value"]; !ok {
		return fmt.Errorf("output %q has no Value", o.Name)
	}
	return nil
}

// Value checks that the output carries a Value and returns it.
func (o *Output) Value() (any, error) {
	if err := o.HasValue(); err != nil {
		return nil, err
	}
	return o.data["Value"], nil
}

// AssertValue checks the rendered output value.
func (o *Output) AssertValue(expected any) error {
	actual, err := o.Value()
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(actual, expected) {
		return fmt.Errorf("output %q value is %v, expected %v", o.Name, actual, expected)
	}
	return nil
}

// HasExport checks that the output declares an Export.
func (o *Output) HasExport() error {
	if _, ok := o.data["Export"]; !ok {
		return fmt.Errorf("output %q has no Export", o.Name)
	}
	return nil
}

// NoExport checks that the output declares no Export.
func (o *Output) NoExport() error {
	if _, ok := o.data["Export"]; ok {
		return fmt.Errorf("output %q has an Export", o.Name)
	}
	return nil
}

// ExportName returns the rendered export name.
func (o *Output) ExportName() (any, error) {
	if err := o.HasExport(); err != nil {
		return nil, err
	}
	export, ok := o.data["Export"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("output %q Export is not a map", o.Name)
	}
	name, ok := export["Name"]
	if !ok {
		return nil, fmt.Errorf("output %q Export has no Name", o.Name)
	}
	return name, nil
}

// AssertExportName checks the rendered export name.
func (o *Output) AssertExportName(expected any) error {
	actual, err := o.ExportName()
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(actual, expected) {
		return fmt.Errorf("output %q export name is %v, expected %v", o.Name, actual, expected)
	}
	return nil
}
