// Where: internal/stack/condition.go
// What: Assertions over a single resolved condition.
package stack

import "fmt"

// Condition is one resolved condition from a Stack. By the time a
// Stack exists every condition body has collapsed to a boolean.
type Condition struct {
	Name  string
	value bool
}

// Value returns the resolved boolean.
func (c *Condition) Value() bool {
	return c.value
}

// AssertValue checks the resolved boolean.
func (c *Condition) AssertValue(expected bool) error {
	if c.value != expected {
		return fmt.Errorf("condition %q is %t, expected %t", c.Name, c.value, expected)
	}
	return nil
}
