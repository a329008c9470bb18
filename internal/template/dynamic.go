// Where: internal/template/dynamic.go
// What: Resolution of {{resolve:service:key}} placeholders.
// Why: Simulate deferred secret-store lookups against a caller-supplied
// map instead of contacting SSM or Secrets Manager.
package template

import (
	"regexp"
	"strings"
)

// Service names can carry hyphens (ssm-secure, secretsmanager).
var dynamicRefPattern = regexp.MustCompile(`\{\{resolve:([\w-]+):(.+?)\}\}`)

// resolveDynamicReferences replaces every {{resolve:service:key}}
// placeholder in a string. Strings still holding ${...} placeholders
// are returned unchanged: Fn::Sub substitution has to finish first, so
// that keys built from pseudo values resolve against their final form.
func (t *Template) resolveDynamicReferences(value string) (string, error) {
	if strings.Contains(value, "${") {
		return value, nil
	}
	if !strings.Contains(value, "{{resolve:") {
		return value, nil
	}

	match := dynamicRefPattern.FindStringSubmatch(value)
	if match == nil {
		return value, nil
	}
	service, key := match[1], match[2]

	resolved, err := t.dynamicReferenceValue(service, key)
	if err != nil {
		return "", err
	}

	// Recurse to catch multiple placeholders in one string.
	return t.resolveDynamicReferences(strings.Replace(value, match[0], resolved, 1))
}

func (t *Template) dynamicReferenceValue(service, key string) (string, error) {
	values, ok := t.dynamicReferences[service]
	if !ok {
		return "", referenceErrorf("no dynamic references configured for service %q", service)
	}
	value, ok := values[key]
	if !ok {
		return "", referenceErrorf("dynamic reference key %q not found for service %q", key, service)
	}
	return value, nil
}
