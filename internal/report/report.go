// Where: internal/report/report.go
// What: Human-readable summary of a rendered stack.
// Why: Give the CLI a quick per-render digest without making callers
// walk the raw tree.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"

	"github.com/cloudgauge/raincheck/internal/stack"
	tpl "github.com/cloudgauge/raincheck/internal/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templateCache sync.Map

// Summary is the digest of one rendered stack.
type Summary struct {
	Region     string
	Parameters []ParameterSummary
	Conditions []ConditionSummary
	Resources  []ResourceSummary
	Outputs    []OutputSummary
	TypeCounts []TypeCount
}

type ParameterSummary struct {
	Name       string
	Type       string
	Default    string
	HasDefault bool
}

type ConditionSummary struct {
	Name  string
	Value bool
}

type ResourceSummary struct {
	Name string
	Type string
}

type OutputSummary struct {
	Name   string
	Value  string
	Export string
}

type TypeCount struct {
	Type  string
	Count int
}

// Build collects the digest of a rendered stack, every section in name
// order.
func Build(s *stack.Stack) Summary {
	summary := Summary{Region: renderRegion(s)}

	for _, name := range sectionNames(s, "Parameters") {
		param, err := s.GetParameter(name)
		if err != nil {
			continue
		}
		entry := ParameterSummary{Name: name, Type: param.Type()}
		if value, err := param.Default(); err == nil {
			entry.Default = fmt.Sprint(value)
			entry.HasDefault = true
		}
		summary.Parameters = append(summary.Parameters, entry)
	}

	for _, name := range sectionNames(s, "Conditions") {
		cond, err := s.GetCondition(name)
		if err != nil {
			continue
		}
		summary.Conditions = append(summary.Conditions, ConditionSummary{
			Name:  name,
			Value: cond.Value(),
		})
	}

	counts := map[string]int{}
	for _, name := range sectionNames(s, "Resources") {
		resource, err := s.GetResource(name)
		if err != nil {
			continue
		}
		resourceType, err := resource.Type()
		if err != nil {
			resourceType = "unknown"
		}
		counts[resourceType]++
		summary.Resources = append(summary.Resources, ResourceSummary{
			Name: name,
			Type: resourceType,
		})
	}
	for _, resourceType := range sortedCountKeys(counts) {
		summary.TypeCounts = append(summary.TypeCounts, TypeCount{
			Type:  resourceType,
			Count: counts[resourceType],
		})
	}

	for _, name := range sectionNames(s, "Outputs") {
		output, err := s.GetOutput(name)
		if err != nil {
			continue
		}
		entry := OutputSummary{Name: name}
		if value, err := output.Value(); err == nil {
			entry.Value = fmt.Sprint(value)
		}
		if export, err := output.ExportName(); err == nil {
			entry.Export = fmt.Sprint(export)
		}
		summary.Outputs = append(summary.Outputs, entry)
	}

	return summary
}

// Render formats a rendered stack through the embedded summary
// template.
func Render(s *stack.Stack) (string, error) {
	return renderTemplate("summary.tmpl", Build(s))
}

// MarshalYAML serializes a rendered tree for file output.
func MarshalYAML(value any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		_ = encoder.Close()
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderRegion(s *stack.Stack) string {
	metadata, _ := s.Data()["Metadata"].(map[string]any)
	reserved, _ := metadata[tpl.MetadataKey].(map[string]any)
	region, _ := reserved["Region"].(string)
	return region
}

func sectionNames(s *stack.Stack, section string) []string {
	entries, _ := s.Data()[section].(map[string]any)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedCountKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func renderTemplate(name string, data any) (string, error) {
	tmpl, err := loadTemplate(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func loadTemplate(name string) (*template.Template, error) {
	if value, ok := templateCache.Load(name); ok {
		cached, ok := value.(*template.Template)
		if !ok {
			return nil, fmt.Errorf("template cache type mismatch for %s", name)
		}
		return cached, nil
	}
	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return nil, err
	}
	templateCache.Store(name, tmpl)
	return tmpl, nil
}
