// Where: internal/template/functions.go
// What: Evaluation logic for every supported intrinsic function.
// Why: Reproduce CloudFormation's documented semantics offline, failing
// loudly and specifically on malformed input.
package template

import (
	b64 "encoding/base64"
	"errors"
	"net"
	"reflect"
	"regexp"
	"strings"

	"github.com/apparentlymart/go-cidr/cidr"
)

// intrinsicFunc evaluates one intrinsic function. The resolver has
// already resolved the argument value under the function's own
// nesting-legality set before dispatching here.
type intrinsicFunc func(t *Template, value any) (any, error)

func baseRegistry() map[FuncID]intrinsicFunc {
	return map[FuncID]intrinsicFunc{
		FnRef:         fnRef,
		FnCondition:   fnCondition,
		FnAnd:         fnAnd,
		FnOr:          fnOr,
		FnNot:         fnNot,
		FnEquals:      fnEquals,
		FnIf:          fnIf,
		FnBase64:      fnBase64,
		FnCidr:        fnCidr,
		FnFindInMap:   fnFindInMap,
		FnGetAtt:      fnGetAtt,
		FnGetAZs:      fnGetAZs,
		FnImportValue: fnImportValue,
		FnJoin:        fnJoin,
		FnSelect:      fnSelect,
		FnSplit:       fnSplit,
		FnSub:         fnSub,
		FnTransform:   fnTransform,
	}
}

// fnRef resolves the name of a parameter, resource or pseudo variable.
func fnRef(t *Template, value any) (any, error) {
	name, ok := value.(string)
	if !ok {
		return nil, shapeErrorf("Ref: the value must be a String, not %s", typeName(value))
	}

	if strings.Contains(name, "AWS::") {
		return t.pseudoValue(name)
	}

	if params := asMap(t.working["Parameters"]); params != nil {
		if def := asMap(params[name]); def != nil {
			paramType := asString(def["Type"])
			paramValue, materialized := def["Value"]
			if !materialized {
				return nil, referenceErrorf("Ref: parameter %q has no value", name)
			}
			if strings.HasPrefix(paramType, ssmValueTypePrefix) {
				// The stored value is an SSM parameter key; indirect
				// through the configured dynamic references.
				return t.dynamicReferenceValue("ssm", asString(paramValue))
			}
			if paramType == "CommaDelimitedList" || strings.HasPrefix(paramType, "List<") {
				parts := strings.Split(asString(paramValue), ",")
				out := make([]any, len(parts))
				for i, p := range parts {
					out[i] = p
				}
				return out, nil
			}
			return paramValue, nil
		}
	}

	if resources := asMap(t.working["Resources"]); resources != nil {
		if resource := asMap(resources[name]); resource != nil {
			if override, ok := raincheckMetadata(resource)["ref"]; ok {
				return override, nil
			}
			return name, nil
		}
	}

	return nil, referenceErrorf("Ref: %q is not a valid resource or parameter", name)
}

// pseudoValue resolves an AWS::* pseudo variable. Region is read from
// the working metadata so it can vary per render.
func (t *Template) pseudoValue(name string) (any, error) {
	switch strings.TrimPrefix(name, "AWS::") {
	case "Region":
		return t.region(), nil
	case "AccountId":
		return t.pseudo.AccountID, nil
	case "NotificationARNs":
		arns := make([]any, len(t.pseudo.NotificationARNs))
		for i, arn := range t.pseudo.NotificationARNs {
			arns[i] = arn
		}
		return arns, nil
	case "NoValue":
		return t.pseudo.NoValue, nil
	case "Partition":
		return t.pseudo.Partition, nil
	case "StackId":
		return t.pseudo.StackID, nil
	case "StackName":
		return t.pseudo.StackName, nil
	case "URLSuffix":
		return t.pseudo.URLSuffix, nil
	}
	return nil, referenceErrorf("unrecognized AWS pseudo variable %q", name)
}

func fnCondition(t *Template, value any) (any, error) {
	name, ok := value.(string)
	if !ok {
		return nil, shapeErrorf("Condition: the value must be a String, not %s", typeName(value))
	}
	return t.conditionValue(name)
}

func fnIf(t *Template, value any) (any, error) {
	values, ok := asSlice(value)
	if !ok {
		return nil, shapeErrorf("Fn::If: the values must be a List, not %s", typeName(value))
	}
	if len(values) != 3 {
		return nil, shapeErrorf("Fn::If: the values must contain the name of a condition, a True value and a False value")
	}
	name, ok := values[0].(string)
	if !ok {
		return nil, shapeErrorf("Fn::If: the condition should be a String, not %s", typeName(values[0]))
	}
	result, err := t.conditionValue(name)
	if err != nil {
		return nil, err
	}
	if result {
		return values[1], nil
	}
	return values[2], nil
}

func boolOperands(name string, value any) ([]bool, error) {
	values, ok := asSlice(value)
	if !ok {
		return nil, shapeErrorf("%s: the values must be a List, not %s", name, typeName(value))
	}
	if len(values) < 2 || len(values) > 10 {
		return nil, shapeErrorf("%s: the values must have between 2 and 10 conditions", name)
	}
	out := make([]bool, len(values))
	for i, v := range values {
		b, ok := asBool(v)
		if !ok {
			return nil, shapeErrorf("%s: condition %d did not resolve to a Boolean, got %s", name, i, typeName(v))
		}
		out[i] = b
	}
	return out, nil
}

func fnAnd(_ *Template, value any) (any, error) {
	operands, err := boolOperands("Fn::And", value)
	if err != nil {
		return nil, err
	}
	for _, b := range operands {
		if !b {
			return false, nil
		}
	}
	return true, nil
}

func fnOr(_ *Template, value any) (any, error) {
	operands, err := boolOperands("Fn::Or", value)
	if err != nil {
		return nil, err
	}
	for _, b := range operands {
		if b {
			return true, nil
		}
	}
	return false, nil
}

func fnNot(_ *Template, value any) (any, error) {
	values, ok := asSlice(value)
	if !ok {
		return nil, shapeErrorf("Fn::Not: the values must be a List, not %s", typeName(value))
	}
	if len(values) != 1 {
		return nil, shapeErrorf("Fn::Not: the values must contain a single condition")
	}
	b, ok := asBool(values[0])
	if !ok {
		return nil, shapeErrorf("Fn::Not: the condition did not resolve to a Boolean, got %s", typeName(values[0]))
	}
	return !b, nil
}

func fnEquals(_ *Template, value any) (any, error) {
	values, ok := asSlice(value)
	if !ok {
		return nil, shapeErrorf("Fn::Equals: the values must be a List, not %s", typeName(value))
	}
	if len(values) != 2 {
		return nil, shapeErrorf("Fn::Equals: the values must contain two values to compare")
	}
	return reflect.DeepEqual(values[0], values[1]), nil
}

func fnBase64(_ *Template, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, shapeErrorf("Fn::Base64: the value must be a String, not %s", typeName(value))
	}
	return b64.StdEncoding.EncodeToString([]byte(s)), nil
}

// fnCidr subdivides an IPv4 block into count subnets of /(32-hostBits).
func fnCidr(_ *Template, value any) (any, error) {
	values, ok := asSlice(value)
	if !ok {
		return nil, shapeErrorf("Fn::Cidr: the value must be a List, not %s", typeName(value))
	}
	if len(values) != 3 {
		return nil, shapeErrorf("Fn::Cidr: the value must contain an ipBlock, the count of subnets and the cidrBits")
	}

	ipBlock, ok := values[0].(string)
	if !ok {
		return nil, shapeErrorf("Fn::Cidr: the ipBlock must be a String, not %s", typeName(values[0]))
	}
	count, ok := asInt(values[1])
	if !ok {
		return nil, shapeErrorf("Fn::Cidr: the count must be a Number, not %s", typeName(values[1]))
	}
	hostBits, ok := asInt(values[2])
	if !ok {
		return nil, shapeErrorf("Fn::Cidr: the cidrBits must be a Number, not %s", typeName(values[2]))
	}

	mask := 32 - hostBits

	ip, network, err := net.ParseCIDR(ipBlock)
	if err != nil {
		return nil, conversionErrorf("Fn::Cidr: %q is not a valid IPv4 CIDR block", ipBlock)
	}
	if ip4 := ip.To4(); ip4 == nil || !ip.Equal(network.IP) {
		return nil, conversionErrorf("Fn::Cidr: %q is not a valid IPv4 network address", ipBlock)
	}

	ones, _ := network.Mask.Size()
	subnets := make([]any, 0, count)
	for i := 0; i < count; i++ {
		subnet, err := cidr.Subnet(network, mask-ones, i)
		if err != nil {
			return nil, conversionErrorf("Fn::Cidr: unable to convert %s into %d subnets of /%d", ipBlock, count, mask)
		}
		subnets = append(subnets, subnet.String())
	}
	return subnets, nil
}

func findInMap(maps map[string]any, mapName, topKey, secondKey string) (any, error) {
	mapping := asMap(maps[mapName])
	if mapping == nil {
		return nil, lookupErrorf("unable to find %s in Mappings section of template", mapName)
	}
	firstLevel := asMap(mapping[topKey])
	if firstLevel == nil {
		return nil, lookupErrorf("unable to find key %s in map %s", topKey, mapName)
	}
	result, ok := firstLevel[secondKey]
	if !ok {
		return nil, lookupErrorf("unable to find key %s in map %s", secondKey, mapName)
	}
	return result, nil
}

func findInMapArgs(value any, maxLen int) ([]any, error) {
	values, ok := asSlice(value)
	if !ok {
		return nil, shapeErrorf("Fn::FindInMap: the values must be a List, not %s", typeName(value))
	}
	if len(values) < 3 || len(values) > maxLen {
		return nil, shapeErrorf("Fn::FindInMap: the values must contain a MapName, TopLevelKey and SecondLevelKey")
	}
	return values, nil
}

func fnFindInMap(t *Template, value any) (any, error) {
	values, err := findInMapArgs(value, 3)
	if err != nil {
		return nil, err
	}
	maps := asMap(t.working["Mappings"])
	if maps == nil {
		return nil, lookupErrorf("unable to find Mappings section in template")
	}
	return findInMap(maps, asString(values[0]), asString(values[1]), asString(values[2]))
}

// fnEnhancedFindInMap is the AWS::LanguageExtensions variant that
// accepts an optional {"DefaultValue": ...} fourth argument consulted
// when the lookup fails.
func fnEnhancedFindInMap(t *Template, value any) (any, error) {
	values, err := findInMapArgs(value, 4)
	if err != nil {
		return nil, err
	}
	maps := asMap(t.working["Mappings"])
	if maps == nil {
		return nil, lookupErrorf("unable to find Mappings section in template")
	}

	result, err := findInMap(maps, asString(values[0]), asString(values[1]), asString(values[2]))
	if err != nil {
		if len(values) == 4 && errors.Is(err, ErrLookup) {
			options := asMap(values[3])
			if fallback, ok := options["DefaultValue"]; ok {
				return fallback, nil
			}
		}
		return nil, err
	}
	return result, nil
}

// fnGetAtt returns the opaque "logicalId.attribute" placeholder, or a
// per-resource metadata override when one is declared. Attribute values
// are never computed because nothing is actually provisioned.
func fnGetAtt(t *Template, value any) (any, error) {
	values, ok := asSlice(value)
	if !ok {
		return nil, shapeErrorf("Fn::GetAtt: the values must be a List, not %s", typeName(value))
	}
	if len(values) != 2 {
		return nil, shapeErrorf("Fn::GetAtt: the values must contain the logicalNameOfResource and attributeName")
	}
	resourceName, nameOK := values[0].(string)
	attName, attOK := values[1].(string)
	if !nameOK || !attOK {
		return nil, shapeErrorf("Fn::GetAtt: logicalNameOfResource and attributeName must be String")
	}

	resources := asMap(t.working["Resources"])
	resource := asMap(resources[resourceName])
	if resource == nil {
		return nil, referenceErrorf("Fn::GetAtt: resource %s not found in template", resourceName)
	}

	if overrides := asMap(raincheckMetadata(resource)["attribute-values"]); overrides != nil {
		if override, ok := overrides[attName]; ok {
			return override, nil
		}
	}
	return resourceName + "." + attName, nil
}

func fnGetAZs(t *Template, value any) (any, error) {
	if value == nil {
		return t.availabilityZones(t.region())
	}
	region, ok := value.(string)
	if !ok {
		return nil, shapeErrorf("Fn::GetAZs: the region must be a String, not %s", typeName(value))
	}
	if region == "" {
		region = t.region()
	}
	return t.availabilityZones(region)
}

func fnImportValue(t *Template, value any) (any, error) {
	name, ok := value.(string)
	if !ok {
		return nil, shapeErrorf("Fn::ImportValue: the name of the export should be a String, not %s", typeName(value))
	}
	if len(t.imports) == 0 {
		return nil, referenceErrorf("Fn::ImportValue: no imports have been configured")
	}
	imported, ok := t.imports[name]
	if !ok {
		return nil, referenceErrorf("Fn::ImportValue: %s not found in the configured imports", name)
	}
	return imported, nil
}

func fnJoin(_ *Template, value any) (any, error) {
	values, ok := asSlice(value)
	if !ok {
		return nil, shapeErrorf("Fn::Join: the values must be a List, not %s", typeName(value))
	}
	if len(values) != 2 {
		return nil, shapeErrorf("Fn::Join: the values must contain a delimiter and a list of items to join")
	}
	delimiter, delimOK := values[0].(string)
	items, itemsOK := asSlice(values[1])
	if !delimOK || !itemsOK {
		return nil, shapeErrorf("Fn::Join: the first value must be a String and the second a List")
	}
	parts := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, shapeErrorf("Fn::Join: item %d must be a String, not %s", i, typeName(item))
		}
		parts[i] = s
	}
	return strings.Join(parts, delimiter), nil
}

func fnSelect(_ *Template, value any) (any, error) {
	values, ok := asSlice(value)
	if !ok {
		return nil, shapeErrorf("Fn::Select: the values must be a List, not %s", typeName(value))
	}
	if len(values) != 2 {
		return nil, shapeErrorf("Fn::Select: the values must contain an index and a list of items to select from")
	}
	var index int
	switch typed := values[0].(type) {
	case int:
		index = typed
	case float64:
		index = int(typed)
	default:
		return nil, shapeErrorf("Fn::Select: the first value must be a Number and the second a List")
	}
	items, ok := asSlice(values[1])
	if !ok {
		return nil, shapeErrorf("Fn::Select: the first value must be a Number and the second a List")
	}
	if index < 0 || index >= len(items) {
		return nil, shapeErrorf("Fn::Select: list size is smaller than the index given")
	}
	return items[index], nil
}

func fnSplit(_ *Template, value any) (any, error) {
	values, ok := asSlice(value)
	if !ok {
		return nil, shapeErrorf("Fn::Split: the values must be a List, not %s", typeName(value))
	}
	if len(values) != 2 {
		return nil, shapeErrorf("Fn::Split: the values must contain a delimiter and a String to split")
	}
	delimiter, delimOK := values[0].(string)
	source, sourceOK := values[1].(string)
	if !delimOK || !sourceOK {
		return nil, shapeErrorf("Fn::Split: the first value must be a String and the second a String")
	}
	parts := strings.Split(source, delimiter)
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out, nil
}

// subVarPattern matches ${Identifier} placeholders. The escape form
// ${!...} never matches because '!' is not a word character; escapes
// are unescaped to literal ${...} after substitution.
var subVarPattern = regexp.MustCompile(`\$\{(\w[^}]*)\}`)

func fnSub(t *Template, value any) (any, error) {
	switch typed := value.(type) {
	case string:
		return subString(t, typed, nil)
	case []any:
		if len(typed) != 2 {
			return nil, shapeErrorf("Fn::Sub: the values must contain a source string and a Map of variables")
		}
		source, sourceOK := typed[0].(string)
		locals, localsOK := typed[1].(map[string]any)
		if !sourceOK || !localsOK {
			return nil, shapeErrorf("Fn::Sub: the first value must be a String and the second a Map")
		}
		return subString(t, source, locals)
	}
	return nil, shapeErrorf("Fn::Sub: the input must be a String or List, not %s", typeName(value))
}

func subString(t *Template, source string, locals map[string]any) (string, error) {
	var firstErr error
	replaced := subVarPattern.ReplaceAllStringFunc(source, func(match string) string {
		if firstErr != nil {
			return match
		}
		name := subVarPattern.FindStringSubmatch(match)[1]

		if local, ok := locals[name]; ok {
			return asString(local)
		}

		var result any
		var err error
		if before, after, found := strings.Cut(name, "."); found {
			result, err = fnGetAtt(t, []any{before, after})
		} else {
			result, err = fnRef(t, name)
		}
		if err != nil {
			firstErr = err
			return match
		}
		return asString(result)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return strings.ReplaceAll(replaced, "${!", "${"), nil
}

// fnTransform returns the macro name without expanding it. Macro
// expansion is out of scope.
func fnTransform(_ *Template, value any) (any, error) {
	values := asMap(value)
	if values == nil {
		return nil, shapeErrorf("Fn::Transform: the values must be a Map, not %s", typeName(value))
	}
	name, ok := values["Name"]
	if !ok {
		return nil, shapeErrorf("Fn::Transform: the values must contain a Name and Parameters")
	}
	return asString(name), nil
}

// raincheckMetadata returns the reserved metadata block of a resource,
// used for attribute/ref overrides and hook suppression.
func raincheckMetadata(resource map[string]any) map[string]any {
	metadata := asMap(resource["Metadata"])
	if metadata == nil {
		return nil
	}
	return asMap(metadata[MetadataKey])
}
