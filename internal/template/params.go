// Where: internal/template/params.go
// What: Parameter constraint validation.
// Why: Enforce declared type, pattern, length and bound rules on
// supplied parameter values before any resolution happens.
package template

import (
	"regexp"
	"strconv"
	"strings"
)

const ssmValueTypePrefix = "AWS::SSM::Parameter::Value<"

// awsTypePatterns validates the AWS-specific scalar parameter types
// against the identifier formats the real service hands out.
var awsTypePatterns = map[string]*regexp.Regexp{
	"AWS::EC2::AvailabilityZone::Name": regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-\d[a-z]$`),
	"AWS::EC2::Image::Id":              regexp.MustCompile(`^ami-[0-9a-f]{8,17}$`),
	"AWS::EC2::Instance::Id":           regexp.MustCompile(`^i-[0-9a-f]{8,17}$`),
	"AWS::EC2::KeyPair::KeyName":       regexp.MustCompile(`^[\x20-\x7E]{1,255}$`),
	"AWS::EC2::SecurityGroup::GroupName": regexp.MustCompile(
		`^[a-zA-Z0-9 ._\-:/()#,@\[\]+=&;{}!$*]{1,255}$`),
	"AWS::EC2::SecurityGroup::Id":  regexp.MustCompile(`^sg-[0-9a-f]{8,17}$`),
	"AWS::EC2::Subnet::Id":         regexp.MustCompile(`^subnet-[0-9a-f]{8,17}$`),
	"AWS::EC2::Volume::Id":         regexp.MustCompile(`^vol-[0-9a-f]{8,17}$`),
	"AWS::EC2::VPC::Id":            regexp.MustCompile(`^vpc-[0-9a-f]{8,17}$`),
	"AWS::Route53::HostedZone::Id": regexp.MustCompile(`^Z[0-9A-Z]{1,32}$`),
}

// ssmKeyPattern validates the SSM parameter name structure: optionally
// rooted path segments, at most fifteen levels deep.
var ssmKeyPattern = regexp.MustCompile(`^/?([a-zA-Z0-9_.-]+/){0,14}[a-zA-Z0-9_.-]+$`)

// ssmValueTypes is the allowlist of inner types supported inside
// AWS::SSM::Parameter::Value<...>.
var ssmValueTypes = func() map[string]struct{} {
	out := map[string]struct{}{
		"String":             {},
		"CommaDelimitedList": {},
		"List<String>":       {},
	}
	for awsType := range awsTypePatterns {
		out[awsType] = struct{}{}
		out["List<"+awsType+">"] = struct{}{}
	}
	return out
}()

// listIllegalTypes may not appear as the inner type of List<...>.
var listIllegalTypes = map[string]struct{}{
	"String":                     {},
	"AWS::EC2::KeyPair::KeyName": {},
}

// validateParameterValue checks a supplied value against a parameter
// definition. It is a pure check: the caller stores the working Value.
func validateParameterValue(name string, definition map[string]any, value string) error {
	paramType := asString(definition["Type"])

	switch {
	case paramType == "String":
		return validateString(name, definition, value)
	case paramType == "CommaDelimitedList":
		for _, item := range strings.Split(value, ",") {
			if err := validateString(name, definition, strings.TrimSpace(item)); err != nil {
				return err
			}
		}
		return nil
	case paramType == "Number":
		return validateNumber(name, definition, value)
	case strings.HasPrefix(paramType, ssmValueTypePrefix):
		return validateSSMValue(name, paramType, value)
	case strings.HasPrefix(paramType, "List<"):
		return validateList(name, definition, paramType, value)
	case strings.HasPrefix(paramType, "AWS::"):
		return validateAWSType(name, paramType, value)
	}

	return unsupportedErrorf("parameter %s has unsupported type %q", name, paramType)
}

func validateString(name string, definition map[string]any, value string) error {
	if allowed, ok := asSlice(definition["AllowedValues"]); ok {
		found := false
		for _, candidate := range allowed {
			if asString(candidate) == value {
				found = true
				break
			}
		}
		if !found {
			return constraintErrorf("value %s is not in the AllowedValues for parameter %s", value, name)
		}
	}

	if pattern, ok := definition["AllowedPattern"]; ok {
		re, err := regexp.Compile("^(?:" + asString(pattern) + ")$")
		if err != nil {
			return unsupportedErrorf("parameter %s has invalid AllowedPattern %q", name, asString(pattern))
		}
		if !re.MatchString(value) {
			return constraintErrorf("value %s does not match the AllowedPattern for parameter %s", value, name)
		}
	}

	if min, ok := definition["MinLength"]; ok {
		bound, _ := asInt(min)
		if len([]rune(value)) < bound {
			return constraintErrorf("value %s is shorter than the minimum length for parameter %s", value, name)
		}
	}

	if max, ok := definition["MaxLength"]; ok {
		bound, _ := asInt(max)
		if len([]rune(value)) > bound {
			return constraintErrorf("value %s is longer than the maximum length for parameter %s", value, name)
		}
	}

	return nil
}

// validateNumber compares MinValue/MaxValue as integers even though
// parameter values are carried as strings.
func validateNumber(name string, definition map[string]any, value string) error {
	number, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return constraintErrorf("value %s for parameter %s is not a number", value, name)
	}

	if min, ok := definition["MinValue"]; ok {
		bound, _ := asInt(min)
		if number < bound {
			return constraintErrorf("value %s is below the MinValue for parameter %s", value, name)
		}
	}

	if max, ok := definition["MaxValue"]; ok {
		bound, _ := asInt(max)
		if number > bound {
			return constraintErrorf("value %s is above the MaxValue for parameter %s", value, name)
		}
	}

	return nil
}

func validateAWSType(name, paramType, value string) error {
	pattern, ok := awsTypePatterns[paramType]
	if !ok {
		return unsupportedErrorf("parameter %s has unsupported type %q", name, paramType)
	}
	if !pattern.MatchString(value) {
		return constraintErrorf("value %s is not a valid %s for parameter %s", value, paramType, name)
	}
	return nil
}

// validateSSMValue checks the supplied value as an SSM parameter key,
// not as the final resolved value; resolution happens lazily during
// rendering through the dynamic-references map.
func validateSSMValue(name, paramType, value string) error {
	inner := strings.TrimSuffix(strings.TrimPrefix(paramType, ssmValueTypePrefix), ">")
	if _, ok := ssmValueTypes[inner]; !ok {
		return unsupportedErrorf("parameter %s has unsupported SSM value type %q", name, inner)
	}
	if !ssmKeyPattern.MatchString(value) {
		return constraintErrorf("value %s is not a valid SSM parameter key for parameter %s", value, name)
	}
	return nil
}

func validateList(name string, definition map[string]any, paramType, value string) error {
	inner := strings.TrimSuffix(strings.TrimPrefix(paramType, "List<"), ">")
	if _, illegal := listIllegalTypes[inner]; illegal {
		return unsupportedErrorf("parameter %s has unsupported type %q", name, paramType)
	}

	innerDefinition := make(map[string]any, len(definition))
	for key, val := range definition {
		innerDefinition[key] = val
	}
	innerDefinition["Type"] = inner

	for _, item := range strings.Split(value, ",") {
		if err := validateParameterValue(name, innerDefinition, strings.TrimSpace(item)); err != nil {
			return err
		}
	}
	return nil
}
