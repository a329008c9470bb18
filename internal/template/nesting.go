// Where: internal/template/nesting.go
// What: The closed set of intrinsic functions and their nesting rules.
// Why: CloudFormation restricts which functions may appear inside which
// others; violating templates must fail loudly instead of rendering.
package template

// FuncID identifies one intrinsic function. Dispatch runs over this
// closed set rather than raw key strings so that the legality tables
// below stay exhaustive.
type FuncID int

const (
	FnRef FuncID = iota
	FnCondition
	FnAnd
	FnOr
	FnNot
	FnEquals
	FnIf
	FnBase64
	FnCidr
	FnFindInMap
	FnGetAtt
	FnGetAZs
	FnImportValue
	FnJoin
	FnSelect
	FnSplit
	FnSub
	FnTransform
)

var funcNames = map[FuncID]string{
	FnRef:         "Ref",
	FnCondition:   "Condition",
	FnAnd:         "Fn::And",
	FnOr:          "Fn::Or",
	FnNot:         "Fn::Not",
	FnEquals:      "Fn::Equals",
	FnIf:          "Fn::If",
	FnBase64:      "Fn::Base64",
	FnCidr:        "Fn::Cidr",
	FnFindInMap:   "Fn::FindInMap",
	FnGetAtt:      "Fn::GetAtt",
	FnGetAZs:      "Fn::GetAZs",
	FnImportValue: "Fn::ImportValue",
	FnJoin:        "Fn::Join",
	FnSelect:      "Fn::Select",
	FnSplit:       "Fn::Split",
	FnSub:         "Fn::Sub",
	FnTransform:   "Fn::Transform",
}

var funcIDsByName = func() map[string]FuncID {
	out := make(map[string]FuncID, len(funcNames))
	for id, name := range funcNames {
		out[name] = id
	}
	return out
}()

func (id FuncID) String() string {
	return funcNames[id]
}

// lookupFunc recognizes a map key as an intrinsic-function call site.
// Matching is case-sensitive on the canonical long form; short-form
// aliases are normalized away by the loader before the renderer runs.
func lookupFunc(key string) (FuncID, bool) {
	id, ok := funcIDsByName[key]
	return id, ok
}

// funcSet is a set of functions legal in some nesting position.
type funcSet map[FuncID]struct{}

func newFuncSet(ids ...FuncID) funcSet {
	out := make(funcSet, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func (s funcSet) contains(id FuncID) bool {
	_, ok := s[id]
	return ok
}

// conditionFuncs are the only functions legal inside the Conditions
// section: conditions may depend on other conditions, parameters,
// pseudo values and mappings, never on resource attributes.
var conditionFuncs = newFuncSet(
	FnAnd, FnEquals, FnIf, FnNot, FnOr, FnCondition, FnFindInMap, FnRef,
)

// allFuncs is the full registry consulted in Resources and Outputs.
var allFuncs = newFuncSet(
	FnRef, FnCondition,
	FnAnd, FnOr, FnNot, FnEquals, FnIf,
	FnBase64, FnCidr, FnFindInMap, FnGetAtt, FnGetAZs,
	FnImportValue, FnJoin, FnSelect, FnSplit, FnSub, FnTransform,
)

// allowedNested maps each function to the functions legal as its
// arguments, following the CloudFormation intrinsic function reference.
// A function missing from an entry raises ErrNotAllowed when it appears
// in that position.
var allowedNested = map[FuncID]funcSet{
	// Ref takes a literal name, GetAtt a literal id/attribute pair and
	// Condition a literal condition name.
	FnRef:       newFuncSet(),
	FnGetAtt:    newFuncSet(),
	FnCondition: newFuncSet(),
	FnTransform: newFuncSet(),

	FnAnd:    conditionFuncs,
	FnOr:     conditionFuncs,
	FnNot:    conditionFuncs,
	FnEquals: conditionFuncs,

	FnIf: newFuncSet(
		FnBase64, FnFindInMap, FnGetAtt, FnGetAZs, FnIf,
		FnJoin, FnSelect, FnSub, FnRef,
	),

	FnBase64: newFuncSet(
		FnBase64, FnFindInMap, FnGetAtt, FnGetAZs, FnIf,
		FnImportValue, FnJoin, FnSelect, FnSplit, FnSub, FnRef,
	),

	FnCidr: newFuncSet(FnSelect, FnRef),

	FnFindInMap: newFuncSet(FnFindInMap, FnRef),

	FnGetAZs: newFuncSet(FnRef),

	FnImportValue: newFuncSet(
		FnBase64, FnFindInMap, FnIf, FnJoin, FnSelect, FnSplit,
		FnSub, FnRef,
	),

	FnJoin: newFuncSet(
		FnBase64, FnFindInMap, FnGetAtt, FnGetAZs, FnIf,
		FnImportValue, FnJoin, FnSelect, FnSplit, FnSub, FnRef,
	),

	FnSelect: newFuncSet(
		FnFindInMap, FnGetAtt, FnGetAZs, FnIf, FnSplit, FnRef,
	),

	FnSplit: newFuncSet(
		FnBase64, FnFindInMap, FnGetAtt, FnGetAZs, FnIf,
		FnImportValue, FnJoin, FnSelect, FnSub, FnRef,
	),

	// Fn::Sub takes nearly every value-producing function but no
	// boolean combinators.
	FnSub: newFuncSet(
		FnBase64, FnFindInMap, FnGetAtt, FnGetAZs, FnIf,
		FnImportValue, FnJoin, FnSelect, FnSplit, FnRef,
	),
}

// transformFuncs lists the extra or overridden functions contributed by
// each known Transform declaration. Declaring any other transform is an
// error at template construction time.
var transformFuncs = map[string]map[FuncID]intrinsicFunc{
	"AWS::CodeDeployBlueGreen": {},
	"AWS::Include":             {},
	"AWS::LanguageExtensions": {
		FnFindInMap: fnEnhancedFindInMap,
	},
	"AWS::SecretsManager-2020-07-23": {},
	"AWS::Serverless-2016-10-31":     {},
	"AWS::ServiceCatalog":            {},
}
