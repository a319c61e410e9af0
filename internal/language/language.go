package language

import (
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ValueToGo converts an AST value to a Go value. Variables are looked up in
// vars; a variable missing from vars yields nil.
func ValueToGo(value *Value, vars map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case Variable:
		if vars == nil {
			return nil
		}
		return vars[value.Raw]
	case IntValue:
		iv, err := strconv.ParseInt(value.Raw, 10, 64)
		if err != nil {
			return nil
		}
		return int(iv)
	case FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case StringValue, BlockValue, EnumValue:
		return value.Raw
	case BooleanValue:
		return value.Raw == "true"
	case NullValue:
		return nil
	case ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = ValueToGo(c.Value, vars)
		}
		return out
	case ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, c := range value.Children {
			m[c.Name] = ValueToGo(c.Value, vars)
		}
		return m
	}
	return nil
}

// LiteralArguments returns the values of the arguments written inline in the
// document. Arguments bound to a variable are omitted.
func LiteralArguments(args ArgumentList) map[string]any {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		if arg.Value == nil || arg.Value.Kind == Variable {
			continue
		}
		out[arg.Name] = ValueToGo(arg.Value, nil)
	}
	return out
}

// ArgumentValues returns every argument value with variables substituted.
func ArgumentValues(args ArgumentList, vars map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		out[arg.Name] = ValueToGo(arg.Value, vars)
	}
	return out
}
