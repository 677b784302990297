package openf1

import (
	"net/url"
	"strconv"
	"strings"
)

// Operator is a comparison operator that the API expects as part of the
// parameter name, e.g. "speed>=300".
type Operator string

const (
	OpEq Operator = ""
	OpGt Operator = ">"
	OpGe Operator = ">="
	OpLt Operator = "<"
	OpLe Operator = "<="
)

type paramKind int

const (
	kindString paramKind = iota
	kindInt
	kindStrings
	kindInts
)

// Param is a single query parameter. Use the constructors to create one.
type Param struct {
	name    string
	op      Operator
	kind    paramKind
	strVals []string
	intVals []int
}

func String(name, value string) Param {
	return Param{name: name, kind: kindString, strVals: []string{value}}
}

func Int(name string, value int) Param {
	return Param{name: name, kind: kindInt, intVals: []int{value}}
}

// Strings repeats the parameter for each value
func Strings(name string, values ...string) Param {
	return Param{name: name, kind: kindStrings, strVals: values}
}

// Ints repeats the parameter for each value
func Ints(name string, values ...int) Param {
	return Param{name: name, kind: kindInts, intVals: values}
}

// Compare creates an int parameter with a comparison operator
func Compare(name string, op Operator, value int) Param {
	return Param{name: name, op: op, kind: kindInt, intVals: []int{value}}
}

func (p Param) Name() string { return p.name }

// IsEmpty reports list params without values. They are omitted from the query.
func (p Param) IsEmpty() bool {
	switch p.kind {
	case kindStrings:
		return len(p.strVals) == 0
	case kindInts:
		return len(p.intVals) == 0
	default:
		return false
	}
}

func (p Param) values() []string {
	if p.kind == kindInt || p.kind == kindInts {
		ret := make([]string, len(p.intVals))
		for i, v := range p.intVals {
			ret[i] = strconv.Itoa(v)
		}
		return ret
	}
	return p.strVals
}

// encode writes name, operator and value for each value of the param.
// The operator is written unescaped, "=" is only added for equality.
func (p Param) encode(sb *strings.Builder) {
	for _, v := range p.values() {
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.name))
		if p.op == OpEq {
			sb.WriteByte('=')
		} else {
			sb.WriteString(string(p.op))
		}
		sb.WriteString(url.QueryEscape(v))
	}
}

// EncodeParams builds the raw query string, keeping the order of params
func EncodeParams(params ...Param) string {
	sb := strings.Builder{}
	for _, p := range params {
		if p.IsEmpty() {
			continue
		}
		p.encode(&sb)
	}
	return sb.String()
}
