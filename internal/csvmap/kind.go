package csvmap

import (
	"strconv"
	"strings"
)

// Kind is the conversion target of a single field.
type Kind uint8

const (
	Int   Kind = iota + 1 // signed 32-bit, stored as int
	Long                  // signed 64-bit, stored as int64
	Float                 // float64
	Bool                  // bool
	Text                  // string, or nil when the column is absent
)

var kindNames = map[Kind]string{
	Int:   "int",
	Long:  "long",
	Float: "float",
	Bool:  "bool",
	Text:  "text",
}

// kindAliases lists every spelling ParseKind accepts.
var kindAliases = map[string]Kind{
	"int":     Int,
	"integer": Int,
	"int32":   Int,
	"long":    Long,
	"int64":   Long,
	"float":   Float,
	"double":  Float,
	"decimal": Float,
	"float64": Float,
	"bool":    Bool,
	"boolean": Bool,
	"text":    Text,
	"string":  Text,
	"str":     Text,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind resolves a kind by name, case-insensitively.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

type converter func(raw string, present bool) (any, error)

// converters is the single kind -> conversion table. Absent columns and
// empty text collapse to the kind's zero value; only the numeric kinds can fail.
var converters = map[Kind]converter{
	Int: func(raw string, present bool) (any, error) {
		if !present || raw == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, err
		}
		return int(n), nil
	},
	Long: func(raw string, present bool) (any, error) {
		if !present || raw == "" {
			return int64(0), nil
		}
		return strconv.ParseInt(raw, 10, 64)
	},
	Float: func(raw string, present bool) (any, error) {
		raw = strings.TrimSpace(raw)
		if !present || raw == "" {
			return 0.0, nil
		}
		return strconv.ParseFloat(raw, 64)
	},
	Bool: func(raw string, present bool) (any, error) {
		return present && strings.EqualFold(raw, "true"), nil
	},
	Text: func(raw string, present bool) (any, error) {
		if !present {
			return nil, nil
		}
		return raw, nil
	},
}

// Convert coerces raw to kind k. present=false means the line had no column
// at this position. Failures are returned as *ConversionError without a
// field name.
func Convert(k Kind, raw string, present bool) (any, error) {
	conv, ok := converters[k]
	if !ok {
		return nil, &UnsupportedKindError{Kind: k.String()}
	}
	v, err := conv(raw, present)
	if err != nil {
		return nil, &ConversionError{Kind: k, Value: raw, Err: err}
	}
	return v, nil
}
