package sql

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MaxNumericPrecision = 18
)

// Domain describes the type of a column of a list file: the data type, and for
// NUMERIC the precision and scale, and for VARCHAR and VARBINARY the maximum length
// (as precision; zero means unlimited).
type Domain struct {
	Type      DataType
	Precision int
	Scale     int
}

var (
	BoolDomain      = Domain{Type: BooleanType}
	Int64Domain     = Domain{Type: IntegerType}
	Float64Domain   = Domain{Type: FloatType}
	StringDomain    = Domain{Type: StringType}
	BytesDomain     = Domain{Type: BytesType}
	TimestampDomain = Domain{Type: TimestampType}
)

func NumericDomain(precision, scale int) Domain {
	return Domain{Type: NumericType, Precision: precision, Scale: scale}
}

func (dom Domain) String() string {
	switch dom.Type {
	case NumericType:
		return fmt.Sprintf("NUMERIC(%d,%d)", dom.Precision, dom.Scale)
	case StringType, BytesType:
		if dom.Precision > 0 {
			return fmt.Sprintf("%s(%d)", dom.Type, dom.Precision)
		}
	}
	return dom.Type.String()
}

func (dom Domain) Valid() error {
	switch dom.Type {
	case BooleanType, IntegerType, FloatType, TimestampType:
		if dom.Precision != 0 || dom.Scale != 0 {
			return fmt.Errorf("sql: %s: precision and scale not allowed", dom.Type)
		}
	case NumericType:
		if dom.Precision < 1 || dom.Precision > MaxNumericPrecision {
			return fmt.Errorf("sql: NUMERIC precision must be between 1 and %d: %d",
				MaxNumericPrecision, dom.Precision)
		}
		if dom.Scale < 0 || dom.Scale > dom.Precision {
			return fmt.Errorf("sql: NUMERIC scale must be between 0 and %d: %d", dom.Precision,
				dom.Scale)
		}
	case StringType, BytesType:
		if dom.Precision < 0 || dom.Scale != 0 {
			return fmt.Errorf("sql: %s: bad length: %d", dom.Type, dom.Precision)
		}
	default:
		return fmt.Errorf("sql: unknown data type: %d", dom.Type)
	}
	return nil
}

var (
	typeNames = map[string]DataType{
		"bool":      BooleanType,
		"boolean":   BooleanType,
		"int":       IntegerType,
		"bigint":    IntegerType,
		"integer":   IntegerType,
		"double":    FloatType,
		"float":     FloatType,
		"numeric":   NumericType,
		"decimal":   NumericType,
		"varchar":   StringType,
		"string":    StringType,
		"text":      StringType,
		"varbinary": BytesType,
		"bytes":     BytesType,
		"timestamp": TimestampType,
	}
)

// ParseDomain parses a type name such as INT, VARCHAR(20), or NUMERIC(10,2).
func ParseDomain(s string) (Domain, error) {
	s = strings.TrimSpace(s)
	name := s
	var args []string
	if idx := strings.IndexByte(s, '('); idx >= 0 {
		if !strings.HasSuffix(s, ")") {
			return Domain{}, fmt.Errorf("sql: expected ')': %s", s)
		}
		name = s[:idx]
		args = strings.Split(s[idx+1:len(s)-1], ",")
	}

	dt, ok := typeNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Domain{}, fmt.Errorf("sql: unknown type: %s", s)
	}

	dom := Domain{Type: dt}
	if len(args) > 2 {
		return Domain{}, fmt.Errorf("sql: too many arguments: %s", s)
	}
	for adx, arg := range args {
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return Domain{}, fmt.Errorf("sql: %s: %s", s, err)
		}
		if adx == 0 {
			dom.Precision = n
		} else {
			dom.Scale = n
		}
	}
	if dt == NumericType && len(args) == 0 {
		dom.Precision = MaxNumericPrecision
	}

	err := dom.Valid()
	if err != nil {
		return Domain{}, err
	}
	return dom, nil
}
