package sql

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	NullString  = "NULL"
	TrueString  = "true"
	FalseString = "false"

	TimestampFormat = "2006-01-02 15:04:05.999999"
)

type Value interface {
	fmt.Stringer

	// return -1 if v1 < v2
	// return 0 if v1 == v2
	// return 1 if v1 > v2
	Compare(v2 Value) (int, error)
}

type BoolValue bool

func (b BoolValue) String() string {
	if b {
		return TrueString
	}
	return FalseString
}

func (b1 BoolValue) Compare(v2 Value) (int, error) {
	b2, ok := v2.(BoolValue)
	if !ok {
		return 0, fmt.Errorf("sql: want boolean got %v", v2)
	}
	if b1 == b2 {
		return 0, nil
	} else if b1 {
		return 1, nil
	}
	return -1, nil
}

type Int64Value int64

func (i Int64Value) String() string {
	return strconv.FormatInt(int64(i), 10)
}

func (i1 Int64Value) Compare(v2 Value) (int, error) {
	return compareNumbers(i1, v2)
}

type Float64Value float64

func (d Float64Value) String() string {
	return strconv.FormatFloat(float64(d), 'g', -1, 64)
}

func (d1 Float64Value) Compare(v2 Value) (int, error) {
	return compareNumbers(d1, v2)
}

// NumericValue is an exact decimal: Unscaled * 10^-Scale.
type NumericValue struct {
	Unscaled int64
	Scale    int
}

func (n NumericValue) String() string {
	s := strconv.FormatInt(n.Unscaled, 10)
	if n.Scale <= 0 {
		return s
	}

	var neg bool
	if n.Unscaled < 0 {
		neg = true
		s = s[1:]
	}
	if len(s) <= n.Scale {
		s = strings.Repeat("0", n.Scale-len(s)+1) + s
	}
	s = s[:len(s)-n.Scale] + "." + s[len(s)-n.Scale:]
	if neg {
		return "-" + s
	}
	return s
}

func (n NumericValue) Rat() *big.Rat {
	r := new(big.Rat).SetInt64(n.Unscaled)
	if n.Scale > 0 {
		d := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Scale)), nil)
		r.Quo(r, new(big.Rat).SetInt(d))
	}
	return r
}

func (n1 NumericValue) Compare(v2 Value) (int, error) {
	return compareNumbers(n1, v2)
}

type StringValue string

func (s StringValue) String() string {
	return fmt.Sprintf("'%s'", string(s))
}

func (s1 StringValue) Compare(v2 Value) (int, error) {
	if s2, ok := v2.(StringValue); ok {
		return strings.Compare(string(s1), string(s2)), nil
	}
	return 0, fmt.Errorf("sql: want string got %v", v2)
}

type BytesValue []byte

var (
	hexDigits = "0123456789abcdef"
)

func (b BytesValue) String() string {
	var buf bytes.Buffer
	buf.WriteString("'\\x")
	for _, v := range b {
		buf.WriteByte(hexDigits[v>>4])
		buf.WriteByte(hexDigits[v&0xF])
	}
	buf.WriteByte('\'')
	return buf.String()
}

func (b1 BytesValue) Compare(v2 Value) (int, error) {
	if b2, ok := v2.(BytesValue); ok {
		return bytes.Compare([]byte(b1), []byte(b2)), nil
	}
	return 0, fmt.Errorf("sql: want bytes got %v", v2)
}

type TimestampValue time.Time

func (t TimestampValue) String() string {
	return fmt.Sprintf("'%s'", time.Time(t).UTC().Format(TimestampFormat))
}

func (t1 TimestampValue) Compare(v2 Value) (int, error) {
	t2, ok := v2.(TimestampValue)
	if !ok {
		return 0, fmt.Errorf("sql: want timestamp got %v", v2)
	}
	if time.Time(t1).Before(time.Time(t2)) {
		return -1, nil
	} else if time.Time(t1).After(time.Time(t2)) {
		return 1, nil
	}
	return 0, nil
}

func numberRat(v Value) (*big.Rat, bool) {
	switch v := v.(type) {
	case Int64Value:
		return new(big.Rat).SetInt64(int64(v)), true
	case Float64Value:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, false
		}
		return new(big.Rat).SetFloat64(float64(v)), true
	case NumericValue:
		return v.Rat(), true
	}
	return nil, false
}

func compareNumbers(v1, v2 Value) (int, error) {
	if f1, ok := v1.(Float64Value); ok {
		if f2, ok := v2.(Float64Value); ok {
			if f1 < f2 {
				return -1, nil
			} else if f1 > f2 {
				return 1, nil
			}
			return 0, nil
		}
	}

	r1, ok1 := numberRat(v1)
	r2, ok2 := numberRat(v2)
	if !ok1 || !ok2 {
		return 0, fmt.Errorf("sql: want number got %v", v2)
	}
	return r1.Cmp(r2), nil
}

// rank orders values of different types: NULL < boolean < number < timestamp < string
// < bytes.
func rank(v Value) int {
	switch v.(type) {
	case nil:
		return 0
	case BoolValue:
		return 1
	case Int64Value, Float64Value, NumericValue:
		return 2
	case TimestampValue:
		return 3
	case StringValue:
		return 4
	case BytesValue:
		return 5
	}
	panic(fmt.Sprintf("unexpected type for sql.Value: %T: %v", v, v))
}

func Compare(v1, v2 Value) int {
	r1 := rank(v1)
	r2 := rank(v2)
	if r1 < r2 {
		return -1
	} else if r1 > r2 {
		return 1
	} else if r1 == 0 {
		return 0
	}

	cmp, err := v1.Compare(v2)
	if err != nil {
		// Only NaN and infinite floats compared against other numbers get here.
		return strings.Compare(v1.String(), v2.String())
	}
	return cmp
}

func Format(v Value) string {
	if v == nil {
		return NullString
	}

	return v.String()
}

func parseNumeric(dom Domain, s string) (NumericValue, error) {
	neg := strings.HasPrefix(s, "-")
	if neg || strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	whole := s
	var frac string
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole = s[:idx]
		frac = s[idx+1:]
	}
	if len(frac) > dom.Scale {
		frac = frac[:dom.Scale]
	} else {
		frac += strings.Repeat("0", dom.Scale-len(frac))
	}
	if whole == "" {
		whole = "0"
	}

	digits := strings.TrimLeft(whole+frac, "0")
	if len(digits) > dom.Precision {
		return NumericValue{}, fmt.Errorf("value %s does not fit in %s", s, dom)
	}
	if digits == "" {
		return NumericValue{Scale: dom.Scale}, nil
	}
	u, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return NumericValue{}, err
	}
	if neg {
		u = -u
	}
	return NumericValue{Unscaled: u, Scale: dom.Scale}, nil
}

// ConvertValue converts v to a value of the domain dom; strings are parsed. A nil v
// converts to nil.
func ConvertValue(dom Domain, v Value) (Value, error) {
	if v == nil {
		return nil, nil
	}

	switch dom.Type {
	case BooleanType:
		if sv, ok := v.(StringValue); ok {
			s := strings.ToLower(strings.Trim(string(sv), " \t\n"))
			if s == "t" || s == "true" || s == "y" || s == "yes" || s == "on" || s == "1" {
				return BoolValue(true), nil
			} else if s == "f" || s == "false" || s == "n" || s == "no" || s == "off" ||
				s == "0" {
				return BoolValue(false), nil
			}
			return nil, fmt.Errorf("sql: expected a boolean value: %v", v)
		} else if _, ok := v.(BoolValue); !ok {
			return nil, fmt.Errorf("sql: expected a boolean value: %v", v)
		}
	case IntegerType:
		switch v := v.(type) {
		case Float64Value:
			return Int64Value(v), nil
		case NumericValue:
			r := v.Rat()
			return Int64Value(new(big.Int).Quo(r.Num(), r.Denom()).Int64()), nil
		case StringValue:
			i, err := strconv.ParseInt(strings.Trim(string(v), " \t\n"), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("sql: expected an integer: %v: %s", v, err)
			}
			return Int64Value(i), nil
		case Int64Value:
		default:
			return nil, fmt.Errorf("sql: expected an integer value: %v", v)
		}
	case FloatType:
		switch v := v.(type) {
		case Int64Value:
			return Float64Value(v), nil
		case NumericValue:
			f, _ := v.Rat().Float64()
			return Float64Value(f), nil
		case StringValue:
			d, err := strconv.ParseFloat(strings.Trim(string(v), " \t\n"), 64)
			if err != nil {
				return nil, fmt.Errorf("sql: expected a float: %v: %s", v, err)
			}
			return Float64Value(d), nil
		case Float64Value:
		default:
			return nil, fmt.Errorf("sql: expected a float value: %v", v)
		}
	case NumericType:
		var s string
		switch v := v.(type) {
		case Int64Value:
			s = strconv.FormatInt(int64(v), 10)
		case Float64Value:
			s = strconv.FormatFloat(float64(v), 'f', dom.Scale, 64)
		case NumericValue:
			s = v.String()
		case StringValue:
			s = strings.Trim(string(v), " \t\n")
		default:
			return nil, fmt.Errorf("sql: expected a numeric value: %v", v)
		}
		n, err := parseNumeric(dom, s)
		if err != nil {
			return nil, fmt.Errorf("sql: expected a numeric: %v: %s", v, err)
		}
		return n, nil
	case StringType:
		switch v := v.(type) {
		case Int64Value, Float64Value, NumericValue, BoolValue:
			return StringValue(v.String()), nil
		case BytesValue:
			if !utf8.Valid([]byte(v)) {
				return nil, fmt.Errorf("sql: expected a valid utf8 string: %v", v)
			}
			return StringValue(v), nil
		case StringValue:
		default:
			return nil, fmt.Errorf("sql: expected a string value: %v", v)
		}
	case BytesType:
		if s, ok := v.(StringValue); ok {
			return BytesValue(s), nil
		} else if _, ok := v.(BytesValue); !ok {
			return nil, fmt.Errorf("sql: expected a bytes value: %v", v)
		}
	case TimestampType:
		switch sv := v.(type) {
		case StringValue:
			s := strings.Trim(string(sv), " \t\n")
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				t, err = time.Parse(TimestampFormat, s)
				if err != nil {
					return nil, fmt.Errorf("sql: expected a timestamp: %v: %s", v, err)
				}
			}
			return TimestampValue(t.UTC()), nil
		case TimestampValue:
		default:
			return nil, fmt.Errorf("sql: expected a timestamp value: %v", v)
		}
	default:
		panic(fmt.Sprintf("expected a valid data type; got %v", dom.Type))
	}

	return v, nil
}
