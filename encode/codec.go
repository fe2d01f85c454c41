package encode

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/leftmike/listscan/sql"
)

// Codec decodes the bytes of one bound value of a tuple. When copy is false, the
// returned value may alias buf.
type Codec interface {
	DecodeValue(dom sql.Domain, buf []byte, copy bool) (sql.Value, error)
}

type codec struct{}

var (
	DefaultCodec Codec = codec{}
)

func (_ codec) DecodeValue(dom sql.Domain, buf []byte, copy bool) (sql.Value, error) {
	return DecodeValue(dom, buf, copy)
}

func checkSize(dom sql.Domain, buf []byte) error {
	if sz := dom.Type.FixedSize(); sz > 0 && len(buf) != sz {
		return fmt.Errorf("encode: %s: got %d bytes want %d", dom, len(buf), sz)
	}
	return nil
}

// DecodeValue decodes buf as a value of the domain dom.
func DecodeValue(dom sql.Domain, buf []byte, copy bool) (sql.Value, error) {
	err := checkSize(dom, buf)
	if err != nil {
		return nil, err
	}

	switch dom.Type {
	case sql.BooleanType:
		switch buf[0] {
		case 0:
			return sql.BoolValue(false), nil
		case 1:
			return sql.BoolValue(true), nil
		}
		return nil, fmt.Errorf("encode: bad boolean: %d", buf[0])
	case sql.IntegerType:
		return sql.Int64Value(int64(ToUint64(0, buf))), nil
	case sql.FloatType:
		return sql.Float64Value(ToFloat64(0, buf)), nil
	case sql.NumericType:
		return sql.NumericValue{Unscaled: int64(ToUint64(0, buf)), Scale: dom.Scale}, nil
	case sql.TimestampType:
		return sql.TimestampValue(time.UnixMicro(int64(ToUint64(0, buf))).UTC()), nil
	case sql.StringType:
		if !utf8.Valid(buf) {
			return nil, fmt.Errorf("encode: %s: invalid utf8", dom)
		}
		if dom.Precision > 0 && utf8.RuneCount(buf) > dom.Precision {
			return nil, fmt.Errorf("encode: %s: string too long: %d", dom, utf8.RuneCount(buf))
		}
		return sql.StringValue(buf), nil
	case sql.BytesType:
		if dom.Precision > 0 && len(buf) > dom.Precision {
			return nil, fmt.Errorf("encode: %s: bytes too long: %d", dom, len(buf))
		}
		if copy {
			return sql.BytesValue(append(make([]byte, 0, len(buf)), buf...)), nil
		}
		return sql.BytesValue(buf), nil
	}

	return nil, fmt.Errorf("encode: unknown data type: %d", dom.Type)
}

// EncodeValue appends the encoding of v, which must not be nil, as a value of the domain
// dom to buf.
func EncodeValue(buf []byte, dom sql.Domain, v sql.Value) ([]byte, error) {
	cv, err := sql.ConvertValue(dom, v)
	if err != nil {
		return nil, err
	}

	switch cv := cv.(type) {
	case sql.BoolValue:
		if cv {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	case sql.Int64Value:
		return AppendUint64(buf, uint64(cv)), nil
	case sql.Float64Value:
		return AppendUint64(buf, math.Float64bits(float64(cv))), nil
	case sql.NumericValue:
		return AppendUint64(buf, uint64(cv.Unscaled)), nil
	case sql.TimestampValue:
		return AppendUint64(buf, uint64(time.Time(cv).UnixMicro())), nil
	case sql.StringValue:
		if dom.Precision > 0 && utf8.RuneCountInString(string(cv)) > dom.Precision {
			return nil, fmt.Errorf("encode: %s: string too long: %d", dom,
				utf8.RuneCountInString(string(cv)))
		}
		return append(buf, cv...), nil
	case sql.BytesValue:
		if dom.Precision > 0 && len(cv) > dom.Precision {
			return nil, fmt.Errorf("encode: %s: bytes too long: %d", dom, len(cv))
		}
		return append(buf, cv...), nil
	case nil:
		return nil, fmt.Errorf("encode: %s: unexpected NULL", dom)
	}

	panic(fmt.Sprintf("unexpected type for sql.Value: %T: %v", cv, cv))
}
