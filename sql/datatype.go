package sql

type DataType int

const (
	UnknownType DataType = iota
	BooleanType
	IntegerType
	FloatType
	NumericType
	StringType
	BytesType
	TimestampType
)

func (dt DataType) String() string {
	switch dt {
	case BooleanType:
		return "BOOL"
	case IntegerType:
		return "BIGINT"
	case FloatType:
		return "DOUBLE"
	case NumericType:
		return "NUMERIC"
	case StringType:
		return "VARCHAR"
	case BytesType:
		return "VARBINARY"
	case TimestampType:
		return "TIMESTAMP"
	}

	return "UNKNOWN"
}

// FixedSize returns the encoded size of values of the type, or zero if values of the type
// are variable length.
func (dt DataType) FixedSize() int {
	switch dt {
	case BooleanType:
		return 1
	case IntegerType, FloatType, NumericType, TimestampType:
		return 8
	}
	return 0
}
