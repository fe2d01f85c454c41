/*
Convert numbers to and from a byte slice in little endian format; list file pages and
tuples are little endian.
*/
package encode

import (
	"math"
)

func ToUint16(i int, b []byte) uint16 {
	_ = b[i+1] // bounds check hint to compiler; see golang.org/issue/14808
	return uint16(b[i]) | uint16(b[i+1])<<8
}

func FromUint16(i int, b []byte, v uint16) {
	_ = b[i+1] // early bounds check to guarantee safety of writes below
	b[i] = byte(v)
	b[i+1] = byte(v >> 8)
}

func ToInt16(i int, b []byte) int16 {
	return int16(ToUint16(i, b))
}

func FromInt16(i int, b []byte, v int16) {
	FromUint16(i, b, uint16(v))
}

func ToUint32(i int, b []byte) uint32 {
	_ = b[i+3] // bounds check hint to compiler; see golang.org/issue/14808
	return uint32(b[i]) | uint32(b[i+1])<<8 | uint32(b[i+2])<<16 | uint32(b[i+3])<<24
}

func FromUint32(i int, b []byte, v uint32) {
	_ = b[i+3] // early bounds check to guarantee safety of writes below
	b[i] = byte(v)
	b[i+1] = byte(v >> 8)
	b[i+2] = byte(v >> 16)
	b[i+3] = byte(v >> 24)
}

func ToInt32(i int, b []byte) int32 {
	return int32(ToUint32(i, b))
}

func FromInt32(i int, b []byte, v int32) {
	FromUint32(i, b, uint32(v))
}

func ToUint64(i int, b []byte) uint64 {
	_ = b[i+7] // bounds check hint to compiler; see golang.org/issue/14808
	return uint64(ToUint32(i, b)) | uint64(ToUint32(i+4, b))<<32
}

func FromUint64(i int, b []byte, v uint64) {
	_ = b[i+7] // early bounds check to guarantee safety of writes below
	FromUint32(i, b, uint32(v))
	FromUint32(i+4, b, uint32(v>>32))
}

func ToFloat64(i int, b []byte) float64 {
	return math.Float64frombits(ToUint64(i, b))
}

func FromFloat64(i int, b []byte, v float64) {
	FromUint64(i, b, math.Float64bits(v))
}

func AppendUint32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func AppendInt32(buf []byte, v int32) []byte {
	return AppendUint32(buf, uint32(v))
}

func AppendUint64(buf []byte, v uint64) []byte {
	return AppendUint32(AppendUint32(buf, uint32(v)), uint32(v>>32))
}
