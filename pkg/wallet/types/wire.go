package types

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"helium-ledger/pkg/errno"
)

// appendBytesField writes a length-delimited field; proto3 omits empty values.
func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// appendVarintField writes a varint field; proto3 omits zero values.
func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

func (f field) bytesInto(dst *[]byte) error {
	if f.typ != protowire.BytesType {
		return fmt.Errorf("%w: field %d has wire type %d, want bytes", errno.ErrDecodingFailed, f.num, f.typ)
	}
	*dst = append([]byte(nil), f.bytes...)
	return nil
}

func (f field) varintInto(dst *uint64) error {
	if f.typ != protowire.VarintType {
		return fmt.Errorf("%w: field %d has wire type %d, want varint", errno.ErrDecodingFailed, f.num, f.typ)
	}
	*dst = f.varint
	return nil
}

// walkFields decodes every top-level field of a protobuf message. Unknown wire types are
// skipped so newer records still parse.
func walkFields(b []byte, visit func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", errno.ErrDecodingFailed, protowire.ParseError(n))
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", errno.ErrDecodingFailed, num, protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.VarintType && typ != protowire.BytesType {
			continue
		}
		if err := visit(f); err != nil {
			return err
		}
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
