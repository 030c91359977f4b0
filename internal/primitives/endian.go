// Package primitives holds the small, format-independent helpers
// every container decoder in this module builds on: fixed-layout
// record decoding, MSF/LBA conversion, epoch date handling, and the
// CD scrambler.
package primitives

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// DecodeFixedLayout decodes data into dst, a pointer to a struct of
// fixed-width fields, using the given byte order. It consumes exactly
// binary.Size(dst) bytes and fails if data is shorter than that.
//
// The QCOW header and the AppleSingle header and entry table are
// decoded through it; other records (MacBinary header fields, QCOW
// L1/L2 entries, CloneCD full-TOC bytes) are read or written at fixed
// offsets directly with encoding/binary.
func DecodeFixedLayout(order binary.ByteOrder, data []byte, dst any) error {
	size := binary.Size(dst)
	if size < 0 {
		return fmt.Errorf("primitives: %T is not a fixed-size layout", dst)
	}
	if len(data) < size {
		return fmt.Errorf("primitives: need %d bytes to decode %T, got %d", size, dst, len(data))
	}
	return binary.Read(bytes.NewReader(data[:size]), order, dst)
}

// EncodeFixedLayout is DecodeFixedLayout's inverse: it serializes src
// (a fixed-width struct or pointer to one) to bytes in the given byte
// order.
func EncodeFixedLayout(order binary.ByteOrder, src any) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, order, src); err != nil {
		return nil, fmt.Errorf("primitives: failed to encode %T: %w", src, err)
	}
	return buf.Bytes(), nil
}
