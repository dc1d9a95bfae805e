// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package wire implements the binary primitives of the go-lucre wire format.
// All multi-byte integers are encoded in little-endian byte order. Strings
// are length-prefixed with a uint16, byte slices with a uint32.
package wire // import "lucre.network/go-lucre/wire"

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

var byteOrder = binary.LittleEndian

// Encoder objects can encode themselves onto an io.Writer.
type Encoder interface {
	// Encode writes the object to the writer.
	Encode(io.Writer) error
}

// Decoder objects can decode themselves from an io.Reader.
type Decoder interface {
	// Decode reads the object from the reader.
	Decode(io.Reader) error
}

// Encode encodes multiple primitive values onto a writer. The encoding stops
// at the first value that fails to encode. Supported types are bool, uint8,
// uint16, uint32, uint64, string, []byte and Encoder implementations; any
// other type panics.
func Encode(w io.Writer, values ...interface{}) error {
	for i, value := range values {
		var err error
		switch v := value.(type) {
		case bool, uint8, uint16, uint32, uint64:
			err = binary.Write(w, byteOrder, v)
		case string:
			err = encodeString(w, v)
		case []byte:
			err = encodeBytes(w, v)
		case Encoder:
			err = v.Encode(w)
		default:
			panic(errors.Errorf("wire: encode: unsupported type %T", value))
		}
		if err != nil {
			return errors.WithMessagef(err, "encoding %d-th value", i)
		}
	}
	return nil
}

// Decode decodes multiple primitive values from a reader, into the given
// pointers. The decoding stops at the first value that fails to decode.
// Supported types are *bool, *uint8, *uint16, *uint32, *uint64, *string,
// *[]byte and Decoder implementations; any other type panics.
func Decode(r io.Reader, values ...interface{}) error {
	for i, value := range values {
		var err error
		switch v := value.(type) {
		case *bool, *uint8, *uint16, *uint32, *uint64:
			err = binary.Read(r, byteOrder, v)
		case *string:
			err = decodeString(r, v)
		case *[]byte:
			err = decodeBytes(r, v)
		case Decoder:
			err = v.Decode(r)
		default:
			panic(errors.Errorf("wire: decode: unsupported type %T", value))
		}
		if err != nil {
			return errors.WithMessagef(err, "decoding %d-th value", i)
		}
	}
	return nil
}

func encodeString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		return errors.Errorf("string length exceeds %d: %d", math.MaxUint16, len(s))
	}
	if err := binary.Write(w, byteOrder, uint16(len(s))); err != nil {
		return errors.Wrap(err, "writing string length")
	}
	if len(s) == 0 {
		return nil
	}
	_, err := w.Write([]byte(s))
	return errors.Wrap(err, "writing string data")
}

func decodeString(r io.Reader, s *string) error {
	var length uint16
	if err := binary.Read(r, byteOrder, &length); err != nil {
		return errors.Wrap(err, "reading string length")
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return errors.Wrap(err, "reading string data")
	}
	*s = string(data)
	return nil
}

func encodeBytes(w io.Writer, b []byte) error {
	if uint64(len(b)) > math.MaxUint32 {
		return errors.Errorf("byte slice too long: %d", len(b))
	}
	if err := binary.Write(w, byteOrder, uint32(len(b))); err != nil {
		return errors.Wrap(err, "writing length")
	}
	_, err := w.Write(b)
	return errors.Wrap(err, "writing data")
}

func decodeBytes(r io.Reader, b *[]byte) error {
	var length uint32
	if err := binary.Read(r, byteOrder, &length); err != nil {
		return errors.Wrap(err, "reading length")
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return errors.Wrap(err, "reading data")
	}
	*b = data
	return nil
}
