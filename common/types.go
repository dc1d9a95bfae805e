// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package common provides type abstractions that are used throughout
// go-lucre.
package common

import (
	"encoding/hex"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// TxIDLen is the byte length of a transfer id.
const TxIDLen = 16

// TxID identifies a single two-party transfer. It is generated by the
// initiating wallet from a cryptographically uniform random source and echoed
// verbatim by the peer. TxIDs compare by byte content.
type TxID [TxIDLen]byte

// NewTxID generates a fresh random transfer id.
func NewTxID() TxID {
	return TxID(uuid.New())
}

// TxIDFromBytes converts a byte slice to a transfer id.
func TxIDFromBytes(b []byte) (TxID, error) {
	var id TxID
	if len(b) != TxIDLen {
		return id, errors.Errorf("tx id must be %d bytes, got %d", TxIDLen, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Bytes returns the id as a byte slice.
func (id TxID) Bytes() []byte { return id[:] }

// String returns the bracketed hex representation used in logs.
func (id TxID) String() string {
	return "[" + hex.EncodeToString(id[:]) + "]"
}

// Encode writes the id to the writer.
func (id TxID) Encode(w io.Writer) error {
	_, err := w.Write(id[:])
	return errors.Wrap(err, "writing tx id")
}

// Decode reads the id from the reader.
func (id *TxID) Decode(r io.Reader) error {
	_, err := io.ReadFull(r, id[:])
	return errors.Wrap(err, "reading tx id")
}

// PeerID is an opaque network-layer handle identifying a connected peer. It
// is assigned by the network layer and only compared for equality by the
// wallet core.
type PeerID uint64

func (p PeerID) String() string {
	return "peer:" + strconv.FormatUint(uint64(p), 10)
}
