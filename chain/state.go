// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package chain

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"

	"lucre.network/go-lucre/wire"
)

// Definition is the UTXO set accumulator root captured in a block header.
// UTXO presence proofs are validated against it.
type Definition = chainhash.Hash

// StateID is a (height, hash) pair uniquely identifying a chain tip.
// StateIDs are totally ordered by height; equality requires a matching hash.
type StateID struct {
	Height Height
	Hash   chainhash.Hash
}

// After reports whether s supersedes o: it is strictly higher, or at equal
// height carries a different hash.
func (s StateID) After(o StateID) bool {
	return s.Height > o.Height || (s.Height == o.Height && s.Hash != o.Hash)
}

// Encode writes the state id to the writer.
func (s StateID) Encode(w io.Writer) error {
	return wire.Encode(w, uint64(s.Height), s.Hash[:])
}

// Decode reads the state id from the reader.
func (s *StateID) Decode(r io.Reader) error {
	var hash []byte
	if err := wire.Decode(r, (*uint64)(&s.Height), &hash); err != nil {
		return err
	}
	if len(hash) != chainhash.HashSize {
		return errors.Errorf("state hash must be %d bytes, got %d", chainhash.HashSize, len(hash))
	}
	copy(s.Hash[:], hash)
	return nil
}

// Description is the part of a block header the wallet consumes: the tip
// position and the accumulator root to validate proofs against.
type Description struct {
	Height     Height
	Prev       chainhash.Hash
	Definition Definition
	TimeStamp  uint64
}

// ID derives the state identifier of the described tip.
func (d *Description) ID() StateID {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint64(d.Height))
	buf.Write(d.Prev[:])
	buf.Write(d.Definition[:])
	binary.Write(&buf, binary.LittleEndian, d.TimeStamp)
	return StateID{Height: d.Height, Hash: chainhash.DoubleHashH(buf.Bytes())}
}

// Encode writes the description to the writer.
func (d *Description) Encode(w io.Writer) error {
	return wire.Encode(w, uint64(d.Height), d.Prev[:], d.Definition[:], d.TimeStamp)
}

// Decode reads the description from the reader.
func (d *Description) Decode(r io.Reader) error {
	var prev, def []byte
	if err := wire.Decode(r, (*uint64)(&d.Height), &prev, &def, &d.TimeStamp); err != nil {
		return err
	}
	if len(prev) != chainhash.HashSize || len(def) != chainhash.HashSize {
		return errors.New("malformed header hashes")
	}
	copy(d.Prev[:], prev)
	copy(d.Definition[:], def)
	return nil
}
