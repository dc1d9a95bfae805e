// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package chain

import (
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"

	"lucre.network/go-lucre/wire"
)

// ProofNode is one step of a UTXO presence proof's Merkle path.
type ProofNode struct {
	Hash    chainhash.Hash
	OnRight bool
}

// Proof proves that a UTXO with a given maturity is present in the UTXO set
// accumulator committed to by a block header's definition.
type Proof struct {
	Maturity Height
	Nodes    []ProofNode
}

// proofLeaf commits to the UTXO's commitment and maturity.
func proofLeaf(input Input, maturity Height) chainhash.Hash {
	var buf [PointLen + 8]byte
	copy(buf[:PointLen], input.Commitment[:])
	binary.LittleEndian.PutUint64(buf[PointLen:], uint64(maturity))
	return chainhash.DoubleHashH(buf[:])
}

// IsValid folds the Merkle path over the proof's leaf and compares the
// result against the accumulator root.
func (p *Proof) IsValid(input Input, root Definition) bool {
	cur := proofLeaf(input, p.Maturity)
	var buf [2 * chainhash.HashSize]byte
	for _, n := range p.Nodes {
		if n.OnRight {
			copy(buf[:chainhash.HashSize], cur[:])
			copy(buf[chainhash.HashSize:], n.Hash[:])
		} else {
			copy(buf[:chainhash.HashSize], n.Hash[:])
			copy(buf[chainhash.HashSize:], cur[:])
		}
		cur = chainhash.DoubleHashH(buf[:])
	}
	return cur == root
}

// Encode writes the proof to the writer.
func (p *Proof) Encode(w io.Writer) error {
	if err := wire.Encode(w, uint64(p.Maturity), uint32(len(p.Nodes))); err != nil {
		return err
	}
	for _, n := range p.Nodes {
		if err := wire.Encode(w, n.Hash[:], n.OnRight); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads the proof from the reader.
func (p *Proof) Decode(r io.Reader) error {
	var count uint32
	if err := wire.Decode(r, (*uint64)(&p.Maturity), &count); err != nil {
		return err
	}
	p.Nodes = make([]ProofNode, count)
	for i := range p.Nodes {
		var hash []byte
		if err := wire.Decode(r, &hash, &p.Nodes[i].OnRight); err != nil {
			return err
		}
		if len(hash) != chainhash.HashSize {
			return errors.New("malformed proof node hash")
		}
		copy(p.Nodes[i].Hash[:], hash)
	}
	return nil
}
