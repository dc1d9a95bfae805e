// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package msg

import (
	"io"

	"lucre.network/go-lucre/chain"
	"lucre.network/go-lucre/wire"
)

// NewTransaction submits a negotiated transaction to the node for chain
// registration. The node answers with a Boolean.
type NewTransaction struct {
	Transaction chain.Transaction
}

func (*NewTransaction) Category() Category { return Node }

func (*NewTransaction) Type() Type { return NewTransactionMsg }

func (m *NewTransaction) encode(w io.Writer) error { return m.Transaction.Encode(w) }

func (m *NewTransaction) decode(r io.Reader) error { return m.Transaction.Decode(r) }

// GetMined requests the list of blocks mined by this wallet's miner key
// above the given height. The node answers with a Mined message.
type GetMined struct {
	Height chain.Height
}

func (*GetMined) Category() Category { return Node }

func (*GetMined) Type() Type { return GetMinedMsg }

func (m *GetMined) encode(w io.Writer) error {
	return wire.Encode(w, uint64(m.Height))
}

func (m *GetMined) decode(r io.Reader) error {
	return wire.Decode(r, (*uint64)(&m.Height))
}

// GetProofUtxo requests a presence proof for the UTXO identified by the
// input's commitment. The node answers with a ProofUtxo message.
type GetProofUtxo struct {
	Input  chain.Input
	Height chain.Height
}

func (*GetProofUtxo) Category() Category { return Node }

func (*GetProofUtxo) Type() Type { return GetProofUtxoMsg }

func (m *GetProofUtxo) encode(w io.Writer) error {
	return wire.Encode(w, m.Input, uint64(m.Height))
}

func (m *GetProofUtxo) decode(r io.Reader) error {
	return wire.Decode(r, &m.Input, (*uint64)(&m.Height))
}

// Boolean is the node's reply to a NewTransaction submission.
type Boolean struct {
	Value bool
}

func (*Boolean) Category() Category { return Node }

func (*Boolean) Type() Type { return BooleanMsg }

func (m *Boolean) encode(w io.Writer) error { return wire.Encode(w, m.Value) }

func (m *Boolean) decode(r io.Reader) error { return wire.Decode(r, &m.Value) }

// NewTip announces a new chain tip. The node follows up with an Hdr message
// carrying the tip's description.
type NewTip struct {
	ID chain.StateID
}

func (*NewTip) Category() Category { return Node }

func (*NewTip) Type() Type { return NewTipMsg }

func (m *NewTip) encode(w io.Writer) error { return m.ID.Encode(w) }

func (m *NewTip) decode(r io.Reader) error { return m.ID.Decode(r) }

// Hdr carries the block header description of the announced tip.
type Hdr struct {
	Description chain.Description
}

func (*Hdr) Category() Category { return Node }

func (*Hdr) Type() Type { return HdrMsg }

func (m *Hdr) encode(w io.Writer) error { return m.Description.Encode(w) }

func (m *Hdr) decode(r io.Reader) error { return m.Description.Decode(r) }

// MinedEntry describes one block mined by this wallet's miner key.
type MinedEntry struct {
	ID     chain.StateID
	Fees   chain.Amount
	Active bool
}

// Encode writes the entry to the writer.
func (e *MinedEntry) Encode(w io.Writer) error {
	return wire.Encode(w, &e.ID, uint64(e.Fees), e.Active)
}

// Decode reads the entry from the reader.
func (e *MinedEntry) Decode(r io.Reader) error {
	return wire.Decode(r, &e.ID, (*uint64)(&e.Fees), &e.Active)
}

// Mined is the node's reply to GetMined.
type Mined struct {
	Entries []MinedEntry
}

func (*Mined) Category() Category { return Node }

func (*Mined) Type() Type { return MinedMsg }

func (m *Mined) encode(w io.Writer) error {
	if err := wire.Encode(w, uint32(len(m.Entries))); err != nil {
		return err
	}
	for i := range m.Entries {
		if err := m.Entries[i].Encode(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mined) decode(r io.Reader) error {
	var count uint32
	if err := wire.Decode(r, &count); err != nil {
		return err
	}
	m.Entries = make([]MinedEntry, count)
	for i := range m.Entries {
		if err := m.Entries[i].Decode(r); err != nil {
			return err
		}
	}
	return nil
}

// ProofUtxo is the node's reply to GetProofUtxo. An empty proof list means
// the UTXO is not part of the current set.
type ProofUtxo struct {
	Proofs []chain.Proof
}

func (*ProofUtxo) Category() Category { return Node }

func (*ProofUtxo) Type() Type { return ProofUtxoMsg }

func (m *ProofUtxo) encode(w io.Writer) error {
	if err := wire.Encode(w, uint32(len(m.Proofs))); err != nil {
		return err
	}
	for i := range m.Proofs {
		if err := m.Proofs[i].Encode(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *ProofUtxo) decode(r io.Reader) error {
	var count uint32
	if err := wire.Decode(r, &count); err != nil {
		return err
	}
	m.Proofs = make([]chain.Proof, count)
	for i := range m.Proofs {
		if err := m.Proofs[i].Decode(r); err != nil {
			return err
		}
	}
	return nil
}
