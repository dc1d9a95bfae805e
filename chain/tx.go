// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package chain

import (
	"io"

	"lucre.network/go-lucre/wire"
)

// TxKernel carries the proof of a transfer's excess: the combined public
// excess and nonce, the combined Schnorr signature over them, and the
// transfer conditions the signature commits to.
type TxKernel struct {
	Excess    Point
	Nonce     Point
	Signature [ScalarLen]byte
	Fee       Amount
	MinHeight Height
}

// IsValid verifies the kernel signature.
func (k *TxKernel) IsValid() bool {
	e := SigChallenge(k.Nonce, k.Excess, k.Fee, k.MinHeight)
	return VerifySig(ScalarFromBytes(k.Signature), k.Nonce, k.Excess, e)
}

// Encode writes the kernel to the writer.
func (k *TxKernel) Encode(w io.Writer) error {
	return wire.Encode(w, k.Excess, k.Nonce, k.Signature[:],
		uint64(k.Fee), uint64(k.MinHeight))
}

// Decode reads the kernel from the reader.
func (k *TxKernel) Decode(r io.Reader) error {
	var sig []byte
	if err := wire.Decode(r, &k.Excess, &k.Nonce, &sig,
		(*uint64)(&k.Fee), (*uint64)(&k.MinHeight)); err != nil {
		return err
	}
	copy(k.Signature[:], sig)
	return nil
}

// Transaction is a complete transfer as submitted to the node: spent inputs,
// created outputs and the kernel binding them.
type Transaction struct {
	Inputs  []Input
	Outputs []Output
	Kernel  TxKernel
}

// IsValid checks the transaction's kernel. Balance validation is the node's
// concern.
func (t *Transaction) IsValid() bool {
	return len(t.Outputs) > 0 && t.Kernel.IsValid()
}

// Encode writes the transaction to the writer.
func (t *Transaction) Encode(w io.Writer) error {
	if err := wire.Encode(w, uint32(len(t.Inputs)), uint32(len(t.Outputs))); err != nil {
		return err
	}
	for _, in := range t.Inputs {
		if err := in.Encode(w); err != nil {
			return err
		}
	}
	for _, out := range t.Outputs {
		if err := out.Encode(w); err != nil {
			return err
		}
	}
	return t.Kernel.Encode(w)
}

// Decode reads the transaction from the reader.
func (t *Transaction) Decode(r io.Reader) error {
	var nin, nout uint32
	if err := wire.Decode(r, &nin, &nout); err != nil {
		return err
	}
	t.Inputs = nil
	if nin > 0 {
		t.Inputs = make([]Input, nin)
	}
	for i := range t.Inputs {
		if err := t.Inputs[i].Decode(r); err != nil {
			return err
		}
	}
	t.Outputs = nil
	if nout > 0 {
		t.Outputs = make([]Output, nout)
	}
	for i := range t.Outputs {
		if err := t.Outputs[i].Decode(r); err != nil {
			return err
		}
	}
	return t.Kernel.Decode(r)
}
