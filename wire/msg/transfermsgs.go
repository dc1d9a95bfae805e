// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package msg

import (
	"io"

	"lucre.network/go-lucre/chain"
	"lucre.network/go-lucre/common"
	"lucre.network/go-lucre/wire"
)

// InviteReceiver opens a transfer negotiation. The sender proposes the
// transfer conditions and discloses its public excess and nonce.
type InviteReceiver struct {
	TxId      common.TxID
	Amount    chain.Amount
	Fee       chain.Amount
	MinHeight chain.Height
	Excess    chain.Point
	Nonce     chain.Point
}

func (*InviteReceiver) Category() Category { return Transfer }

func (*InviteReceiver) Type() Type { return InviteReceiverMsg }

// TxID returns the id of the transfer this message belongs to.
func (m *InviteReceiver) TxID() common.TxID { return m.TxId }

func (m *InviteReceiver) encode(w io.Writer) error {
	return wire.Encode(w, &m.TxId, uint64(m.Amount), uint64(m.Fee),
		uint64(m.MinHeight), m.Excess, m.Nonce)
}

func (m *InviteReceiver) decode(r io.Reader) error {
	return wire.Decode(r, &m.TxId, (*uint64)(&m.Amount), (*uint64)(&m.Fee),
		(*uint64)(&m.MinHeight), &m.Excess, &m.Nonce)
}

// ConfirmInvitation is the receiver's answer to an invitation: its output
// commitment, public excess and nonce, and its partial kernel signature.
type ConfirmInvitation struct {
	TxId      common.TxID
	Output    chain.Output
	Excess    chain.Point
	Nonce     chain.Point
	Signature [chain.ScalarLen]byte
}

func (*ConfirmInvitation) Category() Category { return Transfer }

func (*ConfirmInvitation) Type() Type { return ConfirmInvitationMsg }

// TxID returns the id of the transfer this message belongs to.
func (m *ConfirmInvitation) TxID() common.TxID { return m.TxId }

func (m *ConfirmInvitation) encode(w io.Writer) error {
	return wire.Encode(w, &m.TxId, m.Output, m.Excess, m.Nonce, m.Signature[:])
}

func (m *ConfirmInvitation) decode(r io.Reader) error {
	var sig []byte
	if err := wire.Decode(r, &m.TxId, &m.Output, &m.Excess, &m.Nonce, &sig); err != nil {
		return err
	}
	copy(m.Signature[:], sig)
	return nil
}

// ConfirmTransaction completes the negotiation with the sender's partial
// kernel signature. The receiver checks it against the sender's public excess
// and nonce under the combined challenge before awaiting registration.
type ConfirmTransaction struct {
	TxId      common.TxID
	Signature [chain.ScalarLen]byte
}

func (*ConfirmTransaction) Category() Category { return Transfer }

func (*ConfirmTransaction) Type() Type { return ConfirmTransactionMsg }

// TxID returns the id of the transfer this message belongs to.
func (m *ConfirmTransaction) TxID() common.TxID { return m.TxId }

func (m *ConfirmTransaction) encode(w io.Writer) error {
	return wire.Encode(w, &m.TxId, m.Signature[:])
}

func (m *ConfirmTransaction) decode(r io.Reader) error {
	var sig []byte
	if err := wire.Decode(r, &m.TxId, &sig); err != nil {
		return err
	}
	copy(m.Signature[:], sig)
	return nil
}

// TxRegistered reports the outcome of the transaction's chain registration
// to the peer.
type TxRegistered struct {
	TxId       common.TxID
	Registered bool
}

func (*TxRegistered) Category() Category { return Transfer }

func (*TxRegistered) Type() Type { return TxRegisteredMsg }

// TxID returns the id of the transfer this message belongs to.
func (m *TxRegistered) TxID() common.TxID { return m.TxId }

func (m *TxRegistered) encode(w io.Writer) error {
	return wire.Encode(w, &m.TxId, m.Registered)
}

func (m *TxRegistered) decode(r io.Reader) error {
	return wire.Decode(r, &m.TxId, &m.Registered)
}

// TxFailed aborts a transfer.
type TxFailed struct {
	TxId common.TxID
}

func (*TxFailed) Category() Category { return Transfer }

func (*TxFailed) Type() Type { return TxFailedMsg }

// TxID returns the id of the transfer this message belongs to.
func (m *TxFailed) TxID() common.TxID { return m.TxId }

func (m *TxFailed) encode(w io.Writer) error { return wire.Encode(w, &m.TxId) }

func (m *TxFailed) decode(r io.Reader) error { return wire.Decode(r, &m.TxId) }
