// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package msg contains all the message types the wallet exchanges with peer
// wallets and with the upstream node, as well as the envelope functions for
// encoding and decoding them over a stream.
package msg // import "lucre.network/go-lucre/wire/msg"

import (
	"io"

	"github.com/pkg/errors"

	"lucre.network/go-lucre/common"
	"lucre.network/go-lucre/wire"
)

// Category classifies messages by their counterparty: transfer messages
// travel between peer wallets, node messages between a wallet and its
// upstream node.
type Category uint8

const (
	// Transfer messages negotiate a two-party transfer.
	Transfer Category = iota
	// Node messages carry chain state and transaction registration.
	Node
)

func (c Category) String() string {
	return [...]string{"TransferMsg", "NodeMsg"}[c]
}

// Type uniquely identifies a concrete message type on the wire.
type Type uint8

// The message type constants. Their values are part of the wire format and
// must not be reordered.
const (
	InviteReceiverMsg Type = iota
	ConfirmInvitationMsg
	ConfirmTransactionMsg
	TxRegisteredMsg
	TxFailedMsg
	NewTransactionMsg
	GetMinedMsg
	GetProofUtxoMsg
	BooleanMsg
	NewTipMsg
	HdrMsg
	MinedMsg
	ProofUtxoMsg

	typeEnd
)

// Valid reports whether the type is a known message type.
func (t Type) Valid() bool { return t < typeEnd }

func (t Type) String() string {
	if !t.Valid() {
		return "InvalidType"
	}
	return [...]string{
		"InviteReceiverMsg",
		"ConfirmInvitationMsg",
		"ConfirmTransactionMsg",
		"TxRegisteredMsg",
		"TxFailedMsg",
		"NewTransactionMsg",
		"GetMinedMsg",
		"GetProofUtxoMsg",
		"BooleanMsg",
		"NewTipMsg",
		"HdrMsg",
		"MinedMsg",
		"ProofUtxoMsg",
	}[t]
}

// Msg is the top-level abstraction of everything that goes over a
// connection. Concrete messages encode and decode only their payload; the
// type tag is handled by the envelope functions Encode and Decode.
type Msg interface {
	// Category returns whether this is a transfer or a node message.
	Category() Category
	// Type returns the message's wire type tag.
	Type() Type

	encode(io.Writer) error
	decode(io.Reader) error
}

// TransferMsg is a message addressed to a peer wallet. It always carries the
// id of the transfer it belongs to.
type TransferMsg interface {
	Msg
	// TxID returns the id of the transfer this message belongs to.
	TxID() common.TxID
}

// Encode writes the message's type tag followed by its payload.
func Encode(m Msg, w io.Writer) error {
	if err := wire.Encode(w, uint8(m.Type())); err != nil {
		return errors.WithMessage(err, "encoding message type")
	}
	return m.encode(w)
}

// Decode reads a type tag from the reader and decodes the corresponding
// message.
func Decode(r io.Reader) (Msg, error) {
	var t uint8
	if err := wire.Decode(r, &t); err != nil {
		return nil, errors.WithMessage(err, "decoding message type")
	}
	m, err := newMsg(Type(t))
	if err != nil {
		return nil, err
	}
	return m, m.decode(r)
}

func newMsg(t Type) (Msg, error) {
	switch t {
	case InviteReceiverMsg:
		return new(InviteReceiver), nil
	case ConfirmInvitationMsg:
		return new(ConfirmInvitation), nil
	case ConfirmTransactionMsg:
		return new(ConfirmTransaction), nil
	case TxRegisteredMsg:
		return new(TxRegistered), nil
	case TxFailedMsg:
		return new(TxFailed), nil
	case NewTransactionMsg:
		return new(NewTransaction), nil
	case GetMinedMsg:
		return new(GetMined), nil
	case GetProofUtxoMsg:
		return new(GetProofUtxo), nil
	case BooleanMsg:
		return new(Boolean), nil
	case NewTipMsg:
		return new(NewTip), nil
	case HdrMsg:
		return new(Hdr), nil
	case MinedMsg:
		return new(Mined), nil
	case ProofUtxoMsg:
		return new(ProofUtxo), nil
	default:
		return nil, errors.Errorf("unknown message type %d", t)
	}
}
