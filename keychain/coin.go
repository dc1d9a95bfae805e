// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package keychain

import (
	"bytes"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"

	"lucre.network/go-lucre/chain"
	"lucre.network/go-lucre/common"
	"lucre.network/go-lucre/wire"
)

// Status is the lifecycle state of a coin.
type Status uint8

// The coin lifecycle. A coin is created Unconfirmed, becomes Unspent once a
// chain proof confirms it, is Locked while a transfer spends it, and ends
// Spent.
const (
	Unconfirmed Status = iota
	Unspent
	Locked
	Spent
)

func (s Status) String() string {
	return [...]string{"Unconfirmed", "Unspent", "Locked", "Spent"}[s]
}

// KeyType states how a coin's blinding key is derived.
type KeyType uint8

// Regular coins come from transfers, Coinbase and Commission coins from
// mined blocks.
const (
	Regular KeyType = iota
	Coinbase
	Commission
)

func (k KeyType) String() string {
	return [...]string{"Regular", "Coinbase", "Commission"}[k]
}

// Coin is a UTXO record. The keychain owns the persistent state; the wallet
// core mutates copies and writes them back via Store and Update.
type Coin struct {
	ID            uint64
	Amount        chain.Amount
	Status        Status
	CreateHeight  chain.Height
	ConfirmHeight chain.Height
	LockedHeight  chain.Height
	Maturity      chain.Height
	KeyType       KeyType
	ConfirmHash   chainhash.Hash
	CreateTxID    *common.TxID
	SpentTxID     *common.TxID
}

// NewCoin creates an unconfirmed coin of the given amount. The keychain
// assigns its id on Store.
func NewCoin(amount chain.Amount, keyType KeyType, createHeight chain.Height) Coin {
	return Coin{
		Amount:       amount,
		Status:       Unconfirmed,
		CreateHeight: createHeight,
		Maturity:     chain.MaxHeight,
		KeyType:      keyType,
	}
}

func encodeOptTxID(w io.Writer, id *common.TxID) error {
	if id == nil {
		return wire.Encode(w, false)
	}
	return wire.Encode(w, true, *id)
}

func decodeOptTxID(r io.Reader, id **common.TxID) error {
	var present bool
	if err := wire.Decode(r, &present); err != nil {
		return err
	}
	if !present {
		*id = nil
		return nil
	}
	*id = new(common.TxID)
	return (*id).Decode(r)
}

// Encode writes the coin to the writer.
func (c *Coin) Encode(w io.Writer) error {
	if err := wire.Encode(w, c.ID, uint64(c.Amount), uint8(c.Status),
		uint64(c.CreateHeight), uint64(c.ConfirmHeight), uint64(c.LockedHeight),
		uint64(c.Maturity), uint8(c.KeyType), c.ConfirmHash[:]); err != nil {
		return err
	}
	if err := encodeOptTxID(w, c.CreateTxID); err != nil {
		return err
	}
	return encodeOptTxID(w, c.SpentTxID)
}

// Decode reads the coin from the reader.
func (c *Coin) Decode(r io.Reader) error {
	var hash []byte
	if err := wire.Decode(r, &c.ID, (*uint64)(&c.Amount), (*uint8)(&c.Status),
		(*uint64)(&c.CreateHeight), (*uint64)(&c.ConfirmHeight),
		(*uint64)(&c.LockedHeight), (*uint64)(&c.Maturity),
		(*uint8)(&c.KeyType), &hash); err != nil {
		return err
	}
	if len(hash) != chainhash.HashSize {
		return errors.New("malformed coin confirm hash")
	}
	copy(c.ConfirmHash[:], hash)
	if err := decodeOptTxID(r, &c.CreateTxID); err != nil {
		return err
	}
	return decodeOptTxID(r, &c.SpentTxID)
}

func (c *Coin) marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Coin) unmarshal(data []byte) error {
	return c.Decode(bytes.NewReader(data))
}
