// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package keychain

import (
	"bytes"
	"io"

	"lucre.network/go-lucre/chain"
	"lucre.network/go-lucre/wire"
)

// WalletAddress is one address book entry. Own addresses belong to this
// wallet, foreign ones to known peers.
type WalletAddress struct {
	WalletID   chain.Point
	Label      string
	Own        bool
	CreateTime uint64
}

// Encode writes the address to the writer.
func (a *WalletAddress) Encode(w io.Writer) error {
	return wire.Encode(w, a.WalletID, a.Label, a.Own, a.CreateTime)
}

// Decode reads the address from the reader.
func (a *WalletAddress) Decode(r io.Reader) error {
	return wire.Decode(r, &a.WalletID, &a.Label, &a.Own, &a.CreateTime)
}

// SaveAddress persists an address book entry, keyed by its wallet id.
func (k *Keychain) SaveAddress(a WalletAddress) error {
	var buf bytes.Buffer
	if err := a.Encode(&buf); err != nil {
		return err
	}
	return k.putSealed(k.addrs, a.WalletID.String(), buf.Bytes())
}

// Addresses loads the whole address book.
func (k *Keychain) Addresses() ([]WalletAddress, error) {
	var out []WalletAddress
	it := k.addrs.NewIterator()
	defer it.Close()
	for it.Next() {
		plaintext, err := open(k.master, it.ValueBytes())
		if err != nil {
			return nil, err
		}
		var a WalletAddress
		if err := a.Decode(bytes.NewReader(plaintext)); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
