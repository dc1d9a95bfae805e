// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package chain defines the primitive chain types the wallet core operates
// on: amounts, heights, system state identifiers, Pedersen commitments,
// transfer kernels and UTXO presence proofs.
package chain // import "lucre.network/go-lucre/chain"

import (
	"fmt"
)

// Amount is a value in atomic units (mites).
type Amount uint64

// Height is a block height.
type Height uint64

const (
	// Coin is the number of mites in one lucre.
	Coin Amount = 1000000

	// CoinbaseEmission is the block reward.
	CoinbaseEmission = 40 * Coin

	// MaxHeight is the all-ones height sentinel.
	MaxHeight = ^Height(0)
)

// String renders the amount as whole coins plus atomic remainder, e.g.
// "3 lucre 140000 mites".
func (a Amount) String() string {
	whole, rem := uint64(a)/uint64(Coin), uint64(a)%uint64(Coin)
	if whole == 0 {
		return fmt.Sprintf("%d mites", rem)
	}
	if rem == 0 {
		return fmt.Sprintf("%d lucre", whole)
	}
	return fmt.Sprintf("%d lucre %d mites", whole, rem)
}
