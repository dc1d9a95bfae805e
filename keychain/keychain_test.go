// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package keychain

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lucre.network/go-lucre/chain"
	"lucre.network/go-lucre/common"
	"lucre.network/go-lucre/db/memorydb"
)

var testSeed = []byte("keychain test seed")

func newTestKeychain(t *testing.T) *Keychain {
	k, err := Init(memorydb.NewDatabase(), "passw0rd", testSeed)
	require.NoError(t, err)
	return k
}

func TestInitOpen(t *testing.T) {
	database := memorydb.NewDatabase()
	k, err := Init(database, "passw0rd", testSeed)
	require.NoError(t, err)

	coin := NewCoin(40, Regular, 5)
	require.NoError(t, k.Store(&coin))
	require.NotZero(t, coin.ID)

	t.Run("double init", func(t *testing.T) {
		_, err := Init(database, "other", testSeed)
		assert.Error(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := Open(database, "wrong")
		assert.Error(t, err)
	})

	t.Run("reopen", func(t *testing.T) {
		reopened, err := Open(database, "passw0rd")
		require.NoError(t, err)

		var got []Coin
		require.NoError(t, reopened.Visit(func(c Coin) bool {
			got = append(got, c)
			return true
		}))
		require.Len(t, got, 1)
		assert.Equal(t, coin, got[0])

		next := NewCoin(7, Regular, 6)
		require.NoError(t, reopened.Store(&next))
		assert.Equal(t, coin.ID+1, next.ID, "id counter resumes")
	})
}

func TestStoreVisitUpdate(t *testing.T) {
	k := newTestKeychain(t)

	coins := []Coin{
		NewCoin(10, Regular, 1),
		NewCoin(20, Coinbase, 2),
		NewCoin(30, Commission, 3),
	}
	for i := range coins {
		require.NoError(t, k.Store(&coins[i]))
	}

	t.Run("visit order and early stop", func(t *testing.T) {
		var seen []uint64
		require.NoError(t, k.Visit(func(c Coin) bool {
			seen = append(seen, c.ID)
			return len(seen) < 2
		}))
		assert.Equal(t, []uint64{coins[0].ID, coins[1].ID}, seen)
	})

	t.Run("update", func(t *testing.T) {
		txID := common.NewTxID()
		coins[0].Status = Locked
		coins[0].LockedHeight = 8
		coins[0].SpentTxID = &txID
		require.NoError(t, k.Update(coins[:1]))

		var got Coin
		require.NoError(t, k.Visit(func(c Coin) bool {
			if c.ID == coins[0].ID {
				got = c
				return false
			}
			return true
		}))
		assert.Equal(t, Locked, got.Status)
		assert.EqualValues(t, 8, got.LockedHeight)
		require.NotNil(t, got.SpentTxID)
		assert.Equal(t, txID, *got.SpentTxID)
	})

	t.Run("update without id", func(t *testing.T) {
		fresh := NewCoin(1, Regular, 1)
		assert.Error(t, k.Update([]Coin{fresh}))
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, k.Remove(coins[2].ID))
		count := 0
		require.NoError(t, k.Visit(func(Coin) bool {
			count++
			return true
		}))
		assert.Equal(t, 2, count)
	})
}

func TestCalcKey(t *testing.T) {
	k := newTestKeychain(t)

	a := NewCoin(10, Regular, 1)
	b := NewCoin(10, Regular, 1)
	require.NoError(t, k.Store(&a))
	require.NoError(t, k.Store(&b))

	assert.Equal(t, k.CalcKey(&a), k.CalcKey(&a), "derivation is deterministic")
	assert.NotEqual(t, k.CalcKey(&a), k.CalcKey(&b), "distinct coins get distinct keys")

	// The commitment derived from the key is deterministic.
	assert.Equal(t,
		chain.NewCommitment(k.CalcKey(&a), a.Amount),
		chain.NewCommitment(k.CalcKey(&a), a.Amount))
}

func TestSystemStateID(t *testing.T) {
	k := newTestKeychain(t)

	var id chain.StateID
	assert.False(t, k.GetSystemStateID(&id), "no state persisted yet")
	assert.EqualValues(t, 0, k.GetCurrentHeight())

	want := chain.StateID{Height: 12, Hash: chainhash.DoubleHashH([]byte("tip"))}
	require.NoError(t, k.SetSystemStateID(want))
	require.True(t, k.GetSystemStateID(&id))
	assert.Equal(t, want, id)
	assert.EqualValues(t, 12, k.GetCurrentHeight())
}

func TestChangePassword(t *testing.T) {
	database := memorydb.NewDatabase()
	k, err := Init(database, "old", testSeed)
	require.NoError(t, err)
	coin := NewCoin(40, Regular, 5)
	require.NoError(t, k.Store(&coin))

	require.NoError(t, k.ChangePassword("new"))

	_, err = Open(database, "old")
	assert.Error(t, err, "old password no longer unlocks")

	reopened, err := Open(database, "new")
	require.NoError(t, err)
	var got []Coin
	require.NoError(t, reopened.Visit(func(c Coin) bool {
		got = append(got, c)
		return true
	}))
	require.Len(t, got, 1)
	assert.Equal(t, coin, got[0], "sealed records stay readable")
}

func TestAddresses(t *testing.T) {
	k := newTestKeychain(t)

	key, err := chain.NewRandomScalar()
	require.NoError(t, err)
	addr := WalletAddress{
		WalletID:   chain.PointFromScalar(key),
		Label:      "own",
		Own:        true,
		CreateTime: 1000,
	}
	require.NoError(t, k.SaveAddress(addr))

	got, err := k.Addresses()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, addr, got[0])
}
