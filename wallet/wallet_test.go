// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package wallet

import (
	"encoding/binary"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lucre.network/go-lucre/chain"
	"lucre.network/go-lucre/common"
	"lucre.network/go-lucre/db/memorydb"
	"lucre.network/go-lucre/keychain"
	"lucre.network/go-lucre/wire/msg"
)

type txSend struct {
	to common.PeerID
	m  msg.TransferMsg
}

// mockNetwork records everything the wallet emits.
type mockNetwork struct {
	txMsgs      []txSend
	nodeMsgs    []msg.Msg
	closedPeers []common.PeerID
	nodeCloses  int
}

func (n *mockNetwork) SendTxMessage(to common.PeerID, m msg.TransferMsg) {
	n.txMsgs = append(n.txMsgs, txSend{to, m})
}

func (n *mockNetwork) SendNodeMessage(m msg.Msg) {
	n.nodeMsgs = append(n.nodeMsgs, m)
}

func (n *mockNetwork) CloseConnection(peer common.PeerID) {
	n.closedPeers = append(n.closedPeers, peer)
}

func (n *mockNetwork) CloseNodeConnection() { n.nodeCloses++ }

type testWallet struct {
	*Wallet
	net       *mockNetwork
	kc        *keychain.Keychain
	completed []common.TxID
}

func newTestWallet(t *testing.T, seed string) *testWallet {
	t.Helper()
	kc, err := keychain.Init(memorydb.NewDatabase(), "password", []byte(seed))
	require.NoError(t, err)
	tw := &testWallet{net: &mockNetwork{}, kc: kc}
	tw.Wallet = New(kc, tw.net, func(txID common.TxID) {
		tw.completed = append(tw.completed, txID)
	})
	return tw
}

// fund stores an unspent coin directly in the keychain.
func (tw *testWallet) fund(t *testing.T, amount chain.Amount, height chain.Height) keychain.Coin {
	t.Helper()
	c := keychain.NewCoin(amount, keychain.Regular, height)
	c.Status = keychain.Unspent
	require.NoError(t, tw.kc.Store(&c))
	return c
}

func (tw *testWallet) coins(t *testing.T) []keychain.Coin {
	t.Helper()
	var coins []keychain.Coin
	require.NoError(t, tw.kc.Visit(func(c keychain.Coin) bool {
		coins = append(coins, c)
		return true
	}))
	return coins
}

func testDescription(height chain.Height) chain.Description {
	return chain.Description{Height: height, TimeStamp: uint64(height)}
}

// sync drives a full tip synchronization without outstanding proofs.
func (tw *testWallet) sync(t *testing.T, desc chain.Description) {
	t.Helper()
	require.True(t, tw.OnNodeMessage(&msg.NewTip{ID: desc.ID()}))
	require.True(t, tw.OnNodeMessage(&msg.Hdr{Description: desc}))
	tw.OnNodeMessage(&msg.Mined{})
	require.True(t, tw.synchronized)
}

// utxoLeaf mirrors the accumulator leaf so tests can craft valid proofs.
func utxoLeaf(commitment chain.Commitment, maturity chain.Height) chainhash.Hash {
	var buf [chain.PointLen + 8]byte
	copy(buf[:chain.PointLen], commitment[:])
	binary.LittleEndian.PutUint64(buf[chain.PointLen:], uint64(maturity))
	return chainhash.DoubleHashH(buf[:])
}

func TestWallet_SyncWithoutCoins(t *testing.T) {
	tw := newTestWallet(t, "sync seed")
	desc := testDescription(7)

	require.True(t, tw.OnNodeMessage(&msg.NewTip{ID: desc.ID()}))
	require.Len(t, tw.net.nodeMsgs, 1)
	assert.IsType(t, &msg.GetMined{}, tw.net.nodeMsgs[0])
	assert.Equal(t, chain.Height(0), tw.net.nodeMsgs[0].(*msg.GetMined).Height)

	require.True(t, tw.OnNodeMessage(&msg.Hdr{Description: desc}))
	assert.False(t, tw.synchronized, "still awaiting the mined reply")

	assert.False(t, tw.OnNodeMessage(&msg.Mined{}), "nothing left to await")
	assert.True(t, tw.synchronized)
	assert.Equal(t, 1, tw.net.nodeCloses)
	assert.Equal(t, chain.Height(7), tw.kc.GetCurrentHeight())
}

func TestWallet_StaleTipIgnored(t *testing.T) {
	tw := newTestWallet(t, "stale seed")
	desc := testDescription(7)
	tw.sync(t, desc)

	sent := len(tw.net.nodeMsgs)
	require.True(t, tw.OnNodeMessage(&msg.NewTip{ID: desc.ID()}))
	assert.Len(t, tw.net.nodeMsgs, sent, "known tip must not trigger a sync")
	assert.True(t, tw.synchronized)
}

func TestWallet_SyncConfirmsCoin(t *testing.T) {
	tw := newTestWallet(t, "confirm seed")
	c := keychain.NewCoin(5*chain.Coin, keychain.Regular, 3)
	require.NoError(t, tw.kc.Store(&c))

	commitment := chain.NewCommitment(tw.kc.CalcKey(&c), c.Amount)
	maturity := chain.Height(10)
	desc := testDescription(9)
	desc.Definition = utxoLeaf(commitment, maturity)

	require.True(t, tw.OnNodeMessage(&msg.NewTip{ID: desc.ID()}))
	require.True(t, tw.OnNodeMessage(&msg.Hdr{Description: desc}))
	require.True(t, tw.OnNodeMessage(&msg.Mined{}))
	assert.False(t, tw.synchronized, "proof still outstanding")

	proof := chain.Proof{Maturity: maturity}
	assert.False(t, tw.OnNodeMessage(&msg.ProofUtxo{Proofs: []chain.Proof{proof}}))

	coins := tw.coins(t)
	require.Len(t, coins, 1)
	assert.Equal(t, keychain.Unspent, coins[0].Status)
	assert.Equal(t, maturity, coins[0].Maturity)
	assert.Equal(t, chain.Height(9), coins[0].ConfirmHeight)
	assert.Equal(t, desc.ID().Hash, coins[0].ConfirmHash)
	assert.True(t, tw.synchronized)
}

func TestWallet_SyncInvalidProofLeavesCoinUnconfirmed(t *testing.T) {
	tw := newTestWallet(t, "invalid proof seed")
	c := keychain.NewCoin(5*chain.Coin, keychain.Regular, 3)
	require.NoError(t, tw.kc.Store(&c))

	desc := testDescription(9) // definition does not match any proof
	require.True(t, tw.OnNodeMessage(&msg.NewTip{ID: desc.ID()}))
	require.True(t, tw.OnNodeMessage(&msg.Hdr{Description: desc}))
	require.True(t, tw.OnNodeMessage(&msg.Mined{}))

	proof := chain.Proof{Maturity: 10}
	assert.False(t, tw.OnNodeMessage(&msg.ProofUtxo{Proofs: []chain.Proof{proof}}))

	coins := tw.coins(t)
	require.Len(t, coins, 1)
	assert.Equal(t, keychain.Unconfirmed, coins[0].Status)
}

func TestWallet_SyncDetectsSpentCoin(t *testing.T) {
	tw := newTestWallet(t, "spent seed")
	txID := common.NewTxID()
	c := keychain.NewCoin(5*chain.Coin, keychain.Regular, 3)
	c.Status = keychain.Locked
	c.SpentTxID = &txID
	require.NoError(t, tw.kc.Store(&c))

	desc := testDescription(9)
	require.True(t, tw.OnNodeMessage(&msg.NewTip{ID: desc.ID()}))
	require.True(t, tw.OnNodeMessage(&msg.Hdr{Description: desc}))
	require.True(t, tw.OnNodeMessage(&msg.Mined{}))

	// An empty proof list reports the UTXO as gone from the set.
	assert.False(t, tw.OnNodeMessage(&msg.ProofUtxo{}))

	coins := tw.coins(t)
	require.Len(t, coins, 1)
	assert.Equal(t, keychain.Spent, coins[0].Status)
}

func TestWallet_SyncDiscoversMinedCoins(t *testing.T) {
	tw := newTestWallet(t, "mined seed")
	tw.sync(t, testDescription(5))

	coinbase := keychain.NewCoin(chain.CoinbaseEmission, keychain.Coinbase, 6)
	commission := keychain.NewCoin(10, keychain.Commission, 6)
	maturity := chain.Height(70)
	leafC := utxoLeaf(chain.NewCommitment(tw.kc.CalcKey(&coinbase), coinbase.Amount), maturity)
	leafF := utxoLeaf(chain.NewCommitment(tw.kc.CalcKey(&commission), commission.Amount), maturity)
	var buf [2 * chainhash.HashSize]byte
	copy(buf[:chainhash.HashSize], leafC[:])
	copy(buf[chainhash.HashSize:], leafF[:])
	root := chainhash.DoubleHashH(buf[:])

	desc := testDescription(6)
	desc.Definition = root
	require.True(t, tw.OnNodeMessage(&msg.NewTip{ID: desc.ID()}))
	require.True(t, tw.OnNodeMessage(&msg.Hdr{Description: desc}))

	entries := []msg.MinedEntry{
		{ID: chain.StateID{Height: 6}, Fees: 10, Active: true},
		{ID: chain.StateID{Height: 6}, Fees: 3, Active: false}, // orphaned branch
		{ID: chain.StateID{Height: 4}, Fees: 1, Active: true},  // before the synced height
	}
	proofRequests := len(tw.net.nodeMsgs)
	require.True(t, tw.OnNodeMessage(&msg.Mined{Entries: entries}))
	assert.Len(t, tw.net.nodeMsgs, proofRequests+2, "one proof request per emitted coin")

	proofC := chain.Proof{Maturity: maturity, Nodes: []chain.ProofNode{{Hash: leafF, OnRight: true}}}
	proofF := chain.Proof{Maturity: maturity, Nodes: []chain.ProofNode{{Hash: leafC, OnRight: false}}}
	require.True(t, tw.OnNodeMessage(&msg.ProofUtxo{Proofs: []chain.Proof{proofC}}))
	assert.False(t, tw.OnNodeMessage(&msg.ProofUtxo{Proofs: []chain.Proof{proofF}}))

	coins := tw.coins(t)
	require.Len(t, coins, 2)
	assert.Equal(t, chain.CoinbaseEmission, coins[0].Amount)
	assert.Equal(t, keychain.Coinbase, coins[0].KeyType)
	assert.Equal(t, keychain.Unspent, coins[0].Status)
	assert.Equal(t, chain.Amount(10), coins[1].Amount)
	assert.Equal(t, keychain.Commission, coins[1].KeyType)
	assert.Equal(t, keychain.Unspent, coins[1].Status)
}

func TestWallet_UnsolicitedNodeReplies(t *testing.T) {
	t.Run("registration reply", func(t *testing.T) {
		tw := newTestWallet(t, "reply seed")
		assert.False(t, tw.OnNodeMessage(&msg.Boolean{Value: true}))
	})

	t.Run("utxo proof", func(t *testing.T) {
		tw := newTestWallet(t, "proof seed")
		assert.False(t, tw.OnNodeMessage(&msg.ProofUtxo{}))
	})
}

func TestWallet_ParkedUntilSynchronized(t *testing.T) {
	tw := newTestWallet(t, "parked seed")
	tw.fund(t, 50, 1)

	tw.TransferMoney(2, 20)
	invite := makeInvite(t)
	tw.OnTxMessage(3, invite)
	assert.Empty(t, tw.net.txMsgs, "transfers must wait for the first sync")

	tw.sync(t, testDescription(4))

	require.Len(t, tw.net.txMsgs, 2)
	assert.IsType(t, &msg.InviteReceiver{}, tw.net.txMsgs[0].m, "senders start before receivers")
	assert.Equal(t, common.PeerID(2), tw.net.txMsgs[0].to)
	assert.IsType(t, &msg.ConfirmInvitation{}, tw.net.txMsgs[1].m)
	assert.Equal(t, common.PeerID(3), tw.net.txMsgs[1].to)
}
