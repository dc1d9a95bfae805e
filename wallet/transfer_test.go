// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package wallet

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lucre.network/go-lucre/chain"
	"lucre.network/go-lucre/common"
	"lucre.network/go-lucre/keychain"
	"lucre.network/go-lucre/wire/msg"
)

// fakeSender plays the initiating side of a transfer against a wallet under
// test, holding the secret halves a real sender would hold.
type fakeSender struct {
	txID   common.TxID
	invite *msg.InviteReceiver
	excess *secp256k1.ModNScalar
	nonce  *secp256k1.ModNScalar
}

func newFakeSender(t *testing.T, amount chain.Amount) *fakeSender {
	t.Helper()
	excess, err := chain.NewRandomScalar()
	require.NoError(t, err)
	nonce, err := chain.NewRandomScalar()
	require.NoError(t, err)
	txID := common.NewTxID()
	return &fakeSender{
		txID:   txID,
		excess: excess,
		nonce:  nonce,
		invite: &msg.InviteReceiver{
			TxId:      txID,
			Amount:    amount,
			MinHeight: 1,
			Excess:    chain.PointFromScalar(excess),
			Nonce:     chain.PointFromScalar(nonce),
		},
	}
}

func makeInvite(t *testing.T) *msg.InviteReceiver {
	t.Helper()
	return newFakeSender(t, 20).invite
}

// confirm produces the sender's valid partial signature over the combined
// kernel challenge.
func (f *fakeSender) confirm(t *testing.T, reply *msg.ConfirmInvitation) *msg.ConfirmTransaction {
	t.Helper()
	nonce, err := chain.AddPoints(f.invite.Nonce, reply.Nonce)
	require.NoError(t, err)
	excess, err := chain.AddPoints(f.invite.Excess, reply.Excess)
	require.NoError(t, err)
	e := chain.SigChallenge(nonce, excess, f.invite.Fee, f.invite.MinHeight)
	return &msg.ConfirmTransaction{
		TxId:      f.txID,
		Signature: chain.ScalarBytes(chain.PartialSig(f.excess, f.nonce, e)),
	}
}

func TestWallet_InsufficientFunds(t *testing.T) {
	tw := newTestWallet(t, "broke seed")
	tw.sync(t, testDescription(1))

	tw.TransferMoney(4, 100*chain.Coin)

	assert.Empty(t, tw.net.txMsgs, "no invitation without funds")
	require.Len(t, tw.completed, 1)
	assert.Empty(t, tw.senders)
	assert.Contains(t, tw.net.closedPeers, common.PeerID(4))
}

func TestWallet_SenderLocksAndRollsBack(t *testing.T) {
	tw := newTestWallet(t, "rollback seed")
	funded := tw.fund(t, 100, 1)
	tw.sync(t, testDescription(2))

	tw.TransferMoney(4, 30)
	require.Len(t, tw.net.txMsgs, 1)
	invite := tw.net.txMsgs[0].m.(*msg.InviteReceiver)
	assert.Equal(t, chain.Amount(30), invite.Amount)

	coins := tw.coins(t)
	require.Len(t, coins, 2)
	assert.Equal(t, keychain.Locked, coins[0].Status)
	require.NotNil(t, coins[0].SpentTxID)
	assert.Equal(t, invite.TxId, *coins[0].SpentTxID)
	assert.Equal(t, chain.Amount(70), coins[1].Amount, "change coin")
	assert.Equal(t, keychain.Unconfirmed, coins[1].Status)
	require.NotNil(t, coins[1].CreateTxID)
	assert.Equal(t, invite.TxId, *coins[1].CreateTxID)

	t.Run("peer failure rolls back", func(t *testing.T) {
		tw.OnTxMessage(4, &msg.TxFailed{TxId: invite.TxId})

		coins := tw.coins(t)
		require.Len(t, coins, 1)
		assert.Equal(t, funded.ID, coins[0].ID)
		assert.Equal(t, keychain.Unspent, coins[0].Status)
		assert.Nil(t, coins[0].SpentTxID)
		require.Len(t, tw.completed, 1)
		assert.Equal(t, invite.TxId, tw.completed[0])
		assert.Contains(t, tw.net.closedPeers, common.PeerID(4))
	})
}

func TestWallet_ConnectionErrorFailsTransfer(t *testing.T) {
	tw := newTestWallet(t, "conn seed")
	tw.fund(t, 100, 1)
	tw.sync(t, testDescription(2))

	tw.TransferMoney(4, 30)
	tw.OnConnectionError(4)

	coins := tw.coins(t)
	require.Len(t, coins, 1)
	assert.Equal(t, keychain.Unspent, coins[0].Status)
	require.Len(t, tw.completed, 1)

	failed := 0
	for _, s := range tw.net.txMsgs {
		if _, ok := s.m.(*msg.TxFailed); ok {
			failed++
		}
	}
	assert.Zero(t, failed, "no failure notice over a dead connection")
}

func TestWallet_ReceiverAcceptsTransfer(t *testing.T) {
	tw := newTestWallet(t, "receiver seed")
	tw.sync(t, testDescription(2))

	sender := newFakeSender(t, 20)
	tw.OnTxMessage(7, sender.invite)

	require.Len(t, tw.net.txMsgs, 1)
	assert.Equal(t, common.PeerID(7), tw.net.txMsgs[0].to)
	reply := tw.net.txMsgs[0].m.(*msg.ConfirmInvitation)
	assert.Equal(t, sender.txID, reply.TxId)

	coins := tw.coins(t)
	require.Len(t, coins, 1)
	assert.Equal(t, chain.Amount(20), coins[0].Amount)
	assert.Equal(t, keychain.Unconfirmed, coins[0].Status)

	// The receiver's partial signature must verify under the combined
	// challenge, like the sender checks it.
	nonce, err := chain.AddPoints(sender.invite.Nonce, reply.Nonce)
	require.NoError(t, err)
	excess, err := chain.AddPoints(sender.invite.Excess, reply.Excess)
	require.NoError(t, err)
	e := chain.SigChallenge(nonce, excess, sender.invite.Fee, sender.invite.MinHeight)
	assert.True(t, chain.VerifySig(chain.ScalarFromBytes(reply.Signature), reply.Nonce, reply.Excess, e))

	t.Run("duplicate invitation ignored", func(t *testing.T) {
		tw.OnTxMessage(7, sender.invite)
		assert.Len(t, tw.net.txMsgs, 1)
	})

	tw.OnTxMessage(7, sender.confirm(t, reply))
	assert.Empty(t, tw.completed, "registration still pending")

	t.Run("registration report from wrong peer dropped", func(t *testing.T) {
		tw.OnTxMessage(9, &msg.TxRegistered{TxId: sender.txID, Registered: true})
		assert.Empty(t, tw.completed)
	})

	tw.OnTxMessage(7, &msg.TxRegistered{TxId: sender.txID, Registered: true})
	require.Len(t, tw.completed, 1)
	assert.Equal(t, sender.txID, tw.completed[0])
	assert.Contains(t, tw.net.closedPeers, common.PeerID(7))

	t.Run("duplicate registration report harmless", func(t *testing.T) {
		tw.OnTxMessage(7, &msg.TxRegistered{TxId: sender.txID, Registered: true})
		assert.Len(t, tw.completed, 1)
	})

	coins = tw.coins(t)
	require.Len(t, coins, 1)
	assert.Equal(t, keychain.Unconfirmed, coins[0].Status, "output confirms with the next sync")
}

func TestWallet_ReceiverRejectsBadSenderSignature(t *testing.T) {
	tw := newTestWallet(t, "badsig seed")
	tw.sync(t, testDescription(2))

	sender := newFakeSender(t, 20)
	tw.OnTxMessage(7, sender.invite)
	require.Len(t, tw.net.txMsgs, 1)

	bogus, err := chain.NewRandomScalar()
	require.NoError(t, err)
	tw.OnTxMessage(7, &msg.ConfirmTransaction{
		TxId:      sender.txID,
		Signature: chain.ScalarBytes(bogus),
	})

	require.Len(t, tw.net.txMsgs, 2)
	assert.IsType(t, &msg.TxFailed{}, tw.net.txMsgs[1].m)
	assert.Empty(t, tw.coins(t), "rejected output coin is removed")
	require.Len(t, tw.completed, 1)
}

func TestWallet_UnknownConfirmationClosesConnection(t *testing.T) {
	tw := newTestWallet(t, "unknown seed")
	tw.OnTxMessage(5, &msg.ConfirmTransaction{TxId: common.NewTxID()})
	assert.Contains(t, tw.net.closedPeers, common.PeerID(5))
}

func TestWallet_EndToEndTransfer(t *testing.T) {
	const (
		peerA common.PeerID = 1 // how the receiver addresses the sender
		peerB common.PeerID = 2 // how the sender addresses the receiver
	)
	wa := newTestWallet(t, "alice seed")
	wb := newTestWallet(t, "bob seed")
	wa.fund(t, 100, 1)
	wa.sync(t, testDescription(2))
	wb.sync(t, testDescription(2))

	wa.TransferMoney(peerB, 30)

	// Shuttle messages until both sides go quiet.
	deliveredA, deliveredB, repliedNode := 0, 0, 0
	for deliveredA < len(wa.net.txMsgs) || deliveredB < len(wb.net.txMsgs) ||
		repliedNode < len(wa.net.nodeMsgs) {
		for ; deliveredA < len(wa.net.txMsgs); deliveredA++ {
			s := wa.net.txMsgs[deliveredA]
			require.Equal(t, peerB, s.to)
			wb.OnTxMessage(peerA, s.m)
		}
		for ; deliveredB < len(wb.net.txMsgs); deliveredB++ {
			s := wb.net.txMsgs[deliveredB]
			require.Equal(t, peerA, s.to)
			wa.OnTxMessage(peerB, s.m)
		}
		for ; repliedNode < len(wa.net.nodeMsgs); repliedNode++ {
			if _, ok := wa.net.nodeMsgs[repliedNode].(*msg.NewTransaction); ok {
				wa.OnNodeMessage(&msg.Boolean{Value: true})
			}
		}
	}

	require.Len(t, wa.completed, 1)
	require.Len(t, wb.completed, 1)
	assert.Equal(t, wa.completed[0], wb.completed[0])
	txID := wa.completed[0]

	for _, s := range append(wa.net.txMsgs, wb.net.txMsgs...) {
		assert.NotEqual(t, msg.TxFailedMsg, s.m.Type())
	}

	// The submitted transaction must carry a valid kernel and all three
	// outputs and inputs.
	var submitted *chain.Transaction
	for _, m := range wa.net.nodeMsgs {
		if nt, ok := m.(*msg.NewTransaction); ok {
			submitted = &nt.Transaction
		}
	}
	require.NotNil(t, submitted)
	assert.True(t, submitted.IsValid())
	assert.Len(t, submitted.Inputs, 1)
	assert.Len(t, submitted.Outputs, 2, "change and receiver output")

	coinsA := wa.coins(t)
	require.Len(t, coinsA, 2)
	assert.Equal(t, keychain.Locked, coinsA[0].Status, "spent input awaits proof of absence")
	require.NotNil(t, coinsA[0].SpentTxID)
	assert.Equal(t, txID, *coinsA[0].SpentTxID)
	assert.Equal(t, chain.Amount(70), coinsA[1].Amount)
	assert.Equal(t, keychain.Unconfirmed, coinsA[1].Status)

	coinsB := wb.coins(t)
	require.Len(t, coinsB, 1)
	assert.Equal(t, chain.Amount(30), coinsB[0].Amount)
	assert.Equal(t, keychain.Unconfirmed, coinsB[0].Status)

	assert.Contains(t, wa.net.closedPeers, peerB)
	assert.Contains(t, wb.net.closedPeers, peerA)
	assert.Empty(t, wa.senders)
	assert.Empty(t, wb.receivers)
}

func TestWallet_NodeRejectsTransaction(t *testing.T) {
	tw := newTestWallet(t, "rejected seed")
	tw.fund(t, 100, 1)
	tw.sync(t, testDescription(2))

	tw.TransferMoney(4, 30)
	require.Len(t, tw.net.txMsgs, 1)
	reply := makeConfirmInvitation(t, tw.net.txMsgs[0].m.(*msg.InviteReceiver))
	tw.OnTxMessage(4, reply)
	require.Len(t, tw.net.txMsgs, 2, "sender confirms towards the receiver")

	tw.OnNodeMessage(&msg.Boolean{Value: false})

	require.Len(t, tw.completed, 1)
	require.Len(t, tw.net.txMsgs, 3)
	assert.IsType(t, &msg.TxFailed{}, tw.net.txMsgs[2].m, "peer learns about the rejection")
	coins := tw.coins(t)
	require.Len(t, coins, 1)
	assert.Equal(t, keychain.Unspent, coins[0].Status, "inputs unlocked again")
}

func TestWallet_Close(t *testing.T) {
	tw := newTestWallet(t, "close seed")
	tw.fund(t, 100, 1)
	tw.sync(t, testDescription(2))

	tw.TransferMoney(4, 30)
	sender := newFakeSender(t, 20)
	tw.OnTxMessage(7, sender.invite)

	tw.Close()

	assert.Len(t, tw.completed, 2)
	assert.Empty(t, tw.senders)
	assert.Empty(t, tw.receivers)
	for _, c := range tw.coins(t) {
		assert.Equal(t, keychain.Unspent, c.Status, "coin %d", c.ID)
	}
}

// makeConfirmInvitation plays a receiver accepting the given invitation.
func makeConfirmInvitation(t *testing.T, invite *msg.InviteReceiver) *msg.ConfirmInvitation {
	t.Helper()
	excess, err := chain.NewRandomScalar()
	require.NoError(t, err)
	nonce, err := chain.NewRandomScalar()
	require.NoError(t, err)
	nonceSum, err := chain.AddPoints(invite.Nonce, chain.PointFromScalar(nonce))
	require.NoError(t, err)
	excessSum, err := chain.AddPoints(invite.Excess, chain.PointFromScalar(excess))
	require.NoError(t, err)
	e := chain.SigChallenge(nonceSum, excessSum, invite.Fee, invite.MinHeight)
	return &msg.ConfirmInvitation{
		TxId:      invite.TxId,
		Output:    chain.Output{Commitment: chain.NewCommitment(excess, invite.Amount)},
		Excess:    chain.PointFromScalar(excess),
		Nonce:     chain.PointFromScalar(nonce),
		Signature: chain.ScalarBytes(chain.PartialSig(excess, nonce, e)),
	}
}
