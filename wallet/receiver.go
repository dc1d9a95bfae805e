// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package wallet

import (
	"context"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/looplab/fsm"

	"lucre.network/go-lucre/chain"
	"lucre.network/go-lucre/common"
	"lucre.network/go-lucre/keychain"
	"lucre.network/go-lucre/log"
	"lucre.network/go-lucre/wire/msg"
)

// Receiver drives the accepting side of a transfer: it creates the output
// coin, contributes its half of the kernel and waits for the sender to
// report chain registration.
type Receiver struct {
	wallet *Wallet
	fsm    *fsm.FSM
	log    log.Logger

	txID      common.TxID
	amount    chain.Amount
	fee       chain.Amount
	minHeight chain.Height

	senderExcess chain.Point
	senderNonce  chain.Point

	coin *keychain.Coin

	excess    *secp256k1.ModNScalar
	nonce     *secp256k1.ModNScalar
	challenge *secp256k1.ModNScalar
}

func newReceiver(w *Wallet, m *msg.InviteReceiver) *Receiver {
	l := log.WithField("tx", m.TxId)
	r := &Receiver{
		wallet:       w,
		log:          l,
		txID:         m.TxId,
		amount:       m.Amount,
		fee:          m.Fee,
		minHeight:    m.MinHeight,
		senderExcess: m.Excess,
		senderNonce:  m.Nonce,
	}
	r.fsm = fsm.NewFSM(
		stateInit,
		fsm.Events{
			{Name: evStart, Src: []string{stateInit}, Dst: stateAwaitSenderConfirm},
			{Name: evTxConfirmationCompleted, Src: []string{stateAwaitSenderConfirm}, Dst: stateAwaitChainRegistration},
			{Name: evTxRegistrationCompleted, Src: []string{stateAwaitChainRegistration}, Dst: stateCompleted},
			{Name: evTxFailed, Src: []string{stateInit, stateAwaitSenderConfirm, stateAwaitChainRegistration}, Dst: stateFailed},
		},
		fsm.Callbacks{"enter_state": transitionLogger(l)},
	)
	return r
}

// event validates a transition. Invalid events are dropped; this is what
// makes duplicate terminal notifications harmless.
func (r *Receiver) event(name string) bool {
	if err := r.fsm.Event(context.Background(), name); err != nil {
		r.log.Debugf("dropping event %s in state %s: %v", name, r.fsm.Current(), err)
		return false
	}
	return true
}

// start creates the output coin, derives the receiver's halves of the
// kernel and confirms the invitation with a partial signature over the
// combined challenge.
func (r *Receiver) start() {
	if !r.event(evStart) {
		return
	}

	coin := keychain.NewCoin(r.amount, keychain.Regular, r.wallet.keychain.GetCurrentHeight())
	coin.CreateTxID = &r.txID
	if err := r.wallet.keychain.Store(&coin); err != nil {
		r.log.Errorf("storing output coin: %v", err)
		r.fail(true)
		return
	}
	r.coin = &coin
	r.excess = r.wallet.keychain.CalcKey(&coin)

	nonce, err := chain.NewRandomScalar()
	if err != nil {
		r.log.Errorf("sampling nonce: %v", err)
		r.fail(true)
		return
	}
	r.nonce = nonce

	excess, err := chain.AddPoints(r.senderExcess, chain.PointFromScalar(r.excess))
	if err != nil {
		r.log.Warnf("malformed sender excess: %v", err)
		r.fail(true)
		return
	}
	nonceSum, err := chain.AddPoints(r.senderNonce, chain.PointFromScalar(r.nonce))
	if err != nil {
		r.log.Warnf("malformed sender nonce: %v", err)
		r.fail(true)
		return
	}
	r.challenge = chain.SigChallenge(nonceSum, excess, r.fee, r.minHeight)

	r.wallet.sendTxMessage(&msg.ConfirmInvitation{
		TxId:      r.txID,
		Output:    chain.Output{Commitment: chain.NewCommitment(r.excess, r.amount)},
		Excess:    chain.PointFromScalar(r.excess),
		Nonce:     chain.PointFromScalar(r.nonce),
		Signature: chain.ScalarBytes(chain.PartialSig(r.excess, r.nonce, r.challenge)),
	})
}

// onSenderConfirmed checks the sender's partial signature and moves on to
// await the chain registration the sender performs.
func (r *Receiver) onSenderConfirmed(data *msg.ConfirmTransaction) {
	if !r.event(evTxConfirmationCompleted) {
		return
	}

	senderSig := chain.ScalarFromBytes(data.Signature)
	if !chain.VerifySig(senderSig, r.senderNonce, r.senderExcess, r.challenge) {
		r.log.Warnf("sender partial signature does not verify")
		r.fail(true)
		return
	}
}

// onRegistered completes the transfer after the sender reported successful
// chain registration. The output coin stays unconfirmed until a proof for
// it arrives with the next sync.
func (r *Receiver) onRegistered() {
	if !r.event(evTxRegistrationCompleted) {
		return
	}
	r.wallet.onTxCompleted(r.txID)
}

// onFailed terminates the transfer on a failure reported from outside the
// machine: by the peer, a lost connection or wallet shutdown. notify says
// whether the peer is told.
func (r *Receiver) onFailed(notify bool) { r.fail(notify) }

// fail removes the output coin and terminates. The coin was never
// registered on chain, so dropping it is safe.
func (r *Receiver) fail(notify bool) {
	if !r.event(evTxFailed) {
		return
	}

	if r.coin != nil {
		if err := r.wallet.keychain.Remove(r.coin.ID); err != nil {
			r.log.Errorf("removing output coin: %v", err)
		}
	}
	if notify {
		r.wallet.sendTxMessage(&msg.TxFailed{TxId: r.txID})
	}
	r.wallet.onTxCompleted(r.txID)
}
