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

// State machine states shared by senders and receivers.
const (
	stateInit                   = "Init"
	stateAwaitInitConfirm       = "AwaitInitConfirm"
	stateAwaitSenderConfirm     = "AwaitSenderConfirm"
	stateAwaitChainRegistration = "AwaitChainRegistration"
	stateCompleted              = "Completed"
	stateFailed                 = "Failed"
)

// State machine events.
const (
	evStart                   = "start"
	evTxInitCompleted         = "TxInitCompleted"
	evTxConfirmationCompleted = "TxConfirmationCompleted"
	evTxRegistrationCompleted = "TxRegistrationCompleted"
	evTxFailed                = "TxFailed"
)

// transitionLogger logs every state transition of a transfer machine.
func transitionLogger(l log.Logger) fsm.Callback {
	return func(_ context.Context, e *fsm.Event) {
		l.Tracef("%s: %s -> %s", e.Event, e.Src, e.Dst)
	}
}

// Sender drives the initiating side of a transfer: it locks the spent
// coins, invites the receiver, assembles the final transaction and submits
// it for chain registration.
type Sender struct {
	wallet *Wallet
	fsm    *fsm.FSM
	log    log.Logger

	txID      common.TxID
	amount    chain.Amount
	fee       chain.Amount
	minHeight chain.Height

	locked []keychain.Coin
	change *keychain.Coin

	inputs  []chain.Input
	outputs []chain.Output

	excess *secp256k1.ModNScalar
	nonce  *secp256k1.ModNScalar
}

func newSender(w *Wallet, txID common.TxID, amount chain.Amount) *Sender {
	l := log.WithField("tx", txID)
	s := &Sender{
		wallet: w,
		log:    l,
		txID:   txID,
		amount: amount,
	}
	s.fsm = fsm.NewFSM(
		stateInit,
		fsm.Events{
			{Name: evStart, Src: []string{stateInit}, Dst: stateAwaitInitConfirm},
			{Name: evTxInitCompleted, Src: []string{stateAwaitInitConfirm}, Dst: stateAwaitChainRegistration},
			{Name: evTxConfirmationCompleted, Src: []string{stateAwaitChainRegistration}, Dst: stateCompleted},
			{Name: evTxFailed, Src: []string{stateInit, stateAwaitInitConfirm, stateAwaitChainRegistration}, Dst: stateFailed},
		},
		fsm.Callbacks{"enter_state": transitionLogger(l)},
	)
	return s
}

// event validates a transition. Invalid events are dropped; this is what
// makes duplicate terminal notifications harmless.
func (s *Sender) event(name string) bool {
	if err := s.fsm.Event(context.Background(), name); err != nil {
		s.log.Debugf("dropping event %s in state %s: %v", name, s.fsm.Current(), err)
		return false
	}
	return true
}

// start selects and locks the inputs, derives the sender's halves of the
// kernel and invites the receiver.
func (s *Sender) start() {
	if !s.event(evStart) {
		return
	}

	height := s.wallet.keychain.GetCurrentHeight()
	s.minHeight = height

	total, ok := s.selectCoins(height)
	if !ok {
		s.log.Warnf("insufficient funds for %v", s.amount+s.fee)
		s.fail(false)
		return
	}

	// The sender's secret excess is the sum of its output keys minus the
	// sum of its input keys.
	excess := new(secp256k1.ModNScalar)
	for i := range s.locked {
		excess.Add(s.wallet.keychain.CalcKey(&s.locked[i]))
		s.inputs = append(s.inputs, chain.Input{
			Commitment: chain.NewCommitment(s.wallet.keychain.CalcKey(&s.locked[i]), s.locked[i].Amount),
		})
	}
	excess.Negate()
	if change := total - s.amount - s.fee; change > 0 {
		coin := keychain.NewCoin(change, keychain.Regular, height)
		coin.CreateTxID = &s.txID
		if err := s.wallet.keychain.Store(&coin); err != nil {
			s.log.Errorf("storing change coin: %v", err)
			s.fail(false)
			return
		}
		s.change = &coin
		key := s.wallet.keychain.CalcKey(&coin)
		excess.Add(key)
		s.outputs = append(s.outputs, chain.Output{
			Commitment: chain.NewCommitment(key, change),
		})
	}
	s.excess = excess

	nonce, err := chain.NewRandomScalar()
	if err != nil {
		s.log.Errorf("sampling nonce: %v", err)
		s.fail(false)
		return
	}
	s.nonce = nonce

	s.wallet.sendTxMessage(&msg.InviteReceiver{
		TxId:      s.txID,
		Amount:    s.amount,
		Fee:       s.fee,
		MinHeight: s.minHeight,
		Excess:    chain.PointFromScalar(s.excess),
		Nonce:     chain.PointFromScalar(s.nonce),
	})
}

// selectCoins locks unspent coins until they cover amount plus fee. It
// reports the locked total and whether enough was available.
func (s *Sender) selectCoins(height chain.Height) (chain.Amount, bool) {
	required := s.amount + s.fee
	var total chain.Amount
	if err := s.wallet.keychain.Visit(func(c keychain.Coin) bool {
		if c.Status != keychain.Unspent {
			return true
		}
		c.Status = keychain.Locked
		c.LockedHeight = height
		c.SpentTxID = &s.txID
		s.locked = append(s.locked, c)
		total += c.Amount
		return total < required
	}); err != nil {
		s.log.Errorf("selecting coins: %v", err)
		return 0, false
	}
	if total < required {
		s.locked = nil
		return 0, false
	}
	if err := s.wallet.keychain.Update(s.locked); err != nil {
		s.log.Errorf("locking coins: %v", err)
		return 0, false
	}
	return total, true
}

// onInitCompleted finalizes the transaction from the receiver's
// confirmation: it checks the receiver's partial signature, combines the
// kernel, confirms towards the receiver and submits the transaction to the
// node.
func (s *Sender) onInitCompleted(data *msg.ConfirmInvitation) {
	if !s.event(evTxInitCompleted) {
		return
	}

	excess, err := chain.AddPoints(chain.PointFromScalar(s.excess), data.Excess)
	if err != nil {
		s.log.Warnf("malformed receiver excess: %v", err)
		s.fail(true)
		return
	}
	nonce, err := chain.AddPoints(chain.PointFromScalar(s.nonce), data.Nonce)
	if err != nil {
		s.log.Warnf("malformed receiver nonce: %v", err)
		s.fail(true)
		return
	}

	e := chain.SigChallenge(nonce, excess, s.fee, s.minHeight)
	receiverSig := chain.ScalarFromBytes(data.Signature)
	if !chain.VerifySig(receiverSig, data.Nonce, data.Excess, e) {
		s.log.Warnf("receiver partial signature does not verify")
		s.fail(true)
		return
	}

	ownSig := chain.PartialSig(s.excess, s.nonce, e)
	tx := &chain.Transaction{
		Inputs:  s.inputs,
		Outputs: append(s.outputs, data.Output),
		Kernel: chain.TxKernel{
			Excess:    excess,
			Nonce:     nonce,
			Signature: chain.ScalarBytes(chain.AddSigs(ownSig, receiverSig)),
			Fee:       s.fee,
			MinHeight: s.minHeight,
		},
	}
	if !tx.IsValid() {
		s.log.Warnf("combined kernel does not verify")
		s.fail(true)
		return
	}

	s.wallet.sendTxMessage(&msg.ConfirmTransaction{
		TxId:      s.txID,
		Signature: chain.ScalarBytes(ownSig),
	})
	s.wallet.registerTx(s.txID, tx)
}

// onRegistered completes the transfer after the node accepted the
// transaction.
func (s *Sender) onRegistered() {
	if !s.event(evTxConfirmationCompleted) {
		return
	}
	s.wallet.sendTxMessage(&msg.TxRegistered{TxId: s.txID, Registered: true})
	s.wallet.onTxCompleted(s.txID)
}

// onFailed terminates the transfer on a failure reported from outside the
// machine: by the peer, the node, a lost connection or wallet shutdown.
// notify says whether the peer is told.
func (s *Sender) onFailed(notify bool) { s.fail(notify) }

// fail rolls the coin set back to before the transfer and terminates. The
// locked inputs were never registered, so unlocking them is safe.
func (s *Sender) fail(notify bool) {
	if !s.event(evTxFailed) {
		return
	}

	for i := range s.locked {
		s.locked[i].Status = keychain.Unspent
		s.locked[i].LockedHeight = 0
		s.locked[i].SpentTxID = nil
	}
	if len(s.locked) > 0 {
		if err := s.wallet.keychain.Update(s.locked); err != nil {
			s.log.Errorf("unlocking coins: %v", err)
		}
	}
	if s.change != nil {
		if err := s.wallet.keychain.Remove(s.change.ID); err != nil {
			s.log.Errorf("removing change coin: %v", err)
		}
	}
	if notify {
		s.wallet.sendTxMessage(&msg.TxFailed{TxId: s.txID})
	}
	s.wallet.onTxCompleted(s.txID)
}
