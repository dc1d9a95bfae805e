// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package wallet implements the wallet core: it owns the per-transfer
// Sender and Receiver state machines, routes inbound peer and node
// messages, and keeps the coin set synchronized with the chain tip.
//
// The core is single-threaded cooperative. The network layer must deliver
// one message per call and never call into the wallet concurrently; in
// return, the wallet never blocks and never locks.
package wallet // import "lucre.network/go-lucre/wallet"

import (
	"lucre.network/go-lucre/chain"
	"lucre.network/go-lucre/common"
	"lucre.network/go-lucre/keychain"
	"lucre.network/go-lucre/log"
	"lucre.network/go-lucre/wire/msg"
)

// Network is the transport the wallet emits messages through. Outbound
// sending is fire-and-forget; delivery failures surface later as connection
// errors.
type Network interface {
	// SendTxMessage sends a transfer message to a peer wallet.
	SendTxMessage(to common.PeerID, m msg.TransferMsg)
	// SendNodeMessage sends a message to the upstream node, opening the
	// node connection if necessary.
	SendNodeMessage(m msg.Msg)
	// CloseConnection closes the connection to a peer.
	CloseConnection(peer common.PeerID)
	// CloseNodeConnection closes the node connection. It is reopened lazily
	// by the next SendNodeMessage.
	CloseNodeConnection()
}

// TxCompletedHandler is invoked once per transfer when it reaches a
// terminal state, successful or not.
type TxCompletedHandler func(txID common.TxID)

// proofRequest pairs a coin awaiting a UTXO proof with the chain definition
// under which the proof was requested, so a tip change between request and
// reply cannot validate the proof against the wrong root.
type proofRequest struct {
	coin       keychain.Coin
	definition chain.Definition
}

// Wallet is the transfer orchestrator.
type Wallet struct {
	keychain    *keychain.Keychain
	network     Network
	onCompleted TxCompletedHandler

	senders   map[common.TxID]*Sender
	receivers map[common.TxID]*Receiver
	peers     map[common.TxID]common.PeerID

	pendingSenders   []*Sender
	pendingReceivers []*Receiver

	nodeRequests  []common.TxID
	pendingProofs []proofRequest

	// Terminated state machines are staged here and dropped when the
	// current message handler returns, so a machine firing its own
	// terminal event survives the rest of the dispatch.
	removedSenders   []*Sender
	removedReceivers []*Receiver

	syncing      int
	synchronized bool
	knownStateID chain.StateID
	newStateID   chain.StateID
	chainDef     chain.Definition

	log log.Logger
}

// New creates a wallet core over an unlocked keychain. onCompleted may be
// nil. The wallet starts unsynchronized; the first NewTip drives it to the
// current chain state.
func New(kc *keychain.Keychain, network Network, onCompleted TxCompletedHandler) *Wallet {
	chain.Init()
	w := &Wallet{
		keychain:    kc,
		network:     network,
		onCompleted: onCompleted,
		senders:     make(map[common.TxID]*Sender),
		receivers:   make(map[common.TxID]*Receiver),
		peers:       make(map[common.TxID]common.PeerID),
		log:         log.Log(),
	}
	kc.GetSystemStateID(&w.knownStateID)
	return w
}

// Close terminates all in-flight transfers without notifying peers and
// detaches them from the network. The keychain stays open; it is not owned
// by the wallet.
func (w *Wallet) Close() {
	defer w.dropRemoved()

	for _, s := range w.senders {
		s.onFailed(false)
	}
	for _, r := range w.receivers {
		r.onFailed(false)
	}
	w.pendingSenders, w.pendingReceivers = nil, nil
}

// TransferMoney initiates an outbound transfer to a peer. The new Sender
// starts immediately when the wallet is synchronized and is parked until
// the end of the next sync otherwise.
func (w *Wallet) TransferMoney(to common.PeerID, amount chain.Amount) {
	defer w.dropRemoved()

	txID := common.NewTxID()
	w.log.Debugf("sending %v to %v, tx %v", amount, to, txID)
	s := newSender(w, txID, amount)
	w.peers[txID] = to
	w.senders[txID] = s
	if w.synchronized {
		s.start()
	} else {
		w.pendingSenders = append(w.pendingSenders, s)
	}
}

// OnTxMessage routes an inbound transfer message to the state machine
// owning its transfer id.
func (w *Wallet) OnTxMessage(from common.PeerID, m msg.TransferMsg) {
	defer w.dropRemoved()

	txID := m.TxID()
	switch m := m.(type) {
	case *msg.InviteReceiver:
		if _, ok := w.receivers[txID]; ok {
			w.log.Debugf("ignoring duplicate invitation for tx %v", txID)
			return
		}
		r := newReceiver(w, m)
		w.peers[txID] = from
		w.receivers[txID] = r
		if w.synchronized {
			r.start()
		} else {
			w.pendingReceivers = append(w.pendingReceivers, r)
		}

	case *msg.ConfirmTransaction:
		r, ok := w.receivers[txID]
		if !ok {
			w.log.Warnf("unexpected transaction confirmation from %v, closing", from)
			w.network.CloseConnection(from)
			return
		}
		r.onSenderConfirmed(m)

	case *msg.ConfirmInvitation:
		s, ok := w.senders[txID]
		if !ok {
			w.log.Debugf("dropping invitation confirmation for unknown tx %v", txID)
			return
		}
		s.onInitCompleted(m)

	case *msg.TxRegistered:
		// The registration report must come from the peer the transfer
		// belongs to.
		if peer, ok := w.peers[txID]; !ok || peer != from {
			w.log.Debugf("dropping registration report from %v for tx %v", from, txID)
			return
		}
		w.handleTxRegistered(txID, m.Registered, false)

	case *msg.TxFailed:
		w.handleTxFailed(txID)
	}
}

// OnConnectionError fails the transfer attached to a broken peer
// connection.
func (w *Wallet) OnConnectionError(from common.PeerID) {
	defer w.dropRemoved()

	for txID, peer := range w.peers {
		if peer == from {
			w.log.Debugf("connection to %v lost, failing tx %v", from, txID)
			w.handleTxFailed(txID)
			return
		}
	}
}

// OnNodeMessage processes an inbound node message. It reports whether the
// wallet wants to stay subscribed to the node channel; false signals a
// protocol error or that nothing more is awaited.
func (w *Wallet) OnNodeMessage(m msg.Msg) bool {
	defer w.dropRemoved()

	switch m := m.(type) {
	case *msg.Boolean:
		return w.handleRegistrationReply(m.Value)
	case *msg.NewTip:
		return w.handleNewTip(m.ID)
	case *msg.Hdr:
		return w.handleHdr(&m.Description)
	case *msg.Mined:
		return w.handleMined(m.Entries)
	case *msg.ProofUtxo:
		return w.handleProofUtxo(m.Proofs)
	default:
		w.log.Warnf("unexpected node message %v", m.Type())
		return true
	}
}

// handleRegistrationReply pairs a Boolean reply with the oldest outstanding
// transaction submission.
func (w *Wallet) handleRegistrationReply(ok bool) bool {
	if len(w.nodeRequests) == 0 {
		w.log.Errorf("registration reply with no outstanding submission")
		return false
	}
	txID := w.nodeRequests[0]
	w.nodeRequests = w.nodeRequests[1:]
	w.handleTxRegistered(txID, ok, true)
	return true
}

func (w *Wallet) handleNewTip(id chain.StateID) bool {
	if !id.After(w.knownStateID) {
		w.log.Tracef("tip %v at height %d is not news", id.Hash, id.Height)
		return true
	}
	w.log.Debugf("new tip %v at height %d", id.Hash, id.Height)
	w.newStateID = id
	w.synchronized = false
	// One reply slot for the following Hdr, one for the Mined answer.
	w.syncing += 2
	w.network.SendNodeMessage(&msg.GetMined{Height: w.knownStateID.Height})
	return true
}

func (w *Wallet) handleHdr(d *chain.Description) bool {
	w.chainDef = d.Definition
	var unproven []keychain.Coin
	if err := w.keychain.Visit(func(c keychain.Coin) bool {
		if c.Status == keychain.Unconfirmed || c.Status == keychain.Locked {
			unproven = append(unproven, c)
		}
		return true
	}); err != nil {
		w.log.Errorf("enumerating coins: %v", err)
	}
	w.getUtxoProofs(unproven)
	w.newStateID = d.ID()
	return w.finishSync()
}

func (w *Wallet) handleMined(entries []msg.MinedEntry) bool {
	currentHeight := w.keychain.GetCurrentHeight()
	var emitted []keychain.Coin
	for _, e := range entries {
		if !e.Active || e.ID.Height < currentHeight {
			continue
		}
		emitted = append(emitted,
			keychain.NewCoin(chain.CoinbaseEmission, keychain.Coinbase, e.ID.Height))
		if e.Fees > 0 {
			emitted = append(emitted,
				keychain.NewCoin(e.Fees, keychain.Commission, e.ID.Height))
		}
	}
	if len(emitted) > 0 {
		w.log.Debugf("discovered %d mined coins", len(emitted))
		w.getUtxoProofs(emitted)
	}
	return w.finishSync()
}

func (w *Wallet) handleProofUtxo(proofs []chain.Proof) bool {
	if len(w.pendingProofs) == 0 {
		w.log.Errorf("UTXO proof with no outstanding request")
		return false
	}
	request := w.pendingProofs[0]
	w.pendingProofs = w.pendingProofs[1:]

	coin := request.coin
	input := chain.Input{
		Commitment: chain.NewCommitment(w.keychain.CalcKey(&coin), coin.Amount),
	}

	if len(proofs) == 0 {
		// The UTXO is gone from the set. For a locked coin that means the
		// spending transaction made it to the chain.
		if coin.Status == keychain.Locked {
			coin.Status = keychain.Spent
			if err := w.keychain.Update([]keychain.Coin{coin}); err != nil {
				w.log.Errorf("updating spent coin %d: %v", coin.ID, err)
			}
		}
		return w.finishSync()
	}

	for i := range proofs {
		if coin.Status != keychain.Unconfirmed {
			break
		}
		proof := &proofs[i]
		if !proof.IsValid(input, request.definition) {
			w.log.Warnf("invalid UTXO proof for coin %d", coin.ID)
			continue
		}
		coin.Status = keychain.Unspent
		coin.Maturity = proof.Maturity
		coin.ConfirmHeight = w.newStateID.Height
		coin.ConfirmHash = w.newStateID.Hash
		var err error
		if coin.KeyType == keychain.Regular {
			err = w.keychain.Update([]keychain.Coin{coin})
		} else {
			// Mined coins only enter the store once proven.
			err = w.keychain.Store(&coin)
		}
		if err != nil {
			w.log.Errorf("confirming coin: %v", err)
		}
	}
	return w.finishSync()
}

// getUtxoProofs requests a presence proof for every given coin. Each
// request reserves one syncing slot and one pendingProofs entry, in send
// order.
func (w *Wallet) getUtxoProofs(coins []keychain.Coin) {
	for _, c := range coins {
		input := chain.Input{
			Commitment: chain.NewCommitment(w.keychain.CalcKey(&c), c.Amount),
		}
		w.syncing++
		w.pendingProofs = append(w.pendingProofs, proofRequest{coin: c, definition: w.chainDef})
		w.network.SendNodeMessage(&msg.GetProofUtxo{Input: input})
	}
}

// finishSync retires one outstanding node reply. When the last reply is in,
// the synced state is persisted and parked state machines are released. It
// reports whether the wallet still awaits anything from the node.
func (w *Wallet) finishSync() bool {
	if w.syncing > 0 {
		w.syncing--
		if w.syncing == 0 {
			if err := w.keychain.SetSystemStateID(w.newStateID); err != nil {
				w.log.Errorf("persisting chain state: %v", err)
			}
			w.knownStateID = w.newStateID
			w.log.Debugf("synchronized at height %d", w.knownStateID.Height)

			pendingSenders, pendingReceivers := w.pendingSenders, w.pendingReceivers
			w.pendingSenders, w.pendingReceivers = nil, nil
			w.synchronized = true
			for _, s := range pendingSenders {
				s.start()
			}
			for _, r := range pendingReceivers {
				r.start()
			}
		}
	}
	if w.syncing == 0 && len(w.nodeRequests) == 0 {
		w.network.CloseNodeConnection()
		return false
	}
	return true
}

// handleTxRegistered funnels a registration outcome to the owning state
// machine, whether it was reported by the node or relayed by the peer.
// notify controls whether a failure is propagated to the peer; it is set
// for node reports, since the peer has not learned of the outcome yet.
func (w *Wallet) handleTxRegistered(txID common.TxID, ok, notify bool) {
	if !ok {
		w.failTx(txID, notify)
		return
	}
	if r, exists := w.receivers[txID]; exists {
		r.onRegistered()
	} else if s, exists := w.senders[txID]; exists {
		s.onRegistered()
	} else {
		w.log.Debugf("registration outcome for unknown tx %v", txID)
	}
}

// handleTxFailed terminates a transfer the peer already knows is dead.
func (w *Wallet) handleTxFailed(txID common.TxID) { w.failTx(txID, false) }

func (w *Wallet) failTx(txID common.TxID, notify bool) {
	if s, exists := w.senders[txID]; exists {
		s.onFailed(notify)
	} else if r, exists := w.receivers[txID]; exists {
		r.onFailed(notify)
	} else {
		w.log.Debugf("failure notice for unknown tx %v", txID)
	}
}

// sendTxMessage dispatches a transfer message to the transfer's peer. The
// message is dropped silently when the peer has been detached already.
func (w *Wallet) sendTxMessage(m msg.TransferMsg) {
	peer, ok := w.peers[m.TxID()]
	if !ok {
		w.log.Tracef("dropping %v for detached tx %v", m.Type(), m.TxID())
		return
	}
	w.network.SendTxMessage(peer, m)
}

// registerTx submits a transaction to the node. The reply arrives as a
// Boolean node message paired by queue order.
func (w *Wallet) registerTx(txID common.TxID, tx *chain.Transaction) {
	w.nodeRequests = append(w.nodeRequests, txID)
	w.network.SendNodeMessage(&msg.NewTransaction{Transaction: *tx})
}

// onTxCompleted retires a terminated transfer: the state machine leaves the
// live maps, the peer connection is closed, and the completion handler
// fires. The machine itself is dropped at handler exit.
func (w *Wallet) onTxCompleted(txID common.TxID) {
	if s, ok := w.senders[txID]; ok {
		delete(w.senders, txID)
		w.removedSenders = append(w.removedSenders, s)
	} else if r, ok := w.receivers[txID]; ok {
		delete(w.receivers, txID)
		w.removedReceivers = append(w.removedReceivers, r)
	}
	w.removePeer(txID)
	if w.onCompleted != nil {
		w.onCompleted(txID)
	}
	if w.syncing == 0 && len(w.nodeRequests) == 0 {
		w.network.CloseNodeConnection()
	}
}

func (w *Wallet) removePeer(txID common.TxID) {
	if peer, ok := w.peers[txID]; ok {
		w.network.CloseConnection(peer)
		delete(w.peers, txID)
	}
}

func (w *Wallet) dropRemoved() {
	w.removedSenders = nil
	w.removedReceivers = nil
}
