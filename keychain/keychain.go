// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package keychain implements the wallet's persistent store: UTXO records,
// the synced chain state, and the address book. All values are sealed under
// a master key which is itself wrapped by a password-derived key, so a
// password change only rewraps the master key.
package keychain // import "lucre.network/go-lucre/keychain"

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"

	"lucre.network/go-lucre/chain"
	"lucre.network/go-lucre/db"
	"lucre.network/go-lucre/db/leveldb"
	"lucre.network/go-lucre/log"
)

// DBFileName is the conventional file name of the wallet database.
const DBFileName = "wallet.db"

const (
	wrapKey  = "wrap"
	seedKey  = "seed"
	stateKey = "state"
)

// Keychain is the wallet's persistent store.
type Keychain struct {
	database db.Database
	coins    db.Database
	addrs    db.Database
	meta     db.Database
	master   *[keyLen]byte
	seed     []byte
	nextID   uint64
	log      log.Logger
}

func newKeychain(database db.Database) *Keychain {
	return &Keychain{
		database: database,
		coins:    db.NewTable(database, "coin:"),
		addrs:    db.NewTable(database, "addr:"),
		meta:     db.NewTable(database, "meta:"),
		nextID:   1,
		log:      log.Log(),
	}
}

// Init creates a fresh keychain in an empty database. The seed is the root
// secret all coin blinding keys are derived from.
func Init(database db.Database, password string, seed []byte) (*Keychain, error) {
	k := newKeychain(database)
	if has, err := k.meta.Has(wrapKey); err != nil {
		return nil, err
	} else if has {
		return nil, errors.New("database is already initialized")
	}

	masterBytes, err := randBytes(keyLen)
	if err != nil {
		return nil, err
	}
	var master [keyLen]byte
	copy(master[:], masterBytes)
	k.master = &master

	record, err := wrapRecord([]byte(password), k.master)
	if err != nil {
		return nil, err
	}
	if err := k.meta.PutBytes(wrapKey, record); err != nil {
		return nil, err
	}

	k.seed = append([]byte(nil), seed...)
	if err := k.putSealed(k.meta, seedKey, k.seed); err != nil {
		return nil, err
	}
	return k, nil
}

// Open unlocks an initialized keychain with the given password.
func Open(database db.Database, password string) (*Keychain, error) {
	k := newKeychain(database)
	record, err := k.meta.GetBytes(wrapKey)
	if err != nil {
		return nil, errors.WithMessage(err, "database is not initialized")
	}
	if k.master, err = unwrapRecord([]byte(password), record); err != nil {
		return nil, err
	}
	if k.seed, err = k.getSealed(k.meta, seedKey); err != nil {
		return nil, err
	}

	// The id counter resumes past the highest stored coin.
	it := k.coins.NewIterator()
	defer it.Close()
	for it.Next() {
		var c Coin
		if err := k.unsealCoin(it.ValueBytes(), &c); err != nil {
			return nil, err
		}
		if c.ID >= k.nextID {
			k.nextID = c.ID + 1
		}
	}
	return k, nil
}

// InitFile creates a wallet database file at the given path.
func InitFile(path, password string, seed []byte) (*Keychain, error) {
	database, err := leveldb.LoadDatabase(path)
	if err != nil {
		return nil, err
	}
	k, err := Init(database, password, seed)
	if err != nil {
		database.Close()
		return nil, err
	}
	return k, nil
}

// OpenFile unlocks the wallet database file at the given path.
func OpenFile(path, password string) (*Keychain, error) {
	database, err := leveldb.LoadDatabase(path)
	if err != nil {
		return nil, err
	}
	k, err := Open(database, password)
	if err != nil {
		database.Close()
		return nil, err
	}
	return k, nil
}

// Close closes the backing database if it is closable.
func (k *Keychain) Close() error {
	if c, ok := k.database.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (k *Keychain) putSealed(table db.Database, key string, plaintext []byte) error {
	sealed, err := seal(k.master, plaintext)
	if err != nil {
		return err
	}
	return table.PutBytes(key, sealed)
}

func (k *Keychain) getSealed(table db.Database, key string) ([]byte, error) {
	sealed, err := table.GetBytes(key)
	if err != nil {
		return nil, err
	}
	return open(k.master, sealed)
}

func (k *Keychain) unsealCoin(sealed []byte, c *Coin) error {
	plaintext, err := open(k.master, sealed)
	if err != nil {
		return err
	}
	return c.unmarshal(plaintext)
}

func coinKey(id uint64) string { return fmt.Sprintf("%016x", id) }

// Store persists a coin, assigning its id if it does not have one yet.
func (k *Keychain) Store(c *Coin) error {
	if c.ID == 0 {
		c.ID = k.nextID
		k.nextID++
	}
	data, err := c.marshal()
	if err != nil {
		return err
	}
	k.log.Tracef("storing coin %d: %v %v", c.ID, c.Amount, c.Status)
	return k.putSealed(k.coins, coinKey(c.ID), data)
}

// Update writes back modified coins in one batch. All coins must already
// have ids.
func (k *Keychain) Update(coins []Coin) error {
	batch := k.coins.NewBatch()
	for i := range coins {
		c := &coins[i]
		if c.ID == 0 {
			return errors.New("updating a coin without an id")
		}
		data, err := c.marshal()
		if err != nil {
			return err
		}
		sealed, err := seal(k.master, data)
		if err != nil {
			return err
		}
		if err := batch.PutBytes(coinKey(c.ID), sealed); err != nil {
			return err
		}
		k.log.Tracef("updating coin %d: %v %v", c.ID, c.Amount, c.Status)
	}
	return batch.Apply()
}

// Remove deletes a coin record.
func (k *Keychain) Remove(id uint64) error {
	return k.coins.Delete(coinKey(id))
}

// Visit iterates all coins in id order. Iteration stops early when the
// callback returns false.
func (k *Keychain) Visit(f func(Coin) bool) error {
	it := k.coins.NewIterator()
	defer it.Close()
	for it.Next() {
		var c Coin
		if err := k.unsealCoin(it.ValueBytes(), &c); err != nil {
			return err
		}
		if !f(c) {
			return nil
		}
	}
	return nil
}

// CalcKey derives the coin's blinding key from the wallet seed, the coin's
// create height and its key type. Regular coins also key on their store id;
// coinbase and commission coins use a zero id instead, since the miner
// derives the same key before the coin is ever stored.
func (k *Keychain) CalcKey(c *Coin) *secp256k1.ModNScalar {
	buf := make([]byte, 0, len(k.seed)+17)
	buf = append(buf, k.seed...)
	if c.KeyType == Regular {
		buf = binary.LittleEndian.AppendUint64(buf, c.ID)
	} else {
		buf = binary.LittleEndian.AppendUint64(buf, 0)
	}
	buf = binary.LittleEndian.AppendUint64(buf, uint64(c.CreateHeight))
	buf = append(buf, byte(c.KeyType))
	key := new(secp256k1.ModNScalar)
	key.SetByteSlice(chainhash.DoubleHashB(buf))
	return key
}

// GetSystemStateID loads the last persisted chain state into out. It
// reports whether a state was ever persisted.
func (k *Keychain) GetSystemStateID(out *chain.StateID) bool {
	data, err := k.getSealed(k.meta, stateKey)
	if err != nil {
		return false
	}
	if err := out.Decode(bytes.NewReader(data)); err != nil {
		k.log.Warnf("corrupted system state record: %v", err)
		return false
	}
	return true
}

// SetSystemStateID persists the synced chain state.
func (k *Keychain) SetSystemStateID(id chain.StateID) error {
	var buf bytes.Buffer
	if err := id.Encode(&buf); err != nil {
		return err
	}
	return k.putSealed(k.meta, stateKey, buf.Bytes())
}

// GetCurrentHeight returns the height of the last persisted chain state, or
// zero if none was persisted yet.
func (k *Keychain) GetCurrentHeight() chain.Height {
	var id chain.StateID
	if !k.GetSystemStateID(&id) {
		return 0
	}
	return id.Height
}

// ChangePassword rewraps the master key under a key derived from the new
// password. Sealed records are untouched.
func (k *Keychain) ChangePassword(newPassword string) error {
	record, err := wrapRecord([]byte(newPassword), k.master)
	if err != nil {
		return err
	}
	return k.meta.PutBytes(wrapKey, record)
}
