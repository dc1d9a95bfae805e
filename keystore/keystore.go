// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package keystore manages the wallet's long-lived messaging keypairs. The
// store is a single file, conventionally keys.bbs, sealed under a
// password-derived key.
package keystore // import "lucre.network/go-lucre/keystore"

import (
	"bytes"
	"crypto/rand"
	"io"
	"os"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"lucre.network/go-lucre/chain"
	"lucre.network/go-lucre/wire"
)

// FileName is the conventional file name of the keystore.
const FileName = "keys.bbs"

// Option flags for Create and Open.
const (
	// LocalFile persists the store to Options.FileName.
	LocalFile = 1 << iota
	// InMemory keeps the store purely in memory, mainly for tests.
	InMemory
)

// Options selects the keystore backing.
type Options struct {
	Flags    int
	FileName string
}

// KeyPair is a stored messaging keypair. Own marks keypairs whose secret
// belongs to this wallet.
type KeyPair struct {
	Secret *secp256k1.ModNScalar
	Public chain.Point
	Own    bool
}

func (p *KeyPair) encode(w io.Writer) error {
	sec := p.Secret.Bytes()
	return wire.Encode(w, sec[:], p.Public, p.Own)
}

func (p *KeyPair) decode(r io.Reader) error {
	var sec []byte
	if err := wire.Decode(r, &sec, &p.Public, &p.Own); err != nil {
		return err
	}
	if len(sec) != chain.ScalarLen {
		return errors.New("malformed keypair secret")
	}
	var buf [chain.ScalarLen]byte
	copy(buf[:], sec)
	p.Secret = new(secp256k1.ModNScalar)
	p.Secret.SetBytes(&buf)
	return nil
}

// KeyStore holds the unlocked keypair collection.
type KeyStore struct {
	options Options
	key     [32]byte
	salt    []byte
	pairs   []KeyPair
}

const (
	saltLen  = 16
	nonceLen = 24
)

func deriveKey(password string, salt []byte) ([32]byte, error) {
	var key [32]byte
	raw, err := scrypt.Key([]byte(password), salt, 1<<15, 8, 1, len(key))
	if err != nil {
		return key, errors.Wrap(err, "deriving key")
	}
	copy(key[:], raw)
	return key, nil
}

// Create creates a new, empty keystore. With LocalFile, it fails if the file
// already exists.
func Create(o Options, password string) (*KeyStore, error) {
	if o.Flags&LocalFile != 0 {
		if _, err := os.Stat(o.FileName); err == nil {
			return nil, errors.Errorf("keystore %q already exists", o.FileName)
		}
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "reading randomness")
	}
	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	s := &KeyStore{options: o, key: key, salt: salt}
	return s, s.flush()
}

// Open unlocks an existing file-backed keystore.
func Open(o Options, password string) (*KeyStore, error) {
	if o.Flags&LocalFile == 0 {
		return nil, errors.New("only file-backed keystores can be opened")
	}
	data, err := os.ReadFile(o.FileName)
	if err != nil {
		return nil, errors.Wrapf(err, "reading keystore %q", o.FileName)
	}
	if len(data) < saltLen+nonceLen {
		return nil, errors.New("malformed keystore file")
	}
	key, err := deriveKey(password, data[:saltLen])
	if err != nil {
		return nil, err
	}

	var nonce [nonceLen]byte
	copy(nonce[:], data[saltLen:saltLen+nonceLen])
	plaintext, ok := secretbox.Open(nil, data[saltLen+nonceLen:], &nonce, &key)
	if !ok {
		return nil, errors.New("wrong password or corrupted keystore")
	}

	s := &KeyStore{options: o, key: key, salt: data[:saltLen]}
	r := bytes.NewReader(plaintext)
	var count uint32
	if err := wire.Decode(r, &count); err != nil {
		return nil, err
	}
	s.pairs = make([]KeyPair, count)
	for i := range s.pairs {
		if err := s.pairs[i].decode(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *KeyStore) flush() error {
	if s.options.Flags&LocalFile == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := wire.Encode(&buf, uint32(len(s.pairs))); err != nil {
		return err
	}
	for i := range s.pairs {
		if err := s.pairs[i].encode(&buf); err != nil {
			return err
		}
	}

	var nonce [nonceLen]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return errors.Wrap(err, "reading randomness")
	}
	sealed := secretbox.Seal(nonce[:], buf.Bytes(), &nonce, &s.key)
	out := append(append([]byte(nil), s.salt...), sealed...)
	return errors.Wrapf(os.WriteFile(s.options.FileName, out, 0600),
		"writing keystore %q", s.options.FileName)
}

// GenKeypair generates a fresh keypair. It is not stored until SaveKeypair.
func (s *KeyStore) GenKeypair() (KeyPair, error) {
	secret, err := chain.NewRandomScalar()
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Secret: secret, Public: chain.PointFromScalar(secret)}, nil
}

// SaveKeypair stores a keypair, marking whether it is one of the wallet's
// own.
func (s *KeyStore) SaveKeypair(p KeyPair, own bool) error {
	p.Own = own
	s.pairs = append(s.pairs, p)
	return s.flush()
}

// Keypairs returns all stored keypairs.
func (s *KeyStore) Keypairs() []KeyPair { return s.pairs }

// OwnKeys returns only the wallet's own keypairs.
func (s *KeyStore) OwnKeys() []KeyPair {
	var own []KeyPair
	for _, p := range s.pairs {
		if p.Own {
			own = append(own, p)
		}
	}
	return own
}
