// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package keychain

import (
	"crypto/rand"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	keyLen   = 32
	nonceLen = 24
	saltLen  = 16

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// deriveKey stretches a password into a sealing key.
func deriveKey(password, salt []byte) (*[keyLen]byte, error) {
	raw, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, errors.Wrap(err, "deriving key")
	}
	var key [keyLen]byte
	copy(key[:], raw)
	return &key, nil
}

func randBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, errors.Wrap(err, "reading randomness")
	}
	return b, nil
}

// seal encrypts plaintext under key, prepending the random nonce.
func seal(key *[keyLen]byte, plaintext []byte) ([]byte, error) {
	nonceBytes, err := randBytes(nonceLen)
	if err != nil {
		return nil, err
	}
	var nonce [nonceLen]byte
	copy(nonce[:], nonceBytes)
	return secretbox.Seal(nonce[:], plaintext, &nonce, key), nil
}

// open decrypts a value produced by seal.
func open(key *[keyLen]byte, sealed []byte) ([]byte, error) {
	if len(sealed) < nonceLen {
		return nil, errors.New("sealed value too short")
	}
	var nonce [nonceLen]byte
	copy(nonce[:], sealed[:nonceLen])
	plaintext, ok := secretbox.Open(nil, sealed[nonceLen:], &nonce, key)
	if !ok {
		return nil, errors.New("unsealing failed")
	}
	return plaintext, nil
}

// wrapRecord seals the master key under a fresh password-derived key and
// returns salt || sealed(master).
func wrapRecord(password []byte, master *[keyLen]byte) ([]byte, error) {
	salt, err := randBytes(saltLen)
	if err != nil {
		return nil, err
	}
	passKey, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	sealed, err := seal(passKey, master[:])
	if err != nil {
		return nil, err
	}
	return append(salt, sealed...), nil
}

// unwrapRecord recovers the master key from a wrap record.
func unwrapRecord(password, record []byte) (*[keyLen]byte, error) {
	if len(record) < saltLen {
		return nil, errors.New("malformed key wrap record")
	}
	passKey, err := deriveKey(password, record[:saltLen])
	if err != nil {
		return nil, err
	}
	raw, err := open(passKey, record[saltLen:])
	if err != nil {
		return nil, errors.WithMessage(err, "wrong password or corrupted store")
	}
	if len(raw) != keyLen {
		return nil, errors.New("malformed master key")
	}
	var master [keyLen]byte
	copy(master[:], raw)
	return &master, nil
}
