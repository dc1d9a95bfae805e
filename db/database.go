// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package db provides the key-value store abstraction the wallet persists
// its state through. Backends implement Database; the keychain and keystore
// only see this interface.
package db // import "lucre.network/go-lucre/db"

// Reader wraps the read access methods of a key-value store.
type Reader interface {
	// Has reports whether a key is present in the store.
	Has(key string) (bool, error)
	// Get returns the value of a key as a string.
	Get(key string) (string, error)
	// GetBytes returns the value of a key as a byte slice.
	GetBytes(key string) ([]byte, error)
}

// Writer wraps the write access methods of a key-value store.
type Writer interface {
	// Put stores a string value under a key, overwriting any previous value.
	Put(key, value string) error
	// PutBytes stores a byte slice value under a key. The value must not be
	// nil.
	PutBytes(key string, value []byte) error
	// Delete removes a key from the store. Deleting an absent key is an
	// error.
	Delete(key string) error
}

// Database is a persistent key-value store.
type Database interface {
	Reader
	Writer
	Batcher
	Iterable
}
