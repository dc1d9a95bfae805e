// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package leveldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
)

// Batch collects writes and applies them to the database atomically.
type Batch struct {
	db    *Database
	batch *leveldb.Batch
}

// Put stores a string value under a key in the batch.
func (b *Batch) Put(key, value string) error {
	return b.PutBytes(key, []byte(value))
}

// PutBytes stores a byte slice value under a key in the batch.
func (b *Batch) PutBytes(key string, value []byte) error {
	if value == nil {
		return errors.New("value must not be nil")
	}
	b.batch.Put([]byte(key), value)
	return nil
}

// Delete marks a key for deletion in the batch.
func (b *Batch) Delete(key string) error {
	b.batch.Delete([]byte(key))
	return nil
}

// Apply writes the batch to the database.
func (b *Batch) Apply() error {
	return errors.Wrap(b.db.ldb.Write(b.batch, nil), "applying batch")
}

// Reset empties the batch.
func (b *Batch) Reset() { b.batch.Reset() }

// Len returns the number of collected operations.
func (b *Batch) Len() uint { return uint(b.batch.Len()) }
