// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package memorydb

import "github.com/pkg/errors"

// Batch collects writes and deletes and applies them to the database in one
// step. A nil entry value marks a delete.
type Batch struct {
	db     *Database
	writes map[string]*string
	order  []string
}

// Put stores a string value under a key in the batch.
func (b *Batch) Put(key, value string) error {
	b.set(key, &value)
	return nil
}

// PutBytes stores a byte slice value under a key in the batch.
func (b *Batch) PutBytes(key string, value []byte) error {
	if value == nil {
		return errors.New("value must not be nil")
	}
	return b.Put(key, string(value))
}

// Delete marks a key for deletion in the batch.
func (b *Batch) Delete(key string) error {
	b.set(key, nil)
	return nil
}

func (b *Batch) set(key string, value *string) {
	if _, ok := b.writes[key]; !ok {
		b.order = append(b.order, key)
	}
	b.writes[key] = value
}

// Apply performs the batch's collected operations on the database.
func (b *Batch) Apply() error {
	for _, key := range b.order {
		if value := b.writes[key]; value != nil {
			if err := b.db.Put(key, *value); err != nil {
				return err
			}
		} else if err := b.db.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// Reset empties the batch.
func (b *Batch) Reset() {
	b.writes = make(map[string]*string)
	b.order = nil
}

// Len returns the number of collected operations.
func (b *Batch) Len() uint { return uint(len(b.order)) }
