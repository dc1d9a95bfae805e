// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package db

import "github.com/pkg/errors"

// table is a database view that automatically prefixes all keys.
type table struct {
	Database
	prefix string
}

// NewTable creates a view of a database in which all keys are automatically
// prefixed. Panics if db is nil.
func NewTable(db Database, prefix string) Database {
	if db == nil {
		panic("database must not be nil")
	}
	return &table{Database: db, prefix: prefix}
}

func (t *table) pkey(key string) string { return t.prefix + key }

func (t *table) Has(key string) (bool, error) { return t.Database.Has(t.pkey(key)) }

func (t *table) Get(key string) (string, error) { return t.Database.Get(t.pkey(key)) }

func (t *table) GetBytes(key string) ([]byte, error) {
	return t.Database.GetBytes(t.pkey(key))
}

func (t *table) Put(key, value string) error { return t.Database.Put(t.pkey(key), value) }

func (t *table) PutBytes(key string, value []byte) error {
	if value == nil {
		return errors.New("value must not be nil")
	}
	return t.Database.PutBytes(t.pkey(key), value)
}

func (t *table) Delete(key string) error { return t.Database.Delete(t.pkey(key)) }

func (t *table) NewBatch() Batch {
	return &tableBatch{Batch: t.Database.NewBatch(), prefix: t.prefix}
}

func (t *table) NewIterator() Iterator {
	return &tableIter{Iterator: t.Database.NewIteratorWithPrefix(t.prefix), prefix: t.prefix}
}

func (t *table) NewIteratorWithRange(start, end string) Iterator {
	start = t.prefix + start
	if end == "" {
		end = keyUpperBound(t.prefix)
	} else {
		end = t.prefix + end
	}
	return &tableIter{Iterator: t.Database.NewIteratorWithRange(start, end), prefix: t.prefix}
}

func (t *table) NewIteratorWithPrefix(prefix string) Iterator {
	return &tableIter{Iterator: t.Database.NewIteratorWithPrefix(t.prefix + prefix), prefix: t.prefix}
}

// keyUpperBound returns the least key greater than every key carrying the
// given prefix, or "" if no such key exists.
func keyUpperBound(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}

type tableBatch struct {
	Batch
	prefix string
}

func (b *tableBatch) Put(key, value string) error { return b.Batch.Put(b.prefix+key, value) }

func (b *tableBatch) PutBytes(key string, value []byte) error {
	if value == nil {
		return errors.New("value must not be nil")
	}
	return b.Batch.PutBytes(b.prefix+key, value)
}

func (b *tableBatch) Delete(key string) error { return b.Batch.Delete(b.prefix + key) }

type tableIter struct {
	Iterator
	prefix string
}

func (it *tableIter) Key() string { return it.Iterator.Key()[len(it.prefix):] }
