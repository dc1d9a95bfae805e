// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package memorydb provides an in-memory implementation of the db
// interfaces, mainly for testing.
package memorydb // import "lucre.network/go-lucre/db/memorydb"

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"lucre.network/go-lucre/db"
)

// Database is a fully in-memory implementation of db.Database.
type Database struct {
	mutex sync.Mutex
	data  map[string]string
}

// NewDatabase creates an empty in-memory database.
func NewDatabase() db.Database {
	return &Database{data: make(map[string]string)}
}

// FromData creates a database prefilled with a copy of the given data.
func FromData(data map[string]string) db.Database {
	d := &Database{data: make(map[string]string, len(data))}
	for k, v := range data {
		d.data[k] = v
	}
	return d
}

// Has reports whether a key is present in the store.
func (d *Database) Has(key string) (bool, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	_, ok := d.data[key]
	return ok, nil
}

// Get returns the value of a key as a string.
func (d *Database) Get(key string) (string, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	value, ok := d.data[key]
	if !ok {
		return "", errors.Errorf("no such key: %q", key)
	}
	return value, nil
}

// GetBytes returns the value of a key as a byte slice.
func (d *Database) GetBytes(key string) ([]byte, error) {
	value, err := d.Get(key)
	return []byte(value), err
}

// Put stores a string value under a key.
func (d *Database) Put(key, value string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.data[key] = value
	return nil
}

// PutBytes stores a byte slice value under a key.
func (d *Database) PutBytes(key string, value []byte) error {
	if value == nil {
		return errors.New("value must not be nil")
	}
	return d.Put(key, string(value))
}

// Delete removes a key from the store.
func (d *Database) Delete(key string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if _, ok := d.data[key]; !ok {
		return errors.Errorf("no such key: %q", key)
	}
	delete(d.data, key)
	return nil
}

// NewBatch creates an empty batch writing to this database.
func (d *Database) NewBatch() db.Batch {
	return &Batch{db: d, writes: make(map[string]*string)}
}

// NewIterator iterates over the whole database.
func (d *Database) NewIterator() db.Iterator {
	return d.iterator(func(string) bool { return true })
}

// NewIteratorWithRange iterates over keys in [start, end).
func (d *Database) NewIteratorWithRange(start, end string) db.Iterator {
	return d.iterator(func(key string) bool {
		return key >= start && (end == "" || key < end)
	})
}

// NewIteratorWithPrefix iterates over all keys sharing a prefix.
func (d *Database) NewIteratorWithPrefix(prefix string) db.Iterator {
	return d.iterator(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// iterator snapshots the matching entries in sorted key order.
func (d *Database) iterator(want func(string) bool) db.Iterator {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	keys := make([]string, 0, len(d.data))
	for k := range d.data {
		if want(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = d.data[k]
	}
	return &Iterator{keys: keys, values: values}
}
