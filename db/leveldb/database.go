// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package leveldb implements the db interfaces on top of goleveldb. It is
// the backend the wallet database uses on disk.
package leveldb // import "lucre.network/go-lucre/db/leveldb"

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"lucre.network/go-lucre/db"
)

// Database implements db.Database on a goleveldb store.
type Database struct {
	ldb  *leveldb.DB
	path string
}

// LoadDatabase opens or creates the database at the given path.
func LoadDatabase(path string) (*Database, error) {
	ldb, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening database at %q", path)
	}
	return &Database{ldb: ldb, path: path}, nil
}

// Close flushes and closes the underlying store.
func (d *Database) Close() error {
	return errors.Wrap(d.ldb.Close(), "closing database")
}

// Has reports whether a key is present in the store.
func (d *Database) Has(key string) (bool, error) {
	has, err := d.ldb.Has([]byte(key), nil)
	return has, errors.Wrap(err, "reading key presence")
}

// Get returns the value of a key as a string.
func (d *Database) Get(key string) (string, error) {
	value, err := d.GetBytes(key)
	return string(value), err
}

// GetBytes returns the value of a key as a byte slice.
func (d *Database) GetBytes(key string) ([]byte, error) {
	value, err := d.ldb.Get([]byte(key), nil)
	return value, errors.Wrapf(err, "reading key %q", key)
}

// Put stores a string value under a key.
func (d *Database) Put(key, value string) error {
	return d.PutBytes(key, []byte(value))
}

// PutBytes stores a byte slice value under a key.
func (d *Database) PutBytes(key string, value []byte) error {
	if value == nil {
		return errors.New("value must not be nil")
	}
	return errors.Wrapf(d.ldb.Put([]byte(key), value, nil), "writing key %q", key)
}

// Delete removes a key from the store.
func (d *Database) Delete(key string) error {
	has, err := d.Has(key)
	if err != nil {
		return err
	}
	if !has {
		return errors.Errorf("no such key: %q", key)
	}
	return errors.Wrapf(d.ldb.Delete([]byte(key), nil), "deleting key %q", key)
}

// NewBatch creates an empty batch writing to this database.
func (d *Database) NewBatch() db.Batch {
	return &Batch{db: d, batch: new(leveldb.Batch)}
}

// NewIterator iterates over the whole store.
func (d *Database) NewIterator() db.Iterator {
	return &Iterator{it: d.ldb.NewIterator(nil, nil)}
}

// NewIteratorWithRange iterates over keys in [start, end).
func (d *Database) NewIteratorWithRange(start, end string) db.Iterator {
	rng := new(util.Range)
	if start != "" {
		rng.Start = []byte(start)
	}
	if end != "" {
		rng.Limit = []byte(end)
	}
	return &Iterator{it: d.ldb.NewIterator(rng, nil)}
}

// NewIteratorWithPrefix iterates over all keys sharing a prefix.
func (d *Database) NewIteratorWithPrefix(prefix string) db.Iterator {
	return &Iterator{it: d.ldb.NewIterator(util.BytesPrefix([]byte(prefix)), nil)}
}
