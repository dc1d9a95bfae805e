// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package memorydb

// Iterator iterates over a snapshot of matching entries, so concurrent
// modification of the database does not affect it.
type Iterator struct {
	keys   []string
	values []string
	index  int
}

// Next advances to the next entry.
func (it *Iterator) Next() bool {
	if it.index >= len(it.keys) {
		return false
	}
	it.index++
	return true
}

// Key returns the current key.
func (it *Iterator) Key() string { return it.keys[it.index-1] }

// Value returns the current value as a string.
func (it *Iterator) Value() string { return it.values[it.index-1] }

// ValueBytes returns the current value as a byte slice.
func (it *Iterator) ValueBytes() []byte { return []byte(it.values[it.index-1]) }

// Close frees the iterator.
func (it *Iterator) Close() error {
	it.keys = nil
	it.values = nil
	return nil
}
