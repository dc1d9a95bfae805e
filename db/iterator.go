// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package db

// Iterator traverses a key range of a store in ascending key order.
type Iterator interface {
	// Next advances to the next entry. It returns false when the iterator
	// is exhausted.
	Next() bool
	// Key returns the current key.
	Key() string
	// Value returns the current value as a string.
	Value() string
	// ValueBytes returns the current value as a byte slice.
	ValueBytes() []byte
	// Close frees the iterator. An iterator must not be used after closing.
	Close() error
}

// Iterable wraps the iterator constructors of a store.
type Iterable interface {
	// NewIterator iterates over the whole store.
	NewIterator() Iterator
	// NewIteratorWithRange iterates over keys in [start, end). An empty end
	// means no upper bound.
	NewIteratorWithRange(start, end string) Iterator
	// NewIteratorWithPrefix iterates over all keys sharing a prefix.
	NewIteratorWithPrefix(prefix string) Iterator
}
