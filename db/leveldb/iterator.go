// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package leveldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
)

// Iterator wraps a goleveldb iterator. Key and value accessors copy, since
// goleveldb reuses its buffers between steps.
type Iterator struct {
	it iterator.Iterator
}

// Next advances to the next entry.
func (it *Iterator) Next() bool { return it.it.Next() }

// Key returns the current key.
func (it *Iterator) Key() string { return string(it.it.Key()) }

// Value returns the current value as a string.
func (it *Iterator) Value() string { return string(it.it.Value()) }

// ValueBytes returns the current value as a byte slice.
func (it *Iterator) ValueBytes() []byte {
	value := it.it.Value()
	out := make([]byte, len(value))
	copy(out, value)
	return out
}

// Close frees the iterator.
func (it *Iterator) Close() error {
	it.it.Release()
	return errors.Wrap(it.it.Error(), "closing iterator")
}
