// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable_NilArgs(t *testing.T) {
	assert.Panics(t, func() { NewTable(nil, "prefix") })
}

func TestTable_PutBytes_NilArgs(t *testing.T) {
	err := new(table).PutBytes("key", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value")
}

func TestTableBatch_PutBytes_NilArgs(t *testing.T) {
	err := new(tableBatch).PutBytes("key", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value")
}

func TestKeyUpperBound(t *testing.T) {
	assert.Equal(t, "ab", keyUpperBound("aa"))
	assert.Equal(t, "b", keyUpperBound("a\xff"))
	assert.Equal(t, "", keyUpperBound("\xff\xff"))
}
