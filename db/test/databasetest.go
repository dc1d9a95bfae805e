// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package test provides generic tests for db.Database implementations.
package test // import "lucre.network/go-lucre/db/test"

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lucre.network/go-lucre/db"
)

// GenericDatabaseTest runs the whole generic test suite on an empty
// database.
func GenericDatabaseTest(t *testing.T, database db.Database) {
	t.Run("Put and Get", func(t *testing.T) {
		testPutGet(t, database)
	})
	t.Run("Has and Delete", func(t *testing.T) {
		testHasDelete(t, database)
	})
	t.Run("Table", func(t *testing.T) {
		testTable(t, database)
	})
	GenericBatchTest(t, database)
	GenericIteratorTest(t, database)
}

func testPutGet(t *testing.T, database db.Database) {
	require.NoError(t, database.Put("key", "value"))
	value, err := database.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "value", value)

	require.NoError(t, database.Put("key", "other"))
	value, err = database.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "other", value, "Put overwrites")

	require.NoError(t, database.PutBytes("bytes", []byte{0, 1, 2}))
	bytes, err := database.GetBytes("bytes")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, bytes)

	_, err = database.Get("missing")
	assert.Error(t, err, "Get of absent key")

	assert.Error(t, database.PutBytes("nil", nil), "PutBytes of nil value")

	require.NoError(t, database.Delete("key"))
	require.NoError(t, database.Delete("bytes"))
}

func testHasDelete(t *testing.T, database db.Database) {
	has, err := database.Has("key")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, database.Put("key", "value"))
	has, err = database.Has("key")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, database.Delete("key"))
	has, err = database.Has("key")
	require.NoError(t, err)
	assert.False(t, has)

	assert.Error(t, database.Delete("key"), "Delete of absent key")
}

func testTable(t *testing.T, database db.Database) {
	table := db.NewTable(database, "tab:")
	require.NoError(t, table.Put("key", "value"))

	value, err := database.Get("tab:key")
	require.NoError(t, err)
	assert.Equal(t, "value", value, "table keys are prefixed in the backing store")

	it := table.NewIterator()
	require.True(t, it.Next())
	assert.Equal(t, "key", it.Key(), "table iterators strip the prefix")
	assert.Equal(t, "value", it.Value())
	assert.False(t, it.Next())
	require.NoError(t, it.Close())

	require.NoError(t, table.Delete("key"))
	has, err := database.Has("tab:key")
	require.NoError(t, err)
	assert.False(t, has)
}

// GenericBatchTest tests batched writing on an empty database.
func GenericBatchTest(t *testing.T, database db.Database) {
	t.Run("Batch", func(t *testing.T) {
		require.NoError(t, database.Put("doomed", "head"))

		batch := database.NewBatch()
		assert.EqualValues(t, 0, batch.Len())
		require.NoError(t, batch.Put("a", "alpha"))
		require.NoError(t, batch.PutBytes("b", []byte("beta")))
		require.NoError(t, batch.Delete("doomed"))
		assert.EqualValues(t, 3, batch.Len())
		assert.Error(t, batch.PutBytes("nil", nil))

		has, err := database.Has("a")
		require.NoError(t, err)
		assert.False(t, has, "batch writes are invisible until Apply")

		require.NoError(t, batch.Apply())
		for key, want := range map[string]string{"a": "alpha", "b": "beta"} {
			value, err := database.Get(key)
			require.NoError(t, err)
			assert.Equal(t, want, value)
		}
		has, err = database.Has("doomed")
		require.NoError(t, err)
		assert.False(t, has)

		batch.Reset()
		assert.EqualValues(t, 0, batch.Len())
		require.NoError(t, batch.Put("c", "gamma"))
		require.NoError(t, batch.Apply())
		value, err := database.Get("c")
		require.NoError(t, err)
		assert.Equal(t, "gamma", value)

		for _, key := range []string{"a", "b", "c"} {
			require.NoError(t, database.Delete(key))
		}
	})
}

// GenericIteratorTest tests iteration on an empty database.
func GenericIteratorTest(t *testing.T, database db.Database) {
	t.Run("Iterator", func(t *testing.T) {
		entries := map[string]string{
			"it:a": "1",
			"it:b": "2",
			"it:c": "3",
			"zz":   "4",
		}
		for key, value := range entries {
			require.NoError(t, database.Put(key, value))
		}

		collect := func(it db.Iterator) map[string]string {
			got := make(map[string]string)
			prev := ""
			for it.Next() {
				assert.Less(t, prev, it.Key(), "ascending key order")
				prev = it.Key()
				got[it.Key()] = it.Value()
			}
			require.NoError(t, it.Close())
			return got
		}

		assert.Equal(t, entries, collect(database.NewIterator()))
		assert.Equal(t,
			map[string]string{"it:a": "1", "it:b": "2", "it:c": "3"},
			collect(database.NewIteratorWithPrefix("it:")))
		assert.Equal(t,
			map[string]string{"it:b": "2", "it:c": "3"},
			collect(database.NewIteratorWithRange("it:b", "zz")))
		assert.Equal(t,
			map[string]string{"it:b": "2", "it:c": "3", "zz": "4"},
			collect(database.NewIteratorWithRange("it:b", "")))

		for key := range entries {
			require.NoError(t, database.Delete(key))
		}
	})
}
