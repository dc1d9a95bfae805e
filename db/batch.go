// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package db

// Batch collects writes and applies them to the database atomically.
type Batch interface {
	Writer

	// Apply performs all the batch's collected operations.
	Apply() error
	// Reset empties the batch so it can be reused.
	Reset()
	// Len returns the number of collected operations.
	Len() uint
}

// Batcher wraps the NewBatch method of a batch-capable store.
type Batcher interface {
	// NewBatch creates an empty batch writing to this store.
	NewBatch() Batch
}
