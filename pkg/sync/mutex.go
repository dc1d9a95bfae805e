// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package sync provides synchronization primitives that go beyond the
// standard library's, such as a mutex that can be acquired under a context.
package sync // import "lucre.network/go-lucre/pkg/sync"

import (
	"context"
	stdsync "sync"
)

// Mutex is a mutex whose Lock operation can be aborted by a context. The
// zero value is an unlocked mutex. A Mutex must not be copied after first
// use.
type Mutex struct {
	locked   chan struct{}
	initOnce stdsync.Once
}

func (m *Mutex) init() {
	m.initOnce.Do(func() { m.locked = make(chan struct{}, 1) })
}

// Lock blocks until the mutex is acquired.
func (m *Mutex) Lock() {
	m.init()
	m.locked <- struct{}{}
}

// TryLock acquires the mutex if it is free. It returns whether the mutex was
// acquired and never blocks.
func (m *Mutex) TryLock() bool {
	m.init()
	select {
	case m.locked <- struct{}{}:
		return true
	default:
		return false
	}
}

// TryLockCtx acquires the mutex unless the context terminates first. It
// returns whether the mutex was acquired. A context that is already done
// never acquires.
func (m *Mutex) TryLockCtx(ctx context.Context) bool {
	m.init()
	select {
	case <-ctx.Done():
		return false
	default:
	}
	select {
	case m.locked <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

// Unlock releases the mutex. It panics when the mutex is not locked.
func (m *Mutex) Unlock() {
	select {
	case <-m.locked:
	default:
		panic("unlock of unlocked mutex")
	}
}
