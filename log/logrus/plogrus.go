// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package plogrus contains the logrus implementation of the go-lucre logger
// interface.
package plogrus // import "lucre.network/go-lucre/log/logrus"

import (
	"github.com/sirupsen/logrus"

	"lucre.network/go-lucre/log"
)

// Logger wraps a logrus entry so that it satisfies the go-lucre Logger
// interface.
type Logger struct {
	*logrus.Entry
}

var _ log.Logger = (*Logger)(nil)

// FromLogrus creates a go-lucre logger from a logrus logger.
func FromLogrus(l *logrus.Logger) *Logger {
	return &Logger{logrus.NewEntry(l)}
}

// WithField adds a single field to the logger.
func (l *Logger) WithField(key string, value interface{}) log.Logger {
	return &Logger{l.Entry.WithField(key, value)}
}

// WithFields adds a collection of fields to the logger.
func (l *Logger) WithFields(fields log.Fields) log.Logger {
	return &Logger{l.Entry.WithFields(logrus.Fields(fields))}
}

// WithError adds an error field to the logger.
func (l *Logger) WithError(err error) log.Logger {
	return &Logger{l.Entry.WithError(err)}
}
