// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package log

import (
	"fmt"
	"sort"
	"strings"
)

// Fieldified is a LevelLogger lifted to a field Logger. Fields are rendered
// as a sorted " key=value" suffix on every message.
type Fieldified struct {
	LevelLogger
	fields Fields
}

var _ Logger = (*Fieldified)(nil)

// Fieldify wraps a LevelLogger, lifting it to a structured field Logger.
func Fieldify(l LevelLogger) *Fieldified {
	return &Fieldified{LevelLogger: l}
}

// WithField returns a clone of the logger with the given field added.
func (f *Fieldified) WithField(key string, value interface{}) Logger {
	return f.WithFields(Fields{key: value})
}

// WithFields returns a clone of the logger with the given fields added.
func (f *Fieldified) WithFields(fields Fields) Logger {
	merged := make(Fields, len(f.fields)+len(fields))
	for k, v := range f.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Fieldified{LevelLogger: f.LevelLogger, fields: merged}
}

// WithError returns a clone of the logger with an "error" field added.
func (f *Fieldified) WithError(err error) Logger {
	return f.WithField("error", err)
}

func (f *Fieldified) suffix() string {
	if len(f.fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(f.fields))
	for k := range f.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, f.fields[k])
	}
	return sb.String()
}

func (f *Fieldified) Tracef(format string, args ...interface{}) {
	f.LevelLogger.Tracef(format+"%s", append(args, f.suffix())...)
}

func (f *Fieldified) Debugf(format string, args ...interface{}) {
	f.LevelLogger.Debugf(format+"%s", append(args, f.suffix())...)
}

func (f *Fieldified) Infof(format string, args ...interface{}) {
	f.LevelLogger.Infof(format+"%s", append(args, f.suffix())...)
}

func (f *Fieldified) Warnf(format string, args ...interface{}) {
	f.LevelLogger.Warnf(format+"%s", append(args, f.suffix())...)
}

func (f *Fieldified) Errorf(format string, args ...interface{}) {
	f.LevelLogger.Errorf(format+"%s", append(args, f.suffix())...)
}

func (f *Fieldified) Trace(args ...interface{}) { f.LevelLogger.Trace(append(args, f.suffix())...) }
func (f *Fieldified) Debug(args ...interface{}) { f.LevelLogger.Debug(append(args, f.suffix())...) }
func (f *Fieldified) Info(args ...interface{})  { f.LevelLogger.Info(append(args, f.suffix())...) }
func (f *Fieldified) Warn(args ...interface{})  { f.LevelLogger.Warn(append(args, f.suffix())...) }
func (f *Fieldified) Error(args ...interface{}) { f.LevelLogger.Error(append(args, f.suffix())...) }

func (f *Fieldified) Traceln(args ...interface{}) { f.LevelLogger.Traceln(append(args, f.suffix())...) }
func (f *Fieldified) Debugln(args ...interface{}) { f.LevelLogger.Debugln(append(args, f.suffix())...) }
func (f *Fieldified) Infoln(args ...interface{})  { f.LevelLogger.Infoln(append(args, f.suffix())...) }
func (f *Fieldified) Warnln(args ...interface{})  { f.LevelLogger.Warnln(append(args, f.suffix())...) }
func (f *Fieldified) Errorln(args ...interface{}) { f.LevelLogger.Errorln(append(args, f.suffix())...) }
