// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package log

import "fmt"

// Level is the log level of a Levellified logger. It follows the logrus level
// ordering: lower values are more severe.
type Level int8

const (
	// PanicLevel calls panic after logging.
	PanicLevel Level = iota
	// FatalLevel calls os.Exit(1) after logging.
	FatalLevel
	// ErrorLevel logs errors.
	ErrorLevel
	// WarnLevel logs warnings.
	WarnLevel
	// InfoLevel logs informational messages.
	InfoLevel
	// DebugLevel logs debug messages.
	DebugLevel
	// TraceLevel logs everything.
	TraceLevel
)

func (l Level) String() string {
	switch l {
	case PanicLevel:
		return "panic"
	case FatalLevel:
		return "fatal"
	case ErrorLevel:
		return "error"
	case WarnLevel:
		return "warn"
	case InfoLevel:
		return "info"
	case DebugLevel:
		return "debug"
	case TraceLevel:
		return "trace"
	default:
		return fmt.Sprintf("Level(%d)", int8(l))
	}
}

// Levellified is a StdLogger lifted to a LevelLogger. Messages with a level
// above Lvl are discarded.
type Levellified struct {
	StdLogger
	Lvl Level
}

var _ LevelLogger = (*Levellified)(nil)

// Levellify wraps a standard logger, lifting it to a LevelLogger that logs
// all messages at or below the given level.
func Levellify(l StdLogger, lvl Level) *Levellified {
	return &Levellified{StdLogger: l, Lvl: lvl}
}

func (l *Levellified) Tracef(format string, args ...interface{}) { l.lprintf(TraceLevel, format, args...) }
func (l *Levellified) Debugf(format string, args ...interface{}) { l.lprintf(DebugLevel, format, args...) }
func (l *Levellified) Infof(format string, args ...interface{})  { l.lprintf(InfoLevel, format, args...) }
func (l *Levellified) Warnf(format string, args ...interface{})  { l.lprintf(WarnLevel, format, args...) }
func (l *Levellified) Errorf(format string, args ...interface{}) { l.lprintf(ErrorLevel, format, args...) }

func (l *Levellified) lprintf(lvl Level, format string, args ...interface{}) {
	if lvl <= l.Lvl {
		l.StdLogger.Printf("["+lvl.String()+"] "+format, args...)
	}
}

func (l *Levellified) Trace(args ...interface{}) { l.lprint(TraceLevel, args...) }
func (l *Levellified) Debug(args ...interface{}) { l.lprint(DebugLevel, args...) }
func (l *Levellified) Info(args ...interface{})  { l.lprint(InfoLevel, args...) }
func (l *Levellified) Warn(args ...interface{})  { l.lprint(WarnLevel, args...) }
func (l *Levellified) Error(args ...interface{}) { l.lprint(ErrorLevel, args...) }

func (l *Levellified) lprint(lvl Level, args ...interface{}) {
	if lvl <= l.Lvl {
		l.StdLogger.Print(append([]interface{}{"[" + lvl.String() + "]"}, args...)...)
	}
}

func (l *Levellified) Traceln(args ...interface{}) { l.lprintln(TraceLevel, args...) }
func (l *Levellified) Debugln(args ...interface{}) { l.lprintln(DebugLevel, args...) }
func (l *Levellified) Infoln(args ...interface{})  { l.lprintln(InfoLevel, args...) }
func (l *Levellified) Warnln(args ...interface{})  { l.lprintln(WarnLevel, args...) }
func (l *Levellified) Errorln(args ...interface{}) { l.lprintln(ErrorLevel, args...) }

func (l *Levellified) lprintln(lvl Level, args ...interface{}) {
	if lvl <= l.Lvl {
		l.StdLogger.Println(append([]interface{}{"[" + lvl.String() + "]"}, args...)...)
	}
}
