// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package log implements the logger interface of go-lucre. Users are expected
// to pass an implementation of this interface to harmonize go-lucre's logging
// with their application logging.
//
// It mimics the interface of logrus, which is go-lucre's logger of choice.
// It is also possible to pass a simpler logger like the standard library's
// log logger by converting it with the Levellify and Fieldify factories.
package log // import "lucre.network/go-lucre/log"

import (
	"io"
	"log"
)

var (
	// compile-time check that log.Logger implements a StdLogger
	_ StdLogger = &log.Logger{}

	// logger is the framework logger. Framework users set it via Set(). It
	// defaults to a logger that discards all messages.
	logger Logger = Fieldify(Levellify(log.New(io.Discard, "", 0), FatalLevel))
)

// Set sets the framework logger. It is not thread-safe and should be called
// once at program initialization, before the wallet is constructed.
func Set(l Logger) {
	if l == nil {
		panic("nil logger")
	}
	logger = l
}

// Log returns the current framework logger.
func Log() Logger { return logger }

// StdLogger describes the interface of the standard library log package
// logger. It is the base for more complex loggers. A StdLogger can be
// converted into a LevelLogger by wrapping it with a Levellified struct.
type StdLogger interface {
	Printf(format string, args ...interface{})
	Print(...interface{})
	Println(...interface{})

	Fatalf(format string, args ...interface{})
	Fatal(...interface{})
	Fatalln(...interface{})

	Panicf(format string, args ...interface{})
	Panic(...interface{})
	Panicln(...interface{})
}

// LevelLogger is an extension to the StdLogger with different verbosity
// levels.
type LevelLogger interface {
	StdLogger

	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	Trace(...interface{})
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Error(...interface{})

	Traceln(...interface{})
	Debugln(...interface{})
	Infoln(...interface{})
	Warnln(...interface{})
	Errorln(...interface{})
}

// Fields is a collection of fields that can be passed to Logger.WithFields.
type Fields map[string]interface{}

// Logger is a LevelLogger with structured field logging capabilities.
// This is the interface that needs to be passed to go-lucre.
type Logger interface {
	LevelLogger

	WithField(key string, value interface{}) Logger
	WithFields(Fields) Logger
	WithError(error) Logger
}

func Printf(format string, args ...interface{}) { logger.Printf(format, args...) }
func Print(args ...interface{})                 { logger.Print(args...) }
func Println(args ...interface{})               { logger.Println(args...) }

func Fatalf(format string, args ...interface{}) { logger.Fatalf(format, args...) }
func Fatal(args ...interface{})                 { logger.Fatal(args...) }
func Fatalln(args ...interface{})               { logger.Fatalln(args...) }

func Panicf(format string, args ...interface{}) { logger.Panicf(format, args...) }
func Panic(args ...interface{})                 { logger.Panic(args...) }
func Panicln(args ...interface{})               { logger.Panicln(args...) }

func Tracef(format string, args ...interface{}) { logger.Tracef(format, args...) }
func Trace(args ...interface{})                 { logger.Trace(args...) }
func Traceln(args ...interface{})               { logger.Traceln(args...) }

func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
func Debug(args ...interface{})                 { logger.Debug(args...) }
func Debugln(args ...interface{})               { logger.Debugln(args...) }

func Infof(format string, args ...interface{}) { logger.Infof(format, args...) }
func Info(args ...interface{})                 { logger.Info(args...) }
func Infoln(args ...interface{})                { logger.Infoln(args...) }

func Warnf(format string, args ...interface{}) { logger.Warnf(format, args...) }
func Warn(args ...interface{})                 { logger.Warn(args...) }
func Warnln(args ...interface{})                { logger.Warnln(args...) }

func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }
func Error(args ...interface{})                 { logger.Error(args...) }
func Errorln(args ...interface{})               { logger.Errorln(args...) }

// WithField calls WithField on the framework logger.
func WithField(key string, value interface{}) Logger { return logger.WithField(key, value) }

// WithFields calls WithFields on the framework logger.
func WithFields(fields Fields) Logger { return logger.WithFields(fields) }

// WithError calls WithError on the framework logger.
func WithError(err error) Logger { return logger.WithError(err) }
