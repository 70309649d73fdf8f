/*
 * bbcore - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/basic370/bbcore/basic/config"
	"github.com/basic370/bbcore/internal/logging"
	"github.com/basic370/bbcore/repl"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optLowercase := getopt.BoolLong("lowercase", 0, "Accept lower-case keywords")
	optHex64 := getopt.BoolLong("hex64", 0, "Print every numeric PRINT value as 16-digit hex")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		var err error
		file, err = os.Create(*optLogFile)
		if err != nil {
			file = os.Stderr
		}
	} else {
		file = os.Stderr
	}
	debug := new(bool)
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	Logger = slog.New(logging.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, debug))
	slog.SetDefault(Logger)

	opts := config.Default()
	if *optConfig != "" {
		f, err := os.Open(*optConfig)
		if err != nil {
			Logger.Error("configuration file can't be opened", "path", *optConfig, "error", err)
			os.Exit(1)
		}
		opts, err = config.Load(f, opts)
		f.Close()
		if err != nil {
			Logger.Error("configuration file error", "error", err)
			os.Exit(1)
		}
	}
	if *optLowercase {
		opts.LowercaseKeywords = true
	}
	if *optHex64 {
		opts.Hex64 = true
	}
	if opts.TraceLines || opts.TraceProcs || opts.TraceBranch {
		*debug = true
	}

	Logger.Info("bbcore started")

	console := repl.NewConsole(opts)
	console.Run()

	Logger.Info("bbcore exiting")
}
