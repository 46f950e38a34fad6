// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/annchain/solinterp/common/files"
	"github.com/annchain/solinterp/common/mylog"
	"github.com/annchain/solinterp/common/utilfuncs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	LogDir    = "log"
	ConfigDir = "config"
)

func DumpStack() {
	if err := recover(); err != nil {
		logrus.WithField("obj", err).Error("Fatal error occurred. Program will exit")
		var buf bytes.Buffer
		stack := debug.Stack()
		buf.WriteString(fmt.Sprintf("Panic: %v\n", err))
		buf.Write(stack)
		dumpName := "dump_" + time.Now().Format("20060102-150405")
		nerr := ioutil.WriteFile(dumpName, buf.Bytes(), 0644)
		if nerr != nil {
			fmt.Println("write dump file error", nerr)
		}
		logrus.WithField("stack ", buf.String()).Error("panic")
		os.Exit(1)
	}
}

func logDir() string {
	return files.FixPrefixPath(viper.GetString("dir.root"), LogDir)
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Unknown level:", level, "Set to INFO")
		return logrus.InfoLevel
	}
	return lvl
}

// initLogger uses viper to get the log path and level. It should be called by all other commands
func initLogger() {
	doStdout := viper.GetBool("log.stdout")
	doFile := viper.GetBool("log.file")
	logdir := logDir()

	var writers []io.Writer
	if doFile {
		folderPath, err := filepath.Abs(logdir)
		utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing log path: %s", logdir))

		abspath, err := filepath.Abs(path.Join(logdir, "run"))
		utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing log file path: %s", logdir))

		err = files.MkDirIfNotExists(folderPath)
		utilfuncs.PanicIfError(err, fmt.Sprintf("Error on creating log dir: %s", folderPath))
		writers = append(writers, mylog.RotateLog(abspath))
	}
	if doStdout {
		writers = append(writers, os.Stdout)
	}
	switch len(writers) {
	case 0:
		logrus.SetOutput(ioutil.Discard)
	case 1:
		logrus.SetOutput(writers[0])
	default:
		logrus.SetOutput(io.MultiWriter(writers...))
	}
	logrus.SetLevel(parseLevel(viper.GetString("log.level")))

	Formatter := new(logrus.TextFormatter)
	Formatter.ForceColors = doStdout && !doFile
	Formatter.TimestampFormat = "2006-01-02 15:04:05.000000"
	Formatter.FullTimestamp = true
	logrus.StandardLogger().SetFormatter(Formatter)

	if viper.GetBool("log.line_number") {
		logrus.SetReportCaller(true)
	}
	if viper.GetBool("multifile_by_level") && doFile {
		writerMap := lfshook.WriterMap{}
		for _, lvl := range logrus.AllLevels {
			abspath, _ := filepath.Abs(path.Join(logdir, lvl.String()))
			writerMap[lvl] = mylog.RotateLog(abspath)
		}
		logrus.AddHook(lfshook.NewHook(writerMap, Formatter))
	}
	logrus.Debug("Logger initialized.")
}
