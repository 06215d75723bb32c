package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapDriver struct {
	sugar *zap.SugaredLogger
}

func (d *zapDriver) Fatal(msg string, ctx ...interface{}) { d.sugar.Fatalw(msg, ctx...) }
func (d *zapDriver) Error(msg string, ctx ...interface{}) { d.sugar.Errorw(msg, ctx...) }
func (d *zapDriver) Warn(msg string, ctx ...interface{})  { d.sugar.Warnw(msg, ctx...) }
func (d *zapDriver) Info(msg string, ctx ...interface{})  { d.sugar.Infow(msg, ctx...) }
func (d *zapDriver) Debug(msg string, ctx ...interface{}) { d.sugar.Debugw(msg, ctx...) }

func (d *zapDriver) Sync() error {
	return d.sugar.Sync()
}

// OpenMLog create and open log stream using LogConf. Records at or above the
// configured level go to <filename>.log, warnings and worse are duplicated to
// <filename>.log.wf.
func OpenMLog(lc *LogConf, logDir string) (LogDriver, error) {
	level, err := zapLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("log level error.err:%v", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "t"
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	switch lc.Fmt {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	cores := make([]zapcore.Core, 0, 3)
	if lc.File {
		if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("create log dir failed.dir:%s err:%v", logDir, err)
		}
		nmWriter, err := openLogFile(filepath.Join(logDir, lc.Filename+".log"), lc)
		if err != nil {
			return nil, err
		}
		wfWriter, err := openLogFile(filepath.Join(logDir, lc.Filename+".log.wf"), lc)
		if err != nil {
			return nil, err
		}
		cores = append(cores,
			zapcore.NewCore(enc, nmWriter, level),
			zapcore.NewCore(enc.Clone(), wfWriter, zapcore.WarnLevel))
	}
	if lc.Console {
		cores = append(cores, zapcore.NewCore(enc.Clone(), zapcore.Lock(os.Stderr), level))
	}

	lg := zap.New(zapcore.NewTee(cores...)).With(zap.String("module", lc.Module))
	return &zapDriver{sugar: lg.Sugar()}, nil
}

func openLogFile(path string, lc *LogConf) (zapcore.WriteSyncer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file failed.path:%s err:%v", path, err)
	}
	if !lc.Async {
		return zapcore.Lock(f), nil
	}
	return &zapcore.BufferedWriteSyncer{
		WS:            zapcore.AddSync(f),
		Size:          lc.BufSize,
		FlushInterval: time.Second,
	}, nil
}

func zapLevel(lvl string) (zapcore.Level, error) {
	switch lvl {
	case "debug", "trace":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	}
	return zapcore.DebugLevel, fmt.Errorf("unknown level %q", lvl)
}
