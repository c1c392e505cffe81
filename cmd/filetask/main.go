package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/spf13/afero"

	"github.com/chenjianlong/filetask/pkg/conf"
	"github.com/chenjianlong/filetask/pkg/engine"
	"github.com/chenjianlong/filetask/pkg/fsutil"
	"github.com/chenjianlong/filetask/pkg/i18n"
	"github.com/chenjianlong/filetask/pkg/logging"
	"github.com/chenjianlong/filetask/pkg/output"
	"github.com/chenjianlong/filetask/pkg/pool"
	"github.com/chenjianlong/filetask/pkg/task"
	"github.com/chenjianlong/filetask/pkg/transfer"
)

const AppName = "filetask"

type args struct {
	GetFileList *string `arg:"--get-file-list" help:"print the files of a directory as a JSON array"`
	UploadFile  *string `arg:"--upload-file" help:"upload a file or directory to the configured backend"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

// run executes one CLI invocation and returns the process exit code. Nothing
// is written to stdout unless exactly one selector was given.
func run(ctx context.Context, argv []string, stdout, stderr io.Writer, getenv func(string) string) int {
	var a args
	parser, err := arg.NewParser(arg.Config{Program: AppName}, &a)
	fsutil.CheckError(err)
	if err := parser.Parse(argv); err != nil {
		return output.ExitFailure
	}
	if (a.GetFileList == nil) == (a.UploadFile == nil) {
		return output.ExitFailure
	}

	cfg, cfgErr := conf.Load(conf.Path(getenv), getenv)
	if cfgErr != nil {
		cfg = conf.Default()
	}
	logger := logging.New(stderr, cfg.LogLevel)
	if cfgErr != nil {
		logger.Error("failed to load config", "path", conf.Path(getenv), "error", cfgErr)
		writeLine(stdout, output.Failure(cfgErr))
		return output.ExitFailure
	}
	i18n.InitBundle(i18n.Detect(), "en")

	fsys := afero.NewOsFs()
	backend, err := transfer.New(cfg.Transfer, fsys)
	if err != nil {
		logger.Error("failed to create transfer backend", "backend", cfg.Transfer.Kind, "error", err)
		writeLine(stdout, output.Failure(err))
		return output.ExitFailure
	}
	defer backend.Close()

	metrics := pool.NewMetrics(AppName)
	eng := engine.New(engine.Options{
		Config:   cfg,
		Fs:       fsys,
		Uploader: backend,
		Backend:  backend.Name(),
		Metrics:  metrics,
		Logger:   logger,
	})
	defer func() {
		eng.Shutdown()
		logMetrics(logger, metrics)
	}()

	if a.GetFileList != nil {
		h, err := eng.ListFiles(*a.GetFileList)
		if err != nil {
			writeLine(stdout, output.Failure(err))
			return output.ListExitCode(err)
		}
		res, ok := wait(ctx, h, stdout, logger)
		if !ok {
			return output.ExitFailure
		}
		out, code := output.FileList(res)
		writeLine(stdout, out)
		return code
	}

	h, err := eng.UploadFile(*a.UploadFile)
	if err != nil {
		writeLine(stdout, output.Failure(err))
		return output.ExitFailure
	}
	res, ok := wait(ctx, h, stdout, logger)
	if !ok {
		return output.ExitFailure
	}
	out, code := output.Upload(res)
	writeLine(stdout, out)
	return code
}

// wait blocks for h's result. If ctx ends first the task is cancelled and a
// failure is printed.
func wait(ctx context.Context, h *engine.Handle, stdout io.Writer, logger *slog.Logger) (task.Result, bool) {
	res, err := h.Wait(ctx)
	if err == nil {
		return res, true
	}
	h.Cancel()
	logger.Warn("interrupted, cancelling task", "task", h.ID(), "error", err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = task.Errorf(task.Cancelled, "cancelled")
	}
	writeLine(stdout, output.Failure(err))
	return task.Result{}, false
}

func writeLine(w io.Writer, b []byte) {
	_, _ = w.Write(append(b, '\n'))
}

func logMetrics(logger *slog.Logger, metrics *pool.Metrics) {
	families, err := metrics.Registry().Gather()
	if err != nil {
		logger.Debug("failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"metric", mf.GetName()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				attrs = append(attrs, "value", m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				attrs = append(attrs, "value", m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				attrs = append(attrs, "count", m.GetHistogram().GetSampleCount(), "sum", m.GetHistogram().GetSampleSum())
			}
			logger.Debug("metric", attrs...)
		}
	}
}
