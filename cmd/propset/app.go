package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/eightycats/litterbox/log"
	"github.com/eightycats/litterbox/minioutil"

	"golang.org/x/term"
)

// App holds state shared across commands
type App struct {
	Out io.Writer
	Err io.Writer

	// set from global flags
	ConfigPath string
	Verbose    bool

	Config *config
	Log    *log.Logger

	minio   *minioutil.Client
	closers []io.Closer
}

// init loads config and creates the logger. Called before every command.
func (a *App) init() error {
	cfg, err := loadConfig(a.ConfigPath)
	if err != nil {
		return err
	}
	a.Config = cfg
	a.Log = log.New(&log.Config{
		Dir:     cfg.Log.Dir,
		Out:     a.Err,
		Verbose: a.Verbose || cfg.Log.Verbose,
	})
	return nil
}

// Close closes ssh sessions and log files
func (a *App) Close() {
	for _, c := range a.closers {
		a.Log.IfErrf(c.Close())
	}
	a.closers = nil
	_ = a.Log.Close()
}

// minioClient returns a client for bucket, creating it on first use
func (a *App) minioClient(ctx context.Context, bucket string) (*minioutil.Client, error) {
	if a.minio != nil && a.minio.Bucket == bucket {
		return a.minio, nil
	}
	mc := a.Config.Minio
	c, err := minioutil.New(ctx, &minioutil.Config{
		Access:   mc.Access,
		Secret:   mc.Secret,
		Bucket:   bucket,
		Endpoint: mc.Endpoint,
		Region:   mc.Region,
		Insecure: mc.Insecure,
	})
	if err != nil {
		return nil, err
	}
	a.minio = c
	return c, nil
}

func (a *App) isTerminal() bool {
	f, ok := a.Out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// colorDiff colors added lines green and removed lines red
// if stdout is a terminal
func (a *App) colorDiff(diff string) string {
	if !a.isTerminal() {
		return diff
	}
	lines := strings.SplitAfter(diff, "\n")
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
			lines[i] = "\033[1m" + strings.TrimSuffix(l, "\n") + "\033[0m\n"
		case strings.HasPrefix(l, "+"):
			lines[i] = "\033[32m" + strings.TrimSuffix(l, "\n") + "\033[0m\n"
		case strings.HasPrefix(l, "-"):
			lines[i] = "\033[31m" + strings.TrimSuffix(l, "\n") + "\033[0m\n"
		case strings.HasPrefix(l, "@@"):
			lines[i] = "\033[36m" + strings.TrimSuffix(l, "\n") + "\033[0m\n"
		}
	}
	return strings.Join(lines, "")
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Out, format, args...)
}
