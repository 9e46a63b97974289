package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/toon-format/toon-go"
)

type WriteDaily struct {
	Dir         string
	currentDate int // YYYYMMDD format
	file        *os.File
	mu          sync.Mutex
}

func NewWriteDaily(dir string) *WriteDaily {
	return &WriteDaily{
		Dir: dir,
	}
}

// dayFromTime converts a time.Time to YYYYMMDD integer format
func dayFromTime(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// PathForTime returns path of the log file for a given day
func (w *WriteDaily) PathForTime(t time.Time) string {
	return filepath.Join(w.Dir, t.UTC().Format("2006-01-02")+".txt")
}

// writer returns today's log file, opening a new one if the day changed.
// Must be called with w.mu held.
func (w *WriteDaily) writer() (io.Writer, error) {
	now := time.Now().UTC()
	today := dayFromTime(now)

	if w.file != nil && w.currentDate != today {
		if err := w.close(); err != nil {
			return nil, err
		}
	}

	if w.file == nil {
		if err := os.MkdirAll(w.Dir, 0755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(w.PathForTime(now), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		w.file = f
		w.currentDate = today
	}
	return w.file, nil
}

// Write writes data to the daily log file
// it's safe to call on nil receiver
func (w *WriteDaily) Write(d []byte) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	wr, err := w.writer()
	if err != nil {
		return err
	}
	_, err = wr.Write(d)
	return err
}

// WriteString writes a string to the daily log file
// it's safe to call on nil receiver
func (w *WriteDaily) WriteString(s string) error {
	return w.Write([]byte(s))
}

func (w *WriteDaily) close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.currentDate = 0
	return err
}

// Close closes the daily log file
// it's safe to call on nil receiver
func (w *WriteDaily) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		_ = w.file.Sync()
	}
	return w.close()
}

type Config struct {
	// directory where log files are stored, in "log", "errors"
	// and "events" sub-directories. No files are written if empty.
	Dir string
	// where Logf() prints, os.Stdout if nil
	Out io.Writer
	// if true, Verbosef() logs messages
	Verbose bool
	// called for every Logf() call
	// allows sending logs to other places
	OnLog func(s string)
}

// Logger logs to Out and to daily files.
// All methods are safe to call on a nil *Logger, they do nothing.
type Logger struct {
	out     io.Writer
	verbose bool
	onLog   func(s string)

	mu        sync.Mutex
	log       *WriteDaily
	errorsLog *WriteDaily
	eventsLog *WriteDaily
}

// New creates a Logger. config can be nil.
func New(config *Config) *Logger {
	if config == nil {
		config = &Config{}
	}
	l := &Logger{
		out:     config.Out,
		verbose: config.Verbose,
		onLog:   config.OnLog,
	}
	if l.out == nil {
		l.out = os.Stdout
	}
	if dir := config.Dir; dir != "" {
		// WriteDaily only creates a file on first write so
		// if we don't log errors or events, it's a no-op
		l.log = NewWriteDaily(filepath.Join(dir, "log"))
		l.errorsLog = NewWriteDaily(filepath.Join(dir, "errors"))
		l.eventsLog = NewWriteDaily(filepath.Join(dir, "events"))
	}
	return l
}

// IsVerbose returns true if Verbosef() logs
func (l *Logger) IsVerbose() bool {
	return l != nil && l.verbose
}

// Close closes log files
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	err := l.log.Close()
	err2 := l.errorsLog.Close()
	err3 := l.eventsLog.Close()
	for _, e := range []error{err, err2, err3} {
		if e != nil {
			return e
		}
	}
	return nil
}

func (l *Logger) Logf(s string, args ...any) {
	if l == nil {
		return
	}
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	l.mu.Lock()
	fmt.Fprint(l.out, s)
	l.mu.Unlock()
	_ = l.log.WriteString(s)
	if l.onLog != nil {
		l.onLog(s)
	}
}

func (l *Logger) Verbosef(format string, args ...any) {
	if !l.IsVerbose() {
		return
	}
	l.Logf(format, args...)
}

func GetCallstackFrames(skip int) []string {
	var callers [32]uintptr
	n := runtime.Callers(skip+1, callers[:])
	frames := runtime.CallersFrames(callers[:n])
	var cs []string
	for {
		frame, more := frames.Next()
		if !more {
			break
		}
		s := frame.File + ":" + strconv.Itoa(frame.Line)
		cs = append(cs, s)
	}
	return cs
}

func GetCallstack(skip int) string {
	frames := GetCallstackFrames(skip + 1)
	return strings.Join(frames, "\n")
}

// Errorf logs an error message along with the callstack
func (l *Logger) Errorf(s string, args ...any) {
	l.errorf(2, s, args...)
}

func (l *Logger) errorf(skip int, s string, args ...any) {
	if l == nil {
		return
	}
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	s = strings.TrimSuffix(s, "\n")
	cs := GetCallstack(skip + 1)
	msg := s + "\n" + cs + "\n"
	l.Logf("%s", msg)
	_ = l.errorsLog.WriteString(msg)
}

// if err != nil, log and return true
// IfErrf(err) => logs err.Error()
// IfErrf(err, "error is: %v", err) => logs message formatted
func (l *Logger) IfErrf(err error, a ...any) bool {
	if err == nil {
		return false
	}
	if len(a) == 0 {
		l.errorf(2, "%s", err.Error())
		return true
	}
	s, ok := a[0].(string)
	if !ok {
		s = fmt.Sprintf("%s", a[0])
	}
	if len(a) > 1 {
		s = fmt.Sprintf(s, a[1:]...)
	}
	l.errorf(2, "%s", s)
	return true
}

// Event logs a named event with key / value pairs to the events log,
// values encoded in toon format. vals must have an even length,
// keys must be strings.
func (l *Logger) Event(name string, vals ...any) error {
	if l == nil {
		return nil
	}
	n := len(vals)
	if n%2 != 0 {
		return fmt.Errorf("log.Event('%s'): odd number of values (%d)", name, n)
	}
	var d []byte
	if n > 0 {
		m := map[string]any{}
		for i := 0; i < n; i += 2 {
			k, ok := vals[i].(string)
			if !ok {
				return fmt.Errorf("log.Event('%s'): key %v is %T, not a string", name, vals[i], vals[i])
			}
			m[k] = vals[i+1]
		}
		var err error
		if d, err = toon.Marshal(m); err != nil {
			return err
		}
	}
	l.Verbosef("event: %s\n", name)
	if l.eventsLog == nil {
		return nil
	}
	// header line, toon payload, blank line as a separator
	var sb strings.Builder
	sb.WriteString(name + " " + strconv.FormatInt(time.Now().UTC().UnixMilli(), 10) + "\n")
	if len(d) > 0 {
		sb.Write(d)
		if d[len(d)-1] != '\n' {
			sb.WriteByte('\n')
		}
	}
	sb.WriteByte('\n')
	return l.eventsLog.WriteString(sb.String())
}
