package log2

import (
	"bytes"
	"fmt"
	"log"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLog2(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fun  func(t testing.TB, l *Log) string
	}{
		{"caller/debug", func(t testing.TB, l *Log) string {
			l.SetFlags(log.Lshortfile)
			l.Debugf("low level var=%d", 42)
			return formatCallerShort(1) + "debug: low level var=42\n"
		}},
		{"caller/info", func(t testing.TB, l *Log) string {
			l.SetFlags(log.Lshortfile)
			l.Infof("regular state=%s", "ok")
			return formatCallerShort(1) + "regular state=ok\n"
		}},
		{"caller/error", func(t testing.TB, l *Log) string {
			l.SetFlags(log.Lshortfile)
			l.Errorf("problem")
			return formatCallerShort(1) + "error: problem\n"
		}},
		{"level/skip-debug", func(t testing.TB, l *Log) string {
			l.SetLevel(LInfo)
			l.SetFlags(0)
			l.Debugf("hidden")
			l.Infof("visible")
			return "visible\n"
		}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name+"/logger=nil", func(t *testing.T) {
			c.fun(t, nil)
		})
		t.Run(c.name, func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			l := NewWriter(buf, LDebug)
			expect := c.fun(t, l)
			assert.Equal(t, expect, buf.String())
		})
	}
}

func TestClone(t *testing.T) {
	t.Parallel()

	buf := bytes.NewBuffer(nil)
	root := NewWriter(buf, LError)
	root.SetFlags(0)
	sub := root.Clone(LDebug)
	sub.Debugf("subsystem detail")
	root.Debugf("root detail")
	assert.Equal(t, "debug: subsystem detail\n", buf.String())

	var nothing *Log
	assert.Nil(t, nothing.Clone(LDebug))
}

func TestCloneKeepsFatalSink(t *testing.T) {
	t.Parallel()

	var fatal string
	root := NewFunc(func(format string, args ...interface{}) {}, LDebug)
	root.fatalf = func(format string, args ...interface{}) {
		fatal = fmt.Sprintf(format, args...)
	}

	sub := root.Clone(LError)
	sub.Fatalf("broken %s", "pipe")
	assert.Equal(t, "broken pipe", fatal)
}

func callerShort(depth int) (file string, line int) {
	var ok bool
	_, file, line, ok = runtime.Caller(depth)
	if !ok {
		file = "???"
		line = 0
	}

	short := file
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			short = file[i+1:]
			break
		}
	}
	file = short

	return
}

func formatCallerShort(depth int) string {
	file, line := callerShort(depth + 1)
	return fmt.Sprintf("%s:%d: ", file, line-1)
}
