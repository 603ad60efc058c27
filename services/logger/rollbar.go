package logsvc

import (
	"log"
	"strconv"
	"sync"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/user"
)

type RollbarLogger struct {
	std  *log.Logger
	test *testRecord
}

type testRecord struct {
	mu       sync.Mutex
	messages []string
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

// NewTestLogger returns a logger that neither prints nor reports, it only records the messages.
func NewTestLogger() *RollbarLogger {
	return &RollbarLogger{std: log.New(log.Writer(), "TEST : ", log.LstdFlags), test: new(testRecord)}
}

// Messages returns the messages recorded by a test logger.
func (l RollbarLogger) Messages() []string {
	if l.test == nil {
		return nil
	}
	l.test.mu.Lock()
	defer l.test.mu.Unlock()
	return append([]string(nil), l.test.messages...)
}

func (l RollbarLogger) record(msg string) bool {
	if l.test == nil {
		return false
	}
	l.test.mu.Lock()
	l.test.messages = append(l.test.messages, msg)
	l.test.mu.Unlock()
	return true
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var usrSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		// set acting User
		if usr, ok := arg.(user.User); ok {
			if !usrSet { // only set one User
				rollbar.SetPerson(strconv.FormatInt(usr.ID, 10), usr.Name, usr.Email)
				usrSet = true
			}
		} else {
			newArgs = append(newArgs, arg)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

func (l RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	if l.record(msg) {
		return
	}
	rollbar.Debug(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	if l.record(msg) {
		return
	}
	rollbar.Info(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	if l.record(msg) {
		return
	}
	rollbar.Warning(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	if l.record(msg) {
		return
	}
	rollbar.Error(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.record(msg)
	rollbar.Critical(l.prepare(msg, args)...)
	l.print(msg, args)
	l.std.Fatal(msg)
}
