// Package tests exercises the HTTP API end to end against the in-memory store.
package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/aspirasi/relawan/apps/api/echo"
	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/application"
	"github.com/aspirasi/relawan/core/complaint"
	"github.com/aspirasi/relawan/core/dispatch"
	"github.com/aspirasi/relawan/core/program"
	"github.com/aspirasi/relawan/core/user"
	emailsvc "github.com/aspirasi/relawan/services/email"
	logsvc "github.com/aspirasi/relawan/services/logger"
	whatsappsvc "github.com/aspirasi/relawan/services/whatsapp"
	inmemdb "github.com/aspirasi/relawan/storage/database/inmem"
	"github.com/aspirasi/relawan/testutil"
)

var (
	now = time.Date(2025, time.March, 10, 3, 0, 0, 0, time.UTC)

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

type testApp struct {
	server     *Server
	conf       *core.Config
	programs   program.Repository
	dispatcher *dispatch.Dispatcher
}

func setup(t *testing.T) testApp {
	testutil.MockNow(t, now)
	emailsvc.ResetSentMessages()

	conf := testutil.NewConfig()
	logger := logsvc.NewTestLogger()
	validate, translator := testutil.NewValidator()

	db := inmemdb.Open()
	programRepo := inmemdb.NewProgramRepository(db)
	ledger := program.NewLedger(conf, logger)

	dispatcher := dispatch.NewDispatcher(
		dispatch.NewConfigSettings(conf),
		emailsvc.NewConsoleServiceMock(conf, logger),
		whatsappsvc.NewConsoleService(logger),
		logger,
		conf,
	)
	t.Cleanup(dispatcher.Wait)

	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		ProgramSvc:     program.NewService(programRepo, ledger),
		ApplicationSvc: application.NewService(inmemdb.NewApplicationRepository(db), ledger, logger, conf),
		ComplaintSvc:   complaint.NewService(inmemdb.NewComplaintRepository(db), dispatcher, logger, conf),
		Validate:       validate,
		Translator:     translator,
	})
	return testApp{server: server, conf: conf, programs: programRepo, dispatcher: dispatcher}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func (app testApp) do(t *testing.T, method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newAuthRequest(method, path, token, data...)
	app.server.ServeHTTP(rec, req)
	return rec
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func (app testApp) getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr, app.conf)
	token, err := GenerateToken(claims, app.conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
