package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/mergington/roster/apps/api/echo"
	"github.com/mergington/roster/core"
	"github.com/mergington/roster/core/activity"
	"github.com/mergington/roster/core/teacher"
	logsvc "github.com/mergington/roster/services/logger"
	inmemdb "github.com/mergington/roster/storage/database/inmem"
	"github.com/mergington/roster/tests"
)

const (
	teacherUsername = "mrodriguez"
	teacherPassword = "Art-Teach3r!"
)

var errUnauthorized = httpErr{Detail: "Not authenticated"}

type testApp struct {
	Server
	actSvc     *activity.Service
	teacherSvc *teacher.Service
}

func setup(t *testing.T, opts ...func(conf *core.Config)) *testApp {
	return setupWithRoster(t, nil, opts...)
}

// setupWithRoster serves roster instead of a seeded in-memory roster when it is not nil.
func setupWithRoster(t *testing.T, roster activity.Repository, opts ...func(conf *core.Config)) *testApp {
	conf := &core.Config{
		Env:      "TEST",
		TestMode: true,
		Server: core.ServerConfig{
			DisableReqLogs: true,
			StaticDir:      t.TempDir(),
			AllowedOrigins: []string{"*"},
		},
		Auth: core.AuthConfig{SessionTTL: time.Hour},
	}
	for _, opt := range opts {
		opt(conf)
	}

	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)

	// set up stores & services
	db := inmemdb.Open()
	accounts := inmemdb.NewAccountRepository(db)
	testutil.CreateAccount(t, accounts, teacherUsername, "Ms. Rodriguez", teacher.RoleTeacher, teacherPassword)

	if roster == nil {
		roster = inmemdb.NewRosterRepository(db)
		if _, err := activity.NewService(roster).Seed(context.Background(), activity.DefaultActivities()); err != nil {
			t.Fatalf("Seed() failed: %v", err)
		}
	}
	actSvc := activity.NewService(roster)
	teacherSvc := teacher.NewService(accounts, inmemdb.NewSessionStore(db), conf.Auth.SessionTTL)

	validate, translator := core.NewValidator()
	teacher.InitValidators(validate, translator)

	// set up server
	return &testApp{
		Server: NewServer(Deps{
			Conf:        conf,
			Logger:      logger,
			ActivitySvc: actSvc,
			TeacherSvc:  teacherSvc,
			Validate:    validate,
			Translator:  translator,
		}),
		actSvc:     actSvc,
		teacherSvc: teacherSvc,
	}
}

func (app *testApp) login(t *testing.T) string {
	sess, err := app.teacherSvc.Login(context.Background(), teacherUsername, teacherPassword)
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	return sess.Token
}

func (app *testApp) getActivity(t *testing.T, name string) activity.Activity {
	act, err := app.actSvc.Get(context.Background(), name)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	return act
}

type httpErr struct {
	Detail interface{} `json:"detail"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
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

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func message(t *testing.T, msg string) []byte {
	return marshallObj(t, MessageResponse{Message: msg})
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqualValues(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
