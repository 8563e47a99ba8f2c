package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/checkin/apps/api/echo"
	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/attendance"
	"github.com/trezcool/checkin/core/classroom"
	"github.com/trezcool/checkin/core/history"
	"github.com/trezcool/checkin/core/roster"
	"github.com/trezcool/checkin/core/seatcode"
	"github.com/trezcool/checkin/core/user"
	appfs "github.com/trezcool/checkin/fs"
	"github.com/trezcool/checkin/services/email"
	"github.com/trezcool/checkin/services/seatcode"
	"github.com/trezcool/checkin/services/spreadsheet"
	"github.com/trezcool/checkin/storage/database/sqlx"
	"github.com/trezcool/checkin/tests"
)

type testApp struct {
	Server

	conf       *core.Config
	usrRepo    user.Repository
	roomRepo   classroom.Repository
	rosterRepo roster.Repository
	entryRepo  attendance.Repository
	mailSvc    *emailsvc.ConsoleServiceMock

	admin   user.User
	teacher user.User
}

func setup(t *testing.T) *testApp {
	// set up DB & repos
	db, conf := testutil.PrepareDB(t)
	app := &testApp{
		conf:       conf,
		usrRepo:    sqlxrepos.NewUserRepository(db),
		roomRepo:   sqlxrepos.NewClassroomRepository(db),
		rosterRepo: sqlxrepos.NewRosterRepository(db),
		entryRepo:  sqlxrepos.NewAttendanceRepository(db),
		mailSvc:    emailsvc.NewConsoleServiceMock(conf),
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	core.ParseEmailTemplates(appfs.FS, "templates/email", conf, core.NopLogger{})

	// set up services
	roomSvc := classroom.NewService(app.roomRepo)
	rosterSvc := roster.NewService(app.rosterRepo)

	server, err := NewServer(ServerDeps{
		Conf:          conf,
		Logger:        core.NopLogger{},
		Validate:      validate,
		Translator:    translator,
		HealthCheck:   db.PingContext,
		UserSvc:       user.NewService(app.usrRepo),
		ClassroomSvc:  roomSvc,
		RosterSvc:     rosterSvc,
		AttendanceSvc: attendance.NewService(app.entryRepo, roomSvc, rosterSvc),
		HistorySvc: history.NewService(
			sqlxrepos.NewHistoryRepository(db),
			spreadsheetsvc.NewExcelWriter(),
			app.mailSvc,
		),
		SeatcodeSvc: seatcode.NewService(conf, roomSvc, seatcodesvc.NewQREncoder(), seatcodesvc.NewPDFPrinter()),
	})
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	app.Server = server

	app.admin = testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.cd", "Pwd.1234", true, true)
	app.teacher = testutil.CreateUser(t, app.usrRepo, "Teacher", "teacher", "teacher@test.cd", "Pwd.1234", false, true)
	return app
}

type httpTest struct {
	name     string
	method   string
	path     string
	form     url.Values
	token    string
	wantCode int
	wantData []byte // JSON
	wantBody string // substring of an HTML body
}

func getToken(t *testing.T, app *testApp, usr user.User) string {
	token, err := GenerateToken(GetUserClaims(usr, app.conf), app.conf.SecretKey)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func newAuthRequest(method, path, token string, form url.Values) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	return req, httptest.NewRecorder()
}

func newRequest(method, path string, form url.Values) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", form)
}

// newJSONRequest asks for a JSON answer, sending body as JSON when not nil.
func newJSONRequest(method, path, token string, body interface{}) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		data, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, strings.NewReader(string(data)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	return req, httptest.NewRecorder()
}

func (app *testApp) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	app.ServeHTTP(rec, req)
	return rec
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
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
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData != nil {
		ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
		if err != nil {
			t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
		}
		if !ok {
			t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
		}
	}
	if tt.wantBody != "" {
		assert.Contains(t, rec.Body.String(), tt.wantBody)
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.form)
			checkCodeAndData(t, tt, app.do(req, rec))
		})
	}
}
