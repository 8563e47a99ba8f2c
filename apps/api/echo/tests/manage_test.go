package tests

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/checkin/tests"
)

func newUploadRequest(t *testing.T, path, token, filename, content string) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := w.CreateFormFile("csv_file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	return req, httptest.NewRecorder()
}

func Test_manageApi_classrooms(t *testing.T) {
	app := setup(t)
	adminToken := getToken(t, app, app.admin)
	teacherToken := getToken(t, app, app.teacher)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "instructor cannot add",
			method:   http.MethodPost,
			path:     "/checkin/manage/add",
			form:     url.Values{"classroom_id": {"0101"}, "row": {"2"}, "column": {"3"}},
			token:    teacherToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "add",
			method:   http.MethodPost,
			path:     "/checkin/manage/add",
			form:     url.Values{"classroom_id": {"0101"}, "row": {"2"}, "column": {"3"}},
			token:    adminToken,
			wantCode: http.StatusOK,
			wantBody: "教室 0101 已添加 (2 行 × 3 列, 6 个座位)",
		},
		{
			name:     "add existing keeps layout",
			method:   http.MethodPost,
			path:     "/checkin/manage/add",
			form:     url.Values{"classroom_id": {"0101"}, "row": {"9"}, "column": {"9"}},
			token:    adminToken,
			wantCode: http.StatusOK,
			wantBody: "(2 行 × 3 列, 6 个座位)",
		},
		{
			name:     "bad id",
			method:   http.MethodPost,
			path:     "/checkin/manage/add",
			form:     url.Values{"classroom_id": {"A1"}, "row": {"2"}, "column": {"3"}},
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantBody: "classroom_id",
		},
		{
			name:     "bad rows",
			method:   http.MethodPost,
			path:     "/checkin/manage/add",
			form:     url.Values{"classroom_id": {"0102"}, "row": {"0"}, "column": {"3"}},
			token:    adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "hub",
			method:   http.MethodGet,
			path:     "/checkin/manage.html",
			token:    teacherToken,
			wantCode: http.StatusOK,
			wantBody: `href="/checkin/0101/admin.html"`,
		},
	})

	req, rec := newJSONRequest(http.MethodGet, "/checkin/manage/list", teacherToken, nil)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: []byte(`[
			{"id": "0001", "rows": 4, "columns": 12, "checkin_open": false},
			{"id": "0101", "rows": 2, "columns": 3, "checkin_open": false}
		]`),
	}, app.do(req, rec))

	req, rec = newAuthRequest(http.MethodPost, "/checkin/manage/delete", adminToken, url.Values{"classroom_id": {"0001"}})
	app.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/checkin/manage/delete", adminToken, url.Values{"classroom_id": {"0001"}})
	app.do(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req, rec = newJSONRequest(http.MethodGet, "/checkin/manage/list", teacherToken, nil)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: []byte(`[{"id": "0101", "rows": 2, "columns": 3, "checkin_open": false}]`),
	}, app.do(req, rec))
}

func Test_manageApi_students(t *testing.T) {
	app := setup(t)
	adminToken := getToken(t, app, app.admin)
	teacherToken := getToken(t, app, app.teacher)
	testutil.CreateStudents(t, app.rosterRepo, [3]string{"S9", "Zed", "C9"})

	t.Run("import form", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/checkin/import-student.html", adminToken, nil)
		app.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `name="csv_file"`)

		req, rec = newAuthRequest(http.MethodGet, "/checkin/import-student.html", teacherToken, nil)
		app.do(req, rec)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	uploads := []struct {
		name     string
		filename string
		content  string
		wantCode int
		wantBody string
	}{
		{name: "no file", wantCode: http.StatusBadRequest, wantBody: "请上传 CSV 文件"},
		{name: "not csv", filename: "roster.xlsx", content: "S1,Alice,C1", wantCode: http.StatusBadRequest},
		{name: "empty", filename: "roster.csv", content: "only,two\n", wantCode: http.StatusBadRequest, wantBody: "文件为空或格式不正确"},
		{name: "duplicates", filename: "roster.csv", content: "S1,Alice,C1\nS1,Alice,C1\n", wantCode: http.StatusBadRequest, wantBody: "S1"},
		{name: "stored id", filename: "roster.csv", content: "S1,Alice,C1\nS9,Zed,C9\n", wantCode: http.StatusConflict, wantBody: "S9"},
		{
			name:     "success",
			filename: "roster.csv",
			content:  "\ufeffS1,Alice,C1\nS2,Bob,C1\nS3,Carol,C2\n",
			wantCode: http.StatusOK,
			wantBody: "成功导入 3 名学生",
		},
	}
	for _, tt := range uploads {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newUploadRequest(t, "/checkin/manage/import-students", adminToken, tt.filename, tt.content)
			app.do(req, rec)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}

	req, rec := newJSONRequest(http.MethodGet, "/checkin/manage/list-students", teacherToken, nil)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: []byte(`[
			{"class_name": "C1", "count": 2},
			{"class_name": "C2", "count": 1},
			{"class_name": "C9", "count": 1}
		]`),
	}, app.do(req, rec))

	runHTTPTests(t, app, []httpTest{
		{
			name:     "delete class",
			method:   http.MethodPost,
			path:     "/checkin/manage/delete-class-students",
			form:     url.Values{"class_name": {"C1"}},
			token:    adminToken,
			wantCode: http.StatusOK,
			wantBody: "已删除班级 C1 的 2 名学生",
		},
		{
			name:     "delete without class",
			method:   http.MethodPost,
			path:     "/checkin/manage/delete-class-students",
			form:     url.Values{"class_name": {" "}},
			token:    adminToken,
			wantCode: http.StatusBadRequest,
		},
	})
}

func Test_manageApi_qrcodes(t *testing.T) {
	app := setup(t)
	adminToken := getToken(t, app, app.admin)
	teacherToken := getToken(t, app, app.teacher)
	testutil.CreateClassroom(t, app.roomRepo, "0101", 1, 2, false)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "print before codes",
			method:   http.MethodPost,
			path:     "/checkin/manage/generate-print-file",
			form:     url.Values{"classroom_id": {"0101"}},
			token:    adminToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "unknown classroom",
			method:   http.MethodPost,
			path:     "/checkin/manage/generate-qrcode",
			form:     url.Values{"classroom_id": {"0999"}},
			token:    adminToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "codes",
			method:   http.MethodPost,
			path:     "/checkin/manage/generate-qrcode",
			form:     url.Values{"classroom_id": {"0101"}},
			token:    adminToken,
			wantCode: http.StatusOK,
			wantBody: "教室 0101 已生成 2 个二维码",
		},
		{
			name:     "print file",
			method:   http.MethodPost,
			path:     "/checkin/manage/generate-print-file",
			form:     url.Values{"classroom_id": {"0101"}},
			token:    adminToken,
			wantCode: http.StatusOK,
			wantBody: `href="/checkin/0101/qrcode/qrcode-0101.pdf"`,
		},
		{
			name:     "download image",
			method:   http.MethodGet,
			path:     "/checkin/0101/qrcode/qr-02.png",
			token:    teacherToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "download pdf",
			method:   http.MethodGet,
			path:     "/checkin/0101/qrcode/qrcode-0101.pdf",
			token:    teacherToken,
			wantCode: http.StatusOK,
			wantBody: "%PDF",
		},
		{
			name:     "other file types",
			method:   http.MethodGet,
			path:     "/checkin/0101/qrcode/checkin.db",
			token:    teacherToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "missing image",
			method:   http.MethodGet,
			path:     "/checkin/0101/qrcode/qr-03.png",
			token:    teacherToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "bad classroom id",
			method:   http.MethodGet,
			path:     "/checkin/abc/qrcode/qr-01.png",
			token:    teacherToken,
			wantCode: http.StatusNotFound,
		},
	})

	req, rec := newAuthRequest(http.MethodGet, "/checkin/0101/qrcode/qr-01.png", teacherToken, nil)
	app.do(req, rec)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}
