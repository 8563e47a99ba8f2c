package emailsvc

import (
	"encoding/base64"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/checkin/core"
)

func TestSendgridService_build(t *testing.T) {
	conf := core.NewTestConfig(t.TempDir())
	svc := NewSendgridService(conf, core.NopLogger{})

	content := []byte("PK\x03\x04")
	msg := core.EmailMessage{
		To:           []mail.Address{{Name: "Head", Address: "head@test.cd"}},
		Bcc:          []mail.Address{{Address: "archive@test.cd"}},
		Subject:      "签到报告",
		TemplateName: "attendance_report",
		TextContent:  "课程: Go",
		HTMLContent:  "<p>课程: Go</p>",
		Attachments: []core.Attachment{{
			Content:     content,
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Filename:    "attendance-101-20240301-080000.xlsx",
		}},
	}

	m := svc.build(msg)
	assert.Equal(t, conf.Email.DefaultFrom, m.From.Address)

	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "["+conf.AppName+"] 签到报告", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "head@test.cd", p.To[0].Address)
	assert.Empty(t, p.CC)
	require.Len(t, p.BCC, 1)
	assert.Equal(t, "archive@test.cd", p.BCC[0].Address)

	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)

	require.Len(t, m.Attachments, 1)
	at := m.Attachments[0]
	assert.Equal(t, base64.StdEncoding.EncodeToString(content), at.Content)
	assert.Equal(t, "attendance-101-20240301-080000.xlsx", at.Filename)
	assert.Equal(t, "attachment", at.Disposition)

	assert.Equal(t, []string{"attendance_report"}, m.Categories)
}

func TestSendgridService_deliverSkipsEmptyMessages(t *testing.T) {
	svc := NewSendgridService(core.NewTestConfig(t.TempDir()), core.NopLogger{})

	// no recipients: nothing is posted
	assert.NoError(t, svc.deliver(&core.EmailMessage{Subject: "x", BodyStr: "body"}))
}
