package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/roster"
	"github.com/trezcool/checkin/core/user"
	"github.com/trezcool/checkin/storage/database"
	"github.com/trezcool/checkin/storage/database/sqlx"
	"github.com/trezcool/checkin/tests"
)

var (
	usrRepo    user.Repository
	rosterRepo roster.Repository
)

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db, conf := testutil.PrepareDB(t)
	usrRepo = sqlxrepos.NewUserRepository(db)
	rosterRepo = sqlxrepos.NewRosterRepository(db)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	return &commandLine{
		db:        db,
		dialect:   database.Dialect(conf),
		usrSvc:    user.NewService(usrRepo),
		rosterSvc: roster.NewService(rosterRepo),
		validate:  validate,
		out:       io.Discard,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	origRun := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = origRun })
	gooseRunFunc = func(command string, db *sql.DB, dialect string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_migrateEmbedded(t *testing.T) {
	cli := setup(t)

	// the real goose runner, against the already migrated test DB
	assert.NoError(t, cli.run([]string{"admin", "migrate", "status"}))
	assert.NoError(t, cli.run([]string{"admin", "migrate", "up"}))
}

func mockPassword(t *testing.T, pwd string) {
	origRead := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = origRead })
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "Pwd.1234", false, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: "unknown command"},
		{name: "no username", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "--username", "bob"}, wantErr: errHelp},
		{
			name:       "username taken",
			args:       []string{"adduser", "--username", "AWE"},
			extra:      extra{pwd: "Pwd.1234"},
			wantErrStr: user.ErrUsernameExists.Error(),
		},
		{
			name:       "bad email",
			args:       []string{"adduser", "--username", "bob", "--email", "lol"},
			extra:      extra{pwd: "Pwd.1234"},
			wantErrStr: "email",
		},
		{
			name:  "admin",
			args:  []string{"adduser", "--username", "Boss", "--email", "boss@test.cd", "--name", "The Boss", "--admin"},
			extra: extra{pwd: "Pwd.1234"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			var pwd string
			if e, ok := tt.extra.(extra); ok {
				pwd = e.pwd
			}
			mockPassword(t, pwd)
			tt.check(t, cli.run(args))
		})
	}

	usr, err := usrRepo.GetUserByUsernameOrEmail(context.Background(), "boss")
	require.NoError(t, err)
	assert.True(t, usr.IsAdmin)
	assert.True(t, usr.IsActive)
	assert.Equal(t, "The Boss", usr.Name)
	assert.NoError(t, usr.CheckPassword("Pwd.1234"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", false, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "--username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "--username", "lol"}, extra: extra{pwd: "Secret.987"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "--username", usr.Username}, extra: extra{pwd: "Secret.987"}},
		{name: "reset with email", args: []string{"resetpassword", "--username", usr.Email}, extra: extra{pwd: "Other.6543"}},
		{name: "weak password", args: []string{"resetpassword", "--username", usr.Username}, extra: extra{pwd: "12345678"}, wantErrStr: "pwdnotallnum"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			var pwd string
			if e, ok := tt.extra.(extra); ok {
				pwd = e.pwd
			}
			mockPassword(t, pwd)

			err := cli.run(args)
			tt.check(t, err)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
				require.NoError(t, err)
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
				assert.NoError(t, refreshedUsr.CheckPassword(pwd))
			}
		})
	}
}

func Test_commandLine_importRoster(t *testing.T) {
	cli := setup(t)
	dir := t.TempDir()

	write := func(name, content string) string {
		fp := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(fp, []byte(content), 0o600))
		return fp
	}
	good := write("good.csv", "S1,Alice,C1\nS2,Bob,C1\n")
	dups := write("dups.csv", "S3,Carol,C2\nS3,Carol,C2\n")

	tests := []cliTest{
		{name: "no file", args: []string{"import-roster"}, wantErrStr: "accepts 1 arg"},
		{name: "missing file", args: []string{"import-roster", filepath.Join(dir, "nope.csv")}, wantErrStr: "opening roster"},
		{name: "duplicates", args: []string{"import-roster", dups}, wantErrStr: "S3"},
		{name: "import", args: []string{"import-roster", good}},
		{name: "import again", args: []string{"import-roster", good}, wantErrStr: "学号已存在"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	students, err := rosterRepo.QueryStudents(context.Background())
	require.NoError(t, err)
	assert.Len(t, students, 2)
}
