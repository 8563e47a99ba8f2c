package echoapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "请先登录")
	errAuthenticationFailed = core.NewValidationError(errors.New("用户名或密码错误"))
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "账号已停用")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "没有权限")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "页面不存在")
)

type errorPage struct {
	Code    int
	Message string
	Fields  []core.FieldError
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		page := errorPage{Code: http.StatusInternalServerError}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing || origErr.Code == http.StatusUnauthorized {
				if redirectToLogin(ctx) {
					return
				}
				page.Code = http.StatusUnauthorized
				page.Message = errUnauthorized.Message.(string)
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			page.Code = origErr.Code
			page.Message = fmt.Sprint(origErr.Message)
		case validator.ValidationErrors:
			page.Code = http.StatusBadRequest
			page.Message = "提交的数据有误"
			page.Fields = core.TranslateErrors(origErr, translator)
		case *core.ValidationError:
			page.Code = http.StatusBadRequest
			page.Message = origErr.Error()
			page.Fields = origErr.Fields
			if origErr.Err == nil {
				page.Message = "提交的数据有误"
			}
		case *core.NotFoundError:
			page.Code = http.StatusNotFound
			page.Message = origErr.Error()
		case *core.ConflictError:
			page.Code = http.StatusConflict
			page.Message = origErr.Error()
		case *core.ForbiddenError:
			page.Code = http.StatusForbidden
			page.Message = origErr.Error()
		case *core.ExternalToolError:
			page.Code = http.StatusBadGateway
			page.Message = origErr.Error()
			logger.Error(origErr.Error(), errors.Wrap(err, origErr.Output), contextUser(ctx))
		default: // any other error is a server error
			msg := http.StatusText(http.StatusInternalServerError)
			page.Message = msg
			logger.Error(msg, errors.Wrap(err, msg), contextUser(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && page.Code == http.StatusInternalServerError {
			page.Message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(page.Code)
			} else if wantsJSON(ctx) {
				err = ctx.JSON(page.Code, page.json())
			} else {
				err = render(ctx, page.Code, "error", fmt.Sprintf("%d", page.Code), page)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func (p errorPage) json() echo.Map {
	data := echo.Map{"error": p.Message}
	if len(p.Fields) > 0 {
		flds := make(map[string]string, len(p.Fields))
		for _, f := range p.Fields {
			flds[f.Field] = f.Error
		}
		data["fields"] = flds
	}
	return data
}

// redirectToLogin sends browsers navigating to a protected page to the login form.
func redirectToLogin(ctx echo.Context) bool {
	req := ctx.Request()
	if req.Method != http.MethodGet || wantsJSON(ctx) || ctx.Response().Committed {
		return false
	}
	clearTokenCookie(ctx)
	q := url.Values{"next": {req.URL.RequestURI()}}
	_ = ctx.Redirect(http.StatusSeeOther, loginPath+"?"+q.Encode())
	return true
}

func wantsJSON(ctx echo.Context) bool {
	req := ctx.Request()
	return strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) ||
		strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// contextUser is the logged in user, if the request went through the auth middlewares.
func contextUser(ctx echo.Context) user.User {
	usr, _ := ctx.Get(contextUserKey).(user.User)
	return usr
}
