package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/user"
)

type userApi struct {
	svc      *user.Service
	validate *validator.Validate
	conf     *core.Config
}

type loginPage struct {
	Next     string
	Username string
	Error    string
}

func registerUserAPI(g *echo.Group, svc *user.Service, validate *validator.Validate, conf *core.Config) {
	api := userApi{
		svc:      svc,
		validate: validate,
		conf:     conf,
	}

	// TODO: rate limit `/login`
	g.GET("/login", api.loginForm)
	g.POST("/login", api.login)
	g.POST("/logout", api.logout)
}

// Handlers

func (api *userApi) loginForm(ctx echo.Context) error {
	return render(ctx, http.StatusOK, "login", "登录", loginPage{Next: ctx.QueryParam("next")})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := authenticate(ctx, data.Username, data.Password, api.svc)
	if err != nil {
		if err == errAuthenticationFailed && !wantsJSON(ctx) {
			return render(ctx, http.StatusBadRequest, "login", "登录", loginPage{
				Next:     data.Next,
				Username: data.Username,
				Error:    "用户名或密码错误",
			})
		}
		return err
	}

	claims := GetUserClaims(usr, api.conf)
	token, err := GenerateToken(claims, api.conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	setTokenCookie(ctx, token, time.Unix(claims.ExpiresAt, 0))

	if wantsJSON(ctx) {
		return ctx.JSON(http.StatusOK, echo.Map{"token": token})
	}
	return ctx.Redirect(http.StatusSeeOther, safeNext(data.Next))
}

func (api *userApi) logout(ctx echo.Context) error {
	clearTokenCookie(ctx)
	return ctx.Redirect(http.StatusSeeOther, loginPath)
}
