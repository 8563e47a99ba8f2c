package echoapi

import (
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core/attendance"
)

const layoutTemplate = "_layout.gohtml"

type (
	templateRenderer struct {
		templates map[string]*template.Template
	}

	// page is what every web template receives.
	page struct {
		Title string
		User  *Claims
		Data  interface{}
	}

	message struct {
		Text string
		Back string
		Link string
	}
)

var _ echo.Renderer = (*templateRenderer)(nil) // interface compliance check

var templateFuncs = template.FuncMap{
	"statuses": func() []attendance.Status { return attendance.Statuses },
	"label":    func(s attendance.Status) string { return s.Label() },
	"seat": func(s *int) string {
		if s == nil {
			return ""
		}
		return strconv.Itoa(*s)
	},
}

// newTemplateRenderer parses every `<dir>/*.gohtml` page of fsys on top of the layout.
func newTemplateRenderer(fsys fs.FS, dir string) (*templateRenderer, error) {
	fps, err := fs.Glob(fsys, path.Join(dir, "*.gohtml"))
	if err != nil {
		return nil, errors.Wrap(err, "listing templates")
	}

	r := &templateRenderer{templates: make(map[string]*template.Template, len(fps))}
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		name := strings.TrimSuffix(fname, path.Ext(fname))
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, path.Join(dir, layoutTemplate), fp)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", fp)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

func render(ctx echo.Context, code int, name, title string, data interface{}) error {
	p := page{Title: title, Data: data}
	if claims, err := getContextClaims(ctx); err == nil {
		p.User = &claims
	}
	return ctx.Render(code, name, p)
}

// done reports a successful action: JSON for API clients, a message page otherwise.
func done(ctx echo.Context, msg message, extra ...echo.Map) error {
	if wantsJSON(ctx) {
		data := echo.Map{"message": msg.Text}
		if msg.Link != "" {
			data["link"] = msg.Link
		}
		for _, e := range extra {
			for k, v := range e {
				data[k] = v
			}
		}
		return ctx.JSON(http.StatusOK, data)
	}
	return render(ctx, http.StatusOK, "message", msg.Text, msg)
}
