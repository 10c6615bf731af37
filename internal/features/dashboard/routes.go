package dashboard

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/coc-proxy-go/pkg/tag"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("dashboard").Funcs(template.FuncMap{
		"tagBody": tag.Strip,
		"upper":   strings.ToUpper,
	}).ParseFS(templateFS, "templates/*.tmpl")
}

// RegisterRoutes mounts the HTML pages and their static assets on the engine.
func RegisterRoutes(engine *gin.Engine, handler *Handler) error {
	tmpl, err := Templates()
	if err != nil {
		return err
	}
	engine.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return err
	}
	engine.StaticFS("/static", http.FS(static))

	engine.GET("/", handler.Home)
	engine.GET("/clans", handler.Clans)
	engine.GET("/players", handler.Players)
	engine.POST("/players/verify", handler.VerifyToken)

	return nil
}
