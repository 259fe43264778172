package health

import (
	"github.com/go-chi/render"
	"net/http"
	"clubq/lib/api/response"
)

func Check() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.Ok(map[string]string{"status": "ok"}))
	}
}
