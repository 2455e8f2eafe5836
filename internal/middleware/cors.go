package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// DevOrigins are the local frontend dev-server origins allowed to call the API.
var DevOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// CORS 允许前端开发服务器携带凭证跨域访问。
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = DevOrigins
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
