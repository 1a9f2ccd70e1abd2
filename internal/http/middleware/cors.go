package middleware

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// Ports the local studio and admin front ends are served from.
var devPorts = []int{80, 3000, 5173, 5174}

func devOrigins() []string {
	return lo.FlatMap([]string{"localhost", "127.0.0.1"}, func(host string, _ int) []string {
		return lo.Map(devPorts, func(port int, _ int) string {
			return fmt.Sprintf("http://%s:%d", host, port)
		})
	})
}

// CORS admits the configured origins. With none configured only the local
// dev front ends are allowed.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = lo.Uniq(lo.Compact(origins))
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = devOrigins()
	}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AddAllowHeaders("Authorization", "If-Match", headerRequestID)
	cfg.ExposeHeaders = []string{"ETag", headerRequestID, headerTraceID}
	cfg.AllowCredentials = true
	cfg.MaxAge = 10 * time.Minute
	return cors.New(cfg)
}
