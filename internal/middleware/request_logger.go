package middleware

import (
	"strconv"
	"time"

	"storefront/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// 1リクエスト1行のアクセスログとHTTPメトリクス
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// echoのHTTPErrorなどをここでレスポンスにする
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			elapsed := time.Since(start)

			// パスはパラメータ展開前のルート（カーディナリティ対策）
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			status := strconv.Itoa(res.Status)
			metrics.HTTPRequestDuration.WithLabelValues(req.Method, path, status).Observe(elapsed.Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(req.Method, path, status).Inc()

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("route", path),
				zap.Int("status", res.Status),
				zap.Duration("latency", elapsed),
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
			}
			switch {
			case res.Status >= 500:
				log.Error("request", fields...)
			case res.Status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		}
	}
}
