package middleware

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/logger"
	"github.com/akinalp/pastane/pkg/ratelimit"
)

// RequestIDHeader, istek kimliğinin taşındığı header.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID, her isteğe bir kimlik verir. İstemci geçerli bir UUID
// gönderdiyse o kullanılır, aksi halde yenisi üretilir.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFrom, context'teki istek kimliği. Yoksa boş string.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// AccessLog, tamamlanan her isteği zap ile loglar. 5xx → Error,
// 4xx → Warn, diğerleri Info.
func AccessLog(next http.Handler) http.Handler {
	log := logger.Named("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int64("bytes", rec.bytes),
			zap.Duration("took", time.Since(start)),
			zap.String("ip", ratelimit.ClientIP(r)),
			zap.String("request_id", RequestIDFrom(r.Context())),
		}
		switch {
		case rec.status >= 500:
			log.Error("request", fields...)
		case rec.status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	})
}

// Recover, handler'daki panic'i yakalar, stack ile loglar ve 500 döner.
// http.ErrAbortHandler yeniden fırlatılır.
func Recover(next http.Handler) http.Handler {
	log := logger.Named("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rv := recover()
			if rv == nil {
				return
			}
			if rv == http.ErrAbortHandler {
				panic(rv)
			}
			log.Error("panic recovered",
				zap.Any("panic", rv),
				zap.String("path", r.URL.Path),
				zap.String("request_id", RequestIDFrom(r.Context())),
				zap.ByteString("stack", debug.Stack()),
			)
			pkg.ErrorWithMessage(w, http.StatusInternalServerError, pkg.ErrInternal.Error())
		}()
		next.ServeHTTP(w, r)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.wroteHeader = true
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += int64(n)
	return n, err
}

func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(r.ResponseWriter).Hijack()
}
