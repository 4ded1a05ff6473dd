package httpapi

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"avatard/internal/common/jsonx"
	"avatard/internal/engine"
	"avatard/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Generate(ctx context.Context, req engine.Request) engine.Result
	Status() types.StatusResponse
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	r.Use(MetricsMiddleware)

	r.Post("/generate", func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.GenerateRequest
		if err := jsonx.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		lvl := requestLogLevel(r)
		start := time.Now()
		if lvl >= LevelInfo {
			if zlog != nil {
				z := zlog.Info().Str("path", r.URL.Path).Str("image", req.ImagePath).Str("audio", req.AudioPath)
				if rid := middleware.GetReqID(r.Context()); rid != "" {
					z = z.Str("request_id", rid)
				}
				z.Msg("generate start")
			} else {
				log.Printf("generate start path=%s image=%s audio=%s", r.URL.Path, req.ImagePath, req.AudioPath)
			}
		}

		// Daemon shutdown cancels the generation alongside client disconnect.
		joinedCtx, cancel := mergeCancel(baseCtx, r.Context())
		defer cancel()
		res := svc.Generate(joinedCtx, engine.Request{
			ImagePath: req.ImagePath,
			AudioPath: req.AudioPath,
			Prompt:    req.Prompt,
			FrameRate: req.SaveFPS,
		})
		if r.Context().Err() != nil || baseCtx.Err() != nil {
			// Client disconnect or shutdown; nothing useful to write.
			return
		}

		httpStatus, body := toResponse(res)
		if res.Status == engine.StatusRejectedBusy {
			IncrementBackpressure("busy")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpStatus)
		if err := jsonx.NewEncoder(w).Encode(body); err != nil && lvl >= LevelError {
			log.Printf("generate encode response: %v", err)
		}
		if lvl >= LevelInfo {
			if zlog != nil {
				z := zlog.Info().Int("status", httpStatus).Str("result", string(res.Status)).Dur("dur", time.Since(start))
				if rid := middleware.GetReqID(r.Context()); rid != "" {
					z = z.Str("request_id", rid)
				}
				z.Msg("generate end")
			} else {
				log.Printf("generate end status=%d result=%s dur=%s", httpStatus, res.Status, time.Since(start))
			}
		}
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := jsonx.NewEncoder(w).Encode(svc.Status()); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// toResponse maps an engine result onto the wire contract: errCode 0
// success, -1 generation failure or busy, -2 preprocess failure, -3
// invalid input. The body is always well-formed with exactly one content
// entry.
func toResponse(res engine.Result) (int, types.GenerateResponse) {
	body := types.GenerateResponse{
		Content: []types.GenerateContent{{}},
		Info:    res.Message,
	}
	switch res.Status {
	case engine.StatusOK, engine.StatusOOMRecovered:
		b64 := base64.StdEncoding.EncodeToString(res.Video)
		body.ErrCode = 0
		body.Content[0].Buffer = &b64
		return http.StatusOK, body
	case engine.StatusRejectedBusy:
		body.ErrCode = -1
		body.Info = "broken"
		return http.StatusTooManyRequests, body
	case engine.StatusInvalidInput:
		body.ErrCode = -3
		return http.StatusBadRequest, body
	case engine.StatusPreprocessFailed:
		body.ErrCode = -2
		return http.StatusUnprocessableEntity, body
	default: // generation_failed, oom_fatal
		body.ErrCode = -1
		return http.StatusInternalServerError, body
	}
}
