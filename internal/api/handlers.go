package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/recovery"
)

const maxBodyBytes = 16 << 10

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/convert"
	reqID := requestID(r)

	var req domain.ConversionRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.failWith(w, r, endpoint, reqID, nil,
			domain.WrapError(domain.CategoryValidation, "malformed request body", err))
		return
	}

	cacheID := conversionCacheID(req)
	op := func(ctx context.Context) (any, error) {
		return s.convert(ctx, req, cacheID)
	}

	result, err := op(r.Context())
	if err != nil {
		s.failWith(w, r, endpoint, reqID, op, err, withFallbackKey("convert:"+cacheID))
		return
	}
	s.writeJSON(w, endpoint, http.StatusOK, result)
}

func (s *Server) handleNow(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/now"
	now := time.Now().Unix()

	// Pure computation; runs with fail-fast semantics, no protection.
	result, err := Convert(domain.ConversionRequest{
		Timestamp: &now,
		Timezone:  r.URL.Query().Get("tz"),
	}, time.Now())
	if err != nil {
		s.failWith(w, r, endpoint, requestID(r), nil, err)
		return
	}
	s.writeJSON(w, endpoint, http.StatusOK, result)
}

func (s *Server) handleTimezone(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/timezone"
	reqID := requestID(r)
	name := r.URL.Query().Get("tz")

	op := func(ctx context.Context) (any, error) {
		return s.timezone(ctx, name)
	}

	result, err := op(r.Context())
	if err != nil {
		s.failWith(w, r, endpoint, reqID, op, err, withFallbackKey("tz:"+name))
		return
	}
	s.writeJSON(w, endpoint, http.StatusOK, result)
}

// convert computes a conversion, consulting and refreshing the domain
// cache when one is configured.
func (s *Server) convert(ctx context.Context, req domain.ConversionRequest, cacheID string) (*domain.ConversionResult, error) {
	if s.cache != nil {
		if cached, ok, err := s.cache.GetConversion(ctx, cacheID); err == nil && ok {
			return cached, nil
		} else if err != nil {
			s.log.Debug("conversion cache lookup failed", "error", err)
		}
	}

	result, err := Convert(req, time.Now())
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.cache.SetConversion(ctx, cacheID, result); err != nil {
				s.log.Debug("conversion cache refresh failed", "error", err)
			}
		}()
	}
	return result, nil
}

func (s *Server) timezone(ctx context.Context, name string) (*domain.TimezoneInfo, error) {
	if s.cache != nil {
		if cached, ok, err := s.cache.GetTimezone(ctx, name); err == nil && ok {
			return cached, nil
		} else if err != nil {
			s.log.Debug("timezone cache lookup failed", "error", err)
		}
	}

	info, err := TimezoneLookup(name, time.Now())
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.cache.SetTimezone(ctx, name, info); err != nil {
				s.log.Debug("timezone cache refresh failed", "error", err)
			}
		}()
	}
	return info, nil
}

type failOption func(*recovery.Request)

func withFallbackKey(key string) failOption {
	return func(req *recovery.Request) {
		req.FallbackKey = key
	}
}

// failWith routes a handler failure through the recovery coordinator.
// When op is nil there is nothing to re-execute (e.g. a body that never
// parsed); the failure is classified and rendered directly.
func (s *Server) failWith(
	w http.ResponseWriter,
	r *http.Request,
	endpoint string,
	reqID string,
	op domain.Operation,
	cause error,
	opts ...failOption,
) {
	req := recovery.Request{
		RequestID: reqID,
		Endpoint:  endpoint,
		Method:    r.Method,
	}
	for _, opt := range opts {
		opt(&req)
	}

	if op == nil {
		op = func(ctx context.Context) (any, error) { return nil, cause }
		req.Strategy = domain.StrategyFailFast
	}

	result, rec, err := s.coord.Handle(r.Context(), cause, op, req)
	if err != nil {
		s.writeFailure(w, endpoint, rec, err)
		return
	}

	s.log.Info("request recovered",
		"endpoint", endpoint,
		"request_id", reqID,
		"strategy", rec.Recovery.Strategy,
		"fallback_used", rec.Recovery.FallbackUsed)
	s.writeJSON(w, endpoint, http.StatusOK, result)
}

func conversionCacheID(req domain.ConversionRequest) string {
	ts := int64(-1)
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	return fmt.Sprintf("%d|%s|%s", ts, req.Date, req.Timezone)
}
