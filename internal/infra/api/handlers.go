package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"qr-redirect/internal/domain"
	"qr-redirect/internal/domain/model"
	"qr-redirect/internal/infra/logging"
	red "qr-redirect/internal/infra/redis"
	"qr-redirect/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// visitMeta collects what a visit reveals about the visitor. Fields that would fail
// validation are dropped so the scan is still recorded.
func visitMeta(r *http.Request, ips clientIPs) model.ScanMetadata {
	ip := ips.of(r)
	return model.ScanMetadata{
		IPAddress: &ip,
		Latitude:  queryFloat(r, "lat"),
		Longitude: queryFloat(r, "lng"),
	}.Sanitize()
}

// redirectHandler answers GET /redirect?id= with the resolved target.
// The countdown is left to the client; the scan is recorded in the background.
func redirectHandler(uc usecase.RedirectUseCase, ips clientIPs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, msgIDRequired)
			return
		}

		ctx := logging.WithCodeID(r.Context(), id)
		v, err := uc.Visit(ctx, id, visitMeta(r, ips))
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, msgIDRequired)
			return
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, msgNotFound)
			return
		default:
			writeError(w, http.StatusInternalServerError, msgInternal)
			return
		}
		defer v.Release()

		writeJSON(w, http.StatusOK, map[string]string{"url": v.HandOff()})
	}
}

// visitHandler serves GET /r/{codeId}. Browsers get a countdown page; other clients
// are held for the countdown and then sent a 302.
func visitHandler(uc usecase.RedirectUseCase, ips clientIPs, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		html := wantsHTML(r)
		v, err := uc.Visit(ctx, chi.URLParam(r, "codeId"), visitMeta(r, ips))
		if err != nil {
			status, msg := http.StatusInternalServerError, msgInternal
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidArgument) {
				status, msg = http.StatusNotFound, msgNotFound
			}
			if html {
				renderNotFound(w, status, msg)
				return
			}
			writeError(w, status, msg)
			return
		}
		defer v.Release()

		if html {
			renderVisit(w, v.HandOff(), int(math.Ceil(v.Countdown.Seconds())))
			return
		}

		target, err := v.Wait(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				writeError(w, http.StatusGatewayTimeout, "countdown exceeded request timeout")
				return
			}
			logging.With(ctx, log).Debug().Msg("visitor left during countdown")
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

type scanRequest struct {
	CodeID    string   `json:"codeId"`
	IPAddress *string  `json:"ipAddress"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func scanCreateHandler(uc usecase.RecorderUseCase, limiter RateLimiter, ips clientIPs, opts Options, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if limiter != nil && opts.ScanRateLimit > 0 {
			ok, err := limiter.Allow(ctx, red.ScanKey(ips.of(r)), opts.ScanRateLimit, opts.ScanRateWindow)
			if err != nil {
				// fail open: a limiter outage must not stop scans
				logging.With(ctx, log).Warn().Err(err).Msg("rate limiter unavailable")
			} else if !ok {
				writeUCError(w, domain.ErrRateLimited)
				return
			}
		}

		var req scanRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.CodeID == "" {
			writeError(w, http.StatusBadRequest, "codeId is required")
			return
		}

		ctx = logging.WithCodeID(ctx, req.CodeID)
		scan, err := uc.Record(ctx, req.CodeID, model.ScanMetadata{
			IPAddress: req.IPAddress,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		})
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, map[string]any{"scan": scan})
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusBadRequest, "unknown codeId")
		default:
			logging.With(ctx, log).Error().Err(err).Msg("scan append failed")
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
	}
}

func vcardHandler(uc usecase.ResolverUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := uc.Resolve(r.Context(), chi.URLParam(r, "id"))
		if err == nil && (code.Kind != model.KindVCard || code.Payload.VCard == nil) {
			err = domain.ErrNotFound
		}
		if err != nil {
			writeUCError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
		w.Header().Set("Content-Disposition", `inline; filename="`+code.Payload.VCard.FileName()+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(code.Payload.VCard.VCF()))
	}
}

type ticketView struct {
	ID string `json:"id"`
	*model.TicketPayload
	ValidNow bool `json:"valid_now"`
}

func ticketHandler(uc usecase.ResolverUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := uc.Resolve(r.Context(), chi.URLParam(r, "id"))
		if err == nil && (code.Kind != model.KindTicket || code.Payload.Ticket == nil) {
			err = domain.ErrNotFound
		}
		if err != nil {
			writeUCError(w, err)
			return
		}
		t := code.Payload.Ticket
		writeJSON(w, http.StatusOK, ticketView{ID: code.ID, TicketPayload: t, ValidNow: t.ValidAt(time.Now())})
	}
}
