package api

import (
	"encoding/json"
	"net/http"

	"qr-redirect/internal/domain/model"
	"qr-redirect/internal/infra/logging"
	"qr-redirect/internal/usecase"

	"github.com/go-chi/chi/v5"
)

// codeCreateRequest carries exactly one of URL, VCard or Ticket, matching Kind.
type codeCreateRequest struct {
	ID     string               `json:"id"`
	Kind   model.CodeKind       `json:"kind"`
	URL    string               `json:"url,omitempty"`
	VCard  *model.VCardPayload  `json:"vcard,omitempty"`
	Ticket *model.TicketPayload `json:"ticket,omitempty"`
}

func (req codeCreateRequest) input() usecase.CreateCodeInput {
	in := usecase.CreateCodeInput{ID: req.ID, Kind: req.Kind}
	if req.URL != "" {
		in.Payload.URL = &model.URLPayload{URL: req.URL}
	}
	in.Payload.VCard = req.VCard
	in.Payload.Ticket = req.Ticket
	return in
}

type page struct {
	Data   any  `json:"data"`
	Limit  int  `json:"limit"`
	Offset int  `json:"offset"`
	Total  *int `json:"total,omitempty"`
}

func writeUCError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	writeError(w, status, msg)
}

func codeCreateHandler(uc usecase.CodeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req codeCreateRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		code, err := uc.Create(r.Context(), logging.OwnerID(r.Context()), req.input())
		if err != nil {
			writeUCError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, code)
	}
}

func codeListHandler(uc usecase.CodeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit := usecase.NormalizePage(queryInt(r, "offset"), queryInt(r, "limit"))
		codes, err := uc.List(r.Context(), logging.OwnerID(r.Context()), offset, limit)
		if err != nil {
			writeUCError(w, err)
			return
		}
		if codes == nil {
			codes = []*model.Code{}
		}
		writeJSON(w, http.StatusOK, page{Data: codes, Limit: limit, Offset: offset})
	}
}

func codeGetHandler(uc usecase.CodeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := uc.Get(r.Context(), logging.OwnerID(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			writeUCError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, code)
	}
}

func codeDeleteHandler(uc usecase.CodeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := uc.Delete(r.Context(), logging.OwnerID(r.Context()), chi.URLParam(r, "id")); err != nil {
			writeUCError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func codeScansHandler(uc usecase.CodeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit := usecase.NormalizePage(queryInt(r, "offset"), queryInt(r, "limit"))
		scans, total, err := uc.Scans(r.Context(), logging.OwnerID(r.Context()), chi.URLParam(r, "id"), offset, limit)
		if err != nil {
			writeUCError(w, err)
			return
		}
		if scans == nil {
			scans = []*model.Scan{}
		}
		writeJSON(w, http.StatusOK, page{Data: scans, Limit: limit, Offset: offset, Total: &total})
	}
}
