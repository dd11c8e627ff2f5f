package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/listenupapp/listenup-triage/internal/domain"
	domainerrors "github.com/listenupapp/listenup-triage/internal/errors"
	"github.com/listenupapp/listenup-triage/internal/http/response"
	"github.com/listenupapp/listenup-triage/internal/store"
)

// decodeAndValidate reads the request body into dest and runs struct
// validation. Handlers get back a ready-to-use request or a client error
// already shaped for the envelope.
func (s *Server) decodeAndValidate(r *http.Request, dest any) error {
	if err := json.UnmarshalRead(r.Body, dest); err != nil {
		return domainerrors.Validation("invalid request body")
	}
	return s.validator.Validate(dest)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{"status": "healthy"}, s.logger)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.engine.StartSession(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, session, s.logger)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.EndSession(r.Context()); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

// queuePayload is the combined view the client renders from.
type queuePayload struct {
	Cards    []domain.Card      `json:"cards"`
	Position domain.NavSnapshot `json:"position"`
}

func (s *Server) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	response.Success(w, queuePayload{
		Cards:    s.engine.Queue(),
		Position: s.engine.Position(),
	}, s.logger)
}

type setTabRequest struct {
	Tab domain.Tab `json:"tab" validate:"required,oneof=books authors series"`
}

func (s *Server) handleSetTab(w http.ResponseWriter, r *http.Request) {
	var req setTabRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.engine.SetTab(req.Tab)
	response.Success(w, queuePayload{
		Cards:    s.engine.Queue(),
		Position: s.engine.Position(),
	}, s.logger)
}

type decideRequest struct {
	Kind domain.DecisionKind `json:"kind" validate:"required,oneof=classify skip defer"`
	Card domain.Card         `json:"card" validate:"required"`
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	err := s.engine.Apply(r.Context(), domain.Decision{Kind: req.Kind, Card: req.Card})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	// The decision changed the queue; hand the fresh view back so the client
	// advances without a second round trip.
	response.Success(w, queuePayload{
		Cards:    s.engine.Queue(),
		Position: s.engine.Position(),
	}, s.logger)
}

type bulkClassifyRequest struct {
	Card domain.Card `json:"card" validate:"required"`
}

type bulkClassifyResult struct {
	Marked int           `json:"marked"`
	Cards  []domain.Card `json:"cards"`
}

func (s *Server) handleBulkClassify(w http.ResponseWriter, r *http.Request) {
	var req bulkClassifyRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	marked, err := s.engine.MarkAllInGroup(r.Context(), req.Card)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, bulkClassifyResult{
		Marked: marked,
		Cards:  s.engine.Queue(),
	}, s.logger)
}

func (s *Server) handleUnmark(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	if bookID == "" {
		response.BadRequest(w, "book ID is required", s.logger)
		return
	}

	if err := s.engine.Unmark(r.Context(), bookID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

type undoResult struct {
	Undone   *domain.UndoEntry  `json:"undone"`
	Cards    []domain.Card      `json:"cards"`
	Position domain.NavSnapshot `json:"position"`
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	entry, err := s.engine.Undo(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, undoResult{
		Undone:   entry,
		Cards:    s.engine.Queue(),
		Position: s.engine.Position(),
	}, s.logger)
}

type backResult struct {
	Moved    bool               `json:"moved"`
	Cards    []domain.Card      `json:"cards"`
	Position domain.NavSnapshot `json:"position"`
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	moved := s.engine.Back()
	response.Success(w, backResult{
		Moved:    moved,
		Cards:    s.engine.Queue(),
		Position: s.engine.Position(),
	}, s.logger)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	response.Success(w, s.engine.Stats(), s.logger)
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	response.Success(w, s.engine.Position(), s.logger)
}

func (s *Server) handleExportState(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.Export(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, state, s.logger)
}

func (s *Server) handleImportState(w http.ResponseWriter, r *http.Request) {
	var state store.State
	if err := json.UnmarshalRead(r.Body, &state); err != nil {
		response.BadRequest(w, "invalid state payload", s.logger)
		return
	}

	if err := s.store.Import(r.Context(), &state); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	// Imported state lands in the store only; the client starts a new
	// session to load it into the engine.
	response.NoContent(w)
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Flush(r.Context()); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, s.engine.Stats(), s.logger)
}
