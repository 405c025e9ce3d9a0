package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MJE43/pf-casino-engine/internal/bets"
	"github.com/MJE43/pf-casino-engine/internal/games"
	"github.com/MJE43/pf-casino-engine/internal/replay"
	"github.com/MJE43/pf-casino-engine/internal/scan"
)

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GamesResponse{Games: games.List(), EngineVersion: EngineVersion})
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	var req StartRoundRequest
	if !s.decode(w, r, &req) {
		return
	}
	round, err := s.rounds.StartRound(r.Context(), req.Account, req.Variant, req.Params)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, RoundResponse{Round: round, EngineVersion: EngineVersion})
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	round, err := s.rounds.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RoundResponse{Round: round, EngineVersion: EngineVersion})
}

func (s *Server) handleListRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := s.rounds.List(r.Context(), chi.URLParam(r, "account"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RoundsResponse{Rounds: rounds, EngineVersion: EngineVersion})
}

func (s *Server) handlePlaceWagers(w http.ResponseWriter, r *http.Request) {
	var req PlaceWagersRequest
	if !s.decode(w, r, &req) {
		return
	}
	round, err := s.rounds.PlaceWagers(r.Context(), chi.URLParam(r, "id"), req.Wagers)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RoundResponse{Round: round, EngineVersion: EngineVersion})
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	rev, err := s.rounds.Reveal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RevealResponse{Revelation: rev, EngineVersion: EngineVersion})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	round, err := s.rounds.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RoundResponse{Round: round, EngineVersion: EngineVersion})
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	round, err := s.rounds.Refund(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RoundResponse{Round: round, EngineVersion: EngineVersion})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !s.decode(w, r, &req) {
		return
	}
	wagers, err := bets.ParseWagers(req.Wagers)
	if err != nil {
		s.errorHandler.HandleValidationError(w, r, err)
		return
	}

	res, err := replay.Replay(replay.Input{
		Seed:       req.Seed,
		Commitment: req.Commitment,
		Variant:    req.Variant,
		Params:     req.Params,
		Wagers:     wagers,
	})
	if err != nil {
		if errors.Is(err, replay.ErrCommitmentMismatch) {
			s.errorHandler.HandleError(w, r, err)
			return
		}
		s.errorHandler.HandleValidationError(w, r, err)
		return
	}

	resp := VerifyResponse{Result: res, EngineVersion: EngineVersion}
	if req.Payout != nil {
		matches := res.Payout.Equal(*req.Payout)
		resp.Matches = &matches
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req scan.Request
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.scanner.Scan(r.Context(), req)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	resp := SimulateResponse{Result: res}
	if s.runs != nil {
		run, err := s.runs.SaveRun(r.Context(), res)
		if err != nil {
			s.logger.Error("failed to save simulation", "error", err)
		} else {
			resp.RunID = run.ID
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSimulation(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.errorHandler.writeErrorResponse(w, http.StatusNotFound,
			NewError(ErrTypeNotFound, "simulations are not persisted").Build())
		return
	}
	id := chi.URLParam(r, "id")
	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	hits, err := s.runs.GetHits(r.Context(), id, limit, max(offset, 0))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{Run: run, Hits: hits, EngineVersion: EngineVersion})
}
