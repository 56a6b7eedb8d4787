package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/usecase"
)

const (
	serviceName  = "devweek-bank"
	maxBodyBytes = 1 << 20
)

var defaultInitialBalance = decimal.NewFromInt(1000)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Welcome to the Dev Week Bank API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"list":          "GET /users",
			"get":           "GET /users/{id}",
			"create":        "POST /users",
			"create_simple": "POST /users/simple",
			"update":        "PUT /users/{id}",
			"delete":        "DELETE /users/{id}",
			"balance":       "GET /users/{id}/balance",
			"deposit":       "POST /users/{id}/deposit",
			"withdraw":      "POST /users/{id}/withdraw",
			"transfer":      "POST /users/{id}/transfer",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", usecase.DefaultPageSize)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	users, err := s.core.ListUsers(r.Context(), skip, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}
	user, err := s.core.GetUser(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}
	view, err := s.core.GetBalance(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if !s.decode(w, r, &req) {
		return
	}
	user, err := s.core.CreateUser(r.Context(), req.toDomain())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleCreateSimpleUser(w http.ResponseWriter, r *http.Request) {
	var req simpleUserRequest
	if !s.decode(w, r, &req) {
		return
	}
	balance := defaultInitialBalance
	if req.InitialBalance != nil {
		balance = *req.InitialBalance
	}
	user, err := s.core.CreateSimpleUser(r.Context(), req.Name, req.Email, balance)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req userUpdateRequest
	if !s.decode(w, r, &req) {
		return
	}
	user, err := s.core.UpdateUser(r.Context(), id, domain.UserPatch{Name: req.Name, Email: req.Email})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}
	if err := s.core.DeleteUser(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !s.decode(w, r, &req) || !s.checkAmount(w, req.Amount) {
		return
	}
	receipt, err := s.core.Deposit(r.Context(), id, req.Amount)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, movementResponse{
		Message:       "Deposit completed successfully",
		UserID:        id,
		Amount:        req.Amount,
		NewBalance:    receipt.NewBalance(),
		TransactionID: receipt.Transaction.Reference(),
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !s.decode(w, r, &req) || !s.checkAmount(w, req.Amount) {
		return
	}
	receipt, err := s.core.Withdraw(r.Context(), id, req.Amount)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, movementResponse{
		Message:       "Withdrawal completed successfully",
		UserID:        id,
		Amount:        req.Amount,
		NewBalance:    receipt.NewBalance(),
		TransactionID: receipt.Transaction.Reference(),
	})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if !s.decode(w, r, &req) || !s.checkAmount(w, req.Amount) {
		return
	}
	if req.ToUserID <= 0 {
		s.writeError(w, http.StatusUnprocessableEntity, "to_user_id is required")
		return
	}
	receipt, err := s.core.Transfer(r.Context(), id, req.ToUserID, req.Amount)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, transferResponse{
		Message:        "Transfer completed successfully",
		FromUserID:     id,
		ToUserID:       req.ToUserID,
		Amount:         req.Amount,
		NewBalanceFrom: receipt.FromBalance,
		NewBalanceTo:   receipt.ToBalance,
		TransactionID:  receipt.Transaction.Reference(),
	})
}

func (s *Server) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid user id %q", raw))
		return 0, false
	}
	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) checkAmount(w http.ResponseWriter, amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		s.writeError(w, http.StatusUnprocessableEntity, domain.ErrAmountMustBePositive.Error())
		return false
	}
	if !domain.HasMoneyScale(amount) {
		s.writeError(w, http.StatusUnprocessableEntity, domain.ErrAmountPrecision.Error())
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be an integer", key)
	}
	return n, nil
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}

// writeDomainError maps business errors onto status codes. Anything unknown is a 500.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrAccountNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds), errors.Is(err, domain.ErrSameAccount):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAmountMustBePositive),
		errors.Is(err, domain.ErrAmountPrecision),
		errors.Is(err, domain.ErrRefIDConflict),
		errors.Is(err, domain.ErrInvalidUser),
		errors.Is(err, domain.ErrInvalidPage):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		s.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
