package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/financeiro-leve/ledger-go/internal/domain"
	"github.com/financeiro-leve/ledger-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Accounts
// ============================================================

func listAccountsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts")
		defer span.End()

		accounts, err := svc.ListAccounts(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
	}
}

func createAccountHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts")
		defer span.End()

		var acc domain.Account
		if err := json.NewDecoder(r.Body).Decode(&acc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := svc.CreateAccount(ctx, acc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateAccountHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/accounts/{accountId}")
		defer span.End()

		var acc domain.Account
		if err := json.NewDecoder(r.Body).Decode(&acc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		acc.ID = chi.URLParam(r, "accountId")
		span.SetAttributes(attribute.String("account.id", acc.ID))

		if err := svc.UpdateAccount(ctx, acc); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteAccountHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/accounts/{accountId}")
		defer span.End()

		if err := svc.DeleteAccount(ctx, chi.URLParam(r, "accountId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Cards
// ============================================================

func listCardsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cards")
		defer span.End()

		cards, err := svc.ListCards(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
	}
}

func createCardHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cards")
		defer span.End()

		var card domain.Card
		if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := svc.CreateCard(ctx, card)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateCardHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/cards/{cardId}")
		defer span.End()

		var card domain.Card
		if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		card.ID = chi.URLParam(r, "cardId")
		span.SetAttributes(attribute.String("card.id", card.ID))

		if err := svc.UpdateCard(ctx, card); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteCardHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/cards/{cardId}")
		defer span.End()

		if err := svc.DeleteCard(ctx, chi.URLParam(r, "cardId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Transactions
// ============================================================

func listTransactionsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()

		transactions, err := svc.ListTransactions(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
	}
}

func createTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()

		// The body carries the transaction fields plus an optional
		// installments count, so it is decoded twice from the raw bytes.
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var tx domain.Transaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var opts struct {
			Installments int `json:"installments"`
		}
		if err := json.Unmarshal(raw, &opts); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if opts.Installments == 0 {
			opts.Installments = 1
		}

		created, err := svc.CreateTransaction(ctx, tx, opts.Installments)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"transactions": created})
	}
}

func updateTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/transactions/{transactionId}")
		defer span.End()

		var tx domain.Transaction
		if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		tx.ID = chi.URLParam(r, "transactionId")
		span.SetAttributes(attribute.String("transaction.id", tx.ID))

		if err := svc.UpdateTransaction(ctx, tx); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/transactions/{transactionId}")
		defer span.End()

		if err := svc.DeleteTransaction(ctx, chi.URLParam(r, "transactionId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toggleTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/{transactionId}/toggle")
		defer span.End()

		toggled, err := svc.ToggleTransactionStatus(ctx, chi.URLParam(r, "transactionId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, toggled)
	}
}

// ============================================================
// Month view
// ============================================================

func monthViewHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/months/{month}")
		defer span.End()

		month := chi.URLParam(r, "month")
		target, err := time.Parse("2006-01", month)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be formatted as YYYY-MM")
			return
		}
		span.SetAttributes(attribute.String("month", month))

		view, err := svc.GetMonthView(ctx, target)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
