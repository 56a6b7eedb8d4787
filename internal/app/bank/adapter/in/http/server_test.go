package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bankhttp "github.com/JoeShih716/go-devweek-bank/internal/app/bank/adapter/in/http"
	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/adapter/out/gormstore"
	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/usecase"
	testutil "github.com/JoeShih716/go-devweek-bank/internal/testing"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	client := testutil.NewTestDB(t)
	require.NoError(t, gormstore.Migrate(client.DB()))
	core := usecase.NewCoreUseCase(gormstore.NewUserRepository(client), gormstore.NewLedger(client), zerolog.Nop())
	_, err := core.Seed(context.Background())
	require.NoError(t, err)

	return bankhttp.New(bankhttp.Config{Log: zerolog.Nop(), Core: core}).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func number(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	f, ok := v.(float64)
	require.True(t, ok, "expected a JSON number, got %T", v)
	return decimal.NewFromFloat(f)
}

func TestRootAndHealth(t *testing.T) {
	h := newHandler(t)

	rec, body := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "endpoints")

	rec, body = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestListUsers(t *testing.T) {
	h := newHandler(t)

	rec, _ := do(t, h, http.MethodGet, "/users?skip=1&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "Maria Silva", users[0]["name"])

	for _, q := range []string{"skip=-1", "limit=0", "limit=501", "limit=abc"} {
		rec, body := do(t, h, http.MethodGet, "/users?"+q, "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, q)
		assert.NotEmpty(t, body["detail"])
	}
}

func TestGetUserAndBalance(t *testing.T) {
	h := newHandler(t)

	rec, body := do(t, h, http.MethodGet, "/users/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Devweekerson", body["name"])
	account := body["account"].(map[string]any)
	assert.True(t, number(t, account["balance"]).Equal(decimal.RequireFromString("624.12")))

	rec, body = do(t, h, http.MethodGet, "/users/1/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, number(t, body["total_available"]).Equal(decimal.RequireFromString("1624.12")))

	rec, body = do(t, h, http.MethodGet, "/users/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user not found", body["detail"])

	rec, _ = do(t, h, http.MethodGet, "/users/abc/balance", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateUpdateDelete(t *testing.T) {
	h := newHandler(t)

	rec, body := do(t, h, http.MethodPost, "/users", `{
		"name": "Ana",
		"email": "ana@example.com",
		"account": {"number": "03.000001-1", "agency": "0001", "balance": 10.5},
		"card": {"number": "**** **** **** 3333"},
		"features": [{"icon": "💰", "description": "Pix"}],
		"news": []
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := int(body["id"].(float64))
	account := body["account"].(map[string]any)
	assert.True(t, number(t, account["limit"]).Equal(decimal.NewFromInt(1000)), "default account limit")

	rec, body = do(t, h, http.MethodPut, "/users/"+strconv.Itoa(id), `{"email": null, "name": "Ana Maria", "unknown": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ana Maria", body["name"])
	assert.Equal(t, "ana@example.com", body["email"])

	rec, _ = do(t, h, http.MethodPut, "/users/"+strconv.Itoa(id), `{"name": ""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = do(t, h, http.MethodDelete, "/users/"+strconv.Itoa(id), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec, _ = do(t, h, http.MethodDelete, "/users/"+strconv.Itoa(id), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/users", `{"name": ""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/users", `{not json`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateSimpleUser(t *testing.T) {
	h := newHandler(t)

	rec, body := do(t, h, http.MethodPost, "/users/simple", `{"name": "Bruno"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	account := body["account"].(map[string]any)
	assert.True(t, number(t, account["balance"]).Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "0001", account["agency"])
	assert.Len(t, body["features"], 3)

	rec, _ = do(t, h, http.MethodPost, "/users/simple", `{"name": "Bruno", "initial_balance": -1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMovements(t *testing.T) {
	h := newHandler(t)

	rec, body := do(t, h, http.MethodPost, "/users/1/deposit", `{"amount": 100}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, number(t, body["new_balance"]).Equal(decimal.RequireFromString("724.12")))
	assert.Regexp(t, `^DEP-[0-9a-f-]{36}$`, body["transaction_id"])

	rec, body = do(t, h, http.MethodPost, "/users/1/withdraw", `{"amount": 1724.13}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient funds", body["detail"])

	rec, body = do(t, h, http.MethodPost, "/users/1/withdraw", `{"amount": 24.12}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, number(t, body["new_balance"]).Equal(decimal.NewFromInt(700)))
	assert.Regexp(t, `^WDR-`, body["transaction_id"])

	rec, body = do(t, h, http.MethodPost, "/users/1/transfer", `{"to_user_id": 2, "amount": 1000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, number(t, body["new_balance_from"]).Equal(decimal.NewFromInt(-300)))
	assert.True(t, number(t, body["new_balance_to"]).Equal(decimal.RequireFromString("2500.5")))
	assert.EqualValues(t, 2, body["to_user_id"])
	assert.Regexp(t, `^TRF-`, body["transaction_id"])

	rec, _ = do(t, h, http.MethodPost, "/users/1/transfer", `{"to_user_id": 1, "amount": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/users/1/transfer", `{"to_user_id": 77, "amount": 1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/users/99/deposit", `{"amount": 1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, body := range []string{`{"amount": 0}`, `{"amount": -5}`, `{}`} {
		rec, _ = do(t, h, http.MethodPost, "/users/1/deposit", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
	}
}

func TestCORS(t *testing.T) {
	h := newHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/users", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMovements_RejectSubScaleAmounts(t *testing.T) {
	h := newHandler(t)

	for _, path := range []string{"/users/1/deposit", "/users/1/withdraw"} {
		rec, body := do(t, h, http.MethodPost, path, `{"amount": 0.00005}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, path)
		assert.Equal(t, "amount has more than 4 decimal places", body["detail"])
	}

	rec, _ := do(t, h, http.MethodPost, "/users/1/transfer", `{"to_user_id": 2, "amount": 0.00005}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, body := do(t, h, http.MethodGet, "/users/1/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, number(t, body["balance"]).Equal(decimal.RequireFromString("624.12")))
	rec, body = do(t, h, http.MethodGet, "/users/2/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, number(t, body["balance"]).Equal(decimal.RequireFromString("1500.5")))

	rec, _ = do(t, h, http.MethodPost, "/users/1/deposit", `{"amount": 0.0001}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/users", `{
		"name": "Ana",
		"account": {"number": "03.000001-1", "agency": "0001", "balance": 10.00001},
		"card": {"number": "**** **** **** 3333"}
	}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/users/simple", `{"name": "Bruno", "initial_balance": 0.123456}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
