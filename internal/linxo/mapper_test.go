package linxo

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Veraticus/linxo/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(amount, currency string) map[string]any {
	return map[string]any{"amount": amount, "currency": currency}
}

func transactionRecord(overrides map[string]any) map[string]any {
	rec := map[string]any{
		"id":         "tx-1",
		"account_id": "acc-1",
		"amount":     money("-79.99", "EUR"),
		"type":       "DEBIT",
		"notes":      "monthly",
		"enrichments": map[string]any{
			"display_label": "FACTURE EDF",
			"date":          "2024-01-15T10:00:00Z",
		},
	}
	for k, v := range overrides {
		rec[k] = v
	}
	return rec
}

func accountRecord(overrides map[string]any) map[string]any {
	rec := map[string]any{
		"id":            "acc-1",
		"connection_id": "conn-1",
		"name":          "Compte courant",
		"iban":          "FR7630001007941234567890185",
		"status":        "ACTIVE",
		"balance":       map[string]any{"amount": money("1234.56", "EUR")},
	}
	for k, v := range overrides {
		rec[k] = v
	}
	return rec
}

func requireMalformed(t *testing.T, err error, kind, field string) {
	t.Helper()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRecord))
	var recErr *MalformedRecordError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, kind, recErr.Kind)
	assert.Equal(t, field, recErr.Field)
}

func TestDateOf(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  civil.Date
	}{
		{
			name:  "late evening UTC is next day in Paris winter",
			input: "2024-01-15T23:30:00Z",
			want:  civil.Date{Year: 2024, Month: time.January, Day: 16},
		},
		{
			name:  "Paris summer offset",
			input: "2024-06-20T14:30:00+02:00",
			want:  civil.Date{Year: 2024, Month: time.June, Day: 20},
		},
		{
			name:  "summer evening UTC crosses midnight",
			input: "2024-06-20T22:15:00Z",
			want:  civil.Date{Year: 2024, Month: time.June, Day: 21},
		},
		{
			name:  "offset far from Paris",
			input: "2024-03-01T20:00:00-08:00",
			want:  civil.Date{Year: 2024, Month: time.March, Day: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := time.Parse(time.RFC3339, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, DateOf(ts))
		})
	}
}

func TestMapTransaction(t *testing.T) {
	tx, err := MapTransaction(transactionRecord(nil))
	require.NoError(t, err)

	assert.Equal(t, "tx-1", tx.ID)
	assert.Equal(t, "acc-1", tx.AccountID)
	assert.Equal(t, model.Money{Amount: -7999, Currency: "EUR"}, tx.Amount)
	assert.Equal(t, "FACTURE EDF", tx.DisplayLabel())
	require.NotNil(t, tx.Notes)
	assert.Equal(t, "monthly", *tx.Notes)
	assert.Equal(t, model.TypeDebit, tx.Type)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.January, Day: 15}, tx.Date)
	rawID, ok := tx.Raw.String("id")
	assert.True(t, ok)
	assert.Equal(t, "tx-1", rawID)
}

func TestMapTransaction_DateOffsetFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  civil.Date
	}{
		{name: "extended offset", input: "2024-01-15T23:30:00+00:00", want: civil.Date{Year: 2024, Month: time.January, Day: 16}},
		{name: "basic offset", input: "2024-01-15T23:30:00+0000", want: civil.Date{Year: 2024, Month: time.January, Day: 16}},
		{name: "basic offset with fraction", input: "2024-01-15T22:30:00.250+0100", want: civil.Date{Year: 2024, Month: time.January, Day: 15}},
		{name: "basic negative offset", input: "2024-03-01T20:00:00-0800", want: civil.Date{Year: 2024, Month: time.March, Day: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := MapTransaction(transactionRecord(map[string]any{
				"enrichments": map[string]any{"display_label": "FACTURE EDF", "date": tt.input},
			}))
			require.NoError(t, err)
			assert.Equal(t, tt.want, tx.Date)
		})
	}
}

func TestMapTransaction_Optional(t *testing.T) {
	tests := []struct {
		overrides map[string]any
		check     func(t *testing.T, tx model.Transaction)
		name      string
	}{
		{
			name:      "missing type defaults to OTHER",
			overrides: map[string]any{"type": nil},
			check: func(t *testing.T, tx model.Transaction) {
				assert.Equal(t, model.TypeOther, tx.Type)
			},
		},
		{
			name:      "empty type defaults to OTHER",
			overrides: map[string]any{"type": ""},
			check: func(t *testing.T, tx model.Transaction) {
				assert.Equal(t, model.TypeOther, tx.Type)
			},
		},
		{
			name:      "unknown type is kept",
			overrides: map[string]any{"type": "CRYPTO_SWAP"},
			check: func(t *testing.T, tx model.Transaction) {
				assert.Equal(t, model.TransactionType("CRYPTO_SWAP"), tx.Type)
				assert.False(t, tx.Type.Known())
			},
		},
		{
			name:      "no notes",
			overrides: map[string]any{"notes": nil},
			check: func(t *testing.T, tx model.Transaction) {
				assert.Nil(t, tx.Notes)
			},
		},
		{
			name: "no display label",
			overrides: map[string]any{"enrichments": map[string]any{
				"date": "2024-01-15T10:00:00Z",
			}},
			check: func(t *testing.T, tx model.Transaction) {
				assert.Nil(t, tx.Label)
				assert.Empty(t, tx.DisplayLabel())
			},
		},
		{
			name:      "json.Number amount rounds half away from zero",
			overrides: map[string]any{"amount": map[string]any{"amount": json.Number("-50.555"), "currency": "EUR"}},
			check: func(t *testing.T, tx model.Transaction) {
				assert.Equal(t, int64(-5056), tx.Amount.Amount)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := transactionRecord(tt.overrides)
			for k, v := range tt.overrides {
				if v == nil {
					delete(rec, k)
				}
			}
			tx, err := MapTransaction(rec)
			require.NoError(t, err)
			tt.check(t, tx)
		})
	}
}

func TestMapTransaction_AllTypes(t *testing.T) {
	for _, typ := range model.TransactionTypes {
		t.Run(string(typ), func(t *testing.T) {
			tx, err := MapTransaction(transactionRecord(map[string]any{"type": string(typ)}))
			require.NoError(t, err)
			assert.Equal(t, typ, tx.Type)
			assert.True(t, tx.Type.Known())
		})
	}
}

func TestMapTransaction_Malformed(t *testing.T) {
	tests := []struct {
		overrides map[string]any
		name      string
		field     string
	}{
		{name: "missing id", overrides: map[string]any{"id": nil}, field: "id"},
		{name: "missing amount", overrides: map[string]any{"amount": nil}, field: "amount"},
		{name: "non-decimal amount", overrides: map[string]any{"amount": money("12,30", "EUR")}, field: "amount.amount"},
		{name: "missing currency", overrides: map[string]any{"amount": map[string]any{"amount": "1"}}, field: "amount.currency"},
		{name: "missing date", overrides: map[string]any{"enrichments": map[string]any{}}, field: "enrichments.date"},
		{name: "bad date", overrides: map[string]any{"enrichments": map[string]any{"date": "15/01/2024"}}, field: "enrichments.date"},
		{name: "enrichments not an object", overrides: map[string]any{"enrichments": "x"}, field: "enrichments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := transactionRecord(tt.overrides)
			for k, v := range tt.overrides {
				if v == nil {
					delete(rec, k)
				}
			}
			_, err := MapTransaction(rec)
			requireMalformed(t, err, "transaction", tt.field)
		})
	}
}

func TestMapAccount(t *testing.T) {
	account, err := MapAccount(accountRecord(nil))
	require.NoError(t, err)

	assert.Equal(t, "acc-1", account.ID)
	assert.Equal(t, "conn-1", account.ConnectionID)
	assert.Equal(t, "Compte courant", account.Name)
	require.NotNil(t, account.IBAN)
	assert.Equal(t, "FR7630001007941234567890185", *account.IBAN)
	assert.Equal(t, model.AccountActive, account.Status)
	assert.Equal(t, model.Money{Amount: 123456, Currency: "EUR"}, account.Balance)
}

func TestMapAccount_Variants(t *testing.T) {
	tests := []struct {
		overrides   map[string]any
		name        string
		wantName    string
		wantBalance model.Money
		wantIBAN    bool
	}{
		{
			name:        "name falls back to account number",
			overrides:   map[string]any{"name": nil, "account_number": "00012345"},
			wantName:    "00012345",
			wantIBAN:    true,
			wantBalance: model.Money{Amount: 123456, Currency: "EUR"},
		},
		{
			name:        "no iban",
			overrides:   map[string]any{"iban": nil},
			wantName:    "Compte courant",
			wantBalance: model.Money{Amount: 123456, Currency: "EUR"},
		},
		{
			name:        "flat balance object",
			overrides:   map[string]any{"balance": money("-500.25", "EUR")},
			wantName:    "Compte courant",
			wantIBAN:    true,
			wantBalance: model.Money{Amount: -50025, Currency: "EUR"},
		},
		{
			name:        "legacy scalar balance",
			overrides:   map[string]any{"balance": 100, "currency": "USD"},
			wantName:    "Compte courant",
			wantIBAN:    true,
			wantBalance: model.Money{Amount: 10000, Currency: "USD"},
		},
		{
			name:        "zero balance",
			overrides:   map[string]any{"balance": map[string]any{"amount": money("0", "EUR")}},
			wantName:    "Compte courant",
			wantIBAN:    true,
			wantBalance: model.Money{Amount: 0, Currency: "EUR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := accountRecord(tt.overrides)
			for k, v := range tt.overrides {
				if v == nil {
					delete(rec, k)
				}
			}
			account, err := MapAccount(rec)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, account.Name)
			assert.Equal(t, tt.wantIBAN, account.IBAN != nil)
			assert.Equal(t, tt.wantBalance, account.Balance)
		})
	}
}

func TestMapAccount_Malformed(t *testing.T) {
	tests := []struct {
		overrides map[string]any
		name      string
		field     string
	}{
		{name: "neither name nor number", overrides: map[string]any{"name": nil}, field: "name"},
		{name: "missing connection", overrides: map[string]any{"connection_id": nil}, field: "connection_id"},
		{name: "missing status", overrides: map[string]any{"status": nil}, field: "status"},
		{name: "missing balance", overrides: map[string]any{"balance": nil}, field: "balance"},
		{name: "legacy balance without currency", overrides: map[string]any{"balance": "12.00"}, field: "currency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := accountRecord(tt.overrides)
			for k, v := range tt.overrides {
				if v == nil {
					delete(rec, k)
				}
			}
			_, err := MapAccount(rec)
			requireMalformed(t, err, "account", tt.field)
		})
	}
}

func TestMapConnection(t *testing.T) {
	rec := map[string]any{
		"id":       "conn-1",
		"name":     "Crédit Agricole",
		"status":   "PARTIAL_SUCCESS",
		"logo_url": "https://static.linxo.com/logo.png",
		"extra":    map[string]any{"nested": true},
	}

	conn, err := MapConnection(rec)
	require.NoError(t, err)
	assert.Equal(t, "conn-1", conn.ID)
	assert.Equal(t, "Crédit Agricole", conn.Name)
	assert.Equal(t, model.ConnectionPartialSuccess, conn.Status)
	assert.Equal(t, "https://static.linxo.com/logo.png", conn.LogoURL)
	assert.True(t, conn.Raw.Has("extra"))

	delete(rec, "logo_url")
	_, err = MapConnection(rec)
	requireMalformed(t, err, "connection", "logo_url")
}

func TestMapUser(t *testing.T) {
	rec := map[string]any{
		"id":            json.Number("42"),
		"email":         "jane@example.com",
		"first_name":    "Jane",
		"creation_date": json.Number("1577880000"),
	}

	user, err := MapUser(rec)
	require.NoError(t, err)
	assert.Equal(t, "42", user.ID)
	assert.Equal(t, "jane@example.com", user.Email)
	require.NotNil(t, user.FirstName)
	assert.Nil(t, user.LastName)
	assert.Equal(t, time.Date(2020, time.January, 1, 12, 0, 0, 0, time.UTC), user.CreatedAt)

	rec["creation_date"] = "yesterday"
	_, err = MapUser(rec)
	requireMalformed(t, err, "user", "creation_date")
}
