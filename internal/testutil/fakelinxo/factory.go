package fakelinxo

import (
	"maps"
	"time"
	_ "time/tzdata" // Europe/Paris is needed for default transaction dates
)

var paris = mustLoadLocation("Europe/Paris")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Factory stacks realistic records on a Server. Each Mock method merges the
// overrides over a default record, stacks it and returns what was stacked.
type Factory struct {
	server *Server
	now    func() time.Time
}

// NewFactory creates a factory for srv.
func NewFactory(srv *Server) *Factory {
	return &Factory{server: srv, now: time.Now}
}

// WithClock fixes the time used for default transaction dates.
func (f *Factory) WithClock(now func() time.Time) *Factory {
	f.now = now
	return f
}

// MockMe stacks the /users/me record.
func (f *Factory) MockMe(overrides map[string]any) map[string]any {
	rec := merge(map[string]any{
		"id":            "1",
		"email":         "john.doe@gmail.com",
		"first_name":    "John",
		"last_name":     "Doe",
		"creation_date": time.Date(2020, time.January, 1, 12, 0, 0, 0, time.UTC).Unix(),
	}, overrides)
	f.server.StackMe(rec)
	return rec
}

// MockConnection stacks a connection record.
func (f *Factory) MockConnection(overrides map[string]any) map[string]any {
	rec := merge(map[string]any{
		"id":       "1",
		"name":     "Banque Populaire",
		"status":   "SUCCESS",
		"logo_url": "https://static.linxo.com/logos/banque-populaire.png",
	}, overrides)
	f.server.StackConnection(rec)
	return rec
}

// MockAccount stacks an account record.
func (f *Factory) MockAccount(overrides map[string]any) map[string]any {
	rec := merge(map[string]any{
		"id":            "1",
		"connection_id": "1",
		"name":          "My account",
		"iban":          "FR0512739000308643578317D43",
		"status":        "ACTIVE",
		"balance": map[string]any{
			"amount": Amount("100.00", "EUR"),
		},
	}, overrides)
	f.server.StackAccount(rec)
	return rec
}

// MockTransaction stacks a transaction record dated two days ago, at
// midnight in Paris.
func (f *Factory) MockTransaction(overrides map[string]any) map[string]any {
	y, m, d := f.now().In(paris).AddDate(0, 0, -2).Date()
	rec := merge(map[string]any{
		"id":         "1",
		"account_id": "1",
		"amount":     Amount("100.00", "EUR"),
		"type":       "CREDIT",
		"enrichments": map[string]any{
			"display_label": "FACTURE EDF",
			"date":          time.Date(y, m, d, 0, 0, 0, 0, paris).Format(time.RFC3339),
		},
	}, overrides)
	f.server.StackTransaction(rec)
	return rec
}

// Amount builds a money object.
func Amount(amount, currency string) map[string]any {
	return map[string]any{"amount": amount, "currency": currency}
}

// Enrichments builds the enrichments object of a transaction.
func Enrichments(label string, date time.Time) map[string]any {
	return map[string]any{"display_label": label, "date": date.Format(time.RFC3339)}
}

// merge copies overrides over defaults. A nil override value deletes the key.
func merge(defaults, overrides map[string]any) map[string]any {
	maps.Copy(defaults, overrides)
	for k, v := range overrides {
		if v == nil {
			delete(defaults, k)
		}
	}
	return defaults
}
