package linxo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Europe/Paris must resolve on hosts without a zoneinfo database

	"cloud.google.com/go/civil"
	"github.com/Veraticus/linxo/internal/model"
	"github.com/shopspring/decimal"
)

// ReferenceTimezone is the zone Linxo servers use to turn timestamps into
// calendar dates.
const ReferenceTimezone = "Europe/Paris"

// ReferenceLocation is the loaded ReferenceTimezone.
var ReferenceLocation = mustLoadLocation(ReferenceTimezone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load %s: %v", name, err))
	}
	return loc
}

// Record kinds used in MalformedRecordError.
const (
	kindAccount     = "account"
	kindConnection  = "connection"
	kindTransaction = "transaction"
	kindUser        = "user"
)

var errMissing = errors.New("missing")

// DateOf returns the calendar date of t in the reference timezone.
func DateOf(t time.Time) civil.Date {
	return civil.DateOf(t.In(ReferenceLocation))
}

// MapUser converts a /users/me record.
func MapUser(rec map[string]any) (model.User, error) {
	f := fields{kind: kindUser, rec: rec}

	id := f.requireString("id")
	email := f.requireString("email")
	first := f.optionalString("first_name")
	last := f.optionalString("last_name")
	created := f.requireEpoch("creation_date")
	if f.err != nil {
		return model.User{}, f.err
	}

	return model.User{
		ID:        id,
		Email:     email,
		FirstName: first,
		LastName:  last,
		CreatedAt: created,
		Raw:       model.NewRaw(rec),
	}, nil
}

// MapConnection converts one connection record.
func MapConnection(rec map[string]any) (model.Connection, error) {
	f := fields{kind: kindConnection, rec: rec}

	id := f.requireString("id")
	name := f.requireString("name")
	status := f.requireString("status")
	logo := f.requireString("logo_url")
	if f.err != nil {
		return model.Connection{}, f.err
	}

	return model.Connection{
		ID:      id,
		Name:    name,
		Status:  model.ConnectionStatus(status),
		LogoURL: logo,
		Raw:     model.NewRaw(rec),
	}, nil
}

// MapAccount converts one account record. The name falls back to the
// account number, and the balance is rounded to minor units.
func MapAccount(rec map[string]any) (model.Account, error) {
	f := fields{kind: kindAccount, rec: rec}

	id := f.requireString("id")
	connectionID := f.requireString("connection_id")
	name := f.optionalString("name")
	if name == nil && f.err == nil {
		number := f.optionalString("account_number")
		if number == nil && f.err == nil {
			f.fail("name", fmt.Errorf("%w: neither name nor account_number is set", errMissing))
		}
		name = number
	}
	iban := f.optionalString("iban")
	status := f.requireString("status")
	balance := f.accountBalance()
	if f.err != nil {
		return model.Account{}, f.err
	}

	return model.Account{
		ID:           id,
		ConnectionID: connectionID,
		Name:         *name,
		IBAN:         iban,
		Status:       model.AccountStatus(status),
		Balance:      balance,
		Raw:          model.NewRaw(rec),
	}, nil
}

// MapTransaction converts one transaction record. The calendar date is taken
// in the reference timezone, whatever offset the timestamp carries.
func MapTransaction(rec map[string]any) (model.Transaction, error) {
	f := fields{kind: kindTransaction, rec: rec}

	id := f.requireString("id")
	accountID := f.requireString("account_id")
	amount := f.money("amount")
	label := f.optionalString("enrichments", "display_label")
	notes := f.optionalString("notes")
	txType := model.TypeOther
	if t := f.optionalString("type"); t != nil && *t != "" {
		txType = model.TransactionType(*t)
	}
	posted := f.requireTime("enrichments", "date")
	if f.err != nil {
		return model.Transaction{}, f.err
	}

	return model.Transaction{
		ID:        id,
		AccountID: accountID,
		Amount:    amount,
		Label:     label,
		Notes:     notes,
		Type:      txType,
		Date:      DateOf(posted),
		Raw:       model.NewRaw(rec),
	}, nil
}

// fields reads typed values out of a raw record, keeping the first failure.
type fields struct {
	err  error
	rec  map[string]any
	kind string
}

func (f *fields) fail(field string, err error) {
	if f.err == nil {
		f.err = &MalformedRecordError{Kind: f.kind, Field: field, Err: err}
	}
}

// lookup walks a path of nested objects. A JSON null counts as absent.
func (f *fields) lookup(path ...string) (any, bool) {
	var cur any = f.rec
	for i, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			if i > 0 && cur != nil {
				f.fail(strings.Join(path[:i], "."), fmt.Errorf("expected object, got %T", cur))
			}
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func (f *fields) requireString(path ...string) string {
	if f.err != nil {
		return ""
	}
	v, ok := f.lookup(path...)
	if !ok {
		f.fail(strings.Join(path, "."), errMissing)
		return ""
	}
	s, ok := scalarString(v)
	if !ok {
		f.fail(strings.Join(path, "."), fmt.Errorf("expected string, got %T", v))
		return ""
	}
	return s
}

func (f *fields) optionalString(path ...string) *string {
	if f.err != nil {
		return nil
	}
	v, ok := f.lookup(path...)
	if !ok {
		return nil
	}
	s, ok := scalarString(v)
	if !ok {
		f.fail(strings.Join(path, "."), fmt.Errorf("expected string, got %T", v))
		return nil
	}
	return &s
}

func (f *fields) requireEpoch(path ...string) time.Time {
	if f.err != nil {
		return time.Time{}
	}
	name := strings.Join(path, ".")
	v, ok := f.lookup(path...)
	if !ok {
		f.fail(name, errMissing)
		return time.Time{}
	}
	secs, err := epochSeconds(v)
	if err != nil {
		f.fail(name, err)
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}

func (f *fields) requireTime(path ...string) time.Time {
	s := f.requireString(path...)
	if f.err != nil {
		return time.Time{}
	}
	t, err := parseInstant(s)
	if err != nil {
		f.fail(strings.Join(path, "."), fmt.Errorf("invalid timestamp %q: %w", s, err))
		return time.Time{}
	}
	return t
}

// iso8601BasicOffset is RFC 3339 with a basic-format zone offset (+0000).
const iso8601BasicOffset = "2006-01-02T15:04:05.999999999Z0700"

// parseInstant parses an ISO-8601 instant with an extended (+01:00) or
// basic (+0100) offset.
func parseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	if t, basicErr := time.Parse(iso8601BasicOffset, s); basicErr == nil {
		return t, nil
	}
	return time.Time{}, err
}

// money reads an {"amount": "12.34", "currency": "EUR"} object.
func (f *fields) money(path ...string) model.Money {
	if f.err != nil {
		return model.Money{}
	}
	v, ok := f.lookup(path...)
	if !ok {
		f.fail(strings.Join(path, "."), errMissing)
		return model.Money{}
	}
	if _, isObj := v.(map[string]any); !isObj {
		f.fail(strings.Join(path, "."), fmt.Errorf("expected object, got %T", v))
		return model.Money{}
	}
	amount := f.minorUnits(child(path, "amount")...)
	currency := f.requireString(child(path, "currency")...)
	return model.Money{Amount: amount, Currency: currency}
}

// accountBalance accepts the current nested shape (balance.amount.{amount,currency}),
// a flat money object (balance.{amount,currency}), and the legacy scalar balance
// with a top-level currency.
func (f *fields) accountBalance() model.Money {
	if f.err != nil {
		return model.Money{}
	}
	v, ok := f.lookup("balance")
	if !ok {
		f.fail("balance", errMissing)
		return model.Money{}
	}
	obj, isObj := v.(map[string]any)
	if !isObj {
		amount := f.minorUnits("balance")
		currency := f.requireString("currency")
		return model.Money{Amount: amount, Currency: currency}
	}
	if _, nested := obj["amount"].(map[string]any); nested {
		return f.money("balance", "amount")
	}
	return f.money("balance")
}

func (f *fields) minorUnits(path ...string) int64 {
	if f.err != nil {
		return 0
	}
	name := strings.Join(path, ".")
	v, ok := f.lookup(path...)
	if !ok {
		f.fail(name, errMissing)
		return 0
	}
	var (
		minor int64
		err   error
	)
	switch val := v.(type) {
	case string:
		minor, err = model.ParseMinorUnits(val)
	case json.Number:
		minor, err = model.ParseMinorUnits(val.String())
	case float64:
		minor, err = model.MinorUnitsFromDecimal(decimal.NewFromFloat(val))
	case int:
		minor, err = model.MinorUnitsFromDecimal(decimal.NewFromInt(int64(val)))
	case int64:
		minor, err = model.MinorUnitsFromDecimal(decimal.NewFromInt(val))
	default:
		err = fmt.Errorf("expected decimal, got %T", v)
	}
	if err != nil {
		f.fail(name, err)
		return 0
	}
	return minor
}

func child(path []string, key string) []string {
	out := make([]string, 0, len(path)+1)
	return append(append(out, path...), key)
}

// scalarString accepts strings and numbers, since ids are sometimes sent as
// JSON numbers.
func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	default:
		return "", false
	}
}

func epochSeconds(v any) (int64, error) {
	switch val := v.(type) {
	case json.Number:
		return val.Int64()
	case float64:
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("epoch seconds %v is not an integer", val)
		}
		return int64(val), nil
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case string:
		return strconv.ParseInt(val, 10, 64)
	default:
		return 0, fmt.Errorf("expected epoch seconds, got %T", v)
	}
}
