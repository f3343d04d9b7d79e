package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/linxo/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// OutputFormat selects how listings are written.
type OutputFormat string

// Output formats.
const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputOFX   OutputFormat = "ofx"
)

// ParseOutputFormat validates a --format value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputTable, OutputJSON, OutputOFX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q: must be table, json or ofx", s)
	}
}

const columnGap = "  "

// Table is a set of rows rendered with aligned columns.
type Table struct {
	RightAlign map[int]bool
	Headers    []string
	Rows       [][]string
}

// Render writes the table to w.
func (t Table) Render(w io.Writer) error {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder
	b.WriteString(t.line(t.Headers, widths, TableHeaderStyle))
	for _, row := range t.Rows {
		b.WriteString(t.line(row, widths, lipgloss.NewStyle()))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (t Table) line(cells []string, widths []int, style lipgloss.Style) string {
	parts := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		if t.RightAlign[i] {
			cell = pad + cell
		} else {
			cell += pad
		}
		parts[i] = style.Render(cell)
	}
	return strings.TrimRight(strings.Join(parts, columnGap), " ") + "\n"
}

// RenderUser writes the profile of the token owner.
func RenderUser(w io.Writer, user model.User) error {
	lines := []string{
		fmt.Sprintf("ID:      %s", user.ID),
		fmt.Sprintf("Email:   %s", user.Email),
	}
	if name := user.FullName(); name != "" {
		lines = append(lines, fmt.Sprintf("Name:    %s", name))
	}
	if !user.CreatedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("Created: %s", user.CreatedAt.Format("2006-01-02")))
	}
	_, err := fmt.Fprintln(w, RenderBox("Linxo user", strings.Join(lines, "\n")))
	return err
}

// RenderConnections writes one row per connection.
func RenderConnections(w io.Writer, connections []model.Connection) error {
	table := Table{Headers: []string{"ID", "NAME", "STATUS"}}
	for _, c := range connections {
		table.Rows = append(table.Rows, []string{c.ID, c.Name, string(c.Status)})
	}
	return table.Render(w)
}

// RenderAccounts writes one row per account.
func RenderAccounts(w io.Writer, accounts []model.Account) error {
	table := Table{
		Headers:    []string{"ID", "CONNECTION", "NAME", "IBAN", "STATUS", "BALANCE"},
		RightAlign: map[int]bool{5: true},
	}
	for _, a := range accounts {
		iban := "-"
		if a.IBAN != nil {
			iban = *a.IBAN
		}
		table.Rows = append(table.Rows, []string{
			a.ID, a.ConnectionID, a.Name, iban, string(a.Status), FormatAmount(a.Balance),
		})
	}
	return table.Render(w)
}

// FormatAmount renders money, colored by sign.
func FormatAmount(m model.Money) string {
	if m.IsNegative() {
		return DebitStyle.Render(m.String())
	}
	return CreditStyle.Render(m.String())
}

// TransactionTableWriter buffers transactions and renders them as a table on Close.
type TransactionTableWriter struct {
	w     io.Writer
	table Table
}

// NewTransactionTableWriter creates a table writer.
func NewTransactionTableWriter(w io.Writer) *TransactionTableWriter {
	return &TransactionTableWriter{
		w: w,
		table: Table{
			Headers:    []string{"DATE", "ID", "TYPE", "LABEL", "AMOUNT"},
			RightAlign: map[int]bool{4: true},
		},
	}
}

// Write adds a row.
func (t *TransactionTableWriter) Write(tx model.Transaction) error {
	t.table.Rows = append(t.table.Rows, []string{
		tx.Date.String(), tx.ID, string(tx.Type), tx.DisplayLabel(), FormatAmount(tx.Amount),
	})
	return nil
}

// Close renders the table.
func (t *TransactionTableWriter) Close() error {
	if len(t.table.Rows) == 0 {
		_, err := fmt.Fprintln(t.w, SubtleStyle.Render("No transactions."))
		return err
	}
	return t.table.Render(t.w)
}

// TransactionRecord is the JSON form of a transaction.
type TransactionRecord struct {
	Label     *string   `json:"label"`
	Notes     *string   `json:"notes"`
	Raw       model.Raw `json:"raw"`
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Date      string    `json:"date"`
	Type      string    `json:"type"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
}

// NewTransactionRecord converts a transaction for JSON output.
func NewTransactionRecord(tx model.Transaction) TransactionRecord {
	return TransactionRecord{
		ID:        tx.ID,
		AccountID: tx.AccountID,
		Date:      tx.Date.String(),
		Type:      string(tx.Type),
		Amount:    tx.Amount.Decimal().StringFixed(2),
		Currency:  tx.Amount.Currency,
		Label:     tx.Label,
		Notes:     tx.Notes,
		Raw:       tx.Raw,
	}
}

// TransactionJSONWriter streams transactions as a JSON array.
type TransactionJSONWriter struct {
	w     io.Writer
	count int
}

// NewTransactionJSONWriter creates a JSON writer.
func NewTransactionJSONWriter(w io.Writer) *TransactionJSONWriter {
	return &TransactionJSONWriter{w: w}
}

// Write appends one element.
func (j *TransactionJSONWriter) Write(tx model.Transaction) error {
	data, err := json.MarshalIndent(NewTransactionRecord(tx), "  ", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode transaction %s: %w", tx.ID, err)
	}
	sep := ",\n  "
	if j.count == 0 {
		sep = "[\n  "
	}
	j.count++
	_, err = fmt.Fprintf(j.w, "%s%s", sep, data)
	return err
}

// Close terminates the array.
func (j *TransactionJSONWriter) Close() error {
	if j.count == 0 {
		_, err := io.WriteString(j.w, "[]\n")
		return err
	}
	_, err := io.WriteString(j.w, "\n]\n")
	return err
}
