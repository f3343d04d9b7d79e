package main

import (
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/civil"
	"github.com/Veraticus/linxo/internal/cli"
	"github.com/Veraticus/linxo/internal/common"
	"github.com/Veraticus/linxo/internal/config"
	"github.com/Veraticus/linxo/internal/linxo"
	"github.com/Veraticus/linxo/internal/model"
	"github.com/Veraticus/linxo/internal/ofx"
	"github.com/spf13/cobra"
)

// transactionSink receives the transaction stream of one account.
type transactionSink interface {
	Write(tx model.Transaction) error
	Close() error
}

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions ACCOUNT_ID",
		Short: "List or export the transactions of an account",
		Long: `Fetch every transaction of an account, page by page, and print them as a
table, a JSON array or an OFX bank statement.

Dates are calendar days in Europe/Paris; both bounds are inclusive.`,
		Args: cobra.ExactArgs(1),
		RunE: runTransactions,
	}

	cmd.Flags().StringP("start", "s", "", "First day to include (format: 2006-01-02)")
	cmd.Flags().StringP("end", "e", "", "Last day to include (format: 2006-01-02)")
	cmd.Flags().StringP("format", "f", string(cli.OutputTable), "Output format (table, json, ofx)")
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of standard output")

	return cmd
}

func runTransactions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	accountID := args[0]

	start, err := dateFlag(cmd, "start")
	if err != nil {
		return err
	}
	end, err := dateFlag(cmd, "end")
	if err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(*start) {
		return common.NewUserError(fmt.Sprintf("--end %s is before --start %s", end, start), nil)
	}

	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := cli.ParseOutputFormat(formatFlag)
	if err != nil {
		return common.NewUserError(err.Error(), nil)
	}

	client, _, err := initClient()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(config.ExpandPath(path)) // #nosec G304
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				slog.Warn("Failed to close output file", "path", path, "error", closeErr)
			}
		}()
		out = f
	}

	var sink transactionSink
	switch format {
	case cli.OutputJSON:
		sink = cli.NewTransactionJSONWriter(out)
	case cli.OutputOFX:
		account, err := client.GetAccount(ctx, accountID)
		if err != nil {
			return explain(err)
		}
		sink = ofx.NewWriter(out, account, ofx.WithPeriod(start, end))
	default:
		sink = cli.NewTransactionTableWriter(out)
	}

	count, err := streamTransactions(cmd, client.Transactions(accountID, start, end), sink)
	if err != nil {
		return explain(err)
	}

	slog.Debug("Exported transactions", "account_id", accountID, "count", count, "format", format)
	if format != cli.OutputTable {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Exported %d transactions", count)))
	}
	return nil
}

func streamTransactions(cmd *cobra.Command, it *linxo.TransactionIterator, sink transactionSink) (int64, error) {
	progress := cli.NewFetchProgress(cmd.ErrOrStderr(), "Fetching transactions")

	err := it.ForEach(cmd.Context(), func(_ int, tx model.Transaction) error {
		if err := sink.Write(tx); err != nil {
			return err
		}
		progress.Add(1)
		return nil
	})
	progress.Finish()
	if err != nil {
		return progress.Count(), err
	}

	return progress.Count(), sink.Close()
}

func dateFlag(cmd *cobra.Command, name string) (*civil.Date, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(value)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("invalid --%s date %q, expected YYYY-MM-DD", name, value), err)
	}
	return &d, nil
}
