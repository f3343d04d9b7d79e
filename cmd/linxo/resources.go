package main

import (
	"github.com/Veraticus/linxo/internal/cli"
	"github.com/Veraticus/linxo/internal/model"
	"github.com/spf13/cobra"
)

func meCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in Linxo user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := initClient()
			if err != nil {
				return err
			}
			user, err := client.GetUser(cmd.Context())
			if err != nil {
				return explain(err)
			}
			return cli.RenderUser(cmd.OutOrStdout(), user)
		},
	}
}

func connectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connections [ID]",
		Short: "List bank connections, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, _, err := initClient()
			if err != nil {
				return err
			}

			var connections []model.Connection
			if len(args) == 1 {
				conn, err := client.GetConnection(ctx, args[0])
				if err != nil {
					return explain(err)
				}
				connections = []model.Connection{conn}
			} else {
				connections, err = client.GetConnections(ctx)
				if err != nil {
					return explain(err)
				}
			}
			return cli.RenderConnections(cmd.OutOrStdout(), connections)
		},
	}
}

func accountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts [ID]",
		Short: "List bank accounts, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, _, err := initClient()
			if err != nil {
				return err
			}

			var accounts []model.Account
			if len(args) == 1 {
				account, err := client.GetAccount(ctx, args[0])
				if err != nil {
					return explain(err)
				}
				accounts = []model.Account{account}
			} else {
				accounts, err = client.GetAccounts(ctx)
				if err != nil {
					return explain(err)
				}
			}
			return cli.RenderAccounts(cmd.OutOrStdout(), accounts)
		},
	}
}
