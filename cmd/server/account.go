package main

import (
	"context"
	"fmt"
	"time"

	"paper-trader-go/internal/auth"
	"paper-trader-go/internal/config"
	"paper-trader-go/internal/database"
	"paper-trader-go/internal/ledger"
	"paper-trader-go/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Account administration",
}

var accountCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create an account with the configured starting balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return createAccount(args[0])
	},
}

func init() {
	accountCmd.AddCommand(accountCreateCmd)
}

func createAccount(username string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("could not open database: %w", err)
	}

	store := ledger.NewStore(db)
	acct := &models.Account{
		ID:       uuid.NewString(),
		Username: username,
		Balance:  cfg.Trading.StartingBalance,
	}
	if err := store.CreateAccount(context.Background(), acct); err != nil {
		return err
	}

	authMgr := auth.NewManager(cfg.Auth.Secret, time.Duration(cfg.Auth.TokenTTL)*time.Second)

	fmt.Printf("account id: %s\n", acct.ID)
	fmt.Printf("balance:    %.2f\n", acct.Balance)
	fmt.Printf("token:      %s\n", authMgr.Issue(acct.ID))
	return nil
}
