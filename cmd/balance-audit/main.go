package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/config"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/models"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/utils"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/workflow"
	"github.com/sirupsen/logrus"
)

// balance-audit recomputes account balances from posting history and reports
// any drift against the stored balance. With --fix the stored balance is
// overwritten with the recomputed value.
func main() {
	userID := flag.String("user-id", "", "Required: user id (uuid)")
	accountID := flag.Int("account-id", 0, "Optional: audit a single account")
	fix := flag.Bool("fix", false, "Overwrite drifted balances with the recomputed value")
	flag.Parse()

	if strings.TrimSpace(*userID) == "" {
		fmt.Fprintln(os.Stderr, "--user-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	// fixing a balance must also drop its cache entry
	config.ConnectRedisWithRetry()
	logger := logrus.New()

	ctx := utils.SetUserIdInContext(context.Background(), *userID)

	var accounts []*models.Account
	if *accountID > 0 {
		account, err := utils.FetchModel[models.Account](ctx, *userID, *accountID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "account %d: %v\n", *accountID, err)
			os.Exit(1)
		}
		accounts = append(accounts, account)
	} else {
		err := db.WithContext(ctx).
			Where("user_id = ?", *userID).
			Where("is_deleted = ?", false).
			Order("id").
			Find(&accounts).Error
		if err != nil {
			fmt.Fprintf(os.Stderr, "list accounts: %v\n", err)
			os.Exit(1)
		}
	}

	drifted := 0
	for _, account := range accounts {
		expected, err := workflow.AuditAccountBalance(ctx, account.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "audit account %d: %v\n", account.ID, err)
			os.Exit(1)
		}
		if account.Balance.Equal(expected) {
			fmt.Printf("OK    account=%d %-40s balance=%s\n", account.ID, account.Name, account.Balance)
			continue
		}
		drifted++
		fmt.Printf("DRIFT account=%d %-40s stored=%s expected=%s\n", account.ID, account.Name, account.Balance, expected)
		if *fix {
			if _, _, err := workflow.ReconcileAccountBalance(ctx, logger, account.ID); err != nil {
				fmt.Fprintf(os.Stderr, "reconcile account %d: %v\n", account.ID, err)
				os.Exit(1)
			}
			fmt.Printf("FIXED account=%d balance=%s\n", account.ID, expected)
		}
	}

	fmt.Printf("audited %d accounts, %d drifted\n", len(accounts), drifted)
	if drifted > 0 && !*fix {
		os.Exit(2)
	}
}
