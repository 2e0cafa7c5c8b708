// seed-dev provisions a local development dataset: one user with two
// properties, their default account sets, a tenant per property and a few
// months of rent payments.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/config"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/models"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/utils"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/workflow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func main() {
	userID := flag.String("user-id", "", "Optional: seed under an existing user id (default: new uuid)")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	config.ConnectRedisWithRetry()

	seedUser := strings.TrimSpace(*userID)
	if seedUser == "" {
		seedUser = uuid.NewString()
	}
	ctx := utils.SetUserIdInContext(context.Background(), seedUser)
	ctx = utils.SetUsernameInContext(ctx, "Seed")

	// drop whatever an earlier run cached, so the fresh rows are visible
	if err := config.ClearRedis(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "clear redis: %v\n", err)
		os.Exit(1)
	}

	properties := []models.NewProperty{
		{Name: "Maple Street Duplex", Address: "12 Maple St", Type: models.PropertyTypeResidential, NumberOfUnits: 2, Rent: decimal.NewFromInt(1200)},
		{Name: "Harbor View Offices", Address: "40 Harbor Rd", Type: models.PropertyTypeCommercial, NumberOfUnits: 1, Rent: decimal.NewFromInt(3500)},
	}
	tenants := []string{"Alice Nguyen", "Harbor Legal LLP"}

	for i := range properties {
		property, err := models.CreateProperty(ctx, &properties[i])
		if err != nil {
			fmt.Fprintf(os.Stderr, "create property %q: %v\n", properties[i].Name, err)
			os.Exit(1)
		}
		tenant, err := models.CreateEntity(ctx, &models.NewEntity{
			Name:       tenants[i],
			PropertyId: &property.ID,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "create tenant %q: %v\n", tenants[i], err)
			os.Exit(1)
		}

		// three months of rent: two paid, the current one due
		now := time.Now().UTC()
		for back := 2; back >= 0; back-- {
			due := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -back, 0)
			status := models.RentStatusPaid
			if back == 0 {
				status = models.RentStatusDue
			}
			_, err := workflow.CreateRentPayment(ctx, &models.NewRentPayment{
				PropertyId: property.ID,
				EntityId:   &tenant.ID,
				Amount:     property.Rent,
				Date:       due,
				Status:     status,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "create rent payment for %q: %v\n", property.Name, err)
				os.Exit(1)
			}
		}
		fmt.Printf("seeded property %q (id=%d) with tenant %q\n", property.Name, property.ID, tenant.Name)
	}

	// a closed standalone bank account, for exercising inactive-account UI
	oldChecking, err := models.CreateAccount(ctx, &models.NewAccount{
		Name:           "Old Checking",
		Type:           models.AccountTypeBank,
		InitialBalance: decimal.NewFromInt(250),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create account: %v\n", err)
		os.Exit(1)
	}
	if _, err := models.MarkAccountActive(ctx, oldChecking.ID, false); err != nil {
		fmt.Fprintf(os.Stderr, "deactivate account: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded user %s\n", seedUser)
}
