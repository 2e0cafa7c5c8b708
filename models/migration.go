package models

import (
	"log"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Account{},
		&Entity{},
		&Property{},
		&Transaction{},
		&Journal{}, &JournalItem{},
		&RentPayment{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
