package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a sample form and payment feed for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			for _, table := range []string{"action_log", "entry_notes", "entries", "feeds", "forms"} {
				if _, err := db.Exec("DELETE FROM " + table); err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		formTitle := "Donation Form"
		var formID int64
		err = db.QueryRow("SELECT id FROM forms WHERE title = $1", formTitle).Scan(&formID)
		if err != nil {
			fields := `[
				{"id": "1", "type": "product", "label": "Donation"},
				{"id": "2", "type": "email", "label": "Email"},
				{"id": "3", "type": "text", "label": "First Name"},
				{"id": "4", "type": "text", "label": "Last Name"},
				{"id": "5", "type": "text", "label": "Street Address"},
				{"id": "6", "type": "text", "label": "Address Line 2"},
				{"id": "7", "type": "text", "label": "City"},
				{"id": "8", "type": "text", "label": "State"},
				{"id": "9", "type": "text", "label": "Postal Code"},
				{"id": "10", "type": "text", "label": "Country"}
			]`
			err = db.QueryRow(
				"INSERT INTO forms (title, fields, created_at, updated_at) VALUES ($1, $2, now(), now()) RETURNING id",
				formTitle, fields,
			).Scan(&formID)
			if err != nil {
				log.Fatalf("failed to insert form: %v", err)
			}
			fmt.Println("Seeded form:", formTitle)
		} else {
			fmt.Println("form already exists:", formTitle)
		}

		var feedID int64
		err = db.QueryRow("SELECT id FROM feeds WHERE form_id = $1 AND active = true", formID).Scan(&feedID)
		if err != nil {
			billingFields := `{
				"first_name": "3",
				"last_name": "4",
				"address": "5",
				"address2": "6",
				"city": "7",
				"state": "8",
				"zip": "9",
				"country": "10",
				"email": "2"
			}`
			_, err = db.Exec(
				`INSERT INTO feeds (form_id, name, active, transaction_type, payment_amount_field, delayed_feeds, billing_fields)
				 VALUES ($1, $2, true, 'product', 'form_total', false, $3)`,
				formID, "Mollie Feed", billingFields,
			)
			if err != nil {
				log.Fatalf("failed to insert feed: %v", err)
			}
			fmt.Println("Seeded payment feed for form:", formTitle)
		} else {
			fmt.Println("active feed already exists for form:", formTitle)
		}
	},
}
