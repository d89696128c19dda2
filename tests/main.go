// Seeds a small demo catalog so the API can be driven by hand: a salon with
// three staff members, four services and one schedule exception. Wipes the
// catalog collections first; never point it at production data.
package main

import (
	"context"
	"log"
	"time"

	"slotify/config"
	"slotify/database"
	"slotify/models"

	"go.mongodb.org/mongo-driver/bson"
)

func main() {
	config.LoadConfig()
	database.InitDB()
	db := database.DB()
	serviceColl := db.Collection("services")
	staffColl := db.Collection("staff")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Clear the existing catalog.
	if _, err := serviceColl.DeleteMany(ctx, bson.M{}); err != nil {
		log.Fatalf("Failed to clear services collection: %v", err)
	}
	if _, err := staffColl.DeleteMany(ctx, bson.M{}); err != nil {
		log.Fatalf("Failed to clear staff collection: %v", err)
	}

	now := time.Now().UTC()

	services := []interface{}{
		models.Service{
			ID: "svc-cut", Name: "Haircut", DurationMinutes: 30,
			PriceMinor: 3000, Currency: "USD", Skills: []string{"cutting"},
			Visible: true, CreatedAt: now, UpdatedAt: now,
		},
		models.Service{
			ID: "svc-beard", Name: "Beard Trim", DurationMinutes: 15,
			PriceMinor: 1500, Currency: "USD", Skills: []string{"cutting"},
			Visible: true, CreatedAt: now, UpdatedAt: now,
		},
		models.Service{
			ID: "svc-color", Name: "Full Color", DurationMinutes: 90,
			PriceMinor: 12000, Currency: "USD", Skills: []string{"coloring"},
			Visible: true, CreatedAt: now, UpdatedAt: now,
		},
		models.Service{
			ID: "svc-keratin", Name: "Keratin Treatment", DurationMinutes: 120,
			PriceMinor: 20000, Currency: "USD", Skills: []string{"coloring", "treatment"},
			Visible: true, CreatedAt: now, UpdatedAt: now,
		},
	}

	// Tue-Sat 09:00-17:00 with a 12:00-13:00 lunch break.
	var windows []models.WorkWindow
	var breaks []models.WorkWindow
	for wd := 2; wd <= 6; wd++ {
		windows = append(windows, models.WorkWindow{Weekday: wd, StartMinute: 9 * 60, EndMinute: 17 * 60})
		breaks = append(breaks, models.WorkWindow{Weekday: wd, StartMinute: 12 * 60, EndMinute: 13 * 60})
	}

	// Paul takes a half day a week from now.
	halfDay := now.AddDate(0, 0, 7).Format("2006-01-02")

	staff := []interface{}{
		models.Staff{
			ID: "staff-paul", DisplayName: "Paul", Skills: []string{"cutting", "coloring"},
			Windows: windows, Breaks: breaks,
			Exceptions: []models.ScheduleException{{
				Date:    halfDay,
				Windows: []models.ClockSpan{{StartMinute: 9 * 60, EndMinute: 13 * 60}},
				Reason:  "training",
			}},
			Speed:  map[string]float64{"svc-color": 0.8}, // senior colorist, 20% faster
			Active: true, CreatedAt: now, UpdatedAt: now,
		},
		models.Staff{
			ID: "staff-mia", DisplayName: "Mia", Skills: []string{"cutting"},
			Windows: windows, Breaks: breaks,
			Active:  true, CreatedAt: now, UpdatedAt: now,
		},
		models.Staff{
			ID: "staff-noah", DisplayName: "Noah", Skills: []string{"coloring", "treatment"},
			Windows: windows, Breaks: breaks,
			Speed:  map[string]float64{"svc-keratin": 1.25}, // still learning the long treatment
			Active: true, CreatedAt: now, UpdatedAt: now,
		},
	}

	if _, err := serviceColl.InsertMany(ctx, services); err != nil {
		log.Fatalf("Failed to seed services: %v", err)
	}
	if _, err := staffColl.InsertMany(ctx, staff); err != nil {
		log.Fatalf("Failed to seed staff: %v", err)
	}

	log.Printf("Seeded %d services and %d staff members (Paul is off after 13:00 on %s)",
		len(services), len(staff), halfDay)
}
