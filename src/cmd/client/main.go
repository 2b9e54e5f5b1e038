package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"eventora/src/internal/adaptors/backend"
	"eventora/src/internal/authz"
	"eventora/src/internal/config"
	"eventora/src/internal/core"
	"eventora/src/internal/session"
	"eventora/src/internal/stubserver"
	eventservice "eventora/src/internal/usecase/event"
	registrationservice "eventora/src/internal/usecase/registration"
	"eventora/src/pkg/apperror"
)

// main wires the client core against a backend and walks one browse and
// register round. With no API_BASE_URL configured it runs against the
// in-process stub backend so the whole flow is observable locally.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Loadconfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	fmt.Println("Configuration loaded successfully")

	baseURL := cfg.API_BASE_URL
	token := cfg.SESSION_TOKEN
	if baseURL == "" {
		stub := stubserver.New()
		seedEvents(stub)

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatalf("Failed to start stub backend: %v", err)
		}
		server := &http.Server{Handler: stub.Router()}
		go func() {
			if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Stub backend failed: %v", err)
			}
		}()
		defer server.Close()
		baseURL = "http://" + listener.Addr().String()

		token, err = stubserver.MintToken("demo-user", "Demo User", "demo@example.com", "5550100", authz.RolePublicUser)
		if err != nil {
			log.Fatalf("Failed to mint demo token: %v", err)
		}
		fmt.Printf("No API_BASE_URL set, using stub backend at %s\n", baseURL)
	}

	sess, err := session.New(token, nil)
	if err != nil {
		log.Fatalf("Failed to initialize session: %v", err)
	}
	if !sess.IsAuthenticated() {
		log.Fatal("No valid session token; set SESSION_TOKEN")
	}

	client := backend.NewClient(baseURL, cfg.RequestTimeout(), sess)
	events := eventservice.NewService(client, sess, cfg.PAGE_SIZE)
	registrations := registrationservice.NewService(client, client, sess)

	ctx := context.Background()

	if err := events.Refresh(ctx); err != nil {
		log.Fatalf("Failed to load events: %v", err)
	}
	snap := events.Snapshot()
	fmt.Printf("Page %d of %d (%d events)\n", snap.Page, snap.TotalPages, len(snap.Items))
	for _, view := range snap.Items {
		open := "closed"
		if view.RegistrationOpen {
			open = "open"
		}
		fmt.Printf("  %-28s %s %s  %s  %d/%d registered (%s)\n",
			view.Title, view.EventDate.Format("2006-01-02"), view.EventTime,
			view.Status, view.Availability.RegisteredCount, view.Capacity, open)
	}

	target := pickOpenEvent(snap.Items)
	if target == nil {
		fmt.Println("No open event to register for")
		return
	}

	claims, err := sess.Claims()
	if err != nil {
		log.Fatalf("Failed to read claims: %v", err)
	}
	created, err := registrations.Register(ctx, target.ID, core.Registration{
		RegisteredUserName: claims.Name,
		Email:              claims.Email,
		PhoneNumber:        claims.PhoneNumber,
	})
	if err != nil {
		log.Fatalf("Registration failed: %s", apperror.Message(err))
	}
	fmt.Printf("Registered for %q (registration %s)\n", target.Title, created.ID)

	mine, err := registrations.Registrations(ctx)
	if err != nil {
		log.Fatalf("Failed to list registrations: %v", err)
	}
	fmt.Printf("My registrations: %d\n", len(mine))

	if err := registrations.Cancel(ctx, created.ID); err != nil {
		log.Fatalf("Cancellation failed: %v", err)
	}
	fmt.Println("Registration cancelled")
}

func pickOpenEvent(items []eventservice.EventView) *eventservice.EventView {
	for i := range items {
		if items[i].RegistrationOpen && items[i].RemainingSpots > 0 {
			return &items[i]
		}
	}
	return nil
}

func seedEvents(stub *stubserver.Server) {
	today := time.Now()
	date := func(days int) time.Time {
		d := today.AddDate(0, 0, days)
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	}
	stub.AddEvent(core.Event{
		Title: "Go Meetup", Description: "Monthly Go user group meetup",
		Location: "Community Hall", Organizer: "GoBLR", Type: 3, Capacity: 50,
		EventDate: date(7), EventTime: "18:30", CutoffDate: date(5),
	})
	stub.AddEvent(core.Event{
		Title: "Cloud Workshop", Description: "Hands-on infrastructure workshop",
		Location: "Lab 2", Organizer: "DevOps Guild", Type: 1, Capacity: 20,
		EventDate: date(14), EventTime: "09:00", CutoffDate: date(10),
	})
	stub.AddEvent(core.Event{
		Title: "Architecture Seminar", Description: "Designing resilient systems",
		Location: "Auditorium", Organizer: "Eng Org", Type: 2, Capacity: 120,
		EventDate: date(30), EventTime: "14:00", CutoffDate: date(25),
	})
}
