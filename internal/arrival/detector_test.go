package arrival

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backend-safetrail/internal/geo"

	"github.com/gofiber/fiber/v2"
)

type fakeNotifier struct {
	names []string
	fail  bool
}

func (f *fakeNotifier) NotifyArrival(_ context.Context, name string) error {
	f.names = append(f.names, name)
	if f.fail {
		return errors.New("notify failed")
	}
	return nil
}

func TestCheckArrivalLatchesOnce(t *testing.T) {
	notifier := &fakeNotifier{}
	d := NewDetector(notifier)
	d.SetDestination("user-1", 0, 0, "Home")

	// 1000 m away: no arrival, distance recorded
	d.CheckArrival(context.Background(), "user-1", geo.Fix{Lat: 0, Lng: 0.009})
	status := d.Status("user-1")
	if status.HasArrived {
		t.Fatalf("expected no arrival at ~1 km")
	}
	if math.Abs(status.DistanceToDestination-1000) > 10 {
		t.Fatalf("unexpected distance: %v", status.DistanceToDestination)
	}

	// at the destination: latch + notify
	d.CheckArrival(context.Background(), "user-1", geo.Fix{Lat: 0, Lng: 0})
	status = d.Status("user-1")
	if !status.HasArrived {
		t.Fatalf("expected arrival at destination")
	}
	if status.DistanceToDestination > 1 {
		t.Fatalf("unexpected distance at destination: %v", status.DistanceToDestination)
	}

	// later fixes never re-trigger
	d.CheckArrival(context.Background(), "user-1", geo.Fix{Lat: 0, Lng: 0})
	d.CheckArrival(context.Background(), "user-1", geo.Fix{Lat: 0, Lng: 0.009})
	if len(notifier.names) != 1 || notifier.names[0] != "Home" {
		t.Fatalf("expected exactly one notification, got %v", notifier.names)
	}
}

func TestCheckArrivalNoDestination(t *testing.T) {
	notifier := &fakeNotifier{}
	d := NewDetector(notifier)
	d.CheckArrival(context.Background(), "user-1", geo.Fix{Lat: 0, Lng: 0})
	if len(notifier.names) != 0 {
		t.Fatalf("expected no notification without destination")
	}
}

func TestReassignResetsLatch(t *testing.T) {
	notifier := &fakeNotifier{}
	d := NewDetector(notifier)
	d.SetDestination("user-1", 0, 0, "Home")
	d.CheckArrival(context.Background(), "user-1", geo.Fix{Lat: 0, Lng: 0})

	d.SetDestination("user-1", 0, 0.009, "Office")
	status := d.Status("user-1")
	if status.HasArrived || status.DistanceToDestination != 0 {
		t.Fatalf("expected reset on reassignment: %+v", status)
	}

	d.CheckArrival(context.Background(), "user-1", geo.Fix{Lat: 0, Lng: 0.009})
	if len(notifier.names) != 2 || notifier.names[1] != "Office" {
		t.Fatalf("expected second notification for new destination, got %v", notifier.names)
	}
}

func TestClearDestination(t *testing.T) {
	d := NewDetector(nil)
	d.SetDestination("user-1", 1, 2, "Home")
	d.ClearDestination("user-1")
	if d.Status("user-1").Set {
		t.Fatalf("expected destination cleared")
	}
}

func TestNotifierFailureStillLatches(t *testing.T) {
	notifier := &fakeNotifier{fail: true}
	d := NewDetector(notifier)
	d.SetDestination("user-1", 0, 0, "Home")
	d.CheckArrival(context.Background(), "user-1", geo.Fix{Lat: 0, Lng: 0})
	if !d.Status("user-1").HasArrived {
		t.Fatalf("expected latch despite notifier failure")
	}
}

func TestArrivalHandlers(t *testing.T) {
	d := NewDetector(nil)
	app := fiber.New()
	RegisterRoutes(app.Group("/destination"), d, func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	})

	body := strings.NewReader(`{"lat": 0, "lng": 0.009, "name": "Office"}`)
	req := httptest.NewRequest(http.MethodPut, "/destination/", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("set destination status: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/destination/", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("get destination status: %v", err)
	}

	req = httptest.NewRequest(http.MethodDelete, "/destination/", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("clear destination status: %v", err)
	}

	req = httptest.NewRequest(http.MethodPut, "/destination/", strings.NewReader(`{"lat": 1}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request without name")
	}
}
