package session

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backend-safetrail/internal/location"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func testAuth(c *fiber.Ctx) error {
	c.Locals("user_id", "user-1")
	return c.Next()
}

func newTestApp(t *testing.T, provider *fakeProvider) (*fiber.App, pgxmock.PgxPoolIface, *Service) {
	t.Helper()
	svc, mock := newTestService(t, provider, &fakeArrivals{}, &fakeHub{})
	app := fiber.New()
	RegisterRoutes(app.Group("/sessions"), svc, testAuth)
	return app, mock, svc
}

func TestStartHandler(t *testing.T) {
	app, mock, _ := newTestApp(t, &fakeProvider{perm: location.PermissionAuthorizedFull})

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO safety_sessions`).
		WithArgs(pgxmock.AnyArg(), "user-1", pgxmock.AnyArg(), pgxmock.AnyArg(), "Home").
		WillReturnRows(pgxmock.NewRows([]string{"started_at"}).AddRow(time.Now()))

	req := httptest.NewRequest("POST", "/sessions/start",
		strings.NewReader(`{"destination":{"lat":1,"lng":2,"name":"Home"}}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "share_token") {
		t.Fatalf("expected share token in response: %s", body)
	}
}

func TestStartHandlerPermissionDenied(t *testing.T) {
	app, _, _ := newTestApp(t, &fakeProvider{perm: location.PermissionDenied})

	resp, err := app.Test(httptest.NewRequest("POST", "/sessions/start", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestStartHandlerAlreadyActive(t *testing.T) {
	app, mock, _ := newTestApp(t, &fakeProvider{perm: location.PermissionAuthorizedFull})

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	resp, err := app.Test(httptest.NewRequest("POST", "/sessions/start", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestEndHandler(t *testing.T) {
	app, mock, _ := newTestApp(t, &fakeProvider{})

	mock.ExpectExec(`UPDATE safety_sessions`).
		WithArgs("user-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	resp, err := app.Test(httptest.NewRequest("POST", "/sessions/end", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestGetHandlerNotFound(t *testing.T) {
	app, mock, _ := newTestApp(t, &fakeProvider{})

	mock.ExpectQuery(`SELECT\s+id, user_id, share_token`).
		WithArgs("missing", "user-1").
		WillReturnError(errSession)

	resp, err := app.Test(httptest.NewRequest("GET", "/sessions/missing", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestShareHandler(t *testing.T) {
	app, mock, _ := newTestApp(t, &fakeProvider{})

	started := time.Now()
	mock.ExpectQuery(`SELECT\s+id, user_id, share_token`).
		WithArgs("s-1", "user-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "share_token", "started_at", "ended_at", "is_active",
			"start_lat", "start_lng", "end_lat", "end_lng", "destination_name",
		}).AddRow("s-1", "user-1", "tok", started, nil, true, nil, nil, nil, nil, ""))

	resp, err := app.Test(httptest.NewRequest("GET", "/sessions/s-1/share", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "/stream/ws/tok") {
		t.Fatalf("expected share url in response: %s", body)
	}
}

func TestDeleteHandler(t *testing.T) {
	app, mock, _ := newTestApp(t, &fakeProvider{})

	mock.ExpectExec(`DELETE FROM safety_sessions`).
		WithArgs("s-1", "user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	resp, err := app.Test(httptest.NewRequest("DELETE", "/sessions/s-1", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}
