package patient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type staticObserver struct {
	ids []string
}

func (o *staticObserver) PatientIDs(ctx context.Context) ([]string, error) {
	return o.ids, nil
}

func TestEnsurePlaceholder_StablePerGateway(t *testing.T) {
	svc := NewService(NewMemRepository(), nil, zerolog.Nop())
	ctx := context.Background()

	first, err := svc.EnsurePlaceholder(ctx, "GW1")
	if err != nil {
		t.Fatalf("ensure placeholder: %v", err)
	}
	second, err := svc.EnsurePlaceholder(ctx, "GW1")
	if err != nil {
		t.Fatalf("ensure placeholder again: %v", err)
	}
	if first != second {
		t.Errorf("placeholder changed between calls: %q vs %q", first, second)
	}
	if !IsPlaceholder(first) {
		t.Errorf("id %q should be a placeholder", first)
	}

	other, err := svc.EnsurePlaceholder(ctx, "GW2")
	if err != nil {
		t.Fatalf("ensure placeholder: %v", err)
	}
	if other == first {
		t.Error("distinct gateways must get distinct placeholders")
	}
}

func TestSeedNames_Overwrites(t *testing.T) {
	svc := NewService(NewMemRepository(), nil, zerolog.Nop())
	ctx := context.Background()

	if err := svc.SeedNames(ctx, map[string]string{"p1": "Alice"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := svc.SeedNames(ctx, map[string]string{"p1": "Alice Smith"}); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	patients, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(patients) != 1 || patients[0].Name != "Alice Smith" {
		t.Errorf("got %+v, want single patient named Alice Smith", patients)
	}
}

func TestList_UnionWithObservedIDs(t *testing.T) {
	repo := NewMemRepository()
	observed := &staticObserver{ids: []string{"p1", "walk-in"}}
	svc := NewService(repo, observed, zerolog.Nop())
	ctx := context.Background()

	if err := svc.SeedNames(ctx, map[string]string{"p1": "Alice"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	patients, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(patients) != 2 {
		t.Fatalf("got %d patients, want 2", len(patients))
	}
	if patients[0].ID != "p1" || patients[0].Name != "Alice" {
		t.Errorf("unexpected first entry: %+v", patients[0])
	}
	if patients[1].ID != "walk-in" || patients[1].Name != "" {
		t.Errorf("unexpected observed-only entry: %+v", patients[1])
	}
}

func postPatient(t *testing.T, svc *Service, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, NewHandler(svc).RegisterPatient(e.NewContext(req, rec))
}

func TestRegisterPatient_CreateAndRename(t *testing.T) {
	svc := NewService(NewMemRepository(), nil, zerolog.Nop())

	rec, err := postPatient(t, svc, `{"id":"p1","name":"Alice"}`)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if _, err := postPatient(t, svc, `{"id":"p1","name":"Alice Smith"}`); err != nil {
		t.Fatalf("rename: %v", err)
	}

	patients, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(patients) != 1 || patients[0].Name != "Alice Smith" {
		t.Errorf("got %+v, want single renamed patient", patients)
	}
}

func TestRegisterPatient_MissingID(t *testing.T) {
	svc := NewService(NewMemRepository(), nil, zerolog.Nop())
	_, err := postPatient(t, svc, `{"name":"No ID"}`)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestListPatients_Handler(t *testing.T) {
	svc := NewService(NewMemRepository(), &staticObserver{ids: []string{"p9"}}, zerolog.Nop())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	rec := httptest.NewRecorder()
	if err := NewHandler(svc).ListPatients(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Count int `json:"count"`
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Count != 1 || body.Items[0].ID != "p9" {
		t.Errorf("unexpected response: %s", rec.Body.String())
	}
}
