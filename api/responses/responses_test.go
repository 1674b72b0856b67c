package responses

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/angelmondragon/nexus-cards-backend/pkg/errors"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
	"github.com/angelmondragon/nexus-cards-backend/pkg/types"
)

var testLogger = logger.New(logger.Options{ServiceName: "responses-test", Output: io.Discard})

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusCreated {
		t.Fatalf("expected status 201 but got %d", got)
	}
	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorMapsDomainCodes(t *testing.T) {
	cases := []struct {
		code      pkgerrors.Code
		status    int
		retryable bool
		details   bool
	}{
		{pkgerrors.CodeValidation, http.StatusBadRequest, false, true},
		{pkgerrors.CodeInsufficientStock, http.StatusConflict, false, true},
		{pkgerrors.CodeCartExpired, http.StatusGone, false, false},
		{pkgerrors.CodeReservationStale, http.StatusConflict, true, true},
		{pkgerrors.CodePaymentProvider, http.StatusBadGateway, true, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			err := pkgerrors.New(tc.code, "specific message").WithDetails(map[string]any{"sku_id": "x"})
			WriteError(context.Background(), testLogger, w, err)

			if w.Code != tc.status {
				t.Fatalf("expected status %d but got %d", tc.status, w.Code)
			}
			var body types.ErrorEnvelope
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error envelope: %v", err)
			}
			if body.Error.Code != string(tc.code) {
				t.Fatalf("unexpected code %s", body.Error.Code)
			}
			if body.Error.Retryable != tc.retryable {
				t.Fatalf("expected retryable=%v", tc.retryable)
			}
			if (body.Error.Details != nil) != tc.details {
				t.Fatalf("details presence mismatch: %v", body.Error.Details)
			}
		})
	}
}

func TestWriteErrorHidesServerSideMessages(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), testLogger, w, pkgerrors.New(pkgerrors.CodePaymentProvider, "stub returned 500 for key cart_1"))

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Message != pkgerrors.MetadataFor(pkgerrors.CodePaymentProvider).PublicMessage {
		t.Fatalf("expected public message, got %q", body.Error.Message)
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInternal) || body.Error.Message == "boom" {
		t.Fatalf("unexpected error body %+v", body.Error)
	}
	if body.Error.Details != nil {
		t.Fatalf("details should be omitted for internal errors")
	}
}
