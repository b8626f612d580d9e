package repo

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func TestNotFoundMapsGormError(t *testing.T) {
	if !errors.Is(notFound(fmt.Errorf("wrap: %w", gorm.ErrRecordNotFound)), ErrNotFound) {
		t.Fatal("gorm not-found must map to ErrNotFound")
	}
	other := errors.New("connection reset")
	if notFound(other) != other {
		t.Fatal("other errors must pass through")
	}
}

func TestValidID(t *testing.T) {
	if !validID("6f1c2a7e-1b8a-4d4f-9a57-0c6c1c7f3a10") {
		t.Fatal("uuid must be valid")
	}
	if validID("c101") || validID("") {
		t.Fatal("non-uuid must be rejected")
	}
}

func TestKeepFirstWrapsColumns(t *testing.T) {
	out := keepFirst(map[string]interface{}{"stripe_session_id": "cs_1"})
	expr, ok := out["stripe_session_id"].(clause.Expr)
	if !ok {
		t.Fatalf("expected gorm expression, got %T", out["stripe_session_id"])
	}
	if expr.SQL != "COALESCE(stripe_session_id, ?)" || len(expr.Vars) != 1 || expr.Vars[0] != "cs_1" {
		t.Fatalf("unexpected expression %+v", expr)
	}
}
