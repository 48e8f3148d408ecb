package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"bad request", BadRequest("month %q", "2025-13"), http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("load: %w", NotFound("lesson")), http.StatusNotFound},
		{"sentinel unauthorized", fmt.Errorf("x: %w", ErrUnauthorized), http.StatusUnauthorized},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusOf(tc.err); got != tc.want {
			t.Fatalf("%s: got=%d want=%d", tc.name, got, tc.want)
		}
	}
}

func TestFromDB(t *testing.T) {
	if got := StatusOf(FromDB("module", gorm.ErrRecordNotFound)); got != http.StatusNotFound {
		t.Fatalf("record not found: got=%d", got)
	}
	pgErr := &pgconn.PgError{Code: "23505"}
	if got := StatusOf(FromDB("member", fmt.Errorf("insert: %w", pgErr))); got != http.StatusConflict {
		t.Fatalf("unique violation: got=%d", got)
	}
	if got := CodeOf(FromDB("order", errors.New("conn reset"))); got != "store_error" {
		t.Fatalf("upstream code: got=%q", got)
	}
	if FromDB("x", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}
