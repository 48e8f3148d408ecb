package handlers

import "errors"

var (
	errMissingID    = errors.New("missing id")
	errMissingMonth = errors.New("month is required (YYYY-MM)")
)
