package view

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tripwise/internal/premium"
	"github.com/MrJamesThe3rd/tripwise/internal/validation"
)

const storeTimeout = 5 * time.Second

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// FormatTime formats a timestamp in local time, minute precision.
func FormatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// FormatQuote renders an unavailable quote as "-".
func FormatQuote(q premium.Quote, ok bool) string {
	if !ok {
		return "-"
	}

	return q.String()
}

// StoreCtx returns a context with a standard timeout for store operations.
func StoreCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

// check adapts a field predicate to a huh validator.
func check(fn func(string) validation.Reason) func(string) error {
	return func(s string) error {
		if r := fn(strings.TrimSpace(s)); r != validation.Valid {
			return errors.New(validation.Message(r))
		}

		return nil
	}
}

func checkCount(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return errors.New("Please enter a whole number")
	}

	return nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// describeErrors lists validation failures one per line.
func describeErrors(errs validation.Errors) string {
	lines := make([]string, 0, len(errs))
	for _, fe := range errs {
		lines = append(lines, "• "+fe.Field+": "+validation.Message(fe.Reason))
	}

	return strings.Join(lines, "\n")
}
