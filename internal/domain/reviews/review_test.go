package reviews

import (
	"strings"
	"testing"
	"time"

	"meytle/internal/domain/shared/fault"
)

func TestSubmit(t *testing.T) {
	now := time.Date(2026, time.September, 10, 9, 0, 0, 0, time.UTC)
	review, err := Submit(SubmitParams{
		ID:         "rv-1",
		BookingID:  "bk-1",
		ReviewerID: "client-1",
		RevieweeID: "comp-1",
		Rating:     5,
		Text:       "  lovely evening  ",
		CreatedAt:  now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if review.Text != "lovely evening" {
		t.Fatalf("text = %q", review.Text)
	}
	if !review.CreatedAt.Equal(now) {
		t.Fatalf("created at = %v", review.CreatedAt)
	}
}

func TestSubmitValidation(t *testing.T) {
	base := SubmitParams{
		ID:         "rv-1",
		BookingID:  "bk-1",
		ReviewerID: "client-1",
		RevieweeID: "comp-1",
		Rating:     4,
		Text:       "twelve chars",
	}

	cases := []struct {
		name   string
		mutate func(*SubmitParams)
	}{
		{name: "rating too low", mutate: func(p *SubmitParams) { p.Rating = 0 }},
		{name: "rating too high", mutate: func(p *SubmitParams) { p.Rating = 6 }},
		{name: "text too short", mutate: func(p *SubmitParams) { p.Text = "short" }},
		{name: "text too long", mutate: func(p *SubmitParams) { p.Text = strings.Repeat("a", 501) }},
		{name: "whitespace only text", mutate: func(p *SubmitParams) { p.Text = "              " }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			params := base
			c.mutate(&params)
			if _, err := Submit(params); err == nil || !fault.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestHistogramAndAverage(t *testing.T) {
	reviews := []*Review{
		{Rating: 5}, {Rating: 5}, {Rating: 4}, {Rating: 2},
	}
	h := HistogramOf(reviews)
	if h[5] != 2 || h[4] != 1 || h[2] != 1 || h[1] != 0 || h[3] != 0 {
		t.Fatalf("histogram = %v", h)
	}
	if avg := Average(reviews); avg != 4.0 {
		t.Fatalf("average = %v", avg)
	}
	if avg := Average(nil); avg != 0 {
		t.Fatalf("empty average = %v", avg)
	}
}
