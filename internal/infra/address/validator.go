package address

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	domainbooking "meytle/internal/domain/booking"

	"meytle/internal/app/policies"
)

// HTTPValidator delegates meeting-location checks to an external geocoding
// service.
type HTTPValidator struct {
	Client   *http.Client
	Endpoint string
	Logger   *slog.Logger
}

type checkRequest struct {
	Address     string  `json:"address"`
	MeetingType string  `json:"meeting_type"`
	Lat         float64 `json:"lat,omitempty"`
	Lon         float64 `json:"lon,omitempty"`
}

type checkResponse struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *HTTPValidator) Validate(ctx context.Context, location policies.MeetingLocation) (policies.AddressCheck, error) {
	var zero policies.AddressCheck
	if v == nil || v.Client == nil {
		return zero, errors.New("address: http client not configured")
	}
	if v.Endpoint == "" {
		return zero, errors.New("address: endpoint not configured")
	}
	if location.MeetingType == domainbooking.MeetingVirtual {
		return policies.AddressCheck{IsValid: true}, nil
	}
	if strings.TrimSpace(location.Address) == "" {
		return policies.AddressCheck{IsValid: false, Errors: []string{"meeting location is required for in-person bookings"}}, nil
	}

	body, err := json.Marshal(checkRequest{
		Address:     location.Address,
		MeetingType: string(location.MeetingType),
		Lat:         location.Lat,
		Lon:         location.Lon,
	})
	if err != nil {
		return zero, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, v.Endpoint, bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := v.Client.Do(request)
	if err != nil {
		v.logError("address check request failed", err)
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("address check returned status %d: %s", resp.StatusCode, string(snippet))
		v.logError("address check returned error", err)
		return zero, err
	}

	var decoded checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		v.logError("address check decode failed", err)
		return zero, err
	}
	return policies.AddressCheck{
		IsValid:  decoded.IsValid,
		Errors:   decoded.Errors,
		Warnings: decoded.Warnings,
	}, nil
}

func (v *HTTPValidator) logError(msg string, err error) {
	if v.Logger == nil {
		return
	}
	v.Logger.Error(msg, "error", err)
}

// PermissiveValidator accepts any non-empty in-person address. Used when no
// external checker is configured.
type PermissiveValidator struct{}

func (PermissiveValidator) Validate(_ context.Context, location policies.MeetingLocation) (policies.AddressCheck, error) {
	if location.MeetingType == domainbooking.MeetingInPerson && strings.TrimSpace(location.Address) == "" {
		return policies.AddressCheck{IsValid: false, Errors: []string{"meeting location is required for in-person bookings"}}, nil
	}
	return policies.AddressCheck{IsValid: true}, nil
}

var _ policies.AddressValidatorPort = (*HTTPValidator)(nil)
var _ policies.AddressValidatorPort = PermissiveValidator{}
