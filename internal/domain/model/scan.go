package model

import (
	"fmt"
	"strings"
	"time"

	"qr-redirect/internal/domain"

	"github.com/oklog/ulid/v2"
)

// ScanMetadata is what is known about a visitor at visit time. Every field is optional.
type ScanMetadata struct {
	IPAddress *string  `json:"ipAddress,omitempty" validate:"omitempty,ip"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// Normalize trims the IP address and drops it when blank.
func (m ScanMetadata) Normalize() ScanMetadata {
	if m.IPAddress != nil {
		ip := strings.TrimSpace(*m.IPAddress)
		if ip == "" {
			m.IPAddress = nil
		} else {
			m.IPAddress = &ip
		}
	}
	return m
}

// Sanitize drops each field that would fail validation and keeps the rest.
// Used where metadata is collected passively and a bad field must not cost the scan.
func (m ScanMetadata) Sanitize() ScanMetadata {
	m = m.Normalize()
	if m.IPAddress != nil && validate.Var(*m.IPAddress, "ip") != nil {
		m.IPAddress = nil
	}
	if m.Latitude != nil && validate.Var(*m.Latitude, "gte=-90,lte=90") != nil {
		m.Latitude = nil
	}
	if m.Longitude != nil && validate.Var(*m.Longitude, "gte=-180,lte=180") != nil {
		m.Longitude = nil
	}
	return m
}

// Validate rejects malformed metadata. Absent fields are always fine.
func (m ScanMetadata) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

// Scan is an append-only visit event for a Code.
type Scan struct {
	ID        string    `json:"id"`
	CodeID    string    `json:"codeId"`
	IPAddress *string   `json:"ipAddress"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// NewScan builds a Scan with a time-ordered ULID.
func NewScan(codeID string, meta ScanMetadata) (*Scan, error) {
	codeID = strings.TrimSpace(codeID)
	if codeID == "" {
		return nil, fmt.Errorf("%w: code id is required", domain.ErrInvalidArgument)
	}
	meta = meta.Normalize()
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Scan{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		CodeID:    codeID,
		IPAddress: meta.IPAddress,
		Latitude:  meta.Latitude,
		Longitude: meta.Longitude,
		Timestamp: now,
	}, nil
}
