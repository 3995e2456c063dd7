package models

import (
	"time"

	"shareledger/pkg/domain"
)

// Config is the registry-wide configuration created at deployment.
type Config struct {
	Admin domain.Identity
	// RecordDate is an epoch-like date; 0 means unset.
	RecordDate int64
	VotingOpen bool
	UpdatedAt  time.Time
}

// NewConfig returns the deployment-time configuration for deployer.
func NewConfig(deployer domain.Identity, now time.Time) *Config {
	return &Config{
		Admin:     deployer,
		UpdatedAt: now,
	}
}

// IsAdmin reports whether caller holds the admin capability.
func (c *Config) IsAdmin(caller domain.Identity) bool {
	return !caller.IsZero() && caller == c.Admin
}

// ShareRecord is one registered shareholder.
//
// Zero-share records are allowed: updating a holder to 0 shares keeps the
// record (registered but not eligible). Only removal deletes it.
type ShareRecord struct {
	Identity     domain.Identity
	Shares       int64
	RegisteredAt time.Time
	UpdatedAt    time.Time
}

// Eligible reports whether the holder may take part in a vote.
func (r *ShareRecord) Eligible() bool {
	return r != nil && r.Shares > 0
}

// Snapshot is a consistent read of the registry state.
type Snapshot struct {
	Admin            domain.Identity
	RecordDate       int64
	VotingOpen       bool
	ShareholderCount int
	TotalShares      int64
}
