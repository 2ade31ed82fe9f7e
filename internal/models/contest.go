package models

import (
	"time"

	"github.com/google/uuid"
)

// ContestType is the access type of a contest.
type ContestType string

const (
	PublicContest            ContestType = "Public"
	PasswordProtectedContest ContestType = "Password Protected"
)

// RuleType is the contest scoring mode.
type RuleType string

const (
	RuleACM RuleType = "ACM"
	RuleOI  RuleType = "OI"
)

// ContestStatus is the temporal phase derived from the contest window.
type ContestStatus int

const (
	ContestNotStarted ContestStatus = 1
	ContestUnderway   ContestStatus = 0
	ContestEnded      ContestStatus = -1
)

// Contest is consumed read-only by the access controller. Ownership and
// scheduling are managed elsewhere.
type Contest struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	Visible      bool        `json:"visible"`
	ContestType  ContestType `json:"contest_type"`
	RuleType     RuleType    `json:"rule_type"`
	StartTime    time.Time   `json:"start_time"`
	EndTime      time.Time   `json:"end_time"`
	Password     string      `json:"-"` // Shared secret, never serialized
	RealTimeRank bool        `json:"real_time_rank"`
	CreatedBy    uuid.UUID   `json:"created_by"`
	AdminIDs     []uuid.UUID `json:"-"` // Delegated managers
}

// Status derives the contest phase at the given instant: not-started
// before the window opens, underway inside [start, end), ended after.
func (c *Contest) Status(now time.Time) ContestStatus {
	if now.Before(c.StartTime) {
		return ContestNotStarted
	}
	if now.Before(c.EndTime) {
		return ContestUnderway
	}
	return ContestEnded
}

// CreatorID implements guard.Owned.
func (c *Contest) CreatorID() uuid.UUID { return c.CreatedBy }

// Label implements guard.Owned.
func (c *Contest) Label() string { return "Contest" }
