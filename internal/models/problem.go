package models

import "github.com/google/uuid"

// Problem carries only the fields the permission layer needs. Problem
// content and judging data live with the problem-management service.
type Problem struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Visible   bool      `json:"visible"`
	CreatedBy uuid.UUID `json:"created_by"`
}

// CreatorID implements guard.Owned.
func (p *Problem) CreatorID() uuid.UUID { return p.CreatedBy }

// Label implements guard.Owned.
func (p *Problem) Label() string { return "Problem" }
