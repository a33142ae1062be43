package entity

import (
	"time"

	"github.com/google/uuid"

	"construction-marketplace-api/internal/lifecycle"
)

type BudgetRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

type ProjectSpec struct {
	AreaSqm      float64  `json:"areaSqm"`
	Floors       int      `json:"floors"`
	Requirements []string `json:"requirements"`
}

type ProjectTimeline struct {
	StartDate    time.Time `json:"startDate"`
	DurationDays int       `json:"durationDays"`
}

// ProjectPreferences are the client's thresholds for vendor eligibility.
type ProjectPreferences struct {
	MinExperienceYears int     `json:"minExperienceYears"`
	MinRating          float64 `json:"minRating"`
}

// StatusChange is one entry of the append-only status history kept on both
// projects and bids. History is the audit trail and is never rewritten.
type StatusChange struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

// db model
type Project struct {
	Id             uuid.UUID
	ClientId       uuid.UUID
	Title          string
	Description    string
	Budget         BudgetRange
	Location       string
	Type           string
	Subtype        string
	Spec           ProjectSpec
	Timeline       ProjectTimeline
	Visibility     string
	Preferences    ProjectPreferences
	Status         lifecycle.ProjectStatus
	StatusHistory  []StatusChange
	Views          int
	LastActivityAt time.Time
	CreatedAt      time.Time
}

// service + repo input model
type CreateProjectInput struct {
	ClientUserId uuid.UUID // owner of the client profile
	Title        string
	Description  string
	Budget       BudgetRange
	Location     string
	Type         string
	Subtype      string
	Spec         ProjectSpec
	Timeline     ProjectTimeline
	Visibility   string
	Preferences  ProjectPreferences
}

// patch model; nil fields are left unchanged
type UpdateProjectInput struct {
	Title       *string
	Description *string
	Budget      *BudgetRange
	Location    *string
	Subtype     *string
	Spec        *ProjectSpec
	Timeline    *ProjectTimeline
	Visibility  *string
	Preferences *ProjectPreferences
}

type ProjectSearchInput struct {
	Types     []string
	Location  string
	Statuses  []string
	BudgetMin *float64
	BudgetMax *float64
	Query     string
}

// controller model
type ProjectOutputModel struct {
	Id             string             `json:"id"`
	ClientId       string             `json:"clientId"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Budget         BudgetRange        `json:"budget"`
	Location       string             `json:"location"`
	Type           string             `json:"type"`
	Subtype        string             `json:"subtype,omitempty"`
	Spec           ProjectSpec        `json:"spec"`
	Timeline       ProjectTimeline    `json:"timeline"`
	Visibility     string             `json:"visibility"`
	Preferences    ProjectPreferences `json:"preferences"`
	Status         string             `json:"status"`
	StatusHistory  []StatusChange     `json:"statusHistory"`
	Views          int                `json:"views"`
	LastActivityAt string             `json:"lastActivityAt"`
	CreatedAt      string             `json:"createdAt"`
}

type ProjectPage struct {
	Items []ProjectOutputModel `json:"items"`
	Total int                  `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}
