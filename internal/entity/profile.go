package entity

import (
	"time"

	"github.com/google/uuid"
)

const VendorActive = "active"

// ClientProfile and VendorProfile are read-only here: profile management
// belongs to an external collaborator, this system only resolves profiles by
// owning user id and reads eligibility attributes.
type ClientProfile struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Name      string
	Company   string
	CreatedAt time.Time
}

type VendorProfile struct {
	Id                uuid.UUID
	UserId            uuid.UUID
	CompanyName       string
	Status            string
	Services          []string
	YearsInBusiness   int
	Rating            float64
	Verified          bool
	CompletedProjects int
	CreatedAt         time.Time
}
