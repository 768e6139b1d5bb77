package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report statuses. There is no transition graph, any status may move to
// any other status.
const (
	StatusPending            = "pending"
	StatusUnderInvestigation = "under-investigation"
	StatusResolved           = "resolved"
	StatusRejected           = "rejected"
)

// ValidStatus checks whether s is one of the predefined report statuses
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusUnderInvestigation, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// Report holds the structure for the reports collection in mongo. ReportID is
// the externally visible identifier.
type Report struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ReportID    string             `bson:"reportId" json:"id"`
	OwnerID     string             `bson:"ownerId" json:"ownerId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Location    string             `bson:"location" json:"location"`
	Lat         float64            `bson:"lat" json:"lat"`
	Lng         float64            `bson:"lng" json:"lng"`
	Type        string             `bson:"type" json:"type"`
	Status      string             `bson:"status" json:"status"`
	Media       []string           `bson:"media" json:"media"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// ReportView is a report joined with the display name of its owner,
// used in admin listings
type ReportView struct {
	Report
	UserName string `json:"userName"`
}
