// internal/domain/models/link.go
package models

import "time"

// Link is the legacy user-to-inquiry join record. It mirrors
// Inquiry.AssignedVolunteers for read paths that still query it and is never
// consulted when deciding anything.
type Link struct {
	ID        string    `bson:"_id" json:"id"` // "<userId>_<inquiryId>"
	UserID    string    `bson:"user_id" json:"user_id"`
	InquiryID string    `bson:"inquiry_id" json:"inquiry_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// LinkID builds the composite key of a link.
func LinkID(userID, inquiryID string) string {
	return userID + "_" + inquiryID
}
