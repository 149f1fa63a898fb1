package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContactStatus string

const (
	ContactSubmitted  ContactStatus = "Submitted"
	ContactContacted  ContactStatus = "Contacted"
	ContactInProgress ContactStatus = "In Progress"
	ContactResolved   ContactStatus = "Resolved"
)

type AdminResponse struct {
	Response             string             `bson:"response" json:"response"`
	ReceiveNotifications bool               `bson:"receiveNotifications" json:"receiveNotifications"`
	RespondedBy          primitive.ObjectID `bson:"respondedBy" json:"respondedBy"`
	Timestamp            time.Time          `bson:"timestamp" json:"timestamp"`
}

// Contact is a message left through the public contact form.
type Contact struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	Mobile        string             `bson:"mobile" json:"mobile"`
	Comment       string             `bson:"comment" json:"comment"`
	Status        ContactStatus      `bson:"status" json:"status"`
	AdminResponse *AdminResponse     `bson:"adminResponse,omitempty" json:"adminResponse,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
