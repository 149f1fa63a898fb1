package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/store"
)

type ContactService struct {
	store store.Store
	sms   notify.Sender
}

func NewContactService(s store.Store, sms notify.Sender) *ContactService {
	return &ContactService{store: s, sms: sms}
}

type ContactInput struct {
	Name    string
	Email   string
	Mobile  string
	Comment string
}

func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*models.Contact, error) {
	name, err := requireText(in.Name, "name")
	if err != nil {
		return nil, err
	}
	email, err := requireText(strings.ToLower(in.Email), "email")
	if err != nil {
		return nil, err
	}
	comment, err := requireText(in.Comment, "comment")
	if err != nil {
		return nil, err
	}

	c := &models.Contact{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		Mobile:    strings.TrimSpace(in.Mobile),
		Comment:   comment,
		Status:    models.ContactSubmitted,
		CreatedAt: time.Now(),
	}
	if err := s.store.Contacts.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	log.Println("[CONTACT] [INFO] message submitted:", c.ID.Hex())
	return c, nil
}

func (s *ContactService) List(ctx context.Context) ([]models.Contact, error) {
	contacts, err := s.store.Contacts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// Respond stores the admin reply and texts it to the sender when asked to.
// A failed SMS does not fail the reply.
func (s *ContactService) Respond(ctx context.Context, adminID, contactID primitive.ObjectID, message string, receiveNotifications bool) (*models.Contact, error) {
	message, err := requireText(message, "message")
	if err != nil {
		return nil, err
	}

	contact, err := s.store.Contacts.Get(ctx, contactID)
	if err != nil {
		return nil, lookupErr(err, "contact")
	}

	resp := models.AdminResponse{
		Response:             message,
		ReceiveNotifications: receiveNotifications,
		RespondedBy:          adminID,
		Timestamp:            time.Now(),
	}
	if err := s.store.Contacts.Respond(ctx, contactID, resp, models.ContactContacted); err != nil {
		return nil, lookupErr(err, "contact")
	}
	contact.AdminResponse = &resp
	contact.Status = models.ContactContacted

	if receiveNotifications && contact.Mobile != "" {
		if _, err := s.sms.Send(ctx, contact.Mobile, message); err != nil {
			log.Println("[CONTACT] [ERROR] response SMS failed:", err)
		}
	}
	return contact, nil
}

func (s *ContactService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.store.Contacts.Delete(ctx, id); err != nil {
		return lookupErr(err, "contact")
	}
	return nil
}
