package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/services"
)

type submitMessageRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Mobile  string `json:"mobile"`
	Comment string `json:"comment" binding:"required"`
}

type respondMessageRequest struct {
	ContactID            string `json:"contactId" binding:"required"`
	Message              string `json:"message" binding:"required"`
	ReceiveNotifications bool   `json:"receiveNotifications"`
}

func SubmitMessage(contacts *services.ContactService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /submit-message"
		defer handlePanic(c, route)

		var req submitMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		contact, err := contacts.Submit(c.Request.Context(), services.ContactInput{
			Name:    req.Name,
			Email:   req.Email,
			Mobile:  req.Mobile,
			Comment: req.Comment,
		})
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "message submitted", "contact": contact})
	}
}

func GetSubmittedMessages(contacts *services.ContactService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /get-submitted-messages"
		defer handlePanic(c, route)

		list, err := contacts.List(c.Request.Context())
		if err != nil {
			respondError(c, route, err)
			return
		}
		if list == nil {
			list = []models.Contact{}
		}
		c.JSON(http.StatusOK, gin.H{"messages": list})
	}
}

func RespondToMessage(contacts *services.ContactService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /respond-to-message"
		defer handlePanic(c, route)

		adminID, ok := currentUser(c, route)
		if !ok {
			return
		}
		var req respondMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		contactID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ContactID))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid contactId")
			return
		}

		contact, err := contacts.Respond(c.Request.Context(), adminID, contactID, req.Message, req.ReceiveNotifications)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "response recorded", "contact": contact})
	}
}

func DeleteContact(contacts *services.ContactService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /deleteContact/:id"
		defer handlePanic(c, route)

		id, ok := parseObjectIDParam(c, route, "id")
		if !ok {
			return
		}
		if err := contacts.Delete(c.Request.Context(), id); err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "contact deleted"})
	}
}
