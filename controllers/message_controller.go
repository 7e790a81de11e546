package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SendMessageRequest represents the request body for POST /jobs/:id/message
type SendMessageRequest struct {
	Text string `json:"text" binding:"required,max=1000"`
}

// SendMessage handles POST /api/v1/jobs/:id/message - the customer and the
// tailor exchange messages on a job; the full job comes back with the thread
func SendMessage(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	job, err := jobService().AddMessage(c.Request.Context(), jobID, identity, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, job)
}

// ListMessages handles GET /api/v1/jobs/:id/messages - oldest first
func ListMessages(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}

	messages, err := jobService().ListMessages(c.Request.Context(), jobID, identity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
		"count":   len(messages),
	})
}
