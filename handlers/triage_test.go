package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"medtriage/models"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		status string
		want   int
	}{
		{models.StatusSuccess, http.StatusOK},
		{models.StatusEmergency, http.StatusOK},
		{models.StatusEscalated, http.StatusOK},
		{models.StatusFailed, http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		t.Run(tc.status, func(t *testing.T) {
			assert.Equal(t, tc.want, statusCode(tc.status))
		})
	}
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "triage:session:SES123", sessionKey("SES123"))
}
