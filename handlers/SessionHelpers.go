package handlers

import (
	"backend/models"
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
)

// devBypassAuth skips session validation for local development. It is set
// once at startup from configuration and never read from the environment at
// call sites.
var devBypassAuth bool

// ConfigureAuth sets the development auth bypass. Call once from main before
// the router starts serving.
func ConfigureAuth(devBypass bool) {
	devBypassAuth = devBypass
}

// GetSessionDetails resolves a session token to the session row and the
// owning user's name.
func GetSessionDetails(db *sql.DB, sessionID string) (models.Session, string, error) {
	var session models.Session
	var userName string

	query := `
        SELECT s.user_id, u.full_name, s.host_name, s.ip_address
        FROM session s
        JOIN users u ON s.user_id = u.id
        WHERE s.session_id = $1 AND s.expires_at > NOW()`

	err := db.QueryRow(query, sessionID).Scan(
		&session.UserID,
		&userName,
		&session.HostName,
		&session.IPAddress,
	)
	if err != nil {
		return models.Session{}, "", err
	}
	session.SessionID = sessionID
	return session, userName, nil
}

// RequireSession validates the Authorization header against the session
// table and writes the error response itself. The second return value is
// false when the request was rejected.
func RequireSession(c *gin.Context, db *sql.DB) (models.Session, bool) {
	if devBypassAuth {
		return models.Session{UserID: 1, HostName: "dev@localhost"}, true
	}

	sessionID := c.GetHeader("Authorization")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id header is missing"})
		return models.Session{}, false
	}
	session, _, err := GetSessionDetails(db, sessionID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
		return models.Session{}, false
	}
	return session, true
}
