package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// abortDetail writes the contract's error shape: a single human-readable
// message under "detail". Clients never see anything richer.
func abortDetail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": message})
}

// isUniqueViolation reports whether a database error is a unique
// constraint violation (works with both PostgreSQL and SQLite)
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
