package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const dbKey = "alertify.db"

// InjectDB makes the shared gorm handle available to handlers.
func InjectDB(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(dbKey, db)
		c.Next()
	}
}

func DB(c *gin.Context) *gorm.DB {
	if v, ok := c.Get(dbKey); ok {
		if db, ok := v.(*gorm.DB); ok {
			return db
		}
	}
	return nil
}
