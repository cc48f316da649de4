package middleware

import (
	"strings"

	"rapidaid/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer token and sets account context.
func AuthRequired(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		c.Set("account_id", claims.AccountID)
		c.Set("role", claims.Role)
		c.Set("account_name", claims.Name)

		c.Next()
	}
}

// RoleRequired ensures the signed-in account carries one of the given roles.
func RoleRequired(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		for _, allowed := range roles {
			if roleStr == allowed {
				c.Next()
				return
			}
		}

		utils.ForbiddenResponse(c)
		c.Abort()
	}
}

func AmbulanceRequired() gin.HandlerFunc {
	return RoleRequired("ambulance", "admin")
}

func HospitalRequired() gin.HandlerFunc {
	return RoleRequired("hospital", "admin")
}

func PoliceRequired() gin.HandlerFunc {
	return RoleRequired("police", "admin")
}

func AdminRequired() gin.HandlerFunc {
	return RoleRequired("admin")
}
