package player

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires player endpoints into the API group.
func RegisterRoutes(api *gin.RouterGroup, handler *Handler) {
	players := api.Group("/players")

	players.GET("/:playerTag", handler.GetByTag)
	players.POST("/:playerTag/verifytoken", handler.VerifyToken)
}
