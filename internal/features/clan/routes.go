package clan

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires clan endpoints into the API group.
func RegisterRoutes(api *gin.RouterGroup, handler *Handler) {
	clans := api.Group("/clans")

	clans.GET("/search", handler.Search)
	clans.GET("/:clanTag", handler.GetByTag)
	clans.GET("/:clanTag/members", handler.Members)
	clans.GET("/:clanTag/warlog", handler.WarLog)
}
