package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/ceps", handler.ListCEPs)
		api.POST("/ceps", handler.RegisterCEP)
		api.POST("/ceps/:id/retry", handler.RetryCEP)
		api.DELETE("/ceps/:id", handler.DeleteCEP)
		api.GET("/enderecos", handler.SearchAddresses)
		api.GET("/mercado/:cep", handler.MarketView)
		api.GET("/mercado/:cep/export", handler.ExportComparables)
		api.GET("/avaliacoes", handler.ListValuations)
		api.GET("/avaliacoes/export", handler.ExportValuations)
	}
}
