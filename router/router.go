package router

import (
	"Go_Share/internal/handler"
	"Go_Share/utils"

	"github.com/gin-gonic/gin"
)

// InitRouter builds API routes.
func InitRouter(upload *handler.UploadHandler, users utils.UserLoader) *gin.Engine {
	r := gin.Default()
	r.Use(utils.CORSMiddleware())

	api := r.Group("/api")
	{
		auth := api.Group("")
		auth.Use(utils.AuthMiddleware(users))

		auth.POST("/upload", upload.Upload)
		auth.POST("/upload/", upload.Upload)
		auth.GET("/upload/tasks/:identifier", upload.TaskStatus)
	}
	return r
}
