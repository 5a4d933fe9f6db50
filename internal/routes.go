package internal

import (
	"net/http"
	"unifeed/internal/controllers"
	"unifeed/internal/providers"
	"unifeed/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/timeline", http.HandlerFunc(apiController.GetTimeline))
	routers.Post("/timeline/refresh", http.HandlerFunc(apiController.Refresh))
	routers.Post("/entries/reaction", http.HandlerFunc(apiController.ToggleReaction))
	routers.Post("/entries/bookmark", http.HandlerFunc(apiController.ToggleBookmark))
	routers.Post("/entries/comment", http.HandlerFunc(apiController.AddComment))
	routers.Post("/entries/delete", http.HandlerFunc(apiController.DeleteEntry))
	routers.Post("/session/close", http.HandlerFunc(apiController.CloseSession))
	return routers
}
