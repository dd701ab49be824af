package trend

import (
	"net/http"

	"pmwatch/internal/modules/trend/controller"
)

func RegisterFeature(mux *http.ServeMux, source controller.SeriesSource, siteName string, maxDays int) {
	trendController := controller.NewTrendController(source, siteName, maxDays)
	trendController.RegisterRoutes(mux)
}
