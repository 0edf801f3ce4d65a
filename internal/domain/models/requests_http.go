package models

// Requests for the report HTTP endpoints.

type CommodityRequest struct {
	Name string `param:"name" validate:"required"`
}

type ForecastRequest struct {
	Prices map[string]float64 `json:"prices" validate:"required,min=1,dive,keys,required,endkeys,gt=0"`
	Top    int                `json:"top" default:"6" validate:"gte=1,lte=50"`
}
