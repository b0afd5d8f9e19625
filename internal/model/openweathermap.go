package model

// OpenWeatherMapResponse is the subset of the /data/2.5/weather payload the
// service reads. Required fields are pointers so a missing field can be told
// apart from a zero value.
type OpenWeatherMapResponse struct {
	Name *string `json:"name"`
	Main *struct {
		Temp      *float64 `json:"temp"`
		FeelsLike float64  `json:"feels_like"`
		TempMin   float64  `json:"temp_min"`
		TempMax   float64  `json:"temp_max"`
		Pressure  int      `json:"pressure"`
		Humidity  *int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		ID          int     `json:"id"`
		Main        string  `json:"main"`
		Description *string `json:"description"`
		Icon        string  `json:"icon"`
	} `json:"weather"`
}
