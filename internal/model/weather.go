package model

import "time"

// WeatherRecord is a normalized weather lookup as persisted in the history store.
type WeatherRecord struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	City        string    `json:"city" gorm:"not null" validate:"required"`
	Temperature float64   `json:"temperature" gorm:"not null"`
	Description string    `json:"description" gorm:"not null" validate:"required"`
	Humidity    int       `json:"humidity" gorm:"not null" validate:"min=0,max=100"`
	CreatedAt   time.Time `json:"-" gorm:"autoCreateTime"`
}

func (WeatherRecord) TableName() string {
	return "weather_records"
}

// WeatherResponse is the body returned by GET /weather.
type WeatherResponse struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
	Humidity    int     `json:"humidity"`
}

// Response converts the record to the fetch response shape, dropping the id.
func (r WeatherRecord) Response() WeatherResponse {
	return WeatherResponse{
		City:        r.City,
		Temperature: r.Temperature,
		Description: r.Description,
		Humidity:    r.Humidity,
	}
}
