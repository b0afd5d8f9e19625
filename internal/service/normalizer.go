package service

import (
	"fmt"
	"strings"

	"github.com/fakhrymubarak/weather-history-api/internal/model"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Normalize converts an upstream payload into a WeatherRecord. Missing or
// out-of-range fields fail the whole payload; no defaults are substituted.
func Normalize(raw *model.OpenWeatherMapResponse) (model.WeatherRecord, error) {
	if raw == nil {
		return model.WeatherRecord{}, fmt.Errorf("%w: empty payload", ErrValidation)
	}
	if raw.Name == nil {
		return model.WeatherRecord{}, missingField("name")
	}
	if raw.Main == nil {
		return model.WeatherRecord{}, missingField("main")
	}
	if raw.Main.Temp == nil {
		return model.WeatherRecord{}, missingField("main.temp")
	}
	if raw.Main.Humidity == nil {
		return model.WeatherRecord{}, missingField("main.humidity")
	}
	if len(raw.Weather) == 0 {
		return model.WeatherRecord{}, fmt.Errorf("%w: no weather conditions returned", ErrValidation)
	}
	if raw.Weather[0].Description == nil {
		return model.WeatherRecord{}, missingField("weather[0].description")
	}

	record := model.WeatherRecord{
		City:        strings.TrimSpace(*raw.Name),
		Temperature: *raw.Main.Temp,
		Description: strings.TrimSpace(*raw.Weather[0].Description),
		Humidity:    *raw.Main.Humidity,
	}
	if err := validate.Struct(record); err != nil {
		return model.WeatherRecord{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return record, nil
}

func missingField(name string) error {
	return fmt.Errorf("%w: missing field %q", ErrValidation, name)
}
