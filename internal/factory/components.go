package factory

import (
	"github.com/rs/zerolog"

	"github.com/mycelian/travelmap/internal/config"
	"github.com/mycelian/travelmap/internal/geocode"
	"github.com/mycelian/travelmap/internal/mediacodec"
)

// NewGeocoder builds the place resolver from cfg.
func NewGeocoder(cfg *config.Config, log zerolog.Logger) (*geocode.Client, error) {
	return geocode.New(cfg.GeocoderURL,
		geocode.WithUserAgent(cfg.GeocoderUserAgent),
		geocode.WithTimeout(cfg.GeocoderTimeout()),
		geocode.WithMaxAttempts(cfg.GeocoderMaxAttempts),
		geocode.WithCacheSize(cfg.GeocoderCacheSize),
		geocode.WithLogger(log.With().Str("component", "geocoder").Logger()),
	)
}

// NewCodec builds the media encoder from cfg.
func NewCodec(cfg *config.Config, log zerolog.Logger) *mediacodec.Codec {
	return mediacodec.New(
		mediacodec.WithMaxBytes(cfg.MaxMediaBytes),
		mediacodec.WithThumbnailSize(cfg.ThumbnailSize),
		mediacodec.WithLogger(log.With().Str("component", "mediacodec").Logger()),
	)
}
