package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/mycelian/travelmap/internal/service"
)

func main() {
	if err := service.Run(); err != nil {
		log.Error().Err(err).Msg("travelmap-service exited with error")
		os.Exit(1)
	}
}
