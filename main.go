package main

import (
	"github.com/veilboard/veilboard/config"
	"github.com/veilboard/veilboard/models"
	"github.com/veilboard/veilboard/routes"
	"github.com/veilboard/veilboard/services"
	"github.com/veilboard/veilboard/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.CheckIn{},
		&models.Post{},
		&models.Comment{},
		&models.Message{},
	)

	bus := services.NewEventBus()
	counter := services.NewNotificationCounter(utils.GetRedis())
	subID := counter.Attach(bus)
	defer bus.Unsubscribe(subID)

	r := routes.SetupRouter(db, bus, counter)

	utils.Sugar.Infof("starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
