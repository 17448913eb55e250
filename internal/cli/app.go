package cli

import (
	"fmt"

	"gorm.io/gorm"

	"routine-tracker/internal/config"
	"routine-tracker/internal/repository"
	"routine-tracker/internal/service"
)

// app wires repositories and services over one database.
type app struct {
	cfg        config.Config
	db         *gorm.DB
	users      *repository.UserRepository
	planner    *service.PlannerService
	categories *service.CategoryService
	transfer   *service.TransferService
	reminder   *service.ReminderService
}

func openApp(load loader) (*app, error) {
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL, repository.Options{LogSQL: cfg.LogSQL})
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	templateRepo := repository.NewTemplateRepository(db)
	oneoffRepo := repository.NewOneOffRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	planner := service.NewPlannerService(templateRepo, oneoffRepo, completionRepo, cfg.Location)
	categories := service.NewCategoryService(categoryRepo)
	return &app{
		cfg:        cfg,
		db:         db,
		users:      repository.NewUserRepository(db),
		planner:    planner,
		categories: categories,
		transfer:   service.NewTransferService(templateRepo, oneoffRepo, completionRepo, categoryRepo),
		reminder:   service.NewReminderService(planner, categories),
	}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
