package handlers

import (
	"photo-stream/internal/database"
	"photo-stream/internal/startup"
)

type Handlers struct {
	db       *database.Database
	pageSize int
}

func New(db *database.Database, config *startup.Config) *Handlers {
	return &Handlers{
		db:       db,
		pageSize: config.PageSize,
	}
}
