package services

import (
	"context"

	"pdf-coview/internal/models"
)

/*
Interfaces live with their consumer: this package declares only the
repository methods its services call, and the repository package returns
concrete types.
*/

// DocumentRepository defines what the upload service needs from the
// document ledger.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	DeleteByURL(ctx context.Context, url string) error
}

// DocumentDeleter is what the cleanup workers call for each job.
type DocumentDeleter interface {
	DeleteByURL(ctx context.Context, url string) error
}
