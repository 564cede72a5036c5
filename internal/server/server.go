package server

import (
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/distributor/internal/config"
	"github.com/hashicorp-forge/distributor/pkg/auth"
	"github.com/hashicorp-forge/distributor/pkg/preparer"
	"github.com/hashicorp-forge/distributor/pkg/repository"
	"github.com/hashicorp-forge/distributor/pkg/subscriptions"
)

// Server contains the server configuration.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// DB is the database for the server.
	DB *gorm.DB

	// Repository stores the items served to remotes.
	Repository *repository.Repository

	// Preparer applies pushed meta, terms and media.
	Preparer *preparer.Preparer

	// Receiver handles subscription registrations and updates from origins.
	Receiver *subscriptions.Receiver

	// Verifier authenticates incoming requests. Requests are not
	// authenticated when it has no credentials.
	Verifier *auth.Verifier

	// Logger is the logger for the server.
	Logger hclog.Logger
}
