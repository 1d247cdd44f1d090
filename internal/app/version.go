package app

import (
	"fmt"
	"io"

	"github.com/cristianoliveira/ntfytoast/internal/activator"
	"github.com/cristianoliveira/ntfytoast/internal/config"
	"github.com/cristianoliveira/ntfytoast/internal/render"
	"github.com/cristianoliveira/ntfytoast/internal/version"
)

// VersionClient defines dependencies required to describe the build.
type VersionClient interface {
	Capabilities() ([]string, error)
}

// VersionInput represents version command inputs after flag parsing.
type VersionInput struct {
	AppID string
	Out   io.Writer
}

// VersionUseCase prints the version banner.
type VersionUseCase struct {
	client VersionClient
}

// NewVersionUseCase creates a new version use-case.
func NewVersionUseCase(client VersionClient) *VersionUseCase {
	if client == nil {
		panic("NewVersionUseCase: client dependency cannot be nil")
	}
	return &VersionUseCase{client: client}
}

// Execute prints the version, the identity and its activation id. Server
// capabilities are listed when the rendering service is reachable.
func (u *VersionUseCase) Execute(input VersionInput) error {
	appID := input.AppID
	if appID == "" {
		appID = config.Get("app_id", config.DefaultAppID)
	}
	b := render.Banner{
		Version:    version.String(),
		AppID:      appID,
		CallbackID: activator.CallbackID(appID).String(),
	}
	if caps, err := u.client.Capabilities(); err == nil {
		b.Capabilities = caps
	}
	_, err := fmt.Fprintln(input.Out, render.VersionBanner(b))
	return err
}
