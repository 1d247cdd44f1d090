package app

import (
	"fmt"

	"github.com/cristianoliveira/ntfytoast/internal/colors"
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
	"github.com/cristianoliveira/ntfytoast/internal/shortcut"
)

// InstallClient defines dependencies required to register an identity.
type InstallClient interface {
	Install(opts shortcut.Options) (shortcut.Result, error)
}

// InstallInput represents install command arguments.
type InstallInput struct {
	Shortcut string
	Exe      string
	AppID    string
}

// InstallUseCase registers an application identity with the desktop.
type InstallUseCase struct {
	client InstallClient
}

// NewInstallUseCase creates a new install use-case.
func NewInstallUseCase(client InstallClient) *InstallUseCase {
	if client == nil {
		panic("NewInstallUseCase: client dependency cannot be nil")
	}
	return &InstallUseCase{client: client}
}

// Execute installs the desktop entry and service file. Existing files are
// kept and reported.
func (u *InstallUseCase) Execute(input InstallInput) (shortcut.Result, error) {
	if input.Shortcut == "" || input.Exe == "" || input.AppID == "" {
		return shortcut.Result{}, ntfyerrors.New(ntfyerrors.ValidationFailed, "install",
			"supply arguments as install <shortcut> <application> <app id>")
	}

	res, err := u.client.Install(shortcut.Options{
		Shortcut: input.Shortcut,
		Exec:     input.Exe,
		AppID:    input.AppID,
	})
	if err != nil {
		return res, fmt.Errorf("install: %w", err)
	}

	report(res.DesktopCreated, res.DesktopPath)
	report(res.ServiceCreated, res.ServicePath)
	return res, nil
}

func report(created bool, path string) {
	if created {
		colors.Success("Installed " + path)
		return
	}
	colors.Info("Path: " + path + " already exists, skip creation")
}
