package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/config"
	"github.com/robowatch/hub/internal/hubservice"
	"github.com/robowatch/hub/internal/models"
	"github.com/robowatch/hub/internal/server"
)

func rootCommand() *cobra.Command {
	var configDir string

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		return cfg, nil
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the hub HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Clear console and draw logo
			ClearConsole()
			DrawLogo()
			nuts.L.Infof("[Main] Starting RoboWatch Hub v%s", nuts.GetVersion())

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return server.New(cfg).Start()
		},
	}

	rootCmd := &cobra.Command{
		Use:           "robowatch-hub",
		Short:         "RoboWatch monitoring hub",
		Version:       nuts.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "directory containing config.yaml (searched before ./config)")

	rootCmd.AddCommand(serveCmd, migrateCommand(loadConfig), userCommand(loadConfig))
	return rootCmd
}

func migrateCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.Driver == config.DriverMemory {
				return fmt.Errorf("nothing to migrate for the %s driver", cfg.Database.Driver)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			stores, err := server.OpenStores(ctx, cfg)
			if err != nil {
				return err
			}
			stores.Close()
			nuts.L.Infof("[Main] Database schema is up to date")
			return nil
		},
	}
}

func userCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	var in hubservice.NewUser
	var role string

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a dashboard user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			stores, err := server.OpenStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer stores.Close()

			in.Role = models.Role(strings.ToUpper(role))
			svc := hubservice.New(hubservice.Dependencies{Users: stores.Users})
			user, err := svc.CreateUser(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&in.Name, "name", "", "display name")
	createCmd.Flags().StringVar(&in.Email, "email", "", "login email")
	createCmd.Flags().StringVar(&in.Password, "password", "", "password (at least 8 characters)")
	createCmd.Flags().StringVar(&role, "role", string(models.RoleUser), "ADMIN or USER")
	createCmd.MarkFlagRequired("email")
	createCmd.MarkFlagRequired("password")

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage dashboard users",
	}
	userCmd.AddCommand(createCmd)
	return userCmd
}
