package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/legalhold/internal/config"
)

// ConfigCommand returns the config command
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize a new configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "legalhold.toml",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration file",
				Action: runConfigValidate,
			},
			{
				Name:  "env",
				Usage: "Show which environment overrides are set",
				Action: func(c *cli.Context) error {
					if err := loadDotEnv(c.String("env-file"), c.IsSet("env-file")); err != nil {
						return err
					}
					result := CheckRequiredConfig()
					PrintConfigCheck(result)
					if len(result.Missing) > 0 {
						return fmt.Errorf("%d required variable(s) missing", len(result.Missing))
					}
					return nil
				},
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.InitConfig(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Created configuration file at %s\n", outputPath)
	return nil
}

func runConfigValidate(c *cli.Context) error {
	if _, err := loadValidConfig(c); err != nil {
		return err
	}

	fmt.Println("Configuration is valid")
	return nil
}
