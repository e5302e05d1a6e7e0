// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
)

// New builds the clawdhub command tree
func New() *cli.Command {
	return &cli.Command{
		Name:  "clawdhub",
		Usage: "Install, publish, and manage agent skills from a clawdhub registry",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "registry",
				Usage:   "registry base URL",
				Sources: cli.EnvVars("CLAWDHUB_REGISTRY"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "API token (overrides the config file)",
				Sources: cli.EnvVars("CLAWDHUB_TOKEN"),
			},
			&cli.StringFlag{
				Name:  "workdir",
				Usage: "working directory for installed skills",
				Value: ".",
			},
		},
		Commands: []*cli.Command{
			searchCommand(),
			installCommand(),
			updateCommand(),
			listCommand(),
			publishCommand(),
			deleteCommand(),
			undeleteCommand(),
			whoamiCommand(),
			loginCommand(),
		},
	}
}

// clientFromFlags resolves registry URL and token from flags and the
// user config file, flags winning.
func clientFromFlags(cmd *cli.Command) (*registryClient, error) {
	cfg, err := LoadUserConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	registry := cmd.String("registry")
	if registry == "" {
		registry = cfg.Registry
	}
	if registry == "" {
		registry = DefaultRegistry
	}

	token := cmd.String("token")
	if token == "" {
		token = cfg.Token
	}

	return newRegistryClient(registry, token), nil
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search skills on the registry",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "maximum results", Value: 20},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := cmd.Args().First()
			if query == "" {
				return fmt.Errorf("usage: clawdhub search <query>")
			}
			client, err := clientFromFlags(cmd)
			if err != nil {
				return err
			}
			result, err := client.Search(ctx, query, int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			if len(result.Skills) == 0 {
				fmt.Println("No skills found.")
				return nil
			}
			for _, s := range result.Skills {
				fmt.Printf("%-30s %8d downloads  %s\n", s.Slug, s.Downloads, s.Summary)
			}
			fmt.Printf("%d result(s), %s search\n", result.Total, result.Mode)
			return nil
		},
	}
}

func installCommand() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "Install a skill into the workdir",
		ArgsUsage: "<slug>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "version", Usage: "exact version to install"},
			&cli.StringFlag{Name: "tag", Usage: "tag to install (default latest)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			slug := cmd.Args().First()
			if slug == "" {
				return fmt.Errorf("usage: clawdhub install <slug>")
			}
			client, err := clientFromFlags(cmd)
			if err != nil {
				return err
			}
			resolved, err := client.Resolve(ctx, slug, cmd.String("version"), cmd.String("tag"))
			if err != nil {
				return err
			}
			workdir := cmd.String("workdir")
			if err := installSkill(ctx, client, workdir, resolved); err != nil {
				return err
			}
			fmt.Printf("Installed %s@%s into %s\n",
				resolved.Slug, resolved.Version, filepath.Join(workdir, skillsDir, resolved.Slug))
			return nil
		},
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Update installed skills to their latest versions",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := clientFromFlags(cmd)
			if err != nil {
				return err
			}
			workdir := cmd.String("workdir")
			lf, err := LoadLockfile(workdir)
			if err != nil {
				return err
			}
			if len(lf.Skills) == 0 {
				fmt.Println("No skills installed.")
				return nil
			}
			for slug, locked := range lf.Skills {
				resolved, err := client.Resolve(ctx, slug, "", "")
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", slug, err)
					continue
				}
				if resolved.Version == locked.Version {
					fmt.Printf("%s@%s is up to date\n", slug, locked.Version)
					continue
				}
				if err := installSkill(ctx, client, workdir, resolved); err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", slug, err)
					continue
				}
				fmt.Printf("Updated %s %s -> %s\n", slug, locked.Version, resolved.Version)
			}
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List skills installed in the workdir",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			lf, err := LoadLockfile(cmd.String("workdir"))
			if err != nil {
				return err
			}
			if len(lf.Skills) == 0 {
				fmt.Println("No skills installed.")
				return nil
			}
			for slug, locked := range lf.Skills {
				fmt.Printf("%-30s %s\n", slug, locked.Version)
			}
			return nil
		},
	}
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Publish a skill directory as a new version",
		ArgsUsage: "<dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "slug", Usage: "skill slug (defaults to the directory name)"},
			&cli.StringFlag{Name: "name", Usage: "display name"},
			&cli.StringFlag{Name: "summary", Usage: "one-line summary"},
			&cli.StringFlag{Name: "version", Usage: "semver version to publish", Required: true},
			&cli.StringFlag{Name: "changelog", Usage: "changelog entry for this version"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				return fmt.Errorf("usage: clawdhub publish <dir>")
			}
			slug := cmd.String("slug")
			if slug == "" {
				abs, err := filepath.Abs(dir)
				if err != nil {
					return err
				}
				slug = filepath.Base(abs)
			}
			files, err := collectFiles(dir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no files to publish in %s", dir)
			}
			client, err := clientFromFlags(cmd)
			if err != nil {
				return err
			}
			changelog, changelogSource := changelogFor(cmd.String("changelog"), cmd.String("version"), len(files))
			result, err := client.Publish(ctx, &publishPayload{
				Slug:            slug,
				DisplayName:     cmd.String("name"),
				Summary:         cmd.String("summary"),
				Version:         cmd.String("version"),
				Changelog:       changelog,
				ChangelogSource: changelogSource,
				Files:           files,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Published %s@%s (scan: %s)\n", result.Slug, result.Version, result.ScanStatus)
			return nil
		},
	}
}

// changelogFor returns the changelog entry and its source. A changelog
// written by the user is manual; when none is given the CLI generates
// one, marked auto so the registry can tell them apart.
func changelogFor(flagValue, version string, fileCount int) (string, string) {
	if flagValue != "" {
		return flagValue, "manual"
	}
	return fmt.Sprintf("Publish %s (%d files)", version, fileCount), "auto"
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete one of your skills",
		ArgsUsage: "<slug>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			slug := cmd.Args().First()
			if slug == "" {
				return fmt.Errorf("usage: clawdhub delete <slug>")
			}
			client, err := clientFromFlags(cmd)
			if err != nil {
				return err
			}
			if err := client.Delete(ctx, slug); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", slug)
			return nil
		},
	}
}

func undeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "undelete",
		Usage:     "Restore one of your deleted skills",
		ArgsUsage: "<slug>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			slug := cmd.Args().First()
			if slug == "" {
				return fmt.Errorf("usage: clawdhub undelete <slug>")
			}
			client, err := clientFromFlags(cmd)
			if err != nil {
				return err
			}
			if err := client.Undelete(ctx, slug); err != nil {
				return err
			}
			fmt.Printf("Restored %s\n", slug)
			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the authenticated user",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := clientFromFlags(cmd)
			if err != nil {
				return err
			}
			who, err := client.Whoami(ctx)
			if err != nil {
				return err
			}
			if who.Handle != "" {
				fmt.Printf("%s (%s)\n", who.Handle, who.UserID)
			} else {
				fmt.Println(who.UserID)
			}
			return nil
		},
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Store a registry token in the config file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "with-token", Usage: "token to store", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return err
			}
			cfg.Token = cmd.String("with-token")
			if registry := cmd.String("registry"); registry != "" {
				cfg.Registry = registry
			}
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			fmt.Println("Token saved.")
			return nil
		},
	}
}
