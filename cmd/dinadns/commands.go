package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"gitlab.bluewillows.net/root/dinadns/internal/challenge"
	"gitlab.bluewillows.net/root/dinadns/internal/config"
	"gitlab.bluewillows.net/root/dinadns/internal/credentials"
	"gitlab.bluewillows.net/root/dinadns/internal/propagation"
	"gitlab.bluewillows.net/root/dinadns/pkg/provider"
	"gitlab.bluewillows.net/root/dinadns/providers/dinahosting"
)

const defaultCredentialsFile = "dinahosting.ini"

func challengeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "domain",
			Aliases:  []string{"d"},
			Usage:    "domain being validated",
			EnvVars:  []string{"CERTBOT_DOMAIN"},
			Required: true,
		},
		&cli.StringFlag{
			Name:     "validation",
			Usage:    "TXT record value",
			EnvVars:  []string{"CERTBOT_VALIDATION"},
			Required: true,
		},
		&cli.StringFlag{
			Name:  "validation-name",
			Usage: "record name, defaults to _acme-challenge.<domain>",
		},
	}
}

func (a *app) performCommand() *cli.Command {
	return &cli.Command{
		Name:  "perform",
		Usage: "create the validation TXT record and wait for propagation",
		Flags: append(challengeFlags(), &cli.BoolFlag{
			Name:  "no-wait",
			Usage: "return as soon as the record is created",
		}),
		Action: func(c *cli.Context) error {
			auth, err := a.authenticator()
			if err != nil {
				return err
			}

			domain := c.String("domain")
			name := validationName(c, domain)
			value := c.String("validation")

			if err := auth.Perform(c.Context, domain, name, value); err != nil {
				return err
			}

			if c.Bool("no-wait") {
				return nil
			}

			waiter, err := propagation.New(a.cfg.Propagation, a.logger)
			if err != nil {
				return err
			}

			a.logger.Info("waiting for propagation",
				slog.String("record", name),
				slog.String("mode", a.cfg.Propagation.Mode),
			)
			return waiter.Wait(c.Context, name, value)
		},
	}
}

func (a *app) cleanupCommand() *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "remove the validation TXT record",
		Flags: challengeFlags(),
		Action: func(c *cli.Context) error {
			auth, err := a.authenticator()
			if err != nil {
				return err
			}

			domain := c.String("domain")
			return auth.Cleanup(c.Context, domain, validationName(c, domain), c.String("validation"))
		},
	}
}

func (a *app) checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "resolve the zone that would host each domain's validation record",
		ArgsUsage: "DOMAIN...",
		Action: func(c *cli.Context) error {
			domains := c.Args().Slice()
			if len(domains) == 0 {
				return cli.Exit("at least one domain is required", 2)
			}

			auth, err := a.authenticator()
			if err != nil {
				return err
			}

			failed := 0
			for _, domain := range domains {
				zoneName, err := auth.Resolve(c.Context, domain)
				if err != nil {
					failed++
					fmt.Fprintf(c.App.Writer, "%s %s: %v\n", color.RedString("FAIL"), domain, err)
					continue
				}
				fmt.Fprintf(c.App.Writer, "%s %s -> %s\n", color.GreenString("OK"), domain, zoneName)
			}

			if failed > 0 {
				return cli.Exit(color.YellowString("%d of %d domains could not be resolved", failed, len(domains)), 1)
			}
			return nil
		},
	}
}

func (a *app) credentialsCommand() *cli.Command {
	return &cli.Command{
		Name:  "credentials",
		Usage: "manage the Dinahosting credentials file",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "write a credentials file, prompting for the password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "file to write, defaults to --credentials or " + defaultCredentialsFile,
					},
					&cli.StringFlag{
						Name:  "username",
						Usage: "account username",
					},
					&cli.IntFlag{
						Name:  "ttl",
						Usage: "TTL stored alongside the credentials, 0 to omit",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "overwrite an existing file",
					},
				},
				Action: a.credentialsInit,
			},
		},
	}
}

func (a *app) credentialsInit(c *cli.Context) error {
	path := c.String("path")
	if path == "" {
		path = a.cfg.CredentialsPath
	}
	if path == "" {
		path = defaultCredentialsFile
	}

	in := bufio.NewReader(os.Stdin)

	username := c.String("username")
	if username == "" {
		fmt.Fprint(c.App.Writer, "Dinahosting username: ")
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading username: %w", err)
		}
		username = strings.TrimSpace(line)
	}

	password, err := readPassword(c.App.Writer, in)
	if err != nil {
		return err
	}

	creds := credentials.Credentials{
		Username: username,
		Password: password,
		TTL:      c.Int("ttl"),
	}
	if err := credentials.Write(path, dinahosting.TypeName, creds, c.Bool("force")); err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, color.GreenString("wrote %s", path))
	return nil
}

// readPassword prompts without echo on a terminal and falls back to a plain
// line read when stdin is piped.
func readPassword(w io.Writer, in *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(w, "Dinahosting password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(raw), nil
}

func validationName(c *cli.Context, domain string) string {
	if name := c.String("validation-name"); name != "" {
		return name
	}
	return provider.ValidationName(domain)
}

// authenticator wires credentials, the provider registry and the zone
// resolver into a challenge.Authenticator.
func (a *app) authenticator() (*challenge.Authenticator, error) {
	creds, err := a.loadCredentials()
	if err != nil {
		return nil, err
	}

	registry := provider.NewRegistry(a.logger)
	registry.RegisterFactory(dinahosting.TypeName, dinahosting.Factory())

	if err := config.ValidateProviderType(a.cfg.Provider, registry.Types()); err != nil {
		return nil, err
	}

	ttl := creds.TTL
	if a.cfg.TTL > 0 {
		ttl = a.cfg.TTL
	}

	userAgent := a.cfg.UserAgent
	if userAgent == "" {
		userAgent = "dinadns/" + Version
	}

	build, err := registry.Builder(a.cfg.Provider, provider.FactoryConfig{
		Username: creds.Username,
		Password: creds.Password,
		TTL:      ttl,
		Settings: map[string]string{"ENDPOINT": a.cfg.Endpoint},
		HTTP: provider.HTTPConfig{
			Timeout:   a.cfg.HTTPTimeout,
			UserAgent: userAgent,
			Logger:    a.logger,
		},
	})
	if err != nil {
		return nil, err
	}

	return challenge.New(build, challenge.WithLogger(a.logger))
}

func (a *app) loadCredentials() (*credentials.Credentials, error) {
	if a.cfg.CredentialsPath != "" {
		return credentials.Load(a.cfg.CredentialsPath, dinahosting.TypeName, credentials.WithLogger(a.logger))
	}
	return credentials.FromEnv()
}
