package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/allisson/filevault/cmd/app/commands"
	"github.com/allisson/filevault/internal/app"
	"github.com/allisson/filevault/internal/config"
)

func clientFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Value: config.DefaultClientConfigPath(),
			Usage: "Path to the client profile",
		},
	}, extra...)
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Destination path, '-' for stdout (defaults to the file name)",
	}
}

// withClient loads the client profile and, when restore is set, resumes the stored
// session before fn runs.
func withClient(
	ctx context.Context,
	cmd *cli.Command,
	restore bool,
	fn func(*app.ClientContainer) error,
) error {
	cfg, err := config.LoadClient(cmd.String("config"))
	if err != nil {
		return err
	}

	container := app.NewClientContainer(cfg)
	defer func() { _ = container.Shutdown(ctx) }()

	if restore {
		manager, err := container.Session()
		if err != nil {
			return err
		}
		if err := manager.Restore(ctx); err != nil {
			return err
		}
	}

	return fn(container)
}

func getClientCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "init",
			Usage: "Write the default client profile",
			Flags: clientFlags(&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing profile",
			}),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunInitClientConfig(commands.DefaultIO().Writer, cmd.String("config"), cmd.Bool("force"))
			},
		},
		{
			Name:  "signup",
			Usage: "Create a guest account",
			Flags: clientFlags(
				&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true, Usage: "Email address"},
				&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true, Usage: "Username"},
			),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withClient(ctx, cmd, false, func(c *app.ClientContainer) error {
					return commands.RunSignup(
						ctx,
						c.AuthAPI(),
						commands.NewPrompter(commands.DefaultIO()),
						commands.DefaultIO().Writer,
						cmd.String("email"),
						cmd.String("username"),
					)
				})
			},
		},
		{
			Name:  "login",
			Usage: "Sign in with a password and a TOTP code",
			Flags: clientFlags(&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"}),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withClient(ctx, cmd, false, func(c *app.ClientContainer) error {
					manager, err := c.Session()
					if err != nil {
						return err
					}
					return commands.RunLogin(
						ctx,
						manager,
						commands.NewPrompter(commands.DefaultIO()),
						commands.DefaultIO().Writer,
						cmd.String("email"),
					)
				})
			},
		},
		{
			Name:  "logout",
			Usage: "Sign out and forget the stored session",
			Flags: clientFlags(),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withClient(ctx, cmd, false, func(c *app.ClientContainer) error {
					manager, err := c.Session()
					if err != nil {
						return err
					}
					return commands.RunLogout(ctx, manager, commands.DefaultIO().Writer)
				})
			},
		},
		{
			Name:  "whoami",
			Usage: "Show the signed-in user",
			Flags: clientFlags(formatFlag()),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withClient(ctx, cmd, true, func(c *app.ClientContainer) error {
					manager, err := c.Session()
					if err != nil {
						return err
					}
					return commands.RunWhoami(manager, commands.DefaultIO().Writer, cmd.String("format"))
				})
			},
		},
		{
			Name:      "upload",
			Usage:     "Encrypt and upload a file",
			ArgsUsage: "<path>",
			Flags: clientFlags(
				&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Stored file name (defaults to the base name)"},
				&cli.StringFlag{Name: "mime-type", Aliases: []string{"m"}, Usage: "MIME type (detected when omitted)"},
				formatFlag(),
			),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withClient(ctx, cmd, true, func(c *app.ClientContainer) error {
					uploader, err := c.Uploader()
					if err != nil {
						return err
					}
					return commands.RunUpload(
						ctx,
						uploader,
						c.Logger(),
						commands.DefaultIO().Writer,
						cmd.Args().First(),
						cmd.String("name"),
						cmd.String("mime-type"),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:      "download",
			Usage:     "Download and decrypt a file",
			ArgsUsage: "<file-id>",
			Flags:     clientFlags(outputFlag()),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withClient(ctx, cmd, true, func(c *app.ClientContainer) error {
					retriever, err := c.Retriever()
					if err != nil {
						return err
					}
					return commands.RunDownload(
						ctx,
						retriever,
						commands.DefaultIO().Writer,
						cmd.Args().First(),
						cmd.String("output"),
					)
				})
			},
		},
		{
			Name:  "list",
			Usage: "List owned files or files shared with you",
			Flags: clientFlags(
				&cli.BoolFlag{Name: "shared", Aliases: []string{"s"}, Usage: "List files shared with you"},
				&cli.IntFlag{Name: "offset", Value: 0, Usage: "Number of files to skip"},
				&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 50, Usage: "Maximum number of files"},
				formatFlag(),
			),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withClient(ctx, cmd, true, func(c *app.ClientContainer) error {
					files, err := c.FilesAPI()
					if err != nil {
						return err
					}
					return commands.RunList(
						ctx,
						files,
						commands.DefaultIO().Writer,
						cmd.Bool("shared"),
						int(cmd.Int("offset")),
						int(cmd.Int("limit")),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:      "rm",
			Usage:     "Delete a file and its key",
			ArgsUsage: "<file-id>",
			Flags:     clientFlags(),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withClient(ctx, cmd, true, func(c *app.ClientContainer) error {
					remover, err := c.Remover()
					if err != nil {
						return err
					}
					return commands.RunRemove(ctx, remover, commands.DefaultIO().Writer, cmd.Args().First())
				})
			},
		},
		{
			Name:      "share",
			Usage:     "Share a file with a registered user",
			ArgsUsage: "<file-id>",
			Flags: clientFlags(
				&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true, Usage: "Recipient email"},
			),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withClient(ctx, cmd, true, func(c *app.ClientContainer) error {
					resolver, err := c.Resolver()
					if err != nil {
						return err
					}
					return commands.RunShare(ctx, resolver, commands.DefaultIO().Writer, cmd.Args().First(), cmd.String("email"))
				})
			},
		},
		{
			Name:      "share-link",
			Usage:     "Create a share link for a file",
			ArgsUsage: "<file-id>",
			Flags: clientFlags(
				&cli.DurationFlag{Name: "expires", Usage: "Link lifetime (server default when omitted)"},
				formatFlag(),
			),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withClient(ctx, cmd, true, func(c *app.ClientContainer) error {
					resolver, err := c.Resolver()
					if err != nil {
						return err
					}
					return commands.RunShareLink(
						ctx,
						resolver,
						commands.DefaultIO().Writer,
						cmd.Args().First(),
						cmd.Duration("expires"),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:      "open-link",
			Usage:     "Download and decrypt the file behind a share link",
			ArgsUsage: "<url-or-share-id>",
			Flags:     clientFlags(outputFlag()),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withClient(ctx, cmd, true, func(c *app.ClientContainer) error {
					resolver, err := c.Resolver()
					if err != nil {
						return err
					}
					return commands.RunOpenLink(
						ctx,
						resolver,
						commands.DefaultIO().Writer,
						cmd.Args().First(),
						cmd.String("output"),
					)
				})
			},
		},
		{
			Name:  "reconcile",
			Usage: "Retry journalled cleanup of ciphertexts and keys",
			Flags: clientFlags(
				&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Keep reconciling until interrupted"},
				&cli.DurationFlag{Name: "interval", Value: 30 * time.Second, Usage: "Interval between runs with --watch"},
				formatFlag(),
			),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withClient(ctx, cmd, true, func(c *app.ClientContainer) error {
					reconciler, err := c.Reconciler(cmd.Duration("interval"))
					if err != nil {
						return err
					}
					return commands.RunReconcile(
						ctx,
						reconciler,
						c.Logger(),
						commands.DefaultIO().Writer,
						cmd.Bool("watch"),
						cmd.String("format"),
					)
				})
			},
		},
	}
}
