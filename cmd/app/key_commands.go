package main

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/allisson/keystorage/cmd/app/commands"
	"github.com/allisson/keystorage/internal/app"
	"github.com/allisson/keystorage/internal/config"
	keysDomain "github.com/allisson/keystorage/internal/keys/domain"
	keysUsecase "github.com/allisson/keystorage/internal/keys/usecase"
)

// identityFunc builds the key identity addressed by a command's flags.
type identityFunc func(cmd *cli.Command) keysDomain.KeyIdentity

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "user-key",
			Usage: "Manage per-user keys of an encryption module",
			Commands: keySubcommands(
				[]cli.Flag{
					&cli.StringFlag{
						Name:     "uid",
						Aliases:  []string{"u"},
						Required: true,
						Usage:    "Owner of the key",
					},
				},
				func(cmd *cli.Command) keysDomain.KeyIdentity {
					return keysDomain.NewUserKeyIdentity(cmd.String("uid"), cmd.String("key-id"), cmd.String("module"))
				},
			),
		},
		{
			Name:  "system-key",
			Usage: "Manage system-wide keys of an encryption module",
			Commands: keySubcommands(
				nil,
				func(cmd *cli.Command) keysDomain.KeyIdentity {
					return keysDomain.NewSystemUserKeyIdentity(cmd.String("key-id"), cmd.String("module"))
				},
			),
		},
		{
			Name:  "file-key",
			Usage: "Manage per-file keys of an encryption module",
			Commands: append(
				keySubcommands(
					[]cli.Flag{pathFlag()},
					func(cmd *cli.Command) keysDomain.KeyIdentity {
						return keysDomain.NewFileKeyIdentity(cmd.String("path"), cmd.String("key-id"), cmd.String("module"))
					},
				),
				&cli.Command{
					Name:  "delete-all",
					Usage: "Delete every key stored for a file",
					Flags: []cli.Flag{pathFlag(), moduleFlag(), formatFlag()},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						return withKeyStore(ctx, func(store keysUsecase.KeyStore, logger *slog.Logger) error {
							return commands.RunDeleteAllFileKeys(
								ctx,
								store,
								logger,
								commands.DefaultIO().Writer,
								cmd.String("path"),
								cmd.String("module"),
								cmd.String("format"),
							)
						})
					},
				},
			),
		},
	}
}

func getTransferCommands() []*cli.Command {
	return []*cli.Command{
		transferCommand(commands.TransferRename, "rename-keys", "Move the keys of a renamed file or folder"),
		transferCommand(commands.TransferCopy, "copy-keys", "Copy the keys of a copied file or folder"),
	}
}

// keySubcommands returns the get, set and delete commands for one key kind.
// extra holds the flags that address the key owner besides key id and module.
func keySubcommands(extra []cli.Flag, identity identityFunc) []*cli.Command {
	flags := func(more ...cli.Flag) []cli.Flag {
		result := append([]cli.Flag{}, extra...)
		result = append(result, keyIDFlag(), moduleFlag())
		result = append(result, more...)
		return append(result, formatFlag())
	}

	return []*cli.Command{
		{
			Name:  "get",
			Usage: "Print a key, base64 encoded",
			Flags: flags(),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withKeyStore(ctx, func(store keysUsecase.KeyStore, logger *slog.Logger) error {
					return commands.RunGetKey(
						ctx,
						store,
						logger,
						commands.DefaultIO().Writer,
						identity(cmd),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "set",
			Usage: "Store a key",
			Flags: flags(&cli.StringFlag{
				Name:  "value",
				Usage: "Base64 encoded key (omit to read it from stdin)",
			}),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withKeyStore(ctx, func(store keysUsecase.KeyStore, logger *slog.Logger) error {
					return commands.RunSetKey(
						ctx,
						store,
						logger,
						commands.DefaultIO(),
						identity(cmd),
						cmd.String("value"),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "delete",
			Usage: "Delete a key",
			Flags: flags(),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withKeyStore(ctx, func(store keysUsecase.KeyStore, logger *slog.Logger) error {
					return commands.RunDeleteKey(
						ctx,
						store,
						logger,
						commands.DefaultIO().Writer,
						identity(cmd),
						cmd.String("format"),
					)
				})
			},
		},
	}
}

func transferCommand(op, name, usage string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "source",
				Aliases:  []string{"s"},
				Required: true,
				Usage:    "Logical path before the operation (e.g., /alice/files/doc.txt)",
			},
			&cli.StringFlag{
				Name:     "target",
				Aliases:  []string{"t"},
				Required: true,
				Usage:    "Logical path after the operation",
			},
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withKeyStore(ctx, func(store keysUsecase.KeyStore, logger *slog.Logger) error {
				return commands.RunTransferKeys(
					ctx,
					store,
					logger,
					commands.DefaultIO().Writer,
					op,
					cmd.String("source"),
					cmd.String("target"),
					cmd.String("format"),
				)
			})
		},
	}
}

// withKeyStore runs fn with a key store scoped to one command invocation.
func withKeyStore(
	ctx context.Context,
	fn func(store keysUsecase.KeyStore, logger *slog.Logger) error,
) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	defer func() { _ = container.Shutdown(ctx) }()

	store, err := container.NewKeyStore()
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store, container.Logger())
}

func keyIDFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "key-id",
		Aliases:  []string{"k"},
		Required: true,
		Usage:    "Key identifier (e.g., privateKey, publicKey, fileKey)",
	}
}

func moduleFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "module",
		Aliases:  []string{"m"},
		Required: true,
		Usage:    "Encryption module id (e.g., encryption_module_0)",
	}
}

func pathFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "path",
		Aliases:  []string{"p"},
		Required: true,
		Usage:    "Logical file path (e.g., /alice/files/doc.txt)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}
