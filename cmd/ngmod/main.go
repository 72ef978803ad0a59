package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name:   "ngmod",
		Usage:  "chat moderation bot",
		Action: runBot,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "connect to the chat gateway and moderate incoming messages",
				Action: runBot,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations and exit",
				Action: runMigrate,
			},
			{
				Name:   "sweep",
				Usage:  "lift every expired mute once and exit",
				Action: runSweep,
			},
			{
				Name:      "allow",
				Usage:     "add a user to the allowlist",
				ArgsUsage: "<user id>",
				Action:    runAllow,
			},
			{
				Name:      "disallow",
				Usage:     "remove a user from the allowlist",
				ArgsUsage: "<user id>",
				Action:    runDisallow,
			},
			{
				Name:   "allowed",
				Usage:  "list allowlisted users",
				Action: runListAllowed,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("exiting")
	}
}
