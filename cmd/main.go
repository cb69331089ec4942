package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"tradesync/cmd/tokens"
	"tradesync/src/database"
	"tradesync/src/server"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "TradeSync CMD"
	app.Usage = "The TradeSync command line interface"

	app.Commands = []cli.Command{
		serveCMD,
		webhookTokenCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run the API server",
		Action:      serveAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the ingestion and copy API server`,
	}
	webhookTokenCMD = cli.Command{
		Name:        "webhook-token",
		Usage:       "rotate a user's webhook token",
		Action:      webhookTokenAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Rotate the signal webhook token for the user named by USER_EMAIL`,
	}
)

func serveAction(_ *cli.Context) error {

	logrus.Info("Starting server CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	server.StartServer(os.Getenv("SERVER_PORT"))

	return nil
}

func webhookTokenAction(_ *cli.Context) error {

	logrus.Info("Starting webhook-token CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	rotator := &tokens.Rotator{
		Log: logrus.WithField("cmd", "webhook-token"),
	}
	if err := rotator.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
