package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"laptudirm.com/x/hyperchess/internal/hyperchess/cmd"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		PadLevelText:     true,
	})
	logrus.SetLevel(logrus.InfoLevel)

	if err := hyperchess(); err != nil {
		logrus.Fatal(err)
	}
}

func hyperchess() error {
	// A .env file is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := cmd.Root()
	root.SetArgs(os.Args[1:])
	return root.ExecuteContext(ctx)
}
