package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tryonapi/client"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "tryon",
		Usage: "submit a virtual try-on against a running relay",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Usage: "relay base URL",
				Value: "http://localhost:3001",
			},
			&cli.StringFlag{
				Name:     "model",
				Usage:    "path to the model photo",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "garment",
				Usage:    "path to the garment photo",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "category",
				Usage: "tops, bottoms or one-pieces",
				Value: client.DefaultCategory,
			},
		},
		Action: runTryOn,
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func runTryOn(ctx context.Context, cmd *cli.Command) error {
	api := client.NewClient(cmd.String("server"))
	if !api.CheckHealth(ctx) {
		return fmt.Errorf("relay at %s is not reachable", cmd.String("server"))
	}

	session := client.NewSession(api)
	session.SetModelImage(cmd.String("model"))
	session.SetGarmentImage(cmd.String("garment"))
	session.SetCategory(cmd.String("category"))

	fmt.Println("Submitting try-on job, this can take up to two minutes...")
	if err := session.Submit(ctx); err != nil {
		state := session.Snapshot()
		return fmt.Errorf("try-on failed (%s): %s", state.Status, state.ErrorMessage)
	}

	state := session.Snapshot()
	fmt.Printf("Result: %s\n", state.ResultURL)
	return nil
}
