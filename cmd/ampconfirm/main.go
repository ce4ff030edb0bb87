package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/olekukonko/tablewriter"
	"github.com/ruteri/amp-confirm/action"
	"github.com/ruteri/amp-confirm/cmd/flags"
	"github.com/ruteri/amp-confirm/common"
	"github.com/ruteri/amp-confirm/node"
	"github.com/ruteri/amp-confirm/registry"
	"github.com/ruteri/amp-confirm/storage"
	"github.com/ruteri/amp-confirm/workflow"
	"github.com/urfave/cli/v2"
)

const registryTimeout = 60 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args, os.Stdout)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

func init() {
	// -v selects debug logging.
	cli.VersionFlag = &cli.BoolFlag{
		Name:               "version",
		Usage:              "print the version",
		DisableDefaultText: true,
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	app := &cli.App{
		Name:                 "ampconfirm",
		Usage:                "Carry out asset registry actions on an Elements node",
		Version:              common.Version,
		Writer:               out,
		ErrWriter:            out,
		Flags:                flags.GlobalFlags,
		Before:               flags.LoadConfig,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:  string(action.KindReissue),
				Usage: "Reissue an asset as requested by the registry",
				Flags: []cli.Flag{
					flags.FilenameFlag,
					flags.UseExistingFlag,
					flags.IgnoreJournalFlag,
					flags.SplitReissuanceTokenFlag,
				},
				Action: actionCommand(action.KindReissue, args),
			},
			{
				Name:  string(action.KindDistribute),
				Usage: "Distribute an asset as requested by the registry",
				Flags: []cli.Flag{
					flags.FilenameFlag,
					flags.UseExistingFlag,
					flags.IgnoreJournalFlag,
				},
				Action: actionCommand(action.KindDistribute, args),
			},
			{
				Name:  string(action.KindBurn),
				Usage: "Burn an asset as requested by the registry",
				Flags: []cli.Flag{
					flags.FilenameFlag,
					flags.UseExistingFlag,
					flags.IgnoreJournalFlag,
				},
				Action: actionCommand(action.KindBurn, args),
			},
			{
				Name:  string(action.KindUpdateBlinders),
				Usage: "Send the blinding factors of the asset's issuance outputs to the registry",
				Flags: []cli.Flag{
					flags.BaseURLFlag,
					flags.AssetUUIDFlag,
				},
				Action: actionCommand(action.KindUpdateBlinders, args),
			},
			{
				Name:  "journal",
				Usage: "Inspect the checkpoint journal",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List journal records",
						Flags:  []cli.Flag{flags.IntentFlag},
						Action: listJournal,
					},
				},
			},
		},
	}

	return app.RunContext(ctx, args)
}

func actionCommand(kind action.Kind, args []string) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		log := flags.SetupLogger(cCtx)

		err := runAction(cCtx, kind, args, log)
		if err != nil {
			log.Error("Action failed",
				slog.String("command", string(kind)),
				slog.String("class", workflow.Classify(err).String()),
				"err", err)
		}
		return err
	}
}

func runAction(cCtx *cli.Context, kind action.Kind, args []string, log *slog.Logger) error {
	if err := flags.RequireStrings(cCtx, flags.UsernameFlag.Name, flags.NodeURLFlag.Name); err != nil {
		return err
	}

	var (
		req *action.Request
		err error
	)
	if kind.UsesActionFile() {
		req, err = action.LoadRequest(cCtx.String(flags.FilenameFlag.Name), kind, action.Options{
			SplitReissuanceToken: cCtx.Bool(flags.SplitReissuanceTokenFlag.Name),
		})
	} else {
		req, err = action.NewUpdateBlindersRequest(cCtx.String(flags.BaseURLFlag.Name), cCtx.String(flags.AssetUUIDFlag.Name))
	}
	if err != nil {
		return err
	}

	var checkpoint *action.Checkpoint
	if existing := cCtx.String(flags.UseExistingFlag.Name); existing != "" {
		checkpoint, err = action.ParseCheckpoint(existing)
		if err != nil {
			return err
		}
	}

	password, err := flags.Password(cCtx, os.Stdin, cCtx.App.ErrWriter)
	if err != nil {
		return err
	}

	nodeClient, err := node.NewClient(cCtx.Context, node.Config{
		URL:          cCtx.String(flags.NodeURLFlag.Name),
		TorSocksAddr: cCtx.String(flags.TorSocksFlag.Name),
	}, log)
	if err != nil {
		return err
	}
	defer nodeClient.Close()

	registries := registry.NewFactory(cCtx.String(flags.UsernameFlag.Name), password,
		&http.Client{Timeout: registryTimeout}, log)

	journal, err := storage.NewJournal(cCtx.String(flags.JournalFlag.Name), clock.New(), log)
	if err != nil {
		return err
	}
	defer journal.Close()

	runner := workflow.NewRunner(nodeClient, registries, journal, clock.New(), workflow.Config{
		SettleDelay:     cCtx.Duration(flags.SettleDelayFlag.Name),
		ConfirmInterval: cCtx.Duration(flags.ConfirmIntervalFlag.Name),
		ConfirmTimeout:  cCtx.Duration(flags.ConfirmTimeoutFlag.Name),
		IgnoreJournal:   cCtx.Bool(flags.IgnoreJournalFlag.Name),
		Args:            args,
	}, log)

	_, err = runner.Run(cCtx.Context, req, checkpoint)
	return err
}

func listJournal(cCtx *cli.Context) error {
	log := flags.SetupLogger(cCtx)

	journal, err := storage.NewJournal(cCtx.String(flags.JournalFlag.Name), clock.New(), log)
	if err != nil {
		return err
	}
	defer journal.Close()

	records, err := journal.Records(cCtx.Context, cCtx.String(flags.IntentFlag.Name))
	if err != nil {
		return fmt.Errorf("could not read journal %s: %w", journal.LocationURI(), err)
	}

	table := tablewriter.NewWriter(cCtx.App.Writer)
	table.SetHeader([]string{"Recorded at", "Kind", "Asset", "Stage", "Checkpoint", "Intent"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for _, rec := range records {
		table.Append([]string{
			rec.RecordedAt.Format(time.RFC3339),
			rec.Kind,
			rec.AssetUUID,
			string(rec.Stage),
			rec.Checkpoint,
			shortIntent(rec.Intent),
		})
	}
	table.Render()
	return nil
}

func shortIntent(intent string) string {
	if len(intent) > 12 {
		return intent[:12]
	}
	return intent
}
