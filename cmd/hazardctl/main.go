// Command hazardctl is the operator tool: it explains scoring decisions,
// runs a crawl cycle by hand and applies moderation actions.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	kafkaadapter "github.com/couchcryptid/vn-hazard-radar/internal/adapter/kafka"
	"github.com/couchcryptid/vn-hazard-radar/internal/app"
	"github.com/couchcryptid/vn-hazard-radar/internal/catalog"
	"github.com/couchcryptid/vn-hazard-radar/internal/config"
	"github.com/couchcryptid/vn-hazard-radar/internal/moderation"
	"github.com/couchcryptid/vn-hazard-radar/internal/observability"
	"github.com/couchcryptid/vn-hazard-radar/internal/province"
	"github.com/couchcryptid/vn-hazard-radar/internal/risk"
	"github.com/couchcryptid/vn-hazard-radar/internal/scorer"
	"github.com/couchcryptid/vn-hazard-radar/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hazardctl",
		Short:         "Operate the disaster news radar",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		diagnoseCmd(),
		assessCmd(),
		sourcesCmd(),
		crawlCmd(),
		rejectCmd(),
		deleteEventCmd(),
		tailCmd(),
	)
	return cmd
}

// env loads the configuration and a logger writing to stderr.
func env(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

type diagnosis struct {
	Status            string           `json:"status"`
	PrimaryType       string           `json:"primary_type"`
	Labels            []string         `json:"labels"`
	Province          string           `json:"province"`
	NeedsVerification bool             `json:"needs_verification"`
	Issues            []string         `json:"issues,omitempty"`
	Diagnose          scorer.Diagnosis `json:"diagnose"`
}

func diagnoseCmd() *cobra.Command {
	var (
		summary string
		trusted bool
	)
	cmd := &cobra.Command{
		Use:   "diagnose <title>",
		Short: "Explain the acceptance decision for a headline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := scorer.New().Decide(scorer.Input{
				Title:   strings.Join(args, " "),
				Summary: summary,
				Trusted: trusted,
			})
			return printJSON(cmd.OutOrStdout(), diagnosis{
				Status:            string(d.Status),
				PrimaryType:       d.Classification.Primary,
				Labels:            d.Classification.Labels,
				Province:          d.Province,
				NeedsVerification: d.NeedsVerification,
				Issues:            d.Issues,
				Diagnose:          d.Diagnosis,
			})
		},
	}
	cmd.Flags().StringVar(&summary, "summary", "", "Article summary")
	cmd.Flags().BoolVar(&trusted, "trusted", false, "Treat the source as trusted")
	return cmd
}

func assessCmd() *cobra.Command {
	var prov string
	cmd := &cobra.Command{
		Use:   "assess <text>",
		Short: "Map a text to its disaster risk level",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if prov == "" {
				prov = province.Extract(text)
			}
			return printJSON(cmd.OutOrStdout(), risk.Assess(text, prov))
		},
	}
	cmd.Flags().StringVar(&prov, "province", "", "Province (extracted from the text when empty)")
	return cmd
}

func sourcesCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the source catalogue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				file = cfg.SourcesFile
			}
			sources, err := catalog.Load(file)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DOMAIN\tNAME\tTRUSTED\tAUTHORITY\tFEEDS")
			for _, s := range sources {
				feeds := 0
				for _, f := range []string{s.PrimaryRSS, s.BackupRSS} {
					if f != "" {
						feeds++
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%t\t%d\t%d\n", s.Domain, s.Name, s.Trusted, s.AuthorityLevel, feeds)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Catalogue file (defaults to SOURCES_FILE)")
	return cmd
}

func crawlCmd() *cobra.Command {
	var domains []string
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one ingestion cycle",
		Long: `Run one ingestion cycle over every source, or over the given domains.
The cycle writes to DATABASE_URL, or to a throwaway in-memory store when unset.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := env(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := app.OpenStore(ctx, cfg, logger, true)
			if err != nil {
				return err
			}
			defer st.Close()

			in, err := app.NewIngestion(cfg, st, logger, observability.NewMetricsForTesting())
			if err != nil {
				return err
			}
			defer in.Close(logger)

			rep, err := in.Pipeline.RunCycle(ctx, domains...)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SOURCE\tFEED\tADDED\tELAPSED\tERROR")
			for _, s := range rep.PerSource {
				errText := ""
				if s.Err != nil {
					errText = s.Err.Error()
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.Source, s.FeedUsed, s.Added, s.Elapsed.Round(time.Millisecond), errText)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(w, "\nrun %s: %d new, %d skipped, %d events created, %d updated in %s\n",
				rep.RunID, rep.NewArticles, rep.Skipped, rep.Created, rep.Updated, rep.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&domains, "domain", nil, "Only crawl these source domains")
	return cmd
}

// moderator opens the configured database. Moderation on a throwaway
// in-memory store would be meaningless.
func moderator(cmd *cobra.Command) (*moderation.Moderator, store.Store, error) {
	cfg, logger, err := env(cmd)
	if err != nil {
		return nil, nil, err
	}
	st, err := app.OpenStore(cmd.Context(), cfg, logger, false)
	if err != nil {
		return nil, nil, err
	}
	return moderation.New(st, app.Matcher(cfg, logger), logger), st, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func rejectCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reject <article-id>",
		Short: "Reject an article and blacklist it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			mod, st, err := moderator(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			res, err := mod.RejectArticle(cmd.Context(), id, reason)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Blacklist reason")
	return cmd
}

func deleteEventCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "delete-event <event-id>",
		Short: "Delete an event, rejecting and blacklisting its articles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			mod, st, err := moderator(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := mod.DeleteEvent(cmd.Context(), id, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "event %d deleted, %d articles rejected\n", id, n)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Blacklist reason")
	return cmd
}

func tailCmd() *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print event changes from the Kafka events topic",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := env(cmd)
			if err != nil {
				return err
			}
			if len(cfg.KafkaBrokers) == 0 {
				return errors.New("KAFKA_BROKERS is required")
			}
			r := kafkaadapter.NewReader(cfg.KafkaBrokers, cfg.KafkaEventsTopic, group, logger)
			defer r.Close()

			w := cmd.OutOrStdout()
			for {
				ch, err := r.Next(cmd.Context())
				if err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return err
				}
				kind := kafkaadapter.ChangeUpdated
				if ch.Created {
					kind = kafkaadapter.ChangeCreated
				}
				fmt.Fprintf(w, "%s\t#%d\t%s\t%s\t%s\tconfidence=%.2f\n",
					kind, ch.Event.ID, ch.Event.HazardType, ch.Event.Province, ch.Event.Title, ch.Event.Confidence)
			}
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "Consumer group (reads new messages only when empty)")
	return cmd
}
