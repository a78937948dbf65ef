package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/agenthands/genrefreq/internal/config"
	"github.com/agenthands/genrefreq/internal/core"
	"github.com/agenthands/genrefreq/internal/core/model"
	"github.com/agenthands/genrefreq/internal/driver"
	"github.com/agenthands/genrefreq/internal/logging"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return nil, err
	}
	if uri != "" {
		cfg.Neo4j.URI = uri
	}
	if user != "" {
		cfg.Neo4j.User = user
	}
	if password != "" {
		cfg.Neo4j.Password = password
	}
	if database != "" {
		cfg.Neo4j.Database = database
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logging.SetLevelFromString(cfg.Log.Level)
	return cfg, nil
}

// openConnection is replaced in tests.
var openConnection = func(ctx context.Context, cfg config.Neo4jConfig) (driver.Connection, error) {
	conn, err := driver.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// withClient opens a connection, hands a client to fn and releases the
// connection on every path.
func withClient(ctx context.Context, cfg *config.Config, timeout time.Duration, fn func(*core.QueryClient) error) error {
	conn, err := openConnection(ctx, cfg.Neo4j)
	if err != nil {
		return err
	}

	if timeout == 0 {
		timeout = cfg.Neo4j.QueryTimeout.Duration
	}
	client := core.NewQueryClient(conn,
		core.WithDatabase(cfg.Neo4j.Database),
		core.WithQueryTimeout(timeout),
	)
	defer func() {
		if err := client.Close(context.WithoutCancel(ctx)); err != nil {
			logging.Op().Warn("connection release failed", "error", err)
		}
	}()

	return fn(client)
}

func queryCmd() *cobra.Command {
	var (
		state   string
		timeout time.Duration
		output  string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print genre frequencies for a state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if state == "" {
				state = cfg.Query.State
			}

			return withClient(cmd.Context(), cfg, timeout, func(client *core.QueryClient) error {
				rows, err := client.RunAggregationQuery(cmd.Context(), state)
				if err != nil {
					return err
				}
				return printRows(cmd.OutOrStdout(), output, rows)
			})
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "User state to filter on (defaults to query.state)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Query timeout (0 uses the configured value)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text or json")
	return cmd
}

func namesCmd() *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "names",
		Short: "Print genre names only, most frequent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if state == "" {
				state = cfg.Query.State
			}

			return withClient(cmd.Context(), cfg, 0, func(client *core.QueryClient) error {
				names, err := client.Genres(cmd.Context(), state)
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "User state to filter on (defaults to query.state)")
	return cmd
}

func printRows(w io.Writer, format string, rows []model.GenreFrequency) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "text", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "GENRE\tFREQ")
		for _, row := range rows {
			fmt.Fprintf(tw, "%s\t%d\n", row.Genre, row.Freq)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
