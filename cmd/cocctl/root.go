package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mo-amir99/coc-proxy-go/internal/features/clan"
	"github.com/mo-amir99/coc-proxy-go/pkg/clashapi"
	"github.com/mo-amir99/coc-proxy-go/pkg/config"
	"github.com/mo-amir99/coc-proxy-go/pkg/logger"
	"github.com/mo-amir99/coc-proxy-go/pkg/pagination"
	"github.com/mo-amir99/coc-proxy-go/pkg/tag"
)

// options holds the persistent flags; their defaults come from the
// environment so the CLI and the server read the same settings.
type options struct {
	baseURL  string
	apiKey   string
	mode     string
	logLevel string
	timeout  time.Duration
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &options{
		baseURL:  cfg.ClashAPI.BaseURL,
		apiKey:   cfg.ClashAPI.APIKey,
		mode:     cfg.ClashAPI.TagMode.String(),
		logLevel: cfg.LogLevel,
		timeout:  cfg.ClashAPI.Timeout,
	}

	rootCmd := &cobra.Command{
		Use:          "cocctl",
		Short:        "Query the Clash of Clans API the way the proxy does",
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "base-url", opts.baseURL, "upstream API base URL")
	flags.StringVar(&opts.apiKey, "api-key", opts.apiKey, "bearer token for the upstream API")
	flags.StringVar(&opts.mode, "mode", opts.mode, "tag normalization mode (legacy|canonical)")
	flags.DurationVar(&opts.timeout, "timeout", opts.timeout, "upstream request timeout")
	flags.StringVar(&opts.logLevel, "log-level", opts.logLevel, "stderr log level (debug|info|warn|error)")

	rootCmd.AddCommand(
		newNormalizeCmd(opts),
		newTagCmd(opts, "clan <tag>", "Show a clan", (*clashapi.Client).Clan),
		newTagCmd(opts, "members <tag>", "List clan members", (*clashapi.Client).ClanMembers),
		newTagCmd(opts, "warlog <tag>", "Show a clan's war log", (*clashapi.Client).ClanWarLog),
		newTagCmd(opts, "player <tag>", "Show a player", (*clashapi.Client).Player),
		newSearchCmd(opts),
	)

	return rootCmd
}

func (o *options) normalizer() (tag.Normalizer, error) {
	mode, err := tag.ParseMode(o.mode)
	if err != nil {
		return tag.Normalizer{}, err
	}
	return tag.Normalizer{Mode: mode}, nil
}

func (o *options) client() (*clashapi.Client, error) {
	normalizer, err := o.normalizer()
	if err != nil {
		return nil, err
	}

	api := clashapi.NewClient(o.baseURL, o.apiKey,
		clashapi.WithTimeout(o.timeout),
		clashapi.WithTagNormalizer(normalizer),
		clashapi.WithUserAgent("cocctl"),
	)
	if !api.Configured() {
		return nil, errors.New("no API key: set COC_API_KEY or pass --api-key")
	}
	return api, nil
}

// logger writes to the command's stderr so stdout stays pipeable JSON.
func (o *options) logger(cmd *cobra.Command) (*slog.Logger, error) {
	level := o.logLevel
	if level == "" {
		level = "warn"
	}
	return logger.NewWriter(level, cmd.ErrOrStderr())
}

func newNormalizeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <tag>",
		Short: "Print the path segment a tag is sent upstream as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			normalizer, err := opts.normalizer()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), normalizer.Normalize(args[0]))
			return err
		},
	}
}

type tagCall func(*clashapi.Client, context.Context, string) (json.RawMessage, error)

func newTagCmd(opts *options, use, short string, call tagCall) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := opts.logger(cmd)
			if err != nil {
				return err
			}
			api, err := opts.client()
			if err != nil {
				return err
			}

			log.Debug("upstream request",
				slog.String("command", cmd.Name()),
				slog.String("tag", api.Normalizer().Normalize(args[0])),
			)
			body, err := call(api, cmd.Context(), args[0])
			if err != nil {
				log.Debug("upstream request failed", slog.String("error", err.Error()))
				return describe(err)
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}
}

func newSearchCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Search clans by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if len([]rune(name)) < clan.MinSearchNameLength {
				return fmt.Errorf("name must be at least %d characters long", clan.MinSearchNameLength)
			}

			api, err := opts.client()
			if err != nil {
				return err
			}

			query := url.Values{}
			query.Set("name", name)
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}

			body, err := api.SearchClans(cmd.Context(), query)
			if err != nil {
				return describe(err)
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", pagination.DefaultSearchLimit, "maximum number of clans")
	return cmd
}

func describe(err error) error {
	if upstream, ok := clashapi.AsUpstream(err); ok {
		if reason := upstream.Reason(); reason != "" {
			return fmt.Errorf("upstream returned %d (%s)", upstream.Status, reason)
		}
		return fmt.Errorf("upstream returned %d", upstream.Status)
	}
	return err
}

func printJSON(w io.Writer, body json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		// Not JSON; print as received.
		buf.Reset()
		buf.Write(body)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
