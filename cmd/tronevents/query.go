package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fystack/tron-events/pkg/eventclient"
)

var (
	flagEventName       string
	flagBlockNumber     int64
	flagOnlyUnconfirmed bool
	flagOnlyConfirmed   bool
	flagMinTimestamp    int64
	flagMaxTimestamp    int64
	flagOrderBy         string
	flagFingerprint     string
	flagLimit           int
)

var contractCmd = &cobra.Command{
	Use:   "contract <address>",
	Short: "List events emitted by a contract",
	Long: `List events emitted by a contract. The address may be given in
base58 or hex form.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		opts := &eventclient.ContractEventsOptions{
			EventName:   flagEventName,
			OrderBy:     flagOrderBy,
			Fingerprint: flagFingerprint,
		}
		flags := cmd.Flags()
		if flags.Changed("block-number") {
			opts.BlockNumber = eventclient.Int64(flagBlockNumber)
		}
		if flags.Changed("only-unconfirmed") {
			opts.OnlyUnconfirmed = eventclient.Bool(flagOnlyUnconfirmed)
		}
		if flags.Changed("only-confirmed") {
			opts.OnlyConfirmed = eventclient.Bool(flagOnlyConfirmed)
		}
		if flags.Changed("min-timestamp") {
			opts.MinBlockTimestamp = eventclient.Int64(flagMinTimestamp)
		}
		if flags.Changed("max-timestamp") {
			opts.MaxBlockTimestamp = eventclient.Int64(flagMaxTimestamp)
		}
		if flags.Changed("limit") {
			opts.Limit = eventclient.Int(flagLimit)
		}

		page, err := client.EventsByContractAddress(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}
		return printJSON(page)
	},
}

var transactionCmd = &cobra.Command{
	Use:     "transaction <txid>",
	Aliases: []string{"tx"},
	Short:   "List events emitted within a transaction",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		opts := &eventclient.TransactionEventsOptions{}
		if cmd.Flags().Changed("only-unconfirmed") {
			opts.OnlyUnconfirmed = eventclient.Bool(flagOnlyUnconfirmed)
		}
		if cmd.Flags().Changed("only-confirmed") {
			opts.OnlyConfirmed = eventclient.Bool(flagOnlyConfirmed)
		}

		page, err := client.EventsByTransactionID(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}
		return printJSON(page)
	},
}

var blockCmd = &cobra.Command{
	Use:   "block <number>",
	Short: "List events emitted within a block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		blockNumber, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid block number %q", args[0])
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		opts := &eventclient.BlockEventsOptions{
			Fingerprint: flagFingerprint,
		}
		if cmd.Flags().Changed("only-confirmed") {
			opts.OnlyConfirmed = eventclient.Bool(flagOnlyConfirmed)
		}
		if cmd.Flags().Changed("limit") {
			opts.Limit = eventclient.Int(flagLimit)
		}

		page, err := client.EventsByBlockNumber(cmd.Context(), blockNumber, opts)
		if err != nil {
			return err
		}
		return printJSON(page)
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "List events emitted within the latest block",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		opts := &eventclient.LatestBlockEventsOptions{}
		if cmd.Flags().Changed("only-confirmed") {
			opts.OnlyConfirmed = eventclient.Bool(flagOnlyConfirmed)
		}

		page, err := client.LatestBlockEvents(cmd.Context(), opts)
		if err != nil {
			return err
		}
		return printJSON(page)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the event server is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		if !client.IsConnected(cmd.Context()) {
			return fmt.Errorf("event server %s is not reachable", endpoint)
		}
		fmt.Println("ok")
		return nil
	},
}

func init() {
	contractCmd.Flags().StringVar(&flagEventName, "event-name", "", "filter by event name")
	contractCmd.Flags().Int64Var(&flagBlockNumber, "block-number", 0, "filter by block number")
	contractCmd.Flags().BoolVar(&flagOnlyUnconfirmed, "only-unconfirmed", false, "only unconfirmed events")
	contractCmd.Flags().BoolVar(&flagOnlyConfirmed, "only-confirmed", false, "only confirmed events")
	contractCmd.Flags().Int64Var(&flagMinTimestamp, "min-timestamp", 0, "minimum block timestamp in milliseconds")
	contractCmd.Flags().Int64Var(&flagMaxTimestamp, "max-timestamp", 0, "maximum block timestamp in milliseconds")
	contractCmd.Flags().StringVar(&flagOrderBy, "order-by", "", "sort order, e.g. block_timestamp,asc")
	contractCmd.Flags().StringVar(&flagFingerprint, "fingerprint", "", "pagination fingerprint from a previous page")
	contractCmd.Flags().IntVar(&flagLimit, "limit", 0, "page size, capped at 200")

	transactionCmd.Flags().BoolVar(&flagOnlyUnconfirmed, "only-unconfirmed", false, "only unconfirmed events")
	transactionCmd.Flags().BoolVar(&flagOnlyConfirmed, "only-confirmed", false, "only confirmed events")

	blockCmd.Flags().BoolVar(&flagOnlyConfirmed, "only-confirmed", false, "only confirmed events")
	blockCmd.Flags().StringVar(&flagFingerprint, "fingerprint", "", "pagination fingerprint from a previous page")
	blockCmd.Flags().IntVar(&flagLimit, "limit", 0, "page size, capped at 200")

	latestCmd.Flags().BoolVar(&flagOnlyConfirmed, "only-confirmed", false, "only confirmed events")
}
