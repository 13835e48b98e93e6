package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/unkn0wn-root/redisdown"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Print the value stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return doGet(ctx, store, cmd.OutOrStdout(), args[0])
		},
	}
	putCmd = &cobra.Command{
		Use:   "put [key] [value]",
		Short: "Store a value under a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return store.Put(ctx, args[0], args[1])
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return store.Delete(ctx, args[0])
		},
	}
	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "List records in key order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := scanOptions(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return doScan(ctx, store, cmd.OutOrStdout(), opts)
		},
	}
	batchCmd = &cobra.Command{
		Use:   "batch",
		Short: "Apply put/del lines from stdin atomically",
		Long: `Reads operations from stdin, one per line, and applies them in a single
MULTI/EXEC transaction:

  put <key> <value>
  del <key>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := store.NewBatch()
			if err := parseBatch(cmd.InOrStdin(), b); err != nil {
				return err
			}
			n := b.Len()
			ctx, cancel := commandContext(cmd)
			defer cancel()
			if err := b.Write(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d operations\n", n)
			return nil
		},
	}
	destroyCmd = &cobra.Command{
		Use:         "destroy",
		Short:       "Drop the key order index of the location",
		Long:        `Deletes <location>:z. Records stay readable by key but no longer show up in scans.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			conn := connOptions()
			if err := redisdown.Destroy(ctx, viper.GetString("location"), &conn); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "destroyed %s\n", viper.GetString("location"))
			return nil
		},
	}
)

func init() {
	f := scanCmd.Flags()
	f.String("gt", "", "keys strictly greater than")
	f.String("gte", "", "keys greater than or equal to")
	f.String("lt", "", "keys strictly less than")
	f.String("lte", "", "keys less than or equal to")
	f.Bool("reverse", false, "descending key order")
	f.Int("limit", 0, "maximum number of records (0 = all)")
	f.Bool("keys-only", false, "print keys only")
	f.Bool("values-only", false, "print values only")
}

func scanOptions(cmd *cobra.Command) (redisdown.IteratorOptions, error) {
	var opts redisdown.IteratorOptions
	f := cmd.Flags()
	for name, dst := range map[string]*any{"gt": &opts.Gt, "gte": &opts.Gte, "lt": &opts.Lt, "lte": &opts.Lte} {
		if f.Changed(name) {
			v, _ := f.GetString(name)
			*dst = v
		}
	}
	opts.Reverse, _ = f.GetBool("reverse")
	opts.Limit, _ = f.GetInt("limit")
	opts.KeysOnly, _ = f.GetBool("keys-only")
	opts.ValuesOnly, _ = f.GetBool("values-only")
	if opts.KeysOnly && opts.ValuesOnly {
		return opts, fmt.Errorf("--keys-only and --values-only are mutually exclusive")
	}
	return opts, nil
}
