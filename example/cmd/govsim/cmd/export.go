package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/wooyang2018/govchain/contract/sandbox"
	"github.com/wooyang2018/govchain/engine"
	"github.com/wooyang2018/govchain/logger"
	"github.com/wooyang2018/govchain/storage"
	"github.com/wooyang2018/govchain/storage/memory"
)

// ExportCmd runs one scenario and dumps the final chain state.
type ExportCmd struct {
	BaseCmd
	EnvConf string
	// 导出文件路径
	Output string
}

func GetExportCmd() *ExportCmd {
	c := new(ExportCmd)
	c.Cmd = &cobra.Command{
		Use:     "export scenario.yaml",
		Short:   "Run a scenario and export the resulting state as a snappy dump.",
		Example: "govsim export -c ./conf/env.yaml -o payout.state ./scenarios/payout.yaml",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Export(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
	c.Cmd.Flags().StringVarP(&c.EnvConf, "conf", "c", "./conf/env.yaml", "engine environment config file path")
	c.Cmd.Flags().StringVarP(&c.Output, "output", "o", "state.snappy", "export file path")
	return c
}

func (c *ExportCmd) Export(ctx context.Context, out io.Writer, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	scenarios, err := loadScenarios([]string{path})
	if err != nil {
		return err
	}
	runner, _, err := newRunner(c.EnvConf)
	if err != nil {
		return err
	}
	defer logger.Sync()
	runner.KeepChain = true

	res, err := runner.Run(ctx, scenarios[0])
	if err != nil {
		return err
	}
	defer runner.Close()

	f, err := os.Create(c.Output)
	if err != nil {
		return err
	}
	n, err := res.Chain.Export(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("export state failed.err:%v", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "exported %s records of %s to %s\n", humanize.Comma(int64(n)), res.Name, c.Output)
	return nil
}

// InspectCmd summarizes a state dump per bucket.
type InspectCmd struct {
	BaseCmd
	// 非空时列出该存储桶下的所有键
	Bucket string
}

func GetInspectCmd() *InspectCmd {
	c := new(InspectCmd)
	c.Cmd = &cobra.Command{
		Use:   "inspect state.snappy",
		Short: "Count the records of an exported state per bucket.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Inspect(cmd.OutOrStdout(), args[0])
		},
	}
	c.Cmd.Flags().StringVarP(&c.Bucket, "bucket", "b", "", "list the keys of one bucket")
	return c
}

func (c *InspectCmd) Inspect(out io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	records, err := engine.ReadExport(f)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	size := 0
	for _, rec := range records {
		counts[bucketOf(rec.Key)]++
		size += len(rec.Key) + len(rec.Value)
	}
	buckets := make([]string, 0, len(counts))
	for b := range counts {
		buckets = append(buckets, b)
	}
	sort.Strings(buckets)
	fmt.Fprintf(out, "%s records, %s\n", humanize.Comma(int64(len(records))), humanize.Bytes(uint64(size)))
	for _, b := range buckets {
		fmt.Fprintf(out, "  %-32s %d\n", b, counts[b])
	}
	if c.Bucket == "" {
		return nil
	}
	return listBucket(out, records, c.Bucket)
}

// listBucket loads the dump into memory and walks one bucket through a
// prefixed table, so keys print without the bucket name.
func listBucket(out io.Writer, records []*engine.StateRecord, bucket string) error {
	db := memory.NewMemDatabase()
	defer db.Close()
	if err := engine.Import(db, records); err != nil {
		return err
	}
	tb := storage.NewTable(db, bucket+sandbox.BucketSeperator)
	it := tb.NewIteratorWithRange(nil, nil)
	defer it.Release()
	fmt.Fprintf(out, "== %s\n", bucket)
	for it.Next() {
		fmt.Fprintf(out, "  %q %s\n", it.Key(), humanize.Bytes(uint64(len(it.Value()))))
	}
	return it.Error()
}

func bucketOf(key string) string {
	if i := strings.Index(key, sandbox.BucketSeperator); i >= 0 {
		return key[:i]
	}
	return key
}
