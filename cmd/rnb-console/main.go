// 对账控制台：在终端中浏览条目、按查询过滤、模拟地图点选切换 RNB 标识并提交编辑
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"rnb-admin/internal/catalog"
	"rnb-admin/internal/config"
	"rnb-admin/internal/logger"
	"rnb-admin/internal/mapview"
	"rnb-admin/internal/output"
	"rnb-admin/internal/rnb"

	"github.com/spf13/cobra"
)

// app：命令共享的依赖，由 newRootCmd 显式构造，测试中替换
type app struct {
	cfg     config.Config
	in      io.Reader
	out     io.Writer
	format  string
	catalog *catalog.Client
	lookup  mapview.Lookup
}

func newApp(cfg config.Config, in io.Reader, out io.Writer) *app {
	hc := &http.Client{Timeout: cfg.HTTPTimeout}
	return &app{
		cfg:     cfg,
		in:      in,
		out:     out,
		catalog: catalog.NewClient(cfg.APIURL, hc),
		lookup:  rnb.NewClient(cfg.RNBAPIBase, hc),
	}
}

func (a *app) outputFormat() (output.Format, error) {
	f, err := output.ParseFormat(a.format)
	if err != nil {
		return "", err
	}
	return output.DetectFormat(f), nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "rnb-console",
		Short:         "Browse and reconcile building records against the RNB registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.format, "output", "o", "", "Output format: table, json, yaml (default: table on a terminal, json otherwise)")
	root.AddCommand(newListCmd(a), newShowCmd(a), newPickCmd(a), newEditCmd(a))
	return root
}

func main() {
	cfg := config.Load()
	logger.Setup()
	a := newApp(cfg, os.Stdin, os.Stdout)
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
