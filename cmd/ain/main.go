// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/amadeobrands/ain/ain"
	"github.com/amadeobrands/ain/lvldb"
	"github.com/amadeobrands/ain/metrics"
	"github.com/amadeobrands/ain/mn"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "ain",
		Usage:     "masternode registry inspector",
		Copyright: "2020 The AIN developers",
		Flags: []cli.Flag{
			networkFlag,
			paramsFlag,
			dataDirFlag,
			verbosityFlag,
			metricsAddrFlag,
		},
		Commands: []cli.Command{
			{
				Name:   "list",
				Usage:  "list registered masternodes and their states",
				Action: listAction,
			},
			{
				Name:   "criminals",
				Usage:  "list unpunished double-sign proofs",
				Action: criminalsAction,
			},
			{
				Name:   "team",
				Usage:  "show the current anchor team",
				Action: teamAction,
			},
			{
				Name:   "params",
				Usage:  "print the effective network params",
				Action: paramsAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ain")
}

func initLogger(ctx *cli.Context) {
	level := log.FromLegacyLevel(ctx.GlobalInt(verbosityFlag.Name))
	useColor := isatty.IsTerminal(os.Stderr.Fd())
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor)))
}

func startMetrics(ctx *cli.Context) {
	addr := ctx.GlobalString(metricsAddrFlag.Name)
	if addr == "" {
		return
	}
	metrics.InitializePrometheusMetrics()
	go func() {
		if err := http.ListenAndServe(addr, metrics.HTTPHandler()); err != nil {
			log.Warn("metrics service stopped", "err", err)
		}
	}()
}

func loadView(ctx *cli.Context) (*mn.View, func(), error) {
	initLogger(ctx)
	startMetrics(ctx)

	params := ain.ParamsByNetwork(ctx.GlobalString(networkFlag.Name))
	if params == nil {
		return nil, nil, fmt.Errorf("unknown network %q", ctx.GlobalString(networkFlag.Name))
	}
	if path := ctx.GlobalString(paramsFlag.Name); path != "" {
		var err error
		if params, err = ain.LoadParams(path, params); err != nil {
			return nil, nil, err
		}
	}

	db, err := lvldb.New(filepath.Join(ctx.GlobalString(dataDirFlag.Name), "masternodes"), lvldb.Options{})
	if err != nil {
		return nil, nil, err
	}
	view, err := mn.NewStore(db, params).Load()
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return view, func() { db.Close() }, nil
}

func listAction(ctx *cli.Context) error {
	view, closeDB, err := loadView(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	height := view.LastHeight()
	for id, node := range view.Masternodes() {
		fmt.Printf("%v\towner %v\toperator %v\tminted %d\t%v\n",
			id, node.OwnerAuthAddress, node.OperatorAuthAddress,
			node.MintedBlocks, node.State(height, view.Params()))
	}
	return nil
}

func criminalsAction(ctx *cli.Context) error {
	view, closeDB, err := loadView(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	for id, fact := range view.UnpunishedCriminals() {
		fmt.Printf("%v\theight %d\theaders %v / %v\n",
			id, fact.Header.Height(), fact.Header.Hash().AbbrevString(), fact.ConflictHeader.Hash().AbbrevString())
	}
	return nil
}

func teamAction(ctx *cli.Context) error {
	view, closeDB, err := loadView(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	for _, operator := range view.CurrentTeam() {
		fmt.Println(operator)
	}
	return nil
}

func paramsAction(ctx *cli.Context) error {
	initLogger(ctx)

	params := ain.ParamsByNetwork(ctx.GlobalString(networkFlag.Name))
	if params == nil {
		return fmt.Errorf("unknown network %q", ctx.GlobalString(networkFlag.Name))
	}
	if path := ctx.GlobalString(paramsFlag.Name); path != "" {
		var err error
		if params, err = ain.LoadParams(path, params); err != nil {
			return err
		}
	}

	out, err := yaml.Marshal(params)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
