// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command pedump walks a PE32+ image's directories and prints a summary.
// It is a thin external collaborator over the pe package: all logging,
// configuration, and file I/O live here, never inside pe itself.
package main

import (
	"errors"
	"fmt"
	"os"

	pe "github.com/saferwall/peview"
	"github.com/saferwall/peview/mmapfile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	logger  *zap.Logger
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "pedump [file]",
	Short: "Dump PE32+ directory contents",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.pedump.yaml)")
	rootCmd.Flags().Bool("verbose", false, "enable debug logging")
	viper.BindPFlag("verbose", rootCmd.Flags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".pedump")
		viper.AddConfigPath("$HOME")
	}
	viper.SetEnvPrefix("PEDUMP")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func run(cmd *cobra.Command, args []string) error {
	var err error
	if viper.GetBool("verbose") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	defer logger.Sync()

	path := args[0]
	mf, err := mmapfile.Open(path)
	if err != nil {
		logger.Error("open failed", zap.String("path", path), zap.Error(err))
		return err
	}
	defer mf.Close()

	v := mf.View()
	logger.Info("parsed image",
		zap.String("path", path),
		zap.Int("sections", len(v.SectionHeaders())),
		zap.Bool("rich_header", v.HasRichHeader()),
	)

	dumpImports(v)
	dumpExports(v)
	dumpRelocations(v)
	return nil
}

func dumpImports(v *pe.PeView) {
	it, err := v.Imports()
	if err != nil {
		if !errors.Is(err, pe.ErrAbsent) {
			logger.Warn("imports", zap.Error(err))
		}
		return
	}
	for {
		m, ok := it.Next()
		if !ok {
			break
		}
		fmt.Printf("import: %s\n", m.Name)
	}
	if err := it.Err(); err != nil {
		logger.Warn("imports truncated", zap.Error(err))
	}
}

func dumpExports(v *pe.PeView) {
	ev, err := v.Exports()
	if err != nil {
		if !errors.Is(err, pe.ErrAbsent) {
			logger.Warn("exports", zap.Error(err))
		}
		return
	}
	name, _ := ev.Name()
	fmt.Printf("export module: %s\n", name)

	it := ev.Iter()
	for {
		fn, ok := it.Next()
		if !ok {
			break
		}
		if fn.Forwarder != nil {
			fmt.Printf("  export: %s -> %s\n", fn.Name, fn.Forwarder)
		} else {
			fmt.Printf("  export: %s @ 0x%x\n", fn.Name, fn.FunctionRVA)
		}
	}
	if err := it.Err(); err != nil {
		logger.Warn("exports truncated", zap.Error(err))
	}
}

func dumpRelocations(v *pe.PeView) {
	it, err := v.Relocations()
	if err != nil {
		if !errors.Is(err, pe.ErrAbsent) {
			logger.Warn("relocations", zap.Error(err))
		}
		return
	}
	blocks, entries := 0, 0
	for {
		block, ok := it.Next()
		if !ok {
			break
		}
		blocks++
		eit := block.Entries()
		for {
			_, ok := eit.Next()
			if !ok {
				break
			}
			entries++
		}
	}
	if err := it.Err(); err != nil {
		logger.Warn("relocations truncated", zap.Error(err))
	}
	fmt.Printf("relocations: %d blocks, %d entries\n", blocks, entries)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
