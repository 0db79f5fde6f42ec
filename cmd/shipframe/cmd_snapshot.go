// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/shipframe/services/frame"
	storage "github.com/AleutianAI/shipframe/services/frame/storage/badger"
	"github.com/AleutianAI/shipframe/services/frame/wire"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect and exchange stored frame snapshots",
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored frame ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore()
		if err != nil {
			return err
		}
		defer cleanup()

		ids, err := store.List()
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var snapshotDumpCmd = &cobra.Command{
	Use:   "dump <frame-id>",
	Short: "Print a stored frame snapshot as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := openStore()
		if err != nil {
			return err
		}
		defer cleanup()

		snapshot, err := store.Get(args[0])
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store a snapshot file under a fresh frame id",
	Long: "Validates the snapshot and stores it. The service remaps its vertex ids\n" +
		"into the session namespace on next startup, so any self-consistent id\n" +
		"scheme in the file is acceptable.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		var snapshot wire.SerializedGraph[frame.BeamData]
		if err := json.Unmarshal(raw, &snapshot); err != nil {
			return fmt.Errorf("parse snapshot %s: %w", args[0], err)
		}
		if _, err := snapshot.Build(); err != nil {
			return fmt.Errorf("snapshot %s: %w", args[0], err)
		}

		store, cleanup, err := openStore()
		if err != nil {
			return err
		}
		defer cleanup()

		id := uuid.NewString()
		if err := store.Put(id, snapshot); err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotListCmd, snapshotDumpCmd, snapshotImportCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// openStore opens the configured frame store for a one-shot command.
func openStore() (*storage.FrameStore[frame.BeamData], func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	db, err := storage.Open(storage.Config{
		Path:       cfg.Storage.Path,
		InMemory:   cfg.Storage.InMemory,
		SyncWrites: cfg.Storage.SyncWrites,
	})
	if err != nil {
		return nil, nil, err
	}
	return storage.NewFrameStore[frame.BeamData](db), func() { db.Close() }, nil
}
