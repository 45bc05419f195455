// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Command sign-client runs one participant of an n-of-n EdDSA signing
// session against a relay server: it loads this peer's long-term key,
// registers, drives the four-round protocol to completion and prints the
// resulting aggregated signature.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eddsa-relay/sign-client/internal/config"
	applog "github.com/eddsa-relay/sign-client/internal/log"
	"github.com/eddsa-relay/sign-client/internal/metrics"
	"github.com/eddsa-relay/sign-client/pkg/driver"
	"github.com/eddsa-relay/sign-client/pkg/keystore"
	"github.com/eddsa-relay/sign-client/pkg/relay"
	"github.com/eddsa-relay/sign-client/pkg/relay/transport"
	"github.com/eddsa-relay/sign-client/pkg/signing"
)

var (
	index      int
	capacity   int
	protocolID int
	message    string
	proxy      string
	filename   string
	configPath string
	verbosity  int
)

var rootCmd = &cobra.Command{
	Use:   "sign-client",
	Short: "Run one peer of an n-of-n EdDSA threshold signing session",
	RunE:  run,
}

func init() {
	rootCmd.Flags().IntVarP(&index, "index", "I", 1, "this peer's relay-assigned index")
	rootCmd.Flags().IntVarP(&capacity, "capacity", "C", 2, "number of participants in the session (n)")
	rootCmd.Flags().IntVarP(&protocolID, "protocol-id", "P", 1, "session identifier shared by every peer in this signing session")
	rootCmd.Flags().StringVarP(&message, "message", "M", "message", "message to sign, hex-decoded if valid hex, raw bytes otherwise")
	rootCmd.Flags().StringVar(&proxy, "proxy", "127.0.0.1:26657", "relay server address")
	rootCmd.Flags().StringVarP(&filename, "filename", "F", "keys", "key file basename (reads <filename><index>)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "optional YAML config overlay")
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		overlay, err := config.Load(configPath)
		if err != nil {
			return err
		}
		capacity, proxy, filename, verbosity = overlay.ApplyDefaults(capacity, proxy, filename, verbosity)
	}

	applog.Setup(verbosity, index)

	messageBytes, err := hex.DecodeString(message)
	if err != nil {
		messageBytes = []byte(message)
	}

	keys, err := keystore.Load(".", filename, index)
	if err != nil {
		return err
	}

	start := time.Now()

	conn, err := transport.Dial(proxy)
	if err != nil {
		return err
	}
	defer conn.Close()

	peer := signing.NewPeer(capacity, messageBytes, keys.KeyPair)
	dm := signing.NewDataManager(peer)
	client := relay.NewClient(conn, signing.PeerID(protocolID), capacity, dm)

	sig, err := driver.Run(client)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	applog.Logger.Infof("peer %d finished in %s", index, elapsed)
	fmt.Printf("%d\n", elapsed.Milliseconds())
	fmt.Printf("signature: %x\n", sig.Bytes())

	if err := metrics.RecordSigningTime(index, capacity, int(elapsed.Milliseconds())); err != nil {
		return err
	}
	return nil
}
