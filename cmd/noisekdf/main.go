// noisekdf derives Noise HKDF outputs from the command line.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panda-coder/go-noise-kdf/hashfunc"
	"github.com/panda-coder/go-noise-kdf/internal/config"
	"github.com/panda-coder/go-noise-kdf/internal/log"
	"github.com/panda-coder/go-noise-kdf/kdf"
)

// Flags holds the command line configuration.
type Flags struct {
	ConfigFile  string
	Hash        string
	Outputs     int
	LogLevel    string
	ChainingKey string
	IKM         string
}

func newRootCommand() *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:   "noisekdf",
		Short: "Noise HKDF derivation tool",
		Long: `Derives the two or three HKDF outputs the Noise symmetric ratchet uses
from a chaining key and input key material, for checking implementations
against each other.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.ConfigFile, "config", "c", "", "configuration file")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "logging level (debug, info, warn, error)")

	cmd.AddCommand(newDeriveCommand(&flags), newHashesCommand())
	return cmd
}

func newDeriveCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive HKDF outputs",
		Example: `  # Two outputs from an all zero SHA256 chaining key and empty IKM
  noisekdf derive --ck 0000000000000000000000000000000000000000000000000000000000000000

  # Three outputs with BLAKE2s
  noisekdf derive --hash BLAKE2s --outputs 3 --ck <hex> --ikm <hex>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if err := log.Init(cfg.LogLevel); err != nil {
				return err
			}
			defer log.Sync()

			return runDerive(cmd, cfg, flags.ChainingKey, flags.IKM)
		},
	}
	cmd.Flags().StringVar(&flags.Hash, "hash", "", "hash function (SHA256, SHA512, BLAKE2s, BLAKE2b)")
	cmd.Flags().IntVarP(&flags.Outputs, "outputs", "n", 0, "number of outputs (2 or 3)")
	cmd.Flags().StringVar(&flags.ChainingKey, "ck", "", "chaining key, hex encoded HASHLEN bytes")
	cmd.Flags().StringVar(&flags.IKM, "ikm", "", "input key material, hex encoded")
	_ = cmd.MarkFlagRequired("ck")

	return cmd
}

func newHashesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hashes",
		Short: "List supported hash functions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			names := hashfunc.Names()
			sort.Strings(names)
			for _, name := range names {
				alg := hashfunc.FromString(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tHASHLEN=%d\tBLOCKLEN=%d\n", name, alg.HashLen(), alg.BlockLen())
			}
		},
	}
}

// loadConfig reads the configuration file, if any, and lets explicitly set
// flags override it.
func loadConfig(cmd *cobra.Command, flags *Flags) (*config.Config, error) {
	cfg := config.Default()
	if flags.ConfigFile != "" {
		var err error
		if cfg, err = config.LoadFile(flags.ConfigFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if cmd.Flags().Changed("hash") {
		cfg.Hash = flags.Hash
	}
	if cmd.Flags().Changed("outputs") {
		cfg.Outputs = flags.Outputs
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runDerive(cmd *cobra.Command, cfg *config.Config, ckHex, ikmHex string) error {
	alg := hashfunc.FromString(cfg.Hash)

	chainingKey, err := hex.DecodeString(ckHex)
	if err != nil {
		return fmt.Errorf("invalid chaining key: %w", err)
	}
	if len(chainingKey) != alg.HashLen() {
		return fmt.Errorf("invalid chaining key: %s needs %d bytes, got %d", alg, alg.HashLen(), len(chainingKey))
	}
	ikm, err := hex.DecodeString(ikmHex)
	if err != nil {
		return fmt.Errorf("invalid input key material: %w", err)
	}
	if l := len(ikm); l != 0 && l != 32 && l != alg.HashLen() {
		log.Warn("unusual input key material length", zap.Int("length", l))
	}

	k := kdf.New(alg)
	defer k.Close()

	output := make([]byte, cfg.Outputs*alg.HashLen())
	switch cfg.Outputs {
	case 2:
		k.ExtractAndExpand2(output, chainingKey, ikm)
	case 3:
		k.ExtractAndExpand3(output, chainingKey, ikm)
	}
	log.Debug("derived", zap.Stringer("hash", alg), zap.Int("outputs", cfg.Outputs))

	for i := 0; i < cfg.Outputs; i++ {
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(output[i*alg.HashLen():(i+1)*alg.HashLen()]))
	}
	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
