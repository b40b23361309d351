// Command titlepkg is a thin CLI wrapper around this module's library
// packages: inspecting, fakesigning, and rebuilding title packages;
// extracting and building U8 archives; compressing and decompressing LZ
// streams; fetching titles from the distribution service; and installing
// them into an emulated NAND.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ninjacheetah/gowiipkg/iospatcher"
	"github.com/ninjacheetah/gowiipkg/nand"
	"github.com/ninjacheetah/gowiipkg/nus"
	"github.com/ninjacheetah/gowiipkg/pkg/lz77"
	"github.com/ninjacheetah/gowiipkg/pkg/u8"
	"github.com/ninjacheetah/gowiipkg/title"
)

var log zerolog.Logger

func main() {
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "titlepkg",
		Short: "Inspect and manipulate installable title packages",
	}
	var configPath string
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $HOME/.titlepkg.yaml)")
	viper.SetEnvPrefix("TITLEPKG")
	viper.AutomaticEnv()
	viper.SetDefault("nus_base_url", nus.BaseWii)
	viper.SetDefault("compression_level", int(lz77.LevelOptimal))
	viper.SetDefault("nand_root", "./nand")

	cobra.OnInitialize(func() {
		if configPath != "" {
			viper.SetConfigFile(configPath)
		} else if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigName(".titlepkg")
			viper.SetConfigType("yaml")
		} else {
			return
		}
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				log.Warn().Err(err).Msg("could not read config file")
			}
		}
	})

	root.AddCommand(
		newInspectCmd(),
		newFakesignCmd(),
		newExtractCmd(),
		newBuildCmd(),
		newLZCmd(),
		newNUSCmd(),
		newNANDCmd(),
		newIOSCmd(),
	)
	return root
}

func loadTitleFile(path string) (*title.Title, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return title.LoadPackage(data)
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <package>",
		Short: "Print a summary of a package's metadata and fakesign state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTitleFile(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("title id:      %x\n", t.Metadata.TitleID)
			fmt.Printf("title version: %d\n", t.Metadata.TitleVersion)
			fmt.Printf("title kind:    %s\n", t.Metadata.TitleKind())
			fmt.Printf("region:        %s\n", t.Metadata.RegionName())
			fmt.Printf("contents:      %d\n", len(t.Metadata.ContentRecords))
			fmt.Printf("fakesigned:    %v\n", t.IsFakesigned())
			return nil
		},
	}
}

func newFakesignCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "fakesign <package>",
		Short: "Fakesign a package's metadata and ticket and write it back out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTitleFile(args[0])
			if err != nil {
				return err
			}
			if err := t.Fakesign(); err != nil {
				return err
			}
			data, err := t.DumpPackage()
			if err != nil {
				return err
			}
			if out == "" {
				out = args[0]
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output path (default: overwrite input)")
	return cmd
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <archive> <dir>",
		Short: "Extract a U8 archive to a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			archive, err := u8.Load(data)
			if err != nil {
				return err
			}
			return archive.Extract(func(path string, data []byte) error {
				full := args[1] + "/" + path
				if err := os.MkdirAll(dirOf(full), 0o755); err != nil {
					return err
				}
				return os.WriteFile(full, data, 0o644)
			})
		},
	}
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build <dir> <archive>",
		Short: "Build a U8 archive from a directory tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []u8.FileEntry
			root := args[0]
			err := walkDir(root, "", &files)
			if err != nil {
				return err
			}
			archive, err := u8.Build(files)
			if err != nil {
				return err
			}
			data, err := archive.Dump()
			if err != nil {
				return err
			}
			return os.WriteFile(args[1], data, 0o644)
		},
	}
}

func walkDir(root, prefix string, out *[]u8.FileEntry) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		full := root + "/" + e.Name()
		rel := e.Name()
		if prefix != "" {
			rel = prefix + "/" + e.Name()
		}
		if e.IsDir() {
			if err := walkDir(full, rel, out); err != nil {
				return err
			}
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return err
		}
		*out = append(*out, u8.FileEntry{Path: rel, Data: data})
	}
	return nil
}

func newLZCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "lz", Short: "Compress or decompress LZ streams"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "compress <in> <out>",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				level := lz77.Level(viper.GetInt("compression_level"))
				out, err := lz77.Compress(data, level)
				if err != nil {
					return err
				}
				return os.WriteFile(args[1], out, 0o644)
			},
		},
		&cobra.Command{
			Use:   "decompress <in> <out>",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				out, err := lz77.Decompress(data)
				if err != nil {
					return err
				}
				return os.WriteFile(args[1], out, 0o644)
			},
		},
	)
	return cmd
}

func newNUSCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "nus", Short: "Fetch titles from the distribution service"}
	var version int
	fetch := &cobra.Command{
		Use:   "fetch <title-id> <out-dir>",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := nus.NewClient()
			client.BaseURL = viper.GetString("nus_base_url")
			client.Logger = log
			ctx := cmd.Context()

			metaData, err := client.FetchMetadata(ctx, args[0], version)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(args[1], 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(args[1]+"/tmd", metaData, 0o644); err != nil {
				return err
			}

			tikData, err := client.FetchTicket(ctx, args[0])
			if err != nil {
				log.Warn().Err(err).Msg("no ticket available for this title")
				return nil
			}
			return os.WriteFile(args[1]+"/cetk", tikData, 0o644)
		},
	}
	fetch.Flags().IntVar(&version, "version", -1, "metadata version (default: latest)")
	cmd.AddCommand(fetch)
	return cmd
}

func newNANDCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "nand", Short: "Install or uninstall titles in an emulated NAND"}
	cmd.AddCommand(
		&cobra.Command{
			Use:  "install <package>",
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := loadTitleFile(args[0])
				if err != nil {
					return err
				}
				n, err := nand.New(viper.GetString("nand_root"))
				if err != nil {
					return err
				}
				n.Logger = log
				return n.Install(t)
			},
		},
		&cobra.Command{
			Use:  "uninstall <title-id-hex>",
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseTitleID(args[0])
				if err != nil {
					return err
				}
				n, err := nand.New(viper.GetString("nand_root"))
				if err != nil {
					return err
				}
				n.Logger = log
				return n.Uninstall(id)
			},
		},
	)
	return cmd
}

func parseTitleID(s string) ([8]byte, error) {
	var id [8]byte
	if len(s) != 16 {
		return id, fmt.Errorf("title id must be 16 hex digits, got %q", s)
	}
	for i := 0; i < 8; i++ {
		var b int
		if _, err := fmt.Sscanf(s[i*2:i*2+2], "%02x", &b); err != nil {
			return id, err
		}
		id[i] = byte(b)
	}
	return id, nil
}

func newIOSCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "ios", Short: "Patch an IOS title package"}
	var out string
	var driveInquiry bool
	patch := &cobra.Command{
		Use:  "patch <package>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTitleFile(args[0])
			if err != nil {
				return err
			}
			p, err := iospatcher.Load(t)
			if err != nil {
				return err
			}
			n, err := p.PatchAll()
			if err != nil {
				return err
			}
			log.Info().Int("patches_applied", n).Msg("applied standard IOS patches")
			if driveInquiry {
				if _, err := p.PatchDriveInquiry(); err != nil {
					return err
				}
			}
			data, err := t.DumpPackage()
			if err != nil {
				return err
			}
			if out == "" {
				out = args[0]
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	patch.Flags().StringVar(&out, "out", "", "output path (default: overwrite input)")
	patch.Flags().BoolVar(&driveInquiry, "drive-inquiry", false, "also apply the experimental drive-inquiry patch")
	cmd.AddCommand(patch)
	return cmd
}
