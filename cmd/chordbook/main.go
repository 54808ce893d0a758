package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"chordbook/internal/app"
	"chordbook/internal/chordbook"
	"chordbook/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	forceOffline bool
	verbose      bool
)

// newApp reads the config and creates a ChordbookApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "CreatePlaybook", "Sync").
func newApp(ctx context.Context, operation string) (*app.ChordbookApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.Load(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewChordbookApp(ctx, cfg, operation, app.Options{
		Passphrase:   promptPassphrase,
		Verbose:      verbose,
		ForceOffline: forceOffline,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

func promptPassphrase() (string, error) {
	fmt.Fprint(os.Stderr, "Passphrase: ")
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pass), nil
}

var rootCmd = &cobra.Command{
	Use:           "chordbook",
	Short:         "Offline-first songbook",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		userID, _ := cmd.Flags().GetString("user-id")
		serverURL, _ := cmd.Flags().GetString("server")
		cfg := config.NewConfig(userID, defaults["base_dir"], serverURL)

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("User ID:  %s\n", userID)
		fmt.Printf("Server:   %s\n", serverURL)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.Load(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("User ID:       %s\n", cfg.UserID)
		fmt.Printf("Server:        %s\n", cfg.Remote.BaseURL)
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Store:         %s\n", cfg.Store.Type)
		fmt.Printf("Poll Interval: %s\n", cfg.Connectivity.PollInterval.Std())
		fmt.Printf("Force Offline: %v\n", cfg.Connectivity.ForceOffline)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage store encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.Load(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		pass, err := promptPassphrase()
		if err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		if err := app.InitKeys(cfg, pass); err != nil {
			return fmt.Errorf("initializing keys: %w", err)
		}
		fmt.Printf("Keys written to %s\n", cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// playbook command
var playbookCmd = &cobra.Command{
	Use:   "playbook",
	Short: "Manage playbooks",
}

var playbookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List playbooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ListPlaybooks")
		if err != nil {
			return err
		}
		defer a.Close()

		pbs, err := a.Playbooks(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing playbooks: %w", err)
		}
		for _, pb := range pbs {
			fmt.Printf("%-26s  %-8s  %s (%d songs)\n", pb.ID, pb.SyncStatus, pb.Name, len(pb.Songs))
			for _, ref := range pb.Songs {
				if s, ok := ref.Song(); ok {
					fmt.Printf("    %s\n", s.Title)
				} else {
					fmt.Printf("    [%s]\n", ref.ID())
				}
			}
		}
		return nil
	},
}

var playbookCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a playbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "CreatePlaybook")
		if err != nil {
			return err
		}
		defer a.Close()

		description, _ := cmd.Flags().GetString("description")
		pb, err := a.CreatePlaybook(cmd.Context(), args[0], description)
		if err != nil {
			return fmt.Errorf("creating playbook: %w", err)
		}
		fmt.Printf("Created playbook %s (%s)\n", pb.ID, pb.SyncStatus)
		return nil
	},
}

var playbookRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a playbook",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "RenamePlaybook")
		if err != nil {
			return err
		}
		defer a.Close()

		pb, err := a.RenamePlaybook(cmd.Context(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("renaming playbook: %w", err)
		}
		fmt.Printf("Renamed playbook %s to %q (%s)\n", pb.ID, pb.Name, pb.SyncStatus)
		return nil
	},
}

var playbookAddSongCmd = &cobra.Command{
	Use:   "add-song <playbook-id> <song-id>",
	Short: "Append a song to a playbook",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "AddSongToPlaybook")
		if err != nil {
			return err
		}
		defer a.Close()

		pb, err := a.AddSongToPlaybook(cmd.Context(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("adding song: %w", err)
		}
		fmt.Printf("Playbook %s now has %d song(s)\n", pb.ID, len(pb.Songs))
		return nil
	},
}

var playbookDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a playbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "DeletePlaybook")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeletePlaybook(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("deleting playbook: %w", err)
		}
		fmt.Printf("Deleted playbook %s\n", args[0])
		return nil
	},
}

// song command
var songCmd = &cobra.Command{
	Use:   "song",
	Short: "Manage songs",
}

var songListCmd = &cobra.Command{
	Use:   "list",
	Short: "List songs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ListSongs")
		if err != nil {
			return err
		}
		defer a.Close()

		songs, err := a.Songs(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing songs: %w", err)
		}
		for _, s := range songs {
			fmt.Printf("%-26s  %-8s  %-4s  %s\n", s.ID, s.SyncStatus, s.Key, s.Title)
		}
		return nil
	},
}

var songShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a song's chord chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ShowSong")
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Song(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("reading song: %w", err)
		}
		fmt.Printf("%s", s.Title)
		if s.Key != "" {
			fmt.Printf(" (key of %s)", s.Key)
		}
		fmt.Println()
		for _, sec := range s.Sections {
			fmt.Printf("\n[%s]\n", sec.Name)
			for _, ln := range sec.Lines {
				chords := make([]string, len(ln.Chords))
				for i, c := range ln.Chords {
					chords[i] = c.String()
				}
				fmt.Printf("  %s\n", strings.Join(chords, "  "))
			}
		}
		return nil
	},
}

var songCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a song",
	Long:  "Create a song. Sections can be read from a JSON file holding an array of {name, lines: [{chords: [...]}]}.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		file, _ := cmd.Flags().GetString("sections")

		var sections []chordbook.Section
		if file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading sections: %w", err)
			}
			if err := json.Unmarshal(data, &sections); err != nil {
				return fmt.Errorf("parsing sections: %w", err)
			}
		}

		a, err := newApp(cmd.Context(), "CreateSong")
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.CreateSong(cmd.Context(), chordbook.SongInput{Title: args[0], Key: key, Sections: sections})
		if err != nil {
			return fmt.Errorf("creating song: %w", err)
		}
		fmt.Printf("Created song %s (%s)\n", s.ID, s.SyncStatus)
		return nil
	},
}

var songDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a song",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "DeleteSong")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteSong(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("deleting song: %w", err)
		}
		fmt.Printf("Deleted song %s\n", args[0])
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity and unsynced changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Status")
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("getting status: %w", err)
		}
		switch {
		case st.ForcedOffline:
			fmt.Println("Server: offline (forced)")
		case st.Online:
			fmt.Println("Server: online")
		default:
			fmt.Println("Server: unreachable")
		}
		if len(st.Pending) == 0 {
			fmt.Println("Everything is synced.")
			return nil
		}
		fmt.Printf("%d unsynced change(s):\n", len(st.Pending))
		printPending(st.Pending)
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push local changes to the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Sync")
		if err != nil {
			return err
		}
		defer a.Close()

		pending, err := a.Sync(cmd.Context())
		if err != nil {
			return fmt.Errorf("syncing: %w", err)
		}
		if len(pending) == 0 {
			fmt.Println("Everything is synced.")
			return nil
		}
		fmt.Printf("%d change(s) could not be synced:\n", len(pending))
		printPending(pending)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync whenever the server becomes reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "Watch")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Watch(ctx)
	},
}

func printPending(changes []chordbook.PendingChange) {
	for _, c := range changes {
		action := "changed"
		switch {
		case c.Deleted:
			action = "deleted"
		case c.ID.IsLocal():
			action = "created"
		}
		fmt.Printf("  %-8s  %-7s  %-26s  %s  [%s]\n", c.Kind, action, c.ID, c.Label, c.Status)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&forceOffline, "offline", false, "Do not contact the server")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("user-id", "", "Account id the songbook belongs to")
	configInitCmd.Flags().String("server", "", "Base URL of the chordbook server")
	_ = configInitCmd.MarkFlagRequired("user-id")
	_ = configInitCmd.MarkFlagRequired("server")

	keysCmd.AddCommand(keysInitCmd)

	// playbook subcommands
	playbookCmd.AddCommand(playbookListCmd)
	playbookCmd.AddCommand(playbookCreateCmd)
	playbookCreateCmd.Flags().StringP("description", "d", "", "Playbook description")
	playbookCmd.AddCommand(playbookRenameCmd)
	playbookCmd.AddCommand(playbookAddSongCmd)
	playbookCmd.AddCommand(playbookDeleteCmd)

	// song subcommands
	songCmd.AddCommand(songListCmd)
	songCmd.AddCommand(songShowCmd)
	songCmd.AddCommand(songCreateCmd)
	songCreateCmd.Flags().StringP("key", "k", "", "Musical key, e.g. G or F#m")
	songCreateCmd.Flags().String("sections", "", "JSON file with the song's sections")
	songCmd.AddCommand(songDeleteCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(playbookCmd)
	rootCmd.AddCommand(songCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
}
