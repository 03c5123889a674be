package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Piyush29quanta/zit-my-git/internal/config"
	"github.com/Piyush29quanta/zit-my-git/internal/errors"
	"github.com/Piyush29quanta/zit-my-git/internal/history"
	"github.com/Piyush29quanta/zit-my-git/internal/logging"
	"github.com/Piyush29quanta/zit-my-git/internal/repo"
	"github.com/Piyush29quanta/zit-my-git/internal/watch"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "zit",
	Short: "Zit is a minimal content-addressed version control system",
	Long: `Zit stores file snapshots by content hash, tracks a staging area,
builds an immutable chain of commits, and reconstructs historical diffs.`,
	SilenceUsage: true,
}

func newLogger() *zap.Logger {
	logger, err := logging.NewLogger(logLevel)
	if err != nil {
		return zap.NewNop()
	}
	return logger.Logger
}

func openRepo() (*repo.Repo, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}
	return repo.Open(cwd, newLogger())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "error",
		"log level (debug, info, warn, error)")

	var initStorage string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new repository in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}

			cfg := config.Default()
			cfg.Storage = initStorage
			if cfg.Storage != config.StorageFS && cfg.Storage != config.StorageBadger {
				return fmt.Errorf("unknown storage backend %q", initStorage)
			}

			if err := repo.Init(dir, cfg, newLogger()); err != nil {
				if errors.IsType(err, errors.ErrorTypeAlreadyInitialized) {
					fmt.Println("Repository already initialized in", dir)
					return nil
				}
				return err
			}

			fmt.Println("Initialized empty zit repository in", dir)
			return nil
		},
	}
	initCmd.Flags().StringVar(&initStorage, "storage", config.StorageFS,
		"storage backend (fs or badger)")

	addCmd := &cobra.Command{
		Use:   "add <path>...",
		Short: "Snapshot working files into the object store and stage them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			for _, path := range args {
				if err := r.Add(path); err != nil {
					return err
				}
				fmt.Println("staged", path)
			}
			return nil
		},
	}

	commitCmd := &cobra.Command{
		Use:   "commit <message>",
		Short: "Finalize the staging area into a new commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			digest, err := r.Commit(args[0])
			if err != nil {
				return err
			}
			fmt.Println("committed", digest)
			return nil
		},
	}

	var logCount int
	var logJSON bool
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Show the commit history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			yellow := color.New(color.FgYellow).SprintFunc()
			walker := r.Log()
			shown := 0
			for walker.Scan() {
				if logCount > 0 && shown >= logCount {
					break
				}
				entry := walker.Entry()
				if logJSON {
					data, err := json.Marshal(entry)
					if err != nil {
						return err
					}
					fmt.Println(string(data))
				} else {
					fmt.Printf("%s %s %s\n",
						yellow(entry.Digest), entry.TimeStamp, entry.Message)
				}
				shown++
			}
			return walker.Err()
		},
	}
	logCmd.Flags().IntVarP(&logCount, "count", "n", 0, "limit the number of commits shown")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "emit one JSON object per commit")

	diffCmd := &cobra.Command{
		Use:   "diff <digest|HEAD>",
		Short: "Show a commit's changes against its parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			diffs, err := r.Diff(args[0])
			if err != nil {
				return err
			}
			for _, fd := range diffs {
				printColoredDiff(history.FormatFileDiff(fd))
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the working tree status",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			statuses, err := r.Status()
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				fmt.Println("working tree clean")
				return nil
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			blue := color.New(color.FgBlue).SprintFunc()
			for _, s := range statuses {
				switch s.State {
				case repo.Staged:
					fmt.Printf("%s %s\n", green("A"), s.Path)
				case repo.Modified:
					fmt.Printf("%s %s\n", yellow("M"), s.Path)
				default:
					fmt.Printf("%s %s\n", blue("?"), s.Path)
				}
			}
			return nil
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the integrity of every reachable object",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			problems, err := r.Verify()
			if err != nil {
				return err
			}
			if len(problems) == 0 {
				fmt.Println("repository verified, no problems found")
				return nil
			}

			red := color.New(color.FgRed).SprintFunc()
			for _, p := range problems {
				fmt.Println(red("!"), p)
			}
			return fmt.Errorf("%d integrity problem(s)", len(problems))
		},
	}

	catCmd := &cobra.Command{
		Use:   "cat <digest>",
		Short: "Print the raw bytes of a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			content, err := r.Cat(args[0])
			if err != nil {
				return err
			}
			os.Stdout.Write(content)
			return nil
		},
	}

	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the operations journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			entries, err := r.Journal()
			if err != nil {
				return err
			}

			red := color.New(color.FgRed).SprintFunc()
			for _, e := range entries {
				if e.Tampered {
					fmt.Printf("%s %s\n", red("TAMPERED"), e.Raw)
					continue
				}
				fmt.Printf("%s %s %-7s %s\n",
					e.Entry.ID[:8], e.Entry.Time, e.Entry.Op, e.Entry.Message)
			}
			return nil
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Auto-stage file writes until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			w, err := watch.New(r, newLogger())
			if err != nil {
				return err
			}
			defer w.Close()

			fmt.Println("watching", r.Root(), "(ctrl-c to stop)")
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			return nil
		},
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(watchCmd)
}

func printColoredDiff(text string) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.FgCyan)
	marker := color.New(color.FgRed, color.Bold)

	for _, line := range strings.Split(text, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "---"):
			header.Println(line)
		case strings.HasPrefix(line, "+"):
			added.Println(line)
		case strings.HasPrefix(line, "-"):
			removed.Println(line)
		case strings.HasPrefix(line, "!"):
			marker.Println(line)
		default:
			fmt.Println(line)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
