package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/render/term"
	"github.com/ayusman/mudra/internal/render/window"
	"github.com/ayusman/mudra/internal/scene"
	"github.com/ayusman/mudra/internal/store"
)

// flags shared by every subcommand.
type flags struct {
	web     string
	tray    bool
	debug   bool
	logFile string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "mudra",
		Short:         "Hand gestures drive a particle scene",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindow(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	for _, key := range config.Keys() {
		pf.String(flagName(key), "", "override the "+key+" setting")
	}
	pf.StringVar(&f.web, "web", "", "directory with the browser client (default: search web/ and ~/.mudra/web)")
	pf.BoolVar(&f.tray, "tray", true, "show the system tray menu")
	pf.BoolVar(&f.debug, "debug", false, "show the debug overlay on start")

	root.AddCommand(
		&cobra.Command{
			Use:   "window",
			Short: "Render in a desktop window (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWindow(cmd, f)
			},
		},
		newTermCmd(&f),
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the scene to browsers without a local renderer",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd, f)
			},
		},
		&cobra.Command{
			Use:   "states",
			Short: "List the scene states",
			Run: func(cmd *cobra.Command, args []string) {
				for _, s := range scene.States() {
					fmt.Fprintln(cmd.OutOrStdout(), s)
				}
			},
		},
		newJournalCmd(),
	)
	return root
}

func newTermCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "term",
		Short: "Render in the terminal with braille cells",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTerm(cmd, *f)
		},
	}
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "write log output here while the screen is active")
	return cmd
}

func newJournalCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print recent scene transitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			st, err := store.New(cfg.DBPath())
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := st.Transitions().Recent(limit)
			if err != nil {
				return err
			}
			for _, t := range rows {
				from := t.From
				if from == "" {
					from = "-"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s -> %-10s  %s\n", t.At.Format("2006-01-02 15:04:05"), from, t.To, t.Trigger)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of transitions")
	return cmd
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// loadConfig layers defaults, stored settings, the environment and the
// flags that were set. st may be nil.
func loadConfig(cmd *cobra.Command, st *store.Store) (config.Config, error) {
	cfg := config.Default()

	if st != nil {
		settings, err := st.Settings().All()
		if err != nil {
			log.Printf("failed to read settings: %v", err)
		} else if err := cfg.ApplySettings(settings); err != nil {
			log.Printf("ignoring stored settings: %v", err)
		}
		phrases, err := st.Phrases().List()
		if err != nil {
			log.Printf("failed to read phrases: %v", err)
		} else if len(phrases) > 0 {
			cfg.Phrases = phrases
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	for _, key := range config.Keys() {
		fl := cmd.Flags().Lookup(flagName(key))
		if fl == nil || !fl.Changed {
			continue
		}
		if err := cfg.Set(key, fl.Value.String()); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func runWindow(cmd *cobra.Command, f flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := setup(cmd, f)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.tray != nil {
		rt.tray.Register()
		defer rt.tray.Quit()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
			rt.quit()
		case <-rt.done:
		}
	}()
	go rt.serveBackground(ctx, f.web)

	fmt.Println("mudra - press h for help, Esc to quit")
	opts := window.Options{
		Title: "mudra",
		Debug: f.debug,
		Done:  rt.done,
	}
	if lib := rt.app.Assets(); lib != nil {
		opts.Photos = lib
	}
	if rt.video != nil {
		opts.Background = rt.video
	}
	return window.Run(rt.app, opts)
}

func runTerm(cmd *cobra.Command, f flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := setup(cmd, f)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-rt.done
		cancel()
	}()
	go rt.serveBackground(ctx, f.web)

	opts := term.Options{LogFile: f.logFile, Debug: f.debug}
	return rt.runWithTray(func() error { return term.Run(ctx, rt.app, opts) })
}

func runServe(cmd *cobra.Command, f flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := setup(cmd, f)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-rt.done
		cancel()
	}()

	return rt.runWithTray(func() error { return rt.serve(ctx, f.web, true) })
}
