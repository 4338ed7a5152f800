package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	ui "github.com/gizak/termui/v3"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/the-lightning-land/netconfig/access"
	"github.com/the-lightning-land/netconfig/api"
	"github.com/the-lightning-land/netconfig/configdb"
	"github.com/the-lightning-land/netconfig/connectivity"
	"github.com/the-lightning-land/netconfig/display"
	"github.com/the-lightning-land/netconfig/machine"
	"github.com/the-lightning-land/netconfig/menu"
	"github.com/the-lightning-land/netconfig/network"
	"github.com/the-lightning-land/netconfig/profile"
	"github.com/the-lightning-land/netconfig/session"
	// Blank import to set up profiling HTTP handlers.
	_ "net/http/pprof"
)

var (
	// commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	Commit string
	// version stores the version string of this build. This should be set using -ldflags during compilation.
	Version string
	// date stores the date of this build. This should be set using -ldflags during compilation.
	Date string
)

// netconfigMain is the true entry point for netconfig. This is required since defers
// created in the top-level scope of a main method aren't executed if os.Exit() is called.
func netconfigMain() error {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	// Load CLI configuration and defaults
	cfg, err := loadConfig()
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		return nil
	} else if err != nil {
		return errors.Errorf("Failed parsing arguments: %v", err)
	}

	// Set logger into debug mode if called with --debug
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		log.Info("Setting debug mode.")
	}

	log.Debug("Loaded config.")

	// Print version of the daemon
	log.Infof("Version %s (commit %s)", Version, Commit)
	log.Infof("Built on %s", Date)

	// Stop here if only version was requested
	if cfg.ShowVersion {
		return nil
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return errors.Wrapf(err, "could not create data dir %v", cfg.DataDir)
	}

	// The display owns the terminal, so logs go to a file from here on
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "netconfig.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return errors.Wrap(err, "could not open log file")
	}

	defer logFile.Close()

	log.SetOutput(logFile)

	if cfg.Profiling != nil && cfg.Profiling.Listen != "" {
		go func() {
			log.Infof("Starting profiling server on %v", cfg.Profiling.Listen)
			// Redirect the root path
			http.Handle("/", http.RedirectHandler("/debug/pprof", http.StatusSeeOther))
			// All other handlers are registered on DefaultServeMux through the import of pprof
			err := http.ListenAndServe(cfg.Profiling.Listen, nil)
			if err != nil {
				log.Errorf("Could not run profiler: %v", err)
			}
		}()
	}

	// netconfig.db persistently stores the saved network configuration
	db, err := configdb.Open(cfg.DataDir)
	if err != nil {
		return errors.Errorf("Could not open netconfig.db: %v", err)
	}

	log.Infof("Opened netconfig.db")

	defer func() {
		err := db.Close()
		if err != nil {
			log.Errorf("Could not close netconfig.db: %v", err)
		} else {
			log.Info("Closed netconfig.db.")
		}
	}()

	// The station interface, which all network configuration goes through
	var radio network.Radio

	switch cfg.Radio {
	case "wpa":
		wpaRadio := network.NewWpaRadio(&network.WpaRadioConfig{
			Interface: cfg.Wpa.Interface,
			Logger:    log.New().WithField("system", "radio"),
		})

		err = wpaRadio.Start()
		if err != nil {
			return errors.Errorf("Could not start radio: %v", err)
		}

		defer func() {
			err := wpaRadio.Stop()
			if err != nil {
				log.Errorf("Could not properly shut down radio: %v", err)
			} else {
				log.Info("Stopped radio.")
			}
		}()

		radio = wpaRadio

		log.Infof("Created wpa_supplicant radio on %v.", cfg.Wpa.Interface)
	case "mock":
		radio = network.NewMockRadio(mockNetworks(cfg.Mock.Networks)...)

		log.Info("Created a mock radio.")
	default:
		return errors.Errorf("Unknown radio type %v", cfg.Radio)
	}

	// The hardware controller
	var m machine.Machine

	switch cfg.Machine {
	case "badge":
		restarter, err := machine.NewRestarter(&machine.RestarterConfig{
			Mode:   cfg.Badge.RestartMode,
			Logger: log.New().WithField("system", "restarter"),
		})
		if err != nil {
			return errors.Errorf("Could not create restarter: %v", err)
		}

		m = machine.NewBadgeMachine(&machine.BadgeMachineConfig{
			ButtonAPin:    cfg.Badge.ButtonAPin,
			ButtonBPin:    cfg.Badge.ButtonBPin,
			ButtonUpPin:   cfg.Badge.ButtonUpPin,
			ButtonDownPin: cfg.Badge.ButtonDownPin,
			Restarter:     restarter,
			Logger:        log.New().WithField("system", "machine"),
		})

		log.Infof("Created badge machine on pins A %v, B %v, up %v and down %v with %v restarts.",
			cfg.Badge.ButtonAPin, cfg.Badge.ButtonBPin, cfg.Badge.ButtonUpPin, cfg.Badge.ButtonDownPin, cfg.Badge.RestartMode)
	case "mock":
		m = machine.NewMockMachine(&machine.MockMachineConfig{
			Logger: log.New().WithField("system", "machine"),
		})

		log.Info("Created a mock machine.")
	default:
		return errors.Errorf("Unknown machine type %v", cfg.Machine)
	}

	if err := m.Start(); err != nil {
		return errors.Errorf("Could not start machine: %v", err)
	}

	defer func() {
		err := m.Stop()
		if err != nil {
			log.Errorf("Could not properly stop machine: %v", err)
		} else {
			log.Infof("Stopped machine.")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals correctly
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		sig := <-signals
		log.Info(sig)
		log.Info("Received an interrupt, stopping netconfig...")
		cancel()
	}()

	reporter := connectivity.NewRadioReporter(&connectivity.RadioReporterConfig{
		Source: radio,
		Logger: log.New().WithField("system", "connectivity"),
	})

	persister := profile.NewPersister(&profile.PersisterConfig{
		Section: db.Section(profile.SectionName),
		Logger:  log.New().WithField("system", "profile"),
	})

	// guards the API once a password is set from the menu
	accessStore := access.NewStore(&access.StoreConfig{
		Section: db.Section(access.SectionName),
		Logger:  log.New().WithField("system", "access"),
	})

	if err := menu.Init(); err != nil {
		return errors.Errorf("Could not initialize display: %v", err)
	}

	defer menu.Close()

	d := display.New(&display.Config{
		UiEvents: ui.PollEvents(),
		Buttons:  m.ButtonEvents(),
		Reporter: reporter,
		Logger:   log.New().WithField("system", "display"),
	})

	broadcaster := api.NewBroadcaster()

	// central controller for the network configuration menu
	s := session.New(&session.Config{
		Scanner: network.NewScanner(&network.ScannerConfig{
			Radio:  radio,
			Logger: log.New().WithField("system", "scanner"),
		}),
		Associator: network.NewAssociator(&network.AssociatorConfig{
			Radio:  radio,
			Logger: log.New().WithField("system", "associator"),
		}),
		Persister:      persister,
		Restarter:      m,
		Access:         accessStore,
		Sink:           session.MultiSink(d, broadcaster),
		ConnectTimeout: cfg.ConnectTimeout,
		Logger:         log.New().WithField("system", "session"),
	})

	log.Infof("Created session.")

	if cfg.Api.Listen != "" {
		listener, err := net.Listen("tcp", cfg.Api.Listen)
		if err != nil {
			return errors.Errorf("Could not listen on %v: %v", cfg.Api.Listen, err)
		}

		defer listener.Close()

		a := api.New(&api.Config{
			Session:     s,
			Reporter:    reporter,
			Broadcaster: broadcaster,
			Access:      accessStore,
			Logger:      log.New().WithField("system", "api"),
		})

		go a.WatchConnectivity(ctx)

		go func() {
			log.Infof("Serving API on %v", listener.Addr())

			err := a.Serve(listener)
			if err != nil && ctx.Err() == nil {
				log.Errorf("Could not serve API: %v", err)
			}
		}()
	}

	// the saved network is joined by the display, so B can abort it
	var startup []session.Event

	if cfg.AutoConnect {
		saved, err := persister.Load()
		if err != nil {
			log.Errorf("Could not load saved network: %v", err)
		} else if saved == nil {
			log.Info("No saved network to connect to.")
		} else {
			startup = append(startup, session.ConnectProfile{Profile: saved})
		}
	}

	// blocks until interrupted or the input ends
	err = d.Run(ctx, s, startup...)
	if err != nil {
		return errors.Errorf("Failed running display: %v", err)
	}

	// finish with no error
	return nil
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := netconfigMain(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			log.WithError(err).Println("Failed running netconfig.")
		}
		os.Exit(1)
	}
}
