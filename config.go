package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/the-lightning-land/netconfig/machine"
	"github.com/the-lightning-land/netconfig/network"
)

const (
	defaultConfigFilename = "netconfig.conf"
	defaultDataDirname    = "data"
	defaultRadio          = "wpa"
	defaultMachine        = "badge"
	defaultInterface      = "wlan0"
	defaultRestartMode    = machine.RestartExec
)

var (
	defaultHomeDir    = "/var/lib/netconfig"
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(defaultHomeDir, defaultDataDirname)
)

type wpaConfig struct {
	Interface string `long:"interface" description:"The station interface managed through wpa_supplicant"`
}

type badgeConfig struct {
	ButtonAPin    string `long:"buttona" description:"GPIO pin of button A"`
	ButtonBPin    string `long:"buttonb" description:"GPIO pin of button B"`
	ButtonUpPin   string `long:"buttonup" description:"GPIO pin of the up button"`
	ButtonDownPin string `long:"buttondown" description:"GPIO pin of the down button"`
	RestartMode   string `long:"restart" description:"How to restart after saving a network" choice:"exec" choice:"reboot"`
}

type mockConfig struct {
	Networks []string `long:"network" description:"A mock network as ssid or ssid:passphrase, may be repeated"`
}

type apiConfig struct {
	Listen string `long:"listen" description:"Address the local HTTP API listens on, disabled when empty"`
}

type profilingConfig struct {
	Listen string `long:"listen" description:"Address the profiling server listens on"`
}

type config struct {
	ConfigFile     string           `long:"configfile" description:"Path to configuration file"`
	ShowVersion    bool             `short:"v" long:"version" description:"Display version information and exit"`
	Debug          bool             `long:"debug" description:"Start in debug mode"`
	DataDir        string           `long:"datadir" description:"The directory to store the network configuration in"`
	Radio          string           `long:"radio" description:"The station interface to use" choice:"wpa" choice:"mock"`
	Machine        string           `long:"machine" description:"The hardware to read buttons from" choice:"badge" choice:"mock"`
	ConnectTimeout time.Duration    `long:"connecttimeout" description:"How long to wait for an address after connecting"`
	AutoConnect    bool             `long:"autoconnect" description:"Join the saved network on start"`
	Wpa            *wpaConfig       `group:"WPA" namespace:"wpa"`
	Badge          *badgeConfig     `group:"Badge" namespace:"badge"`
	Mock           *mockConfig      `group:"Mock" namespace:"mock"`
	Api            *apiConfig       `group:"API" namespace:"api"`
	Profiling      *profilingConfig `group:"Profiling" namespace:"profiling"`
}

// loadConfig parses the command line, then the config file and then the
// command line again, so flags take precedence over file settings.
func loadConfig() (*config, error) {
	defaultCfg := config{
		ConfigFile:     defaultConfigFile,
		DataDir:        defaultDataDir,
		Radio:          defaultRadio,
		Machine:        defaultMachine,
		ConnectTimeout: network.DefaultConnectTimeout,
		Wpa: &wpaConfig{
			Interface: defaultInterface,
		},
		Badge: &badgeConfig{
			ButtonAPin:    "GPIO17",
			ButtonBPin:    "GPIO27",
			ButtonUpPin:   "GPIO22",
			ButtonDownPin: "GPIO23",
			RestartMode:   defaultRestartMode,
		},
		Mock: &mockConfig{},
		Api:  &apiConfig{},
	}

	preCfg := defaultCfg
	if _, err := flags.Parse(&preCfg); err != nil {
		return nil, err
	}

	if preCfg.ShowVersion {
		return &preCfg, nil
	}

	cfg := preCfg
	if err := flags.IniParse(preCfg.ConfigFile, &cfg); err != nil {
		// a missing default config file is fine
		if !(os.IsNotExist(err) && preCfg.ConfigFile == defaultConfigFile) {
			return nil, errors.Wrapf(err, "could not read config file %v", preCfg.ConfigFile)
		}
	}

	if _, err := flags.Parse(&cfg); err != nil {
		return nil, err
	}

	if cfg.ConnectTimeout <= 0 {
		return nil, errors.Errorf("connect timeout must be positive, got %v", cfg.ConnectTimeout)
	}

	return &cfg, nil
}

// mockNetworks turns ssid[:passphrase] entries into mock networks. Without
// any entries a default pair of networks is used.
func mockNetworks(entries []string) []*network.MockNetwork {
	if len(entries) == 0 {
		return []*network.MockNetwork{
			{Ssid: "Free WiFi", Rssi: -50},
			{Ssid: "Home", Password: "candy", Rssi: -65},
		}
	}

	var networks []*network.MockNetwork
	for i, entry := range entries {
		ssid, password := entry, ""
		if j := strings.LastIndex(entry, ":"); j >= 0 {
			ssid, password = entry[:j], entry[j+1:]
		}

		networks = append(networks, &network.MockNetwork{
			Ssid:     ssid,
			Password: password,
			Rssi:     -40 - 5*i,
		})
	}

	return networks
}
