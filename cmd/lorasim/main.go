// lorasim simulates a LoRaWAN radio medium populated by end-devices and one
// or more gateway bridges.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lorasim/simulator/internal/adminapi"
	"github.com/lorasim/simulator/internal/device"
	"github.com/lorasim/simulator/internal/device/simidentity"
	"github.com/lorasim/simulator/internal/devicecatalog"
	"github.com/lorasim/simulator/internal/gateway/broker"
	"github.com/lorasim/simulator/internal/gateway/datagram"
	"github.com/lorasim/simulator/internal/medium"
	"github.com/lorasim/simulator/internal/orchestrator"
	"github.com/lorasim/simulator/internal/radio"
	"github.com/lorasim/simulator/internal/radio/geometry"
	"github.com/lorasim/simulator/internal/radio/timing"
	"github.com/lorasim/simulator/internal/storage"
	"github.com/lorasim/simulator/internal/telemetry"
	"github.com/lorasim/simulator/internal/traffic"
)

// Config represents the nested YAML configuration file structure.
type Config struct {
	Simulation struct {
		NumDevices       int     `yaml:"num_devices"`
		NumPackets       int     `yaml:"num_packets"`
		FixedJoinDelay   float64 `yaml:"fixed_join_delay"`
		RandomJoinDelay  float64 `yaml:"random_join_delay"`
		FixedPacketDelay float64 `yaml:"fixed_packet_delay"`
		RandomPacketDelay float64 `yaml:"random_packet_delay"`
		JoinAttempts     int     `yaml:"join_attempts"`
		JoinTimeout      float64 `yaml:"join_timeout"`
		UplinkTimeout    float64 `yaml:"uplink_timeout"`
		StartingDevNonce uint32  `yaml:"starting_dev_nonce"`
		StartingFCntUp   uint32  `yaml:"starting_fcnt_up"`
		Deadline         float64 `yaml:"deadline"`

		// PacketIntervalDistributionFile, if set, names a tab/comma-separated
		// value/probability file loaded as the uplink inter-arrival
		// distribution; otherwise FixedPacketDelay/RandomPacketDelay drive a
		// jittered-periodic model.
		PacketIntervalDistributionFile string `yaml:"packet_interval_distribution_file"`
	} `yaml:"simulation"`

	Radio struct {
		Region          string `yaml:"region"`
		SpreadingFactor uint8  `yaml:"spreading_factor"`
		Bandwidth       uint32 `yaml:"bandwidth"`
		CodeRate        uint8  `yaml:"code_rate"`
		FrequencyHz     uint32 `yaml:"frequency_hz"`
		TxPowerDBm      float64 `yaml:"tx_power_dbm"`
		SensitivityDBm  float64 `yaml:"sensitivity_dbm"`
		SweepInterval   float64 `yaml:"sweep_interval"`
		PathLossModel   string  `yaml:"path_loss_model"`
	} `yaml:"radio"`

	Devices struct {
		ProvisioningFile string `yaml:"provisioning_file"`
	} `yaml:"devices"`

	GatewayBridge struct {
		Variant   string `yaml:"variant"` // "datagram" or "broker"
		ServerAddr string `yaml:"server_addr"`
		BrokerURL  string `yaml:"broker_url"`
		GatewayID  string `yaml:"gateway_id"`
	} `yaml:"gateway_bridge"`

	DeviceCatalog struct {
		BaseURL       string `yaml:"base_url"`
		BearerToken   string `yaml:"bearer_token"`
		ApplicationID string `yaml:"application_id"`
	} `yaml:"device_catalog"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Logging struct {
		ActiveLogger  bool   `yaml:"active_logger"`
		LoggerPrintln bool   `yaml:"logger_println"`
		RTTLogPath    string `yaml:"rtt_log_path"`
		PrintLogPath  string `yaml:"print_log_path"`
		SessionsPath  string `yaml:"sessions_path"`
		ResponsePath  string `yaml:"response_path"`
	} `yaml:"logging"`

	AdminAPI struct {
		ListenAddr    string `yaml:"listen_addr"`
		DashboardAddr string `yaml:"dashboard_addr"`
	} `yaml:"admin_api"`
}

var (
	configFile string
	rootCmd    = &cobra.Command{
		Use:   "lorasim",
		Short: "LoRaWAN radio-medium simulator",
		Long:  "Simulates a shared LoRaWAN radio medium populated by end-devices and gateway bridges.",
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the simulation",
		RunE:  runSimulation,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("lorasim v0.1.0")
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/lorasim/config.yaml", "Configuration file path")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Devices.ProvisioningFile == "" {
		return fmt.Errorf("devices.provisioning_file is required")
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)

	telCfg := telemetry.DefaultConfig()
	telCfg.Active = cfg.Logging.ActiveLogger
	telCfg.PrintlnMirror = cfg.Logging.LoggerPrintln
	if cfg.Logging.RTTLogPath != "" {
		telCfg.RTTLogPath = cfg.Logging.RTTLogPath
	}
	if cfg.Logging.PrintLogPath != "" {
		telCfg.PrintLogPath = cfg.Logging.PrintLogPath
	}
	if cfg.Logging.SessionsPath != "" {
		telCfg.SessionsPath = cfg.Logging.SessionsPath
	}
	if cfg.Logging.ResponsePath != "" {
		telCfg.ResponsePath = cfg.Logging.ResponsePath
	}
	tel, err := telemetry.Open(telCfg)
	if err != nil {
		return fmt.Errorf("failed to open telemetry sinks: %w", err)
	}
	defer tel.Close()

	var store *storage.Store
	if cfg.Database.Path != "" {
		store, err = storage.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()
	}

	mediumCfg := medium.DefaultConfig()
	if cfg.Radio.SweepInterval > 0 {
		mediumCfg.SweepInterval = secondsToDuration(cfg.Radio.SweepInterval)
	}
	if cfg.Radio.PathLossModel == "log_distance_shadowing" {
		mediumCfg.PathLossModel = geometry.LogDistanceShadowing
	}
	m := medium.New(mediumCfg, logger)

	orchCfg := orchestrator.DefaultConfig()
	if cfg.Simulation.Deadline > 0 {
		orchCfg.Deadline = secondsToDuration(cfg.Simulation.Deadline)
	}
	orch := orchestrator.New(orchCfg, m, store, logger)

	var catalog *devicecatalog.Client
	if cfg.DeviceCatalog.BaseURL != "" {
		catCfg := devicecatalog.DefaultConfig()
		catCfg.BaseURL = cfg.DeviceCatalog.BaseURL
		catCfg.BearerToken = cfg.DeviceCatalog.BearerToken
		catCfg.ApplicationID = cfg.DeviceCatalog.ApplicationID
		catalog = devicecatalog.New(catCfg)
	}

	devices, err := loadDevices(cfg, orch, m, tel, store, catalog, logger)
	if err != nil {
		return fmt.Errorf("failed to load devices: %w", err)
	}
	logger.Printf("lorasim: loaded %d devices from %s", len(devices), cfg.Devices.ProvisioningFile)

	packetDelayModel := traffic.NewJitteredModel(cfg.Simulation.FixedPacketDelay, cfg.Simulation.RandomPacketDelay)
	if cfg.Simulation.PacketIntervalDistributionFile != "" {
		dist, err := traffic.LoadEmpiricalDistribution(cfg.Simulation.PacketIntervalDistributionFile)
		if err != nil {
			return fmt.Errorf("failed to load packet interval distribution: %w", err)
		}
		packetDelayModel = traffic.NewEmpiricalModel(dist)
	}

	runCfg := device.RunConfig{
		JoinDelayModel:   traffic.NewJitteredModel(cfg.Simulation.FixedJoinDelay, cfg.Simulation.RandomJoinDelay),
		JoinAttempts:     cfg.Simulation.JoinAttempts,
		JoinTimeout:      secondsToDuration(cfg.Simulation.JoinTimeout),
		NumPackets:       cfg.Simulation.NumPackets,
		PacketDelayModel: packetDelayModel,
		UplinkTimeout:    secondsToDuration(cfg.Simulation.UplinkTimeout),
	}
	seed := int64(cfg.Simulation.StartingDevNonce)
	for i, d := range devices {
		rng := rand.New(rand.NewSource(seed + int64(i)))
		orch.Spawn(orchestrator.DeviceTask{Device: d, Config: runCfg, Rng: rng, Logger: logger})
	}

	if cfg.GatewayBridge.Variant != "" {
		bridgeNode := radio.NewNodeConfig(
			geometry.Position{},
			radio.Parameters{
				Region:          radio.Region(cfg.Radio.Region),
				SpreadingFactor: timing.SpreadingFactor(cfg.Radio.SpreadingFactor),
				Bandwidth:       timing.Bandwidth(cfg.Radio.Bandwidth),
				CodeRate:        timing.CodeRate(cfg.Radio.CodeRate),
				FrequencyHz:     cfg.Radio.FrequencyHz,
			},
			cfg.Radio.TxPowerDBm,
			cfg.Radio.SensitivityDBm,
		)

		switch cfg.GatewayBridge.Variant {
		case "datagram":
			dgCfg := datagram.DefaultConfig()
			dgCfg.ServerAddr = cfg.GatewayBridge.ServerAddr
			bridge, err := datagram.Dial(dgCfg, bridgeNode, m, logger)
			if err != nil {
				return fmt.Errorf("failed to dial datagram bridge: %w", err)
			}
			defer bridge.Close()
			orch.Register(bridge)
			orch.Spawn(orchestrator.BridgeTask{Bridge: bridge})
		case "broker":
			brCfg := broker.DefaultConfig()
			brCfg.BrokerURL = cfg.GatewayBridge.BrokerURL
			brCfg.GatewayID = cfg.GatewayBridge.GatewayID
			if cfg.Radio.Region != "" {
				brCfg.Region = cfg.Radio.Region
			}
			bridge, err := broker.Connect(brCfg, bridgeNode, m, logger)
			if err != nil {
				return fmt.Errorf("failed to connect broker bridge: %w", err)
			}
			defer bridge.Close()
			orch.Register(bridge)
			orch.Spawn(orchestrator.BridgeTask{Bridge: bridge})
		default:
			return fmt.Errorf("unknown gateway_bridge.variant %q", cfg.GatewayBridge.Variant)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	adminCfg := adminapi.DefaultConfig()
	if cfg.AdminAPI.ListenAddr != "" {
		adminCfg.ListenAddr = cfg.AdminAPI.ListenAddr
	}
	if cfg.AdminAPI.DashboardAddr != "" {
		adminCfg.DashboardAddr = cfg.AdminAPI.DashboardAddr
	}
	statsSource := orchestrator.AdminStatsAdapter{Orchestrator: orch}
	adminServer := adminapi.New(adminCfg, statsSource, cancel, logger)
	go func() {
		if err := adminServer.Serve(adminCfg.ListenAddr); err != nil {
			logger.Printf("lorasim: admin API server stopped: %v", err)
		}
	}()
	defer adminServer.Stop()

	dashboardServer, err := adminapi.ServeDashboard(adminCfg, statsSource, logger)
	if err != nil {
		logger.Printf("lorasim: dashboard failed to start: %v", err)
	}
	if dashboardServer != nil {
		defer dashboardServer.Close()
	}

	go func() {
		sig := <-sigChan
		logger.Printf("lorasim: received signal %v, shutting down...", sig)
		cancel()
	}()

	logger.Printf("lorasim: starting simulation run")
	orch.Run(ctx)
	logger.Println("lorasim: shutdown complete")
	return nil
}

// loadDevices reads one JSON provisioning line per device, constructs a
// simidentity.Identity for each, and wires it into a device.Device
// registered with the medium and the orchestrator. When catalog is
// non-nil, a device is only admitted to the run once the catalog confirms
// it holds keys and an activation for its dev-EUI; devices the catalog
// doesn't know about are skipped before a join is ever attempted.
func loadDevices(cfg *Config, orch *orchestrator.Orchestrator, m *medium.Medium, tel *telemetry.Telemetry, store *storage.Store, catalog *devicecatalog.Client, logger *log.Logger) ([]*device.Device, error) {
	f, err := os.Open(cfg.Devices.ProvisioningFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var recorder device.Recorder = tel
	if store != nil {
		recorder = storage.NewRecorder(tel, store)
	}

	var devices []*device.Device
	scanner := bufio.NewScanner(f)
	idx := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		identity, err := simidentity.New(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", idx+1, err)
		}

		if catalog != nil {
			ctx := context.Background()
			if _, err := catalog.GetDeviceKeys(ctx, identity.DevEUI()); err != nil {
				logger.Printf("lorasim: device catalog has no keys for %s, skipping: %v", identity.DevEUI(), err)
				continue
			}
			if _, err := catalog.GetActivation(ctx, identity.DevEUI()); err != nil {
				logger.Printf("lorasim: device catalog has no activation for %s, skipping: %v", identity.DevEUI(), err)
				continue
			}
		}

		pos := geometry.Position{X: float64(idx+1) * 10.0}
		params := radio.Parameters{
			Region:          radio.Region(cfg.Radio.Region),
			SpreadingFactor: timing.SpreadingFactor(cfg.Radio.SpreadingFactor),
			Bandwidth:       timing.Bandwidth(cfg.Radio.Bandwidth),
			CodeRate:        timing.CodeRate(cfg.Radio.CodeRate),
			FrequencyHz:     cfg.Radio.FrequencyHz,
		}
		node := radio.NewNodeConfig(pos, params, cfg.Radio.TxPowerDBm, cfg.Radio.SensitivityDBm)

		d := device.New(identity, node, m, recorder, 64)
		orch.Register(d)
		devices = append(devices, d)
		idx++

		if cfg.Simulation.NumDevices > 0 && idx >= cfg.Simulation.NumDevices {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return devices, nil
}
