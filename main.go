package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"flowguard/internal/capture"
	"flowguard/internal/config"
	"flowguard/internal/dashboard"
	"flowguard/internal/logging"
	"flowguard/internal/model"
	"flowguard/internal/tui"
)

func main() {
	cfg, fromFile, err := config.Load(config.Path(), os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, logCloser := logging.New(cfg.Log)
	defer logCloser.Close()
	logger.Info("starting flowguard",
		zap.String("model", cfg.Model.Path),
		zap.String("format", cfg.Model.Format),
		zap.Bool("config_file", fromFile),
	)

	// The pipeline is loaded once, here, and shared read-only with the UI.
	handle := model.NewHandle(model.FileLoader(cfg.ModelOptions()), logger)
	defer handle.Close()
	_, _ = handle.Get()

	var initial []dashboard.Event
	var source string
	if cfg.Capture.PcapPath != "" {
		flows, err := capture.ReadFile(cfg.Capture.PcapPath)
		if err != nil {
			log.Fatalf("Failed to read capture: %v", err)
		}
		flow, ok := capture.Busiest(flows)
		if !ok {
			log.Fatalf("No TCP or UDP flows in %s", cfg.Capture.PcapPath)
		}
		logger.Info("seeding inputs from capture",
			zap.String("pcap", cfg.Capture.PcapPath),
			zap.Int("flows", len(flows)),
		)
		initial = dashboard.Seed(flow.Inputs())
		source = fmt.Sprintf("%s [%s]", cfg.Capture.PcapPath, flow.Key)
	}

	m := tui.NewDashboardModel(handle, cfg.Model.Path, source, initial...)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		logger.Error("dashboard exited with error", zap.Error(err))
		log.Printf("Error running TUI: %v", err)
	}
}
