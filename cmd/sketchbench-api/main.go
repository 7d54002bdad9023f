// Command sketchbench-api runs the same benchmark as sketchbench, then
// keeps serving its per-epoch and averaged results over HTTP until
// terminated.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"sketchbench/internal/config"
	"sketchbench/internal/driver"
	"sketchbench/internal/epoch"
	"sketchbench/internal/metrics"
	"sketchbench/internal/pcapsource"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	pcapPath := flag.String("pcap", "", "path to a pcap file (overrides the config's pcap_file)")
	flag.Parse()

	cfg := config.Default()
	if _, err := os.Stat(*configPath); err == nil {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}
	if *pcapPath != "" {
		cfg.PcapFile = *pcapPath
	}
	if cfg.PcapFile == "" {
		log.Fatalf("No pcap file given: set pcap_file in the config or pass -pcap")
	}
	if cfg.Output.API == nil {
		cfg.Output.API = &config.APIConfig{ListenAddr: ":8089"}
	}

	store := metrics.NewStore()
	if err := runBenchmark(cfg, store); err != nil {
		log.Fatalf("Benchmark run failed: %v", err)
	}

	handler := &apiHandler{store: store}
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/epochs", handler.listEpochs).Methods("GET")
	r.HandleFunc("/api/v1/average", handler.average).Methods("GET")

	server := &http.Server{Addr: cfg.Output.API.ListenAddr, Handler: r}

	go func() {
		log.Printf("API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("API server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("API server exited.")
}

// runBenchmark replays the configured pcap through a fresh sketch fleet
// and stores the result for the API handlers to serve.
func runBenchmark(cfg config.Config, store *metrics.Store) error {
	reader, err := pcapsource.NewReader(cfg.PcapFile)
	if err != nil {
		return err
	}
	defer reader.Close()

	fleet, err := driver.NewFleet(cfg)
	if err != nil {
		return err
	}

	records := reader.ReadAll(fleet.Kind())
	epochDuration := time.Duration(cfg.EpochDurationMS) * time.Millisecond
	epochs := epoch.Split(records, epochDuration)

	reports := make([]metrics.EpochReport, 0, len(epochs))
	for i, recs := range epochs {
		reports = append(reports, fleet.RunEpoch(i, recs, cfg.HHThresholdPercentage))
	}

	store.SetRun(reports, driver.Average(reports))
	return nil
}

type apiHandler struct {
	store *metrics.Store
}

func (h *apiHandler) listEpochs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Epochs())
}

func (h *apiHandler) average(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Average())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
