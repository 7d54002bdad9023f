// Command sketchbench runs the offline sketch evaluation harness over a
// pcap capture: it splits the trace into epochs, replays each epoch
// through every sketch under test and the exact Ideal reference, and
// prints a per-sketch accuracy report.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"sketchbench/internal/config"
	"sketchbench/internal/driver"
	"sketchbench/internal/epoch"
	"sketchbench/internal/metrics"
	"sketchbench/internal/pcapsource"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	pcapPath := flag.String("pcap", "", "path to a pcap file (overrides the config's pcap_file)")
	epochMS := flag.Int("epoch-ms", 0, "epoch duration in milliseconds (overrides the config; 0 keeps the config value)")
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
	if *epochMS > 0 {
		cfg.EpochDurationMS = *epochMS
	}
	if cfg.PcapFile == "" {
		log.Fatalf("No pcap file given: set pcap_file in the config or pass -pcap")
	}

	printRunHeader(cfg)

	fmt.Println("\n[1/4] Parsing pcap file...")
	reader, err := pcapsource.NewReader(cfg.PcapFile)
	if err != nil {
		log.Fatalf("Failed to open pcap file: %v", err)
	}
	defer reader.Close()

	fleet, err := driver.NewFleet(cfg)
	if err != nil {
		log.Fatalf("Failed to build sketch fleet: %v", err)
	}

	records := reader.ReadAll(fleet.Kind())
	epochDuration := time.Duration(cfg.EpochDurationMS) * time.Millisecond
	epochs := epoch.Split(records, epochDuration)
	fmt.Printf("Found %d epochs\n", len(epochs))
	if len(epochs) == 0 {
		log.Fatalf("No packets found in pcap file")
	}

	var publisher *metrics.Publisher
	if cfg.Output.NATS != nil {
		publisher, err = metrics.NewPublisher(*cfg.Output.NATS)
		if err != nil {
			log.Fatalf("Failed to start NATS publisher: %v", err)
		}
		defer publisher.Close()
	}

	var chWriter *metrics.ClickHouseWriter
	if cfg.Output.ClickHouse != nil {
		chWriter, err = metrics.NewClickHouseWriter(*cfg.Output.ClickHouse)
		if err != nil {
			log.Fatalf("Failed to start ClickHouse writer: %v", err)
		}
		defer chWriter.Close()
	}

	fmt.Println("\n[2/4] Initializing sketches...")
	fmt.Println("\n[3/4] Processing epochs...")

	reports := make([]metrics.EpochReport, 0, len(epochs))
	for i, records := range epochs {
		fmt.Printf("Processing epoch %d/%d (%d packets)...\n", i+1, len(epochs), len(records))

		report := fleet.RunEpoch(i, records, cfg.HHThresholdPercentage)
		reports = append(reports, report)

		if publisher != nil {
			if err := publisher.PublishEpoch(report.EpochIndex, report.PacketCount, report.Threshold, report.PerSketch); err != nil {
				log.Printf("Failed to publish epoch %d: %v", i, err)
			}
		}
		if chWriter != nil {
			if err := chWriter.WriteEpoch(report.EpochIndex, report.PerSketch); err != nil {
				log.Printf("Failed to write epoch %d to ClickHouse: %v", i, err)
			}
		}
	}

	fmt.Println("\n[4/4] Computing summary...")
	if len(reports) == 1 {
		metrics.PrintTable(os.Stdout, "Metrics Summary", reports[0].PerSketch)
	} else {
		metrics.PrintTable(os.Stdout, "Average Metrics Across All Epochs", driver.Average(reports))
	}

	fmt.Println("\nEvaluation completed successfully!")
}

func printRunHeader(cfg config.Config) {
	fmt.Println("============================================================")
	fmt.Println("          Sketch Performance Evaluation Tool")
	fmt.Println("============================================================")
	fmt.Printf("Pcap File: %s\n", cfg.PcapFile)
	fmt.Printf("FlowKey Type: %s\n", cfg.FlowKeyKind)
	fmt.Printf("Sketch Memory: %d KB\n", cfg.SketchMemoryBytes/1024)
	fmt.Printf("Epoch Duration: %d ms\n", cfg.EpochDurationMS)
	fmt.Printf("Heavy Hitter Threshold: %v%% of total packets per epoch\n", cfg.HHThresholdPercentage)

	fmt.Println("\nSketch Parameters:")
	fmt.Println("  CountMin:")
	fmt.Printf("    rows = %d\n", cfg.Sketches.CountMin.Rows)
	fmt.Printf("    total_memory = %d KB\n", cfg.SketchMemoryBytes/1024)
	fmt.Println("  CountSketch:")
	fmt.Printf("    rows = %d\n", cfg.Sketches.CountSketch.Rows)
	fmt.Printf("    total_memory = %d KB\n", cfg.SketchMemoryBytes/1024)
	fmt.Println("  ElasticSketch:")
	fmt.Printf("    heavy_memory = %d KB\n", cfg.Sketches.Elastic.HeavyMemoryBytes/1024)
	fmt.Printf("    lambda = %d\n", cfg.Sketches.Elastic.Lambda)
	fmt.Printf("    light_rows = %d\n", cfg.Sketches.Elastic.LightRows)
	fmt.Println("  HashPipe:")
	fmt.Printf("    num_stages = %d\n", cfg.Sketches.HashPipe.NumStages)
	fmt.Printf("    total_memory = %d KB\n", cfg.SketchMemoryBytes/1024)
	fmt.Println("  UnivMon:")
	fmt.Printf("    num_layers = %d\n", cfg.Sketches.UnivMon.NumLayers)
	fmt.Printf("    rows_per_level = %d\n", cfg.Sketches.UnivMon.RowsPerLevel)
	fmt.Println("  SketchLearn:")
	fmt.Printf("    rows = %d\n", cfg.Sketches.SketchLearn.Rows)
	fmt.Println("  FlowRadar:")
	fmt.Printf("    bf_percentage = %v\n", cfg.Sketches.FlowRadar.BFPercentage)
	fmt.Printf("    bf_num_hashes = %d\n", cfg.Sketches.FlowRadar.BFNumHashes)
	fmt.Printf("    ct_num_hashes = %d\n", cfg.Sketches.FlowRadar.CTNumHashes)
	fmt.Println("============================================================")
}
