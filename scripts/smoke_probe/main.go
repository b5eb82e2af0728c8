// smoke_probe exercises a deployed gate-pass API and checks each
// endpoint against its expected status code. Intended for post-deploy
// verification; exits non-zero when a critical probe fails.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type probe struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Expect   int    `json:"expect"`
	Auth     bool   `json:"auth"`
	Device   bool   `json:"device"`
	Critical bool   `json:"critical"`
}

type config struct {
	Probes []probe `json:"probes"`
}

type outcome struct {
	Probe    probe
	Status   int
	Duration time.Duration
	Error    error
}

func (o outcome) ok() bool {
	return o.Error == nil && o.Status == o.Probe.Expect
}

func main() {
	var (
		base       string
		probesPath string
		token      string
		deviceKey  string
		timeout    time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&probesPath, "probes", filepath.Join("scripts", "smoke_probe", "probes.json"), "Path to JSON probes file")
	flag.StringVar(&token, "token", os.Getenv("SMOKE_ACCESS_TOKEN"), "Bearer token for authenticated probes")
	flag.StringVar(&deviceKey, "device-key", os.Getenv("SMOKE_DEVICE_KEY"), "Gate device API key for device probes")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	probes, err := loadProbes(probesPath)
	if err != nil {
		log.Fatalf("failed to load probes: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		outcomes []outcome
		failed   int
	)

	for _, p := range probes {
		out := runProbe(client, base, p, token, deviceKey)
		if !out.ok() && p.Critical {
			failed++
		}
		outcomes = append(outcomes, out)
	}

	printReport(outcomes)

	fmt.Printf("Critical failures: %d\n", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func loadProbes(path string) ([]probe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Probes) == 0 {
		return nil, fmt.Errorf("no probes defined in %s", path)
	}
	return cfg.Probes, nil
}

func runProbe(client *http.Client, base string, p probe, token, deviceKey string) outcome {
	out := outcome{Probe: p}

	method := strings.ToUpper(strings.TrimSpace(p.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := p.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		out.Error = err
		return out
	}
	if p.Auth && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if p.Device && deviceKey != "" {
		req.Header.Set("X-Device-Key", deviceKey)
	}

	start := time.Now()
	resp, err := client.Do(req)
	out.Duration = time.Since(start)
	if err != nil {
		out.Error = err
		return out
	}
	defer resp.Body.Close()

	out.Status = resp.StatusCode
	return out
}

func printReport(results []outcome) {
	fmt.Println("Smoke Probe Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "OK"
		if !res.ok() {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Probe.Method, res.Probe.Path)
		if res.Error != nil {
			fmt.Printf("  Error: %v (%s)\n", res.Error, res.Duration)
			continue
		}
		fmt.Printf("  Status: %d, expected %d (%s) | Critical: %t\n", res.Status, res.Probe.Expect, res.Duration, res.Probe.Critical)
	}
}
