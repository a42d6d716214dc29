package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oselab/coretop/internal/monitor"
)

var (
	cpuUsage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "coretop_cpu_usage_percent",
			Help: "Current global CPU usage percentage",
		})
	coreUsage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coretop_core_usage_percent",
			Help: "Current per-core CPU usage percentage",
		},
		[]string{"core"},
	)
	memoryUsage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coretop_memory_bytes",
			Help: "Memory usage in bytes",
		},
		[]string{"type"},
	)
	memoryPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "coretop_memory_usage_percent",
			Help: "Current memory usage percentage",
		})
	swapPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "coretop_swap_usage_percent",
			Help: "Current swap usage percentage",
		})
	processCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "coretop_process_count",
			Help: "Number of processes in the table",
		})
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local only, no origin restrictions needed
	},
}

// wsHub fans snapshots out to every connected /stream client.
type wsHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	msgCh   chan []byte
}

var streamHub = newWSHub()

func newWSHub() *wsHub {
	return &wsHub{
		clients: make(map[*websocket.Conn]bool),
		msgCh:   make(chan []byte, 64),
	}
}

func (h *wsHub) run() {
	for msg := range h.msgCh {
		h.mu.Lock()
		for conn := range h.clients {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				conn.Close()
				delete(h.clients, conn)
			}
		}
		h.mu.Unlock()
	}
}

func (h *wsHub) broadcast(data any) {
	msg, err := json.Marshal(data)
	if err != nil {
		return
	}
	select {
	case h.msgCh <- msg:
	default:
		// drop if channel full (client too slow)
	}
}

func (h *wsHub) register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *wsHub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *wsHub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		stderrLogger.Println("WS upgrade error:", err)
		return
	}

	h.register(conn)
	defer func() {
		h.unregister(conn)
		conn.Close()
	}()

	// Keep alive, the read loop discards client messages.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func startMetricsServer(addr string) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(cpuUsage)
	registry.MustRegister(coreUsage)
	registry.MustRegister(memoryUsage)
	registry.MustRegister(memoryPercent)
	registry.MustRegister(swapPercent)
	registry.MustRegister(processCount)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/stream", streamHub.handleWS)

	go streamHub.run()
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			stderrLogger.Printf("Failed to start metrics server: %v\n", err)
		}
	}()
}

type coreSnapshot struct {
	Name  string  `json:"name"`
	Usage float64 `json:"usage"`
}

type processSnapshot struct {
	PID       int32   `json:"pid"`
	Name      string  `json:"name"`
	CPU       float64 `json:"cpu"`
	MemoryMB  float64 `json:"memory_mb"`
	Status    string  `json:"status"`
	ParentPID int32   `json:"parent_pid"`
}

type snapshot struct {
	Timestamp     string            `json:"timestamp"`
	CPUUsage      float64           `json:"cpu_usage"`
	Cores         []coreSnapshot    `json:"cores"`
	MemoryPercent float64           `json:"memory_percent"`
	MemoryUsedGB  float64           `json:"memory_used_gb"`
	MemoryTotalGB float64           `json:"memory_total_gb"`
	SwapPercent   float64           `json:"swap_percent"`
	SortKey       string            `json:"sort_key"`
	Processes     []processSnapshot `json:"processes"`
}

const bytesPerGB = 1024 * 1024 * 1024

func snapshotFromView(v monitor.View) snapshot {
	cores := make([]coreSnapshot, len(v.CPU.Cores))
	for i, c := range v.CPU.Cores {
		cores[i] = coreSnapshot{Name: c.Name, Usage: c.Usage}
	}
	procs := make([]processSnapshot, len(v.Processes.Records))
	for i, rec := range v.Processes.Records {
		procs[i] = processSnapshot{
			PID:       rec.PID,
			Name:      rec.Name,
			CPU:       rec.CPUPercent,
			MemoryMB:  rec.MemoryMB,
			Status:    string(rec.Status),
			ParentPID: rec.ParentPID,
		}
	}
	return snapshot{
		Timestamp:     time.Now().Format(time.RFC3339),
		CPUUsage:      v.CPU.Global,
		Cores:         cores,
		MemoryPercent: v.Memory.MemoryPercent,
		MemoryUsedGB:  float64(v.Memory.UsedMemory) / bytesPerGB,
		MemoryTotalGB: float64(v.Memory.TotalMemory) / bytesPerGB,
		SwapPercent:   v.Memory.SwapPercent,
		SortKey:       v.Processes.SortKey.String(),
		Processes:     procs,
	}
}

// publishView pushes the current view to the Prometheus gauges and the
// websocket stream. It is a no-op unless --listen was given.
func publishView(v monitor.View) {
	if listenAddr == "" {
		return
	}
	cpuUsage.Set(v.CPU.Global)
	for _, c := range v.CPU.Cores {
		coreUsage.WithLabelValues(c.Name).Set(c.Usage)
	}
	memoryUsage.WithLabelValues("total").Set(float64(v.Memory.TotalMemory))
	memoryUsage.WithLabelValues("used").Set(float64(v.Memory.UsedMemory))
	memoryPercent.Set(v.Memory.MemoryPercent)
	swapPercent.Set(v.Memory.SwapPercent)
	processCount.Set(float64(len(v.Processes.Records)))
	streamHub.broadcast(snapshotFromView(v))
}

func runHeadless(count int) {
	state = newMonitorState()

	if listenAddr != "" {
		startMetricsServer(listenAddr)
	}

	loop := monitor.NewSamplerLoop(state, time.Duration(updateInterval)*time.Millisecond)
	loop.Logger = stderrLogger
	go loop.Run(done)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(updateInterval) * time.Millisecond)
	defer ticker.Stop()

	encoder := json.NewEncoder(os.Stdout)
	emitted := 0
	for {
		select {
		case <-quit:
			close(done)
			return
		case <-ticker.C:
			v := state.View()
			publishView(v)
			if err := encoder.Encode(snapshotFromView(v)); err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
			}
			emitted++
			if count > 0 && emitted >= count {
				close(done)
				return
			}
		}
	}
}
